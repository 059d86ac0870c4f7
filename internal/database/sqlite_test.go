package database

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/haryoiro/tubetone/internal/structures"
)

func openTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "tubetone.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sample(id, title string) structures.Track {
	return structures.Track{
		TrackID:         id,
		Title:           title,
		Artist:          "Artist " + id,
		Thumbnail:       "https://i.ytimg.com/" + id + ".jpg",
		Duration:        "3:30",
		DurationSeconds: 210,
		URL:             "https://www.youtube.com/watch?v=" + id,
		ViewCount:       "1.0K",
	}
}

func TestSaveAndGetTrack(t *testing.T) {
	db := openTestDB(t)

	if _, ok := db.GetTrack("missing"); ok {
		t.Fatal("GetTrack on empty db returned ok")
	}

	tr := sample("a", "First")
	if err := db.SaveTrack(tr); err != nil {
		t.Fatalf("SaveTrack: %v", err)
	}
	tr.Title = "First (updated)"
	if err := db.SaveTrack(tr); err != nil {
		t.Fatalf("SaveTrack update: %v", err)
	}

	got, ok := db.GetTrack("a")
	if !ok {
		t.Fatal("GetTrack: not found")
	}
	if got.Track != tr {
		t.Errorf("track = %+v, want %+v", got.Track, tr)
	}
	if got.AddedAt.IsZero() {
		t.Error("AddedAt not set")
	}
	if got.PlayCount != 0 || !got.LastPlayed.IsZero() {
		t.Errorf("fresh track has play stats: %+v", got)
	}
}

func TestRecordPlayAndHistory(t *testing.T) {
	db := openTestDB(t)

	a, b, c := sample("a", "Alpha"), sample("b", "Beta"), sample("c", "Gamma")
	for _, tr := range []structures.Track{a, b, a, c, a} {
		if err := db.RecordPlay(tr); err != nil {
			t.Fatalf("RecordPlay(%s): %v", tr.TrackID, err)
		}
	}

	recent := db.RecentlyPlayed(10)
	if len(recent) != 3 {
		t.Fatalf("recent = %d entries, want 3 distinct", len(recent))
	}
	order := []string{recent[0].Track.TrackID, recent[1].Track.TrackID, recent[2].Track.TrackID}
	if order[0] != "a" || order[1] != "c" || order[2] != "b" {
		t.Errorf("recent order = %v, want [a c b]", order)
	}

	if got := db.RecentlyPlayed(1); len(got) != 1 {
		t.Errorf("limit ignored: %d", len(got))
	}

	most := db.MostPlayed(2)
	if len(most) != 2 || most[0].Track.TrackID != "a" || most[0].PlayCount != 3 {
		t.Fatalf("most played = %+v", most)
	}
	if most[0].LastPlayed.IsZero() {
		t.Error("LastPlayed not recorded")
	}
}

func TestSearch(t *testing.T) {
	db := openTestDB(t)
	for _, tr := range []structures.Track{
		sample("a", "Midnight City"),
		sample("b", "City of Stars"),
		sample("c", "Quiet 100% Mix"),
	} {
		if err := db.SaveTrack(tr); err != nil {
			t.Fatal(err)
		}
	}

	if got := db.Search("city"); len(got) != 2 {
		t.Errorf("search city = %d results", len(got))
	}
	if got := db.Search("100%"); len(got) != 1 || got[0].Track.TrackID != "c" {
		t.Errorf("search 100%% = %+v", got)
	}
	if got := db.Search("Artist b"); len(got) != 1 || got[0].Track.TrackID != "b" {
		t.Errorf("artist search = %+v", got)
	}
	if got := db.Search("nothing"); len(got) != 0 {
		t.Errorf("unexpected results: %+v", got)
	}
}

func TestPlaylists(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.CreatePlaylist("  ", ""); err == nil {
		t.Fatal("empty title accepted")
	}

	p, err := db.CreatePlaylist("Road trip", "long drives")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if p.ID == "" {
		t.Fatal("playlist id not assigned")
	}

	for _, tr := range []structures.Track{sample("a", "A"), sample("b", "B"), sample("a", "A")} {
		if err := db.AddToPlaylist(p.ID, tr); err != nil {
			t.Fatalf("AddToPlaylist: %v", err)
		}
	}
	if err := db.AddToPlaylist("nope", sample("x", "X")); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("add to unknown playlist err = %v", err)
	}

	tracks, err := db.PlaylistTracks(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 2 || tracks[0].TrackID != "a" || tracks[1].TrackID != "b" {
		t.Fatalf("playlist tracks = %+v", tracks)
	}

	lists, err := db.Playlists()
	if err != nil {
		t.Fatal(err)
	}
	if len(lists) != 1 || lists[0].TrackCount != 2 || lists[0].Description != "long drives" {
		t.Fatalf("playlists = %+v", lists)
	}

	if err := db.RemoveFromPlaylist(p.ID, "a"); err != nil {
		t.Fatal(err)
	}
	tracks, _ = db.PlaylistTracks(p.ID)
	if len(tracks) != 1 || tracks[0].TrackID != "b" {
		t.Fatalf("after remove = %+v", tracks)
	}

	if err := db.DeletePlaylist(p.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.DeletePlaylist(p.ID); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if lists, _ = db.Playlists(); len(lists) != 0 {
		t.Errorf("playlists after delete = %+v", lists)
	}
	// tracks survive playlist deletion
	if _, ok := db.GetTrack("b"); !ok {
		t.Error("track removed with playlist")
	}
}

func TestAppStateAndRepair(t *testing.T) {
	db := openTestDB(t)

	if _, ok := db.GetAppState("volume"); ok {
		t.Fatal("unexpected state")
	}
	if err := db.SaveAppState("volume", "0.4"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveAppState("volume", "0.6"); err != nil {
		t.Fatal(err)
	}
	if v, ok := db.GetAppState("volume"); !ok || v != "0.6" {
		t.Errorf("volume = %q, %v", v, ok)
	}

	if err := db.RecordPlay(sample("a", "A")); err != nil {
		t.Fatal(err)
	}
	if err := db.Repair(); err != nil {
		t.Fatalf("Repair: %v", err)
	}
	if len(db.RecentlyPlayed(5)) != 1 {
		t.Error("repair dropped valid history")
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tubetone.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.RecordPlay(sample("a", "A")); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if got := db.RecentlyPlayed(5); len(got) != 1 {
		t.Fatalf("history lost across reopen: %+v", got)
	}
}
