package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProxySourceSearch(t *testing.T) {
	var gotAuth, gotAction, gotQ, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		q := r.URL.Query()
		gotAction, gotQ, gotLimit = q.Get("action"), q.Get("q"), q.Get("limit")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"abcdefghijk","title":"Artist - Song (Official Video)","artist":"Channel",
			"thumbnailUrl":"m.jpg","albumArt":"h.jpg","duration":"PT2M5S","url":"https://www.youtube.com/watch?v=abcdefghijk"},
			{"id":"zyxwvutsrqp","title":"Other","artist":"Chan","thumbnailUrl":"t.jpg","duration":"00:00"}]`))
	}))
	defer srv.Close()

	src := NewProxySource(srv.URL+"/", "secret", 5, srv.Client())
	tracks, err := src.SearchMusic(context.Background(), "lofi")
	if err != nil {
		t.Fatalf("SearchMusic: %v", err)
	}

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAction != "search" || gotQ != "lofi" || gotLimit != "5" {
		t.Errorf("params = %s %s %s", gotAction, gotQ, gotLimit)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks", len(tracks))
	}
	if tracks[0].Title != "Song" || tracks[0].Artist != "Artist" || tracks[0].Duration != "2:05" || tracks[0].DurationSeconds != 125 {
		t.Errorf("first = %+v", tracks[0])
	}
	if tracks[1].Duration != "0:00" || tracks[1].AlbumArt != "t.jpg" || tracks[1].URL != WatchURL("zyxwvutsrqp") {
		t.Errorf("second = %+v", tracks[1])
	}
}

func TestProxySourceTrending(t *testing.T) {
	var action string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action = r.URL.Query().Get("action")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tracks, err := NewProxySource(srv.URL, "", 0, nil).PopularMusic(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if action != "trending" || len(tracks) != 0 {
		t.Errorf("action = %q tracks = %v", action, tracks)
	}
}

func TestProxySourceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"YouTube API error","details":{"error":{"code":403}}}`))
	}))
	defer srv.Close()

	_, err := NewProxySource(srv.URL, "", 0, srv.Client()).SearchMusic(context.Background(), "x")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("err = %v", err)
	}
	var re *RequestError
	if !errors.As(err, &re) || re.Status != http.StatusForbidden || re.Message != "YouTube API error" {
		t.Fatalf("err = %#v", err)
	}
}
