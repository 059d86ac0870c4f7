package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const searchJSON = `{
  "items": [
    {
      "id": {"kind": "youtube#video", "videoId": "abcdefghijk"},
      "snippet": {
        "title": "Daft Punk - One More Time (Official Video)",
        "channelTitle": "Daft Punk",
        "publishedAt": "2009-10-25T06:57:33Z",
        "thumbnails": {
          "default": {"url": "https://i.ytimg.com/default.jpg"},
          "high": {"url": "https://i.ytimg.com/high.jpg"}
        }
      }
    },
    {
      "id": {"kind": "youtube#video", "videoId": "lmnopqrstuv"},
      "snippet": {
        "title": "Midnight City",
        "channelTitle": "M83VEVO",
        "publishedAt": "2011-08-18T00:00:00Z",
        "thumbnails": {"medium": {"url": "https://i.ytimg.com/medium.jpg"}}
      }
    }
  ]
}`

const videosJSON = `{
  "items": [
    {"id": "abcdefghijk", "contentDetails": {"duration": "PT5M20S"}, "statistics": {"viewCount": "1234567"}},
    {"id": "lmnopqrstuv", "contentDetails": {"duration": "PT1H2M3S"}, "statistics": {"viewCount": "999"}}
  ]
}`

const popularJSON = `{
  "items": [
    {
      "id": "popular0001",
      "snippet": {
        "title": "Song [Lyric Video]",
        "channelTitle": "Singer",
        "publishedAt": "2024-01-02T03:04:05Z",
        "thumbnails": {"maxres": {"url": "https://i.ytimg.com/maxres.jpg"}, "default": {"url": "https://i.ytimg.com/d.jpg"}}
      },
      "contentDetails": {"duration": "PT3M"},
      "statistics": {"viewCount": "2500000000"}
    }
  ]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Options{
		Endpoint:          srv.URL + "/",
		HTTPClient:        srv.Client(),
		RequestsPerSecond: 1000,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestSearchMusic(t *testing.T) {
	var searchQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search"):
			searchQuery = r.URL.RawQuery
			w.Write([]byte(searchJSON))
		case strings.HasSuffix(r.URL.Path, "/videos"):
			w.Write([]byte(videosJSON))
		default:
			http.NotFound(w, r)
		}
	})

	tracks, err := c.SearchMusic(context.Background(), "daft punk")
	if err != nil {
		t.Fatalf("SearchMusic: %v", err)
	}
	for _, want := range []string{"videoCategoryId=10", "type=video", "maxResults=20"} {
		if !strings.Contains(searchQuery, want) {
			t.Errorf("search query %q missing %s", searchQuery, want)
		}
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks", len(tracks))
	}

	first := tracks[0]
	if first.Title != "One More Time" || first.Artist != "Daft Punk" {
		t.Errorf("title/artist = %q/%q", first.Title, first.Artist)
	}
	if first.Duration != "5:20" || first.DurationSeconds != 320 {
		t.Errorf("duration = %q (%d)", first.Duration, first.DurationSeconds)
	}
	if first.ViewCount != "1.2M" {
		t.Errorf("views = %q", first.ViewCount)
	}
	if first.Thumbnail != "https://i.ytimg.com/high.jpg" || first.AlbumArt != first.Thumbnail {
		t.Errorf("thumbnail = %q albumArt = %q", first.Thumbnail, first.AlbumArt)
	}
	if first.URL != "https://www.youtube.com/watch?v=abcdefghijk" {
		t.Errorf("url = %q", first.URL)
	}
	if first.PublishedAt != "2009-10-25" {
		t.Errorf("published = %q", first.PublishedAt)
	}

	second := tracks[1]
	if second.Artist != "M83VEVO" || second.Duration != "1:02:03" || second.ViewCount != "999" {
		t.Errorf("second = %+v", second)
	}
}

func TestSearchMusicSharedCallOutlivesCancelledCaller(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var searches atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/search") {
			if searches.Add(1) == 1 {
				close(started)
			}
			<-release
			w.Write([]byte(searchJSON))
			return
		}
		w.Write([]byte(videosJSON))
	})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.SearchMusic(firstCtx, "daft punk")
		firstErr <- err
	}()
	<-started

	type result struct {
		n   int
		err error
	}
	second := make(chan result, 1)
	go func() {
		tracks, err := c.SearchMusic(context.Background(), "daft punk")
		second <- result{len(tracks), err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("first caller err = %v, want context.Canceled", err)
	}
	close(release)

	r := <-second
	if r.err != nil || r.n != 2 {
		t.Fatalf("second caller = %d tracks, %v", r.n, r.err)
	}
}

func TestSearchMusicIgnoresDetailsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/videos") {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"code":400,"message":"backend"}}`))
			return
		}
		w.Write([]byte(searchJSON))
	})

	tracks, err := c.SearchMusic(context.Background(), "x")
	if err != nil {
		t.Fatalf("SearchMusic: %v", err)
	}
	if len(tracks) != 2 || tracks[0].Duration != "0:00" || tracks[0].ViewCount != "0" {
		t.Fatalf("tracks = %+v", tracks)
	}
}

func TestSearchMusicAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"quotaExceeded","errors":[{"reason":"quotaExceeded"}]}}`))
	})

	_, err := c.SearchMusic(context.Background(), "x")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("err = %v, want ErrRequestFailed", err)
	}
	var re *RequestError
	if !errors.As(err, &re) {
		t.Fatalf("err is not a RequestError: %T", err)
	}
	if re.Status != http.StatusForbidden {
		t.Errorf("status = %d", re.Status)
	}
	if got := UserMessage(err); got != "quotaExceeded" {
		t.Errorf("UserMessage = %q", got)
	}
	if !strings.Contains(string(re.Details), "quotaExceeded") {
		t.Errorf("details = %s", re.Details)
	}
}

func TestPopularMusic(t *testing.T) {
	var query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(popularJSON))
	})

	tracks, err := c.PopularMusic(context.Background())
	if err != nil {
		t.Fatalf("PopularMusic: %v", err)
	}
	if !strings.Contains(query, "chart=mostPopular") {
		t.Errorf("query = %q", query)
	}
	if len(tracks) != 1 {
		t.Fatalf("got %d tracks", len(tracks))
	}
	tr := tracks[0]
	if tr.Title != "Song" || tr.Artist != "Singer" || tr.Duration != "3:00" || tr.ViewCount != "2.5B" {
		t.Errorf("track = %+v", tr)
	}
	if tr.Thumbnail != "https://i.ytimg.com/maxres.jpg" {
		t.Errorf("thumbnail = %q", tr.Thumbnail)
	}
}

func TestGenreMusicQuery(t *testing.T) {
	var q string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/search") {
			q = r.URL.Query().Get("q")
			w.Write([]byte(`{"items":[]}`))
			return
		}
		w.Write([]byte(`{"items":[]}`))
	})

	if _, err := GenreMusic(context.Background(), c, "Rock"); err != nil {
		t.Fatal(err)
	}
	if q != "Rock music popular" {
		t.Errorf("q = %q", q)
	}
}

func TestEdgeTrendingShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"vid00000001","snippet":{"title":"Raw - Title (Official Video)","channelTitle":"Chan",
			"thumbnails":{"medium":{"url":"m.jpg"},"high":{"url":"h.jpg"}}},"contentDetails":{"duration":"PT4M1S"}}]}`))
	})

	tracks, err := c.EdgeTrending(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	tr := tracks[0]
	if tr.Title != "Raw - Title (Official Video)" || tr.Artist != "Chan" {
		t.Errorf("edge track cleaned its title: %+v", tr)
	}
	if tr.Thumbnail != "m.jpg" || tr.AlbumArt != "h.jpg" || tr.Duration != "PT4M1S" {
		t.Errorf("edge track = %+v", tr)
	}
}

func TestCheckConnection(t *testing.T) {
	st := CheckConnection(context.Background(), Options{})
	if st.Success || st.Message != "YouTube API Key is not configured" {
		t.Errorf("missing key status = %+v", st)
	}

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(popularJSON))
	}))
	defer srv.Close()

	st = CheckConnection(context.Background(), Options{Endpoint: srv.URL + "/", HTTPClient: srv.Client(), RequestsPerSecond: 1000})
	if !st.Success || st.Details["tracksReceived"] != 1 {
		t.Errorf("status = %+v", st)
	}
	if calls.Load() != 2 {
		t.Errorf("expected probe and popular requests, got %d", calls.Load())
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid"}}`))
	}))
	defer bad.Close()

	st = CheckConnection(context.Background(), Options{Endpoint: bad.URL + "/", HTTPClient: bad.Client(), RequestsPerSecond: 1000})
	if st.Success || st.Message != "YouTube API key is invalid or has quota issues" {
		t.Errorf("bad key status = %+v", st)
	}
}
