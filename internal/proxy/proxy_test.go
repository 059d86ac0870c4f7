package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haryoiro/tubetone/internal/api"
	"github.com/haryoiro/tubetone/internal/structures"
)

type fakeCatalog struct {
	lastAction string
	lastQuery  string
	lastLimit  int
	err        error
}

func (f *fakeCatalog) EdgeSearch(_ context.Context, query string, limit int) ([]structures.Track, error) {
	f.lastAction, f.lastQuery, f.lastLimit = "search", query, limit
	if f.err != nil {
		return nil, f.err
	}
	return []structures.Track{{TrackID: "abc", Title: query}}, nil
}

func (f *fakeCatalog) EdgeTrending(_ context.Context, limit int) ([]structures.Track, error) {
	f.lastAction, f.lastLimit = "trending", limit
	if f.err != nil {
		return nil, f.err
	}
	return []structures.Track{{TrackID: "hot"}}, nil
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res := rec.Result()
	body, _ := io.ReadAll(res.Body)
	return res, string(body)
}

func TestPreflight(t *testing.T) {
	h := NewHandler(&fakeCatalog{}, nil, "secret")
	res, body := do(t, h, http.MethodOptions, "/?action=search", nil)
	if res.StatusCode != http.StatusOK || body != "ok" {
		t.Fatalf("preflight = %d %q", res.StatusCode, body)
	}
	if res.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
	if !strings.Contains(res.Header.Get("Access-Control-Allow-Headers"), "authorization") {
		t.Error("missing CORS headers list")
	}
}

func TestCatalogActions(t *testing.T) {
	tests := []struct {
		target     string
		wantAction string
		wantLimit  int
	}{
		{"/", "trending", 10},
		{"/?action=search&q=lofi&limit=5", "search", 5},
		{"/?action=search&q=%20%20", "trending", 10},
		{"/?action=bogus&limit=abc", "trending", 10},
		{"/?action=trending&limit=500", "trending", 50},
	}
	for _, tt := range tests {
		cat := &fakeCatalog{}
		res, body := do(t, NewHandler(cat, nil, ""), http.MethodGet, tt.target, nil)
		if res.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d %s", tt.target, res.StatusCode, body)
			continue
		}
		if cat.lastAction != tt.wantAction || cat.lastLimit != tt.wantLimit {
			t.Errorf("%s: action=%s limit=%d", tt.target, cat.lastAction, cat.lastLimit)
		}
		var tracks []structures.Track
		if err := json.Unmarshal([]byte(body), &tracks); err != nil || len(tracks) != 1 {
			t.Errorf("%s: body %s", tt.target, body)
		}
		if res.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Errorf("%s: missing CORS header", tt.target)
		}
	}
}

func TestAuthorization(t *testing.T) {
	h := NewHandler(&fakeCatalog{}, nil, "secret")

	if res, _ := do(t, h, http.MethodGet, "/", nil); res.StatusCode != http.StatusUnauthorized {
		t.Errorf("no token = %d", res.StatusCode)
	}
	res, _ := do(t, h, http.MethodGet, "/", http.Header{"Authorization": {"Bearer secret"}})
	if res.StatusCode != http.StatusOK {
		t.Errorf("valid token = %d", res.StatusCode)
	}
}

func TestUpstreamError(t *testing.T) {
	cat := &fakeCatalog{err: &api.RequestError{
		Op:      "search",
		Status:  http.StatusForbidden,
		Message: "quota exceeded",
		Details: json.RawMessage(`{"error":{"code":403}}`),
	}}
	res, body := do(t, NewHandler(cat, nil, ""), http.MethodGet, "/?action=search&q=x", nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var got struct {
		Error   string          `json:"error"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got.Error != "YouTube API error" || !strings.Contains(string(got.Details), "403") {
		t.Errorf("body = %s", body)
	}
}

func TestInternalError(t *testing.T) {
	cat := &fakeCatalog{err: errors.New("dial tcp: refused")}
	res, body := do(t, NewHandler(cat, nil, ""), http.MethodGet, "/", nil)
	if res.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if !strings.Contains(body, "Internal server error") || !strings.Contains(body, "refused") {
		t.Errorf("body = %s", body)
	}
}

func TestStatusRoute(t *testing.T) {
	if res, _ := do(t, NewHandler(&fakeCatalog{}, nil, ""), http.MethodGet, "/status", nil); res.StatusCode != http.StatusNotFound {
		t.Errorf("nil status func = %d", res.StatusCode)
	}

	status := func(context.Context) api.ConnectionStatus {
		return api.ConnectionStatus{Success: true, Message: "YouTube API is properly connected"}
	}
	res, body := do(t, NewHandler(&fakeCatalog{}, status, ""), http.MethodGet, "/status", nil)
	if res.StatusCode != http.StatusOK || !strings.Contains(body, "properly connected") {
		t.Errorf("status = %d %s", res.StatusCode, body)
	}
}
