package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/structures"
	"github.com/haryoiro/tubetone/internal/version"
)

// ProxySource fetches tracks through the edge proxy instead of calling the
// Data API directly.
type ProxySource struct {
	baseURL    string
	token      string
	limit      int
	httpClient *http.Client
}

// NewProxySource creates a proxy-backed source. httpClient may be nil.
func NewProxySource(baseURL, token string, limit int, httpClient *http.Client) *ProxySource {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.APIRequestTimeout}
	}
	if limit <= 0 {
		limit = constants.DefaultProxyLimit
	}
	return &ProxySource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		limit:      limit,
		httpClient: httpClient,
	}
}

func (p *ProxySource) SearchMusic(ctx context.Context, query string) ([]structures.Track, error) {
	return p.fetch(ctx, url.Values{
		"action": {"search"},
		"q":      {query},
		"limit":  {strconv.Itoa(p.limit)},
	})
}

func (p *ProxySource) PopularMusic(ctx context.Context) ([]structures.Track, error) {
	return p.fetch(ctx, url.Values{
		"action": {"trending"},
		"limit":  {strconv.Itoa(p.limit)},
	})
}

type proxyError struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

func (p *ProxySource) fetch(ctx context.Context, params url.Values) ([]structures.Track, error) {
	op := "proxy " + params.Get("action")
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Status: http.StatusBadGateway, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: op, Status: resp.StatusCode, Err: err}
	}
	logger.Debug("%s: %d in %v", op, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		re := &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("status %d", resp.StatusCode)}
		var pe proxyError
		if json.Unmarshal(body, &pe) == nil {
			re.Message = pe.Error
			re.Details = pe.Details
		}
		return nil, re
	}

	var tracks []structures.Track
	if err := json.Unmarshal(body, &tracks); err != nil {
		return nil, &RequestError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	for i := range tracks {
		normalizeProxyTrack(&tracks[i])
	}
	return tracks, nil
}

// normalizeProxyTrack fills the fields the edge proxy leaves raw
func normalizeProxyTrack(t *structures.Track) {
	if strings.HasPrefix(t.Duration, "P") {
		t.DurationSeconds = ParseISODuration(t.Duration)
		t.Duration = FormatSeconds(t.DurationSeconds)
	} else if t.Duration == "" || t.Duration == "00:00" {
		t.Duration = "0:00"
	}
	if t.AlbumArt == "" {
		t.AlbumArt = t.Thumbnail
	}
	if t.URL == "" && t.TrackID != "" {
		t.URL = WatchURL(t.TrackID)
	}
	title, artist := CleanTitle(t.Title)
	t.Title = title
	if artist != "" {
		t.Artist = artist
	}
}
