package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/structures"
	"github.com/haryoiro/tubetone/internal/version"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Source produces tracks for the UI. Client talks to the Data API directly,
// ProxySource goes through the edge proxy.
type Source interface {
	SearchMusic(ctx context.Context, query string) ([]structures.Track, error)
	PopularMusic(ctx context.Context) ([]structures.Track, error)
}

// Options configures a Client
type Options struct {
	APIKey            string
	MaxResults        int
	RequestsPerSecond float64

	// Endpoint and HTTPClient override the Google endpoint, mainly for tests
	Endpoint   string
	HTTPClient *http.Client
}

// Client is a YouTube Data API v3 client restricted to the music category.
type Client struct {
	service    *youtube.Service
	maxResults int64
	limiter    *rate.Limiter
	group      singleflight.Group
}

// New creates a Data API client. An empty key is ErrMissingAPIKey unless an
// HTTP client override is supplied.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.APIKey == "" && opts.HTTPClient == nil {
		return nil, ErrMissingAPIKey
	}

	clientOpts := []option.ClientOption{option.WithUserAgent(version.UserAgent())}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(opts.HTTPClient))
	} else {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = constants.DefaultMaxResults
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = constants.DefaultRequestsPerSec
	}

	return &Client{
		service:    service,
		maxResults: int64(maxResults),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// SearchMusic searches music videos, then fetches durations and view counts
// in a single details call. A failing details call only loses those fields.
func (c *Client) SearchMusic(ctx context.Context, query string) ([]structures.Track, error) {
	query = strings.TrimSpace(query)
	tracks, shared, err := c.shared(ctx, "search:"+query, func(ctx context.Context) ([]structures.Track, error) {
		return c.searchMusic(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("search %q served by an in-flight request", query)
	}
	return tracks, nil
}

// shared runs fn once per key for all concurrent callers. fn gets its own
// deadline and is not cancelled with the caller that started it; each
// caller stops waiting when its own ctx is done.
func (c *Client) shared(ctx context.Context, key string, fn func(context.Context) ([]structures.Track, error)) ([]structures.Track, bool, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.APIRequestTimeout)
		defer cancel()
		return fn(callCtx)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Shared, r.Err
		}
		return cloneTracks(r.Val.([]structures.Track)), r.Shared, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (c *Client) searchMusic(ctx context.Context, query string) ([]structures.Track, error) {
	logger.Debug("Searching music with query: %s", query)

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoCategoryId(constants.MusicCategoryID).
		MaxResults(c.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapRequestError("search", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}

	details := c.videoDetails(ctx, ids)

	tracks := make([]structures.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		sn := item.Snippet
		tracks = append(tracks, buildTrack(item.Id.VideoId, sn.Title, sn.ChannelTitle, sn.PublishedAt, sn.Thumbnails, details[item.Id.VideoId]))
	}
	return tracks, nil
}

// videoDetails fetches contentDetails and statistics keyed by video id
func (c *Client) videoDetails(ctx context.Context, ids []string) map[string]*youtube.Video {
	out := make(map[string]*youtube.Video, len(ids))
	if len(ids) == 0 {
		return out
	}
	if err := c.wait(ctx); err != nil {
		logger.Warn("Failed to fetch video details: %v", err)
		return out
	}

	resp, err := c.service.Videos.List([]string{"contentDetails", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		logger.Warn("Failed to fetch video details: %v", err)
		return out
	}
	for _, v := range resp.Items {
		out[v.Id] = v
	}
	return out
}

// PopularMusic returns the most popular chart in the music category
func (c *Client) PopularMusic(ctx context.Context) ([]structures.Track, error) {
	tracks, _, err := c.shared(ctx, "popular", func(ctx context.Context) ([]structures.Track, error) {
		return c.popular(ctx, c.maxResults, "snippet", "contentDetails", "statistics")
	})
	return tracks, err
}

func (c *Client) popular(ctx context.Context, limit int64, parts ...string) ([]structures.Track, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.service.Videos.List(parts).
		Chart("mostPopular").
		VideoCategoryId(constants.MusicCategoryID).
		MaxResults(limit).
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapRequestError("popular", err)
	}

	tracks := make([]structures.Track, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Snippet == nil {
			continue
		}
		tracks = append(tracks, trackFromSnippet(item.Id, item.Snippet, item))
	}
	return tracks, nil
}

// Probe issues the cheapest possible request to validate the key
func (c *Client) Probe(ctx context.Context) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, err := c.service.Videos.List([]string{"snippet"}).
		Chart("mostPopular").
		MaxResults(1).
		Context(ctx).
		Do()
	return wrapRequestError("probe", err)
}

// GenreMusic searches "<genre> music popular"
func GenreMusic(ctx context.Context, src Source, genre string) ([]structures.Track, error) {
	return src.SearchMusic(ctx, genre+" music popular")
}

func trackFromSnippet(id string, sn *youtube.VideoSnippet, details *youtube.Video) structures.Track {
	return buildTrack(id, sn.Title, sn.ChannelTitle, sn.PublishedAt, sn.Thumbnails, details)
}

func buildTrack(id, rawTitle, channel, published string, thumbs *youtube.ThumbnailDetails, details *youtube.Video) structures.Track {
	title, artist := CleanTitle(rawTitle)
	if artist == "" {
		artist = channel
	}
	thumb := BestThumbnail(thumbs)

	var iso string
	var views uint64
	if details != nil {
		if details.ContentDetails != nil {
			iso = details.ContentDetails.Duration
		}
		if details.Statistics != nil {
			views = details.Statistics.ViewCount
		}
	}
	seconds := ParseISODuration(iso)

	return structures.Track{
		TrackID:         id,
		Title:           title,
		Artist:          artist,
		Thumbnail:       thumb,
		AlbumArt:        thumb,
		Duration:        FormatSeconds(seconds),
		DurationSeconds: seconds,
		URL:             WatchURL(id),
		ViewCount:       FormatViewCount(views),
		PublishedAt:     FormatPublished(published),
	}
}

func cloneTracks(in []structures.Track) []structures.Track {
	return append([]structures.Track(nil), in...)
}
