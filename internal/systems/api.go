package systems

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/haryoiro/tubetone/internal/api"
	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/structures"
)

// APISystem handles catalog lookups against the configured source
type APISystem struct {
	config *structures.Config
	source api.Source

	mu         sync.Mutex
	genreCache map[string][]structures.Track
}

// NewAPISystem creates a new API system. source may be nil when no key or
// proxy is configured.
func NewAPISystem(cfg *structures.Config, source api.Source) *APISystem {
	return &APISystem{
		config:     cfg,
		source:     source,
		genreCache: make(map[string][]structures.Track),
	}
}

// Available reports whether a source is configured
func (as *APISystem) Available() bool {
	return as.source != nil
}

// Search searches music videos
func (as *APISystem) Search(ctx context.Context, query string) ([]structures.Track, error) {
	if as.source == nil {
		return nil, api.ErrMissingAPIKey
	}
	return as.source.SearchMusic(ctx, query)
}

// Popular returns the most popular music videos
func (as *APISystem) Popular(ctx context.Context) ([]structures.Track, error) {
	if as.source == nil {
		return nil, api.ErrMissingAPIKey
	}
	return as.source.PopularMusic(ctx)
}

// Genre returns tracks for a genre, cached for the life of the process
func (as *APISystem) Genre(ctx context.Context, genre structures.Genre) ([]structures.Track, error) {
	if as.source == nil {
		return nil, api.ErrMissingAPIKey
	}

	as.mu.Lock()
	cached, ok := as.genreCache[genre.ID]
	as.mu.Unlock()
	if ok {
		return cached, nil
	}

	tracks, err := api.GenreMusic(ctx, as.source, genre.Name)
	if err != nil {
		return nil, err
	}

	as.mu.Lock()
	as.genreCache[genre.ID] = tracks
	as.mu.Unlock()
	return tracks, nil
}

// Sections builds the home page: popular music followed by one section per
// genre. Failed genres are skipped; a failed popular fetch fails the page.
func (as *APISystem) Sections(ctx context.Context) ([]structures.Section, error) {
	popular, err := as.Popular(ctx)
	if err != nil {
		return nil, err
	}

	genres := make([][]structures.Track, len(api.Genres))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for i, genre := range api.Genres {
		g.Go(func() error {
			tracks, err := as.Genre(gctx, genre)
			if err != nil {
				logger.Warn("Failed to load genre %s: %v", genre.ID, err)
				return nil
			}
			genres[i] = tracks
			return nil
		})
	}
	_ = g.Wait()

	sections := []structures.Section{{ID: "popular", Title: "Popular Music", Tracks: popular}}
	for i, genre := range api.Genres {
		if len(genres[i]) == 0 {
			continue
		}
		sections = append(sections, structures.Section{
			ID:     genre.ID,
			Title:  genre.Name,
			Tracks: genres[i],
		})
	}
	return sections, nil
}

// Recommendations searches for tracks related to current, dropping anything
// already queued and near-duplicate titles.
func (as *APISystem) Recommendations(ctx context.Context, current structures.Track, queued []structures.Track) ([]structures.Track, error) {
	if as.source == nil {
		return nil, api.ErrMissingAPIKey
	}
	if strings.TrimSpace(current.Artist) == "" {
		return nil, nil
	}
	candidates, err := as.source.SearchMusic(ctx, api.RecommendationQuery(current))
	if err != nil {
		return nil, err
	}
	return api.FilterRecommendations(&current, queued, candidates, constants.RecommendationLimit), nil
}

// CheckConnection probes the Data API with the configured key
func (as *APISystem) CheckConnection(ctx context.Context) api.ConnectionStatus {
	return api.CheckConnection(ctx, api.Options{
		APIKey:            as.config.APIKey,
		MaxResults:        as.config.MaxResults,
		RequestsPerSecond: as.config.RequestsPerSecond,
	})
}
