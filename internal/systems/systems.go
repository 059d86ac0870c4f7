package systems

import (
	"context"
	"net/http"
	"strconv"

	"github.com/haryoiro/tubetone/internal/api"
	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/database"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/lyrics"
	"github.com/haryoiro/tubetone/internal/player"
	"github.com/haryoiro/tubetone/internal/structures"
)

// app_state keys for persisted player preferences
const (
	stateVolume       = "volume"
	statePlaybackMode = "playback_mode"
	stateRepeatMode   = "repeat_mode"
	stateShuffle      = "shuffle"
)

// Systems contains all the core systems of the application
type Systems struct {
	Config   *structures.Config
	Database database.DB
	Player   *PlayerSystem
	API      *APISystem
	Lyrics   *lyrics.Store

	engine player.Engine
}

// New creates a new Systems instance. Systems takes ownership of engine and
// closes it on Stop.
func New(cfg *structures.Config, db database.DB, engine player.Engine, source api.Source, lyricsDir string) *Systems {
	return &Systems{
		Config:   cfg,
		Database: db,
		Player:   NewPlayerSystem(cfg, engine),
		API:      NewAPISystem(cfg, source),
		Lyrics:   lyrics.NewStore(lyricsDir),
		engine:   engine,
	}
}

// NewSource picks the catalog source: the proxy when one is configured,
// otherwise the Data API directly. It returns nil when neither is available.
func NewSource(ctx context.Context, cfg *structures.Config) (api.Source, error) {
	if cfg.ProxyURL != "" {
		logger.Info("Using edge proxy at %s", cfg.ProxyURL)
		client := &http.Client{Timeout: constants.APIRequestTimeout}
		return api.NewProxySource(cfg.ProxyURL, cfg.ProxyToken, cfg.MaxResults, client), nil
	}
	if cfg.APIKey == "" {
		return nil, nil
	}
	c, err := api.New(ctx, api.Options{
		APIKey:            cfg.APIKey,
		MaxResults:        cfg.MaxResults,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Start starts all systems
func (s *Systems) Start() error {
	s.restorePreferences()

	s.Player.OnTrackChange(s.recordPlay)
	s.Player.OnTrackChange(s.refreshRecommendations)

	return s.Player.Start()
}

// Stop stops all systems
func (s *Systems) Stop() error {
	s.savePreferences()
	s.Player.Stop()
	if s.engine != nil {
		return s.engine.Close()
	}
	return nil
}

func (s *Systems) recordPlay(t structures.Track) {
	if s.Database == nil {
		return
	}
	if err := s.Database.RecordPlay(t); err != nil {
		logger.Warn("Failed to record play of %s: %v", t.TrackID, err)
	}
}

func (s *Systems) refreshRecommendations(t structures.Track) {
	if !s.API.Available() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), constants.APIRequestTimeout)
	defer cancel()

	recs, err := s.API.Recommendations(ctx, t, s.Player.GetState().Queue)
	if err != nil {
		logger.Warn("Failed to fetch recommendations for %s: %v", t.TrackID, err)
		return
	}
	s.Player.SendAction(structures.SetRecommendationsAction{ForTrackID: t.TrackID, Tracks: recs})
}

func (s *Systems) restorePreferences() {
	if s.Database == nil {
		return
	}
	q := s.Player.Queue()

	if v, ok := s.Database.GetAppState(stateVolume); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			q.SetVolume(f)
		}
	}
	if v, ok := s.Database.GetAppState(statePlaybackMode); ok {
		switch mode := structures.PlaybackMode(v); mode {
		case structures.PlaybackAudio, structures.PlaybackVideo:
			q.SetPlaybackMode(mode)
		}
	}
	if v, ok := s.Database.GetAppState(stateRepeatMode); ok {
		switch mode := structures.RepeatMode(v); mode {
		case structures.RepeatNone, structures.RepeatAll, structures.RepeatOne:
			q.SetRepeatMode(mode)
		}
	}
	if v, ok := s.Database.GetAppState(stateShuffle); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			q.SetShuffle(b)
		}
	}
}

func (s *Systems) savePreferences() {
	if s.Database == nil {
		return
	}
	q := s.Player.Queue()
	prefs := map[string]string{
		stateVolume:       strconv.FormatFloat(q.Volume(), 'f', 2, 64),
		statePlaybackMode: string(q.PlaybackMode()),
		stateRepeatMode:   string(q.RepeatMode()),
		stateShuffle:      strconv.FormatBool(q.Shuffle()),
	}
	for k, v := range prefs {
		if err := s.Database.SaveAppState(k, v); err != nil {
			logger.Warn("Failed to save %s: %v", k, err)
		}
	}
}

// CurrentLyrics loads lyrics for the current track, if any
func (s *Systems) CurrentLyrics() ([]lyrics.Line, error) {
	cur := s.Player.Queue().Current()
	if cur == nil {
		return nil, lyrics.ErrNotFound
	}
	id, err := api.VideoIDFromURL(cur.URL)
	if err != nil {
		id = cur.TrackID
	}
	return s.Lyrics.Load(id)
}
