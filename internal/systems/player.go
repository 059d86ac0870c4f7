package systems

import (
	"context"
	"sync"
	"time"

	"github.com/haryoiro/tubetone/internal/api"
	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/player"
	"github.com/haryoiro/tubetone/internal/queue"
	"github.com/haryoiro/tubetone/internal/structures"
)

// PlayerSystem owns the queue controller and the engine. Every mutation runs
// on the run goroutine, fed by the action channel, engine events and the
// position poll.
type PlayerSystem struct {
	mu         sync.RWMutex
	config     *structures.Config
	queue      *queue.Controller
	engine     player.Engine
	actionChan chan structures.SoundAction
	stopChan   chan struct{}
	done       chan struct{}
	stopOnce   sync.Once

	currentTime time.Duration
	totalTime   time.Duration
	progress    float64
	showLyrics  bool
	errMsg      string
	loadedID    string

	listeners []func(structures.Track)
}

// NewPlayerSystem creates a new player system. engine may be nil, in which
// case every playback attempt reports an error.
func NewPlayerSystem(cfg *structures.Config, engine player.Engine, opts ...queue.Option) *PlayerSystem {
	opts = append([]queue.Option{queue.WithHistoryLimit(cfg.HistoryLimit)}, opts...)
	q := queue.New(opts...)
	q.SetVolume(cfg.DefaultVolume)
	if cfg.StartMode != "" {
		q.SetPlaybackMode(cfg.StartMode)
	}

	return &PlayerSystem{
		config:     cfg,
		queue:      q,
		engine:     engine,
		actionChan: make(chan structures.SoundAction, constants.ActionQueueSize),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// OnTrackChange registers fn to run (on its own goroutine) whenever a new
// track is loaded. Must be called before Start.
func (ps *PlayerSystem) OnTrackChange(fn func(structures.Track)) {
	ps.listeners = append(ps.listeners, fn)
}

// Start starts the player system
func (ps *PlayerSystem) Start() error {
	if ps.engine != nil {
		if err := ps.engine.SetVolume(ps.queue.Volume()); err != nil {
			logger.Warn("Failed to apply initial volume: %v", err)
		}
		if err := ps.engine.SetVideo(ps.queue.PlaybackMode() == structures.PlaybackVideo); err != nil {
			logger.Warn("Failed to apply playback mode: %v", err)
		}
	}
	go ps.run()
	return nil
}

// Stop stops the run loop and waits for it to exit
func (ps *PlayerSystem) Stop() {
	ps.stopOnce.Do(func() {
		close(ps.stopChan)
		<-ps.done
	})
}

// SendAction queues an action. Actions are dropped when the queue is full.
func (ps *PlayerSystem) SendAction(action structures.SoundAction) {
	select {
	case ps.actionChan <- action:
	default:
		logger.Warn("Player action queue full, dropping %T", action)
	}
}

// GetState returns a deep copy of the current player state
func (ps *PlayerSystem) GetState() structures.PlayerState {
	s := ps.queue.Snapshot()

	ps.mu.RLock()
	defer ps.mu.RUnlock()
	s.CurrentTime = ps.currentTime
	s.TotalTime = ps.totalTime
	s.Progress = ps.progress
	s.ShowLyrics = ps.showLyrics
	s.Error = ps.errMsg
	return s
}

// Queue exposes the controller for read access and preference restore
func (ps *PlayerSystem) Queue() *queue.Controller {
	return ps.queue
}

func (ps *PlayerSystem) run() {
	defer close(ps.done)

	interval := time.Duration(ps.config.PollInterval) * time.Millisecond
	if interval <= 0 {
		interval = constants.ProgressPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var events <-chan player.Event
	if ps.engine != nil {
		events = ps.engine.Events()
	}

	for {
		select {
		case action := <-ps.actionChan:
			ps.handleAction(action)

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			ps.handleEvent(ev)

		case <-ticker.C:
			ps.poll()

		case <-ps.stopChan:
			return
		}
	}
}

func (ps *PlayerSystem) setError(msg string) {
	ps.mu.Lock()
	ps.errMsg = msg
	ps.mu.Unlock()
}

// handleAction processes player actions
func (ps *PlayerSystem) handleAction(action structures.SoundAction) {
	q := ps.queue

	switch a := action.(type) {
	case structures.PlayPauseAction:
		if q.IsPlaying() {
			ps.pause()
		} else {
			ps.play()
		}

	case structures.PlayAction:
		ps.play()

	case structures.PauseAction:
		ps.pause()

	case structures.VolumeUpAction:
		ps.setVolume(q.Volume() + constants.VolumeStep)

	case structures.VolumeDownAction:
		ps.setVolume(q.Volume() - constants.VolumeStep)

	case structures.SetVolumeAction:
		ps.setVolume(a.Volume)

	case structures.ForwardAction:
		ps.seekBy(time.Duration(ps.config.SeekSeconds) * time.Second)

	case structures.BackwardAction:
		ps.seekBy(-time.Duration(ps.config.SeekSeconds) * time.Second)

	case structures.SeekAction:
		ps.seekTo(a.Position)

	case structures.NextAction:
		if next, ok := q.NextTrack(); ok {
			ps.startTrack(next)
		}

	case structures.PreviousAction:
		if prev, ok := q.PreviousTrack(); ok {
			ps.startTrack(prev)
		}

	case structures.PlayTrackAction:
		t := a.Track
		q.SetCurrentTrack(&t)
		q.SetIsPlaying(true)
		ps.loadCurrent()

	case structures.AddTrackAction:
		q.AddToQueue(a.Track)

	case structures.AddTracksToQueueAction:
		for _, t := range a.Tracks {
			q.AddToQueue(t)
		}
		ps.preloadNext()

	case structures.RemoveFromQueueAction:
		q.RemoveFromQueue(a.TrackID)
		ps.preloadNext()

	case structures.ReplaceQueueAction:
		q.ReplaceQueue(a.Tracks)
		if a.Start >= 0 && a.Start < len(a.Tracks) {
			t := a.Tracks[a.Start]
			q.SetCurrentTrack(&t)
			q.SetIsPlaying(true)
			ps.loadCurrent()
		}

	case structures.SetRecommendationsAction:
		cur := q.Current()
		if cur == nil || cur.TrackID != a.ForTrackID {
			logger.Debug("Dropping stale recommendations for %s", a.ForTrackID)
			return
		}
		q.SetRecommendations(a.Tracks)
		ps.preloadNext()

	case structures.SetPlaybackModeAction:
		ps.setPlaybackMode(a.Mode)

	case structures.TogglePlaybackModeAction:
		ps.setPlaybackMode(q.PlaybackMode().Toggle())

	case structures.CycleRepeatAction:
		q.SetRepeatMode(q.RepeatMode().Next())
		ps.preloadNext()

	case structures.ToggleShuffleAction:
		q.SetShuffle(!q.Shuffle())
		ps.preloadNext()

	case structures.ToggleLyricsAction:
		ps.mu.Lock()
		if q.PlaybackMode() == structures.PlaybackAudio {
			ps.showLyrics = !ps.showLyrics
		}
		ps.mu.Unlock()

	case structures.ClearErrorAction:
		ps.setError("")

	case structures.CleanupAction:
		if ps.engine != nil {
			if err := ps.engine.Stop(); err != nil {
				logger.Warn("Failed to stop playback: %v", err)
			}
		}
		q.ReplaceQueue(nil)
		q.SetRecommendations(nil)
		q.SetCurrentTrack(nil)
		q.SetIsPlaying(false)
		ps.mu.Lock()
		ps.loadedID = ""
		ps.currentTime, ps.totalTime, ps.progress = 0, 0, 0
		ps.mu.Unlock()

	default:
		logger.Warn("Unknown player action %T", action)
	}
}

func (ps *PlayerSystem) handleEvent(ev player.Event) {
	logger.Debug("Engine event: %s", ev.Type)

	switch ev.Type {
	case player.EventPlaying:
		ps.queue.SetIsPlaying(true)

	case player.EventPaused:
		ps.queue.SetIsPlaying(false)

	case player.EventEnded:
		ps.mu.Lock()
		ps.currentTime, ps.progress = 0, 0
		ps.mu.Unlock()

		next, ok := ps.queue.NextTrack()
		if !ok {
			ps.queue.SetIsPlaying(false)
			return
		}
		ps.startTrack(next)

	case player.EventError:
		logger.Error("Playback error: %v", ev.Err)
		ps.queue.SetIsPlaying(false)
		ps.setError(constants.MsgPlaybackFailed)
	}
}

// poll refreshes position and duration. Progress only moves once the engine
// reports a duration.
func (ps *PlayerSystem) poll() {
	if ps.engine == nil || ps.queue.Current() == nil {
		return
	}
	pos, err := ps.engine.Position()
	if err != nil {
		logger.Debug("position poll: %v", err)
		return
	}
	dur, err := ps.engine.Duration()
	if err != nil {
		logger.Debug("duration poll: %v", err)
		return
	}
	if dur <= 0 {
		return
	}

	ps.mu.Lock()
	ps.currentTime = pos
	ps.totalTime = dur
	ps.progress = float64(pos) / float64(dur) * 100
	ps.mu.Unlock()
}

// startTrack plays t, which NextTrack or PreviousTrack already made current.
// The loaded track is restarted instead of reloaded.
func (ps *PlayerSystem) startTrack(t structures.Track) {
	ps.mu.RLock()
	loaded := ps.loadedID
	ps.mu.RUnlock()

	if loaded != "" && loaded == t.TrackID && ps.engine != nil {
		ps.seekTo(0)
		ps.play()
		return
	}
	ps.loadCurrent()
}

// loadCurrent sends the current track to the engine
func (ps *PlayerSystem) loadCurrent() {
	cur := ps.queue.Current()
	if cur == nil {
		return
	}
	logger.Info("Loading track: %s by %s", cur.Title, cur.Artist)

	id, err := api.VideoIDFromURL(cur.URL)
	if err != nil {
		logger.Warn("Cannot play %q: %v", cur.URL, err)
		ps.queue.SetIsPlaying(false)
		ps.setError(api.UserMessage(err))
		return
	}
	if ps.engine == nil {
		ps.queue.SetIsPlaying(false)
		ps.setError(constants.MsgPlaybackFailed)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.APIRequestTimeout)
	err = ps.engine.Load(ctx, api.WatchURL(id))
	cancel()
	if err != nil {
		logger.Error("Failed to load %s: %v", id, err)
		ps.queue.SetIsPlaying(false)
		ps.setError(constants.MsgPlaybackFailed)
		return
	}

	ps.mu.Lock()
	ps.loadedID = cur.TrackID
	ps.currentTime, ps.progress = 0, 0
	ps.totalTime = time.Duration(cur.DurationSeconds) * time.Second
	ps.errMsg = ""
	ps.mu.Unlock()

	if err := ps.engine.SetVolume(ps.queue.Volume()); err != nil {
		logger.Warn("Failed to set volume: %v", err)
	}
	if ps.queue.IsPlaying() {
		ps.play()
	} else {
		ps.pause()
	}

	ps.preloadNext()

	for _, fn := range ps.listeners {
		go fn(*cur)
	}
}

// preloadNext hands the predicted next track to engines that can prefetch
func (ps *PlayerSystem) preloadNext() {
	pre, ok := ps.engine.(player.Preloader)
	if !ok {
		return
	}
	next, ok := ps.queue.PeekNext()
	if !ok {
		return
	}
	cur := ps.queue.Current()
	if cur != nil && cur.TrackID == next.TrackID {
		return
	}
	id, err := api.VideoIDFromURL(next.URL)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.MPVCommandTimeout)
	defer cancel()
	if err := pre.Preload(ctx, api.WatchURL(id)); err != nil {
		logger.Debug("Preload of %s failed: %v", id, err)
	}
}

func (ps *PlayerSystem) play() {
	if ps.queue.Current() == nil {
		logger.Warn("No current track to play")
		return
	}
	if ps.engine == nil {
		ps.setError(constants.MsgPlaybackFailed)
		return
	}
	if err := ps.engine.Play(); err != nil {
		logger.Error("Failed to start playback: %v", err)
		ps.queue.SetIsPlaying(false)
		ps.setError(constants.MsgPlaybackFailed)
		return
	}
	ps.queue.SetIsPlaying(true)
}

func (ps *PlayerSystem) pause() {
	if ps.engine != nil {
		if err := ps.engine.Pause(); err != nil {
			logger.Error("Failed to pause playback: %v", err)
		}
	}
	ps.queue.SetIsPlaying(false)
}

func (ps *PlayerSystem) setVolume(v float64) {
	ps.queue.SetVolume(v)
	if ps.engine != nil {
		if err := ps.engine.SetVolume(ps.queue.Volume()); err != nil {
			logger.Warn("Failed to set volume: %v", err)
		}
	}
}

func (ps *PlayerSystem) seekBy(delta time.Duration) {
	ps.mu.RLock()
	pos := ps.currentTime
	ps.mu.RUnlock()
	ps.seekTo(pos + delta)
}

func (ps *PlayerSystem) seekTo(pos time.Duration) {
	if ps.engine == nil || ps.queue.Current() == nil {
		return
	}
	ps.mu.RLock()
	total := ps.totalTime
	ps.mu.RUnlock()

	if pos < 0 {
		pos = 0
	}
	if total > 0 && pos > total {
		pos = total
	}
	if err := ps.engine.Seek(pos); err != nil {
		logger.Warn("Failed to seek: %v", err)
		return
	}

	ps.mu.Lock()
	ps.currentTime = pos
	if total > 0 {
		ps.progress = float64(pos) / float64(total) * 100
	}
	ps.mu.Unlock()
}

func (ps *PlayerSystem) setPlaybackMode(mode structures.PlaybackMode) {
	ps.queue.SetPlaybackMode(mode)
	if mode == structures.PlaybackVideo {
		ps.mu.Lock()
		ps.showLyrics = false
		ps.mu.Unlock()
	}
	if ps.engine != nil {
		if err := ps.engine.SetVideo(mode == structures.PlaybackVideo); err != nil {
			logger.Warn("Failed to switch playback mode: %v", err)
		}
	}
}
