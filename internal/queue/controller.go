// Package queue holds the playback queue and mode state: current track,
// queue, bounded history, recommendations and the audio/repeat/shuffle flags.
package queue

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/structures"
)

// Controller is safe for concurrent use. The zero value is not usable; use New.
type Controller struct {
	mu sync.RWMutex

	current         *structures.Track
	isPlaying       bool
	volume          float64
	queue           []structures.Track
	history         []structures.Track
	recommendations []structures.Track
	playbackMode    structures.PlaybackMode
	repeatMode      structures.RepeatMode
	shuffle         bool

	historyLimit int
	rng          *rand.Rand
}

// Option configures a Controller
type Option func(*Controller)

// WithHistoryLimit caps the history stack. Non-positive values keep the default.
func WithHistoryLimit(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.historyLimit = n
		}
	}
}

// WithRand sets the random source used by shuffle
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) {
		if r != nil {
			c.rng = r
		}
	}
}

// New creates a controller with volume 1, audio mode, repeat off and shuffle off
func New(opts ...Option) *Controller {
	seed := uint64(time.Now().UnixNano())
	c := &Controller{
		volume:       1,
		playbackMode: structures.PlaybackAudio,
		repeatMode:   structures.RepeatNone,
		historyLimit: constants.DefaultHistoryLimit,
		rng:          rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCurrentTrack archives the outgoing track at the tail of history and
// makes track current. A nil track clears the current track.
func (c *Controller) SetCurrentTrack(track *structures.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCurrent(track)
}

func (c *Controller) setCurrent(track *structures.Track) {
	if c.current != nil {
		c.history = append(c.history, *c.current)
		if over := len(c.history) - c.historyLimit; over > 0 {
			c.history = append([]structures.Track(nil), c.history[over:]...)
		}
	}
	if track == nil {
		c.current = nil
		return
	}
	t := *track
	c.current = &t
}

func (c *Controller) SetIsPlaying(playing bool) {
	c.mu.Lock()
	c.isPlaying = playing
	c.mu.Unlock()
}

// SetVolume stores v clamped to [0, 1]. NaN is ignored.
func (c *Controller) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.mu.Lock()
	c.volume = v
	c.mu.Unlock()
}

func (c *Controller) SetPlaybackMode(mode structures.PlaybackMode) {
	c.mu.Lock()
	c.playbackMode = mode
	c.mu.Unlock()
}

func (c *Controller) SetRepeatMode(mode structures.RepeatMode) {
	c.mu.Lock()
	c.repeatMode = mode
	c.mu.Unlock()
}

func (c *Controller) SetShuffle(on bool) {
	c.mu.Lock()
	c.shuffle = on
	c.mu.Unlock()
}

// AddToQueue appends track. Duplicates are allowed.
func (c *Controller) AddToQueue(track structures.Track) {
	c.mu.Lock()
	c.queue = append(c.queue, track)
	c.mu.Unlock()
}

// RemoveFromQueue drops every queue entry with the given id
func (c *Controller) RemoveFromQueue(trackID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.queue[:0:0]
	for _, t := range c.queue {
		if t.TrackID != trackID {
			kept = append(kept, t)
		}
	}
	c.queue = kept
}

// ReplaceQueue swaps the whole queue
func (c *Controller) ReplaceQueue(tracks []structures.Track) {
	c.mu.Lock()
	c.queue = append([]structures.Track(nil), tracks...)
	c.mu.Unlock()
}

func (c *Controller) SetRecommendations(tracks []structures.Track) {
	c.mu.Lock()
	c.recommendations = append([]structures.Track(nil), tracks...)
	c.mu.Unlock()
}

// NextTrack moves to the next track and reports whether the current track
// changed or was restarted.
//
// Repeat-one replays the current track without touching history. Shuffle
// picks uniformly from queue and recommendations. Otherwise the queue is
// walked in order; at its end the queue wraps under repeat-all, or the head
// of recommendations is promoted into the queue.
func (c *Controller) NextTrack() (structures.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.repeatMode == structures.RepeatOne && c.current != nil {
		c.isPlaying = true
		return *c.current, true
	}

	next, promote, ok := c.pickNext(c.rng)
	if !ok {
		return structures.Track{}, false
	}
	if promote {
		c.recommendations = c.recommendations[1:]
		c.queue = append(c.queue, next)
	}
	c.setCurrent(&next)
	c.isPlaying = true
	return next, true
}

// PeekNext predicts the track NextTrack would play without changing state.
// It reports false under shuffle since the pick is random.
func (c *Controller) PeekNext() (structures.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.repeatMode == structures.RepeatOne && c.current != nil {
		return *c.current, true
	}
	if c.shuffle {
		return structures.Track{}, false
	}
	next, _, ok := c.pickNext(nil)
	return next, ok
}

func (c *Controller) pickNext(rng *rand.Rand) (next structures.Track, promote bool, ok bool) {
	if c.shuffle {
		pool := len(c.queue) + len(c.recommendations)
		if pool == 0 || rng == nil {
			return structures.Track{}, false, false
		}
		i := rng.IntN(pool)
		if i < len(c.queue) {
			return c.queue[i], false, true
		}
		return c.recommendations[i-len(c.queue)], false, true
	}

	idx := c.indexOfCurrent()
	if idx+1 < len(c.queue) {
		return c.queue[idx+1], false, true
	}
	if c.repeatMode == structures.RepeatAll && len(c.queue) > 0 {
		return c.queue[0], false, true
	}
	if len(c.recommendations) > 0 {
		return c.recommendations[0], true, true
	}
	return structures.Track{}, false, false
}

func (c *Controller) indexOfCurrent() int {
	if c.current == nil {
		return -1
	}
	for i, t := range c.queue {
		if t.TrackID == c.current.TrackID {
			return i
		}
	}
	return -1
}

// PreviousTrack pops the most recent history entry and makes it current.
// The outgoing track is not archived. Reports false when history is empty.
func (c *Controller) PreviousTrack() (structures.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.history) == 0 {
		return structures.Track{}, false
	}
	prev := c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	c.current = &prev
	c.isPlaying = true
	return prev, true
}

// Current returns a copy of the current track, or nil
func (c *Controller) Current() *structures.Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return nil
	}
	t := *c.current
	return &t
}

func (c *Controller) IsPlaying() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isPlaying
}

func (c *Controller) Volume() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.volume
}

func (c *Controller) PlaybackMode() structures.PlaybackMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playbackMode
}

func (c *Controller) RepeatMode() structures.RepeatMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repeatMode
}

func (c *Controller) Shuffle() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.shuffle
}

// Snapshot fills the queue-owned fields of a PlayerState. Slices are copied.
func (c *Controller) Snapshot() structures.PlayerState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := structures.PlayerState{
		IsPlaying:       c.isPlaying,
		Volume:          c.volume,
		Queue:           append([]structures.Track(nil), c.queue...),
		History:         append([]structures.Track(nil), c.history...),
		Recommendations: append([]structures.Track(nil), c.recommendations...),
		PlaybackMode:    c.playbackMode,
		RepeatMode:      c.repeatMode,
		Shuffle:         c.shuffle,
	}
	if c.current != nil {
		t := *c.current
		s.Current = &t
	}
	return s
}
