// Package player drives the external media player that does the actual
// decoding, buffering and network transport.
package player

import (
	"context"
	"time"
)

// EventType is a playback state change reported by the engine
type EventType int

const (
	EventReady EventType = iota
	EventPlaying
	EventPaused
	EventEnded
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventReady:
		return "ready"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is delivered on Engine.Events
type Event struct {
	Type EventType
	Err  error
}

// Engine is the opaque player. Implementations must be safe for concurrent use.
type Engine interface {
	Load(ctx context.Context, url string) error
	Play() error
	Pause() error
	Stop() error
	Seek(position time.Duration) error
	// SetVolume takes a value in [0, 1]
	SetVolume(v float64) error
	Position() (time.Duration, error)
	Duration() (time.Duration, error)
	// SetVideo switches between audio-only and a visible video window
	SetVideo(on bool) error
	Events() <-chan Event
	Close() error
}

// Preloader is implemented by engines that can warm the next track
type Preloader interface {
	Preload(ctx context.Context, url string) error
}

func secondsToDuration(s float64) time.Duration {
	if s < 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
