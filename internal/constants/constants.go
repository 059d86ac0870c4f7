package constants

import "time"

// Queue and channel sizes
const (
	ActionQueueSize = 100
	EventQueueSize  = 32
)

// Timing constants
const (
	MarqueeTickInterval  = 150 * time.Millisecond
	ProgressPollInterval = 250 * time.Millisecond
	ModeTransitionDelay  = 300 * time.Millisecond
	SearchDebounce       = 400 * time.Millisecond
	APIRequestTimeout    = 15 * time.Second
	MPVStartupTimeout    = 5 * time.Second
	MPVCommandTimeout    = 3 * time.Second
)

// UI constants
const (
	DefaultPlayerHeight  = 5
	ExpandedPlayerHeight = 12
	MinVisibleItems      = 3
)

// Playback constants
const (
	DefaultHistoryLimit = 20
	VolumeStep          = 0.05 // 5% volume change per step
	SeekSeconds         = 5
)

// YouTube Data API constants
const (
	MusicCategoryID       = "10"
	DefaultMaxResults     = 20
	DefaultProxyLimit     = 10
	RecommendationLimit   = 10
	DefaultRequestsPerSec = 5.0
	WatchURLPrefix        = "https://www.youtube.com/watch?v="
)

// Error messages shown to the user
const (
	MsgMissingAPIKey   = "YouTube API key is not configured"
	MsgInvalidVideoURL = "Invalid YouTube URL format"
	MsgPlaybackFailed  = "Failed to play this track. Please try another."
	MsgRequestFailed   = "Failed to search music"
)
