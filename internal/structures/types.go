package structures

import (
	"time"
)

// Track represents a playable video with its display metadata
type Track struct {
	TrackID         string `json:"id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Thumbnail       string `json:"thumbnailUrl"`
	AlbumArt        string `json:"albumArt"`
	Duration        string `json:"duration"`                  // formatted, e.g. "3:45"
	DurationSeconds int    `json:"durationSeconds,omitempty"` // parsed from ISO-8601
	URL             string `json:"url"`
	ViewCount       string `json:"viewCount,omitempty"`
	PublishedAt     string `json:"publishedAt,omitempty"`
}

// PlaybackMode selects whether the player shows video or plays audio only
type PlaybackMode string

const (
	PlaybackAudio PlaybackMode = "audio"
	PlaybackVideo PlaybackMode = "video"
)

// Toggle returns the other playback mode
func (m PlaybackMode) Toggle() PlaybackMode {
	if m == PlaybackVideo {
		return PlaybackAudio
	}
	return PlaybackVideo
}

// RepeatMode controls what happens at the end of a track or the queue
type RepeatMode string

const (
	RepeatNone RepeatMode = "none"
	RepeatAll  RepeatMode = "all"
	RepeatOne  RepeatMode = "one"
)

// Next cycles none -> all -> one -> none
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatNone:
		return RepeatAll
	case RepeatAll:
		return RepeatOne
	default:
		return RepeatNone
	}
}

// Icon returns the indicator shown in the player bar
func (m RepeatMode) Icon() string {
	switch m {
	case RepeatAll:
		return "🔁"
	case RepeatOne:
		return "🔂"
	default:
		return ""
	}
}

// Section represents a content section on the home page
type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Tracks []Track `json:"tracks"`
}

// Genre is a browseable music genre on the home page
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Playlist represents a locally stored playlist
type Playlist struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TrackCount  int       `json:"track_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SoundAction represents actions that can be sent to the player
type SoundAction interface{}

// Player actions
type PlayPauseAction struct{}
type PlayAction struct{}
type PauseAction struct{}
type VolumeUpAction struct{}
type VolumeDownAction struct{}
type SetVolumeAction struct{ Volume float64 }
type ForwardAction struct{}
type BackwardAction struct{}
type SeekAction struct {
	Position time.Duration
}
type NextAction struct{}
type PreviousAction struct{}
type PlayTrackAction struct{ Track Track }
type AddTrackAction struct{ Track Track }
type AddTracksToQueueAction struct{ Tracks []Track }
type RemoveFromQueueAction struct{ TrackID string }
type ReplaceQueueAction struct {
	Tracks []Track
	Start  int
}
type SetRecommendationsAction struct {
	ForTrackID string
	Tracks     []Track
}
type SetPlaybackModeAction struct{ Mode PlaybackMode }
type TogglePlaybackModeAction struct{}
type CycleRepeatAction struct{}
type ToggleShuffleAction struct{}
type ToggleLyricsAction struct{}
type ClearErrorAction struct{}
type CleanupAction struct{}

// PlayerState is a snapshot of the playback state
type PlayerState struct {
	Current         *Track
	IsPlaying       bool
	Volume          float64
	Queue           []Track
	History         []Track
	Recommendations []Track
	PlaybackMode    PlaybackMode
	RepeatMode      RepeatMode
	Shuffle         bool

	CurrentTime time.Duration
	TotalTime   time.Duration
	Progress    float64 // percent, 0-100
	ShowLyrics  bool
	Error       string
}

// Config represents the application configuration
type Config struct {
	Theme       Theme       `toml:"theme"`
	KeyBindings KeyBindings `toml:"key_bindings"`

	// API Configuration
	APIKey            string  `toml:"api_key,omitempty"` // usually supplied via YOUTUBE_API_KEY
	ProxyURL          string  `toml:"proxy_url,omitempty"`
	ProxyToken        string  `toml:"proxy_token,omitempty"`
	MaxResults        int     `toml:"max_results"`
	RequestsPerSecond float64 `toml:"requests_per_second"`

	// Player Configuration
	MPVPath       string       `toml:"mpv_path"`
	YTDLFormat    string       `toml:"ytdl_format"`
	DefaultVolume float64      `toml:"default_volume"`
	SeekSeconds   int          `toml:"seek_seconds"`
	HistoryLimit  int          `toml:"history_limit"`
	PollInterval  int          `toml:"poll_interval_ms"`
	StartMode     PlaybackMode `toml:"start_mode"`

	// Proxy server
	ListenAddr string `toml:"listen_addr"`

	// UI Configuration
	DisableAltScreen bool `toml:"disable_alt_screen"`
}

// Theme represents the UI theme configuration
type Theme struct {
	Foreground       string `toml:"foreground"`
	Selected         string `toml:"selected"`
	Playing          string `toml:"playing"`
	Border           string `toml:"border"`
	Error            string `toml:"error"`
	Verified         string `toml:"verified"`
	ProgressBar      string `toml:"progress_bar"`
	ProgressBarFill  string `toml:"progress_bar_fill"`
	ProgressBarStyle string `toml:"progress_bar_style"` // "line", "block", "gradient"
}

// KeyBindings represents configurable keyboard shortcuts
type KeyBindings struct {
	// Global controls
	PlayPause    string   `toml:"play_pause"`
	Quit         string   `toml:"quit"`
	VolumeUp     []string `toml:"volume_up"`
	VolumeDown   []string `toml:"volume_down"`
	SeekForward  string   `toml:"seek_forward"`
	SeekBackward string   `toml:"seek_backward"`
	NextTrack    string   `toml:"next_track"`
	PrevTrack    string   `toml:"prev_track"`

	// Navigation
	MoveUp      []string `toml:"move_up"`
	MoveDown    []string `toml:"move_down"`
	Select      []string `toml:"select"`
	Back        []string `toml:"back"`
	NextSection string   `toml:"next_section"`
	PrevSection string   `toml:"prev_section"`

	// Actions
	Search        string `toml:"search"`
	Queue         string `toml:"queue"`
	AddToQueue    string `toml:"add_to_queue"`
	RemoveTrack   string `toml:"remove_track"`
	Shuffle       string `toml:"shuffle"`
	Repeat        string `toml:"repeat"`
	ToggleMode    string `toml:"toggle_mode"`
	Lyrics        string `toml:"lyrics"`
	Expand        string `toml:"expand"`
	Playlists     string `toml:"playlists"`
	AddToPlaylist string `toml:"add_to_playlist"`
	Status        string `toml:"status"`
	Home          string `toml:"home"`
}

// DatabaseEntry is a track as stored locally
type DatabaseEntry struct {
	Track      Track
	AddedAt    time.Time
	PlayCount  int
	LastPlayed time.Time
}
