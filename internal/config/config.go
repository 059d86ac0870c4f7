package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/structures"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables consulted for secrets. The VITE_ names are accepted
// so an existing web front end .env file can be reused as is.
const (
	EnvAPIKey       = "YOUTUBE_API_KEY"
	EnvAPIKeyLegacy = "VITE_YOUTUBE_API_KEY"
	EnvProxyURL     = "TUBETONE_PROXY_URL"
	EnvProxyToken   = "TUBETONE_PROXY_TOKEN"
)

// Load loads the configuration from a TOML file
func Load(path string) (*structures.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	normalize(cfg)

	return cfg, nil
}

// Save saves the configuration to a TOML file
func Save(cfg *structures.Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadEnv reads .env files (missing files are ignored) and overlays the
// environment onto cfg. A variable set to a non-empty value in the process
// environment wins over .env contents; unset or empty ones are filled in.
func LoadEnv(cfg *structures.Config, files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		values, err := godotenv.Read(existing...)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load env files: %w", err)
		}
		for k, v := range values {
			if os.Getenv(k) != "" {
				continue
			}
			if err := os.Setenv(k, v); err != nil {
				return fmt.Errorf("failed to set %s: %w", k, err)
			}
		}
	}

	if key := APIKeyFromEnv(); key != "" {
		cfg.APIKey = key
	}
	if v := os.Getenv(EnvProxyURL); v != "" {
		cfg.ProxyURL = v
	}
	if v := os.Getenv(EnvProxyToken); v != "" {
		cfg.ProxyToken = v
	}
	return nil
}

// APIKeyFromEnv returns the YouTube Data API key from the environment
func APIKeyFromEnv() string {
	if key := os.Getenv(EnvAPIKey); key != "" {
		return key
	}
	return os.Getenv(EnvAPIKeyLegacy)
}

// Diagnostics reports which external services are configured
type Diagnostics struct {
	YouTubeConfigured bool
	ProxyConfigured   bool
	AllConfigured     bool
}

// Diagnose inspects cfg the same way the status page does
func Diagnose(cfg *structures.Config) Diagnostics {
	d := Diagnostics{
		YouTubeConfigured: cfg.APIKey != "",
		ProxyConfigured:   cfg.ProxyURL != "" && cfg.ProxyToken != "",
	}
	d.AllConfigured = d.YouTubeConfigured && d.ProxyConfigured
	return d
}

// Lines renders the diagnostics as check-mark lines
func (d Diagnostics) Lines() []string {
	mark := func(ok bool) string {
		if ok {
			return "✓ Configured"
		}
		return "✗ Missing"
	}
	return []string{
		"- YouTube API Key: " + mark(d.YouTubeConfigured),
		"- Proxy URL/Token: " + mark(d.ProxyConfigured),
	}
}

// Directories returns the XDG config, cache and data directories, creating
// them when missing
func Directories(app string) (config, cache, data string) {
	home, _ := os.UserHomeDir()

	config = xdg("XDG_CONFIG_HOME", filepath.Join(home, ".config"), app)
	cache = xdg("XDG_CACHE_HOME", filepath.Join(home, ".cache"), app)
	data = xdg("XDG_DATA_HOME", filepath.Join(home, ".local", "share"), app)

	os.MkdirAll(config, 0755)
	os.MkdirAll(cache, 0755)
	os.MkdirAll(data, 0755)
	return
}

func xdg(env, fallback, app string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, app)
	}
	return filepath.Join(fallback, app)
}

func normalize(cfg *structures.Config) {
	if cfg.DefaultVolume < 0 {
		cfg.DefaultVolume = 0
	}
	if cfg.DefaultVolume > 1 {
		cfg.DefaultVolume = 1
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = constants.DefaultHistoryLimit
	}
	if cfg.MaxResults <= 0 || cfg.MaxResults > 50 {
		cfg.MaxResults = constants.DefaultMaxResults
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = int(constants.ProgressPollInterval.Milliseconds())
	}
	if cfg.SeekSeconds <= 0 {
		cfg.SeekSeconds = constants.SeekSeconds
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = constants.DefaultRequestsPerSec
	}
	if cfg.StartMode != structures.PlaybackVideo {
		cfg.StartMode = structures.PlaybackAudio
	}
}

// Default returns the default configuration
func Default() *structures.Config {
	return &structures.Config{
		MaxResults:        constants.DefaultMaxResults,
		RequestsPerSecond: constants.DefaultRequestsPerSec,
		MPVPath:           "mpv",
		YTDLFormat:        "bestvideo[height<=?720]+bestaudio/best",
		DefaultVolume:     1.0,
		SeekSeconds:       constants.SeekSeconds,
		HistoryLimit:      constants.DefaultHistoryLimit,
		PollInterval:      int(constants.ProgressPollInterval.Milliseconds()),
		StartMode:         structures.PlaybackAudio,
		ListenAddr:        ":8787",
		Theme: structures.Theme{
			Foreground:       "#c0caf5",
			Selected:         "#d93250",
			Playing:          "#9ece6a",
			Border:           "#3b4261",
			Error:            "#f7768e",
			Verified:         "#7aa2f7",
			ProgressBar:      "#565f89",
			ProgressBarFill:  "#d93250",
			ProgressBarStyle: "gradient",
		},
		KeyBindings: structures.KeyBindings{
			// Global controls
			PlayPause:    "space",
			Quit:         "ctrl+c",
			VolumeUp:     []string{"+", "="},
			VolumeDown:   []string{"-", "_"},
			SeekForward:  "right",
			SeekBackward: "left",
			NextTrack:    "n",
			PrevTrack:    "p",

			// Navigation
			MoveUp:      []string{"up", "k"},
			MoveDown:    []string{"down", "j"},
			Select:      []string{"enter", "l"},
			Back:        []string{"esc", "backspace"},
			NextSection: "tab",
			PrevSection: "shift+tab",

			// Actions
			Search:        "/",
			Queue:         "q",
			AddToQueue:    "a",
			RemoveTrack:   "r",
			Shuffle:       "s",
			Repeat:        "R",
			ToggleMode:    "v",
			Lyrics:        "y",
			Expand:        "e",
			Playlists:     "P",
			AddToPlaylist: "A",
			Status:        "?",
			Home:          "h",
		},
	}
}
