package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/haryoiro/tubetone/internal/structures"
)

// ShortcutHint represents a single keyboard shortcut hint
type ShortcutHint struct {
	Key    string
	Action string
}

// ShortcutFormatter formats configured key bindings for display
type ShortcutFormatter struct {
	config *structures.Config
	cache  map[string]string
}

// NewShortcutFormatter creates a new shortcut formatter with the given config
func NewShortcutFormatter(config *structures.Config) *ShortcutFormatter {
	return &ShortcutFormatter{
		config: config,
		cache:  make(map[string]string),
	}
}

func (sf *ShortcutFormatter) formatKey(key string) string {
	if formatted, ok := sf.cache[key]; ok {
		return formatted
	}

	formatted := key
	switch key {
	case "space":
		formatted = "Space"
	case "enter":
		formatted = "Enter"
	case "esc":
		formatted = "Esc"
	case "tab":
		formatted = "Tab"
	case "shift+tab":
		formatted = "Shift+Tab"
	case "backspace":
		formatted = "Back"
	case "up":
		formatted = "↑"
	case "down":
		formatted = "↓"
	case "left":
		formatted = "←"
	case "right":
		formatted = "→"
	case "pgup":
		formatted = "PgUp"
	case "pgdown":
		formatted = "PgDn"
	default:
		if rest, ok := strings.CutPrefix(key, "ctrl+"); ok {
			formatted = "Ctrl+" + strings.ToUpper(rest)
		} else if rest, ok := strings.CutPrefix(key, "alt+"); ok {
			formatted = "Alt+" + strings.ToUpper(rest)
		}
	}

	sf.cache[key] = formatted
	return formatted
}

// formatKeys formats alternatives, arrow keys first: ["k", "up"] -> "↑/k"
func (sf *ShortcutFormatter) formatKeys(keys []string) string {
	sorted := slices.Clone(keys)
	slices.SortStableFunc(sorted, func(a, b string) int {
		aa, ba := isArrowKey(a), isArrowKey(b)
		switch {
		case aa && !ba:
			return -1
		case !aa && ba:
			return 1
		}
		return strings.Compare(a, b)
	})

	out := make([]string, len(sorted))
	for i, k := range sorted {
		out[i] = sf.formatKey(k)
	}
	return strings.Join(out, "/")
}

func isArrowKey(key string) bool {
	return key == "up" || key == "down" || key == "left" || key == "right"
}

func (sf *ShortcutFormatter) FormatHint(hint ShortcutHint) string {
	return fmt.Sprintf("[%s: %s]", hint.Key, hint.Action)
}

func (sf *ShortcutFormatter) FormatHints(hints []ShortcutHint) string {
	out := make([]string, len(hints))
	for i, h := range hints {
		out[i] = sf.FormatHint(h)
	}
	return strings.Join(out, " ")
}

// PlayerHints is shown in the player bar
func (sf *ShortcutFormatter) PlayerHints() []ShortcutHint {
	kb := sf.config.KeyBindings
	return []ShortcutHint{
		{Key: sf.formatKey(kb.PlayPause), Action: "Play/Pause"},
		{Key: sf.formatKey(kb.SeekBackward) + "/" + sf.formatKey(kb.SeekForward), Action: "Seek"},
		{Key: sf.formatKey(kb.PrevTrack) + "/" + sf.formatKey(kb.NextTrack), Action: "Prev/Next"},
		{Key: sf.formatKey(kb.Shuffle), Action: "Shuffle"},
		{Key: sf.formatKey(kb.Repeat), Action: "Repeat"},
		{Key: sf.formatKey(kb.ToggleMode), Action: "Video"},
		{Key: sf.formatKey(kb.Quit), Action: "Quit"},
	}
}

// ViewHints returns the footer hints for a view
func (sf *ShortcutFormatter) ViewHints(state ViewState) string {
	kb := sf.config.KeyBindings
	nav := ShortcutHint{Key: sf.formatKeys(kb.MoveUp) + "/" + sf.formatKeys(kb.MoveDown), Action: "Navigate"}

	switch state {
	case HomeView:
		return sf.FormatHints([]ShortcutHint{
			nav,
			{Key: sf.formatKey(kb.NextSection), Action: "Section"},
			{Key: sf.formatKeys(kb.Select), Action: "Play"},
			{Key: sf.formatKey(kb.AddToQueue), Action: "Queue"},
			{Key: sf.formatKey(kb.Search), Action: "Search"},
			{Key: sf.formatKey(kb.Playlists), Action: "Playlists"},
			{Key: sf.formatKey(kb.Status), Action: "Status"},
		})
	case SearchView:
		return sf.FormatHints([]ShortcutHint{
			{Key: sf.formatKey("enter"), Action: "Search/Play"},
			{Key: sf.formatKey(kb.AddToQueue), Action: "Queue"},
			{Key: sf.formatKey(kb.Search), Action: "Edit query"},
			{Key: sf.formatKey("esc"), Action: "Back"},
		})
	case QueueView:
		return sf.FormatHints([]ShortcutHint{
			nav,
			{Key: sf.formatKeys(kb.Select), Action: "Play"},
			{Key: sf.formatKey(kb.RemoveTrack), Action: "Remove"},
			{Key: sf.formatKey(kb.Home), Action: "Home"},
		})
	case PlaylistListView:
		return sf.FormatHints([]ShortcutHint{
			nav,
			{Key: sf.formatKeys(kb.Select), Action: "Open"},
			{Key: "c", Action: "New"},
			{Key: "d", Action: "Delete"},
			{Key: sf.formatKey(kb.AddToPlaylist), Action: "Add playing"},
		})
	case PlaylistDetailView:
		return sf.FormatHints([]ShortcutHint{
			nav,
			{Key: sf.formatKeys(kb.Select), Action: "Play from here"},
			{Key: sf.formatKey(kb.RemoveTrack), Action: "Remove"},
			{Key: sf.formatKey(kb.AddToPlaylist), Action: "Add playing"},
			{Key: sf.formatKeys(kb.Back), Action: "Back"},
		})
	case StatusView:
		return sf.FormatHints([]ShortcutHint{
			{Key: "c", Action: "Re-check"},
			{Key: sf.formatKeys(kb.Back), Action: "Back"},
		})
	}
	return ""
}

// EmptyStateHint returns "Press 'x' to ..."
func (sf *ShortcutFormatter) EmptyStateHint(action, key string) string {
	return fmt.Sprintf("Press '%s' to %s", sf.formatKey(key), action)
}
