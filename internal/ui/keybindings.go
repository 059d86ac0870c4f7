package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/structures"
)

// isKey checks if the pressed key matches the configured keybinding
func (m *Model) isKey(msg tea.KeyMsg, key string) bool {
	if key == "" {
		return false
	}

	switch key {
	case "ctrl+c":
		return msg.Type == tea.KeyCtrlC
	case "ctrl+d":
		return msg.Type == tea.KeyCtrlD
	case "space":
		return msg.Type == tea.KeySpace
	case "enter":
		return msg.Type == tea.KeyEnter
	case "esc":
		return msg.Type == tea.KeyEsc
	case "backspace":
		return msg.Type == tea.KeyBackspace
	case "tab":
		return msg.Type == tea.KeyTab
	case "shift+tab":
		return msg.Type == tea.KeyShiftTab
	case "up":
		return msg.Type == tea.KeyUp
	case "down":
		return msg.Type == tea.KeyDown
	case "left":
		return msg.Type == tea.KeyLeft
	case "right":
		return msg.Type == tea.KeyRight
	case "pgup":
		return msg.Type == tea.KeyPgUp
	case "pgdown":
		return msg.Type == tea.KeyPgDown
	default:
		return msg.Type == tea.KeyRunes && !msg.Alt && msg.String() == key
	}
}

// isKeyInList checks if the pressed key matches any of the configured keybindings
func (m *Model) isKeyInList(msg tea.KeyMsg, bindings []string) bool {
	for _, b := range bindings {
		if m.isKey(msg, b) {
			return true
		}
	}
	return false
}

// handleKeyPress routes keyboard input. Text inputs get first refusal so
// typing a bound letter into the search box does not trigger its action.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := m.config.KeyBindings
	logger.Debug("Key event: type=%d string=%s", msg.Type, msg.String())

	if m.isKey(msg, kb.Quit) || msg.Type == tea.KeyCtrlD {
		return m, tea.Quit
	}

	if m.naming {
		return m.handleNamingKeys(msg)
	}
	if m.state == SearchView && m.searchInput.Focused() {
		return m.handleSearchInputKeys(msg)
	}

	// Navigation
	switch {
	case m.isKeyInList(msg, kb.MoveUp):
		return m.moveUp()
	case m.isKeyInList(msg, kb.MoveDown):
		return m.moveDown()
	case msg.String() == "g":
		return m.jumpToTop()
	case msg.String() == "G":
		return m.jumpToBottom()
	case msg.Type == tea.KeyPgUp || msg.Type == tea.KeyCtrlB:
		return m.pageUp()
	case msg.Type == tea.KeyPgDown || msg.Type == tea.KeyCtrlF:
		return m.pageDown()
	case m.isKeyInList(msg, kb.Select):
		return m.handleEnter()
	case m.isKeyInList(msg, kb.Back):
		return m.navigateBack()
	}

	// Player controls
	switch {
	case m.isKey(msg, kb.PlayPause):
		return m.sendPlayer(structures.PlayPauseAction{})
	case m.isKeyInList(msg, kb.VolumeUp):
		return m.sendPlayer(structures.VolumeUpAction{})
	case m.isKeyInList(msg, kb.VolumeDown):
		return m.sendPlayer(structures.VolumeDownAction{})
	case m.isKey(msg, kb.SeekForward):
		return m.sendPlayer(structures.ForwardAction{})
	case m.isKey(msg, kb.SeekBackward):
		return m.sendPlayer(structures.BackwardAction{})
	case m.isKey(msg, kb.NextTrack):
		return m.sendPlayer(structures.NextAction{})
	case m.isKey(msg, kb.PrevTrack):
		return m.sendPlayer(structures.PreviousAction{})
	case m.isKey(msg, kb.Shuffle):
		return m.sendPlayer(structures.ToggleShuffleAction{})
	case m.isKey(msg, kb.Repeat):
		return m.sendPlayer(structures.CycleRepeatAction{})
	case m.isKey(msg, kb.ToggleMode):
		return m.toggleMode()
	case m.isKey(msg, kb.Lyrics):
		return m.toggleLyrics()
	case m.isKey(msg, kb.Expand):
		return m.toggleExpanded()
	}

	// Track actions on the selected row
	switch {
	case m.isKey(msg, kb.AddToQueue):
		return m.addSelectedToQueue()
	case m.isKey(msg, kb.RemoveTrack):
		return m.removeSelected()
	case m.isKey(msg, kb.AddToPlaylist):
		return m.addCurrentToPlaylist()
	}

	// Views
	switch {
	case m.isKey(msg, kb.Search):
		return m.startSearch()
	case m.isKey(msg, kb.Queue):
		m.switchView(QueueView)
		return m, nil
	case m.isKey(msg, kb.Playlists):
		m.switchView(PlaylistListView)
		return m, m.loadPlaylists()
	case m.isKey(msg, kb.Status):
		m.switchView(StatusView)
		if m.status == nil && !m.statusLoading {
			return m, m.checkStatus()
		}
		return m, nil
	case m.isKey(msg, kb.Home):
		m.switchView(HomeView)
		return m, nil
	}

	switch m.state {
	case HomeView:
		return m.handleHomeKeys(msg)
	case PlaylistListView:
		return m.handlePlaylistListKeys(msg)
	case StatusView:
		if msg.String() == "c" && !m.statusLoading {
			return m, m.checkStatus()
		}
	}
	return m, nil
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kb := m.config.KeyBindings
	switch {
	case m.isKey(msg, kb.NextSection):
		return m.nextSection()
	case m.isKey(msg, kb.PrevSection):
		return m.prevSection()
	case msg.Type == tea.KeyF5:
		m.homeLoading = true
		return m, m.loadSections()
	}
	return m, nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		m.naming = true
		m.playlistInput.SetValue("")
		return m, m.playlistInput.Focus()
	case "d":
		if m.selectedIndex < len(m.playlists) {
			return m, m.deletePlaylist(m.playlists[m.selectedIndex])
		}
	}
	return m, nil
}

func (m *Model) handleNamingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.naming = false
		m.playlistInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.naming = false
		m.playlistInput.Blur()
		title := strings.TrimSpace(m.playlistInput.Value())
		if title == "" {
			return m, nil
		}
		return m, m.createPlaylist(title)
	}
	var cmd tea.Cmd
	m.playlistInput, cmd = m.playlistInput.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchInput.Blur()
		if len(m.searchResults) == 0 {
			return m.navigateBack()
		}
		return m, nil
	case tea.KeyEnter:
		m.searchInput.Blur()
		return m, m.submitSearch()
	case tea.KeyDown, tea.KeyTab:
		if len(m.searchResults) > 0 {
			m.searchInput.Blur()
		}
		return m, nil
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != before {
		return m, tea.Batch(cmd, m.scheduleSearch())
	}
	return m, cmd
}

func (m *Model) startSearch() (tea.Model, tea.Cmd) {
	m.switchView(SearchView)
	return m, m.searchInput.Focus()
}

func (m *Model) nextSection() (tea.Model, tea.Cmd) {
	if len(m.sections) > 0 {
		m.currentSectionIndex = (m.currentSectionIndex + 1) % len(m.sections)
		m.resetCursor()
	}
	return m, nil
}

func (m *Model) prevSection() (tea.Model, tea.Cmd) {
	if len(m.sections) > 0 {
		m.currentSectionIndex = (m.currentSectionIndex - 1 + len(m.sections)) % len(m.sections)
		m.resetCursor()
	}
	return m, nil
}
