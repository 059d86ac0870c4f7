package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/haryoiro/tubetone/internal/structures"
)

// currentTracks returns the selectable tracks of the active view, or nil when
// the view does not list tracks.
func (m *Model) currentTracks() []structures.Track {
	switch m.state {
	case HomeView:
		if m.currentSectionIndex < len(m.sections) {
			return m.sections[m.currentSectionIndex].Tracks
		}
	case SearchView:
		return m.searchResults
	case QueueView:
		return m.playerState.Queue
	case PlaylistDetailView:
		return m.playlistTracks
	}
	return nil
}

func (m *Model) selectedTrack() (structures.Track, bool) {
	tracks := m.currentTracks()
	if m.selectedIndex < 0 || m.selectedIndex >= len(tracks) {
		return structures.Track{}, false
	}
	return tracks[m.selectedIndex], true
}

func (m *Model) getMaxIndex() int {
	if m.state == PlaylistListView {
		return len(m.playlists) - 1
	}
	return len(m.currentTracks()) - 1
}

func (m *Model) getVisibleItems() int {
	reserved := listHeaderLines
	switch m.state {
	case HomeView:
		reserved = homeHeaderLines
	case QueueView:
		reserved = queueHeaderLines
	}
	// border of the content box
	visible := m.contentHeight - 2 - reserved
	if visible < 1 {
		visible = 1
	}
	return visible
}

func (m *Model) adjustScroll() {
	visible := m.getVisibleItems()
	if m.selectedIndex < m.scrollOffset {
		m.scrollOffset = m.selectedIndex
	} else if m.selectedIndex >= m.scrollOffset+visible {
		m.scrollOffset = m.selectedIndex - visible + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
}

func (m *Model) moveUp() (tea.Model, tea.Cmd) {
	if m.selectedIndex > 0 {
		m.selectedIndex--
		m.adjustScroll()
	} else if m.state == SearchView {
		return m, m.searchInput.Focus()
	}
	return m, nil
}

func (m *Model) moveDown() (tea.Model, tea.Cmd) {
	if m.selectedIndex < m.getMaxIndex() {
		m.selectedIndex++
		m.adjustScroll()
	}
	return m, nil
}

func (m *Model) jumpToTop() (tea.Model, tea.Cmd) {
	m.resetCursor()
	return m, nil
}

func (m *Model) jumpToBottom() (tea.Model, tea.Cmd) {
	if last := m.getMaxIndex(); last >= 0 {
		m.selectedIndex = last
		m.adjustScroll()
	}
	return m, nil
}

func (m *Model) pageUp() (tea.Model, tea.Cmd) {
	m.selectedIndex -= m.getVisibleItems()
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
	m.adjustScroll()
	return m, nil
}

func (m *Model) pageDown() (tea.Model, tea.Cmd) {
	last := m.getMaxIndex()
	if last < 0 {
		return m, nil
	}
	m.selectedIndex += m.getVisibleItems()
	if m.selectedIndex > last {
		m.selectedIndex = last
	}
	m.adjustScroll()
	return m, nil
}

// navigateBack closes overlays first, then walks back toward Home
func (m *Model) navigateBack() (tea.Model, tea.Cmd) {
	if m.playerState.ShowLyrics {
		return m.toggleLyrics()
	}
	switch m.state {
	case PlaylistDetailView:
		m.switchView(PlaylistListView)
		return m, m.loadPlaylists()
	case SearchView:
		m.searchInput.Blur()
		m.switchView(HomeView)
	case HomeView:
	default:
		m.switchView(HomeView)
	}
	return m, nil
}

// handleEnter plays or opens the selected row. Tracks picked from Home,
// Search or the queue become current without touching the queue; a
// playlist is queued from the selected track onwards.
func (m *Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.state {
	case PlaylistListView:
		if m.selectedIndex < len(m.playlists) {
			p := m.playlists[m.selectedIndex]
			m.playlistTracks = nil
			m.switchView(PlaylistDetailView)
			return m, m.loadPlaylistTracks(p)
		}
	case PlaylistDetailView:
		if m.selectedIndex < len(m.playlistTracks) {
			m.systems.Player.SendAction(structures.ReplaceQueueAction{
				Tracks: append([]structures.Track(nil), m.playlistTracks...),
				Start:  m.selectedIndex,
			})
		}
	case StatusView:
		if !m.statusLoading {
			return m, m.checkStatus()
		}
	default:
		if t, ok := m.selectedTrack(); ok {
			m.systems.Player.SendAction(structures.PlayTrackAction{Track: t})
		}
	}
	return m, nil
}
