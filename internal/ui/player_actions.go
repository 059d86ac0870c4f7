package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/structures"
)

func (m *Model) sendPlayer(action structures.SoundAction) (tea.Model, tea.Cmd) {
	m.systems.Player.SendAction(action)
	return m, nil
}

// toggleMode switches audio/video. The overlay is hidden right away so the
// next frame does not flash lyrics over the video window.
func (m *Model) toggleMode() (tea.Model, tea.Cmd) {
	m.systems.Player.SendAction(structures.TogglePlaybackModeAction{})
	if m.playerState.PlaybackMode == structures.PlaybackAudio {
		m.playerState.ShowLyrics = false
	}
	return m, tea.Tick(constants.ModeTransitionDelay, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) toggleLyrics() (tea.Model, tea.Cmd) {
	if m.playerState.PlaybackMode == structures.PlaybackVideo {
		m.setNotice("Lyrics are only shown in audio mode")
		return m, nil
	}
	m.systems.Player.SendAction(structures.ToggleLyricsAction{})
	m.playerState.ShowLyrics = !m.playerState.ShowLyrics
	if m.playerState.ShowLyrics {
		// force a reload for the current track
		m.lyricsFor = ""
		return m, m.maybeLoadLyrics()
	}
	return m, nil
}

func (m *Model) toggleExpanded() (tea.Model, tea.Cmd) {
	m.expanded = !m.expanded
	m.resize()
	m.adjustScroll()
	return m, nil
}

func (m *Model) addSelectedToQueue() (tea.Model, tea.Cmd) {
	if m.state == QueueView {
		return m, nil
	}
	t, ok := m.selectedTrack()
	if !ok {
		return m, nil
	}
	m.systems.Player.SendAction(structures.AddTrackAction{Track: t})
	m.setNotice(fmt.Sprintf("Queued %q", t.Title))
	return m, nil
}

// removeSelected removes the selected row from the queue or the open playlist
func (m *Model) removeSelected() (tea.Model, tea.Cmd) {
	t, ok := m.selectedTrack()
	if !ok {
		return m, nil
	}
	switch m.state {
	case QueueView:
		m.systems.Player.SendAction(structures.RemoveFromQueueAction{TrackID: t.TrackID})
		if m.selectedIndex > 0 && m.selectedIndex >= m.getMaxIndex() {
			m.selectedIndex--
		}
		m.adjustScroll()
	case PlaylistDetailView:
		if m.currentPlaylist != nil {
			return m, m.removeFromPlaylist(*m.currentPlaylist, t)
		}
	}
	return m, nil
}

// addCurrentToPlaylist adds the playing track to the playlist selected in
// the playlist list, or the open playlist.
func (m *Model) addCurrentToPlaylist() (tea.Model, tea.Cmd) {
	cur := m.playerState.Current
	if cur == nil {
		m.setNotice("Nothing is playing")
		return m, nil
	}

	var target *structures.Playlist
	switch {
	case m.state == PlaylistListView && m.selectedIndex < len(m.playlists):
		target = &m.playlists[m.selectedIndex]
	case m.state == PlaylistDetailView && m.currentPlaylist != nil:
		target = m.currentPlaylist
	}
	if target == nil {
		m.switchView(PlaylistListView)
		m.setNotice("Pick a playlist, then press " + m.shortcuts.formatKey(m.config.KeyBindings.AddToPlaylist))
		return m, m.loadPlaylists()
	}

	cmd := m.addToPlaylist(*target, *cur)
	if m.state == PlaylistDetailView {
		return m, tea.Sequence(cmd, m.loadPlaylistTracks(*target))
	}
	return m, cmd
}
