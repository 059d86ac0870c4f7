package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/lyrics"
	"github.com/haryoiro/tubetone/internal/structures"
)

const recentSectionID = "recent"

func (m *Model) loadSections() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), constants.APIRequestTimeout)
		defer cancel()
		sections, err := m.systems.API.Sections(ctx)
		if err != nil {
			logger.Warn("Failed to load home sections: %v", err)
		}
		return sectionsLoadedMsg{sections: sections, err: err}
	}
}

// withRecentSection appends the locally recorded listening history
func (m *Model) withRecentSection(sections []structures.Section) []structures.Section {
	if m.systems.Database == nil {
		return sections
	}
	entries := m.systems.Database.RecentlyPlayed(constants.DefaultMaxResults)
	if len(entries) == 0 {
		return sections
	}
	tracks := make([]structures.Track, len(entries))
	for i, e := range entries {
		tracks[i] = e.Track
	}
	return append(sections, structures.Section{ID: recentSectionID, Title: "Recently Played", Tracks: tracks})
}

func (m *Model) performSearch() tea.Cmd {
	query := strings.TrimSpace(m.searchInput.Value())
	if query == "" || query == m.lastQuery {
		return nil
	}
	m.searching = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), constants.APIRequestTimeout)
		defer cancel()
		tracks, err := m.systems.API.Search(ctx, query)
		return searchResultsMsg{query: query, tracks: tracks, err: err}
	}
}

func (m *Model) loadPlaylists() tea.Cmd {
	return func() tea.Msg {
		if m.systems.Database == nil {
			return playlistsLoadedMsg(nil)
		}
		lists, err := m.systems.Database.Playlists()
		if err != nil {
			return errorMsg(err)
		}
		return playlistsLoadedMsg(lists)
	}
}

func (m *Model) loadPlaylistTracks(p structures.Playlist) tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.systems.Database.PlaylistTracks(p.ID)
		if err != nil {
			return errorMsg(err)
		}
		return playlistTracksMsg{playlist: p, tracks: tracks}
	}
}

func (m *Model) createPlaylist(title string) tea.Cmd {
	return func() tea.Msg {
		p, err := m.systems.Database.CreatePlaylist(title, "")
		if err != nil {
			return errorMsg(err)
		}
		logger.Info("Created playlist %s (%s)", p.Title, p.ID)
		return m.loadPlaylists()()
	}
}

func (m *Model) deletePlaylist(p structures.Playlist) tea.Cmd {
	return func() tea.Msg {
		if err := m.systems.Database.DeletePlaylist(p.ID); err != nil {
			return errorMsg(err)
		}
		return m.loadPlaylists()()
	}
}

func (m *Model) addToPlaylist(p structures.Playlist, t structures.Track) tea.Cmd {
	return func() tea.Msg {
		if err := m.systems.Database.AddToPlaylist(p.ID, t); err != nil {
			return errorMsg(err)
		}
		return noticeMsg(fmt.Sprintf("Added %q to %s", t.Title, p.Title))
	}
}

func (m *Model) removeFromPlaylist(p structures.Playlist, t structures.Track) tea.Cmd {
	return func() tea.Msg {
		if err := m.systems.Database.RemoveFromPlaylist(p.ID, t.TrackID); err != nil {
			return errorMsg(err)
		}
		return m.loadPlaylistTracks(p)()
	}
}

func (m *Model) checkStatus() tea.Cmd {
	m.statusLoading = true
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), constants.APIRequestTimeout)
		defer cancel()
		return statusMsg(m.systems.API.CheckConnection(ctx))
	}
}

// maybeLoadLyrics loads lyrics once per track while the overlay is visible
func (m *Model) maybeLoadLyrics() tea.Cmd {
	cur := m.playerState.Current
	if !m.playerState.ShowLyrics || cur == nil || cur.TrackID == m.lyricsFor {
		return nil
	}
	id := cur.TrackID
	m.lyricsFor = id
	return func() tea.Msg {
		lines, err := m.systems.CurrentLyrics()
		if err != nil && !errors.Is(err, lyrics.ErrNotFound) {
			logger.Warn("Failed to load lyrics for %s: %v", id, err)
		}
		return lyricsLoadedMsg{trackID: id, lines: lines}
	}
}
