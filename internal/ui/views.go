package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/haryoiro/tubetone/internal/api"
	"github.com/haryoiro/tubetone/internal/lyrics"
	"github.com/haryoiro/tubetone/internal/structures"
)

// getStyles returns commonly used styles based on theme
func (m *Model) getStyles() (titleStyle, selectedStyle, normalStyle, dimStyle, errorStyle lipgloss.Style) {
	titleStyle = m.themeManager.TitleStyle().MarginBottom(1)
	selectedStyle = m.themeManager.SelectedStyle().PaddingLeft(1).PaddingRight(1)
	normalStyle = m.themeManager.BaseStyle().PaddingLeft(1).PaddingRight(1)
	dimStyle = m.themeManager.SubtitleStyle()
	errorStyle = m.themeManager.ErrorStyle()
	return
}

// renderTrackRows renders tracks[start:end] as fixed-width columns. The row
// matching the playing track gets the playing style.
func (m *Model) renderTrackRows(b *strings.Builder, tracks []structures.Track, maxWidth int, numbered bool) {
	_, selectedStyle, normalStyle, dimStyle, _ := m.getStyles()
	playingStyle := m.themeManager.PlayingStyle().PaddingLeft(1).PaddingRight(1)

	visible := m.getVisibleItems()
	start := m.scrollOffset
	end := start + visible
	if end > len(tracks) {
		end = len(tracks)
	}

	var playingID string
	if m.playerState.Current != nil {
		playingID = m.playerState.Current.TrackID
	}

	totalWidth := maxWidth - 4
	durationWidth := 8
	indexWidth := 0
	if numbered {
		indexWidth = 4
	}
	artistWidth := totalWidth / 3
	if artistWidth > 28 {
		artistWidth = 28
	}
	titleWidth := totalWidth - durationWidth - artistWidth - indexWidth - 4

	for i := start; i < end; i++ {
		t := tracks[i]
		prefix := "  "
		if t.TrackID == playingID {
			prefix = "♪ "
		}
		if i == m.selectedIndex {
			prefix = "▶ "
		}

		var line string
		if titleWidth < 10 {
			line = prefix + truncate(t.Title, maxWidth-6)
		} else {
			idx := ""
			if numbered {
				idx = padToWidth(fmt.Sprintf("%d.", i+1), indexWidth)
			}
			artist := t.Artist
			if api.IsVerifiedArtist(artist) {
				artist += " ✓"
			}
			line = fmt.Sprintf("%s%s%s %s %s",
				prefix,
				idx,
				padToWidth(truncate(t.Title, titleWidth), titleWidth),
				padToWidth(truncate(artist, artistWidth), artistWidth),
				padToWidth(t.Duration, durationWidth))
		}

		switch {
		case i == m.selectedIndex:
			b.WriteString(selectedStyle.Render(line))
		case t.TrackID == playingID:
			b.WriteString(playingStyle.Render(line))
		default:
			b.WriteString(normalStyle.Render(line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	if len(tracks) > visible {
		pages := (len(tracks) + visible - 1) / visible
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf(" Page %d/%d (%d items)", m.selectedIndex/visible+1, pages, len(tracks))))
	}
}

func (m *Model) renderFooter(b *strings.Builder) {
	_, _, _, _, errorStyle := m.getStyles()
	b.WriteString("\n\n")
	if m.notice != "" {
		b.WriteString(" " + errorStyle.UnsetBold().Render(m.notice))
		return
	}
	b.WriteString(" " + m.themeManager.HelpStyle().Render(m.shortcuts.ViewHints(m.state)))
}

// renderHome renders the home view with sections
func (m *Model) renderHome(maxWidth int) string {
	_, _, _, dimStyle, errorStyle := m.getStyles()

	var b strings.Builder
	if m.homeLoading && len(m.sections) == 0 {
		b.WriteString(" " + dimStyle.Render("Loading home page..."))
		return b.String()
	}
	if len(m.sections) == 0 {
		if m.homeErr != nil {
			b.WriteString(" " + errorStyle.Render("⚠️  "+api.UserMessage(m.homeErr)))
			b.WriteString("\n\n ")
			b.WriteString(dimStyle.Render(m.shortcuts.EmptyStateHint("check the API configuration", m.config.KeyBindings.Status)))
			return b.String()
		}
		b.WriteString(" " + dimStyle.Render("Nothing to show yet. "+m.shortcuts.EmptyStateHint("search", m.config.KeyBindings.Search)))
		return b.String()
	}

	b.WriteString(m.renderSectionTabs(maxWidth))
	b.WriteString("\n\n")

	section := m.sections[m.currentSectionIndex]
	if len(section.Tracks) == 0 {
		b.WriteString(" " + dimStyle.Render("No tracks in this section"))
	} else {
		m.renderTrackRows(&b, section.Tracks, maxWidth, false)
	}
	m.renderFooter(&b)
	return b.String()
}

// renderSectionTabs renders the section tabs at the top
func (m *Model) renderSectionTabs(maxWidth int) string {
	_, selectedStyle, normalStyle, dimStyle, _ := m.getStyles()

	tabs := make([]string, len(m.sections))
	for i, s := range m.sections {
		style := normalStyle.PaddingLeft(2).PaddingRight(2)
		if i == m.currentSectionIndex {
			style = selectedStyle.PaddingLeft(2).PaddingRight(2).Underline(true)
		}
		tabs[i] = style.Render(s.Title)
	}
	row := strings.Join(tabs, " ")

	if lipgloss.Width(row) > maxWidth {
		// only the active tab fits
		current := selectedStyle.PaddingLeft(2).PaddingRight(2).Render(m.sections[m.currentSectionIndex].Title)
		return current + dimStyle.Render(fmt.Sprintf(" (%d/%d)", m.currentSectionIndex+1, len(m.sections)))
	}
	return row
}

func (m *Model) renderSearch(maxWidth int) string {
	titleStyle, _, _, dimStyle, errorStyle := m.getStyles()

	var b strings.Builder
	b.WriteString(titleStyle.Render(" Search"))
	b.WriteString("\n")
	b.WriteString(" " + m.searchInput.View())
	b.WriteString("\n\n")

	switch {
	case m.searching && len(m.searchResults) == 0:
		b.WriteString(" " + dimStyle.Render("Searching..."))
	case m.searchErr != nil:
		b.WriteString(" " + errorStyle.Render("⚠️  "+api.UserMessage(m.searchErr)))
	case len(m.searchResults) == 0 && m.lastQuery != "":
		b.WriteString(" " + dimStyle.Render(fmt.Sprintf("No results for %q", m.lastQuery)))
	case len(m.searchResults) == 0:
		b.WriteString(" " + dimStyle.Render("Type to search YouTube music"))
	default:
		m.renderTrackRows(&b, m.searchResults, maxWidth, false)
	}
	m.renderFooter(&b)
	return b.String()
}

// renderQueue shows the queue, then up to five recommendations and the most
// recent history entries underneath.
func (m *Model) renderQueue(maxWidth int) string {
	titleStyle, _, _, dimStyle, _ := m.getStyles()
	st := m.playerState

	var b strings.Builder
	mode := ""
	if st.Shuffle {
		mode += " 🔀"
	}
	mode += " " + st.RepeatMode.Icon()
	b.WriteString(titleStyle.Render(fmt.Sprintf(" Queue (%d)%s", len(st.Queue), mode)))
	b.WriteString("\n")

	if len(st.Queue) == 0 {
		b.WriteString(" " + dimStyle.Render("Queue is empty. "+m.shortcuts.EmptyStateHint("add the selected track", m.config.KeyBindings.AddToQueue)))
	} else {
		m.renderTrackRows(&b, st.Queue, maxWidth, true)
	}

	extra := func(title string, tracks []structures.Track) {
		if len(tracks) == 0 {
			return
		}
		b.WriteString("\n\n " + titleStyle.UnsetMarginBottom().Render(title) + "\n")
		n := len(tracks)
		if n > 5 {
			n = 5
		}
		for i := 0; i < n; i++ {
			t := tracks[i]
			b.WriteString(dimStyle.Render(truncate(fmt.Sprintf("   %s - %s", t.Title, t.Artist), maxWidth-2)))
			if i < n-1 {
				b.WriteString("\n")
			}
		}
	}
	extra("Up next from recommendations", st.Recommendations)

	history := make([]structures.Track, len(st.History))
	for i, t := range st.History {
		history[len(st.History)-1-i] = t
	}
	extra("Recently played", history)

	m.renderFooter(&b)
	return b.String()
}

func (m *Model) renderPlaylistList(maxWidth int) string {
	titleStyle, selectedStyle, normalStyle, dimStyle, _ := m.getStyles()

	var b strings.Builder
	b.WriteString(titleStyle.Render(" Playlists"))
	b.WriteString("\n")

	if m.naming {
		b.WriteString(" " + m.playlistInput.View() + "\n\n")
	}

	if len(m.playlists) == 0 {
		b.WriteString(" " + dimStyle.Render("No playlists yet. Press 'c' to create one."))
		m.renderFooter(&b)
		return b.String()
	}

	visible := m.getVisibleItems()
	end := m.scrollOffset + visible
	if end > len(m.playlists) {
		end = len(m.playlists)
	}
	for i := m.scrollOffset; i < end; i++ {
		p := m.playlists[i]
		line := fmt.Sprintf("📁 %s (%d tracks)", p.Title, p.TrackCount)
		line = truncate(line, maxWidth-4)
		if i == m.selectedIndex {
			b.WriteString(selectedStyle.Render("▶ " + line))
		} else {
			b.WriteString(normalStyle.Render("  " + line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	m.renderFooter(&b)
	return b.String()
}

func (m *Model) renderPlaylistDetail(maxWidth int) string {
	titleStyle, _, _, dimStyle, _ := m.getStyles()

	var b strings.Builder
	title := "Playlist"
	if m.currentPlaylist != nil {
		title = m.currentPlaylist.Title
		if m.currentPlaylist.Description != "" {
			title += " · " + m.currentPlaylist.Description
		}
	}
	b.WriteString(titleStyle.Render(" 📁 " + truncate(title, maxWidth-6)))
	b.WriteString("\n")

	if len(m.playlistTracks) == 0 {
		b.WriteString(" " + dimStyle.Render("This playlist is empty. "+
			m.shortcuts.EmptyStateHint("add the playing track", m.config.KeyBindings.AddToPlaylist)))
	} else {
		m.renderTrackRows(&b, m.playlistTracks, maxWidth, true)
	}
	m.renderFooter(&b)
	return b.String()
}

func (m *Model) renderStatus(maxWidth int) string {
	titleStyle, _, normalStyle, dimStyle, errorStyle := m.getStyles()

	var b strings.Builder
	b.WriteString(titleStyle.Render(" API Status"))
	b.WriteString("\n")

	for _, line := range m.diagnostics() {
		b.WriteString(normalStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	switch {
	case m.statusLoading:
		b.WriteString(" " + dimStyle.Render("Checking connection..."))
	case m.status == nil:
		b.WriteString(" " + dimStyle.Render("Connection not checked yet"))
	case m.status.Success:
		b.WriteString(" " + m.themeManager.PlayingStyle().Render("✓ "+m.status.Message))
	default:
		b.WriteString(" " + errorStyle.Render("✗ "+m.status.Message))
	}

	if m.status != nil {
		for _, k := range []string{"tracksReceived", "status", "youtubeKey"} {
			if v, ok := m.status.Details[k]; ok {
				b.WriteString("\n " + dimStyle.Render(truncate(fmt.Sprintf("%s: %v", k, v), maxWidth-4)))
			}
		}
		if t, ok := m.status.Details["firstTrack"].(structures.Track); ok {
			b.WriteString("\n " + dimStyle.Render(truncate("firstTrack: "+t.Title, maxWidth-4)))
		}
	}
	m.renderFooter(&b)
	return b.String()
}

// renderLyrics centres the active line with a few lines of context
func (m *Model) renderLyrics(maxWidth int) string {
	titleStyle, _, _, dimStyle, _ := m.getStyles()
	activeStyle := m.themeManager.PlayingStyle()

	var b strings.Builder
	title := "Lyrics"
	if cur := m.playerState.Current; cur != nil {
		title += " · " + cur.Title
	}
	b.WriteString(titleStyle.Render(" " + truncate(title, maxWidth-4)))
	b.WriteString("\n")

	if len(m.lyrics) == 0 {
		b.WriteString(" " + dimStyle.Render("No lyrics found in "+m.systems.Lyrics.Dir()))
		return b.String()
	}

	active := lyrics.Index(m.lyrics, m.playerState.CurrentTime)
	window := m.contentHeight - 6
	if window < 3 {
		window = 3
	}
	start := active - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(m.lyrics) {
		end = len(m.lyrics)
	}

	center := lipgloss.NewStyle().Width(maxWidth - 2).Align(lipgloss.Center)
	for i := start; i < end; i++ {
		text := m.lyrics[i].Text
		if text == "" {
			text = "♪"
		}
		text = truncate(text, maxWidth-4)
		if i == active {
			b.WriteString(center.Render(activeStyle.Render(text)))
		} else {
			b.WriteString(center.Render(dimStyle.Render(text)))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// applyMarquee scrolls text that does not fit in maxLen cells
func (m *Model) applyMarquee(text string, maxLen int) string {
	if runewidth.StringWidth(text) <= maxLen {
		return text
	}

	runes := []rune(text)
	padded := append(append([]rune{}, runes...), []rune("     ")...)

	// longer titles scroll slower
	divisor := 3 + len(runes)/30
	if divisor > 7 {
		divisor = 7
	}
	offset := (m.marqueeOffset / divisor) % len(padded)

	var result []rune
	width := 0
	for i := 0; width < maxLen; i++ {
		r := padded[(offset+i)%len(padded)]
		w := runewidth.RuneWidth(r)
		if width+w > maxLen {
			break
		}
		result = append(result, r)
		width += w
	}
	for width < maxLen {
		result = append(result, ' ')
		width++
	}
	return string(result)
}

func truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= EllipsisWidth {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

func padToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.FillRight(s, width)
}

// formatClock renders a playback position, "--:--" when unknown
func formatClock(d time.Duration) string {
	if d <= 0 {
		return "--:--"
	}
	return api.FormatSeconds(int(d.Seconds()))
}
