package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/haryoiro/tubetone/internal/api"
	"github.com/haryoiro/tubetone/internal/lyrics"
	"github.com/haryoiro/tubetone/internal/structures"
)

// renderPlayer draws the player bar: track line, progress line and controls.
// The expanded layout adds track details and the active lyric line.
func (m *Model) renderPlayer(contentWidth int) string {
	if contentWidth <= 0 {
		contentWidth = 80
	}
	playerInfoStyle := m.themeManager.TitleStyle()
	timeStyle := m.themeManager.BaseStyle().Foreground(lipgloss.Color(m.config.Theme.Selected))
	dimStyle := m.themeManager.SubtitleStyle()

	var content strings.Builder
	content.WriteString(m.renderNowPlaying(contentWidth, playerInfoStyle, dimStyle))
	content.WriteString("\n")

	current := formatClock(m.playerState.CurrentTime)
	total := formatClock(m.playerState.TotalTime)
	barWidth := contentWidth - runewidth.StringWidth(current) - runewidth.StringWidth(total) - 2
	if barWidth < 10 {
		barWidth = 10
	}
	var bar string
	if m.playerState.TotalTime > 0 {
		bar = m.renderProgressBar(barWidth)
	} else {
		bar = m.themeManager.ProgressStyle().Render(strings.Repeat(ProgressEmptyChar, barWidth))
	}
	content.WriteString(fmt.Sprintf("%s %s %s", timeStyle.Render(current), bar, timeStyle.Render(total)))
	content.WriteString("\n")

	content.WriteString(m.renderControls(contentWidth))

	if m.expanded {
		content.WriteString("\n")
		content.WriteString(m.renderDetails(contentWidth, dimStyle))
	}
	return content.String()
}

func (m *Model) renderNowPlaying(contentWidth int, infoStyle, dimStyle lipgloss.Style) string {
	cur := m.playerState.Current
	if cur == nil {
		return dimStyle.Render("NO SONG PLAYING")
	}

	artist := cur.Artist
	artistWidth := runewidth.StringWidth(artist)
	if api.IsVerifiedArtist(artist) {
		artistWidth += 2
	}
	maxTitleWidth := contentWidth - MusicEmojiWidth - SeparatorWidth - artistWidth - 2
	if maxTitleWidth < 20 {
		maxTitleWidth = contentWidth * 2 / 3
		if w := contentWidth - MusicEmojiWidth - SeparatorWidth - maxTitleWidth - 2; w > 0 {
			artist = truncate(artist, w)
		} else {
			artist = ""
		}
	}

	title := cur.Title
	if runewidth.StringWidth(title) > maxTitleWidth {
		title = m.applyMarquee(title, maxTitleWidth)
	}

	line := infoStyle.Render("🎵 " + title)
	if artist != "" {
		line += infoStyle.Render(" - ") + m.themeManager.RenderArtist(artist, api.IsVerifiedArtist(cur.Artist))
	}
	return line
}

func (m *Model) renderProgressBar(width int) string {
	fillStyle := m.themeManager.ProgressFillStyle()
	bgStyle := m.themeManager.ProgressStyle()

	if width < 10 {
		width = 10
	}

	progress := m.playerState.Progress / 100
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}

	filled := int(float64(width) * progress)
	empty := width - filled

	var bar strings.Builder
	switch m.config.Theme.ProgressBarStyle {
	case "block":
		if filled > 0 {
			bar.WriteString(fillStyle.Render(strings.Repeat("█", filled)))
		}
		if empty > 0 {
			bar.WriteString(bgStyle.Render(strings.Repeat("░", empty)))
		}
	case "line":
		if filled > 0 {
			bar.WriteString(fillStyle.Render(strings.Repeat(ProgressEmptyChar, filled)))
		}
		if empty > 0 {
			bar.WriteString(bgStyle.Render(strings.Repeat(ProgressEmptyChar, empty)))
		}
	default:
		if filled > 0 {
			bar.WriteString(m.createGradientBar(filled, m.config.Theme.ProgressBar, m.config.Theme.ProgressBarFill))
		}
		if empty > 0 {
			bar.WriteString(bgStyle.Render(strings.Repeat(ProgressFilledChar, empty)))
		}
	}
	return bar.String()
}

// createGradientBar fakes a gradient with three bands between two colours
func (m *Model) createGradientBar(width int, startColor, endColor string) string {
	if width <= 0 {
		return ""
	}
	startStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(startColor))
	endStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(endColor))

	switch width {
	case 1:
		return endStyle.Render(ProgressFilledChar)
	case 2:
		return startStyle.Render(ProgressFilledChar) + endStyle.Render(ProgressFilledChar)
	}

	middleStyle := endStyle.Faint(true)
	startLen := width / 3
	endLen := width / 3
	middleLen := width - startLen - endLen

	return startStyle.Render(strings.Repeat(ProgressFilledChar, startLen)) +
		middleStyle.Render(strings.Repeat(ProgressFilledChar, middleLen)) +
		endStyle.Render(strings.Repeat(ProgressFilledChar, endLen))
}

func volumeIcon(volume int) string {
	switch {
	case volume == 0:
		return "🔇"
	case volume < 30:
		return "🔈"
	case volume < 70:
		return "🔉"
	}
	return "🔊"
}

func (m *Model) renderControls(availableWidth int) string {
	dimStyle := m.themeManager.SubtitleStyle()
	st := m.playerState

	var parts []string
	if st.IsPlaying {
		parts = append(parts, "▶ Playing")
	} else {
		parts = append(parts, "⏸ Paused")
	}

	volume := int(st.Volume*100 + 0.5)
	parts = append(parts, fmt.Sprintf("%s %d%%", volumeIcon(volume), volume))
	parts = append(parts, st.RepeatMode.Icon())
	if st.Shuffle {
		parts = append(parts, "🔀")
	}
	if st.PlaybackMode == structures.PlaybackVideo {
		parts = append(parts, "🎬 Video")
	} else {
		parts = append(parts, "🎧 Audio")
	}
	if st.Error != "" {
		parts = append(parts, m.themeManager.ErrorStyle().Render("⚠️  "+st.Error))
	}

	hint := m.shortcuts.FormatHints(m.shortcuts.PlayerHints())
	parts = append(parts, dimStyle.Render(hint))

	fullLine := strings.Join(parts, "  ")
	if lipgloss.Width(fullLine) > availableWidth {
		withoutHint := strings.Join(parts[:len(parts)-1], "  ")
		remaining := availableWidth - lipgloss.Width(withoutHint) - 2
		if remaining > 10 {
			parts[len(parts)-1] = dimStyle.Render(truncate(hint, remaining))
		} else {
			parts = parts[:len(parts)-1]
		}
		fullLine = strings.Join(parts, "  ")
	}
	return fullLine
}

// renderDetails is the extra block of the expanded player
func (m *Model) renderDetails(width int, dimStyle lipgloss.Style) string {
	st := m.playerState
	var lines []string

	if cur := st.Current; cur != nil {
		if cur.ViewCount != "" {
			lines = append(lines, fmt.Sprintf("👁  %s views", formatCount(cur.ViewCount)))
		}
		if cur.PublishedAt != "" {
			lines = append(lines, "📅 "+formatPublished(cur.PublishedAt))
		}
		if cur.Thumbnail != "" {
			lines = append(lines, "🖼  "+cur.Thumbnail)
		}
		lines = append(lines, "🔗 "+cur.URL)
	}

	next := "nothing"
	if len(st.Queue) > 0 {
		next = st.Queue[0].Title
	} else if len(st.Recommendations) > 0 {
		next = st.Recommendations[0].Title + " (recommended)"
	}
	lines = append(lines, fmt.Sprintf("⏭  %s  ·  %d queued  ·  %d played", next, len(st.Queue), len(st.History)))

	if st.PlaybackMode == structures.PlaybackAudio && len(m.lyrics) > 0 && m.lyricsFor == m.currentTrackID() {
		if i := lyrics.Index(m.lyrics, st.CurrentTime); i >= 0 {
			lines = append(lines, "🎤 "+m.lyrics[i].Text)
		}
	}

	for i, l := range lines {
		lines[i] = dimStyle.Render(truncate(l, width))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) currentTrackID() string {
	if m.playerState.Current == nil {
		return ""
	}
	return m.playerState.Current.TrackID
}

// formatCount renders "1234567" as "1,234,567". Non-numeric input is
// returned unchanged.
func formatCount(s string) string {
	if _, err := strconv.ParseUint(s, 10, 64); err != nil || len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func formatPublished(s string) string {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return s
	}
	return t.Format(time.DateOnly)
}
