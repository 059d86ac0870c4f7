package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haryoiro/tubetone/internal/structures"
)

func (m *Model) handleMouseEvent(mouse tea.MouseMsg) (tea.Model, tea.Cmd) {
	if mouse.Action != tea.MouseActionPress {
		return m, nil
	}
	switch mouse.Button {
	case tea.MouseButtonLeft:
		return m.handleMouseClick(mouse.X, mouse.Y)
	case tea.MouseButtonWheelUp:
		return m.moveUp()
	case tea.MouseButtonWheelDown:
		return m.moveDown()
	}
	return m, nil
}

func (m *Model) handleMouseClick(x, y int) (tea.Model, tea.Cmd) {
	playerAreaStart := m.height - m.playerHeight()
	if y >= playerAreaStart {
		return m.handlePlayerClick(x, y-playerAreaStart)
	}
	return m.handleContentClick(y)
}

// handlePlayerClick seeks when the progress line is clicked and toggles
// playback anywhere else in the player box.
func (m *Model) handlePlayerClick(x, y int) (tea.Model, tea.Cmd) {
	// border, then the now-playing line
	const progressRow = 2
	contentX := x - 2
	if y != progressRow || m.playerState.TotalTime <= 0 {
		m.systems.Player.SendAction(structures.PlayPauseAction{})
		return m, nil
	}

	timeWidth := len(formatClock(m.playerState.CurrentTime)) + 1
	barWidth := m.width - 4 - timeWidth - len(formatClock(m.playerState.TotalTime)) - 1
	if barWidth <= 0 || contentX < timeWidth || contentX >= timeWidth+barWidth {
		return m, nil
	}

	progress := float64(contentX-timeWidth) / float64(barWidth)
	pos := time.Duration(float64(m.playerState.TotalTime) * progress)
	m.systems.Player.SendAction(structures.SeekAction{Position: pos})
	return m, nil
}

// listStartRow is the first list row of the active view, counted from the
// top of the content box border.
func (m *Model) listStartRow() int {
	switch m.state {
	case HomeView:
		// tabs and a blank line
		return 3
	case SearchView:
		// title, margin, input and a blank line
		return 5
	case PlaylistListView:
		if m.naming {
			return 5
		}
		return 3
	}
	// title and margin
	return 3
}

// handleContentClick selects the clicked row, or activates it when it is
// already selected.
func (m *Model) handleContentClick(y int) (tea.Model, tea.Cmd) {
	if m.playerState.ShowLyrics && m.state != SearchView {
		return m, nil
	}
	rel := y - m.listStartRow()
	if rel < 0 || rel >= m.getVisibleItems() {
		return m, nil
	}
	idx := m.scrollOffset + rel
	if idx > m.getMaxIndex() {
		return m, nil
	}
	if m.state == SearchView {
		m.searchInput.Blur()
	}
	if idx == m.selectedIndex {
		return m.handleEnter()
	}
	m.selectedIndex = idx
	return m, nil
}
