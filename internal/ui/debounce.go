package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/haryoiro/tubetone/internal/constants"
)

// scheduleSearch debounces typing in the search box. Every keystroke bumps
// searchSeq; only the tick carrying the newest sequence triggers a search.
func (m *Model) scheduleSearch() tea.Cmd {
	m.searchSeq++
	seq := m.searchSeq
	return tea.Tick(constants.SearchDebounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq}
	})
}

// submitSearch runs the query immediately and invalidates pending ticks
func (m *Model) submitSearch() tea.Cmd {
	m.searchSeq++
	m.lastQuery = ""
	return m.performSearch()
}
