package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/haryoiro/tubetone/internal/api"
	"github.com/haryoiro/tubetone/internal/config"
	"github.com/haryoiro/tubetone/internal/constants"
	"github.com/haryoiro/tubetone/internal/logger"
	"github.com/haryoiro/tubetone/internal/lyrics"
	"github.com/haryoiro/tubetone/internal/structures"
	"github.com/haryoiro/tubetone/internal/systems"
)

func init() {
	runewidth.DefaultCondition.EastAsianWidth = false
}

type ViewState int

const (
	HomeView ViewState = iota
	SearchView
	QueueView
	PlaylistListView
	PlaylistDetailView
	StatusView
)

func (v ViewState) String() string {
	switch v {
	case HomeView:
		return "Home"
	case SearchView:
		return "Search"
	case QueueView:
		return "Queue"
	case PlaylistListView:
		return "Playlists"
	case PlaylistDetailView:
		return "Playlist"
	case StatusView:
		return "Status"
	}
	return "Unknown"
}

type Model struct {
	systems      *systems.Systems
	config       *structures.Config
	themeManager *ThemeManager
	shortcuts    *ShortcutFormatter

	state         ViewState
	prevState     ViewState
	width         int
	height        int
	contentHeight int
	expanded      bool

	// Home
	sections            []structures.Section
	currentSectionIndex int
	homeErr             error
	homeLoading         bool

	// shared list cursor for the active view
	selectedIndex int
	scrollOffset  int

	// Search
	searchInput   textinput.Model
	searchResults []structures.Track
	searchSeq     int
	searching     bool
	searchErr     error
	lastQuery     string

	// Playlists
	playlists       []structures.Playlist
	currentPlaylist *structures.Playlist
	playlistTracks  []structures.Track
	playlistInput   textinput.Model
	naming          bool

	// Status
	status        *api.ConnectionStatus
	statusLoading bool

	// Lyrics
	lyrics    []lyrics.Line
	lyricsFor string

	playerState   structures.PlayerState
	notice        string
	noticeUntil   time.Time
	marqueeOffset int
}

type tickMsg time.Time
type sectionsLoadedMsg struct {
	sections []structures.Section
	err      error
}
type searchDebounceMsg struct{ seq int }
type searchResultsMsg struct {
	query  string
	tracks []structures.Track
	err    error
}
type playlistsLoadedMsg []structures.Playlist
type playlistTracksMsg struct {
	playlist structures.Playlist
	tracks   []structures.Track
}
type statusMsg api.ConnectionStatus
type lyricsLoadedMsg struct {
	trackID string
	lines   []lyrics.Line
}
type noticeMsg string
type errorMsg error

// NewModel builds the root model. It does not start the program.
func NewModel(sys *systems.Systems, cfg *structures.Config) *Model {
	search := textinput.New()
	search.Placeholder = "Search for songs, artists..."
	search.Prompt = "🔍 "
	search.CharLimit = 200

	name := textinput.New()
	name.Placeholder = "Playlist name"
	name.Prompt = "➕ "
	name.CharLimit = 100

	return &Model{
		systems:       sys,
		config:        cfg,
		themeManager:  NewThemeManager(cfg.Theme),
		shortcuts:     NewShortcutFormatter(cfg),
		state:         HomeView,
		searchInput:   search,
		playlistInput: name,
		homeLoading:   true,
	}
}

// Run starts the TUI and blocks until the user quits
func Run(sys *systems.Systems, cfg *structures.Config) error {
	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !cfg.DisableAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(NewModel(sys, cfg), opts...)
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadSections(),
		m.tickCmd(),
	)
}

func (m *Model) playerHeight() int {
	if m.expanded {
		return constants.ExpandedPlayerHeight
	}
	return constants.DefaultPlayerHeight
}

func (m *Model) resize() {
	// the player height already includes its border
	m.contentHeight = m.height - m.playerHeight()
	if m.contentHeight < constants.MinVisibleItems {
		m.contentHeight = constants.MinVisibleItems
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.searchInput.Width = msg.Width - 10
		m.resize()

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouseEvent(msg)

	case tickMsg:
		m.marqueeOffset++
		m.playerState = m.systems.Player.GetState()
		if m.notice != "" && time.Time(msg).After(m.noticeUntil) {
			m.notice = ""
		}
		return m, tea.Batch(m.tickCmd(), m.maybeLoadLyrics())

	case sectionsLoadedMsg:
		m.homeLoading = false
		m.homeErr = msg.err
		m.sections = m.withRecentSection(msg.sections)
		if m.currentSectionIndex >= len(m.sections) {
			m.currentSectionIndex = 0
		}
		if m.state == HomeView {
			m.resetCursor()
		}

	case searchDebounceMsg:
		if msg.seq != m.searchSeq {
			return m, nil
		}
		return m, m.performSearch()

	case searchResultsMsg:
		if msg.query != strings.TrimSpace(m.searchInput.Value()) {
			return m, nil
		}
		m.searching = false
		m.searchErr = msg.err
		m.searchResults = msg.tracks
		m.lastQuery = msg.query
		if m.state == SearchView {
			m.resetCursor()
		}

	case playlistsLoadedMsg:
		m.playlists = msg
		if m.state == PlaylistListView && m.selectedIndex >= len(m.playlists) {
			m.resetCursor()
		}

	case playlistTracksMsg:
		p := msg.playlist
		m.currentPlaylist = &p
		m.playlistTracks = msg.tracks
		if m.state == PlaylistDetailView && m.selectedIndex >= len(m.playlistTracks) {
			m.resetCursor()
		}

	case statusMsg:
		st := api.ConnectionStatus(msg)
		m.status = &st
		m.statusLoading = false

	case lyricsLoadedMsg:
		m.lyricsFor = msg.trackID
		m.lyrics = msg.lines

	case noticeMsg:
		m.setNotice(string(msg))

	case errorMsg:
		logger.Error("UI error: %v", error(msg))
		m.setNotice("⚠️  " + api.UserMessage(msg))
	}

	return m, nil
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.noticeUntil = time.Now().Add(3 * time.Second)
}

func (m *Model) resetCursor() {
	m.selectedIndex = 0
	m.scrollOffset = 0
}

func (m *Model) switchView(v ViewState) {
	if m.state == v {
		return
	}
	m.prevState = m.state
	m.state = v
	m.resetCursor()
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	mainStyle := m.themeManager.BorderStyle()
	playerStyle := m.themeManager.BorderStyle().Padding(0, 1)

	mainV, mainH := mainStyle.GetFrameSize()
	playerV, playerH := playerStyle.GetFrameSize()

	contentWidth := m.width - mainH
	playerContentWidth := m.width - playerH

	mainStyle = mainStyle.Width(contentWidth).Height(m.contentHeight - mainV)
	playerStyle = playerStyle.Width(playerContentWidth).Height(m.playerHeight() - playerV)

	var content string
	switch {
	case m.playerState.ShowLyrics && m.state != SearchView:
		content = m.renderLyrics(contentWidth)
	case m.state == HomeView:
		content = m.renderHome(contentWidth)
	case m.state == SearchView:
		content = m.renderSearch(contentWidth)
	case m.state == QueueView:
		content = m.renderQueue(contentWidth)
	case m.state == PlaylistListView:
		content = m.renderPlaylistList(contentWidth)
	case m.state == PlaylistDetailView:
		content = m.renderPlaylistDetail(contentWidth)
	case m.state == StatusView:
		content = m.renderStatus(contentWidth)
	}

	lines := strings.Split(content, "\n")
	if maxLines := m.contentHeight - mainV; maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	content = strings.Join(lines, "\n")

	return lipgloss.JoinVertical(
		lipgloss.Top,
		mainStyle.Render(content),
		playerStyle.Render(m.renderPlayer(playerContentWidth)),
	)
}

func (m *Model) tickCmd() tea.Cmd {
	return tea.Tick(constants.MarqueeTickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// diagnostics mirrors config.Diagnose for the status view
func (m *Model) diagnostics() []string {
	return config.Diagnose(m.config).Lines()
}
