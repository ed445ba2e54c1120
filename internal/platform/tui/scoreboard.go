package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tidepool/internal/storage"
)

// Runs board layout constants
const (
	boardSidebarWidth = 20  // Width of map list sidebar
	maxRuns           = 100 // Max runs to load
)

// BoardKeyMap defines the key bindings for the runs board.
type BoardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	NextMap key.Binding
	PrevMap key.Binding
	Quit    key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k BoardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.NextMap, k.PrevMap, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k BoardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextMap, k.PrevMap},
		{k.Quit},
	}
}

// DefaultBoardKeyMap returns default key bindings.
func DefaultBoardKeyMap() BoardKeyMap {
	return BoardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "scroll down"),
		),
		NextMap: key.NewBinding(
			key.WithKeys("tab", "right", "l"),
			key.WithHelp("tab", "next map"),
		),
		PrevMap: key.NewBinding(
			key.WithKeys("shift+tab", "left", "h"),
			key.WithHelp("S-tab", "prev map"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// BoardModel is the Bubble Tea model listing the best runs per map.
type BoardModel struct {
	maps      []uint32
	names     map[uint32]string
	cursor    int
	store     *storage.Store
	runs      []storage.Run
	table     table.Model
	help      help.Model
	keys      BoardKeyMap
	width     int
	height    int
	quitting  bool
	loadError error
}

// NewBoardModel creates a runs board. names labels map ids and may be nil.
func NewBoardModel(store *storage.Store, names map[uint32]string, width, height int) BoardModel {
	h := help.New()
	h.ShowAll = false

	m := BoardModel{
		names:  names,
		store:  store,
		keys:   DefaultBoardKeyMap(),
		help:   h,
		width:  width,
		height: height,
	}
	m.table = m.createTable()

	if store != nil {
		maps, err := store.RunMaps()
		m.maps, m.loadError = maps, err
	}
	if len(m.maps) > 0 {
		m.loadRuns(m.maps[0])
	}
	return m
}

func (m *BoardModel) mapName(id uint32) string {
	if n, ok := m.names[id]; ok && n != "" {
		return n
	}
	return fmt.Sprintf("map %d", id)
}

// createTable creates a new table sized to the window.
func (m *BoardModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Rank", Width: 6},
		{Title: "Crystals", Width: 9},
		{Title: "Time", Width: 10},
		{Title: "Date", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 3)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// loadRuns loads the best runs of map id.
func (m *BoardModel) loadRuns(id uint32) {
	runs, err := m.store.TopRuns(id, maxRuns)
	if err != nil {
		m.runs, m.loadError = nil, err
	} else {
		m.runs = runs
	}
	m.updateTableRows()
}

// FormatFrames renders a frame count as m:ss.cc at fps.
func FormatFrames(frames uint64, fps int) string {
	if fps <= 0 {
		fps = 60
	}
	cs := frames * 100 / uint64(fps)
	return fmt.Sprintf("%d:%02d.%02d", cs/6000, cs/100%60, cs%100)
}

func (m *BoardModel) updateTableRows() {
	rows := make([]table.Row, len(m.runs))
	for i, r := range m.runs {
		rows[i] = table.Row{
			fmt.Sprintf("#%d", i+1),
			fmt.Sprintf("%d", r.Crystals),
			FormatFrames(r.Frames, 60),
			r.CreatedAt.Format("Jan 02 15:04"),
		}
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Init initializes the board.
func (m BoardModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the board.
func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.NextMap):
			if len(m.maps) > 0 {
				m.cursor = (m.cursor + 1) % len(m.maps)
				m.loadRuns(m.maps[m.cursor])
			}
			return m, nil

		case key.Matches(msg, m.keys.PrevMap):
			if len(m.maps) > 0 {
				m.cursor = (m.cursor + len(m.maps) - 1) % len(m.maps)
				m.loadRuns(m.maps[m.cursor])
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.updateTableRows()
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func centerText(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}

// View renders the board.
func (m BoardModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := "BEST RUNS"
	if len(m.maps) > 0 {
		title = fmt.Sprintf("BEST RUNS - %s", m.mapName(m.maps[m.cursor]))
	}
	b.WriteString(titleStyle.MarginBottom(1).Render(centerText(title, m.width)))
	b.WriteString("\n\n")

	sidebarStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(boardSidebarWidth).
		Padding(0, 1)

	var sidebar strings.Builder
	sidebar.WriteString("Maps\n")
	sidebar.WriteString(strings.Repeat("-", boardSidebarWidth-4))
	sidebar.WriteString("\n")
	for i, id := range m.maps {
		cursor := "  "
		style := lipgloss.NewStyle()
		if i == m.cursor {
			cursor = "> "
			style = style.Bold(true).Foreground(lipgloss.Color("229"))
		}
		name := m.mapName(id)
		if maxLen := boardSidebarWidth - 6; len(name) > maxLen {
			name = name[:maxLen-1] + "."
		}
		sidebar.WriteString(style.Render(cursor + name))
		sidebar.WriteString("\n")
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		sidebarStyle.Render(sidebar.String()), "  ", tableStyle.Render(m.renderTableContent())))

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// renderTableContent renders the table or an empty message.
func (m BoardModel) renderTableContent() string {
	if m.loadError != nil {
		return alertStyle.Render(m.loadError.Error())
	}
	if len(m.runs) == 0 {
		emptyStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true).
			Padding(2, 4)
		return emptyStyle.Render("No runs recorded yet.\nFinish a map to set a time!")
	}
	return m.table.View()
}

// RunBoard runs the runs board until the user quits.
func RunBoard(store *storage.Store, names map[uint32]string, width, height int) error {
	p := tea.NewProgram(
		NewBoardModel(store, names, width, height),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
