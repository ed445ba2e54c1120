package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/session"
	"github.com/vovakirdan/tidepool/internal/sim"
)

// Monitor layout constants
const (
	minWidthForSidebar = 100
	sidebarWidth       = 44
	maxTableRows       = 64
	chromeHeight       = 6
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	dialogStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("57")).Padding(0, 1)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	alertStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// Model is the Bubble Tea model of the monitor.
type Model struct {
	sess   *session.Session
	fps    int
	screen *core.Screen
	view   *WorldView
	keys   *KeyMapper
	input  *HeldInput

	actors  table.Model
	scripts table.Model

	width, height int
	showSidebar   bool
	paused        bool
	quitting      bool
	err           error
}

// NewModel creates a monitor stepping sess at fps.
func NewModel(sess *session.Session, fps int) Model {
	if fps <= 0 {
		fps = core.FPS
	}
	w, h := 80, 24
	// Size from the terminal until the first WindowSizeMsg arrives.
	if tw, th, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		w, h = tw, th
	}

	m := Model{
		sess:   sess,
		fps:    fps,
		screen: core.NewScreen(0, 0),
		keys:   NewKeyMapper(),
		input:  NewHeldInput(),
	}
	m.view = NewWorldView(m.screen)
	m.resize(w, h)
	m.refreshTables()
	return m
}

func newTable(columns []table.Column, height int) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)
	return t
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.showSidebar = width >= minWidthForSidebar

	sw := width - 2
	if m.showSidebar {
		sw -= sidebarWidth + 2
	}
	sh := height - chromeHeight
	m.screen.Resize(max(sw, 10), max(sh, 5))

	rows := max(sh/2-3, 3)
	m.actors = newTable([]table.Column{
		{Title: "ID", Width: 4},
		{Title: "Class", Width: 12},
		{Title: "X", Width: 7},
		{Title: "Y", Width: 7},
		{Title: "Flags", Width: 8},
	}, rows)
	m.scripts = newTable([]table.Column{
		{Title: "Script", Width: 22},
		{Title: "PC", Width: 4},
		{Title: "Depth", Width: 5},
		{Title: "Wait", Width: 5},
	}, rows)
}

// refreshTables reloads the actor and script listings.
func (m *Model) refreshTables() {
	mp := m.sess.Map()
	if mp == nil {
		return
	}
	live := mp.LiveActors()
	rows := make([]table.Row, 0, min(len(live), maxTableRows))
	for _, a := range live {
		if len(rows) == maxTableRows {
			break
		}
		x, y := mp.World().Position(a)
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", a.ID),
			a.Class.Name,
			fmt.Sprintf("%.0f", x),
			fmt.Sprintf("%.0f", y),
			fmt.Sprintf("%#x", uint32(a.Flags)),
		})
	}
	m.actors.SetRows(rows)

	scripts := mp.Scripts()
	rows = make([]table.Row, 0, min(len(scripts), maxTableRows))
	for _, s := range scripts {
		if len(rows) == maxTableRows {
			break
		}
		wait := ""
		if s.Waiting() {
			wait = "yes"
		}
		rows = append(rows, table.Row{s.String(), fmt.Sprintf("%d", s.PC()), fmt.Sprintf("%d", s.Depth()), wait})
	}
	m.scripts.SetRows(rows)
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.fps)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refreshTables()
		return m, nil

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, quit := m.keys.MapKey(msg)
	if quit {
		m.quitting = true
		return m, tea.Quit
	}
	switch action {
	case core.ActionPause:
		m.paused = !m.paused
	case core.ActionNone:
	default:
		m.input.Press(action)
	}
	return m, nil
}

// handleTick steps the session one frame.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.paused || m.sess.Ended() {
		return m, tickCmd(m.fps)
	}
	if _, err := m.sess.Step(m.input.Frame()); err != nil {
		m.err = err
		m.quitting = true
		return m, tea.Quit
	}
	m.refreshTables()
	return m, tickCmd(m.fps)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	mp := m.sess.Map()
	if mp == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("tidepool"))
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(m.statusLine(mp.Stats())))
	switch {
	case m.sess.Ended():
		b.WriteString("  " + alertStyle.Render("THE END"))
	case m.paused:
		b.WriteString("  " + alertStyle.Render("PAUSED"))
	}
	b.WriteString("\n")

	m.view.Draw(mp)
	world := frameStyle.Render(RenderScreen(m.screen))
	if m.showSidebar {
		side := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Actors"), m.actors.View(),
			titleStyle.Render("Scripts"), m.scripts.View())
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, world, " ", side))
	} else {
		b.WriteString(world)
	}
	b.WriteString("\n")

	if d, ok := mp.Dialog(); ok {
		b.WriteString(dialogStyle.Render(d.Text[:min(d.Shown, len(d.Text))]))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("arrows/wasd move  space jump  enter talk  p pause  q quit"))
	return b.String()
}

func (m Model) statusLine(st sim.Stats) string {
	return fmt.Sprintf("map %d  frame %d  actors %d  scripts %d  particles %d  props %d  state %#x  camera %.0f,%.0f",
		m.sess.MapID(), st.Frame, st.Live, st.Scripts, st.Particles, st.Props, uint32(st.State), st.CameraX, st.CameraY)
}

// Err is the error that stopped the monitor, if any.
func (m Model) Err() error {
	return m.err
}

// Run starts the monitor on sess and blocks until it quits.
func Run(sess *session.Session, fps int) error {
	p := tea.NewProgram(NewModel(sess, fps), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}
