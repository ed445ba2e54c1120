package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tidepool/internal/assets"
	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
	"github.com/vovakirdan/tidepool/internal/session"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestMapKey(t *testing.T) {
	km := NewKeyMapper()
	tests := []struct {
		msg  tea.KeyMsg
		want core.Action
		quit bool
	}{
		{runes("a"), core.ActionLeft, false},
		{tea.KeyMsg{Type: tea.KeyRight}, core.ActionRight, false},
		{tea.KeyMsg{Type: tea.KeySpace}, core.ActionJump, false},
		{tea.KeyMsg{Type: tea.KeyEnter}, core.ActionAction, false},
		{tea.KeyMsg{Type: tea.KeyEsc}, core.ActionPause, false},
		{runes("q"), core.ActionQuit, true},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, core.ActionQuit, true},
		{runes("z"), core.ActionNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.msg.String(), func(t *testing.T) {
			got, quit := km.MapKey(tt.msg)
			if got != tt.want || quit != tt.quit {
				t.Errorf("MapKey(%q) = %v, %v", tt.msg.String(), got, quit)
			}
		})
	}
}

func TestHeldInput(t *testing.T) {
	h := NewHeldInput()
	h.Press(core.ActionLeft)
	h.Press(core.ActionJump)

	in := h.Frame()
	if !in.Has(core.ActionLeft) || !in.Has(core.ActionJump) {
		t.Fatalf("first frame = %v", in.Actions)
	}
	in = h.Frame()
	if !in.Has(core.ActionLeft) || in.Has(core.ActionJump) {
		t.Errorf("jump should last one frame: %v", in.Actions)
	}

	h.Press(core.ActionRight)
	in = h.Frame()
	if in.Has(core.ActionLeft) || !in.Has(core.ActionRight) {
		t.Errorf("opposite direction not released: %v", in.Actions)
	}
	for range holdFrames {
		h.Frame()
	}
	if in := h.Frame(); len(in.Actions) != 0 {
		t.Errorf("keys still held: %v", in.Actions)
	}
}

func TestFormatFrames(t *testing.T) {
	tests := []struct {
		frames uint64
		want   string
	}{
		{0, "0:00.00"},
		{90, "0:01.50"},
		{3600 + 30, "1:00.50"},
	}
	for _, tt := range tests {
		if got := FormatFrames(tt.frames, 60); got != tt.want {
			t.Errorf("FormatFrames(%d) = %q, expected %q", tt.frames, got, tt.want)
		}
	}
}

func testSession(t *testing.T) *session.Session {
	t.Helper()
	asset := &mapasset.Asset{
		Width:     4,
		Height:    4,
		CameraX:   512,
		CameraY:   512,
		WaterLine: 560,
		Startup:   bytecode.InvalidScript,
		Spawns: []mapasset.Spawn{
			{Type: core.ActorYellow, ID: 1, X: 512, Y: 512, Flags: core.AFCurPlayer},
			{Type: core.ActorCrate, ID: 2, X: 560, Y: 512},
		},
		SpawnInit: 2,
	}
	s, err := session.Start(asset, session.Options{Manifest: assets.NewManifest(t.TempDir()), Seed: 1})
	if err != nil {
		t.Fatalf("session.Start() failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestWorldView(t *testing.T) {
	s := testSession(t)
	screen := core.NewScreen(40, 15)
	v := NewWorldView(screen)
	v.Draw(s.Map())

	out := screen.String()
	if !strings.ContainsRune(out, '@') || !strings.ContainsRune(out, '#') {
		t.Errorf("actors missing from view:\n%s", out)
	}
	if !strings.ContainsRune(out, '~') {
		t.Errorf("water line missing from view:\n%s", out)
	}
	if c := screen.Get(20, 7); c.Rune != '@' || c.Color != core.PaletteYellow {
		t.Errorf("player cell = %q", c.Rune)
	}
}

func TestMonitorUpdate(t *testing.T) {
	s := testSession(t)
	m := NewModel(s, 60)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)
	if !m.showSidebar || m.screen.Width() != 120-2-sidebarWidth-2 {
		t.Errorf("layout after resize: sidebar %v width %d", m.showSidebar, m.screen.Width())
	}

	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	if s.Frames() != 1 {
		t.Fatalf("frames = %d after one tick", s.Frames())
	}

	next, _ = m.Update(runes("p"))
	m = next.(Model)
	next, _ = m.Update(TickMsg{})
	m = next.(Model)
	if s.Frames() != 1 {
		t.Error("paused monitor stepped the session")
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("pause not shown")
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Error("quit key returned no command")
	}
}
