package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tidepool/internal/core"
)

// holdFrames is how long a key press keeps its action held. Terminals
// report presses and auto-repeat, never releases.
const holdFrames = 8

// KeyMapper translates Bubble Tea key messages to player actions.
type KeyMapper struct{}

// NewKeyMapper creates a new key mapper with default bindings.
func NewKeyMapper() *KeyMapper {
	return &KeyMapper{}
}

// MapKey translates a key message to an action.
// Returns the action (may be ActionNone) and whether it's a quit request.
func (km *KeyMapper) MapKey(msg tea.KeyMsg) (action core.Action, isQuit bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return core.ActionQuit, true
	case "a", "left", "h":
		return core.ActionLeft, false
	case "d", "right", "l":
		return core.ActionRight, false
	case " ", "w", "up", "k":
		return core.ActionJump, false
	case "s", "down", "j":
		return core.ActionDuck, false
	case "enter", "e":
		return core.ActionAction, false
	case "p", "esc":
		return core.ActionPause, false
	}
	return core.ActionNone, false
}

// HeldInput turns key presses into an input frame per tick. Movement keys
// stay held for a few frames; everything else lasts one frame.
type HeldInput struct {
	held map[core.Action]int
}

// NewHeldInput returns an empty input state.
func NewHeldInput() *HeldInput {
	return &HeldInput{held: make(map[core.Action]int)}
}

// Press records a key press.
func (h *HeldInput) Press(a core.Action) {
	switch a {
	case core.ActionNone:
		return
	case core.ActionLeft:
		delete(h.held, core.ActionRight)
	case core.ActionRight:
		delete(h.held, core.ActionLeft)
	}
	n := 1
	if a == core.ActionLeft || a == core.ActionRight || a == core.ActionDuck {
		n = holdFrames
	}
	h.held[a] = max(h.held[a], n)
}

// Frame returns the actions held this frame and counts them down.
func (h *HeldInput) Frame() core.InputFrame {
	in := core.NewInputFrame()
	for a, n := range h.held {
		in.Set(a)
		if n <= 1 {
			delete(h.held, a)
		} else {
			h.held[a] = n - 1
		}
	}
	return in
}
