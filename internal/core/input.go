package core

// Action represents a semantic game action, abstracted from physical key presses.
type Action int

const (
	ActionNone   Action = iota
	ActionLeft          // A, Left arrow - run left
	ActionRight         // D, Right arrow - run right
	ActionJump          // Space, W, Up - jump / swim up
	ActionDuck          // S, Down - duck / dive
	ActionAction        // Enter - advance dialog, interact
	ActionPause         // P, Escape - pause/unpause
	ActionQuit          // Q, Ctrl+C - exit
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionJump:
		return "Jump"
	case ActionDuck:
		return "Duck"
	case ActionAction:
		return "Action"
	case ActionPause:
		return "Pause"
	case ActionQuit:
		return "Quit"
	default:
		return "Unknown"
	}
}

// InputFrame represents the controller state during one simulation tick.
type InputFrame struct {
	// Actions maps action types to whether they were triggered this frame.
	Actions map[Action]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	if f.Actions == nil {
		return false
	}
	return f.Actions[a]
}

// Axis returns -1, 0 or 1 for the horizontal direction held this frame.
func (f InputFrame) Axis() float64 {
	var x float64
	if f.Has(ActionLeft) {
		x--
	}
	if f.Has(ActionRight) {
		x++
	}
	return x
}

// Clear resets all actions for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
}
