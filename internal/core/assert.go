package core

import "fmt"

// InvariantError is raised (as a panic value) when map data or engine state
// breaks a rule the simulation cannot continue past.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "invariant violated: " + e.Msg
}

// Assertf panics with an *InvariantError when cond is false.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
	}
}

// Fatalf panics unconditionally with an *InvariantError.
func Fatalf(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}
