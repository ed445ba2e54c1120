package sim

import (
	"fmt"

	"github.com/vovakirdan/tidepool/internal/arena"
	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
)

// Result is what one instruction tells the interpreter to do next.
type Result uint8

const (
	// Continue runs the next instruction in the same frame.
	Continue Result = iota
	// Wait yields until the next scheduler pass.
	Wait
	// Exit ends the instance.
	Exit
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Wait:
		return "wait"
	case Exit:
		return "exit"
	}
	return "unknown"
}

// ExecFunc is a host callback run by EXEC instructions.
type ExecFunc func(m *Map, s *Script) Result

// returnStackDepth is the number of nested CALLs an instance may make.
const returnStackDepth = 4

type returnFrame struct {
	prog []bytecode.Instr
	pc   int
}

// Script is a running instance of a baked script or a builder program.
type Script struct {
	id   uint32
	dyn  *DynScript
	prog []bytecode.Instr
	pc   int

	stack [returnStackDepth]returnFrame
	sp    int

	waiting bool
	counter uint32

	parent *Script
	child  *Script
	caller arena.Handle
	active bool
}

// ID returns the baked script id the instance was started from, or
// bytecode.InvalidScript for builder programs.
func (s *Script) ID() uint32 { return s.id }

// Program returns the builder program the instance was started from.
func (s *Script) Program() *DynScript { return s.dyn }

// Active reports whether the instance is still scheduled.
func (s *Script) Active() bool { return s.active }

// Waiting reports whether the instance is inside a DELAY.
func (s *Script) Waiting() bool { return s.waiting }

// PC returns the index of the next instruction.
func (s *Script) PC() int { return s.pc }

// Depth returns the number of pending returns.
func (s *Script) Depth() int { return s.sp }

// Caller returns the handle of the actor that started the instance.
func (s *Script) Caller() arena.Handle { return s.caller }

// Parent returns the instance that started this one with START_SCRIPT.
func (s *Script) Parent() *Script { return s.parent }

// Child returns the last instance started by this one.
func (s *Script) Child() *Script { return s.child }

func (s *Script) String() string {
	if s.dyn != nil {
		return fmt.Sprintf("dynamic@%p", s.dyn)
	}
	return fmt.Sprintf("script#%d", s.id)
}

func (s *Script) sameProgram(o *Script) bool {
	if s.dyn != nil || o.dyn != nil {
		return s.dyn == o.dyn
	}
	return s.id == o.id
}

func handleOf(a *Actor) arena.Handle {
	if a == nil {
		return arena.Nil
	}
	return a.handle
}

// StartScript starts baked script id with caller (may be nil) and runs it
// until it waits or exits. It returns nil if the instance already exited.
func (m *Map) StartScript(id uint32, caller *Actor) *Script {
	core.Assertf(int(id) < len(m.asset.Scripts), "invalid script id %d", id)
	s := &Script{
		id:     id,
		prog:   m.asset.Scripts[id],
		caller: handleOf(caller),
	}
	return m.launch(s)
}

// StartDynamic starts a builder program. The instance holds a reference
// to prog until it ends.
func (m *Map) StartDynamic(prog *DynScript, caller *Actor) *Script {
	core.Assertf(prog != nil && !prog.Released(), "starting a released program")
	prog.Ref()
	s := &Script{
		id:     bytecode.InvalidScript,
		dyn:    prog,
		prog:   prog.prog,
		caller: handleOf(caller),
	}
	return m.launch(s)
}

func (m *Map) launch(s *Script) *Script {
	s.active = true
	m.scripts = append(m.scripts, s)
	m.logger.Debug("script started", "script", s)
	if !m.tickScript(s) {
		return nil
	}
	return s
}

// tickScript runs s until it waits (true) or exits (false).
func (m *Map) tickScript(s *Script) bool {
	for s.active {
		switch m.step(s) {
		case Wait:
			return s.active
		case Exit:
			m.DestroyScript(s)
			return false
		}
	}
	return false
}

// DestroyScript stops s. Calling it on an inactive instance is a no-op.
func (m *Map) DestroyScript(s *Script) {
	if !s.active {
		return
	}
	s.active = false
	if s.parent != nil && s.parent.child == s {
		s.parent.child = nil
	}
	if s.child != nil && s.child.parent == s {
		s.child.parent = nil
	}
	s.parent = nil
	s.child = nil
	s.caller = arena.Nil

	for i, cur := range m.scripts {
		if cur == s {
			m.scripts = append(m.scripts[:i], m.scripts[i+1:]...)
			break
		}
	}
	if s.dyn != nil {
		s.dyn.Unref()
	}
	m.logger.Debug("script ended", "script", s)
}

// tickScripts gives every instance active at the start of the pass one
// run.
func (m *Map) tickScripts() {
	pass := append([]*Script(nil), m.scripts...)
	for _, s := range pass {
		if s.active {
			m.tickScript(s)
		}
	}
}

// Scripts returns the active instances in start order.
func (m *Map) Scripts() []*Script {
	return append([]*Script(nil), m.scripts...)
}

// findScript returns the first active instance of baked script id.
func (m *Map) findScript(id uint32) *Script {
	for _, s := range m.scripts {
		if s.active && s.dyn == nil && s.id == id {
			return s
		}
	}
	return nil
}

// CallDelay runs fn once after frames frames.
func (m *Map) CallDelay(fn ExecFunc, frames uint32) {
	b := NewBuilder()
	if frames > 0 {
		b.PushDelay(frames)
	}
	b.PushExec(fn)
	prog := b.FinishExit()
	m.StartDynamic(prog, nil)
	prog.Unref()
}

// CallInterval runs fn every frames+1 frames until the instance is stopped.
func (m *Map) CallInterval(fn ExecFunc, frames uint32) *Script {
	b := NewBuilder()
	b.PushDelay(frames)
	b.PushExec(fn)
	prog := b.FinishJumpDynamic(nil)
	s := m.StartDynamic(prog, nil)
	prog.Unref()
	return s
}
