package sim

import (
	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/arena"
	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

// DynamicTrigger is the spawn argument of triggers created by host code:
// the trigger runs a builder program instead of a baked script.
type DynamicTrigger struct {
	Program   *DynScript
	Collision *collision.Set
}

func (DynamicTrigger) ArgKind() string { return "dynamic_trigger" }

// TriggerState is the state of a trigger actor.
type TriggerState struct {
	Script  uint32
	Program *DynScript

	// touching holds the actors inside a manual trigger.
	touching []arena.Handle
}

func (*TriggerState) actorState() {}

func initTrigger(m *Map, a *Actor, spawn *mapasset.Spawn) {
	st := a.State.(*TriggerState)
	st.Script = bytecode.InvalidScript
	switch arg := spawn.Arg.(type) {
	case mapasset.TriggerArg:
		st.Script = arg.Script
		a.Collision = arg.Collision
	case DynamicTrigger:
		st.Program = arg.Program
		st.Program.Ref()
		a.Collision = arg.Collision
	default:
		core.Fatalf("trigger %d: spawn argument %T", spawn.ID, spawn.Arg)
	}
}

func cleanupTrigger(m *Map, a *Actor) {
	st := a.State.(*TriggerState)
	if st.Program != nil {
		st.Program.Unref()
		st.Program = nil
	}
}

func collideTriggerHook(m *Map, a *Actor, fixA *box2d.B2Fixture, other *Actor, fixB *box2d.B2Fixture, c Contact) {
	if other == nil {
		return
	}
	if a.Flags.Any(core.TrigManual) {
		st := a.State.(*TriggerState)
		switch {
		case c.Began():
			st.touching = removeHandle(st.touching, other.handle)
			st.touching = append(st.touching, other.handle)
		case c.Ended():
			st.touching = removeHandle(st.touching, other.handle)
		}
		return
	}
	if c.Began() {
		m.ActivateTrigger(a, other)
	}
}

// ActivateTrigger starts the trigger's script with activator as caller when
// the activator's category and player status match the trigger flags. A
// trigger that is not repeatable destroys itself once fired.
func (m *Map) ActivateTrigger(t, activator *Actor) bool {
	if t.Destroying() {
		return false
	}
	if activator.Class.Category&core.TriggerCategories(t.Flags) == 0 {
		return false
	}
	if t.Flags.Any(core.TrigCurPlayer) && m.Player() != activator {
		return false
	}

	st := t.State.(*TriggerState)
	switch {
	case st.Program != nil:
		m.StartDynamic(st.Program, activator)
	case st.Script != bytecode.InvalidScript:
		m.StartScript(st.Script, activator)
	}
	if !t.Flags.Any(core.TrigRepeatable) {
		m.Destroy(t)
	}
	return true
}

// activateManual fires every manual trigger that a is standing in.
func (m *Map) activateManual(a *Actor) bool {
	fired := false
	for _, t := range m.LiveActors() {
		if t.Type != core.ActorTrigger || !t.Flags.Any(core.TrigManual) {
			continue
		}
		for _, h := range t.State.(*TriggerState).touching {
			if h == a.handle {
				fired = m.ActivateTrigger(t, a) || fired
				break
			}
		}
	}
	return fired
}
