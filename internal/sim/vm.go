package sim

import (
	"math"

	"github.com/vovakirdan/tidepool/internal/arena"
	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

// step executes the instruction at s.pc.
func (m *Map) step(s *Script) Result {
	core.Assertf(s.pc < len(s.prog), "%s: ran past the end of the program", s)
	in := s.prog[s.pc]

	switch i := in.(type) {
	case bytecode.Simple:
		return m.stepSimple(s, i.Op)

	case bytecode.Jump:
		m.jump(s, m.scriptProgram(i.Script))
		return Continue
	case dynJump:
		m.jump(s, i.prog.prog)
		return Continue

	case bytecode.Call:
		m.call(s, m.scriptProgram(i.Script))
		return Continue
	case dynCall:
		m.call(s, i.prog.prog)
		return Continue

	case bytecode.Exec:
		fn, ok := natives.Lookup(i.Native)
		core.Assertf(ok, "%s: unknown native %d", s, i.Native)
		return m.exec(s, fn)
	case execFunc:
		return m.exec(s, i.fn)

	case bytecode.StartScript:
		s.pc++
		m.startChild(s, func() *Script { return m.StartScript(i.Script, m.actors.Get(s.caller)) })
		return Continue
	case dynStart:
		s.pc++
		m.startChild(s, func() *Script { return m.StartDynamic(i.prog, m.actors.Get(s.caller)) })
		return Continue

	case bytecode.ScriptRef:
		return m.scriptRef(s, i)

	case bytecode.Delay:
		return m.delay(s, i.Frames)

	case bytecode.State:
		return m.stateOp(s, i)

	case bytecode.ShowDialog:
		if m.dialog.active {
			return Wait
		}
		core.Assertf(int(i.Text) < len(m.asset.Texts), "%s: invalid text id %d", s, i.Text)
		m.showDialog(s, m.asset.Texts[i.Text], i.Target)
	case dynDialog:
		if m.dialog.active {
			return Wait
		}
		m.showDialog(s, *i.text, i.target)

	case bytecode.MoveCamera:
		if m.State&core.MSFCameraMoving != 0 {
			return Wait
		}
		m.moveCamera(s, i.Target, math.Abs(float64(i.Speed)))

	case bytecode.MoveWater:
		if m.State&core.MSFWaterMoving != 0 {
			return Wait
		}
		m.State |= core.MSFWaterMoving
		if i.Y != bytecode.NoWaterY {
			m.water.target = float64(i.Y)
			m.water.step = math.Abs(float64(i.Step))
			if math.IsInf(m.WaterLine, 1) {
				m.WaterLine = m.water.target
			}
		}
		if i.Color.A != 0 {
			m.water.targetColor = i.Color
		}

	case bytecode.SetGravity:
		m.world.SetGravity(float64(i.X), float64(i.Y))

	case bytecode.LoadMap:
		m.armTransition(i.Map, i.Fade, i.Color)

	case bytecode.ChangeMusic:
		m.audio.PlayMusic(i.Music, float64(i.Fade), i.Flags)

	case bytecode.PlaySound:
		m.forActors(s, i.Actor, func(a *Actor) {
			m.ActorPlayFX(a, i.Sound, i.Priority)
		})

	case bytecode.SpawnActor:
		core.Assertf(int(i.Spawn) < len(m.asset.Spawns), "%s: invalid spawn %d", s, i.Spawn)
		m.Spawn(&m.asset.Spawns[i.Spawn])
	case dynSpawn:
		m.Spawn(i.spawn)

	case bytecode.SpawnParticles:
		if x, y, ok := m.resolvePosition(s, i.Target); ok {
			m.SpawnParticles(x, y, i.Spawn)
		}

	case bytecode.SetActorState:
		m.forActors(s, i.Actor, func(a *Actor) {
			a.Flags = (a.Flags & i.Mask) | i.Bits
			m.world.UpdateActorState(a)
		})

	case bytecode.SetActorTarget:
		core.Assertf(i.Actor != i.Target, "%s: actor %s cannot target itself", s, i.Actor)
		t, ok := m.resolveTarget(s, i.Target)
		if ok {
			m.forActors(s, i.Actor, func(a *Actor) {
				core.Assertf(t.Actor != a, "%s: actor %d cannot target itself", s, a.ID)
				if a.Class.SetTarget != nil {
					a.Class.SetTarget(m, a, t)
				}
			})
		}

	case bytecode.DamageActor:
		m.forActors(s, i.Actor, func(a *Actor) {
			if a.Class.Damage != nil {
				a.Class.Damage(m, a, i.Damage, i.Source)
			}
		})

	case bytecode.DestroyActor:
		m.forActors(s, i.Actor, m.Destroy)

	case bytecode.Earthquake:
		m.Quake.Counter = max(m.Quake.Counter, i.Frames)
		m.Quake.Strength = max(m.Quake.Strength, i.Strength)

	default:
		core.Fatalf("%s: unknown instruction %T (%s)", s, in, in.Opcode())
	}
	s.pc++
	return Continue
}

func (m *Map) stepSimple(s *Script, op bytecode.Opcode) Result {
	switch op {
	case bytecode.OpNoop:
	case bytecode.OpExit:
		return Exit
	case bytecode.OpRet:
		if s.sp == 0 {
			return Exit
		}
		s.sp--
		f := s.stack[s.sp]
		s.stack[s.sp] = returnFrame{}
		s.prog, s.pc = f.prog, f.pc
		return Continue
	case bytecode.OpSingleton:
		for _, o := range m.scripts {
			if o != s && o.active && o.sameProgram(s) {
				return Exit
			}
		}
	case bytecode.OpStopAllScripts:
		for _, o := range m.Scripts() {
			if o != s {
				m.DestroyScript(o)
			}
		}
	case bytecode.OpWaitDialog:
		if m.dialog.active {
			return Wait
		}
	case bytecode.OpWaitEarthquake:
		if m.Quake.Counter > 0 {
			return Wait
		}
	default:
		core.Fatalf("%s: unknown opcode %s", s, op)
	}
	s.pc++
	return Continue
}

func (m *Map) scriptProgram(id uint32) []bytecode.Instr {
	core.Assertf(int(id) < len(m.asset.Scripts), "invalid script id %d", id)
	return m.asset.Scripts[id]
}

func (m *Map) jump(s *Script, prog []bytecode.Instr) {
	s.prog = prog
	s.pc = 0
}

func (m *Map) call(s *Script, prog []bytecode.Instr) {
	core.Assertf(s.sp < returnStackDepth, "%s: return stack overflow", s)
	s.stack[s.sp] = returnFrame{prog: s.prog, pc: s.pc + 1}
	s.sp++
	m.jump(s, prog)
}

// exec runs fn. Wait and Exit are returned before the instruction
// completes, so a waiting callback runs again on the next pass.
func (m *Map) exec(s *Script, fn ExecFunc) Result {
	if r := fn(m, s); r != Continue {
		return r
	}
	if s.active {
		s.pc++
	}
	return Continue
}

func (m *Map) startChild(s *Script, start func() *Script) {
	child := start()
	s.child = child
	if child != nil {
		child.parent = s
	}
}

func (m *Map) scriptRef(s *Script, i bytecode.ScriptRef) Result {
	switch i.Op {
	case bytecode.OpWaitScript:
		if i.ID == bytecode.ScriptChild {
			if s.child != nil && s.child.active {
				return Wait
			}
		} else if m.findScript(i.ID) != nil {
			return Wait
		}
	case bytecode.OpStopOneScript:
		if i.ID == bytecode.ScriptChild {
			if s.child != nil {
				m.DestroyScript(s.child)
			}
		} else if o := m.findScript(i.ID); o != nil {
			m.DestroyScript(o)
		}
	case bytecode.OpStopScripts:
		if i.ID == bytecode.ScriptChild {
			if s.child != nil {
				m.DestroyScript(s.child)
			}
			break
		}
		for _, o := range m.Scripts() {
			if o.dyn == nil && o.id == i.ID {
				m.DestroyScript(o)
			}
		}
	}
	if !s.active {
		return Exit
	}
	s.pc++
	return Continue
}

// delay arms the counter on the first visit and yields; later visits yield
// while counting down and complete once it reaches zero.
func (m *Map) delay(s *Script, frames uint32) Result {
	if !s.waiting {
		s.waiting = true
		s.counter = frames
		return Wait
	}
	if s.counter > 0 {
		s.counter--
		return Wait
	}
	s.waiting = false
	s.pc++
	return Continue
}

func (m *Map) stateOp(s *Script, i bytecode.State) Result {
	switch i.Op {
	case bytecode.OpWaitState:
		if m.State&i.Flags != 0 {
			return Wait
		}
	case bytecode.OpAcquireState:
		if m.State&i.Flags != 0 {
			return Wait
		}
		m.State |= i.Flags
	case bytecode.OpReleaseState:
		core.Assertf(m.State&i.Flags == i.Flags, "%s: releasing unheld state %#x (held %#x)",
			s, uint32(i.Flags), uint32(m.State))
		m.State &^= i.Flags
	case bytecode.OpForceState:
		m.State |= i.Flags
	}
	s.pc++
	return Continue
}

func (m *Map) showDialog(s *Script, text string, target bytecode.Target) {
	var anchor *Actor
	switch {
	case target == bytecode.TargetCaller:
		anchor = m.actors.Get(s.caller)
	case target.IsActor():
		anchor = m.ActorByID(uint16(target))
	}
	m.SetDialog(text, anchor)
}

func (m *Map) moveCamera(s *Script, target bytecode.Target, speed float64) {
	switch {
	case target.IsWaypoint():
		wp := target.Waypoint()
		core.Assertf(wp < len(m.asset.Waypoints), "%s: invalid waypoint %d", s, wp)
		m.camera.waypoint = wp
		m.cameraTarget = arena.Nil
	case target == bytecode.TargetCaller || target.IsActor():
		a := m.targetActor(s, target)
		if a == nil {
			return
		}
		m.camera.waypoint = mapasset.NoWaypoint
		m.cameraTarget = a.handle
	default:
		core.Fatalf("%s: camera cannot move to %s", s, target)
	}
	m.camera.targetVel = speed
	m.State |= core.MSFCameraMoving
}

// targetActor resolves the caller or an actor id to a single actor.
func (m *Map) targetActor(s *Script, t bytecode.Target) *Actor {
	if t == bytecode.TargetCaller {
		return m.actors.Get(s.caller)
	}
	core.Assertf(t.IsActor(), "%s: %s is not an actor", s, t)
	return m.ActorByID(uint16(t))
}

// forActors calls fn for the caller or for every live actor with the id.
func (m *Map) forActors(s *Script, t bytecode.Target, fn func(a *Actor)) {
	if t == bytecode.TargetCaller {
		if a := m.actors.Get(s.caller); a != nil && !a.Destroying() {
			fn(a)
		}
		return
	}
	core.Assertf(t.IsActor(), "%s: %s is not an actor", s, t)
	m.actorsWithID(uint16(t), fn)
}

// resolveTarget turns an operand into the target handed to SetTarget.
func (m *Map) resolveTarget(s *Script, t bytecode.Target) (Target, bool) {
	if t.IsWaypoint() {
		wp := t.Waypoint()
		core.Assertf(wp < len(m.asset.Waypoints), "%s: invalid waypoint %d", s, wp)
		return Target{Waypoint: wp}, true
	}
	a := m.targetActor(s, t)
	if a == nil {
		return Target{}, false
	}
	return Target{Actor: a, Waypoint: mapasset.NoWaypoint}, true
}

// resolvePosition returns the point an operand names.
func (m *Map) resolvePosition(s *Script, t bytecode.Target) (float64, float64, bool) {
	switch {
	case t == bytecode.TargetOrigin:
		return 0, 0, true
	case t == bytecode.TargetCamera:
		return m.camera.X, m.camera.Y, true
	case t.IsWaypoint():
		wp := t.Waypoint()
		core.Assertf(wp < len(m.asset.Waypoints), "%s: invalid waypoint %d", s, wp)
		return float64(m.asset.Waypoints[wp].X), float64(m.asset.Waypoints[wp].Y), true
	}
	a := m.targetActor(s, t)
	if a == nil {
		return 0, 0, false
	}
	x, y := m.world.Position(a)
	return x, y, true
}
