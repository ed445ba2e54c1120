package sim

import (
	"math"

	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

const springImpulse = 42.0

const springBounced = core.AFUser0

func springCollider(impulse float64) CollideFunc {
	return func(m *Map, a *Actor, fixA *box2d.B2Fixture, other *Actor, fixB *box2d.B2Fixture, c Contact) {
		if !c.Began() || other == nil || a.Flags.Any(springBounced) {
			return
		}
		if collision.FixtureTag(fixB) != footTag {
			return
		}
		if m.world.Velocity(other).Y > -2 {
			m.world.ApplyImpulse(other, 0, -impulse)
			a.Flags |= springBounced
			m.ActorPlayFX(a, SFXSpring, 5)
		}
	}
}

func tickSpring(m *Map, a *Actor) {
	switch {
	case a.Flags.Any(springBounced):
		m.SetSpriteFrame(a, 1)
		a.Flags &^= springBounced
	case a.Anim.Frame > 0:
		tickSprite(m, a)
	}
}

// CrystalState is the state of a bobbing crystal.
type CrystalState struct {
	Y       float64
	Speed   float64
	Counter float64
}

func (*CrystalState) actorState() {}

func initCrystal(m *Map, a *Actor, spawn *mapasset.Spawn) {
	m.initSprite(a, spawn)
	st := a.State.(*CrystalState)
	st.Y = float64(spawn.Y)
	st.Speed = (float64(m.RNG.Float32()) + 0.5) / (2 * math.Pi)
	st.Counter = float64(m.RNG.Float32()) * 2 * math.Pi
	a.Anim.Speed = float64(m.RNG.Float32()) + 0.5
}

func tickCrystal(m *Map, a *Actor) {
	st := a.State.(*CrystalState)
	st.Counter += st.Speed
	x, _ := m.world.Position(a)
	m.world.SetPosition(a, x, st.Y+math.Sin(st.Counter)*4)
	tickSprite(m, a)
}

func crystalCollider(value int32) CollideFunc {
	return func(m *Map, a *Actor, fixA *box2d.B2Fixture, other *Actor, fixB *box2d.B2Fixture, c Contact) {
		if !c.Began() || other == nil || other.Class.Category&core.CBPlayer == 0 {
			return
		}
		if a.Destroying() {
			return
		}
		AddCrystals(other, value)
		if m.HUDPlayer() == other {
			m.HUDCounter = m.cfg.Sim.HUDCounterFrames
		}
		m.ActorPlayFX(other, SFXCrystal, 3)
		m.Destroy(a)
	}
}

func collidePowerupHook(m *Map, a *Actor, fixA *box2d.B2Fixture, other *Actor, fixB *box2d.B2Fixture, c Contact) {
	if !c.Began() || other == nil || other.Class.Category&core.CBPlayer == 0 || a.Destroying() {
		return
	}
	if other.Class.Damage != nil {
		other.Class.Damage(m, other, -10, core.DamagePhysical)
	}
	m.Destroy(a)
}

// tickCrate floats crates: the force grows with the depth of the lower
// quarter of the sprite below the water line.
func tickCrate(m *Map, a *Actor) {
	_, y := m.world.Position(a)
	h := 0
	if img := a.Anim.Image; img != nil {
		h = img.Value().H
	}
	if h == 0 {
		if f := a.Anim.Current(); f != nil {
			h = f.H
		}
	}
	y += float64(h >> 2)
	if y > m.WaterLine {
		m.world.ApplyForce(a, 0, (m.WaterLine-y)*256)
	}
}

// PlatformMotion is the path type of a moving platform, stored in the user
// bits of its flags.
type PlatformMotion uint32

const (
	PlatformLinear PlatformMotion = iota
	PlatformHSine
	PlatformVSine
	PlatformCircleCW
	PlatformCircleCCW
	PlatformSwing90
	PlatformSwing45
	PlatformSwing22
)

func (p PlatformMotion) swingScale() float64 {
	switch p {
	case PlatformSwing90:
		return 0.5
	case PlatformSwing45:
		return 0.25
	default:
		return 0.125
	}
}

// PlatformState is the state of a moving platform.
type PlatformState struct {
	Waypoint int
	InitX    float64
	InitY    float64
	Speed    float64
	Counter  float64
	step     float64
	dist     float64
}

func (*PlatformState) actorState() {}

func initPlatform(m *Map, a *Actor, spawn *mapasset.Spawn) {
	m.initSprite(a, spawn)
	st := a.State.(*PlatformState)
	st.InitX = float64(spawn.X)
	st.InitY = float64(spawn.Y)
	st.Waypoint = mapasset.NoWaypoint
	st.step = -1

	arg, ok := spawn.Arg.(mapasset.PlatformArg)
	if !ok {
		arg = mapasset.PlatformArg{Waypoint: mapasset.NoWaypoint}
	}
	speed := arg.Speed
	if arg.Waypoint >= 0 && arg.Waypoint < len(m.asset.Waypoints) {
		setPlatformTarget(m, a, Target{Waypoint: arg.Waypoint})
	} else if arg.Waypoint != mapasset.NoWaypoint {
		m.logger.Warn("platform spawned with invalid waypoint", "id", spawn.ID, "waypoint", arg.Waypoint)
	}
	if speed == 0 {
		speed = mapasset.DefaultPlatformSpeed
	}
	st.Speed = float64(speed) / 16
}

func setPlatformTarget(m *Map, a *Actor, t Target) {
	st := a.State.(*PlatformState)
	if t.IsWaypoint() && st.Waypoint != t.Waypoint {
		st.Waypoint = t.Waypoint
		st.Counter = 0
		st.step = -1
	}
}

func tickPlatform(m *Map, a *Actor) {
	st := a.State.(*PlatformState)
	if st.Waypoint == mapasset.NoWaypoint {
		return
	}
	wp := m.asset.Waypoints[st.Waypoint]
	x, y := float64(wp.X), float64(wp.Y)
	counter := st.Counter

	if st.step < 0 {
		px, py := m.world.Position(a)
		st.dist = math.Hypot(x-px, y-py)
		st.step = 0
		if st.dist != 0 {
			st.step = (1 / st.dist) * st.Speed * 0.5
		}
	}

	motion := PlatformMotion(a.Flags & core.AFUserMask)
	turn := counter * math.Pi * 2
	switch motion {
	case PlatformLinear:
		x = (x-st.InitX)*counter + st.InitX
		y = (y-st.InitY)*counter + st.InitY
	case PlatformHSine:
		x += st.dist * math.Sin(turn)
	case PlatformVSine:
		y += st.dist * math.Sin(turn)
	case PlatformCircleCW:
		x += st.dist * math.Cos(turn)
		y += st.dist * math.Sin(turn)
	case PlatformCircleCCW:
		x += st.dist * -math.Cos(turn)
		y += st.dist * math.Sin(turn)
	case PlatformSwing90, PlatformSwing45, PlatformSwing22:
		swing := math.Sin(turn) * math.Pi * motion.swingScale()
		x += st.dist * math.Sin(swing)
		y += st.dist * math.Cos(swing)
		m.world.SetAngle(a, -swing)
	default:
		return
	}

	st.Counter += st.step
	if st.Counter >= 1 {
		st.Counter = 0
		if motion == PlatformLinear {
			x, y = float64(wp.X), float64(wp.Y)
			st.InitX, st.InitY = x, y
			st.Waypoint = wp.Next
		}
	}
	m.world.SetPosition(a, x, y)
}
