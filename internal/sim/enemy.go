package sim

import (
	"math"

	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/arena"
	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

// patrolTurnFrames is how long a mob keeps its direction after turning.
const patrolTurnFrames = 30

// MobState is the state shared by players and enemies.
type MobState struct {
	Health      int32
	MaxHealth   int32
	GroundCount int
	Counter     int
	LastFlags   core.ActorFlags
	Target      arena.Handle

	speed float64
	dir   float64
}

func (*MobState) actorState() {}

func mobOf(a *Actor) *MobState {
	switch st := a.State.(type) {
	case *MobState:
		return st
	case *PlayerState:
		return &st.MobState
	}
	core.Fatalf("actor %s is not a mob", a.Class.Name)
	return nil
}

func mobInit(speed float64, health int32) func(m *Map, a *Actor, spawn *mapasset.Spawn) {
	return func(m *Map, a *Actor, spawn *mapasset.Spawn) {
		m.initSprite(a, spawn)
		st := a.State.(*MobState)
		st.LastFlags = a.Flags
		st.MaxHealth = health
		st.Health = health
		st.speed = speed
		st.dir = 1
		if a.Flags.Any(core.AFFlipX) {
			st.dir = -1
		}
		st.Counter = patrolTurnFrames
	}
}

func tickMob(m *Map, a *Actor) {
	tickMobWith(m, a, patrol)
}

// tickMobWith faces the mob along its velocity, runs sub and pushes flag
// changes to the body.
func tickMobWith(m *Map, a *Actor, sub TickFunc) {
	st := mobOf(a)
	vel := m.world.Velocity(a)
	if vel.X > core.PointScale {
		a.Flags &^= core.AFFlipX
	} else if vel.X < -core.PointScale {
		a.Flags |= core.AFFlipX
	}

	if sub != nil {
		sub(m, a)
	}

	if t := m.actors.Get(st.Target); t == nil || t.Destroying() {
		st.Target = arena.Nil
	}
	if a.Flags != st.LastFlags {
		m.world.UpdateActorState(a)
		st.LastFlags = a.Flags
	}
}

func setMobTarget(m *Map, a *Actor, t Target) {
	mobOf(a).Target = handleOf(t.Actor)
}

// patrol walks (or swims) at a constant speed and turns around when
// blocked. A mob with a target heads towards it instead.
func patrol(m *Map, a *Actor) {
	st := mobOf(a)
	if st.speed != 0 && st.Health > 0 && a.Body != nil {
		vel := m.world.Velocity(a)
		if t := m.actors.Get(st.Target); t != nil && !t.Destroying() {
			tx, _ := m.world.Position(t)
			x, _ := m.world.Position(a)
			switch {
			case tx < x-8:
				st.dir = -1
			case tx > x+8:
				st.dir = 1
			}
			st.Counter = patrolTurnFrames
		} else if st.Counter > 0 {
			st.Counter--
		} else if math.Abs(vel.X) < core.PointScale {
			st.dir = -st.dir
			st.Counter = patrolTurnFrames
		}
		vel.X = st.dir * st.speed
		m.world.SetVelocity(a, vel)
	}
	tickSprite(m, a)
}

func damageMob(m *Map, a *Actor, damage int32, src core.DamageSource) {
	st := mobOf(a)
	if damage < 0 {
		st.Health = min(st.Health-damage, st.MaxHealth)
		return
	}
	st.Health -= damage
	if st.Health > 0 || a.Destroying() {
		return
	}
	x, y := m.world.Center(a)
	m.SpawnParticles(x, y, bytecode.ParticleSpawn{
		Flags:     bytecode.ParticleLayer1,
		Gfx:       GfxExplosion,
		Tiles:     GfxExplosion,
		AnimSpeed: 0x200,
	})
	m.ActorPlayFX(a, SFXExplode, 20)
	m.Destroy(a)
}

// MineState is the state of a floating mine.
type MineState struct {
	phase float64
}

func (*MineState) actorState() {}

func initMine(m *Map, a *Actor, spawn *mapasset.Spawn) {
	m.initSprite(a, spawn)
	a.Anim.Speed = float64(m.RNG.Float32())*0.25 + 0.5
	a.State.(*MineState).phase = 2 * math.Pi * float64(m.RNG.Float32())
}

func tickMine(m *Map, a *Actor) {
	st := a.State.(*MineState)
	st.phase += 2 * math.Pi / 150
	if st.phase >= 2*math.Pi {
		st.phase -= 2 * math.Pi
	}
	m.world.SetAngle(a, math.Sin(st.phase)*0.2)
	tickSprite(m, a)
}

func mineCollider(damage int32) CollideFunc {
	return func(m *Map, a *Actor, fixA *box2d.B2Fixture, other *Actor, fixB *box2d.B2Fixture, c Contact) {
		if !c.Began() || other == nil || a.Destroying() {
			return
		}
		spawn := bytecode.ParticleSpawn{Flags: bytecode.ParticleLayer1, AnimSpeed: 0x400}
		switch {
		case damage >= 100:
			spawn.Gfx = GfxWaterExplBig
		case damage >= 50:
			spawn.Gfx = GfxWaterExplMid
		default:
			spawn.Gfx = GfxWaterExplSmall
		}
		spawn.Tiles = spawn.Gfx
		if other.Class.Damage != nil {
			other.Class.Damage(m, other, damage, core.DamagePhysical)
		}

		x, y := m.world.Center(a)
		m.SpawnParticles(x, y, spawn)

		d := uint16(damage)
		spawn.Gfx = GfxBubbles
		spawn.Tiles = GfxBubbles
		spawn.WidthVariance = d >> 1
		spawn.HeightVariance = d >> 1
		spawn.Angle = 0xc000
		spawn.AnimSpeed = 0xd0
		spawn.AnimSpeedVariance = 1
		spawn.SpeedVariance = 2
		spawn.Speed = 0x180
		spawn.Count = d >> 4
		spawn.CountVariance = d >> 5
		m.SpawnParticles(x, y, spawn)

		ox, oy := m.world.Center(other)
		dx, dy := normalize(ox-x, oy-y)
		k := math.Sqrt(float64(damage)) * 8
		m.world.ApplyImpulse(other, dx*k, dy*k)
		m.ActorPlayFX(a, SFXExplode, 20)
		m.Destroy(a)
	}
}
