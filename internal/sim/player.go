package sim

import (
	"math"

	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/arena"
	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

const (
	jumpThrust = 30.0
	runForce   = 2.0
	runAccel   = runForce * 0.5

	yellowMaxHealth   = 100
	yellowSlideLen    = 15
	yellowSlideThrust = 30.0
)

// Frames of the yellow tile set.
const (
	frameYellowStand = 0
	frameYellowJump  = 1
	frameYellowFall  = 2
	frameYellowWalk1 = 3
	frameYellowWalk6 = 8
	frameYellowSlide = 9
	frameYellowHurt1 = 16
	frameYellowHurt2 = 17
)

var footTag = collision.MakeTag("foot")

// PlayerSave is what a player carries from one map to the next.
type PlayerSave struct {
	Health   int32
	Crystals int32
}

// PlayerState is the state of the player classes.
type PlayerState struct {
	MobState
	Crystals int32
	breath   int
}

func initPlayer(m *Map, a *Actor, spawn *mapasset.Spawn) {
	st := a.State.(*PlayerState)
	m.initSprite(a, spawn)
	st.LastFlags = a.Flags
	st.MaxHealth = 1
	if a.Type == core.ActorYellow {
		st.MaxHealth = yellowMaxHealth
	}
	st.Health = st.MaxHealth
}

func tickPlayer(m *Map, a *Actor) {
	if a.Type == core.ActorYellow {
		tickMobWith(m, a, tickYellow)
		return
	}
	tickMobWith(m, a, tickSprite)
}

func collidePlayerHook(m *Map, a *Actor, fixA *box2d.B2Fixture, other *Actor, fixB *box2d.B2Fixture, c Contact) {
	if c.Event == ContactPersist || fixB.IsSensor() {
		return
	}
	if collision.FixtureTag(fixA) != footTag {
		return
	}
	st := mobOf(a)
	if c.Touching {
		st.GroundCount++
	} else if st.GroundCount > 0 {
		st.GroundCount--
	}
}

// damagePlayer applies damage; negative damage heals up to the maximum.
func damagePlayer(m *Map, a *Actor, damage int32, src core.DamageSource) {
	st := a.State.(*PlayerState)
	switch {
	case damage > 0:
		st.Health -= damage
		if st.Health <= 0 {
			m.SetSpriteFrame(a, frameYellowHurt2)
			a.Flags |= core.AFNoCollide
			if m.cameraTarget == a.handle {
				m.cameraTarget = arena.Nil
			}
			if m.player == a.handle {
				m.State |= core.MSFRespawning
				m.RespawnCounter = m.cfg.Sim.RespawnFrames
			}
			m.logger.Info("player died", "type", a.Type, "id", a.ID)
			return
		}
		if src == core.DamagePhysical && a.Anim.Frame != frameYellowHurt1 && a.Anim.Frame != frameYellowHurt2 {
			m.SetSpriteFrame(a, frameYellowHurt1)
		}
		m.ActorPlayFX(a, SFXHurt, 5)
	case damage < 0:
		st.Health = min(st.Health-damage, st.MaxHealth)
	}
}

// Respawn puts a back at the spawn point with full health.
func (m *Map) Respawn(a *Actor, spawn *mapasset.Spawn) {
	st := mobOf(a)
	a.Flags &^= core.AFNoCollide
	a.Flags &^= core.AFStatic | core.AFKinematic
	m.world.UpdateActorState(a)
	m.SetSpriteFrame(a, frameYellowStand)
	m.world.SetTransform(a, float64(spawn.X), float64(spawn.Y), core.Ang16ToRadians(spawn.Rotation))
	m.world.SetVelocity(a, box2d.MakeB2Vec2(0, 0))
	if a.Body != nil {
		a.Body.SetAngularVelocity(0)
	}
	st.Health = st.MaxHealth
	st.GroundCount = 0
	if ps, ok := a.State.(*PlayerState); ok {
		ps.Crystals = 0
	}
	if m.player == a.handle {
		m.cameraTarget = a.handle
	}
	m.logger.Info("player respawned", "x", spawn.X, "y", spawn.Y)
}

// SavePlayer captures the carried state of a. Only the yellow player
// carries anything.
func SavePlayer(a *Actor) PlayerSave {
	if a == nil || a.Type != core.ActorYellow {
		return PlayerSave{}
	}
	st := a.State.(*PlayerState)
	return PlayerSave{Health: st.Health, Crystals: st.Crystals}
}

// RestorePlayer applies a save taken with SavePlayer.
func RestorePlayer(a *Actor, save PlayerSave) {
	if a == nil || a.Type != core.ActorYellow {
		return
	}
	st := a.State.(*PlayerState)
	st.Crystals = save.Crystals
	st.Health = save.Health
}

// AddCrystals credits crystals to a player actor.
func AddCrystals(a *Actor, n int32) bool {
	st, ok := a.State.(*PlayerState)
	if !ok {
		return false
	}
	st.Crystals += n
	return true
}

func (m *Map) changePlayer(next *Actor) {
	if cur := m.Player(); cur != nil {
		cur.Flags &^= core.AFCurPlayer
	}
	next.Flags |= core.AFCurPlayer
	m.player = next.handle
	m.cameraTarget = next.handle
}

func tickYellow(m *Map, a *Actor) {
	st := a.State.(*PlayerState)
	vel := m.world.Velocity(a)

	if st.Health > 0 {
		frame := a.Anim.Frame
		if frame == frameYellowSlide {
			if st.Counter > 0 {
				st.Counter--
			} else {
				frame = frameYellowStand
				if st.GroundCount > 0 {
					m.world.SetVelocity(a, box2d.MakeB2Vec2(0, 0))
				}
			}
		}
		if frame != frameYellowSlide {
			switch {
			case st.GroundCount > 0:
				if ax := math.Abs(vel.X); ax > 2 {
					if frame < frameYellowWalk1 || frame > frameYellowWalk6 {
						frame = frameYellowWalk1
					}
					a.Anim.Speed = math.Sqrt(ax * 2)
				} else {
					frame = frameYellowStand
				}
			case frame != frameYellowHurt1 && frame != frameYellowHurt2:
				if vel.Y < 0 {
					frame = frameYellowJump
				} else {
					frame = frameYellowFall
				}
			}
		}
		if frame != a.Anim.Frame {
			m.SetSpriteFrame(a, frame)
		} else {
			tickSprite(m, a)
		}
	}

	if st.Health > 0 && a.Flags.Any(core.AFUnderwater) {
		if st.breath > 0 {
			st.breath--
		}
		if st.breath == 0 {
			x, y := m.world.Center(a)
			if a.Flags.Any(core.AFFlipX) {
				x -= 4
			} else {
				x += 4
			}
			m.SpawnParticles(x, y-6, bytecode.ParticleSpawn{
				Flags:             bytecode.ParticleLayer1,
				Gfx:               GfxBubble,
				Tiles:             GfxBubble,
				Angle:             0xc000,
				AngleVariance:     0x0100,
				AnimSpeed:         0x100,
				AnimSpeedVariance: 1,
				Speed:             0x200,
				SpeedVariance:     2,
				Count:             1,
			})
		}
	}
	if st.breath == 0 {
		st.breath = int(m.RNG.Intn(20)) + 40
	}
}

// playerMovement applies one frame of input to the current player.
func (m *Map) playerMovement(a *Actor, in core.InputFrame) {
	switch a.Type {
	case core.ActorYellow, core.ActorPink, core.ActorBlue:
		m.walkerMovement(a, in)
	case core.ActorSubmarine:
		m.submarineMovement(a, in)
	}
}

func (m *Map) walkerMovement(a *Actor, in core.InputFrame) {
	st := a.State.(*PlayerState)
	if st.Health <= 0 || a.Body == nil {
		return
	}

	if in.Has(core.ActionAction) {
		if m.activateManual(a) {
			return
		}
		if a.Type == core.ActorYellow && m.boardSubmarine(a) {
			return
		}
	}

	_, y := m.world.Position(a)
	underwater := y+10 > m.WaterLine
	jumped := false
	if in.Has(core.ActionJump) && (st.GroundCount > 0 || (underwater && m.world.Velocity(a).Y > -8)) {
		scale := -jumpThrust
		if underwater {
			scale *= 0.7
			m.ActorPlayFX(a, SFXSwim, 10)
		} else {
			m.ActorPlayFX(a, SFXJump, 10)
		}
		m.world.ApplyImpulse(a, m.GravityNormX*scale, m.GravityNormY*scale)
		if m.SetSpriteFrame(a, frameYellowJump) {
			st.GroundCount = 0
		}
		jumped = true
	}

	if target := in.Axis() * runForce; target != 0 {
		vel := m.world.Velocity(a)
		if target > 0 && vel.X < target {
			vel.X = min(target, vel.X+runAccel)
			m.world.SetVelocity(a, vel)
		} else if target < 0 && vel.X > target {
			vel.X = max(target, vel.X-runAccel)
			m.world.SetVelocity(a, vel)
		}
	}

	if !jumped && in.Has(core.ActionDuck) && in.Has(core.ActionAction) && st.GroundCount > 0 && a.Anim.Frame != frameYellowSlide {
		st.Counter = yellowSlideLen
		thrust := yellowSlideThrust
		if a.Flags.Any(core.AFFlipX) {
			thrust = -thrust
		}
		m.world.ApplyImpulse(a, thrust, 0)
		if m.SetSpriteFrame(a, frameYellowSlide) {
			st.GroundCount = 0
		}
	}
}
