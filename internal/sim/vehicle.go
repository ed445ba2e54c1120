package sim

import (
	"math"

	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/arena"
	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

var entranceTag = collision.MakeTag("entr")

const subThrust = 4.0

// VehicleState is the state of the model-drawn vehicles.
type VehicleState struct {
	Yaw    float64
	Roll   float64
	Thrust float64

	inside  arena.Handle
	nearby  arena.Handle
	counter int
}

func (*VehicleState) actorState() {}

func initVehicle(m *Map, a *Actor) {
	a.Model = m.assets.Models.Load(a.Class.Gfx)
	a.Anim.Tiles = m.assets.Tilesets.Load(a.Class.Tiles)
	a.Collision = a.Anim.Collision()
}

func initSpaceship(m *Map, a *Actor, spawn *mapasset.Spawn) {
	initVehicle(m, a)
}

func initSubmarine(m *Map, a *Actor, spawn *mapasset.Spawn) {
	initVehicle(m, a)
	st := a.State.(*VehicleState)
	st.Yaw = 90
	if spawn.Flags.Any(core.AFFlipX) {
		st.Yaw = -90
	}
}

func cleanupVehicle(m *Map, a *Actor) {
	st := a.State.(*VehicleState)
	st.inside = arena.Nil
	st.nearby = arena.Nil
}

// Passenger returns the player riding inside a submarine.
func (m *Map) Passenger(a *Actor) *Actor {
	st, ok := a.State.(*VehicleState)
	if !ok {
		return nil
	}
	return m.actors.Get(st.inside)
}

func tickSubmarine(m *Map, a *Actor) {
	st := a.State.(*VehicleState)
	_, y := m.world.Position(a)
	if y-40 > m.WaterLine && a.Body != nil {
		pitch := math.Sin(float64(st.counter%150)*(2*math.Pi/150)) * 3
		a.Body.ApplyAngularImpulse(pitch, true)
		st.Roll = math.Sin(float64(st.counter%233)*(2*math.Pi/233)) * 2
		st.counter++
		if st.counter >= 233*150*407 {
			st.counter = 0
		}
		if m.world.Velocity(a).Y > -core.PointScale {
			m.world.ApplyImpulse(a, 0, -280)
		}
	}

	if p := m.actors.Get(st.inside); p != nil {
		if p.Destroying() {
			st.inside = arena.Nil
		} else {
			x, y := m.world.Position(a)
			m.world.SetTransform(p, x, y, m.world.Angle(a))
		}
	}
}

func collideSubmarine(m *Map, a *Actor, fixA *box2d.B2Fixture, other *Actor, fixB *box2d.B2Fixture, c Contact) {
	if other == nil || other.Type != core.ActorYellow || collision.FixtureTag(fixA) != entranceTag {
		return
	}
	st := a.State.(*VehicleState)
	switch {
	case c.Began():
		st.nearby = other.handle
	case c.Ended() && st.nearby == other.handle:
		st.nearby = arena.Nil
	}
}

// boardSubmarine moves p into a submarine whose entrance it touches.
func (m *Map) boardSubmarine(p *Actor) bool {
	for _, sub := range m.LiveActors() {
		if sub.Type != core.ActorSubmarine {
			continue
		}
		st := sub.State.(*VehicleState)
		if st.nearby != p.handle || !st.inside.IsNil() {
			continue
		}
		st.inside = p.handle
		m.world.SetActive(p, false)
		mobOf(p).GroundCount = 0
		m.changePlayer(sub)
		m.logger.Debug("player boarded submarine", "id", sub.ID)
		return true
	}
	return false
}

func (m *Map) submarineMovement(a *Actor, in core.InputFrame) {
	st := a.State.(*VehicleState)
	if a.Body == nil {
		return
	}
	x, y := m.world.Position(a)
	if in.Has(core.ActionJump) {
		if p := m.actors.Get(st.inside); p != nil {
			st.inside = arena.Nil
			m.world.SetActive(p, true)
			m.world.SetTransform(p, x-10, y-70, 0)
			m.changePlayer(p)
			return
		}
	}
	if y-40 > m.WaterLine && in.Has(core.ActionDuck) {
		if a.Body.GetAngle() < math.Pi*0.25 {
			a.Body.ApplyAngularImpulse(10, true)
		}
	}

	st.Thrust = in.Axis() * subThrust
	if st.Thrust != 0 {
		angle := a.Body.GetAngle()
		nx, ny := math.Cos(angle), math.Sin(angle)
		c := a.Body.GetWorldCenter()
		prop := box2d.MakeB2Vec2(c.X-40*nx, c.Y-40*ny)
		a.Body.ApplyLinearImpulse(box2d.MakeB2Vec2(st.Thrust*8*nx, st.Thrust*8*ny), prop, true)
	}
}
