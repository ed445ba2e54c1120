package sim

import (
	"math"

	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/arena"
	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/config"
	"github.com/vovakirdan/tidepool/internal/core"
)

type bodyKind uint8

const (
	bodyGround bodyKind = iota + 1
	bodyActor
	bodyWater
)

// bodyRef is the user data of every body the world creates. Actor bodies
// carry the actor handle, so a body outliving its actor resolves to nil.
type bodyRef struct {
	kind  bodyKind
	actor arena.Handle
}

const groundFriction = 0.4

// actorFriction matches the default fixture friction of the physics engine.
const actorFriction = 0.2

// World adapts one box2d world to the map: pixel units outside, physics
// units inside, actor bodies linked by handle.
type World struct {
	m      *Map
	b2     *box2d.B2World
	water  *box2d.B2Body
	ground *box2d.B2Body
	sim    config.SimConfig
	wcfg   config.WaterConfig

	// Rebuilds counts fixture list rebuilds.
	Rebuilds int

	deferred []func()
}

func newWorld(m *Map, gravityX, gravityY float64, waterLine float64, static *collision.Set) *World {
	b2 := box2d.MakeB2World(box2d.MakeB2Vec2(gravityX*core.PointScale, gravityY*core.PointScale))
	w := &World{
		m:    m,
		b2:   &b2,
		sim:  m.cfg.Sim,
		wcfg: m.cfg.Water,
	}
	m.GravityNormX, m.GravityNormY = normalize(gravityX, gravityY)

	if !math.IsInf(waterLine, 1) {
		half := w.wcfg.BoxSize * 0.5
		def := box2d.MakeB2BodyDef()
		def.Position = box2d.MakeB2Vec2(0, waterLine*core.PointScale+half)
		def.UserData = bodyRef{kind: bodyWater}
		w.water = w.b2.CreateBody(&def)

		shape := box2d.MakeB2PolygonShape()
		shape.SetAsBox(half, half)
		fix := box2d.MakeB2FixtureDef()
		fix.Shape = &shape
		fix.IsSensor = true
		fix.Filter.CategoryBits = uint16(core.CBWater)
		fix.Filter.MaskBits = uint16(core.CBAll)
		w.water.CreateFixtureFromDef(&fix)
	}

	if static != nil {
		def := box2d.MakeB2BodyDef()
		def.UserData = bodyRef{kind: bodyGround}
		w.ground = w.b2.CreateBody(&def)
		collision.Attach(w.ground, collision.FixtureTemplate{
			Density:  1,
			Friction: groundFriction,
			Category: core.CBGround,
			Mask:     core.CBAll,
		}, static)
	}

	w.b2.SetContactListener(&contactListener{w: w})
	return w
}

func normalize(x, y float64) (float64, float64) {
	l := math.Hypot(x, y)
	if l == 0 {
		return 0, 0
	}
	return x / l, y / l
}

// Step advances the world by one frame and then applies the body changes
// that were requested while the world was locked by its own callbacks.
func (w *World) Step() {
	w.b2.Step(1/float64(w.sim.FPS), w.sim.VelocityIterations, w.sim.PositionIterations)
	w.flush()
}

// later runs fn now, or after the current step when box2d is locked.
func (w *World) later(fn func()) {
	if w.b2.IsLocked() {
		w.deferred = append(w.deferred, fn)
		return
	}
	fn()
}

func (w *World) flush() {
	for len(w.deferred) > 0 {
		pending := w.deferred
		w.deferred = nil
		for _, fn := range pending {
			fn()
		}
	}
}

func (w *World) destroy() {
	for b := w.b2.GetBodyList(); b != nil; {
		next := b.GetNext()
		w.b2.DestroyBody(b)
		b = next
	}
	w.water = nil
	w.ground = nil
	w.deferred = nil
}

// LinkActor creates the body of a (if it has none) at pixel position x, y and
// attaches its collision set.
func (w *World) LinkActor(a *Actor, x, y, angle float64) {
	w.later(func() {
		if a.Body == nil {
			w.createBody(a, x, y, angle)
		}
		w.rebuild(a)
	})
}

func (w *World) createBody(a *Actor, x, y, angle float64) {
	flags := a.Flags
	def := box2d.MakeB2BodyDef()
	def.UserData = bodyRef{kind: bodyActor, actor: a.handle}
	def.Bullet = a.Class.Category&core.CBPlayer != 0
	def.Type = bodyType(flags)
	if !flags.Any(core.AFGravity) {
		def.GravityScale = 0
	}
	def.Position = box2d.MakeB2Vec2(x*core.PointScale, y*core.PointScale)
	def.Angle = angle
	def.FixedRotation = !flags.Any(core.AFRotates)
	a.Body = w.b2.CreateBody(&def)

	if y > w.m.WaterLine && !a.Flags.Any(core.AFUnderwater) {
		a.Flags |= core.AFUnderwater
		w.addDamping(a.Body, w.wcfg.Damping)
	}
}

func bodyType(flags core.ActorFlags) uint8 {
	switch {
	case flags.Any(core.AFKinematic):
		return box2d.B2BodyType.B2_kinematicBody
	case flags.Any(core.AFStatic):
		return box2d.B2BodyType.B2_staticBody
	default:
		return box2d.B2BodyType.B2_dynamicBody
	}
}

func (w *World) addDamping(b *box2d.B2Body, d float64) {
	b.SetLinearDamping(b.GetLinearDamping() + d)
	b.SetAngularDamping(b.GetAngularDamping() + d)
}

func (a *Actor) filter() box2d.B2Filter {
	f := box2d.MakeB2Filter()
	f.CategoryBits = uint16(a.Class.Category)
	if a.Flags.Any(core.AFNoCollide) {
		f.CategoryBits = 0
	}
	f.MaskBits = uint16(a.Class.Mask)
	if f.MaskBits == 0 {
		f.MaskBits = uint16(core.CBAll)
	}
	return f
}

// UpdateActorState pushes the actor flags to its body: filter, body type,
// gravity, rotation and the sensor state of every fixture.
func (w *World) UpdateActorState(a *Actor) {
	w.later(func() {
		if a.Body == nil {
			return
		}
		flags := a.Flags
		filter := a.filter()
		a.Body.SetType(bodyType(flags))
		if flags.Any(core.AFGravity) {
			a.Body.SetGravityScale(1)
		} else {
			a.Body.SetGravityScale(0)
		}
		a.Body.SetFixedRotation(!flags.Any(core.AFRotates))
		for f := a.Body.GetFixtureList(); f != nil; f = f.GetNext() {
			f.SetSensor(!flags.Any(core.AFSolid))
			f.SetFilterData(filter)
		}
	})
}

// UpdateActorCollision replaces every fixture of the actor with its current
// collision set.
func (w *World) UpdateActorCollision(a *Actor) {
	w.later(func() { w.rebuild(a) })
}

func (w *World) rebuild(a *Actor) {
	if a.Body == nil {
		return
	}
	collision.Detach(a.Body)
	filter := a.filter()
	collision.Attach(a.Body, collision.FixtureTemplate{
		Density:  a.Class.Density,
		Friction: actorFriction,
		Sensor:   !a.Flags.Any(core.AFSolid),
		Category: core.Category(filter.CategoryBits),
		Mask:     core.Category(filter.MaskBits),
	}, a.Collision)
	w.Rebuilds++
}

// DestroyBody removes the actor's body from the world.
func (w *World) DestroyBody(a *Actor) {
	w.later(func() {
		if a.Body == nil {
			return
		}
		body := a.Body
		a.Body = nil
		w.b2.DestroyBody(body)
	})
}

// MoveWater places the top edge of the water volume at pixel row y.
func (w *World) MoveWater(y float64) {
	if w.water == nil {
		return
	}
	w.later(func() {
		w.water.SetTransform(box2d.MakeB2Vec2(0, y*core.PointScale+w.wcfg.BoxSize*0.5), 0)
	})
}

// SetGravity changes the gravity (pixels per second squared).
func (w *World) SetGravity(x, y float64) {
	w.b2.SetGravity(box2d.MakeB2Vec2(x*core.PointScale, y*core.PointScale))
	w.m.GravityNormX, w.m.GravityNormY = normalize(x, y)
}

// QueryActors calls fn for each actor whose fixtures overlap the pixel
// rectangle grown by expand. Returning false stops the query.
func (w *World) QueryActors(r core.Rect, expand int, fn func(a *Actor) bool) {
	aabb := box2d.MakeB2AABB()
	aabb.LowerBound = box2d.MakeB2Vec2(float64(r.X0-expand)*core.PointScale, float64(r.Y0-expand)*core.PointScale)
	aabb.UpperBound = box2d.MakeB2Vec2(float64(r.X1+expand)*core.PointScale, float64(r.Y1+expand)*core.PointScale)
	w.b2.QueryAABB(func(f *box2d.B2Fixture) bool {
		a := w.actorOf(f.GetBody())
		if a == nil {
			return true
		}
		return fn(a)
	}, aabb)
}

func (w *World) actorOf(b *box2d.B2Body) *Actor {
	ref, ok := b.GetUserData().(bodyRef)
	if !ok || ref.kind != bodyActor {
		return nil
	}
	return w.m.actors.Get(ref.actor)
}

// Position returns the actor's body origin in pixels.
func (w *World) Position(a *Actor) (float64, float64) {
	if a.Body == nil {
		return 0, 0
	}
	p := a.Body.GetPosition()
	return p.X * core.InvPointScale, p.Y * core.InvPointScale
}

// Center returns the actor's center of mass in pixels.
func (w *World) Center(a *Actor) (float64, float64) {
	if a.Body == nil {
		return 0, 0
	}
	p := a.Body.GetWorldCenter()
	return p.X * core.InvPointScale, p.Y * core.InvPointScale
}

// Angle returns the body angle in radians.
func (w *World) Angle(a *Actor) float64 {
	if a.Body == nil {
		return 0
	}
	return a.Body.GetAngle()
}

func (w *World) SetPosition(a *Actor, x, y float64) {
	w.later(func() {
		if a.Body != nil {
			a.Body.SetTransform(box2d.MakeB2Vec2(x*core.PointScale, y*core.PointScale), a.Body.GetAngle())
		}
	})
}

// SetPositionCentered moves the body so that its center of mass is at x, y.
func (w *World) SetPositionCentered(a *Actor, x, y float64) {
	w.later(func() {
		if a.Body == nil {
			return
		}
		lc := a.Body.GetLocalCenter()
		a.Body.SetTransform(box2d.MakeB2Vec2(x*core.PointScale+lc.X, y*core.PointScale+lc.Y), a.Body.GetAngle())
	})
}

func (w *World) SetAngle(a *Actor, angle float64) {
	w.later(func() {
		if a.Body != nil {
			a.Body.SetTransform(a.Body.GetPosition(), angle)
		}
	})
}

func (w *World) SetTransform(a *Actor, x, y, angle float64) {
	w.later(func() {
		if a.Body != nil {
			a.Body.SetTransform(box2d.MakeB2Vec2(x*core.PointScale, y*core.PointScale), angle)
		}
	})
}

// Velocity returns the linear velocity in physics units.
func (w *World) Velocity(a *Actor) box2d.B2Vec2 {
	if a.Body == nil {
		return box2d.MakeB2Vec2(0, 0)
	}
	return a.Body.GetLinearVelocity()
}

func (w *World) SetVelocity(a *Actor, v box2d.B2Vec2) {
	if a.Body != nil {
		a.Body.SetLinearVelocity(v)
	}
}

// ApplyImpulse applies an impulse at the center of mass.
func (w *World) ApplyImpulse(a *Actor, x, y float64) {
	if a.Body != nil {
		a.Body.ApplyLinearImpulse(box2d.MakeB2Vec2(x, y), a.Body.GetWorldCenter(), true)
	}
}

// ApplyForce applies a force at the center of mass.
func (w *World) ApplyForce(a *Actor, x, y float64) {
	if a.Body != nil {
		a.Body.ApplyForce(box2d.MakeB2Vec2(x, y), a.Body.GetWorldCenter(), true)
	}
}

// SetActive takes the body of a out of (or back into) the simulation.
func (w *World) SetActive(a *Actor, active bool) {
	w.later(func() {
		if a.Body != nil {
			a.Body.SetActive(active)
		}
	})
}
