package sim

import (
	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/core"
)

// ContactEvent is the phase of a contact reported to colliders.
type ContactEvent uint8

const (
	ContactBegin ContactEvent = iota
	ContactPersist
	ContactEnd
)

func (e ContactEvent) String() string {
	switch e {
	case ContactBegin:
		return "begin"
	case ContactPersist:
		return "persist"
	case ContactEnd:
		return "end"
	}
	return "unknown"
}

// Contact describes one contact state change. Touching is the state after
// the change.
type Contact struct {
	Event    ContactEvent
	Touching bool
}

// Began reports a contact that started touching.
func (c Contact) Began() bool {
	return c.Event == ContactBegin && c.Touching
}

// Ended reports a contact that stopped touching.
func (c Contact) Ended() bool {
	return c.Event == ContactEnd
}

// CollideFunc is a contact hook. other is nil for ground and water contacts.
type CollideFunc func(m *Map, a *Actor, fixA *box2d.B2Fixture, other *Actor, fixB *box2d.B2Fixture, c Contact)

type contactListener struct {
	w *World
}

func (l *contactListener) BeginContact(contact box2d.B2ContactInterface) {
	l.w.dispatch(contact.GetFixtureA(), contact.GetFixtureB(), Contact{Event: ContactBegin, Touching: contact.IsTouching()})
}

func (l *contactListener) EndContact(contact box2d.B2ContactInterface) {
	l.w.dispatch(contact.GetFixtureA(), contact.GetFixtureB(), Contact{Event: ContactEnd, Touching: false})
}

func (l *contactListener) PreSolve(contact box2d.B2ContactInterface, oldManifold box2d.B2Manifold) {
	l.w.dispatch(contact.GetFixtureA(), contact.GetFixtureB(), Contact{Event: ContactPersist, Touching: contact.IsTouching()})
}

func (l *contactListener) PostSolve(contact box2d.B2ContactInterface, impulse *box2d.B2ContactImpulse) {}

func (w *World) bodyKindOf(f *box2d.B2Fixture) (bodyKind, *Actor) {
	ref, ok := f.GetBody().GetUserData().(bodyRef)
	if !ok {
		return 0, nil
	}
	if ref.kind == bodyActor {
		return bodyActor, w.m.actors.Get(ref.actor)
	}
	return ref.kind, nil
}

// dispatch routes one contact event to the colliders of the actors involved.
func (w *World) dispatch(fixA, fixB *box2d.B2Fixture, c Contact) {
	kindA, a := w.bodyKindOf(fixA)
	kindB, b := w.bodyKindOf(fixB)
	if kindA != bodyActor {
		kindA, kindB = kindB, kindA
		a, b = b, a
		fixA, fixB = fixB, fixA
	}
	if kindA != bodyActor || a == nil {
		return
	}

	switch kindB {
	case bodyGround:
		if fn := a.Collider; fn != nil {
			fn(w.m, a, fixA, nil, fixB, c)
		}
	case bodyActor:
		if b == nil {
			return
		}
		if b.Class.CollidePriority > a.Class.CollidePriority {
			a, b = b, a
			fixA, fixB = fixB, fixA
		}
		if fn := a.Collider; fn != nil {
			fn(w.m, a, fixA, b, fixB, c)
		}
		if fn := b.Collider; fn != nil {
			fn(w.m, b, fixB, a, fixA, c)
		}
	case bodyWater:
		if fixA.IsSensor() {
			return
		}
		w.crossWater(a, c)
		if fn := a.Collider; fn != nil {
			fn(w.m, a, fixA, nil, fixB, c)
		}
	}
}

// crossWater toggles the underwater state. The flag gates the damping change so
// repeated begin or end reports are harmless.
func (w *World) crossWater(a *Actor, c Contact) {
	if a.Body == nil {
		return
	}
	vy := a.Body.GetLinearVelocity().Y
	switch {
	case c.Touching && !a.Flags.Any(core.AFUnderwater):
		if vy > w.wcfg.SplashSpeed {
			w.splash(a)
		}
		a.Flags |= core.AFUnderwater
		w.addDamping(a.Body, w.wcfg.Damping)
	case !c.Touching && a.Flags.Any(core.AFUnderwater):
		if vy < -w.wcfg.SplashSpeed {
			w.splash(a)
		}
		a.Flags &^= core.AFUnderwater
		w.addDamping(a.Body, -w.wcfg.Damping)
	}
}

func (w *World) splash(a *Actor) {
	x, _ := w.Center(a)
	w.m.SpawnSplash(x)
}
