package sim

import (
	"cmp"
	"slices"
)

// Renderer receives the drawables of one frame in back-to-front order.
type Renderer interface {
	Sprite(a *Actor, x, y float64)
	Model(a *Actor, x, y, angle float64)
	Particle(p *Particle)
	Prop(p *Prop)
}

// Draw hands everything visible to r: props first, then live actors
// ordered by class draw priority, then particles.
func (m *Map) Draw(r Renderer) {
	for _, p := range m.active {
		if p.FrameDrawn == m.Frame {
			r.Prop(p)
		}
	}

	live := m.LiveActors()
	slices.SortStableFunc(live, func(a, b *Actor) int {
		return cmp.Compare(a.Class.DrawPriority, b.Class.DrawPriority)
	})
	for _, a := range live {
		if a.Drawer != nil {
			a.Drawer(m, a, r)
		}
	}

	for _, p := range m.particles {
		r.Particle(p)
	}
}
