package sim

import (
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

// Prop is the runtime side of a chunk decoration: its sprite is only
// held while the prop has been seen recently.
type Prop struct {
	Src         *mapasset.Prop
	Anim        SpriteAnim
	FrameDrawn  uint64
	FrameTicked uint64

	queued bool
}

// Rect returns the pixel rectangle the prop covers.
func (p *Prop) Rect() core.Rect {
	return core.NewRect(int(p.Src.X), int(p.Src.Y), int(p.Src.W), int(p.Src.H))
}

func (m *Map) prop(src *mapasset.Prop) *Prop {
	p, ok := m.props[src]
	if !ok {
		p = &Prop{Src: src}
		m.props[src] = p
	}
	return p
}

// ObserveProps marks every prop overlapping r as seen this frame, loading
// its sprite if needed.
func (m *Map) ObserveProps(r core.Rect) {
	m.ForEachChunkInRect(r, func(c *mapasset.Chunk) {
		for i := range c.Props {
			src := &c.Props[i]
			p := m.prop(src)
			if p.FrameDrawn == m.Frame && p.queued {
				continue
			}
			if !p.Rect().Intersects(r) {
				continue
			}
			if p.Anim.Image == nil {
				p.Anim.Image = m.assets.Sprites.Load(src.Image)
				p.Anim.Speed = 1
			}
			if p.Anim.Tiles == nil && src.Tiles != 0 {
				p.Anim.Tiles = m.assets.Tilesets.Load(src.Tiles)
			}
			p.FrameDrawn = m.Frame
			if !p.queued {
				p.queued = true
				m.active = append(m.active, p)
			}
		}
	})
}

// UnloadProps releases props that have not been seen for a while, or all
// of them.
func (m *Map) UnloadProps(all bool) {
	unload := int64(m.cfg.Sim.PropUnloadFrames)
	kept := m.active[:0]
	for _, p := range m.active {
		if all || int64(m.Frame)-unload > int64(p.FrameDrawn) {
			m.releaseAnim(&p.Anim)
			p.queued = false
			m.logger.Debug("prop evicted", "image", p.Src.Image, "x", p.Src.X, "y", p.Src.Y)
			continue
		}
		kept = append(kept, p)
	}
	clear(m.active[len(kept):])
	m.active = kept
}

// ActiveProps returns the props currently holding their sprites.
func (m *Map) ActiveProps() []*Prop {
	return m.active
}

// tickProps animates the loaded props overlapping r once per frame.
func (m *Map) tickProps(r core.Rect) {
	m.ForEachChunkInRect(r, func(c *mapasset.Chunk) {
		for i := range c.Props {
			p, ok := m.props[&c.Props[i]]
			if !ok || p.Anim.Tiles == nil || p.FrameTicked == m.Frame {
				continue
			}
			p.Anim.Tick()
			p.FrameTicked = m.Frame
		}
	})
}
