package sim

import (
	"math"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
)

const noInitFrame = -1

// Particle is a purely visual sprite that moves in a straight line.
type Particle struct {
	Anim   SpriteAnim
	Flags  uint16
	X, Y   float64
	Rot    float64
	RotVel float64
	Speed  float64

	initFrame int
}

// SpawnParticles creates a burst around cx, cy.
func (m *Map) SpawnParticles(cx, cy float64, spawn bytecode.ParticleSpawn) {
	n := uint32(spawn.Count)
	if spawn.CountVariance != 0 {
		cv := uint32(spawn.CountVariance)
		n += m.RNG.Intn(cv << 1)
		if n > cv {
			n -= cv
		} else {
			n = 1
		}
	}
	if n == 0 {
		n = 1
	}
	cx += float64(spawn.OffsetX)
	cy += float64(spawn.OffsetY)

	for ; n > 0; n-- {
		p := &Particle{
			Flags:     spawn.Flags,
			X:         cx,
			Y:         cy,
			Rot:       core.Ang16ToRadians(spawn.Angle),
			Speed:     float64(spawn.Speed) / 256,
			initFrame: int(spawn.InitFrame),
		}
		if spawn.Flags&bytecode.ParticleLooped != 0 {
			p.initFrame = noInitFrame
		}
		p.Anim.Image = m.assets.Sprites.Load(uint32(spawn.Gfx))
		p.Anim.Tiles = m.assets.Tilesets.Load(uint32(spawn.Tiles))
		p.Anim.SetFrame(spawn.InitFrame)
		p.Anim.Speed = 1
		if spawn.AnimSpeed != 0 {
			p.Anim.Speed = float64(spawn.AnimSpeed) / 256
		}

		if v := spawn.WidthVariance; v != 0 {
			p.X += m.variance(v)
		}
		if v := spawn.HeightVariance; v != 0 {
			p.Y += m.variance(v)
		}
		if v := spawn.SpeedVariance; v != 0 {
			p.Speed += m.variance(v)
		}
		if v := spawn.AnimSpeedVariance; v != 0 {
			p.Anim.Speed += m.variance(v)
		}
		if v := spawn.AngleVariance; v != 0 {
			r := core.Ang16ToRadians(uint16(m.RNG.Intn(uint32(v))))
			p.Rot += r - r*0.5
		}
		if p.Flags&bytecode.ParticleRandomFlip != 0 {
			p.Flags ^= uint16(m.RNG.Intn(8))
		}
		m.particles = append(m.particles, p)
	}
}

// variance returns a uniform offset in [-v/2, v/2).
func (m *Map) variance(v uint16) float64 {
	return float64(m.RNG.Intn(uint32(v))) - float64(v>>1)
}

// SpawnSplash throws up water where a body crossed the water line.
func (m *Map) SpawnSplash(cx float64) {
	if math.IsInf(m.WaterLine, 1) {
		return
	}
	m.SpawnParticles(cx+13, m.WaterLine, bytecode.ParticleSpawn{
		Flags: bytecode.ParticleLayer1,
		Gfx:   GfxSplash,
		Tiles: GfxSplash,
	})
}

// Particles returns the live particles.
func (m *Map) Particles() []*Particle {
	return m.particles
}

// inRect reports whether the particle's frame overlaps r.
func (p *Particle) inRect(r core.Rect) bool {
	w, h := 0, 0
	ox, oy := 0, 0
	if img := p.Anim.Image; img != nil {
		w = img.Value().W
	}
	if f := p.Anim.Current(); f != nil {
		if w == 0 {
			w = f.W
		}
		h = f.H
		ox, oy = f.OffsetX, f.OffsetY
	}
	if p.Flags&bytecode.ParticleFlipX != 0 {
		ox = -ox
	}
	if p.Flags&bytecode.ParticleFlipY != 0 {
		oy = -oy
	}
	if p.Flags&bytecode.ParticleFlipD != 0 {
		w, h = h, w
		ox, oy = oy, ox
	}
	if p.Rot != 0 {
		w = int(float64(w) * math.Sqrt2)
		h = int(float64(h) * math.Sqrt2)
	}

	x0 := int(p.X) - w>>1 + ox
	if x0 >= r.X1 || x0+w < r.X0 {
		return false
	}
	y0 := int(p.Y) - h>>1 + oy
	return y0 < r.Y1 && y0+h >= r.Y0
}

// tickParticles moves and animates particles and drops the ones that
// finished their animation or left r.
func (m *Map) tickParticles(r core.Rect) {
	kept := m.particles[:0]
	for _, p := range m.particles {
		ticked := p.Anim.Tick()
		if ticked && p.initFrame != noInitFrame && int(p.Anim.Frame) == p.initFrame {
			m.releaseAnim(&p.Anim)
			continue
		}
		if p.RotVel != 0 {
			p.Rot = math.Mod(p.Rot+p.RotVel, 2*math.Pi)
		}
		if p.Speed != 0 {
			p.X += math.Cos(p.Rot) * p.Speed
			p.Y += math.Sin(p.Rot) * p.Speed
		}
		if !p.inRect(r) {
			m.releaseAnim(&p.Anim)
			continue
		}
		kept = append(kept, p)
	}
	clear(m.particles[len(kept):])
	m.particles = kept
}

func (m *Map) clearParticles() {
	for _, p := range m.particles {
		m.releaseAnim(&p.Anim)
	}
	m.particles = nil
}
