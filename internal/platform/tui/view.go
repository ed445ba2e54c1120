package tui

import (
	"math"

	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/sim"
)

// Pixels covered by one character cell. Cells are about twice as tall as
// they are wide.
const (
	cellW = 8
	cellH = 16
)

// WorldView draws a map into a core.Screen centered on the camera. It
// implements sim.Renderer.
type WorldView struct {
	screen     *core.Screen
	camX, camY float64
}

var _ sim.Renderer = (*WorldView)(nil)

// NewWorldView returns a view drawing into s.
func NewWorldView(s *core.Screen) *WorldView {
	return &WorldView{screen: s}
}

// Draw clears the screen and renders m.
func (v *WorldView) Draw(m *sim.Map) {
	v.screen.Clear()
	v.camX, v.camY = m.Camera()
	if !math.IsInf(m.WaterLine, 1) {
		_, wy := v.cell(0, m.WaterLine)
		for y := max(wy, 0); y < v.screen.Height(); y++ {
			ch := '~'
			if y > wy {
				ch = ' '
			}
			for x := range v.screen.Width() {
				v.screen.Set(x, y, ch, core.PaletteBlue)
			}
		}
	}
	m.Draw(v)
}

// cell projects a world position to screen cell coordinates.
func (v *WorldView) cell(x, y float64) (int, int) {
	cx := int(math.Floor((x-v.camX)/cellW)) + v.screen.Width()/2
	cy := int(math.Floor((y-v.camY)/cellH)) + v.screen.Height()/2
	return cx, cy
}

// Glyph returns the character and color an actor is drawn with.
func Glyph(a *sim.Actor) (rune, core.Palette) {
	cat := a.Class.Category
	switch {
	case cat&core.CBPlayer != 0:
		return '@', core.PaletteYellow
	case cat&core.CBEnemy != 0:
		return 'x', core.PaletteRed
	case cat&core.CBPowerup != 0:
		return '*', core.PaletteCyan
	case cat&core.CBProjectile != 0:
		return '.', core.PaletteWhite
	case cat&core.CBProp != 0:
		return '#', core.PaletteOrange
	case cat&core.CBTrigger != 0:
		return '?', core.PaletteMagenta
	}
	return 'o', core.PaletteGreen
}

func (v *WorldView) Sprite(a *sim.Actor, x, y float64) {
	r, c := Glyph(a)
	cx, cy := v.cell(x, y)
	v.screen.Set(cx, cy, r, c)
}

func (v *WorldView) Model(a *sim.Actor, x, y, angle float64) {
	v.Sprite(a, x, y)
}

func (v *WorldView) Particle(p *sim.Particle) {
	cx, cy := v.cell(p.X, p.Y)
	if v.screen.Get(cx, cy).Rune == ' ' {
		v.screen.Set(cx, cy, '\'', core.PaletteGray)
	}
}

func (v *WorldView) Prop(p *sim.Prop) {
	r := p.Rect()
	x0, y0 := v.cell(float64(r.X0), float64(r.Y0))
	x1, y1 := v.cell(float64(r.X1-1), float64(r.Y1-1))
	v.screen.FillRect(core.Rect{X0: x0, Y0: y0, X1: x1 + 1, Y1: y1 + 1}, ':', core.PaletteGray)
}
