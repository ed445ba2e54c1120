package sim

import (
	"math"

	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

const (
	cameraAccel   = 1.0
	cameraEpsilon = 0.5
)

// Tick advances the map by one frame.
func (m *Map) Tick(in core.InputFrame) Status {
	pressed := func(a core.Action) bool { return in.Has(a) && !m.prevInput.Has(a) }
	defer m.rememberInput(in)

	if m.fade.counter > 0 {
		m.fade.counter--
		if m.fade.counter == 0 && !m.fade.armed {
			m.fade.fade = core.FadeNone
		}
	}
	if m.fade.armed && m.fade.counter == 0 {
		return StatusNewMap
	}

	m.tickRespawn()

	control := !m.dialog.active && m.fade.counter == 0 && m.State&core.MSFPlayerControl != 0

	m.Frame++
	m.tickBackgrounds()

	if m.Quake.Counter > 0 {
		m.Quake.Counter--
		if m.Quake.Counter&4 != 0 && m.Quake.Strength > 0 {
			m.Quake.Strength--
		}
		if m.Quake.Counter == 0 {
			m.Quake.Strength = 0
		}
	}
	m.tickDialog(pressed(core.ActionAction) || pressed(core.ActionJump))
	m.tickWater()
	if m.HUDCounter > 0 {
		m.HUDCounter--
	}

	m.tickScripts()

	m.tickCamera()
	if control {
		if p := m.Player(); p != nil {
			m.playerMovement(p, in)
		}
	}
	m.clampCamera()
	m.audio.SetListener(m.camera.X, m.camera.Y)

	m.world.Step()

	for _, a := range m.LiveActors() {
		if a.Ticker != nil {
			a.Ticker(m, a)
		}
	}
	for _, a := range m.LiveActors() {
		if a.Channel != core.NoChannel {
			x, y := m.world.Center(a)
			m.audio.SetVoicePosition(a.Channel, x, y)
		}
	}

	m.reap()

	r := m.ActiveRect()
	m.tickParticles(r)
	m.ObserveProps(r)
	m.tickProps(r)
	m.UnloadProps(false)

	if m.State&core.MSFEnding != 0 {
		return StatusEnding
	}
	return StatusGame
}

func (m *Map) rememberInput(in core.InputFrame) {
	m.prevInput.Clear()
	for a, on := range in.Actions {
		if on {
			m.prevInput.Set(a)
		}
	}
}

// ActiveRect is the view grown by the clip margin: particles and props
// outside it are not simulated.
func (m *Map) ActiveRect() core.Rect {
	hw, hh := m.cfg.Screen.HalfWidth(), m.cfg.Screen.HalfHeight()
	x, y := int(m.camera.X), int(m.camera.Y)
	return core.Rect{X0: x - hw, Y0: y - hh, X1: x + hw, Y1: y + hh}.Expand(m.cfg.Sim.ActiveClipExtend)
}

// tickRespawn counts the respawn delay down and brings the player back at
// its init spawn once it runs out. MSFForceRespawn skips the wait.
func (m *Map) tickRespawn() {
	if m.RespawnCounter > 0 {
		m.RespawnCounter--
	}
	p := m.Player()
	if p == nil {
		return
	}
	if !(m.State&core.MSFRespawning != 0 && m.RespawnCounter == 0) && m.State&core.MSFForceRespawn == 0 {
		return
	}
	for i := m.asset.SpawnInit; i > 0; i-- {
		spawn := &m.asset.Spawns[i-1]
		if spawn.Flags.Any(core.AFCurPlayer) && spawn.Type == p.Type {
			m.Respawn(p, spawn)
			m.State &^= core.MSFRespawning | core.MSFForceRespawn
			return
		}
	}
}

func (m *Map) tickBackgrounds() {
	for i := range m.bgs {
		bg := &m.bgs[i]
		bg.anim.Tick()
		img := bg.anim.Image.Value()
		if bg.src.AutoscrollX != 0 {
			bg.x += core.InvFPS * float64(bg.src.AutoscrollX)
			if bg.src.RepeatX && img.W > 0 {
				bg.x = wrap(bg.x, float64(img.W))
			}
		}
		if bg.src.AutoscrollY != 0 {
			bg.y += core.InvFPS * float64(bg.src.AutoscrollY)
			if bg.src.RepeatY && img.H > 0 {
				bg.y = wrap(bg.y, float64(img.H))
			}
		}
	}
}

func wrap(v, size float64) float64 {
	switch {
	case v >= size:
		return v - size
	case v < 0:
		return v + size
	}
	return v
}

// BackgroundOffset returns the scroll offset of background i.
func (m *Map) BackgroundOffset(i int) (float64, float64) {
	return m.bgs[i].x, m.bgs[i].y
}

func (m *Map) tickWater() {
	if m.WaterLine != m.water.target {
		m.WaterLine = core.StepTowards(m.WaterLine, m.water.target, m.water.step)
		m.world.MoveWater(m.WaterLine)
	}
	if m.WaterLine == m.water.target {
		m.State &^= core.MSFWaterMoving
	}
	if m.WaterColor != m.water.targetColor {
		m.WaterColor = m.WaterColor.Step1(m.water.targetColor)
	}
}

// tickCamera follows the camera target. While a script moves the camera
// it accelerates towards the target and stops on arrival; a waypoint path
// is followed to its last waypoint.
func (m *Map) tickCamera() {
	c := &m.camera
	if m.State&core.MSFCameraMoving == 0 {
		if t := m.CameraTarget(); t != nil {
			c.X, c.Y = m.world.Center(t)
		} else if c.waypoint != mapasset.NoWaypoint {
			wp := m.asset.Waypoints[c.waypoint]
			c.X, c.Y = float64(wp.X), float64(wp.Y)
		}
		return
	}

	var tx, ty float64
	last := true
	switch t := m.CameraTarget(); {
	case t != nil:
		tx, ty = m.world.Center(t)
	case c.waypoint != mapasset.NoWaypoint:
		wp := m.asset.Waypoints[c.waypoint]
		tx, ty = float64(wp.X), float64(wp.Y)
		last = wp.Next == mapasset.NoWaypoint
	default:
		m.State &^= core.MSFCameraMoving
		return
	}

	dx, dy := c.X-tx, c.Y-ty
	if math.Abs(dx) < cameraEpsilon && math.Abs(dy) < cameraEpsilon {
		c.X, c.Y = tx, ty
		if last {
			c.vel = 0
			m.State &^= core.MSFCameraMoving | core.MSFPlayerChanged
		} else {
			c.waypoint = m.asset.Waypoints[c.waypoint].Next
		}
		return
	}

	if c.vel != 0 && c.targetVel != 0 && last {
		decel := cameraAccel * 0.5 * c.vel * (c.vel + 1)
		if dx*dx+dy*dy < decel*decel {
			c.targetVel = 0
		}
	}
	c.vel = core.StepTowards(c.vel, c.targetVel, cameraAccel)
	if c.vel == 0 {
		// Braked short of the target: creep the rest of the way.
		c.vel = cameraEpsilon
	}
	angle := math.Atan2(dy, dx)
	c.X = core.StepTowards(c.X, tx, math.Abs(math.Cos(angle)*c.vel))
	c.Y = core.StepTowards(c.Y, ty, math.Abs(math.Sin(angle)*c.vel))
}

// clampCamera keeps the view inside the map bounds.
func (m *Map) clampCamera() {
	hw, hh := m.cfg.Screen.HalfWidth(), m.cfg.Screen.HalfHeight()
	a := m.asset
	lo := int(a.LowerX)<<core.ChunkPixelShift + hw
	hi := (int(a.LowerX)+int(a.Width))<<core.ChunkPixelShift - hw
	if int(m.camera.X) < lo {
		m.camera.X = float64(lo)
	}
	if int(m.camera.X) > hi {
		m.camera.X = float64(hi)
	}
	lo = int(a.LowerY)<<core.ChunkPixelShift + hh
	hi = (int(a.LowerY)+int(a.Height))<<core.ChunkPixelShift - hh
	if int(m.camera.Y) < lo {
		m.camera.Y = float64(lo)
	}
	if int(m.camera.Y) > hi {
		m.camera.Y = float64(hi)
	}
}
