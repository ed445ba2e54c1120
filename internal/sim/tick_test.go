package sim

import (
	"testing"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

func press(a core.Action) core.InputFrame {
	in := core.NewInputFrame()
	in.Set(a)
	return in
}

func TestDialogTyping(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	m.SetDialog("ab\ncd", nil)

	tickN(m, dialogFadeLen)
	view, ok := m.Dialog()
	if !ok || view.Shown != 0 || view.Alpha != 1 {
		t.Fatalf("after fade-in: %+v, %v", view, ok)
	}
	tickN(m, 10)
	view, _ = m.Dialog()
	if view.Shown != 5 || view.Lines != 2 {
		t.Errorf("after typing: shown %d lines %d", view.Shown, view.Lines)
	}
	tickN(m, 50)
	if _, ok := m.Dialog(); !ok {
		t.Fatal("finished dialog closed without input")
	}

	m.Tick(press(core.ActionAction))
	m.Tick(press(core.ActionAction))
	view, ok = m.Dialog()
	if !ok || view.Alpha >= 1 {
		t.Fatalf("after dismiss: %+v, %v", view, ok)
	}
	tickN(m, dialogFadeLen)
	if _, ok := m.Dialog(); ok {
		t.Error("dialog still open after fading out")
	}
}

func TestDialogStallsOnFullBox(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	m.SetDialog("a\nb\nc\nd", nil)
	tickN(m, 100)
	view, _ := m.Dialog()
	if view.Shown != 5 || view.Lines != dialogMaxLines {
		t.Fatalf("stalled at shown %d lines %d", view.Shown, view.Lines)
	}

	m.Tick(press(core.ActionJump))
	view, _ = m.Dialog()
	if view.Text != "d" {
		t.Errorf("text after paging = %q", view.Text)
	}
}

func TestAdvanceDialog(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	m.SetDialog("hello", nil)
	m.AdvanceDialog()
	view, ok := m.Dialog()
	if !ok || view.Shown != len("hello") || view.Alpha != 1 {
		t.Fatalf("after reveal: %+v, %v", view, ok)
	}
	m.AdvanceDialog()
	if _, ok := m.Dialog(); ok {
		t.Error("dialog open after the second advance")
	}
	m.SetDialog("", nil)
	if _, ok := m.Dialog(); ok {
		t.Error("empty text opened a dialog")
	}
}

func TestPlayerRespawn(t *testing.T) {
	asset := testAsset()
	asset.Spawns = []mapasset.Spawn{{Type: core.ActorYellow, ID: 1, X: 400, Y: 400, Flags: core.AFCurPlayer}}
	asset.SpawnInit = 1
	m := newTestMap(t, asset, nil)
	p := m.Player()
	st := p.State.(*PlayerState)

	damagePlayer(m, p, yellowMaxHealth, core.DamagePhysical)
	if m.State&core.MSFRespawning == 0 || m.CameraTarget() != nil {
		t.Fatalf("death: state %#x", uint32(m.State))
	}
	tickN(m, m.Config().Sim.RespawnFrames-1)
	if st.Health > 0 {
		t.Fatal("respawned early")
	}
	tickN(m, 1)
	if st.Health != yellowMaxHealth || m.State&core.MSFRespawning != 0 {
		t.Errorf("after respawn: health %d state %#x", st.Health, uint32(m.State))
	}
	if p.Flags.Any(core.AFNoCollide) || m.CameraTarget() != p {
		t.Error("respawned player not restored")
	}

	st.Health = 1
	m.State |= core.MSFForceRespawn
	m.Tick(core.NewInputFrame())
	if st.Health != yellowMaxHealth || m.State&core.MSFForceRespawn != 0 {
		t.Errorf("forced respawn: health %d state %#x", st.Health, uint32(m.State))
	}
}

func TestParticles(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	x, y := m.Camera()

	m.SpawnParticles(x, y, bytecode.ParticleSpawn{Gfx: 1, Tiles: 1, Count: 3})
	m.SpawnParticles(x, y, bytecode.ParticleSpawn{Gfx: 2, Tiles: 2, Count: 2, Flags: bytecode.ParticleLooped})
	m.SpawnParticles(x+5000, y, bytecode.ParticleSpawn{Gfx: 3, Tiles: 3, Count: 1, Flags: bytecode.ParticleLooped})
	if n := len(m.Particles()); n != 6 {
		t.Fatalf("particles = %d, expected 6", n)
	}

	m.Tick(core.NewInputFrame())
	if n := len(m.Particles()); n != 5 {
		t.Errorf("after one tick: %d particles, expected 5", n)
	}
	if m.assets.Sprites.Refs(3) != 0 {
		t.Error("off-screen particle kept its sprite")
	}
	m.Tick(core.NewInputFrame())
	if n := len(m.Particles()); n != 2 {
		t.Errorf("after the one-shots ended: %d particles, expected 2", n)
	}
	if m.assets.Sprites.Refs(1) != 0 {
		t.Error("finished particles kept their sprite")
	}
}

func TestParticleCountVariance(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	for range 20 {
		before := len(m.Particles())
		m.SpawnParticles(0, 0, bytecode.ParticleSpawn{Count: 10, CountVariance: 4, Flags: bytecode.ParticleLooped})
		n := len(m.Particles()) - before
		if n < 6 || n >= 14 {
			t.Fatalf("burst of %d particles", n)
		}
	}
}

func TestSplashNeedsWater(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	m.SpawnSplash(100)
	if len(m.Particles()) != 0 {
		t.Error("splash on a dry map")
	}

	asset := testAsset()
	asset.WaterLine = 600
	m = newTestMap(t, asset, nil)
	m.SpawnSplash(100)
	ps := m.Particles()
	if len(ps) != 1 || ps[0].X != 113 || ps[0].Y != 600 {
		t.Errorf("splash = %+v", ps)
	}
}

func TestPropEviction(t *testing.T) {
	asset := testAsset()
	asset.CameraX, asset.CameraY = 200, 200
	asset.Chunks = []*mapasset.Chunk{{Props: []mapasset.Prop{{X: 16, Y: 16, W: 32, H: 32, Image: 4, Tiles: 4}}}}
	m := newTestMap(t, asset, nil)

	m.Tick(core.NewInputFrame())
	if len(m.ActiveProps()) != 1 || m.assets.Sprites.Refs(4) != 1 {
		t.Fatalf("prop not loaded: %d active", len(m.ActiveProps()))
	}
	m.Tick(core.NewInputFrame())
	if m.assets.Sprites.Refs(4) != 1 {
		t.Error("observing a loaded prop took another reference")
	}

	m.SetCamera(900, 900)
	tickN(m, m.Config().Sim.PropUnloadFrames)
	if len(m.ActiveProps()) != 1 {
		t.Fatal("prop evicted early")
	}
	tickN(m, 1)
	if len(m.ActiveProps()) != 0 || m.assets.Sprites.Refs(4) != 0 {
		t.Errorf("prop not evicted: %d active", len(m.ActiveProps()))
	}
}

func TestCameraClamp(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	m.SetCamera(-500, 5000)
	m.Tick(core.NewInputFrame())
	scr := m.Config().Screen
	x, y := m.Camera()
	if x != float64(scr.HalfWidth()) || y != float64(4<<core.ChunkPixelShift-scr.HalfHeight()) {
		t.Errorf("camera = %v,%v", x, y)
	}
}

func TestCameraFollowsPlayer(t *testing.T) {
	asset := testAsset()
	asset.Spawns = []mapasset.Spawn{{Type: core.ActorYellow, ID: 1, X: 600, Y: 300, Flags: core.AFCurPlayer}}
	asset.SpawnInit = 1
	m := newTestMap(t, asset, nil)
	m.Tick(core.NewInputFrame())
	px, _ := m.World().Center(m.Player())
	if x, _ := m.Camera(); x != px {
		t.Errorf("camera x = %v, player x = %v", x, px)
	}
}

func TestBackgroundScroll(t *testing.T) {
	asset := testAsset()
	asset.Backgrounds = []mapasset.Background{{AutoscrollX: -60, RepeatX: true, Image: 7}}
	m := newTestMap(t, asset, nil)
	img := m.assets.Sprites.Load(7)
	img.Value().W = 100
	m.assets.Sprites.Unload(img)
	tickN(m, 3)
	x, _ := m.BackgroundOffset(0)
	if x < 96.9 || x > 97.1 {
		t.Errorf("background x = %v, expected 97", x)
	}
}

type recorder struct {
	order []string
}

func (r *recorder) Sprite(a *Actor, x, y float64)       { r.order = append(r.order, a.Class.Name) }
func (r *recorder) Model(a *Actor, x, y, angle float64) { r.order = append(r.order, a.Class.Name) }
func (r *recorder) Particle(p *Particle)                { r.order = append(r.order, "particle") }
func (r *recorder) Prop(p *Prop)                        { r.order = append(r.order, "prop") }

func TestDrawOrder(t *testing.T) {
	asset := testAsset()
	asset.Spawns = []mapasset.Spawn{
		{Type: core.ActorYellow, ID: 1, X: 500, Y: 500, Flags: core.AFCurPlayer},
		{Type: core.ActorCrystalSmall, ID: 2, X: 520, Y: 500},
		{Type: core.ActorCrate, ID: 3, X: 540, Y: 500},
	}
	asset.SpawnInit = 3
	asset.Chunks = []*mapasset.Chunk{{X: 2, Y: 2, Props: []mapasset.Prop{{X: 512, Y: 512, W: 16, H: 16, Image: 4}}}}
	m := newTestMap(t, asset, nil)
	m.Tick(core.NewInputFrame())
	m.SpawnParticles(512, 512, bytecode.ParticleSpawn{Count: 1, Flags: bytecode.ParticleLooped})

	var r recorder
	m.Draw(&r)
	want := []string{"prop", "crate", "crystal_sm", "yellow", "particle"}
	if len(r.order) != len(want) {
		t.Fatalf("draw order = %v", r.order)
	}
	for i := range want {
		if r.order[i] != want[i] {
			t.Errorf("draw order = %v, expected %v", r.order, want)
			break
		}
	}
}

func TestStats(t *testing.T) {
	asset := testAsset([]bytecode.Instr{bytecode.Delay{Frames: 10}, exit()})
	asset.Startup = 0
	asset.Spawns = []mapasset.Spawn{{Type: core.ActorCrate, ID: 1, X: 500, Y: 500}}
	asset.SpawnInit = 1
	m := newTestMap(t, asset, nil)
	m.Tick(core.NewInputFrame())

	st := m.Stats()
	if st.Frame != 1 || st.Live != 1 || st.Scripts != 1 || st.State != core.MSFPlayerControl {
		t.Errorf("Stats() = %+v", st)
	}
	m.Destroy(m.ActorByID(1))
	if st := m.Stats(); st.Live != 0 || st.Dead != 1 {
		t.Errorf("after destroy: %+v", st)
	}
}
