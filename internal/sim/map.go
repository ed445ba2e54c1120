// Package sim runs a loaded map: actors and their classes, the physics
// world, the script interpreter and the per-frame orchestration that ties
// them together.
package sim

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tidepool/internal/arena"
	"github.com/vovakirdan/tidepool/internal/assets"
	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/cache"
	"github.com/vovakirdan/tidepool/internal/config"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
	"github.com/vovakirdan/tidepool/internal/rng"
)

// Audio is the sound sink the simulation plays through.
type Audio interface {
	PlayFX(sound uint32, x, y float64, priority int32) core.Channel
	ReleaseChannel(ch core.Channel)
	SetVoicePosition(ch core.Channel, x, y float64)
	SetListener(x, y float64)
	PlayMusic(id uint32, fade float64, flags uint32)
}

type nopAudio struct{}

func (nopAudio) PlayFX(uint32, float64, float64, int32) core.Channel { return core.NoChannel }
func (nopAudio) ReleaseChannel(core.Channel)                          {}
func (nopAudio) SetVoicePosition(core.Channel, float64, float64)      {}
func (nopAudio) SetListener(float64, float64)                         {}
func (nopAudio) PlayMusic(uint32, float64, uint32)                    {}

// Deps are the collaborators of a map.
type Deps struct {
	Logger *log.Logger
	Assets *assets.Set
	Audio  Audio
	Config config.Engine

	// Seed makes the map's random streams repeatable when non-zero.
	Seed uint64

	// OnSave is called by the save_progress native.
	OnSave func(save PlayerSave)
	// OnTransition is called after a pending map has been loaded.
	OnTransition func(mapID uint32, save PlayerSave)
}

// ErrNoAssets is returned by Load without an asset set.
var ErrNoAssets = errors.New("sim: no asset set")

type background struct {
	src  mapasset.Background
	anim SpriteAnim
	x, y float64
}

type cameraState struct {
	X, Y      float64
	vel       float64
	targetVel float64
	waypoint  int
}

type waterState struct {
	target      float64
	step        float64
	targetColor core.Color
}

// Quake is the screen shake requested by scripts.
type Quake struct {
	Counter  uint32
	Strength uint32
}

type transition struct {
	armed   bool
	mapID   uint32
	fade    core.Fade
	color   core.Color
	counter int
}

// Map is a loaded map and everything running in it.
type Map struct {
	logger *log.Logger
	cfg    config.Engine
	assets *assets.Set
	audio  Audio
	deps   Deps

	asset *mapasset.Asset
	// ID is the map id this map was loaded under by Transition.
	ID uint32

	chunks   []*mapasset.Chunk
	tidMap   [core.MaxTID>>core.TIDMapShift + 1]*mapasset.Tileset
	tilesets []*cache.Entry[*assets.Image]
	bgs      []background
	props    map[*mapasset.Prop]*Prop
	active   []*Prop

	actors       *arena.Arena[Actor]
	live         []arena.Handle
	dead         []arena.Handle
	player       arena.Handle
	hudPlayer    arena.Handle
	cameraTarget arena.Handle

	scripts   []*Script
	particles []*Particle
	world     *World

	RNG       *rng.PCG32
	RenderRNG *rng.PCG32

	State core.StateFlags
	Frame uint64

	camera cameraState
	dialog dialogState

	WaterLine  float64
	WaterColor core.Color
	water      waterState

	GravityNormX float64
	GravityNormY float64

	Quake          Quake
	RespawnCounter int
	HUDCounter     int

	fade      transition
	prevInput core.InputFrame
}

// Load creates a map from a decoded asset.
func Load(asset *mapasset.Asset, deps Deps) (*Map, error) {
	if deps.Assets == nil {
		return nil, ErrNoAssets
	}
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Audio == nil {
		deps.Audio = nopAudio{}
	}
	if deps.Config.Sim.FPS == 0 {
		deps.Config = config.DefaultEngineConfig()
	}
	if err := deps.Config.Validate(); err != nil {
		return nil, fmt.Errorf("sim: invalid config: %w", err)
	}

	m := &Map{
		logger: deps.Logger,
		cfg:    deps.Config,
		assets: deps.Assets,
		audio:  deps.Audio,
		deps:   deps,
		State:  core.MSFPlayerControl,
	}
	m.load(asset)
	return m, nil
}

func (m *Map) load(asset *mapasset.Asset) {
	m.asset = asset
	m.actors = arena.New[Actor](len(asset.Spawns))

	seed := m.deps.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	m.RNG = rng.Perturb(seed)
	m.RenderRNG = rng.Perturb(seed * 2)

	m.camera = cameraState{
		X:        float64(asset.CameraX),
		Y:        float64(asset.CameraY),
		waypoint: mapasset.NoWaypoint,
	}
	if asset.HasWater() {
		m.WaterLine = float64(asset.WaterLine)
	} else {
		m.WaterLine = math.Inf(1)
	}
	m.water = waterState{target: m.WaterLine, targetColor: asset.WaterColor}
	m.WaterColor = asset.WaterColor

	for _, ts := range asset.Tilesets {
		m.tilesets = append(m.tilesets, m.assets.Sprites.Load(ts.Image))
	}
	for _, bg := range asset.Backgrounds {
		b := background{src: bg, x: float64(bg.OffsetX), y: float64(bg.OffsetY)}
		b.anim.Image = m.assets.Sprites.Load(bg.Image)
		b.anim.Speed = 1
		if bg.AnimTiles != 0 {
			b.anim.Tiles = m.assets.Tilesets.Load(bg.AnimTiles)
		}
		m.bgs = append(m.bgs, b)
	}

	m.chunks = make([]*mapasset.Chunk, int(asset.Width)*int(asset.Height))
	m.props = make(map[*mapasset.Prop]*Prop)
	for _, c := range asset.Chunks {
		x, y := int(c.X)-int(asset.LowerX), int(c.Y)-int(asset.LowerY)
		core.Assertf(x >= 0 && x < int(asset.Width) && y >= 0 && y < int(asset.Height),
			"chunk %d,%d outside the map", c.X, c.Y)
		m.chunks[y*int(asset.Width)+x] = c
	}

	for i := range asset.Tilesets {
		ts := &asset.Tilesets[i]
		for idx := ts.FirstTID >> core.TIDMapShift; idx < ts.EndTID>>core.TIDMapShift; idx++ {
			m.tidMap[idx] = ts
		}
	}

	m.world = newWorld(m, float64(asset.GravityX), float64(asset.GravityY), m.WaterLine, asset.Collision)

	for i := asset.SpawnInit; i > 0; i-- {
		m.Spawn(&asset.Spawns[i-1])
	}

	if asset.Startup != bytecode.InvalidScript {
		core.Assertf(int(asset.Startup) < len(asset.Scripts), "invalid startup script %d", asset.Startup)
		m.StartScript(asset.Startup, nil)
	}

	m.logger.Info("map loaded",
		"chunks", len(asset.Chunks),
		"actors", len(m.live),
		"scripts", len(m.scripts),
		"water", asset.HasWater())
}

// Unload releases everything the map holds. The map is unusable afterwards
// until it is loaded again.
func (m *Map) Unload() {
	m.clearParticles()
	for _, s := range m.Scripts() {
		m.DestroyScript(s)
	}
	for _, a := range m.LiveActors() {
		m.finalize(a)
	}
	for _, a := range m.DeadActors() {
		m.finalize(a)
	}
	m.UnloadProps(true)
	for _, img := range m.tilesets {
		m.assets.Sprites.Unload(img)
	}
	for i := range m.bgs {
		m.releaseAnim(&m.bgs[i].anim)
	}
	m.world.destroy()
	m.ClearDialog()

	m.tilesets = nil
	m.bgs = nil
	m.chunks = nil
	m.props = nil
	m.tidMap = [len(m.tidMap)]*mapasset.Tileset{}
	m.live = nil
	m.dead = nil
	m.player = arena.Nil
	m.hudPlayer = arena.Nil
	m.cameraTarget = arena.Nil
	m.Quake = Quake{}
	m.RespawnCounter = 0
	m.HUDCounter = 0
	m.logger.Debug("map unloaded")
}

// Asset returns the decoded map.
func (m *Map) Asset() *mapasset.Asset { return m.asset }

// World returns the physics adapter.
func (m *Map) World() *World { return m.world }

// Config returns the engine configuration the map runs with.
func (m *Map) Config() config.Engine { return m.cfg }

// Camera returns the camera center in pixels.
func (m *Map) Camera() (float64, float64) {
	return m.camera.X, m.camera.Y
}

// SetCamera moves the camera center.
func (m *Map) SetCamera(x, y float64) {
	m.camera.X, m.camera.Y = x, y
}

// ChunkAt returns the chunk containing pixel x, y, or nil.
func (m *Map) ChunkAt(x, y int) *mapasset.Chunk {
	cx := (x >> core.ChunkPixelShift) - int(m.asset.LowerX)
	if cx < 0 || cx >= int(m.asset.Width) {
		return nil
	}
	cy := (y >> core.ChunkPixelShift) - int(m.asset.LowerY)
	if cy < 0 || cy >= int(m.asset.Height) {
		return nil
	}
	return m.chunks[cy*int(m.asset.Width)+cx]
}

// ForEachChunkInRect calls fn for every chunk overlapping r.
func (m *Map) ForEachChunkInRect(r core.Rect, fn func(c *mapasset.Chunk)) {
	m.ForEachChunkInRectExpand(r, 0, fn)
}

// ForEachChunkInRectExpand is ForEachChunkInRect on r grown by n pixels.
// The walk steps by a chunk and always includes the far edge.
func (m *Map) ForEachChunkInRectExpand(r core.Rect, n int, fn func(c *mapasset.Chunk)) {
	r = r.Expand(n)
	for y := r.Y0; ; y += core.ChunkPixelDim {
		for x := r.X0; ; x += core.ChunkPixelDim {
			if c := m.ChunkAt(x, y); c != nil {
				fn(c)
			}
			if x > r.X1 {
				break
			}
		}
		if y > r.Y1 {
			break
		}
	}
}

// TilesetFor returns the tile set that tile id tid belongs to.
func (m *Map) TilesetFor(tid uint16) *mapasset.Tileset {
	idx := int(tid&core.MaxTID) >> core.TIDMapShift
	return m.tidMap[idx]
}

// PendingMap returns the map armed by load_map.
func (m *Map) PendingMap() (uint32, bool) {
	return m.fade.mapID, m.fade.armed
}

// Fade returns the running fade and its remaining frames.
func (m *Map) Fade() (core.Fade, core.Color, int) {
	return m.fade.fade, m.fade.color, m.fade.counter
}

func (m *Map) armTransition(id uint32, fade core.Fade, color core.Color) {
	color.A = 255
	m.fade = transition{armed: true, mapID: id, fade: fade, color: color, counter: 1}
	switch fade {
	case core.FadeOutColor, core.FadeOutWipe, core.FadeInOutColor, core.FadeInOutWipe:
		m.fade.counter = m.cfg.Sim.FadeLen
	}
	m.logger.Info("map transition armed", "map", id, "fade", fade)
}

// Transition replaces the map with the pending one once the outgoing fade
// has finished. The player's health and crystals carry over.
func (m *Map) Transition(open func(mapID uint32) (*mapasset.Asset, error)) error {
	if !m.fade.armed || m.fade.counter > 0 {
		return nil
	}
	next := m.fade
	asset, err := open(next.mapID)
	if err != nil {
		return fmt.Errorf("sim: cannot open map %d: %w", next.mapID, err)
	}

	player := m.Player()
	save := SavePlayer(player)

	m.Unload()
	m.fade = transition{}
	m.State &^= core.MSFCameraMoving | core.MSFWaterMoving
	m.load(asset)
	m.ID = next.mapID

	if player != nil {
		RestorePlayer(m.Player(), save)
	}

	switch next.fade {
	case core.FadeInWipe, core.FadeInOutWipe:
		m.fade = transition{fade: core.FadeInWipe, counter: m.cfg.Sim.FadeLen}
	case core.FadeInColor, core.FadeInOutColor:
		m.fade = transition{fade: core.FadeInColor, color: next.color, counter: m.cfg.Sim.FadeLen}
	case core.FadeCross, core.FadeCrossWipe:
		m.fade = transition{fade: next.fade, counter: m.cfg.Sim.FadeLen}
	}

	if m.deps.OnTransition != nil {
		m.deps.OnTransition(next.mapID, save)
	}
	m.logger.Info("map transition", "map", next.mapID, "fade", next.fade)
	return nil
}

// Status is what a tick asks the host to do.
type Status uint8

const (
	StatusGame Status = iota
	StatusNewMap
	StatusEnding
)

func (s Status) String() string {
	switch s {
	case StatusGame:
		return "game"
	case StatusNewMap:
		return "new_map"
	case StatusEnding:
		return "ending"
	}
	return "unknown"
}

// Stats is a snapshot of the map for monitors and logs.
type Stats struct {
	Frame      uint64
	Live       int
	Dead       int
	Scripts    int
	Particles  int
	Props      int
	State      core.StateFlags
	CameraX    float64
	CameraY    float64
	WaterLine  float64
	Fade       core.Fade
	FadeFrames int
	Rebuilds   int
	Assets     int
}

func (m *Map) Stats() Stats {
	return Stats{
		Frame:      m.Frame,
		Live:       len(m.live),
		Dead:       len(m.dead),
		Scripts:    len(m.scripts),
		Particles:  len(m.particles),
		Props:      len(m.active),
		State:      m.State,
		CameraX:    m.camera.X,
		CameraY:    m.camera.Y,
		WaterLine:  m.WaterLine,
		Fade:       m.fade.fade,
		FadeFrames: m.fade.counter,
		Rebuilds:   m.world.Rebuilds,
		Assets:     m.assets.Loaded(),
	}
}
