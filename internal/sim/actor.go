package sim

import (
	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/arena"
	"github.com/vovakirdan/tidepool/internal/assets"
	"github.com/vovakirdan/tidepool/internal/cache"
	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

// TickFunc is a per-frame actor hook.
type TickFunc func(m *Map, a *Actor)

// DrawFunc draws one actor.
type DrawFunc func(m *Map, a *Actor, r Renderer)

// ActorState is the class-specific part of an actor.
type ActorState interface {
	actorState()
}

// Actor is a live or dying entity of the map.
type Actor struct {
	Type      core.ActorType
	ID        uint16
	Flags     core.ActorFlags
	Class     *Class
	Body      *box2d.B2Body
	Collision *collision.Set
	Channel   core.Channel
	Anim      SpriteAnim
	Model     *cache.Entry[*assets.Model]
	State     ActorState

	Ticker   TickFunc
	Drawer   DrawFunc
	Collider CollideFunc

	handle arena.Handle
}

// Handle returns the generation-checked reference to a.
func (a *Actor) Handle() arena.Handle {
	return a.handle
}

// Destroying reports whether Destroy has been called on a.
func (a *Actor) Destroying() bool {
	return a.Flags.Any(core.AFDestroying)
}

// SpriteAnim animates an actor, prop or particle through a tile set.
type SpriteAnim struct {
	Image   *cache.Entry[*assets.Image]
	Tiles   *cache.Entry[*assets.Tiles]
	Frame   uint16
	Counter float64
	Speed   float64
}

func (s *SpriteAnim) frames() []assets.Frame {
	if s.Tiles == nil {
		return nil
	}
	return s.Tiles.Value().Frames
}

// Current returns the frame being shown, or nil without a tile set.
func (s *SpriteAnim) Current() *assets.Frame {
	frames := s.frames()
	if int(s.Frame) >= len(frames) {
		return nil
	}
	return &frames[s.Frame]
}

// Tick advances the animation by one frame and reports whether the shown
// frame changed.
func (s *SpriteAnim) Tick() bool {
	f := s.Current()
	if f == nil || f.Duration == 0 {
		return false
	}
	if s.Counter >= float64(f.Duration) {
		s.Frame = f.Next
		s.Counter -= float64(f.Duration)
		return true
	}
	s.Counter += s.Speed
	return false
}

// SetFrame jumps to frame and restarts its counter. Frames outside the tile
// set are ignored.
func (s *SpriteAnim) SetFrame(frame uint16) bool {
	if int(frame) >= len(s.frames()) {
		return false
	}
	s.Frame = frame
	s.Counter = 0
	return true
}

// Collision returns the collision set of the current frame.
func (s *SpriteAnim) Collision() *collision.Set {
	if f := s.Current(); f != nil {
		return f.Collision
	}
	return nil
}

func (m *Map) releaseAnim(s *SpriteAnim) {
	m.assets.Sprites.Unload(s.Image)
	m.assets.Tilesets.Unload(s.Tiles)
	s.Image = nil
	s.Tiles = nil
}

// Spawn creates an actor from a spawn record.
func (m *Map) Spawn(spawn *mapasset.Spawn) *Actor {
	core.Assertf(spawn.Type < core.ActorTypeCount, "spawn: actor type %d out of range", uint32(spawn.Type))
	cls := &classes[spawn.Type]
	core.Assertf(cls.NewState != nil, "spawn: class %s has no state", cls.Name)

	sp := *spawn
	h, a := m.actors.Alloc()
	a.handle = h
	m.live = pushFront(m.live, h)

	a.Type = sp.Type
	a.ID = sp.ID
	a.Class = cls
	a.Channel = core.NoChannel
	a.Flags = cls.Flags | sp.Flags
	a.State = cls.NewState()
	a.Ticker = cls.Tick
	a.Drawer = cls.Draw
	a.Collider = cls.Collide

	if cls.Init != nil {
		cls.Init(m, a, &sp)
	}
	m.world.LinkActor(a, float64(sp.X), float64(sp.Y), core.Ang16ToRadians(sp.Rotation))

	if a.Flags.Any(core.AFCurPlayer) {
		if prev := m.Player(); prev != nil && prev != a {
			prev.Flags &^= core.AFCurPlayer
		}
		m.player = h
		m.cameraTarget = h
		if m.hudPlayer.IsNil() {
			m.hudPlayer = h
		}
	}
	m.logger.Debug("actor spawned", "type", sp.Type, "id", sp.ID, "x", sp.X, "y", sp.Y)
	return a
}

// initSprite loads the class sprite and tile set, applies the tile offset
// to the spawn position and takes the collision set of the first frame.
func (m *Map) initSprite(a *Actor, spawn *mapasset.Spawn) {
	cls := a.Class
	a.Anim.Image = m.assets.Sprites.Load(cls.Gfx)
	a.Anim.Tiles = m.assets.Tilesets.Load(cls.Tiles)
	a.Anim.Speed = 1
	if f := a.Anim.Current(); f != nil {
		spawn.X -= int32(f.OffsetX)
		spawn.Y -= int32(f.OffsetY)
	}
	a.Collision = a.Anim.Collision()
}

// tickSprite animates a and rebuilds its fixtures when the frame's
// collision set differs from the attached one.
func tickSprite(m *Map, a *Actor) {
	a.Anim.Tick()
	m.syncCollision(a)
}

func (m *Map) syncCollision(a *Actor) {
	if set := a.Anim.Collision(); set != a.Collision {
		a.Collision = set
		m.world.UpdateActorCollision(a)
	}
}

// SetSpriteFrame shows frame on a and syncs its collision.
func (m *Map) SetSpriteFrame(a *Actor, frame uint16) bool {
	if !a.Anim.SetFrame(frame) {
		return false
	}
	m.syncCollision(a)
	return true
}

// Destroy schedules a for removal. Calling it again is a no-op.
func (m *Map) Destroy(a *Actor) {
	if a.Flags.Any(core.AFDestroying) {
		return
	}
	a.Flags |= core.AFDestroying
	if a.Flags.Any(core.AFCollisionOwned) {
		a.Collision = nil
	}
	if a.Channel != core.NoChannel {
		m.audio.ReleaseChannel(a.Channel)
		a.Channel = core.NoChannel
	}
	a.Ticker = nil
	a.Drawer = nil
	a.Collider = nil

	m.live = removeHandle(m.live, a.handle)
	m.dead = pushFront(m.dead, a.handle)

	for _, s := range m.scripts {
		if s.caller == a.handle {
			s.caller = arena.Nil
		}
	}
	if m.player == a.handle {
		m.player = arena.Nil
	}
	if m.hudPlayer == a.handle {
		m.hudPlayer = arena.Nil
		m.HUDCounter = 0
	}
	if m.cameraTarget == a.handle {
		m.cameraTarget = arena.Nil
	}
	if m.dialog.target == a.handle {
		m.dialog.target = arena.Nil
	}
	m.logger.Debug("actor destroyed", "type", a.Type, "id", a.ID)
}

// pushFront inserts h at the head of list.
func pushFront(list []arena.Handle, h arena.Handle) []arena.Handle {
	list = append(list, arena.Nil)
	copy(list[1:], list)
	list[0] = h
	return list
}

func removeHandle(list []arena.Handle, h arena.Handle) []arena.Handle {
	for i, cur := range list {
		if cur == h {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// reap detaches the bodies of actors destroyed this frame and finalizes
// the ones destroyed in an earlier frame.
func (m *Map) reap() {
	pending := append([]arena.Handle(nil), m.dead...)
	for _, h := range pending {
		a := m.actors.Get(h)
		if a == nil {
			continue
		}
		if a.Flags.Any(core.AFDestroyed) {
			m.finalize(a)
			continue
		}
		a.Flags |= core.AFDestroyed
		m.world.DestroyBody(a)
	}
}

func (m *Map) finalize(a *Actor) {
	if a.Class.Cleanup != nil {
		a.Class.Cleanup(m, a)
	}
	m.releaseAnim(&a.Anim)
	m.assets.Models.Unload(a.Model)
	a.Model = nil
	m.world.DestroyBody(a)

	h := a.handle
	m.dead = removeHandle(m.dead, h)
	m.live = removeHandle(m.live, h)
	m.actors.Free(h)
}

// Actor resolves a handle. Stale handles yield nil.
func (m *Map) Actor(h arena.Handle) *Actor {
	return m.actors.Get(h)
}

// ActorByID returns the first live actor with the given id.
func (m *Map) ActorByID(id uint16) *Actor {
	for _, h := range m.live {
		if a := m.actors.Get(h); a != nil && a.ID == id {
			return a
		}
	}
	return nil
}

// LiveActors returns the live actors head first: the most recently spawned
// actor comes first.
func (m *Map) LiveActors() []*Actor {
	return m.resolve(m.live)
}

// DeadActors returns actors waiting to be finalized.
func (m *Map) DeadActors() []*Actor {
	return m.resolve(m.dead)
}

func (m *Map) resolve(list []arena.Handle) []*Actor {
	out := make([]*Actor, 0, len(list))
	for _, h := range list {
		if a := m.actors.Get(h); a != nil {
			out = append(out, a)
		}
	}
	return out
}

// actorsWithID calls fn for every live actor with the given id.
func (m *Map) actorsWithID(id uint16, fn func(a *Actor)) {
	for _, a := range m.LiveActors() {
		if a.ID == id && !a.Destroying() {
			fn(a)
		}
	}
}

// Player returns the actor controlled by the input, if any.
func (m *Map) Player() *Actor {
	return m.actors.Get(m.player)
}

// HUDPlayer returns the actor whose counters the HUD shows.
func (m *Map) HUDPlayer() *Actor {
	return m.actors.Get(m.hudPlayer)
}

// CameraTarget returns the actor the camera follows.
func (m *Map) CameraTarget() *Actor {
	return m.actors.Get(m.cameraTarget)
}

// ActorPlayFX plays sound at the actor position and keeps the channel so
// it follows the actor.
func (m *Map) ActorPlayFX(a *Actor, sound uint32, priority int32) {
	if a.Channel != core.NoChannel {
		m.audio.ReleaseChannel(a.Channel)
	}
	x, y := m.world.Center(a)
	a.Channel = m.audio.PlayFX(sound, x, y, priority)
}
