// Package mapasset defines the compiled map format. A map is a single
// big-endian blob; Decode resolves every offset in it exactly once into the
// typed values of Asset, and Encode performs the inverse.
package mapasset

import (
	"errors"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/core"
)

// Magic is "TMAP".
const Magic uint32 = 0x544d4150

// NoWater is the water line of maps without water.
const NoWater int32 = -0x80000000

// NoWaypoint marks a waypoint without successor and a platform without path.
const NoWaypoint = -1

const (
	// ChunkTiles is the number of tile ids per chunk layer.
	ChunkTiles = core.ChunkTiles
	headerSize = 92
)

var (
	// ErrBadMagic is returned when the blob does not start with Magic.
	ErrBadMagic = errors.New("mapasset: bad magic")
	// ErrOutOfRange is returned for offsets or counts that point outside the blob.
	ErrOutOfRange = errors.New("mapasset: offset out of range")
	// ErrSource is returned for semantic errors in a map source.
	ErrSource = errors.New("mapasset: invalid source")
)

// Tileset maps a tile id range to an image.
type Tileset struct {
	FirstTID uint16
	EndTID   uint16
	XMask    uint8
	YShift   uint8
	Image    uint32
}

// Background is a parallax layer.
type Background struct {
	OffsetX, OffsetY         float32
	AutoscrollX, AutoscrollY float32
	ParallaxX, ParallaxY     float32
	ClearTop, ClearBottom    core.Color
	Layer                    uint8
	RepeatX, RepeatY         bool
	Image                    uint32
	AnimTiles                uint32
}

// Prop is static decoration inside a chunk.
type Prop struct {
	Layer uint32
	X, Y  int32
	W, H  uint32
	Image uint32
	Tiles uint32
}

// Chunk is one 256x256 pixel cell of the map.
type Chunk struct {
	X, Y    int16
	PX, PY  int32
	FgLayer uint8
	Layers  [][]uint16
	Props   []Prop
}

// Waypoint is a point on a camera or platform path.
type Waypoint struct {
	X, Y int32
	Next int
}

// SpawnArg is the per-type payload of a spawn record.
type SpawnArg interface {
	ArgKind() string
}

// TriggerArg is the payload of trigger spawns: a static script and the
// sensor volume relative to the spawn position.
type TriggerArg struct {
	Script    uint32
	Collision *collision.Set
}

func (TriggerArg) ArgKind() string { return "trigger" }

// PlatformArg is the payload of moving platforms. Speed is in 1/16 pixels per frame.
type PlatformArg struct {
	Waypoint int
	Speed    uint16
}

func (PlatformArg) ArgKind() string { return "platform" }

// DefaultPlatformSpeed is one pixel per frame.
const DefaultPlatformSpeed = 0x10

// Spawn is an actor spawn record.
type Spawn struct {
	Type     core.ActorType
	X, Y     int32
	Flags    core.ActorFlags
	ID       uint16
	Rotation uint16
	Arg      SpawnArg
}

// Asset is a decoded map.
type Asset struct {
	LowerX, LowerY int16
	Width, Height  uint16
	Music          uint32
	Startup        uint32
	ParallaxX      int32
	ParallaxY      int32
	CameraX        int32
	CameraY        int32
	WaterLine      int32
	WaterColor     core.Color
	GravityX       float32
	GravityY       float32
	Tilesets       []Tileset
	Backgrounds    []Background
	Chunks         []*Chunk
	Waypoints      []Waypoint
	Scripts        [][]bytecode.Instr
	Texts          []string
	Spawns         []Spawn
	SpawnInit      int
	Collision      *collision.Set
}

// HasWater reports whether the map has a water line.
func (a *Asset) HasWater() bool {
	return a.WaterLine != NoWater
}
