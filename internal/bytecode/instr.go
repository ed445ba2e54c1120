package bytecode

import (
	"github.com/vovakirdan/tidepool/internal/core"
)

// Instr is one decoded instruction. The types in this package are the static
// records stored in map assets; the simulation adds resolved variants of its
// own that never appear in a blob.
type Instr interface {
	Opcode() Opcode
}

// Simple is an instruction without operands: noop, exit, return, singleton,
// stop_all_scripts, wait_dialog and wait_earthquake.
type Simple struct {
	Op Opcode
}

func (i Simple) Opcode() Opcode { return i.Op }

// IsSimple reports whether op carries no operands.
func IsSimple(op Opcode) bool {
	switch op {
	case OpNoop, OpExit, OpRet, OpSingleton, OpStopAllScripts, OpWaitDialog, OpWaitEarthquake:
		return true
	}
	return false
}

// Jump continues execution at the start of a static script.
type Jump struct {
	Script uint32
}

func (Jump) Opcode() Opcode { return OpJump }

// Call pushes the return address and jumps to a static script.
type Call struct {
	Script uint32
}

func (Call) Opcode() Opcode { return OpCall }

// Exec invokes a native function registered under Native.
type Exec struct {
	Native uint32
}

func (Exec) Opcode() Opcode { return OpExec }

// StartScript starts a static script as a child of the running instance.
type StartScript struct {
	Script uint32
}

func (StartScript) Opcode() Opcode { return OpStartScript }

// ScriptRef is wait_script, stop_one_script or stop_scripts. ID may be ScriptChild.
type ScriptRef struct {
	Op Opcode
	ID uint32
}

func (i ScriptRef) Opcode() Opcode { return i.Op }

// Delay suspends the instance for Frames ticks.
type Delay struct {
	Frames uint32
}

func (Delay) Opcode() Opcode { return OpDelay }

// State is wait_state, acquire_state, release_state or force_state.
type State struct {
	Op    Opcode
	Flags core.StateFlags
}

func (i State) Opcode() Opcode { return i.Op }

// ShowDialog displays text Text, anchored to Target (caller or an actor id).
type ShowDialog struct {
	Text   uint32
	Target Target
}

func (ShowDialog) Opcode() Opcode { return OpShowDialog }

type MoveCamera struct {
	Target Target
	Speed  float32
}

func (MoveCamera) Opcode() Opcode { return OpMoveCamera }

// MoveWater sets a new water line (unless Y is NoWaterY) and, when Color has
// a non-zero alpha, a new water color.
type MoveWater struct {
	Y     float32
	Step  float32
	Color core.Color
}

func (MoveWater) Opcode() Opcode { return OpMoveWater }

type SetGravity struct {
	X, Y float32
}

func (SetGravity) Opcode() Opcode { return OpSetGravity }

type LoadMap struct {
	Map   uint32
	Fade  core.Fade
	Color core.Color
}

func (LoadMap) Opcode() Opcode { return OpLoadMap }

type ChangeMusic struct {
	Music uint32
	Fade  float32
	Flags uint32
}

func (ChangeMusic) Opcode() Opcode { return OpChangeMusic }

// PlaySound plays Sound on an actor id or TargetCaller.
type PlaySound struct {
	Actor    Target
	Sound    uint32
	Priority int32
}

func (PlaySound) Opcode() Opcode { return OpPlaySound }

// SpawnActor spawns record Spawn of the map's spawn table.
type SpawnActor struct {
	Spawn uint32
}

func (SpawnActor) Opcode() Opcode { return OpSpawnActor }

// Particle flags.
const (
	ParticleFlipX      uint16 = 1 << 0
	ParticleFlipY      uint16 = 1 << 1
	ParticleFlipD      uint16 = 1 << 2
	ParticleRandomFlip uint16 = 1 << 3
	ParticleLayer1     uint16 = 1 << 6
	ParticleLooped     uint16 = 1 << 7
)

// ParticleSpawn describes a burst of particles. Variances spread the value
// uniformly around its base. Speeds are 8.8 fixed point.
type ParticleSpawn struct {
	Gfx               uint16
	Tiles             uint16
	Flags             uint16
	InitFrame         uint16
	OffsetX           int32
	OffsetY           int32
	WidthVariance     uint16
	HeightVariance    uint16
	Count             uint16
	CountVariance     uint16
	Speed             uint16
	SpeedVariance     uint16
	AnimSpeed         uint16
	AnimSpeedVariance uint16
	Angle             uint16
	AngleVariance     uint16
}

type SpawnParticles struct {
	Target Target
	Spawn  ParticleSpawn
}

func (SpawnParticles) Opcode() Opcode { return OpSpawnParticles }

// SetActorState computes flags = (flags & Mask) | Bits on the addressed actors.
type SetActorState struct {
	Actor Target
	Mask  core.ActorFlags
	Bits  core.ActorFlags
}

func (SetActorState) Opcode() Opcode { return OpSetActorState }

type SetActorTarget struct {
	Actor  Target
	Target Target
}

func (SetActorTarget) Opcode() Opcode { return OpSetActorTarget }

type DamageActor struct {
	Actor  Target
	Damage int32
	Source core.DamageSource
}

func (DamageActor) Opcode() Opcode { return OpDamageActor }

type DestroyActor struct {
	Actor Target
}

func (DestroyActor) Opcode() Opcode { return OpDestroyActor }

// Earthquake raises the quake counter and strength to at least the given values.
type Earthquake struct {
	Frames   uint32
	Strength uint32
}

func (Earthquake) Opcode() Opcode { return OpEarthquake }
