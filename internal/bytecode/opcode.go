// Package bytecode defines the script instruction set and the binary record
// layout scripts are stored in: a 32-bit big-endian opcode tag followed by
// fixed opcode-specific fields.
package bytecode

import (
	"fmt"
	"math"
)

// Opcode identifies an instruction. The numbering is part of the map format.
type Opcode uint32

const (
	OpNoop Opcode = iota
	OpExit
	OpRet
	OpJump
	OpCall
	OpExec
	OpSingleton
	OpStartScript
	OpWaitScript
	OpStopOneScript
	OpStopScripts
	OpStopAllScripts
	OpDelay
	OpWaitState
	OpAcquireState
	OpReleaseState
	OpForceState
	OpShowDialog
	OpWaitDialog
	OpMoveCamera
	OpMoveWater
	OpSetGravity
	OpLoadMap
	OpChangeMusic
	OpPlaySound
	OpSpawnActor
	OpSpawnParticles
	OpSetActorState
	OpSetActorTarget
	OpDamageActor
	OpDestroyActor
	OpEarthquake
	OpWaitEarthquake

	opcodeCount
)

var opcodeNames = [opcodeCount]string{
	"noop",
	"exit",
	"return",
	"jump",
	"call",
	"exec",
	"singleton",
	"start_script",
	"wait_script",
	"stop_one_script",
	"stop_scripts",
	"stop_all_scripts",
	"delay",
	"wait_state",
	"acquire_state",
	"release_state",
	"force_state",
	"show_dialog",
	"wait_dialog",
	"move_camera",
	"move_water",
	"set_gravity",
	"load_map",
	"change_music",
	"play_sound",
	"spawn_actor",
	"spawn_particles",
	"set_actor_state",
	"set_actor_target",
	"damage_actor",
	"destroy_actor",
	"earthquake",
	"wait_earthquake",
}

// String returns the command name used in map sources.
func (op Opcode) String() string {
	if op < opcodeCount {
		return opcodeNames[op]
	}
	return fmt.Sprintf("op(%d)", uint32(op))
}

// Valid reports whether op is part of the instruction set.
func (op Opcode) Valid() bool {
	return op < opcodeCount
}

// ParseOpcode looks up an opcode by command name.
func ParseOpcode(name string) (Opcode, bool) {
	for i, n := range opcodeNames {
		if n == name {
			return Opcode(i), true
		}
	}
	return 0, false
}

// Target is the signed id space used by camera, dialog and actor operands:
// 0 is the origin, positive values are actor ids, negative values address
// waypoint -(v+1), and two reserved values name the camera and the caller.
type Target int32

const (
	TargetOrigin Target = 0
	TargetCamera Target = -0x80000000
	TargetCaller Target = -0x7fffffff
)

// WaypointTarget returns the target addressing waypoint index i.
func WaypointTarget(i int) Target {
	return Target(-(i + 1))
}

// IsWaypoint reports whether t addresses a waypoint.
func (t Target) IsWaypoint() bool {
	return t < 0 && t != TargetCamera && t != TargetCaller
}

// Waypoint returns the waypoint index addressed by t.
func (t Target) Waypoint() int {
	return int(-t) - 1
}

// IsActor reports whether t addresses an actor id.
func (t Target) IsActor() bool {
	return t > 0
}

func (t Target) String() string {
	switch {
	case t == TargetOrigin:
		return "@origin"
	case t == TargetCamera:
		return "@camera"
	case t == TargetCaller:
		return "@caller"
	case t.IsWaypoint():
		return fmt.Sprintf("waypoint[%d]", t.Waypoint())
	default:
		return fmt.Sprintf("actor#%d", int32(t))
	}
}

const (
	// ScriptChild addresses the running instance's child in wait/stop operations.
	ScriptChild uint32 = 0xffffffff
	// InvalidScript marks "no startup script" in the map header.
	InvalidScript uint32 = 0xffffffff
)

// NoWaterY leaves the water line untouched in MoveWater.
const NoWaterY float32 = math.MaxFloat32
