package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/vovakirdan/tidepool/internal/core"
)

var (
	// ErrUnknownOpcode is returned for a tag outside the instruction set.
	ErrUnknownOpcode = errors.New("bytecode: unknown opcode")
	// ErrTruncated is returned when a record extends past the end of the stream.
	ErrTruncated = errors.New("bytecode: truncated record")
	// ErrNotEncodable is returned for instructions that only exist at runtime.
	ErrNotEncodable = errors.New("bytecode: instruction cannot be encoded")
)

// particleSpawnSize is the encoded size of ParticleSpawn.
const particleSpawnSize = 36

// payloadSize returns the operand size of op in bytes.
func payloadSize(op Opcode) int {
	if IsSimple(op) {
		return 0
	}
	switch op {
	case OpJump, OpCall, OpExec, OpStartScript, OpWaitScript, OpStopOneScript, OpStopScripts,
		OpDelay, OpWaitState, OpAcquireState, OpReleaseState, OpForceState,
		OpSpawnActor, OpDestroyActor:
		return 4
	case OpShowDialog, OpMoveCamera, OpSetGravity, OpSetActorTarget, OpEarthquake:
		return 8
	case OpMoveWater, OpLoadMap, OpChangeMusic, OpPlaySound, OpSetActorState, OpDamageActor:
		return 12
	case OpSpawnParticles:
		return 4 + particleSpawnSize
	}
	return -1
}

type decoder struct {
	buf []byte
	off int
}

func (d *decoder) u16() uint16 {
	v := binary.BigEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v
}

func (d *decoder) u32() uint32 {
	v := binary.BigEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *decoder) i32() int32 { return int32(d.u32()) }
func (d *decoder) f32() float32 { return math.Float32frombits(d.u32()) }
func (d *decoder) target() Target { return Target(d.i32()) }

func (d *decoder) particles() ParticleSpawn {
	return ParticleSpawn{
		Gfx:               d.u16(),
		Tiles:             d.u16(),
		Flags:             d.u16(),
		InitFrame:         d.u16(),
		OffsetX:           d.i32(),
		OffsetY:           d.i32(),
		WidthVariance:     d.u16(),
		HeightVariance:    d.u16(),
		Count:             d.u16(),
		CountVariance:     d.u16(),
		Speed:             d.u16(),
		SpeedVariance:     d.u16(),
		AnimSpeed:         d.u16(),
		AnimSpeedVariance: d.u16(),
		Angle:             d.u16(),
		AngleVariance:     d.u16(),
	}
}

// Decode parses a whole script stream.
func Decode(data []byte) ([]Instr, error) {
	d := &decoder{buf: data}
	var out []Instr

	for d.off < len(d.buf) {
		start := d.off
		if d.off+4 > len(d.buf) {
			return nil, fmt.Errorf("%w: opcode at byte %d", ErrTruncated, start)
		}
		op := Opcode(d.u32())
		size := payloadSize(op)
		if size < 0 {
			return nil, fmt.Errorf("%w %d at byte %d", ErrUnknownOpcode, uint32(op), start)
		}
		if d.off+size > len(d.buf) {
			return nil, fmt.Errorf("%w: %s at byte %d", ErrTruncated, op, start)
		}
		out = append(out, d.instr(op))
	}
	return out, nil
}

func (d *decoder) instr(op Opcode) Instr {
	switch op {
	case OpJump:
		return Jump{Script: d.u32()}
	case OpCall:
		return Call{Script: d.u32()}
	case OpExec:
		return Exec{Native: d.u32()}
	case OpStartScript:
		return StartScript{Script: d.u32()}
	case OpWaitScript, OpStopOneScript, OpStopScripts:
		return ScriptRef{Op: op, ID: d.u32()}
	case OpDelay:
		return Delay{Frames: d.u32()}
	case OpWaitState, OpAcquireState, OpReleaseState, OpForceState:
		return State{Op: op, Flags: core.StateFlags(d.u32())}
	case OpShowDialog:
		return ShowDialog{Text: d.u32(), Target: d.target()}
	case OpMoveCamera:
		return MoveCamera{Target: d.target(), Speed: d.f32()}
	case OpMoveWater:
		return MoveWater{Y: d.f32(), Step: d.f32(), Color: core.ColorFromUint32(d.u32())}
	case OpSetGravity:
		return SetGravity{X: d.f32(), Y: d.f32()}
	case OpLoadMap:
		return LoadMap{Map: d.u32(), Fade: core.Fade(d.u32()), Color: core.ColorFromUint32(d.u32())}
	case OpChangeMusic:
		return ChangeMusic{Music: d.u32(), Fade: d.f32(), Flags: d.u32()}
	case OpPlaySound:
		return PlaySound{Actor: d.target(), Sound: d.u32(), Priority: d.i32()}
	case OpSpawnActor:
		return SpawnActor{Spawn: d.u32()}
	case OpSpawnParticles:
		return SpawnParticles{Target: d.target(), Spawn: d.particles()}
	case OpSetActorState:
		return SetActorState{Actor: d.target(), Mask: core.ActorFlags(d.u32()), Bits: core.ActorFlags(d.u32())}
	case OpSetActorTarget:
		return SetActorTarget{Actor: d.target(), Target: d.target()}
	case OpDamageActor:
		return DamageActor{Actor: d.target(), Damage: d.i32(), Source: core.DamageSource(d.u32())}
	case OpDestroyActor:
		return DestroyActor{Actor: d.target()}
	case OpEarthquake:
		return Earthquake{Frames: d.u32(), Strength: d.u32()}
	}
	return Simple{Op: op}
}

type encoder struct {
	out []byte
}

func (e *encoder) u16(v uint16) { e.out = binary.BigEndian.AppendUint16(e.out, v) }
func (e *encoder) u32(v uint32) { e.out = binary.BigEndian.AppendUint32(e.out, v) }
func (e *encoder) i32(v int32) { e.u32(uint32(v)) }
func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }
func (e *encoder) target(t Target) { e.i32(int32(t)) }

func (e *encoder) particles(p ParticleSpawn) {
	e.u16(p.Gfx)
	e.u16(p.Tiles)
	e.u16(p.Flags)
	e.u16(p.InitFrame)
	e.i32(p.OffsetX)
	e.i32(p.OffsetY)
	for _, v := range []uint16{
		p.WidthVariance, p.HeightVariance, p.Count, p.CountVariance,
		p.Speed, p.SpeedVariance, p.AnimSpeed, p.AnimSpeedVariance,
		p.Angle, p.AngleVariance,
	} {
		e.u16(v)
	}
}

// Encode serialises static instructions. Runtime-only instructions yield ErrNotEncodable.
func Encode(prog []Instr) ([]byte, error) {
	e := &encoder{}
	for idx, in := range prog {
		e.u32(uint32(in.Opcode()))
		switch i := in.(type) {
		case Simple:
			if !IsSimple(i.Op) {
				return nil, fmt.Errorf("%w: %s at %d has operands", ErrNotEncodable, i.Op, idx)
			}
		case Jump:
			e.u32(i.Script)
		case Call:
			e.u32(i.Script)
		case Exec:
			e.u32(i.Native)
		case StartScript:
			e.u32(i.Script)
		case ScriptRef:
			if i.Op != OpWaitScript && i.Op != OpStopOneScript && i.Op != OpStopScripts {
				return nil, fmt.Errorf("%w: script reference with opcode %s at %d", ErrNotEncodable, i.Op, idx)
			}
			e.u32(i.ID)
		case Delay:
			e.u32(i.Frames)
		case State:
			if i.Op < OpWaitState || i.Op > OpForceState {
				return nil, fmt.Errorf("%w: state operation with opcode %s at %d", ErrNotEncodable, i.Op, idx)
			}
			e.u32(uint32(i.Flags))
		case ShowDialog:
			e.u32(i.Text)
			e.target(i.Target)
		case MoveCamera:
			e.target(i.Target)
			e.f32(i.Speed)
		case MoveWater:
			e.f32(i.Y)
			e.f32(i.Step)
			e.u32(i.Color.Uint32())
		case SetGravity:
			e.f32(i.X)
			e.f32(i.Y)
		case LoadMap:
			e.u32(i.Map)
			e.u32(uint32(i.Fade))
			e.u32(i.Color.Uint32())
		case ChangeMusic:
			e.u32(i.Music)
			e.f32(i.Fade)
			e.u32(i.Flags)
		case PlaySound:
			e.target(i.Actor)
			e.u32(i.Sound)
			e.i32(i.Priority)
		case SpawnActor:
			e.u32(i.Spawn)
		case SpawnParticles:
			e.target(i.Target)
			e.particles(i.Spawn)
		case SetActorState:
			e.target(i.Actor)
			e.u32(uint32(i.Mask))
			e.u32(uint32(i.Bits))
		case SetActorTarget:
			e.target(i.Actor)
			e.target(i.Target)
		case DamageActor:
			e.target(i.Actor)
			e.i32(i.Damage)
			e.u32(uint32(i.Source))
		case DestroyActor:
			e.target(i.Actor)
		case Earthquake:
			e.u32(i.Frames)
			e.u32(i.Strength)
		default:
			return nil, fmt.Errorf("%w: %T at %d", ErrNotEncodable, in, idx)
		}
	}
	return e.out, nil
}

// Format renders one instruction for listings.
func Format(in Instr) string {
	switch i := in.(type) {
	case Simple:
		return i.Op.String()
	case Jump:
		return fmt.Sprintf("jump script=%d", i.Script)
	case Call:
		return fmt.Sprintf("call script=%d", i.Script)
	case Exec:
		return fmt.Sprintf("exec native=%d", i.Native)
	case StartScript:
		return fmt.Sprintf("start_script script=%d", i.Script)
	case ScriptRef:
		if i.ID == ScriptChild {
			return i.Op.String() + " @child"
		}
		return fmt.Sprintf("%s script=%d", i.Op, i.ID)
	case Delay:
		return fmt.Sprintf("delay frames=%d", i.Frames)
	case State:
		return fmt.Sprintf("%s flags=%#x", i.Op, uint32(i.Flags))
	case ShowDialog:
		return fmt.Sprintf("show_dialog text=%d target=%s", i.Text, i.Target)
	case MoveCamera:
		return fmt.Sprintf("move_camera target=%s speed=%g", i.Target, i.Speed)
	case MoveWater:
		return fmt.Sprintf("move_water y=%g step=%g color=%#08x", i.Y, i.Step, i.Color.Uint32())
	case SetGravity:
		return fmt.Sprintf("set_gravity x=%g y=%g", i.X, i.Y)
	case LoadMap:
		return fmt.Sprintf("load_map map=%d fade=%s", i.Map, i.Fade)
	case ChangeMusic:
		return fmt.Sprintf("change_music music=%d fade=%g", i.Music, i.Fade)
	case PlaySound:
		return fmt.Sprintf("play_sound actor=%s sound=%d priority=%d", i.Actor, i.Sound, i.Priority)
	case SpawnActor:
		return fmt.Sprintf("spawn_actor spawn=%d", i.Spawn)
	case SpawnParticles:
		return fmt.Sprintf("spawn_particles target=%s count=%d", i.Target, i.Spawn.Count)
	case SetActorState:
		return fmt.Sprintf("set_actor_state actor=%s mask=%#x bits=%#x", i.Actor, uint32(i.Mask), uint32(i.Bits))
	case SetActorTarget:
		return fmt.Sprintf("set_actor_target actor=%s target=%s", i.Actor, i.Target)
	case DamageActor:
		return fmt.Sprintf("damage_actor actor=%s damage=%d", i.Actor, i.Damage)
	case DestroyActor:
		return fmt.Sprintf("destroy_actor actor=%s", i.Actor)
	case Earthquake:
		return fmt.Sprintf("earthquake frames=%d strength=%d", i.Frames, i.Strength)
	}
	return in.Opcode().String()
}
