package bytecode

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/vovakirdan/tidepool/internal/core"
)

func TestOpcodeNumbering(t *testing.T) {
	tests := []struct {
		op   Opcode
		want uint32
		name string
	}{
		{OpNoop, 0, "noop"},
		{OpExec, 5, "exec"},
		{OpDelay, 12, "delay"},
		{OpShowDialog, 17, "show_dialog"},
		{OpSpawnActor, 25, "spawn_actor"},
		{OpWaitEarthquake, 32, "wait_earthquake"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if uint32(tt.op) != tt.want {
				t.Errorf("%s = %d, expected %d", tt.name, uint32(tt.op), tt.want)
			}
			if got, ok := ParseOpcode(tt.name); !ok || got != tt.op {
				t.Errorf("ParseOpcode(%q) = %v, %v", tt.name, got, ok)
			}
		})
	}
}

func TestTargetSentinels(t *testing.T) {
	camera, caller := TargetCamera, TargetCaller
	if uint32(camera) != 0x80000000 {
		t.Errorf("TargetCamera = %#x", uint32(camera))
	}
	if uint32(caller) != 0x80000001 {
		t.Errorf("TargetCaller = %#x", uint32(caller))
	}

	wp := WaypointTarget(3)
	if !wp.IsWaypoint() || wp.Waypoint() != 3 || int32(wp) != -4 {
		t.Errorf("WaypointTarget(3) = %d", int32(wp))
	}
	if TargetCamera.IsWaypoint() || TargetCaller.IsWaypoint() {
		t.Error("sentinels must not address waypoints")
	}
	if !Target(12).IsActor() || TargetOrigin.IsActor() {
		t.Error("IsActor misclassified")
	}
}

// The scenario script from the lock test: acquire, delay, release, exit.
func TestEncodeLayout(t *testing.T) {
	prog := []Instr{
		State{Op: OpAcquireState, Flags: 0x1},
		Delay{Frames: 2},
		State{Op: OpReleaseState, Flags: 0x1},
		Simple{Op: OpExit},
	}
	data, err := Encode(prog)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	expected := []uint32{14, 1, 12, 2, 15, 1, 1}
	if len(data) != len(expected)*4 {
		t.Fatalf("encoded %d bytes, expected %d", len(data), len(expected)*4)
	}
	for i, want := range expected {
		if got := binary.BigEndian.Uint32(data[i*4:]); got != want {
			t.Errorf("word %d = %d, expected %d", i, got, want)
		}
	}

	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(decoded) != len(prog) {
		t.Fatalf("decoded %d instructions, expected %d", len(decoded), len(prog))
	}
	for i := range prog {
		if decoded[i] != prog[i] {
			t.Errorf("instruction %d = %#v, expected %#v", i, decoded[i], prog[i])
		}
	}
}

func TestDecodeOperands(t *testing.T) {
	prog := []Instr{
		ShowDialog{Text: 4, Target: TargetCaller},
		MoveWater{Y: NoWaterY, Step: 0.5, Color: core.Color{R: 1, G: 2, B: 3, A: 4}},
		LoadMap{Map: 2, Fade: core.FadeInOutWipe, Color: core.Color{A: 255}},
		SpawnParticles{Target: WaypointTarget(0), Spawn: ParticleSpawn{
			Gfx: 3, Tiles: 4, Count: 8, CountVariance: 2, OffsetX: -5, AngleVariance: 0xffff,
		}},
		SetActorState{Actor: 7, Mask: ^core.AFSolid, Bits: core.AFNoCollide},
		DamageActor{Actor: TargetCaller, Damage: -10, Source: core.DamagePhysical},
		ScriptRef{Op: OpWaitScript, ID: ScriptChild},
		Earthquake{Frames: 30, Strength: 4},
	}
	data, err := Encode(prog)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	for i := range prog {
		if decoded[i] != prog[i] {
			t.Errorf("instruction %d = %#v, expected %#v", i, decoded[i], prog[i])
		}
	}
}

type runtimeOnly struct{}

func (runtimeOnly) Opcode() Opcode { return OpExec }

func TestCodecErrors(t *testing.T) {
	t.Run("unknown opcode", func(t *testing.T) {
		_, err := Decode(binary.BigEndian.AppendUint32(nil, 99))
		if !errors.Is(err, ErrUnknownOpcode) {
			t.Errorf("Decode() error = %v", err)
		}
	})
	t.Run("truncated operand", func(t *testing.T) {
		data := binary.BigEndian.AppendUint32(nil, uint32(OpDelay))
		_, err := Decode(append(data, 0, 0))
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("Decode() error = %v", err)
		}
	})
	t.Run("runtime instruction", func(t *testing.T) {
		_, err := Encode([]Instr{runtimeOnly{}})
		if !errors.Is(err, ErrNotEncodable) {
			t.Errorf("Encode() error = %v", err)
		}
	})
	t.Run("simple with operands", func(t *testing.T) {
		_, err := Encode([]Instr{Simple{Op: OpJump}})
		if !errors.Is(err, ErrNotEncodable) {
			t.Errorf("Encode() error = %v", err)
		}
	})
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   Instr
		want string
	}{
		{Simple{Op: OpRet}, "return"},
		{ScriptRef{Op: OpStopScripts, ID: ScriptChild}, "stop_scripts @child"},
		{MoveCamera{Target: TargetCamera, Speed: 2}, "move_camera target=@camera speed=2"},
		{Delay{Frames: 60}, "delay frames=60"},
	}
	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%#v) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}
