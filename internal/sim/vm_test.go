package sim

import (
	"math"
	"testing"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

func TestCallReturn(t *testing.T) {
	m := newTestMap(t, testAsset(
		[]bytecode.Instr{
			bytecode.Call{Script: 1},
			bytecode.State{Op: bytecode.OpForceState, Flags: 0x100},
			exit(),
		},
		[]bytecode.Instr{
			bytecode.Call{Script: 2},
			bytecode.State{Op: bytecode.OpForceState, Flags: 0x200},
			simple(bytecode.OpRet),
		},
		[]bytecode.Instr{
			bytecode.Delay{Frames: 0},
			simple(bytecode.OpRet),
		},
	), nil)

	s := m.StartScript(0, nil)
	if s == nil {
		t.Fatal("script exited at start")
	}
	if s.Depth() != 2 {
		t.Fatalf("depth = %d, expected 2", s.Depth())
	}
	m.Tick(core.NewInputFrame())
	if m.State&0x300 != 0x300 {
		t.Errorf("state = %#x, expected both markers", uint32(m.State))
	}
	if s.Active() {
		t.Error("instance still active after unwinding")
	}
}

func TestRetOnEmptyStackExits(t *testing.T) {
	m := newTestMap(t, testAsset([]bytecode.Instr{simple(bytecode.OpRet)}), nil)
	if s := m.StartScript(0, nil); s != nil {
		t.Error("return at depth 0 did not exit")
	}
}

func TestReturnStackOverflow(t *testing.T) {
	var scripts [][]bytecode.Instr
	for i := range returnStackDepth + 1 {
		scripts = append(scripts, []bytecode.Instr{bytecode.Call{Script: uint32(i + 1)}, simple(bytecode.OpRet)})
	}
	scripts = append(scripts, []bytecode.Instr{simple(bytecode.OpRet)})
	m := newTestMap(t, testAsset(scripts...), nil)

	mustPanic(t, func() { m.StartScript(0, nil) })
}

func TestNestedCallsWithinDepth(t *testing.T) {
	var scripts [][]bytecode.Instr
	for i := range returnStackDepth {
		scripts = append(scripts, []bytecode.Instr{bytecode.Call{Script: uint32(i + 1)}, simple(bytecode.OpRet)})
	}
	scripts = append(scripts, []bytecode.Instr{simple(bytecode.OpRet)})
	m := newTestMap(t, testAsset(scripts...), nil)

	if s := m.StartScript(0, nil); s != nil {
		t.Error("fully unwound program still running")
	}
}

func TestRunPastEndIsFatal(t *testing.T) {
	m := newTestMap(t, testAsset([]bytecode.Instr{simple(bytecode.OpNoop)}), nil)
	mustPanic(t, func() { m.StartScript(0, nil) })
}

func TestInvalidScriptIDIsFatal(t *testing.T) {
	m := newTestMap(t, testAsset([]bytecode.Instr{exit()}), nil)
	mustPanic(t, func() { m.StartScript(3, nil) })
	mustPanic(t, func() {
		m.StartDynamic(NewBuilder().FinishJump(m, 9), nil)
	})
}

func TestStartAndWaitChild(t *testing.T) {
	m := newTestMap(t, testAsset(
		[]bytecode.Instr{
			bytecode.StartScript{Script: 1},
			bytecode.ScriptRef{Op: bytecode.OpWaitScript, ID: bytecode.ScriptChild},
			bytecode.State{Op: bytecode.OpForceState, Flags: 0x100},
			exit(),
		},
		[]bytecode.Instr{bytecode.Delay{Frames: 1}, exit()},
	), nil)

	parent := m.StartScript(0, nil)
	child := parent.Child()
	if child == nil || child.Parent() != parent {
		t.Fatal("child not linked to its parent")
	}
	if len(m.Scripts()) != 2 {
		t.Fatalf("scripts = %d, expected 2", len(m.Scripts()))
	}
	m.Tick(core.NewInputFrame())
	if m.State&0x100 != 0 {
		t.Fatal("parent resumed while the child was running")
	}
	tickN(m, 2)
	if m.State&0x100 == 0 || parent.Active() || child.Active() {
		t.Errorf("state %#x parent %v child %v", uint32(m.State), parent.Active(), child.Active())
	}
}

func TestStopScripts(t *testing.T) {
	idle := []bytecode.Instr{bytecode.Delay{Frames: 100}, exit()}
	tests := []struct {
		name string
		stop bytecode.Instr
		left int
	}{
		{"stop all keeps self", simple(bytecode.OpStopAllScripts), 1},
		{"stop one", bytecode.ScriptRef{Op: bytecode.OpStopOneScript, ID: 1}, 3},
		{"stop every instance", bytecode.ScriptRef{Op: bytecode.OpStopScripts, ID: 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMap(t, testAsset(
				[]bytecode.Instr{tt.stop, bytecode.Delay{Frames: 100}, exit()},
				idle,
				idle,
			), nil)
			m.StartScript(1, nil)
			m.StartScript(1, nil)
			m.StartScript(2, nil)
			self := m.StartScript(0, nil)
			if !self.Active() {
				t.Fatal("stopping instance exited")
			}
			if got := len(m.Scripts()); got != tt.left {
				t.Errorf("scripts left = %d, expected %d", got, tt.left)
			}
		})
	}
}

func TestStopOwnProgramExits(t *testing.T) {
	m := newTestMap(t, testAsset([]bytecode.Instr{
		bytecode.ScriptRef{Op: bytecode.OpStopScripts, ID: 0},
		bytecode.State{Op: bytecode.OpForceState, Flags: 0x100},
		exit(),
	}), nil)
	if s := m.StartScript(0, nil); s != nil {
		t.Error("instance survived stopping its own program")
	}
	if m.State&0x100 != 0 {
		t.Error("instruction after the stop ran")
	}
}

func TestWaitScriptByID(t *testing.T) {
	m := newTestMap(t, testAsset(
		[]bytecode.Instr{
			bytecode.ScriptRef{Op: bytecode.OpWaitScript, ID: 1},
			bytecode.State{Op: bytecode.OpForceState, Flags: 0x100},
			exit(),
		},
		[]bytecode.Instr{bytecode.Delay{Frames: 1}, exit()},
	), nil)
	m.StartScript(1, nil)
	m.StartScript(0, nil)
	tickN(m, 1)
	if m.State&0x100 != 0 {
		t.Fatal("wait_script returned while the script was running")
	}
	tickN(m, 2)
	if m.State&0x100 == 0 {
		t.Error("wait_script never returned")
	}
}

func TestAcquireWaitsForRelease(t *testing.T) {
	m := newTestMap(t, testAsset(
		[]bytecode.Instr{
			bytecode.State{Op: bytecode.OpAcquireState, Flags: 0x100},
			bytecode.Delay{Frames: 1},
			bytecode.State{Op: bytecode.OpReleaseState, Flags: 0x100},
			exit(),
		},
		[]bytecode.Instr{
			bytecode.State{Op: bytecode.OpAcquireState, Flags: 0x100},
			bytecode.State{Op: bytecode.OpForceState, Flags: 0x200},
			bytecode.State{Op: bytecode.OpReleaseState, Flags: 0x100},
			exit(),
		},
	), nil)
	m.StartScript(0, nil)
	second := m.StartScript(1, nil)
	if second == nil || m.State&0x200 != 0 {
		t.Fatal("second instance acquired a held state")
	}
	tickN(m, 4)
	if m.State&0x200 == 0 || m.State&0x100 != 0 {
		t.Errorf("state = %#x", uint32(m.State))
	}
}

func TestReleaseUnheldStateIsFatal(t *testing.T) {
	m := newTestMap(t, testAsset([]bytecode.Instr{
		bytecode.State{Op: bytecode.OpReleaseState, Flags: 0x100},
		exit(),
	}), nil)
	mustPanic(t, func() { m.StartScript(0, nil) })
}

func TestExecWaitRetries(t *testing.T) {
	calls := 0
	b := NewBuilder()
	b.PushExec(func(m *Map, s *Script) Result {
		calls++
		if calls < 3 {
			return Wait
		}
		return Continue
	})
	prog := b.FinishExit()
	m := newTestMap(t, testAsset(), nil)

	s := m.StartDynamic(prog, nil)
	prog.Unref()
	if s == nil || s.PC() != 0 {
		t.Fatal("waiting exec advanced")
	}
	tickN(m, 2)
	if calls != 3 || s.Active() {
		t.Errorf("calls = %d, active = %v", calls, s.Active())
	}
	if !prog.Released() {
		t.Error("program not released after its last instance ended")
	}
}

func TestNatives(t *testing.T) {
	asset := testAsset(
		[]bytecode.Instr{bytecode.Exec{Native: NativeEndGame}, exit()},
		[]bytecode.Instr{bytecode.Exec{Native: NativeHealPlayer}, exit()},
		[]bytecode.Instr{bytecode.Exec{Native: NativeSaveProgress}, exit()},
		[]bytecode.Instr{bytecode.Exec{Native: 999}, exit()},
	)
	asset.Spawns = []mapasset.Spawn{{Type: core.ActorYellow, ID: 1, X: 100, Y: 100, Flags: core.AFCurPlayer}}
	asset.SpawnInit = 1

	var saved []PlayerSave
	m := newTestMap(t, asset, nil)
	m.deps.OnSave = func(s PlayerSave) { saved = append(saved, s) }

	damagePlayer(m, m.Player(), 60, core.DamageAmbient)
	m.StartScript(1, nil)
	if h := m.Player().State.(*PlayerState).Health; h != yellowMaxHealth {
		t.Errorf("health after heal = %d", h)
	}

	m.StartScript(2, nil)
	if len(saved) != 1 || saved[0].Health != yellowMaxHealth {
		t.Errorf("saves = %+v", saved)
	}

	m.StartScript(0, nil)
	if st := m.Tick(core.NewInputFrame()); st != StatusEnding {
		t.Errorf("status after end_game = %v", st)
	}

	mustPanic(t, func() { m.StartScript(3, nil) })

	names := map[string]bool{}
	for _, n := range Natives() {
		names[n.Name] = true
	}
	for _, want := range []string{"end_game", "heal_player", "save_progress"} {
		if !names[want] {
			t.Errorf("native %q not registered", want)
		}
	}
}

func TestMoveWater(t *testing.T) {
	asset := testAsset([]bytecode.Instr{
		bytecode.MoveWater{Y: 400, Step: 2, Color: core.Color{B: 200, A: 255}},
		exit(),
	})
	asset.WaterLine = 410
	m := newTestMap(t, asset, nil)

	m.StartScript(0, nil)
	if m.State&core.MSFWaterMoving == 0 {
		t.Fatal("water not moving")
	}
	tickN(m, 5)
	if m.WaterLine != 400 {
		t.Errorf("water line = %v, expected 400", m.WaterLine)
	}
	if m.State&core.MSFWaterMoving != 0 {
		t.Error("water still moving after reaching its target")
	}
	tickN(m, 300)
	if m.WaterColor != (core.Color{B: 200, A: 255}) {
		t.Errorf("water color = %+v", m.WaterColor)
	}
}

func TestMoveWaterWithoutWater(t *testing.T) {
	m := newTestMap(t, testAsset([]bytecode.Instr{
		bytecode.MoveWater{Y: 300, Step: 1},
		exit(),
	}), nil)
	if !math.IsInf(m.WaterLine, 1) {
		t.Fatal("map has water")
	}
	m.StartScript(0, nil)
	if m.WaterLine != 300 {
		t.Errorf("water line = %v, expected 300", m.WaterLine)
	}
	m.Tick(core.NewInputFrame())
	if m.State&core.MSFWaterMoving != 0 {
		t.Error("water still moving")
	}
}

func TestEarthquake(t *testing.T) {
	m := newTestMap(t, testAsset([]bytecode.Instr{
		bytecode.Earthquake{Frames: 12, Strength: 4},
		simple(bytecode.OpWaitEarthquake),
		bytecode.State{Op: bytecode.OpForceState, Flags: 0x100},
		exit(),
	}), nil)
	m.StartScript(0, nil)
	if m.Quake.Counter != 12 || m.Quake.Strength != 4 {
		t.Fatalf("quake = %+v", m.Quake)
	}
	tickN(m, 11)
	if m.State&0x100 != 0 {
		t.Fatal("wait_earthquake returned early")
	}
	tickN(m, 1)
	if m.Quake != (Quake{}) {
		t.Errorf("quake after it ran out = %+v", m.Quake)
	}
	if m.State&0x100 == 0 {
		t.Error("wait_earthquake did not return once the quake ended")
	}
}

func TestShowDialogWaitsForBox(t *testing.T) {
	asset := testAsset([]bytecode.Instr{
		bytecode.ShowDialog{Text: 0, Target: bytecode.TargetCaller},
		simple(bytecode.OpWaitDialog),
		bytecode.ShowDialog{Text: 1, Target: bytecode.TargetOrigin},
		exit(),
	})
	asset.Texts = []string{"hi", "bye"}
	m := newTestMap(t, asset, nil)

	s := m.StartScript(0, nil)
	view, ok := m.Dialog()
	if !ok || view.Text != "hi" || view.Target != nil {
		t.Fatalf("Dialog() = %+v, %v", view, ok)
	}
	m.AdvanceDialog()
	m.AdvanceDialog()
	if _, ok := m.Dialog(); ok {
		t.Fatal("dialog still open")
	}
	m.Tick(core.NewInputFrame())
	if view, _ := m.Dialog(); view.Text != "bye" {
		t.Errorf("second dialog = %q", view.Text)
	}
	if s.Active() {
		t.Error("script still running")
	}
}

func TestLoadMapArmsTransition(t *testing.T) {
	m := newTestMap(t, testAsset([]bytecode.Instr{
		bytecode.LoadMap{Map: 3, Fade: core.FadeNone},
		exit(),
	}), nil)
	if _, ok := m.PendingMap(); ok {
		t.Fatal("pending map before load_map")
	}
	m.StartScript(0, nil)
	if id, ok := m.PendingMap(); !ok || id != 3 {
		t.Fatalf("PendingMap() = %d, %v", id, ok)
	}
	if st := m.Tick(core.NewInputFrame()); st != StatusNewMap {
		t.Errorf("status = %v, expected new_map", st)
	}
}

func TestMoveCameraToWaypoints(t *testing.T) {
	asset := testAsset([]bytecode.Instr{
		bytecode.MoveCamera{Target: bytecode.WaypointTarget(0), Speed: 4},
		exit(),
	})
	asset.Waypoints = []mapasset.Waypoint{
		{X: 520, Y: 512, Next: 1},
		{X: 540, Y: 512, Next: mapasset.NoWaypoint},
	}
	m := newTestMap(t, asset, nil)
	m.StartScript(0, nil)
	if m.State&core.MSFCameraMoving == 0 {
		t.Fatal("camera not moving")
	}
	for i := 0; i < 200 && m.State&core.MSFCameraMoving != 0; i++ {
		m.Tick(core.NewInputFrame())
	}
	if m.State&core.MSFCameraMoving != 0 {
		t.Fatal("camera never arrived")
	}
	if x, y := m.Camera(); x != 540 || y != 512 {
		t.Errorf("camera = %v,%v, expected the last waypoint", x, y)
	}
}
