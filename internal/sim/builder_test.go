package sim

import (
	"testing"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

func TestProgramRefcount(t *testing.T) {
	b := NewBuilder()
	b.PushNoop()
	child := b.FinishRet()

	b.PushCall(child)
	b.PushStart(child)
	parent := b.FinishExit()
	if child.Refs() != 3 {
		t.Fatalf("child refs = %d, expected 3", child.Refs())
	}
	if parent.Len() != 3 {
		t.Errorf("parent has %d instructions", parent.Len())
	}

	parent.Unref()
	if !parent.Released() || child.Refs() != 1 {
		t.Errorf("after parent release: released=%v child refs=%d", parent.Released(), child.Refs())
	}
	child.Unref()
	if !child.Released() || child.Len() != 0 {
		t.Error("child not released")
	}
	mustPanic(t, child.Unref)
	mustPanic(t, child.Ref)
}

func TestBuilderResetsAfterFinish(t *testing.T) {
	b := NewBuilder()
	b.PushDelay(3)
	first := b.FinishExit()
	second := b.FinishExit()
	if first.Len() != 2 || second.Len() != 1 {
		t.Errorf("lengths = %d, %d", first.Len(), second.Len())
	}
	if op := first.Instrs()[1].Opcode(); op != bytecode.OpExit {
		t.Errorf("last instruction = %s", op)
	}
}

func TestStartReleasedProgramIsFatal(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	prog := NewBuilder().FinishExit()
	prog.Unref()
	mustPanic(t, func() { m.StartDynamic(prog, nil) })
}

func TestDynamicCallAndStart(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)

	b := NewBuilder()
	b.Push(bytecode.State{Op: bytecode.OpForceState, Flags: 0x100})
	sub := b.FinishRet()

	b.PushDelay(1)
	worker := b.FinishExit()

	b.PushCall(sub)
	b.PushStart(worker)
	b.Push(bytecode.ScriptRef{Op: bytecode.OpWaitScript, ID: bytecode.ScriptChild})
	b.Push(bytecode.State{Op: bytecode.OpForceState, Flags: 0x200})
	top := b.FinishExit()
	sub.Unref()
	worker.Unref()

	s := m.StartDynamic(top, nil)
	top.Unref()
	if m.State&0x100 == 0 {
		t.Fatal("called program did not run")
	}
	if s == nil || s.Child() == nil || s.Child().Program() != worker {
		t.Fatal("worker not started as child")
	}
	tickN(m, 3)
	if m.State&0x200 == 0 {
		t.Error("top program never finished")
	}
	for name, p := range map[string]*DynScript{"top": top, "sub": sub, "worker": worker} {
		if !p.Released() {
			t.Errorf("%s not released (refs %d)", name, p.Refs())
		}
	}
}

func TestDialogAndSpawnOwnership(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)

	b := NewBuilder()
	b.PushDialogf(bytecode.TargetOrigin, "found %d crystals", 3)
	b.PushSpawnActor(mapasset.Spawn{Type: core.ActorCrate, ID: 5, X: 300, Y: 300})
	prog := b.FinishExit()
	if prog.Owned() != 2 {
		t.Errorf("owned = %d, expected 2", prog.Owned())
	}

	m.StartDynamic(prog, nil)
	prog.Unref()
	if view, ok := m.Dialog(); !ok || view.Text != "found 3 crystals" {
		t.Errorf("Dialog() = %+v, %v", view, ok)
	}
	if m.ActorByID(5) == nil {
		t.Error("crate not spawned")
	}
	if !prog.Released() || prog.Owned() != 0 {
		t.Error("buffers outlived the program")
	}
}

func TestFinishJump(t *testing.T) {
	m := newTestMap(t, testAsset([]bytecode.Instr{
		bytecode.State{Op: bytecode.OpForceState, Flags: 0x100},
		exit(),
	}), nil)
	b := NewBuilder()
	b.PushNoop()
	prog := b.FinishJump(m, 0)
	m.StartDynamic(prog, nil)
	prog.Unref()
	if m.State&0x100 == 0 {
		t.Error("jump target did not run")
	}
}

func TestCallDelay(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	calls := 0
	m.CallDelay(func(m *Map, s *Script) Result {
		calls++
		return Continue
	}, 3)

	tickN(m, 3)
	if calls != 0 {
		t.Fatal("called after 3 ticks")
	}
	tickN(m, 1)
	if calls != 1 {
		t.Errorf("calls = %d, expected 1", calls)
	}
	tickN(m, 10)
	if calls != 1 || len(m.Scripts()) != 0 {
		t.Errorf("calls = %d, scripts = %d", calls, len(m.Scripts()))
	}
}

func TestCallInterval(t *testing.T) {
	m := newTestMap(t, testAsset(), nil)
	calls := 0
	s := m.CallInterval(func(m *Map, s *Script) Result {
		calls++
		return Continue
	}, 2)

	tickN(m, 9)
	if calls != 3 {
		t.Errorf("calls = %d, expected 3", calls)
	}
	prog := s.Program()
	m.DestroyScript(s)
	tickN(m, 9)
	if calls != 3 {
		t.Errorf("interval kept running: %d calls", calls)
	}
	if !prog.Released() {
		t.Error("interval program not released")
	}
}
