package sim

import (
	"fmt"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
)

// Instructions that only exist in builder programs. They carry the object
// they act on instead of an id.

type dynJump struct{ prog *DynScript }

func (dynJump) Opcode() bytecode.Opcode { return bytecode.OpJump }

type dynCall struct{ prog *DynScript }

func (dynCall) Opcode() bytecode.Opcode { return bytecode.OpCall }

type dynStart struct{ prog *DynScript }

func (dynStart) Opcode() bytecode.Opcode { return bytecode.OpStartScript }

type execFunc struct{ fn ExecFunc }

func (execFunc) Opcode() bytecode.Opcode { return bytecode.OpExec }

type dynDialog struct {
	text   *string
	target bytecode.Target
}

func (dynDialog) Opcode() bytecode.Opcode { return bytecode.OpShowDialog }

type dynSpawn struct{ spawn *mapasset.Spawn }

func (dynSpawn) Opcode() bytecode.Opcode { return bytecode.OpSpawnActor }

// DynScript is a program assembled at runtime. It is shared by reference
// count between its creator, running instances and triggers.
type DynScript struct {
	prog     []bytecode.Instr
	refs     int
	owned    []any
	linked   []*DynScript
	released bool
}

// Ref takes a reference.
func (d *DynScript) Ref() {
	core.Assertf(!d.released, "ref of a released program")
	d.refs++
}

// Unref drops a reference. The last one releases the program, its owned
// buffers and the programs it links to.
func (d *DynScript) Unref() {
	core.Assertf(d.refs > 0, "unref of a released program")
	d.refs--
	if d.refs > 0 {
		return
	}
	d.released = true
	d.prog = nil
	d.owned = nil
	linked := d.linked
	d.linked = nil
	for _, l := range linked {
		l.Unref()
	}
}

// Released reports whether the last reference was dropped.
func (d *DynScript) Released() bool { return d.released }

// Refs returns the current reference count.
func (d *DynScript) Refs() int { return d.refs }

// Owned returns the number of buffers the program owns.
func (d *DynScript) Owned() int { return len(d.owned) }

// Len returns the number of instructions.
func (d *DynScript) Len() int { return len(d.prog) }

// Instrs returns the instructions for listings.
func (d *DynScript) Instrs() []bytecode.Instr { return d.prog }

// Builder assembles a DynScript. Instructions are only ever appended.
type Builder struct {
	prog   []bytecode.Instr
	owned  []any
	linked []*DynScript
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) link(prog *DynScript) {
	core.Assertf(prog != nil, "builder: nil program")
	prog.Ref()
	b.linked = append(b.linked, prog)
}

// PushNoop appends a no-op.
func (b *Builder) PushNoop() {
	b.prog = append(b.prog, bytecode.Simple{Op: bytecode.OpNoop})
}

// PushCall calls prog and continues after it returns.
func (b *Builder) PushCall(prog *DynScript) {
	b.link(prog)
	b.prog = append(b.prog, dynCall{prog: prog})
}

// PushStart starts prog as a child instance.
func (b *Builder) PushStart(prog *DynScript) {
	b.link(prog)
	b.prog = append(b.prog, dynStart{prog: prog})
}

// PushDelay waits frames ticks.
func (b *Builder) PushDelay(frames uint32) {
	b.prog = append(b.prog, bytecode.Delay{Frames: frames})
}

// PushExec calls fn until it stops returning Wait.
func (b *Builder) PushExec(fn ExecFunc) {
	core.Assertf(fn != nil, "builder: nil exec function")
	b.prog = append(b.prog, execFunc{fn: fn})
}

// PushDialogf shows a formatted text. The program owns the string.
func (b *Builder) PushDialogf(target bytecode.Target, format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	b.owned = append(b.owned, &text)
	b.prog = append(b.prog, dynDialog{text: &text, target: target})
}

// PushSpawnActor spawns a copy of spawn.
func (b *Builder) PushSpawnActor(spawn mapasset.Spawn) {
	sp := &spawn
	b.owned = append(b.owned, sp)
	b.prog = append(b.prog, dynSpawn{spawn: sp})
}

// Push appends a static instruction.
func (b *Builder) Push(in bytecode.Instr) {
	b.prog = append(b.prog, in)
}

func (b *Builder) finish(last bytecode.Instr) *DynScript {
	d := &DynScript{
		prog:   append(b.prog, last),
		refs:   1,
		owned:  b.owned,
		linked: b.linked,
	}
	*b = Builder{}
	return d
}

// FinishExit ends the program with an exit.
func (b *Builder) FinishExit() *DynScript {
	return b.finish(bytecode.Simple{Op: bytecode.OpExit})
}

// FinishRet ends the program with a return to the caller.
func (b *Builder) FinishRet() *DynScript {
	return b.finish(bytecode.Simple{Op: bytecode.OpRet})
}

// FinishJump ends the program with a jump to baked script id of m.
func (b *Builder) FinishJump(m *Map, id uint32) *DynScript {
	core.Assertf(int(id) < len(m.asset.Scripts), "builder: invalid script id %d", id)
	return b.finish(bytecode.Jump{Script: id})
}

// FinishJumpDynamic ends the program with a jump to prog; nil loops back
// to the start of the program itself.
func (b *Builder) FinishJumpDynamic(prog *DynScript) *DynScript {
	if prog == nil {
		d := b.finish(nil)
		d.prog[len(d.prog)-1] = dynJump{prog: d}
		return d
	}
	b.link(prog)
	return b.finish(dynJump{prog: prog})
}
