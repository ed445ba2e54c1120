package mapasset

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/core"
)

type writer struct {
	out []byte
}

func (w *writer) pos() int { return len(w.out) }

func (w *writer) u8(v uint8) { w.out = append(w.out, v) }
func (w *writer) u16(v uint16) { w.out = binary.BigEndian.AppendUint16(w.out, v) }
func (w *writer) u32(v uint32) { w.out = binary.BigEndian.AppendUint32(w.out, v) }
func (w *writer) i16(v int16) { w.u16(uint16(v)) }
func (w *writer) i32(v int32) { w.u32(uint32(v)) }
func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) bool8(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

// reserve writes a zero u32 and returns its position for patch.
func (w *writer) reserve() int {
	p := w.pos()
	w.u32(0)
	return p
}

func (w *writer) patch(at int, v uint32) {
	binary.BigEndian.PutUint32(w.out[at:], v)
}

// patchHere points the reserved slot at the current position.
func (w *writer) patchHere(at int) {
	w.patch(at, uint32(w.pos()))
}

func (w *writer) sized(data []byte) {
	w.u32(uint32(len(data)))
	w.out = append(w.out, data...)
}

// pendingTrigger is a spawn arg slot waiting for its trigger record.
type pendingTrigger struct {
	at  int
	arg TriggerArg
}

// Encode lays the asset out as a map blob.
func Encode(a *Asset) ([]byte, error) {
	if err := a.validate(); err != nil {
		return nil, err
	}
	w := &writer{out: make([]byte, 0, 4096)}

	w.u32(Magic)
	for _, n := range []int{len(a.Tilesets), len(a.Backgrounds), len(a.Waypoints), len(a.Scripts)} {
		w.u16(uint16(n))
	}
	w.i16(a.LowerX)
	w.i16(a.LowerY)
	w.u16(a.Width)
	w.u16(a.Height)
	for _, n := range []int{len(a.Chunks), len(a.Texts), a.SpawnInit, len(a.Spawns)} {
		w.u16(uint16(n))
	}
	spawnsAt := w.reserve()
	waypointsAt := w.reserve()
	collisionAt := w.reserve()
	scriptsAt := w.reserve()
	textsAt := w.reserve()
	chunksAt := w.reserve()
	w.u32(a.Music)
	w.u32(a.Startup)
	w.i32(a.ParallaxX)
	w.i32(a.ParallaxY)
	w.i32(a.CameraX)
	w.i32(a.CameraY)
	w.i32(a.WaterLine)
	w.u32(a.WaterColor.Uint32())
	w.f32(a.GravityX)
	w.f32(a.GravityY)

	for _, ts := range a.Tilesets {
		w.u16(ts.FirstTID)
		w.u16(ts.EndTID)
		w.u8(ts.XMask)
		w.u8(ts.YShift)
		w.u16(0)
		w.u32(ts.Image)
	}
	for _, bg := range a.Backgrounds {
		for _, f := range []float32{bg.OffsetX, bg.OffsetY, bg.AutoscrollX, bg.AutoscrollY, bg.ParallaxX, bg.ParallaxY} {
			w.f32(f)
		}
		w.u32(bg.ClearTop.Uint32())
		w.u32(bg.ClearBottom.Uint32())
		w.u8(bg.Layer)
		w.bool8(bg.RepeatX)
		w.bool8(bg.RepeatY)
		w.u8(0)
		w.u32(bg.Image)
		w.u32(bg.AnimTiles)
	}

	if len(a.Waypoints) > 0 {
		w.patchHere(waypointsAt)
		for _, wp := range a.Waypoints {
			w.i32(wp.X)
			w.i32(wp.Y)
			if wp.Next == NoWaypoint {
				w.u32(noNext)
			} else {
				w.u32(uint32(wp.Next))
			}
		}
	}

	var triggers []pendingTrigger
	if len(a.Spawns) > 0 {
		w.patchHere(spawnsAt)
		for _, s := range a.Spawns {
			w.u32(uint32(s.Type))
			w.i32(s.X)
			w.i32(s.Y)
			w.u32(uint32(s.Flags))
			w.u16(s.ID)
			w.u16(s.Rotation)
			switch arg := s.Arg.(type) {
			case TriggerArg:
				triggers = append(triggers, pendingTrigger{at: w.reserve(), arg: arg})
			case PlatformArg:
				wp := uint32(noPlatformWP)
				if arg.Waypoint != NoWaypoint {
					wp = uint32(arg.Waypoint)
				}
				w.u32(uint32(arg.Speed)<<16 | wp)
			default:
				w.u32(0)
			}
		}
	}
	for _, t := range triggers {
		w.patchHere(t.at)
		w.u32(t.arg.Script)
		colAt := w.reserve()
		if t.arg.Collision != nil {
			w.patchHere(colAt)
			w.out = append(w.out, collision.Encode(t.arg.Collision)...)
		}
	}

	if len(a.Scripts) > 0 {
		w.patchHere(scriptsAt)
		table := make([]int, len(a.Scripts))
		for i := range table {
			table[i] = w.reserve()
		}
		for i, prog := range a.Scripts {
			data, err := bytecode.Encode(prog)
			if err != nil {
				return nil, fmt.Errorf("mapasset: cannot encode script %d: %w", i, err)
			}
			w.patchHere(table[i])
			w.sized(data)
		}
	}

	if len(a.Texts) > 0 {
		w.patchHere(textsAt)
		table := make([]int, len(a.Texts))
		for i := range table {
			table[i] = w.reserve()
		}
		for i, text := range a.Texts {
			w.patchHere(table[i])
			w.sized([]byte(text))
		}
	}

	if len(a.Chunks) > 0 {
		w.patchHere(chunksAt)
		table := make([]int, len(a.Chunks))
		for i := range table {
			table[i] = w.reserve()
		}
		for i, c := range a.Chunks {
			w.patchHere(table[i])
			writeChunk(w, c)
		}
	}

	if a.Collision != nil {
		w.patchHere(collisionAt)
		w.out = append(w.out, collision.Encode(a.Collision)...)
	}
	return w.out, nil
}

func writeChunk(w *writer, c *Chunk) {
	w.i16(c.X)
	w.i16(c.Y)
	w.i32(c.PX)
	w.i32(c.PY)
	w.u8(uint8(len(c.Layers)))
	w.u8(c.FgLayer)
	w.u16(uint16(len(c.Props)))
	propsAt := w.reserve()
	for _, layer := range c.Layers {
		for _, tid := range layer {
			w.u16(tid)
		}
	}
	if len(c.Props) == 0 {
		return
	}
	w.patchHere(propsAt)
	table := make([]int, len(c.Props))
	for i := range table {
		table[i] = w.reserve()
	}
	for i, p := range c.Props {
		w.patchHere(table[i])
		w.u32(p.Layer)
		w.i32(p.X)
		w.i32(p.Y)
		w.u32(p.W)
		w.u32(p.H)
		w.u32(p.Image)
		w.u32(p.Tiles)
	}
}

func (a *Asset) validate() error {
	const max16 = math.MaxUint16
	switch {
	case len(a.Tilesets) > max16, len(a.Backgrounds) > max16, len(a.Waypoints) > max16,
		len(a.Scripts) > max16, len(a.Chunks) > max16, len(a.Texts) > max16, len(a.Spawns) > max16:
		return fmt.Errorf("%w: section exceeds %d entries", ErrSource, max16)
	case a.SpawnInit > len(a.Spawns):
		return fmt.Errorf("%w: %d init spawns of %d", ErrSource, a.SpawnInit, len(a.Spawns))
	}
	for i, wp := range a.Waypoints {
		if wp.Next != NoWaypoint && (wp.Next < 0 || wp.Next >= len(a.Waypoints)) {
			return fmt.Errorf("%w: waypoint %d links to %d", ErrSource, i, wp.Next)
		}
	}
	for i, c := range a.Chunks {
		if len(c.Layers) > math.MaxUint8 || len(c.Props) > max16 {
			return fmt.Errorf("%w: chunk %d is too large", ErrSource, i)
		}
		for l, layer := range c.Layers {
			if len(layer) != ChunkTiles {
				return fmt.Errorf("%w: chunk %d layer %d has %d tiles, expected %d", ErrSource, i, l, len(layer), ChunkTiles)
			}
		}
	}
	for i, s := range a.Spawns {
		if s.Type >= core.ActorTypeCount {
			return fmt.Errorf("%w: spawn %d has unknown type %d", ErrSource, i, uint32(s.Type))
		}
		if pa, ok := s.Arg.(PlatformArg); ok && pa.Waypoint != NoWaypoint && (pa.Waypoint < 0 || pa.Waypoint >= noPlatformWP) {
			return fmt.Errorf("%w: spawn %d platform waypoint %d", ErrSource, i, pa.Waypoint)
		}
	}
	return nil
}
