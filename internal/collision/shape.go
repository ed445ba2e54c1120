// Package collision decodes the tagged collision-shape stream shared by static
// map geometry and actor sprites, and attaches decoded shapes to box2d bodies.
//
// A stream is a sequence of records, each starting with a big-endian header
// {type u16, flags u16, id [4]byte} followed by shape-specific float32 fields
// in physics units. The END record terminates the stream.
package collision

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/vovakirdan/tidepool/internal/core"
)

// Kind is the record type tag.
type Kind uint16

const (
	KindEnd Kind = iota
	KindCircle
	KindAABB
	KindTriangle
	KindQuad
	KindPoly
	KindEdge
	KindChain
)

func (k Kind) String() string {
	switch k {
	case KindEnd:
		return "end"
	case KindCircle:
		return "circle"
	case KindAABB:
		return "aabb"
	case KindTriangle:
		return "triangle"
	case KindQuad:
		return "quad"
	case KindPoly:
		return "poly"
	case KindEdge:
		return "edge"
	case KindChain:
		return "chain"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

// Flags modify how a shape becomes a fixture.
type Flags uint16

const (
	FlagSensor      Flags = 1 << 0
	FlagInteractive Flags = 1 << 1
)

// Tag is the 4-byte shape id carried into fixture user data.
type Tag [4]byte

// MakeTag builds a tag from up to four bytes of s.
func MakeTag(s string) Tag {
	var t Tag
	copy(t[:], s)
	return t
}

func (t Tag) String() string {
	n := 0
	for n < len(t) && t[n] != 0 {
		n++
	}
	return string(t[:n])
}

// Point is a vertex in physics units.
type Point struct {
	X, Y float32
}

// Shape is one decoded record.
//
// Circle: Radius and Points[0] (centre). AABB and Edge: Points[0..1].
// Triangle, Quad, Poly: the vertices. Chain: the vertices plus Prev and Next
// ghost vertices.
type Shape struct {
	Kind   Kind
	Flags  Flags
	ID     Tag
	Radius float32
	Points []Point
	Prev   Point
	Next   Point
}

// Set is a decoded shape stream. Sets are immutable once decoded and are
// compared by pointer identity to decide whether a body needs new fixtures.
type Set struct {
	Shapes []Shape
}

var (
	// ErrUnknownType is returned for a record tag outside the known kinds.
	ErrUnknownType = errors.New("collision: unknown shape type")
	// ErrTruncated is returned when the stream ends inside a record or has no END.
	ErrTruncated = errors.New("collision: truncated stream")
	// ErrBadCount is returned for polygons with fewer than 3 or chains with fewer than 2 vertices.
	ErrBadCount = errors.New("collision: bad vertex count")
)

const headerSize = 8

// fixedPoints is the number of vertices stored inline for fixed-size kinds.
func fixedPoints(k Kind) int {
	switch k {
	case KindAABB, KindEdge:
		return 2
	case KindTriangle:
		return 3
	case KindQuad:
		return 4
	}
	return 0
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) need(n int) error {
	if r.off+n > len(r.buf) {
		return fmt.Errorf("%w at byte %d", ErrTruncated, r.off)
	}
	return nil
}

func (r *reader) u16() uint16 {
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32() uint32 {
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) f32() float32 {
	return math.Float32frombits(r.u32())
}

func (r *reader) point() Point {
	x := r.f32()
	return Point{X: x, Y: r.f32()}
}

func (r *reader) points(n int) ([]Point, error) {
	if err := r.need(n * 8); err != nil {
		return nil, err
	}
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = r.point()
	}
	return pts, nil
}

// Parse decodes records up to and including END. It returns the set and the
// number of bytes consumed.
func Parse(data []byte) (*Set, int, error) {
	r := &reader{buf: data}
	set := &Set{}

	for {
		if err := r.need(headerSize); err != nil {
			return nil, r.off, err
		}
		sh := Shape{Kind: Kind(r.u16()), Flags: Flags(r.u16())}
		copy(sh.ID[:], r.buf[r.off:r.off+4])
		r.off += 4

		var err error
		switch sh.Kind {
		case KindEnd:
			return set, r.off, nil
		case KindCircle:
			if err = r.need(12); err == nil {
				sh.Radius = r.f32()
				sh.Points = []Point{r.point()}
			}
		case KindAABB, KindTriangle, KindQuad, KindEdge:
			sh.Points, err = r.points(fixedPoints(sh.Kind))
		case KindPoly:
			if err = r.need(4); err == nil {
				n := int(r.u32())
				if n < 3 {
					return nil, r.off, fmt.Errorf("%w: poly with %d vertices", ErrBadCount, n)
				}
				sh.Points, err = r.points(n)
			}
		case KindChain:
			if err = r.need(4); err == nil {
				n := int(r.u32())
				if n < 2 {
					return nil, r.off, fmt.Errorf("%w: chain with %d vertices", ErrBadCount, n)
				}
				if err = r.need(16); err == nil {
					sh.Prev = r.point()
					sh.Next = r.point()
					sh.Points, err = r.points(n)
				}
			}
		default:
			return nil, r.off, fmt.Errorf("%w %d at byte %d", ErrUnknownType, uint16(sh.Kind), r.off-headerSize)
		}
		if err != nil {
			return nil, r.off, err
		}
		set.Shapes = append(set.Shapes, sh)
	}
}

// Encode writes the set as a stream terminated by END.
func Encode(set *Set) []byte {
	var out []byte
	put16 := func(v uint16) { out = binary.BigEndian.AppendUint16(out, v) }
	put32 := func(v uint32) { out = binary.BigEndian.AppendUint32(out, v) }
	putf := func(v float32) { put32(math.Float32bits(v)) }
	putp := func(p Point) {
		putf(p.X)
		putf(p.Y)
	}

	if set != nil {
		for _, sh := range set.Shapes {
			put16(uint16(sh.Kind))
			put16(uint16(sh.Flags))
			out = append(out, sh.ID[:]...)
			switch sh.Kind {
			case KindCircle:
				putf(sh.Radius)
				putp(sh.Points[0])
				continue
			case KindPoly:
				put32(uint32(len(sh.Points)))
			case KindChain:
				put32(uint32(len(sh.Points)))
				putp(sh.Prev)
				putp(sh.Next)
			}
			for _, p := range sh.Points {
				putp(p)
			}
		}
	}
	put16(uint16(KindEnd))
	put16(0)
	return append(out, 0, 0, 0, 0)
}

// Bounds returns the axis-aligned extent of every vertex in the set.
func (s *Set) Bounds() (lo, hi Point) {
	first := true
	for _, sh := range s.Shapes {
		r := sh.Radius
		for _, p := range sh.Points {
			if first {
				lo = Point{p.X - r, p.Y - r}
				hi = Point{p.X + r, p.Y + r}
				first = false
				continue
			}
			lo = Point{min(lo.X, p.X-r), min(lo.Y, p.Y-r)}
			hi = Point{max(hi.X, p.X+r), max(hi.Y, p.Y+r)}
		}
	}
	return lo, hi
}

// Box returns a single-AABB set in pixel coordinates, the usual trigger volume.
func Box(x0, y0, x1, y1 float32, flags Flags, id Tag) *Set {
	const ps = core.PointScale
	return &Set{Shapes: []Shape{{
		Kind:   KindAABB,
		Flags:  flags,
		ID:     id,
		Points: []Point{{x0 * ps, y0 * ps}, {x1 * ps, y1 * ps}},
	}}}
}
