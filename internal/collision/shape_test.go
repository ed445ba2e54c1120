package collision

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/core"
)

func sampleSet() *Set {
	return &Set{Shapes: []Shape{
		{Kind: KindCircle, ID: MakeTag("head"), Radius: 0.5, Points: []Point{{0, -1}}},
		{Kind: KindAABB, Flags: FlagSensor, ID: MakeTag("foot"), Points: []Point{{-0.5, 0}, {0.5, 0.25}}},
		{Kind: KindTriangle, Points: []Point{{0, 0}, {1, 0}, {0, 1}}},
		{Kind: KindQuad, Points: []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
		{Kind: KindPoly, Flags: FlagInteractive, Points: []Point{{0, 0}, {4, 0}, {4, 4}, {0, 4}}},
		{Kind: KindEdge, Points: []Point{{0, 8}, {16, 8}}},
		{Kind: KindChain, Prev: Point{-1, 0}, Next: Point{9, 0}, Points: []Point{{0, 0}, {4, 1}, {8, 0}}},
	}}
}

func TestParseEncodedStream(t *testing.T) {
	in := sampleSet()
	data := Encode(in)
	// Trailing bytes belong to the next section and must not be consumed.
	data = append(data, 0xde, 0xad)

	got, n, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if n != len(data)-2 {
		t.Errorf("consumed %d bytes, expected %d", n, len(data)-2)
	}
	if len(got.Shapes) != len(in.Shapes) {
		t.Fatalf("decoded %d shapes, expected %d", len(got.Shapes), len(in.Shapes))
	}

	chain := got.Shapes[6]
	if chain.Prev != (Point{-1, 0}) || chain.Next != (Point{9, 0}) || len(chain.Points) != 3 {
		t.Errorf("chain = %+v", chain)
	}
	if got.Shapes[1].ID.String() != "foot" || got.Shapes[1].Flags != FlagSensor {
		t.Errorf("aabb header = %v %v", got.Shapes[1].ID, got.Shapes[1].Flags)
	}
	if got.Shapes[0].Radius != 0.5 || got.Shapes[0].Points[0] != (Point{0, -1}) {
		t.Errorf("circle = %+v", got.Shapes[0])
	}
}

func header(kind Kind) []byte {
	b := binary.BigEndian.AppendUint16(nil, uint16(kind))
	return append(b, 0, 0, 'x', 'x', 'x', 'x')
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"missing end", Encode(sampleSet())[:20], ErrTruncated},
		{"unknown type", header(42), ErrUnknownType},
		{"short poly", binary.BigEndian.AppendUint32(header(KindPoly), 2), ErrBadCount},
		{"short chain", binary.BigEndian.AppendUint32(header(KindChain), 1), ErrBadCount},
		{"chain without ghosts", binary.BigEndian.AppendUint32(header(KindChain), 2), ErrTruncated},
		{"chain missing vertices", append(binary.BigEndian.AppendUint32(header(KindChain), 2), make([]byte, 16)...), ErrTruncated},
		{"truncated circle", append(header(KindCircle), 0, 0, 0, 0), ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, expected %v", err, tt.want)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	set := &Set{Shapes: []Shape{
		{Kind: KindCircle, Radius: 1, Points: []Point{{0, 0}}},
		{Kind: KindEdge, Points: []Point{{2, -3}, {5, 0.5}}},
	}}
	lo, hi := set.Bounds()
	if lo != (Point{-1, -3}) || hi != (Point{5, 1}) {
		t.Errorf("Bounds() = %v %v", lo, hi)
	}
}

func newBody() (*box2d.B2World, *box2d.B2Body) {
	world := box2d.MakeB2World(box2d.MakeB2Vec2(0, 0))
	def := box2d.MakeB2BodyDef()
	def.Type = box2d.B2BodyType.B2_dynamicBody
	body := world.CreateBody(&def)
	return &world, body
}

func TestAttach(t *testing.T) {
	_, body := newBody()
	tpl := FixtureTemplate{Density: 1, Category: core.CBPlayer, Mask: core.CBAll}

	fixtures := Attach(body, tpl, sampleSet())
	if len(fixtures) != 7 {
		t.Fatalf("Attach() created %d fixtures, expected 7", len(fixtures))
	}

	tests := []struct {
		name     string
		index    int
		sensor   bool
		category core.Category
		tag      string
	}{
		{"circle inherits template", 0, false, core.CBPlayer, "head"},
		{"sensor flag", 1, true, core.CBPlayer, "foot"},
		{"interactive poly", 4, false, core.CBInteractive, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fixtures[tt.index]
			if f.IsSensor() != tt.sensor {
				t.Errorf("IsSensor() = %v, expected %v", f.IsSensor(), tt.sensor)
			}
			if got := core.Category(f.GetFilterData().CategoryBits); got != tt.category {
				t.Errorf("category = %#x, expected %#x", got, tt.category)
			}
			if got := FixtureTag(f).String(); got != tt.tag {
				t.Errorf("tag = %q, expected %q", got, tt.tag)
			}
		})
	}
}

func TestAttachSensorTemplate(t *testing.T) {
	_, body := newBody()
	fixtures := Attach(body, FixtureTemplate{Sensor: true, Category: core.CBTrigger}, Box(0, 0, 32, 32, 0, Tag{}))
	if len(fixtures) != 1 || !fixtures[0].IsSensor() {
		t.Fatal("template sensor not applied")
	}
}

func TestDetach(t *testing.T) {
	_, body := newBody()
	Attach(body, FixtureTemplate{Density: 1}, sampleSet())

	if n := Detach(body); n != 7 {
		t.Errorf("Detach() destroyed %d fixtures, expected 7", n)
	}
	if body.GetFixtureList() != nil {
		t.Error("fixtures remain after Detach")
	}
}
