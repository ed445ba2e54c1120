package collision

import (
	"github.com/ByteArena/box2d"

	"github.com/vovakirdan/tidepool/internal/core"
)

// FixtureTemplate holds the fixture settings shared by every shape of a set.
type FixtureTemplate struct {
	Density  float64
	Friction float64
	Sensor   bool
	Category core.Category
	Mask     core.Category
}

func vec(p Point) box2d.B2Vec2 {
	return box2d.MakeB2Vec2(float64(p.X), float64(p.Y))
}

func vecs(pts []Point) []box2d.B2Vec2 {
	out := make([]box2d.B2Vec2, len(pts))
	for i, p := range pts {
		out[i] = vec(p)
	}
	return out
}

// Attach creates one fixture per shape of set on body. The fixture user data
// is the shape's Tag.
func Attach(body *box2d.B2Body, tpl FixtureTemplate, set *Set) []*box2d.B2Fixture {
	if set == nil {
		return nil
	}
	fixtures := make([]*box2d.B2Fixture, 0, len(set.Shapes))

	for i := range set.Shapes {
		sh := &set.Shapes[i]

		def := box2d.MakeB2FixtureDef()
		def.Density = tpl.Density
		def.Friction = tpl.Friction
		def.IsSensor = tpl.Sensor || sh.Flags&FlagSensor != 0
		def.Filter.CategoryBits = uint16(tpl.Category)
		if sh.Flags&FlagInteractive != 0 {
			def.Filter.CategoryBits = uint16(core.CBInteractive)
		}
		def.Filter.MaskBits = uint16(tpl.Mask)
		def.UserData = sh.ID

		switch sh.Kind {
		case KindCircle:
			shape := box2d.MakeB2CircleShape()
			shape.M_radius = float64(sh.Radius)
			shape.M_p = vec(sh.Points[0])
			def.Shape = &shape
		case KindAABB:
			a, b := sh.Points[0], sh.Points[1]
			shape := box2d.MakeB2PolygonShape()
			shape.Set([]box2d.B2Vec2{
				box2d.MakeB2Vec2(float64(a.X), float64(a.Y)),
				box2d.MakeB2Vec2(float64(a.X), float64(b.Y)),
				box2d.MakeB2Vec2(float64(b.X), float64(b.Y)),
				box2d.MakeB2Vec2(float64(b.X), float64(a.Y)),
			}, 4)
			def.Shape = &shape
		case KindTriangle, KindQuad:
			shape := box2d.MakeB2PolygonShape()
			shape.Set(vecs(sh.Points), len(sh.Points))
			def.Shape = &shape
		case KindPoly:
			// A closed loop repeats the first vertex and links the ghost
			// vertices around the seam.
			shape := box2d.MakeB2ChainShape()
			shape.CreateLoop(vecs(sh.Points), len(sh.Points))
			def.Shape = &shape
		case KindEdge:
			shape := box2d.MakeB2EdgeShape()
			shape.Set(vec(sh.Points[0]), vec(sh.Points[1]))
			def.Shape = &shape
		case KindChain:
			shape := box2d.MakeB2ChainShape()
			shape.CreateChain(vecs(sh.Points), len(sh.Points))
			shape.SetPrevVertex(vec(sh.Prev))
			shape.SetNextVertex(vec(sh.Next))
			def.Shape = &shape
		default:
			core.Fatalf("unknown collision type %d", uint16(sh.Kind))
		}

		fixtures = append(fixtures, body.CreateFixtureFromDef(&def))
	}
	return fixtures
}

// Detach destroys every fixture of body.
func Detach(body *box2d.B2Body) int {
	n := 0
	for f := body.GetFixtureList(); f != nil; {
		next := f.GetNext()
		body.DestroyFixture(f)
		f = next
		n++
	}
	return n
}

// FixtureTag returns the shape tag stored on a fixture, or the zero tag.
func FixtureTag(f *box2d.B2Fixture) Tag {
	if f == nil {
		return Tag{}
	}
	t, _ := f.GetUserData().(Tag)
	return t
}
