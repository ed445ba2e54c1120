package core

import (
	"math"
	"testing"
)

func TestRectIntersects(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Rect
		expected bool
	}{
		{
			name:     "overlapping rects",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(5, 5, 10, 10),
			expected: true,
		},
		{
			name:     "non-overlapping horizontal",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(15, 0, 10, 10),
			expected: false,
		},
		{
			name:     "adjacent horizontal (no overlap)",
			a:        NewRect(0, 0, 10, 10),
			b:        NewRect(10, 0, 10, 10),
			expected: false,
		},
		{
			name:     "contained rect",
			a:        NewRect(0, 0, 20, 20),
			b:        NewRect(5, 5, 5, 5),
			expected: true,
		},
		{
			name:     "negative coordinates",
			a:        NewRect(-300, -300, 100, 100),
			b:        NewRect(-250, -250, 10, 10),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.expected {
				t.Errorf("Intersects() = %v, expected %v", got, tt.expected)
			}
			if got := tt.b.Intersects(tt.a); got != tt.expected {
				t.Errorf("Intersects() reversed = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestRectExpand(t *testing.T) {
	r := NewRect(10, 20, 30, 40).Expand(5)
	if r.X0 != 5 || r.Y0 != 15 || r.X1 != 45 || r.Y1 != 65 {
		t.Errorf("Expand(5) = %+v", r)
	}
	if r.W() != 40 || r.H() != 50 {
		t.Errorf("W/H = %d/%d, expected 40/50", r.W(), r.H())
	}
}

func TestRectContains(t *testing.T) {
	r := NewRect(0, 0, 10, 10)
	if !r.Contains(0, 0) || !r.Contains(9, 9) {
		t.Error("corners inside the rect should be contained")
	}
	if r.Contains(10, 5) || r.Contains(5, 10) {
		t.Error("exclusive edges should not be contained")
	}
}

func TestIntHelpers(t *testing.T) {
	tests := []struct {
		name     string
		got      int
		expected int
	}{
		{"clamp low", Clamp(-3, 0, 10), 0},
		{"clamp high", Clamp(12, 0, 10), 10},
		{"clamp inside", Clamp(4, 0, 10), 4},
		{"abs negative", Abs(-7), 7},
		{"abs positive", Abs(7), 7},
		{"min", Min(2, -1), -1},
		{"max", Max(2, -1), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %d, expected %d", tt.got, tt.expected)
			}
		})
	}
}

func TestScreenResizeNegative(t *testing.T) {
	s := NewScreen(4, 4)
	s.Resize(-2, 3)
	if s.Width() != 0 || s.Height() != 3 {
		t.Errorf("Resize(-2, 3) gave %dx%d", s.Width(), s.Height())
	}
}

func TestStepTowards(t *testing.T) {
	tests := []struct {
		name              string
		cur, target, step float64
		expected          float64
	}{
		{"up", 0, 10, 3, 3},
		{"down", 10, 0, 3, 7},
		{"no overshoot up", 9, 10, 3, 10},
		{"no overshoot down", 1, 0, 3, 0},
		{"already there", 5, 5, 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StepTowards(tt.cur, tt.target, tt.step); got != tt.expected {
				t.Errorf("StepTowards(%v, %v, %v) = %v, expected %v", tt.cur, tt.target, tt.step, got, tt.expected)
			}
		})
	}
}

func TestColorStep1(t *testing.T) {
	c := Color{R: 0, G: 10, B: 5, A: 255}
	target := Color{R: 2, G: 8, B: 5, A: 255}

	c = c.Step1(target)
	if c != (Color{R: 1, G: 9, B: 5, A: 255}) {
		t.Fatalf("first step = %+v", c)
	}
	c = c.Step1(target).Step1(target)
	if c != target {
		t.Errorf("after three steps = %+v, expected %+v", c, target)
	}
}

func TestColorPacking(t *testing.T) {
	c := ColorFromUint32(0x11223344)
	if c.R != 0x11 || c.G != 0x22 || c.B != 0x33 || c.A != 0x44 {
		t.Fatalf("ColorFromUint32 = %+v", c)
	}
	if c.Uint32() != 0x11223344 {
		t.Errorf("Uint32() = %#x", c.Uint32())
	}
}

func TestAng16ToRadians(t *testing.T) {
	if got := Ang16ToRadians(0x4000); math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("Ang16ToRadians(0x4000) = %v, expected pi/2", got)
	}
}

func TestActorTypeNames(t *testing.T) {
	for i := ActorType(0); i < ActorTypeCount; i++ {
		name := i.String()
		got, ok := ParseActorType(name)
		if !ok || got != i {
			t.Errorf("ParseActorType(%q) = %v, %v", name, got, ok)
		}
	}
	if ActorSubmarine != 28 {
		t.Errorf("ActorSubmarine = %d, expected 28", ActorSubmarine)
	}
}

func TestTriggerCategories(t *testing.T) {
	got := TriggerCategories(TrigPlayer | TrigProp | TrigRepeatable)
	if got != CBPlayer|CBProp {
		t.Errorf("TriggerCategories = %#x, expected %#x", got, CBPlayer|CBProp)
	}
}

func TestAssertf(t *testing.T) {
	defer func() {
		r := recover()
		ie, ok := r.(*InvariantError)
		if !ok {
			t.Fatalf("recovered %T, expected *InvariantError", r)
		}
		if ie.Msg != "bad id 7" {
			t.Errorf("Msg = %q", ie.Msg)
		}
	}()
	Assertf(true, "never")
	Assertf(false, "bad id %d", 7)
}
