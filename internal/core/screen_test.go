package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 {
		t.Errorf("Width() = %d, expected 80", s.Width())
	}
	if s.Height() != 24 {
		t.Errorf("Height() = %d, expected 24", s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if s.Get(x, y).Rune != ' ' {
				t.Fatalf("New screen should be blank, got %q at (%d, %d)", s.Get(x, y).Rune, x, y)
			}
		}
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.Set(5, 5, 'X', PaletteRed)
	if c := s.Get(5, 5); c.Rune != 'X' || c.Color != PaletteRed {
		t.Errorf("Get(5, 5) = %+v, expected red X", c)
	}

	// Out of bounds should be silent
	s.Set(-1, 0, 'A', PaletteDefault)
	s.Set(100, 0, 'A', PaletteDefault)
	s.Set(0, -1, 'A', PaletteDefault)
	s.Set(0, 100, 'A', PaletteDefault)

	if s.Get(-1, 0).Rune != ' ' {
		t.Error("Out of bounds Get should return a blank")
	}
}

func TestScreenFillRect(t *testing.T) {
	s := NewScreen(6, 4)
	s.FillRect(NewRect(1, 1, 2, 2), '#', PaletteGray)

	expected := strings.Join([]string{
		"      ",
		" ##   ",
		" ##   ",
		"      ",
	}, "\n")
	if got := s.String(); got != expected {
		t.Errorf("String() =\n%s\nexpected\n%s", got, expected)
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(8, 1)
	s.DrawText(6, 0, "abc", PaletteWhite)

	if got := s.String(); got != "      ab" {
		t.Errorf("clipped text = %q", got)
	}
}

func TestScreenResizeClears(t *testing.T) {
	s := NewScreen(4, 4)
	s.Set(1, 1, 'X', PaletteDefault)
	s.Resize(2, 3)

	if s.Width() != 2 || s.Height() != 3 {
		t.Fatalf("size = %dx%d", s.Width(), s.Height())
	}
	if s.Get(1, 1).Rune != ' ' {
		t.Error("Resize should clear the buffer")
	}
	if len(s.Row(0)) != 2 {
		t.Errorf("Row length = %d", len(s.Row(0)))
	}
}
