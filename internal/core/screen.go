package core

import (
	"strings"
)

// Cell is one character of the debug view.
type Cell struct {
	Rune  rune
	Color Palette
}

var blank = Cell{Rune: ' '}

// Screen is a character buffer the monitor draws the world into.
// Each cell carries a palette index so the terminal layer can style runs.
type Screen struct {
	width  int
	height int
	cells  []Cell
}

// NewScreen creates a new screen buffer with the given dimensions.
func NewScreen(width, height int) *Screen {
	s := &Screen{}
	s.Resize(width, height)
	return s
}

// Width returns the screen width in characters.
func (s *Screen) Width() int {
	return s.width
}

// Height returns the screen height in characters.
func (s *Screen) Height() int {
	return s.height
}

// Resize changes the dimensions and clears the buffer.
func (s *Screen) Resize(width, height int) {
	width = Max(width, 0)
	height = Max(height, 0)
	if width == s.width && height == s.height && s.cells != nil {
		return
	}
	s.width = width
	s.height = height
	s.cells = make([]Cell, width*height)
	s.Clear()
}

// Clear fills the entire screen with blanks.
func (s *Screen) Clear() {
	for i := range s.cells {
		s.cells[i] = blank
	}
}

// Set places a colored rune. Out-of-bounds coordinates are ignored.
func (s *Screen) Set(x, y int, r rune, c Palette) {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	s.cells[y*s.width+x] = Cell{Rune: r, Color: c}
}

// Get returns the cell at the given position, or a blank outside the buffer.
func (s *Screen) Get(x, y int) Cell {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return blank
	}
	return s.cells[y*s.width+x]
}

// DrawText writes a string horizontally starting at (x, y).
func (s *Screen) DrawText(x, y int, text string, c Palette) {
	i := 0
	for _, r := range text {
		s.Set(x+i, y, r, c)
		i++
	}
}

// FillRect fills r (in cell coordinates) with the given rune.
func (s *Screen) FillRect(r Rect, fill rune, c Palette) {
	for y := r.Y0; y < r.Y1; y++ {
		for x := r.X0; x < r.X1; x++ {
			s.Set(x, y, fill, c)
		}
	}
}

// Row returns the runes of row y.
func (s *Screen) Row(y int) []Cell {
	if y < 0 || y >= s.height {
		return nil
	}
	return s.cells[y*s.width : (y+1)*s.width]
}

// String converts the buffer to plain text, one line per row.
func (s *Screen) String() string {
	var sb strings.Builder
	sb.Grow(s.width*s.height + s.height)

	for y := 0; y < s.height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for _, c := range s.Row(y) {
			sb.WriteRune(c.Rune)
		}
	}
	return sb.String()
}
