// Package core provides fundamental types shared by the simulation packages:
// geometry, colors, actor enums and flag sets, input frames and the invariant
// assertion used for programmer errors. It has no external dependencies so the
// asset, bytecode and simulation packages can all import it.
package core

import "math"

// Rect is an axis-aligned pixel rectangle. X1 and Y1 are exclusive.
type Rect struct {
	X0, Y0 int
	X1, Y1 int
}

// NewRect creates a rectangle from a position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X0: x, Y0: y, X1: x + w, Y1: y + h}
}

// W returns the width of the rectangle.
func (r Rect) W() int {
	return r.X1 - r.X0
}

// H returns the height of the rectangle.
func (r Rect) H() int {
	return r.Y1 - r.Y0
}

// Expand grows the rectangle by n pixels on every side.
func (r Rect) Expand(n int) Rect {
	return Rect{X0: r.X0 - n, Y0: r.Y0 - n, X1: r.X1 + n, Y1: r.Y1 + n}
}

// Intersects returns true if this rectangle overlaps with another.
func (r Rect) Intersects(other Rect) bool {
	if r.X0 >= other.X1 || other.X0 >= r.X1 {
		return false
	}
	if r.Y0 >= other.Y1 || other.Y0 >= r.Y1 {
		return false
	}
	return true
}

// Contains returns true if the point (x, y) is inside this rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// Abs returns the absolute value of an integer.
func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Min returns the smaller of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Max returns the larger of two integers.
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// StepTowards moves cur toward target by at most step and never overshoots.
func StepTowards(cur, target, step float64) float64 {
	if cur < target {
		cur += step
		if cur > target {
			cur = target
		}
	} else if cur > target {
		cur -= step
		if cur < target {
			cur = target
		}
	}
	return cur
}

// Ang16ToRadians converts a 16-bit binary angle (65536 = full turn) to radians.
func Ang16ToRadians(a uint16) float64 {
	return float64(a) * (2 * math.Pi / 65536)
}
