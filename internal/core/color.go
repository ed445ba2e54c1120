package core

// Color is an RGBA color as stored in map assets (packed big-endian R, G, B, A).
type Color struct {
	R, G, B, A uint8
}

// ColorFromUint32 unpacks a 0xRRGGBBAA value.
func ColorFromUint32(v uint32) Color {
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// Uint32 packs the color as 0xRRGGBBAA.
func (c Color) Uint32() uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

// Step1 moves every channel one unit toward target.
func (c Color) Step1(target Color) Color {
	return Color{
		R: step1(c.R, target.R),
		G: step1(c.G, target.G),
		B: step1(c.B, target.B),
		A: step1(c.A, target.A),
	}
}

func step1(cur, target uint8) uint8 {
	if cur < target {
		return cur + 1
	}
	if cur > target {
		return cur - 1
	}
	return cur
}

// Palette is a terminal color index used by the debug renderer.
// Uses ANSI 256-color codes for terminal compatibility.
type Palette uint8

// Predefined colors for the debug view.
const (
	PaletteDefault Palette = iota
	PaletteRed
	PaletteGreen
	PaletteYellow
	PaletteBlue
	PaletteMagenta
	PaletteCyan
	PaletteWhite
	PaletteOrange
	PaletteGray
)
