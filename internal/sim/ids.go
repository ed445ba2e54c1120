package sim

// Manifest ids of the effect sprites. Each id names both the image and the
// tile set with the same number.
const (
	GfxSplash uint16 = 0x200 + iota
	GfxBubble
	GfxBubbles
	GfxWaterExplSmall
	GfxWaterExplMid
	GfxWaterExplBig
	GfxExplosion
)

// Manifest ids of the sound effects the engine plays by itself.
const (
	SFXJump uint32 = 1 + iota
	SFXSwim
	SFXSplash
	SFXExplode
	SFXCrystal
	SFXSpring
	SFXHurt
)
