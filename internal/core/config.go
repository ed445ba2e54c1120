package core

// Simulation constants shared by the loader and the frame loop.
const (
	FPS    = 60
	InvFPS = 1.0 / FPS

	// PointScale converts pixels to physics units.
	PointScale    = 1.0 / 16.0
	InvPointScale = 16.0

	TileShift       = 4
	ChunkShift      = 4
	ChunkPixelShift = TileShift + ChunkShift
	ChunkPixelDim   = 1 << ChunkPixelShift
	ChunkTiles      = 1 << (ChunkShift * 2)
	TIDMapShift     = 4
	MaxTID          = 0x3fff
)
