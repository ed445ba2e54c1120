package mapasset

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/core"
)

const (
	tilesetSize    = 12
	backgroundSize = 44
	chunkSize      = 20
	propSize       = 28
	spawnSize      = 24
	waypointSize   = 12
	noNext         = 0xffffffff
	noPlatformWP   = 0xffff
)

// blob reads big-endian fields at absolute offsets. The first out-of-range
// access records an error and every later read returns zero.
type blob struct {
	buf []byte
	err error
}

func (b *blob) check(off, n int, what string) bool {
	if b.err != nil {
		return false
	}
	if off < 0 || n < 0 || off+n > len(b.buf) {
		b.err = fmt.Errorf("%w: %s at %d+%d (blob is %d bytes)", ErrOutOfRange, what, off, n, len(b.buf))
		return false
	}
	return true
}

func (b *blob) u8(off int) uint8 {
	if !b.check(off, 1, "u8") {
		return 0
	}
	return b.buf[off]
}

func (b *blob) u16(off int) uint16 {
	if !b.check(off, 2, "u16") {
		return 0
	}
	return binary.BigEndian.Uint16(b.buf[off:])
}

func (b *blob) u32(off int) uint32 {
	if !b.check(off, 4, "u32") {
		return 0
	}
	return binary.BigEndian.Uint32(b.buf[off:])
}

func (b *blob) i16(off int) int16 { return int16(b.u16(off)) }
func (b *blob) i32(off int) int32 { return int32(b.u32(off)) }
func (b *blob) f32(off int) float32 { return math.Float32frombits(b.u32(off)) }

// sized returns the {len u32, bytes} record at off.
func (b *blob) sized(off int, what string) []byte {
	n := int(b.u32(off))
	if !b.check(off+4, n, what) {
		return nil
	}
	return b.buf[off+4 : off+4+n]
}

// Decode validates a map blob and resolves all of its offsets.
func Decode(data []byte) (*Asset, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: header needs %d bytes, have %d", ErrOutOfRange, headerSize, len(data))
	}
	b := &blob{buf: data}
	if m := b.u32(0); m != Magic {
		return nil, fmt.Errorf("%w: %#08x", ErrBadMagic, m)
	}

	var (
		tilesetCount  = int(b.u16(4))
		bgCount       = int(b.u16(6))
		waypointCount = int(b.u16(8))
		scriptCount   = int(b.u16(10))
		chunkCount    = int(b.u16(20))
		textCount     = int(b.u16(22))
		spawnCount    = int(b.u16(26))

		spawnsOff    = int(b.u32(28))
		waypointsOff = int(b.u32(32))
		collisionOff = int(b.u32(36))
		scriptsOff   = int(b.u32(40))
		textsOff     = int(b.u32(44))
		chunksOff    = int(b.u32(48))
	)

	a := &Asset{
		LowerX:     b.i16(12),
		LowerY:     b.i16(14),
		Width:      b.u16(16),
		Height:     b.u16(18),
		SpawnInit:  int(b.u16(24)),
		Music:      b.u32(52),
		Startup:    b.u32(56),
		ParallaxX:  b.i32(60),
		ParallaxY:  b.i32(64),
		CameraX:    b.i32(68),
		CameraY:    b.i32(72),
		WaterLine:  b.i32(76),
		WaterColor: core.ColorFromUint32(b.u32(80)),
		GravityX:   b.f32(84),
		GravityY:   b.f32(88),
	}
	if a.SpawnInit > spawnCount {
		return nil, fmt.Errorf("%w: %d init spawns of %d", ErrOutOfRange, a.SpawnInit, spawnCount)
	}

	off := headerSize
	for range tilesetCount {
		a.Tilesets = append(a.Tilesets, Tileset{
			FirstTID: b.u16(off),
			EndTID:   b.u16(off + 2),
			XMask:    b.u8(off + 4),
			YShift:   b.u8(off + 5),
			Image:    b.u32(off + 8),
		})
		off += tilesetSize
	}
	for range bgCount {
		a.Backgrounds = append(a.Backgrounds, Background{
			OffsetX:     b.f32(off),
			OffsetY:     b.f32(off + 4),
			AutoscrollX: b.f32(off + 8),
			AutoscrollY: b.f32(off + 12),
			ParallaxX:   b.f32(off + 16),
			ParallaxY:   b.f32(off + 20),
			ClearTop:    core.ColorFromUint32(b.u32(off + 24)),
			ClearBottom: core.ColorFromUint32(b.u32(off + 28)),
			Layer:       b.u8(off + 32),
			RepeatX:     b.u8(off+33) != 0,
			RepeatY:     b.u8(off+34) != 0,
			Image:       b.u32(off + 36),
			AnimTiles:   b.u32(off + 40),
		})
		off += backgroundSize
	}
	if b.err != nil {
		return nil, fmt.Errorf("mapasset: cannot read tilesets: %w", b.err)
	}

	if err := a.decodeWaypoints(b, waypointsOff, waypointCount); err != nil {
		return nil, err
	}
	if err := a.decodeChunks(b, chunksOff, chunkCount); err != nil {
		return nil, err
	}
	if err := a.decodeScripts(b, scriptsOff, scriptCount); err != nil {
		return nil, err
	}
	for i := range textCount {
		text := b.sized(int(b.u32(textsOff+4*i)), "text")
		a.Texts = append(a.Texts, string(text))
	}
	if b.err != nil {
		return nil, fmt.Errorf("mapasset: cannot read texts: %w", b.err)
	}
	if err := a.decodeSpawns(b, spawnsOff, spawnCount); err != nil {
		return nil, err
	}

	if collisionOff != 0 {
		set, err := parseCollision(b, collisionOff)
		if err != nil {
			return nil, fmt.Errorf("mapasset: cannot read map collision: %w", err)
		}
		a.Collision = set
	}
	return a, nil
}

func parseCollision(b *blob, off int) (*collision.Set, error) {
	if !b.check(off, 0, "collision") {
		return nil, b.err
	}
	set, _, err := collision.Parse(b.buf[off:])
	return set, err
}

func (a *Asset) decodeWaypoints(b *blob, off, count int) error {
	for i := range count {
		rec := off + i*waypointSize
		wp := Waypoint{X: b.i32(rec), Y: b.i32(rec + 4), Next: NoWaypoint}
		if next := b.u32(rec + 8); next != noNext {
			if int(next) >= count {
				return fmt.Errorf("%w: waypoint %d links to %d of %d", ErrOutOfRange, i, next, count)
			}
			wp.Next = int(next)
		}
		a.Waypoints = append(a.Waypoints, wp)
	}
	if b.err != nil {
		return fmt.Errorf("mapasset: cannot read waypoints: %w", b.err)
	}
	return nil
}

func (a *Asset) decodeChunks(b *blob, off, count int) error {
	for i := range count {
		rec := int(b.u32(off + 4*i))
		c := &Chunk{
			X:       b.i16(rec),
			Y:       b.i16(rec + 2),
			PX:      b.i32(rec + 4),
			PY:      b.i32(rec + 8),
			FgLayer: b.u8(rec + 13),
		}
		layers := int(b.u8(rec + 12))
		propCount := int(b.u16(rec + 14))
		propsOff := int(b.u32(rec + 16))

		tiles := rec + chunkSize
		if !b.check(tiles, layers*ChunkTiles*2, "chunk tiles") {
			break
		}
		for l := range layers {
			layer := make([]uint16, ChunkTiles)
			base := tiles + l*ChunkTiles*2
			for t := range layer {
				layer[t] = binary.BigEndian.Uint16(b.buf[base+2*t:])
			}
			c.Layers = append(c.Layers, layer)
		}
		for p := range propCount {
			po := int(b.u32(propsOff + 4*p))
			c.Props = append(c.Props, Prop{
				Layer: b.u32(po),
				X:     b.i32(po + 4),
				Y:     b.i32(po + 8),
				W:     b.u32(po + 12),
				H:     b.u32(po + 16),
				Image: b.u32(po + 20),
				Tiles: b.u32(po + 24),
			})
		}

		cx, cy := int(c.X)-int(a.LowerX), int(c.Y)-int(a.LowerY)
		if b.err == nil && (cx < 0 || cy < 0 || cx >= int(a.Width) || cy >= int(a.Height)) {
			return fmt.Errorf("%w: chunk (%d,%d) outside map bounds", ErrOutOfRange, c.X, c.Y)
		}
		a.Chunks = append(a.Chunks, c)
	}
	if b.err != nil {
		return fmt.Errorf("mapasset: cannot read chunks: %w", b.err)
	}
	return nil
}

func (a *Asset) decodeScripts(b *blob, off, count int) error {
	for i := range count {
		stream := b.sized(int(b.u32(off+4*i)), "script")
		if b.err != nil {
			break
		}
		prog, err := bytecode.Decode(stream)
		if err != nil {
			return fmt.Errorf("mapasset: cannot decode script %d: %w", i, err)
		}
		a.Scripts = append(a.Scripts, prog)
	}
	if b.err != nil {
		return fmt.Errorf("mapasset: cannot read scripts: %w", b.err)
	}
	return nil
}

func (a *Asset) decodeSpawns(b *blob, off, count int) error {
	for i := range count {
		rec := off + i*spawnSize
		s := Spawn{
			Type:     core.ActorType(b.u32(rec)),
			X:        b.i32(rec + 4),
			Y:        b.i32(rec + 8),
			Flags:    core.ActorFlags(b.u32(rec + 12)),
			ID:       b.u16(rec + 16),
			Rotation: b.u16(rec + 18),
		}
		arg := b.u32(rec + 20)
		switch {
		case s.Type == core.ActorTrigger && arg != 0:
			ta := TriggerArg{Script: b.u32(int(arg))}
			if co := int(b.u32(int(arg) + 4)); co != 0 {
				set, err := parseCollision(b, co)
				if err != nil {
					return fmt.Errorf("mapasset: cannot read trigger %d collision: %w", i, err)
				}
				ta.Collision = set
			}
			s.Arg = ta
		case s.Type.IsPlatform():
			pa := PlatformArg{Waypoint: int(arg & 0xffff), Speed: uint16(arg >> 16)}
			if arg&0xffff == noPlatformWP {
				pa.Waypoint = NoWaypoint
			}
			s.Arg = pa
		}
		a.Spawns = append(a.Spawns, s)
	}
	if b.err != nil {
		return fmt.Errorf("mapasset: cannot read spawns: %w", b.err)
	}
	return nil
}
