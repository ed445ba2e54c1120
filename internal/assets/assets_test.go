package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/tidepool/internal/collision"
)

const manifestYAML = `
images:
  - {id: 1, name: hero, w: 64, h: 64}
  - {id: 2, name: sea, path: gfx/sea.png}
tiles:
  - id: 5
    name: hero_run
    frames:
      - rect: [0, 0, 16, 16]
        duration: 4
        collision:
          - {type: aabb, rect: [0, 0, 16, 16], id: body}
          - {type: aabb, rect: [4, 14, 12, 16], id: foot, flags: [sensor]}
      - {rect: [16, 0, 16, 16], duration: 4}
      - {rect: [32, 0, 16, 16], duration: 4, next: 1}
models:
  - {id: 3, name: ship, vertices: 96}
sounds:
  - {id: 1, name: jump, freq: 660, duration: 0.1, wave: square}
maps:
  - {id: 1, name: harbor, path: maps/harbor.yaml}
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(manifestYAML), "/data")
	if err != nil {
		t.Fatalf("ParseManifest() failed: %v", err)
	}

	tiles := m.Tiles[5]
	if tiles == nil || len(tiles.Frames) != 3 {
		t.Fatalf("tiles = %+v", tiles)
	}
	tests := []struct {
		frame int
		next  uint16
	}{
		{0, 1},
		{1, 2},
		{2, 1},
	}
	for _, tt := range tests {
		if got := tiles.Frames[tt.frame].Next; got != tt.next {
			t.Errorf("frame %d next = %d, expected %d", tt.frame, got, tt.next)
		}
	}

	set := tiles.Frames[0].Collision
	if set == nil || len(set.Shapes) != 2 {
		t.Fatalf("frame 0 collision = %+v", set)
	}
	if foot := set.Shapes[1]; foot.ID != collision.MakeTag("foot") || foot.Flags&collision.FlagSensor == 0 {
		t.Errorf("foot shape = %+v", foot)
	}
	if tiles.Frames[1].Collision != nil {
		t.Error("frame without shapes has a collision set")
	}

	if m.Models[3].Scale != 1 {
		t.Errorf("model scale = %v, expected default 1", m.Models[3].Scale)
	}
	if got := m.Path(m.Maps[1].Path); got != filepath.Join("/data", "maps/harbor.yaml") {
		t.Errorf("map path = %q", got)
	}
}

func TestManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"duplicate image", "images: [{id: 1}, {id: 1}]"},
		{"bad frame link", "tiles: [{id: 1, frames: [{next: 4}]}]"},
		{"bad shape", "tiles: [{id: 1, frames: [{collision: [{type: blob}]}]}]"},
		{"not yaml", "images: {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseManifest([]byte(tt.src), "."); err == nil {
				t.Error("ParseManifest() succeeded")
			}
		})
	}
}

func TestLenientAndStrict(t *testing.T) {
	lenient := NewManifest(".")
	img, err := lenient.Image(42)
	if err != nil || img.ID != 42 {
		t.Errorf("lenient Image(42) = %+v, %v", img, err)
	}
	ts, err := lenient.TileSet(7)
	if err != nil || len(ts.Frames) != 1 || ts.Frames[0].Next != 0 {
		t.Errorf("lenient TileSet(7) = %+v, %v", ts, err)
	}

	strict := NewManifest(".")
	strict.Strict = true
	if _, err := strict.Model(1); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("strict Model(1) error = %v", err)
	}
	if _, err := strict.OpenMap(9); !errors.Is(err, ErrUnknownAsset) {
		t.Errorf("OpenMap(9) error = %v", err)
	}
}

func TestImageFileMustExist(t *testing.T) {
	dir := t.TempDir()
	m, err := ParseManifest([]byte(manifestYAML), dir)
	if err != nil {
		t.Fatalf("ParseManifest() failed: %v", err)
	}
	if _, err := m.Image(2); err == nil {
		t.Error("Image(2) succeeded without the file")
	}

	if err := os.MkdirAll(filepath.Join(dir, "gfx"), 0o755); err != nil {
		t.Fatalf("MkdirAll() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "gfx", "sea.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	if _, err := m.Image(2); err != nil {
		t.Errorf("Image(2) failed: %v", err)
	}
}

func TestSetPools(t *testing.T) {
	m, err := ParseManifest([]byte(manifestYAML), ".")
	if err != nil {
		t.Fatalf("ParseManifest() failed: %v", err)
	}
	set := NewSet(m, nil)

	a := set.Sprites.Load(1)
	b := set.Sprites.Load(1)
	tiles := set.Tilesets.Load(5)
	if a != b || set.Sprites.Refs(1) != 2 {
		t.Errorf("sprite refs = %d", set.Sprites.Refs(1))
	}
	if set.Loaded() != 2 {
		t.Errorf("Loaded() = %d, expected 2", set.Loaded())
	}
	if tiles.Value().Name != "hero_run" {
		t.Errorf("tiles name = %q", tiles.Value().Name)
	}

	set.Sprites.Unload(a)
	set.Sprites.Unload(b)
	set.Tilesets.Unload(tiles)
	if set.Loaded() != 0 {
		t.Errorf("Loaded() = %d after unloading everything", set.Loaded())
	}
}
