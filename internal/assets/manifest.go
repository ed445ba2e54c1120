// Package assets describes the content a map refers to by id (images,
// animation tile sets, models, sounds and other maps) and backs the cache
// pools with it. The manifest is a YAML file; paths in it are relative to
// the manifest's directory.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vovakirdan/tidepool/internal/collision"
	"github.com/vovakirdan/tidepool/internal/mapasset"
	"gopkg.in/yaml.v3"
)

// ErrUnknownAsset is returned by a strict store for ids missing from the manifest.
var ErrUnknownAsset = errors.New("assets: unknown asset")

// Image is a sprite sheet or background image.
type Image struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	W    int    `yaml:"w"`
	H    int    `yaml:"h"`
}

// Frame is one animation frame of a tile set. Next is the frame shown once
// Duration ticks have elapsed.
type Frame struct {
	X, Y      int
	W, H      int
	OffsetX   int
	OffsetY   int
	Duration  uint16
	Next      uint16
	Collision *collision.Set
}

// Tiles is an animation tile set.
type Tiles struct {
	ID     uint32
	Name   string
	Frames []Frame
}

// Model is a display list for model-drawn actors.
type Model struct {
	ID       uint32  `yaml:"id"`
	Name     string  `yaml:"name"`
	Path     string  `yaml:"path"`
	Vertices int     `yaml:"vertices"`
	Scale    float64 `yaml:"scale"`
}

// Sound is a synthesized effect or music bed.
type Sound struct {
	ID       uint32  `yaml:"id"`
	Name     string  `yaml:"name"`
	Freq     float64 `yaml:"freq"`
	Duration float64 `yaml:"duration"`
	Wave     string  `yaml:"wave"`
	Volume   float64 `yaml:"volume"`
}

// MapEntry binds a map id used by load_map to a blob or source file.
type MapEntry struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

type frameSource struct {
	Rect      [4]int                 `yaml:"rect"`
	Offset    [2]int                 `yaml:"offset"`
	Duration  uint16                 `yaml:"duration"`
	Next      *uint16                `yaml:"next"`
	Collision []mapasset.SourceShape `yaml:"collision"`
}

type tilesSource struct {
	ID     uint32        `yaml:"id"`
	Name   string        `yaml:"name"`
	Frames []frameSource `yaml:"frames"`
}

type manifestFile struct {
	Strict bool          `yaml:"strict"`
	Images []Image       `yaml:"images"`
	Tiles  []tilesSource `yaml:"tiles"`
	Models []Model       `yaml:"models"`
	Sounds []Sound       `yaml:"sounds"`
	Maps   []MapEntry    `yaml:"maps"`
}

// Manifest is the resolved content table.
type Manifest struct {
	// Strict makes lookups of unlisted ids fail instead of yielding placeholders.
	Strict bool
	Root   string
	Images map[uint32]Image
	Tiles  map[uint32]*Tiles
	Models map[uint32]Model
	Sounds map[uint32]Sound
	Maps   map[uint32]MapEntry
}

// NewManifest returns an empty, lenient manifest rooted at root.
func NewManifest(root string) *Manifest {
	return &Manifest{
		Root:   root,
		Images: make(map[uint32]Image),
		Tiles:  make(map[uint32]*Tiles),
		Models: make(map[uint32]Model),
		Sounds: make(map[uint32]Sound),
		Maps:   make(map[uint32]MapEntry),
	}
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: cannot read manifest: %w", err)
	}
	m, err := ParseManifest(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes manifest YAML; root anchors relative paths.
func ParseManifest(data []byte, root string) (*Manifest, error) {
	var mf manifestFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("assets: cannot parse manifest: %w", err)
	}

	m := NewManifest(root)
	m.Strict = mf.Strict
	for _, img := range mf.Images {
		if _, dup := m.Images[img.ID]; dup {
			return nil, fmt.Errorf("assets: duplicate image id %d", img.ID)
		}
		m.Images[img.ID] = img
	}
	for _, ts := range mf.Tiles {
		if _, dup := m.Tiles[ts.ID]; dup {
			return nil, fmt.Errorf("assets: duplicate tiles id %d", ts.ID)
		}
		tiles, err := compileTiles(ts)
		if err != nil {
			return nil, err
		}
		m.Tiles[ts.ID] = tiles
	}
	for _, md := range mf.Models {
		if md.Scale == 0 {
			md.Scale = 1
		}
		m.Models[md.ID] = md
	}
	for _, s := range mf.Sounds {
		m.Sounds[s.ID] = s
	}
	for _, me := range mf.Maps {
		if _, dup := m.Maps[me.ID]; dup {
			return nil, fmt.Errorf("assets: duplicate map id %d", me.ID)
		}
		m.Maps[me.ID] = me
	}
	return m, nil
}

func compileTiles(ts tilesSource) (*Tiles, error) {
	tiles := &Tiles{ID: ts.ID, Name: ts.Name}
	n := len(ts.Frames)
	for i, fs := range ts.Frames {
		f := Frame{
			X: fs.Rect[0], Y: fs.Rect[1], W: fs.Rect[2], H: fs.Rect[3],
			OffsetX:  fs.Offset[0],
			OffsetY:  fs.Offset[1],
			Duration: fs.Duration,
			Next:     uint16((i + 1) % n),
		}
		if fs.Next != nil {
			if int(*fs.Next) >= n {
				return nil, fmt.Errorf("assets: tiles %q frame %d links to %d of %d", ts.Name, i, *fs.Next, n)
			}
			f.Next = *fs.Next
		}
		if len(fs.Collision) > 0 {
			set, err := mapasset.CompileShapes(fs.Collision)
			if err != nil {
				return nil, fmt.Errorf("assets: tiles %q frame %d: %w", ts.Name, i, err)
			}
			f.Collision = set
		}
		tiles.Frames = append(tiles.Frames, f)
	}
	return tiles, nil
}

// Path resolves a manifest-relative path.
func (m *Manifest) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, p)
}

// Image looks up an image. Lenient manifests synthesize placeholders.
func (m *Manifest) Image(id uint32) (*Image, error) {
	img, ok := m.Images[id]
	if !ok {
		if m.Strict {
			return nil, fmt.Errorf("%w: image %d", ErrUnknownAsset, id)
		}
		return &Image{ID: id, Name: fmt.Sprintf("image#%d", id)}, nil
	}
	if img.Path != "" {
		if _, err := os.Stat(m.Path(img.Path)); err != nil {
			return nil, fmt.Errorf("assets: image %q: %w", img.Name, err)
		}
	}
	return &img, nil
}

// TileSet looks up an animation tile set. Placeholders have a single frame
// that loops onto itself.
func (m *Manifest) TileSet(id uint32) (*Tiles, error) {
	if ts, ok := m.Tiles[id]; ok {
		return ts, nil
	}
	if m.Strict {
		return nil, fmt.Errorf("%w: tiles %d", ErrUnknownAsset, id)
	}
	return &Tiles{ID: id, Name: fmt.Sprintf("tiles#%d", id), Frames: []Frame{{W: 16, H: 16, Duration: 1}}}, nil
}

// Model looks up a model.
func (m *Manifest) Model(id uint32) (*Model, error) {
	md, ok := m.Models[id]
	if !ok {
		if m.Strict {
			return nil, fmt.Errorf("%w: model %d", ErrUnknownAsset, id)
		}
		return &Model{ID: id, Name: fmt.Sprintf("model#%d", id), Scale: 1}, nil
	}
	return &md, nil
}

// OpenMap loads map id through mapasset.Open.
func (m *Manifest) OpenMap(id uint32) (*mapasset.Asset, error) {
	me, ok := m.Maps[id]
	if !ok {
		return nil, fmt.Errorf("%w: map %d", ErrUnknownAsset, id)
	}
	return mapasset.Open(m.Path(me.Path))
}
