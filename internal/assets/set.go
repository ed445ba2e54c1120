package assets

import (
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tidepool/internal/cache"
)

// Set groups one cache pool per asset category.
type Set struct {
	Sprites  *cache.Pool[*Image]
	Tilesets *cache.Pool[*Tiles]
	Models   *cache.Pool[*Model]
}

// NewSet creates pools backed by m.
func NewSet(m *Manifest, logger *log.Logger) *Set {
	release := func(kind string) func(name string) {
		return func(name string) {
			if logger != nil {
				logger.Debug("asset released", "kind", kind, "name", name)
			}
		}
	}
	sprites, tiles, models := release("image"), release("tiles"), release("model")
	return &Set{
		Sprites:  cache.NewPool[*Image]("sprites", m.Image, func(img *Image) { sprites(img.Name) }, logger),
		Tilesets: cache.NewPool[*Tiles]("tilesets", m.TileSet, func(ts *Tiles) { tiles(ts.Name) }, logger),
		Models:   cache.NewPool[*Model]("models", m.Model, func(md *Model) { models(md.Name) }, logger),
	}
}

// Loaded returns the number of cached entries across all pools.
func (s *Set) Loaded() int {
	return s.Sprites.Len() + s.Tilesets.Len() + s.Models.Len()
}
