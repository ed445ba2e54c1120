// Package cache implements refcounted asset pools. A pool loads an asset from
// its backing store on first acquire and releases it when the last holder
// unloads it. There is no eviction: every Load must be paired with one Unload.
package cache

import (
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tidepool/internal/core"
)

// LoadFunc reads asset id from the backing store.
type LoadFunc[T any] func(id uint32) (T, error)

// ReleaseFunc frees an asset once its refcount drops to zero.
type ReleaseFunc[T any] func(T)

// Entry is a handle to a cached asset.
type Entry[T any] struct {
	id    uint32
	refs  uint32
	value T
}

// ID returns the asset id the entry was loaded for.
func (e *Entry[T]) ID() uint32 {
	return e.id
}

// Value returns the loaded asset.
func (e *Entry[T]) Value() T {
	return e.value
}

// Pool is a refcounted cache for one asset category.
type Pool[T any] struct {
	name    string
	load    LoadFunc[T]
	release ReleaseFunc[T]
	logger  *log.Logger
	entries map[uint32]*Entry[T]
	reads   int
}

// NewPool creates an empty pool. release may be nil.
func NewPool[T any](name string, load LoadFunc[T], release ReleaseFunc[T], logger *log.Logger) *Pool[T] {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Pool[T]{
		name:    name,
		load:    load,
		release: release,
		logger:  logger,
		entries: make(map[uint32]*Entry[T]),
	}
}

// Load acquires asset id, reading it from the backing store if it is not cached.
// A failing backing store is fatal: assets are part of the build.
func (p *Pool[T]) Load(id uint32) *Entry[T] {
	if e, ok := p.entries[id]; ok {
		e.refs++
		return e
	}

	v, err := p.load(id)
	if err != nil {
		core.Fatalf("%s pool: cannot load %d: %v", p.name, id, err)
	}
	p.reads++
	e := &Entry[T]{id: id, refs: 1, value: v}
	p.entries[id] = e
	p.logger.Debug("asset loaded", "pool", p.name, "id", id)
	return e
}

// Unload drops one reference to e. A nil entry is ignored.
func (p *Pool[T]) Unload(e *Entry[T]) {
	if e == nil {
		return
	}
	cur, ok := p.entries[e.id]
	core.Assertf(ok && cur == e, "%s pool: entry %d already removed", p.name, e.id)

	e.refs--
	if e.refs > 0 {
		return
	}
	delete(p.entries, e.id)
	if p.release != nil {
		p.release(e.value)
	}
	p.logger.Debug("asset released", "pool", p.name, "id", e.id)
}

// Name returns the pool name.
func (p *Pool[T]) Name() string {
	return p.name
}

// Len returns the number of cached assets.
func (p *Pool[T]) Len() int {
	return len(p.entries)
}

// Refs returns the refcount of id, or 0 when it is not cached.
func (p *Pool[T]) Refs(id uint32) int {
	if e, ok := p.entries[id]; ok {
		return int(e.refs)
	}
	return 0
}

// Reads returns how many times the backing store has been read.
func (p *Pool[T]) Reads() int {
	return p.reads
}

// IDs returns the cached ids in ascending order.
func (p *Pool[T]) IDs() []uint32 {
	ids := make([]uint32, 0, len(p.entries))
	for id := range p.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
