// Package registry provides id-keyed tables filled from init() functions,
// allowing the simulation to look up host hooks such as script natives
// without hardcoded dependencies on the packages that provide them.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Info describes a registered entry.
type Info struct {
	ID   uint32
	Name string
}

type entry[T any] struct {
	name  string
	value T
}

// Table maps numeric ids to named values.
type Table[T any] struct {
	kind    string
	mu      sync.RWMutex
	entries map[uint32]entry[T]
}

// New creates an empty table. kind names the entries in panics and errors.
func New[T any](kind string) *Table[T] {
	return &Table[T]{kind: kind, entries: make(map[uint32]entry[T])}
}

// Register adds a value under id.
// Typically called from an init() function.
// Panics if the id is already registered.
func (t *Table[T]) Register(id uint32, name string, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, exists := t.entries[id]; exists {
		panic(fmt.Sprintf("registry: %s %d already registered as %q", t.kind, id, prev.name))
	}
	t.entries[id] = entry[T]{name: name, value: v}
}

// Lookup returns the value registered under id.
func (t *Table[T]) Lookup(id uint32) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[id]
	return e.value, ok
}

// Resolve finds an id by name.
// Returns an error if the name is not registered.
func (t *Table[T]) Resolve(name string) (uint32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for id, e := range t.entries {
		if e.name == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("registry: unknown %s %q", t.kind, name)
}

// List returns information about all registered entries, sorted by ID.
func (t *Table[T]) List() []Info {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Info, 0, len(t.entries))
	for id, e := range t.entries {
		result = append(result, Info{ID: id, Name: e.name})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Exists checks if an entry with the given id is registered.
func (t *Table[T]) Exists(id uint32) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.entries[id]
	return ok
}
