package cache

import (
	"errors"
	"testing"

	"github.com/vovakirdan/tidepool/internal/core"
)

type fakeStore struct {
	reads    map[uint32]int
	released []string
	fail     bool
}

func (s *fakeStore) load(id uint32) (string, error) {
	if s.fail {
		return "", errors.New("disk on fire")
	}
	s.reads[id]++
	return "asset-" + string(rune('a'+id)), nil
}

func (s *fakeStore) release(v string) {
	s.released = append(s.released, v)
}

func newTestPool() (*Pool[string], *fakeStore) {
	s := &fakeStore{reads: make(map[uint32]int)}
	return NewPool("sprites", s.load, s.release, nil), s
}

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		if _, ok := r.(*core.InvariantError); !ok {
			t.Fatalf("panic value %T, expected *core.InvariantError", r)
		}
	}()
	fn()
}

func TestLoadSharesEntries(t *testing.T) {
	p, s := newTestPool()

	a := p.Load(2)
	b := p.Load(2)
	if a != b {
		t.Fatal("second Load returned a different entry")
	}
	if a.Value() != "asset-c" || a.ID() != 2 {
		t.Errorf("entry = %d %q", a.ID(), a.Value())
	}
	if s.reads[2] != 1 {
		t.Errorf("backing store read %d times, expected 1", s.reads[2])
	}
	if p.Refs(2) != 2 {
		t.Errorf("Refs(2) = %d, expected 2", p.Refs(2))
	}
}

func TestBalancedUnloadEmptiesPool(t *testing.T) {
	tests := []struct {
		name  string
		loads int
	}{
		{"single", 1},
		{"several", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, s := newTestPool()
			var entries []*Entry[string]
			for i := 0; i < tt.loads; i++ {
				entries = append(entries, p.Load(1))
			}
			for _, e := range entries {
				p.Unload(e)
			}

			if p.Len() != 0 {
				t.Fatalf("Len() = %d after balanced unload", p.Len())
			}
			if len(s.released) != 1 {
				t.Errorf("release called %d times, expected 1", len(s.released))
			}

			p.Load(1)
			if s.reads[1] != 2 {
				t.Errorf("next Load read the store %d times in total, expected 2", s.reads[1])
			}
		})
	}
}

func TestUnloadRemovedEntryIsFatal(t *testing.T) {
	p, _ := newTestPool()
	e := p.Load(0)
	p.Unload(e)

	mustPanic(t, func() { p.Unload(e) })
}

func TestLoadFailureIsFatal(t *testing.T) {
	p, s := newTestPool()
	s.fail = true

	mustPanic(t, func() { p.Load(3) })
}

func TestIDsSorted(t *testing.T) {
	p, _ := newTestPool()
	for _, id := range []uint32{5, 1, 3} {
		p.Load(id)
	}
	ids := p.IDs()
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 3 || ids[2] != 5 {
		t.Errorf("IDs() = %v", ids)
	}
}
