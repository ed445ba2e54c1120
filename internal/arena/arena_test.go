package arena

import "testing"

type item struct {
	name string
	hp   int
}

func TestAllocGet(t *testing.T) {
	a := New[item](4)
	h, v := a.Alloc()
	v.name = "crate"

	if h.IsNil() {
		t.Fatal("Alloc returned the nil handle")
	}
	got := a.Get(h)
	if got == nil || got.name != "crate" {
		t.Fatalf("Get() = %+v", got)
	}
	if a.Len() != 1 {
		t.Errorf("Len() = %d, expected 1", a.Len())
	}
}

func TestStaleHandleAfterReuse(t *testing.T) {
	a := New[item](1)
	h1, v1 := a.Alloc()
	v1.hp = 10

	if !a.Free(h1) {
		t.Fatal("Free() on a live handle reported false")
	}
	if a.Free(h1) {
		t.Error("second Free() should report false")
	}

	h2, v2 := a.Alloc()
	if h2.Index() != h1.Index() {
		t.Fatalf("slot was not reused: %d vs %d", h2.Index(), h1.Index())
	}
	if v2.hp != 0 {
		t.Errorf("reused slot not zeroed: hp = %d", v2.hp)
	}
	if a.Get(h1) != nil {
		t.Error("stale handle resolved after reuse")
	}
	if a.Get(h2) == nil {
		t.Error("fresh handle did not resolve")
	}
}

func TestNilHandle(t *testing.T) {
	a := New[item](0)
	if a.Get(Nil) != nil {
		t.Error("Get(Nil) should be nil")
	}
	if a.Free(Nil) {
		t.Error("Free(Nil) should report false")
	}
}

func TestReset(t *testing.T) {
	a := New[item](0)
	var hs []Handle
	for i := 0; i < 5; i++ {
		h, _ := a.Alloc()
		hs = append(hs, h)
	}
	a.Reset()

	if a.Len() != 0 {
		t.Errorf("Len() after Reset = %d", a.Len())
	}
	for _, h := range hs {
		if a.Get(h) != nil {
			t.Errorf("handle %d still resolves after Reset", h.Index())
		}
	}
}
