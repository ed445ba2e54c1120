package registry

import "testing"

func TestTable(t *testing.T) {
	tab := New[func() int]("native")
	tab.Register(2, "two", func() int { return 2 })
	tab.Register(1, "one", func() int { return 1 })

	fn, ok := tab.Lookup(2)
	if !ok || fn() != 2 {
		t.Errorf("Lookup(2) found %v", ok)
	}
	if _, ok := tab.Lookup(3); ok {
		t.Error("Lookup(3) found an entry")
	}
	if !tab.Exists(1) || tab.Exists(9) {
		t.Error("Exists() mismatch")
	}

	id, err := tab.Resolve("one")
	if err != nil || id != 1 {
		t.Errorf("Resolve(one) = %d, %v", id, err)
	}
	if _, err := tab.Resolve("three"); err == nil {
		t.Error("Resolve(three) succeeded")
	}

	list := tab.List()
	if len(list) != 2 || list[0].ID != 1 || list[1].Name != "two" {
		t.Errorf("List() = %+v", list)
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	tab := New[int]("native")
	tab.Register(1, "one", 1)

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register() did not panic")
		}
	}()
	tab.Register(1, "uno", 1)
}
