package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreOpenClose(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := store.SaveSlot("a", Save{MapID: 2, Health: 50}); err != nil {
		t.Fatalf("SaveSlot() failed: %v", err)
	}
	store.Close()

	store, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer store.Close()
	if _, ok, err := store.LoadSlot("a"); err != nil || !ok {
		t.Errorf("LoadSlot() after reopen = %v, %v", ok, err)
	}
}

func TestSaveSlots(t *testing.T) {
	store := openTestStore(t)

	if _, ok, err := store.LoadSlot("main"); err != nil || ok {
		t.Fatalf("LoadSlot() on empty store = %v, %v", ok, err)
	}

	if err := store.SaveSlot("main", Save{MapID: 3, Health: 70, Crystals: 12}); err != nil {
		t.Fatalf("SaveSlot() failed: %v", err)
	}
	if err := store.SaveSlot("main", Save{MapID: 4, Health: 90, Crystals: 15}); err != nil {
		t.Fatalf("SaveSlot() overwrite failed: %v", err)
	}

	save, ok, err := store.LoadSlot("main")
	if err != nil || !ok {
		t.Fatalf("LoadSlot() = %v, %v", ok, err)
	}
	if save.Slot != "main" || save.MapID != 4 || save.Health != 90 || save.Crystals != 15 {
		t.Errorf("LoadSlot() = %+v", save)
	}
	if save.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}

	if err := store.SaveSlot("", Save{}); err == nil {
		t.Error("empty slot name accepted")
	}
}

func TestListAndDeleteSlots(t *testing.T) {
	store := openTestStore(t)
	for _, slot := range []string{"b", "a", "c"} {
		if err := store.SaveSlot(slot, Save{MapID: 1, Health: 100}); err != nil {
			t.Fatalf("SaveSlot(%q) failed: %v", slot, err)
		}
	}

	saves, err := store.ListSlots()
	if err != nil {
		t.Fatalf("ListSlots() failed: %v", err)
	}
	if len(saves) != 3 {
		t.Fatalf("Expected 3 saves, got %d", len(saves))
	}

	if err := store.DeleteSlot("a"); err != nil {
		t.Fatalf("DeleteSlot() failed: %v", err)
	}
	if err := store.DeleteSlot("missing"); err != nil {
		t.Errorf("DeleteSlot() of a missing slot failed: %v", err)
	}
	saves, _ = store.ListSlots()
	if len(saves) != 2 {
		t.Errorf("Expected 2 saves after delete, got %d", len(saves))
	}
	for _, s := range saves {
		if s.Slot == "a" {
			t.Error("deleted slot still listed")
		}
	}
}

func TestTopRunsOrder(t *testing.T) {
	store := openTestStore(t)

	runs := []struct {
		crystals int32
		frames   uint64
	}{
		{10, 5000},
		{20, 9000},
		{20, 7000},
		{5, 100},
	}
	for _, r := range runs {
		if _, err := store.RecordRun(1, r.crystals, r.frames); err != nil {
			t.Fatalf("RecordRun() failed: %v", err)
		}
	}
	if _, err := store.RecordRun(2, 99, 1); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	top, err := store.TopRuns(1, 3)
	if err != nil {
		t.Fatalf("TopRuns() failed: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("Expected 3 runs with limit, got %d", len(top))
	}
	want := []struct {
		crystals int32
		frames   uint64
	}{{20, 7000}, {20, 9000}, {10, 5000}}
	for i, w := range want {
		if top[i].Crystals != w.crystals || top[i].Frames != w.frames || top[i].MapID != 1 {
			t.Errorf("run %d = %+v, expected %d crystals in %d frames", i, top[i], w.crystals, w.frames)
		}
	}
}

func TestBestRun(t *testing.T) {
	store := openTestStore(t)

	if _, ok, err := store.BestRun(1); err != nil || ok {
		t.Fatalf("BestRun() on empty store = %v, %v", ok, err)
	}

	store.RecordRun(1, 3, 600)
	store.RecordRun(1, 3, 400)
	best, ok, err := store.BestRun(1)
	if err != nil || !ok {
		t.Fatalf("BestRun() = %v, %v", ok, err)
	}
	if best.Frames != 400 {
		t.Errorf("best run took %d frames, expected 400", best.Frames)
	}

	store.RecordRun(4, 0, 1)
	maps, err := store.RunMaps()
	if err != nil {
		t.Fatalf("RunMaps() failed: %v", err)
	}
	if len(maps) != 2 || maps[0] != 1 || maps[1] != 4 {
		t.Errorf("RunMaps() = %v", maps)
	}
}
