package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vovakirdan/tidepool/internal/assets"
	"github.com/vovakirdan/tidepool/internal/bytecode"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
	"github.com/vovakirdan/tidepool/internal/sim"
	"github.com/vovakirdan/tidepool/internal/storage"
)

func playerMap(startup ...bytecode.Instr) *mapasset.Asset {
	a := &mapasset.Asset{
		Width:     4,
		Height:    4,
		CameraX:   512,
		CameraY:   512,
		WaterLine: mapasset.NoWater,
		Startup:   bytecode.InvalidScript,
		Spawns:    []mapasset.Spawn{{Type: core.ActorYellow, ID: 1, X: 500, Y: 500, Flags: core.AFCurPlayer}},
		SpawnInit: 1,
	}
	if len(startup) > 0 {
		a.Scripts = [][]bytecode.Instr{append(startup, bytecode.Simple{Op: bytecode.OpExit})}
		a.Startup = 0
	}
	return a
}

func writeMap(t *testing.T, m *assets.Manifest, id uint32, a *mapasset.Asset) {
	t.Helper()
	data, err := mapasset.Encode(a)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	name := filepath.Join(m.Root, "next.tmap")
	if err := os.WriteFile(name, data, 0o600); err != nil {
		t.Fatal(err)
	}
	m.Maps[id] = assets.MapEntry{ID: id, Name: "next", Path: "next.tmap"}
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("storage.Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStartRequiresManifest(t *testing.T) {
	if _, err := Start(playerMap(), Options{}); err != ErrNoManifest {
		t.Errorf("Start() error = %v, expected ErrNoManifest", err)
	}
}

func TestSaveAndEnding(t *testing.T) {
	store := openStore(t)
	s, err := Start(playerMap(
		bytecode.Exec{Native: sim.NativeSaveProgress},
		bytecode.Exec{Native: sim.NativeEndGame},
	), Options{
		Manifest: assets.NewManifest(t.TempDir()),
		Store:    store,
		Slot:     "main",
		Seed:     1,
		MapID:    7,
	})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Close()

	if s.Saves() != 1 || s.LastSave().Health != 100 {
		t.Errorf("save_progress: %d saves, last %+v", s.Saves(), s.LastSave())
	}
	save, ok, err := store.LoadSlot("main")
	if err != nil || !ok || save.MapID != 7 || save.Health != 100 {
		t.Fatalf("slot = %+v, %v, %v", save, ok, err)
	}

	st, err := s.Step(core.NewInputFrame())
	if err != nil || st != sim.StatusEnding {
		t.Fatalf("Step() = %v, %v", st, err)
	}
	if _, err := s.Step(core.NewInputFrame()); err != nil {
		t.Fatalf("second Step() failed: %v", err)
	}
	runs, err := store.TopRuns(7, 10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %v, %v; the ending must be recorded once", runs, err)
	}
	if runs[0].Frames != 1 || s.RunID() != runs[0].ID || !s.Ended() {
		t.Errorf("run = %+v, session run id %d", runs[0], s.RunID())
	}
}

func TestRestoreFromSlot(t *testing.T) {
	store := openStore(t)
	store.SaveSlot("main", storage.Save{MapID: 3, Health: 40, Crystals: 9})

	opts := Options{Manifest: assets.NewManifest(t.TempDir()), Store: store, Slot: "main", Seed: 1, MapID: 3}
	s, err := Start(playerMap(), opts)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if ps := sim.SavePlayer(s.Map().Player()); ps.Health != 40 || ps.Crystals != 9 {
		t.Errorf("restored player = %+v", ps)
	}
	s.Close()

	opts.MapID = 4
	s, err = Start(playerMap(), opts)
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Close()
	if ps := sim.SavePlayer(s.Map().Player()); ps.Health != 100 || ps.Crystals != 0 {
		t.Errorf("save of another map applied: %+v", ps)
	}
}

func TestFollowsTransition(t *testing.T) {
	store := openStore(t)
	manifest := assets.NewManifest(t.TempDir())
	writeMap(t, manifest, 2, playerMap(bytecode.Exec{Native: sim.NativeEndGame}))

	s, err := Start(playerMap(
		bytecode.LoadMap{Map: 2, Fade: core.FadeNone},
	), Options{Manifest: manifest, Store: store, Seed: 1, MapID: 1})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Close()

	st, err := s.Step(core.NewInputFrame())
	if err != nil || st != sim.StatusNewMap {
		t.Fatalf("Step() = %v, %v", st, err)
	}
	if s.MapID() != 2 || s.Map().ID != 2 {
		t.Fatalf("map id = %d / %d after transition", s.MapID(), s.Map().ID)
	}
	if st, _ := s.Step(core.NewInputFrame()); st != sim.StatusEnding {
		t.Fatalf("Step() on the new map = %v", st)
	}
	if _, ok, _ := store.BestRun(2); !ok {
		t.Error("run not recorded under the new map")
	}
}

func TestTransitionToUnknownMap(t *testing.T) {
	s, err := Start(playerMap(
		bytecode.LoadMap{Map: 9, Fade: core.FadeNone},
	), Options{Manifest: assets.NewManifest(t.TempDir()), Seed: 1})
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	defer s.Close()
	if _, err := s.Step(core.NewInputFrame()); err == nil {
		t.Error("transition to an unlisted map succeeded")
	}
}
