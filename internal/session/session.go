// Package session hosts a running map: it ticks it, follows load_map
// transitions through the manifest, persists save slots and records
// finished runs.
package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tidepool/internal/assets"
	"github.com/vovakirdan/tidepool/internal/audio"
	"github.com/vovakirdan/tidepool/internal/config"
	"github.com/vovakirdan/tidepool/internal/core"
	"github.com/vovakirdan/tidepool/internal/mapasset"
	"github.com/vovakirdan/tidepool/internal/sim"
	"github.com/vovakirdan/tidepool/internal/storage"
)

// Options configure a session. Store and Slot are optional: without them
// nothing is persisted.
type Options struct {
	Logger   *log.Logger
	Config   config.Engine
	Manifest *assets.Manifest
	Store    *storage.Store
	Slot     string
	Seed     uint64
	// MapID is the id the first map is known under in the manifest.
	MapID uint32
}

// Session owns one map and everything it needs to keep running.
type Session struct {
	opts   Options
	logger *log.Logger
	set    *assets.Set
	mixer  *audio.Mixer
	m      *sim.Map

	mapID    uint32
	frames   uint64
	ended    bool
	lastSave sim.PlayerSave
	saves    int
	runID    int64
}

// ErrNoManifest is returned by Start without a manifest.
var ErrNoManifest = errors.New("session: no asset manifest")

// Start loads asset as the first map of a session.
func Start(asset *mapasset.Asset, opts Options) (*Session, error) {
	if opts.Manifest == nil {
		return nil, ErrNoManifest
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Config.Sim.FPS == 0 {
		opts.Config = config.DefaultEngineConfig()
	}

	s := &Session{
		opts:   opts,
		logger: opts.Logger,
		set:    assets.NewSet(opts.Manifest, opts.Logger),
		mixer:  audio.NewMixer(opts.Config.Audio, opts.Config.Sim.FPS, opts.Logger),
		mapID:  opts.MapID,
	}

	m, err := sim.Load(asset, sim.Deps{
		Logger:       opts.Logger,
		Assets:       s.set,
		Audio:        s.mixer,
		Config:       opts.Config,
		Seed:         opts.Seed,
		OnSave:       s.save,
		OnTransition: s.transitioned,
	})
	if err != nil {
		return nil, err
	}
	m.ID = opts.MapID
	s.m = m
	s.mixer.PlayMusic(asset.Music, 0, 0)

	if err := s.restore(); err != nil {
		m.Unload()
		return nil, err
	}
	return s, nil
}

// restore applies the slot save when it belongs to this map.
func (s *Session) restore() error {
	if s.opts.Store == nil || s.opts.Slot == "" {
		return nil
	}
	save, ok, err := s.opts.Store.LoadSlot(s.opts.Slot)
	if err != nil {
		return err
	}
	if !ok || save.MapID != s.mapID {
		return nil
	}
	sim.RestorePlayer(s.m.Player(), sim.PlayerSave{Health: save.Health, Crystals: save.Crystals})
	s.logger.Info("save restored", "slot", s.opts.Slot, "health", save.Health, "crystals", save.Crystals)
	return nil
}

func (s *Session) save(ps sim.PlayerSave) {
	s.lastSave = ps
	s.saves++
	if s.opts.Store == nil || s.opts.Slot == "" {
		return
	}
	err := s.opts.Store.SaveSlot(s.opts.Slot, storage.Save{
		MapID:    s.mapID,
		Health:   ps.Health,
		Crystals: ps.Crystals,
	})
	if err != nil {
		s.logger.Error("save failed", "slot", s.opts.Slot, "err", err)
		return
	}
	s.logger.Info("progress saved", "slot", s.opts.Slot, "map", s.mapID)
}

func (s *Session) transitioned(mapID uint32, ps sim.PlayerSave) {
	s.mapID = mapID
}

// openMap resolves a load_map target and starts its music.
func (s *Session) openMap(id uint32) (*mapasset.Asset, error) {
	a, err := s.opts.Manifest.OpenMap(id)
	if err != nil {
		return nil, err
	}
	s.mixer.PlayMusic(a.Music, 1, 0)
	return a, nil
}

// Step runs one frame. A pending map is swapped in, and an ending is
// recorded once.
func (s *Session) Step(in core.InputFrame) (sim.Status, error) {
	st := s.m.Tick(in)
	s.frames++
	s.mixer.Advance(1)

	switch st {
	case sim.StatusNewMap:
		if err := s.m.Transition(s.openMap); err != nil {
			return st, fmt.Errorf("session: %w", err)
		}
	case sim.StatusEnding:
		if !s.ended {
			s.ended = true
			if err := s.recordRun(); err != nil {
				return st, err
			}
		}
	}
	return st, nil
}

func (s *Session) recordRun() error {
	ps := sim.SavePlayer(s.m.Player())
	s.logger.Info("run finished", "map", s.mapID, "crystals", ps.Crystals, "frames", s.frames)
	if s.opts.Store == nil {
		return nil
	}
	id, err := s.opts.Store.RecordRun(s.mapID, ps.Crystals, s.frames)
	if err != nil {
		return err
	}
	s.runID = id
	return nil
}

// Map returns the running map. It is the same value across transitions.
func (s *Session) Map() *sim.Map { return s.m }

// MapID is the manifest id of the running map.
func (s *Session) MapID() uint32 { return s.mapID }

// Frames counts the frames stepped across all maps.
func (s *Session) Frames() uint64 { return s.frames }

// Ended reports whether the game has reached its ending.
func (s *Session) Ended() bool { return s.ended }

// Saves counts save_progress calls.
func (s *Session) Saves() int { return s.saves }

// LastSave is the player state passed to the last save_progress call.
func (s *Session) LastSave() sim.PlayerSave { return s.lastSave }

// RunID is the id of the recorded run, or 0.
func (s *Session) RunID() int64 { return s.runID }

// Mixer returns the audio sink.
func (s *Session) Mixer() *audio.Mixer { return s.mixer }

// Assets returns the asset pools.
func (s *Session) Assets() *assets.Set { return s.set }

// Close releases the map.
func (s *Session) Close() {
	if s.m != nil {
		s.m.Unload()
		s.m = nil
	}
}
