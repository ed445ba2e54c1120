// Package storage provides SQLite-based persistence for save slots and
// finished runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Save is the player progress kept in a slot.
type Save struct {
	Slot      string
	MapID     uint32
	Health    int32
	Crystals  int32
	UpdatedAt time.Time
}

// Run is one finished playthrough of a map.
type Run struct {
	ID        int64
	MapID     uint32
	Crystals  int32
	Frames    uint64
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			map_id INTEGER NOT NULL,
			health INTEGER NOT NULL,
			crystals INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			map_id INTEGER NOT NULL,
			crystals INTEGER NOT NULL DEFAULT 0,
			frames INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_top ON runs(map_id, crystals DESC, frames ASC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// parseTime handles both time.Time and the string form SQLite returns for
// CURRENT_TIMESTAMP columns.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// SaveSlot writes save under slot, replacing what was there.
func (s *Store) SaveSlot(slot string, save Save) error {
	if slot == "" {
		return errors.New("storage: empty slot name")
	}
	_, err := s.db.Exec(
		`INSERT INTO saves (slot, map_id, health, crystals, updated_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(slot) DO UPDATE SET
		   map_id = excluded.map_id,
		   health = excluded.health,
		   crystals = excluded.crystals,
		   updated_at = excluded.updated_at`,
		slot, save.MapID, save.Health, save.Crystals,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save slot %q: %w", slot, err)
	}
	return nil
}

// LoadSlot reads slot. The bool is false when the slot is empty.
func (s *Store) LoadSlot(slot string) (Save, bool, error) {
	save := Save{Slot: slot}
	var updatedAt any
	err := s.db.QueryRow(
		"SELECT map_id, health, crystals, updated_at FROM saves WHERE slot = ?",
		slot,
	).Scan(&save.MapID, &save.Health, &save.Crystals, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Save{}, false, nil
	}
	if err != nil {
		return Save{}, false, fmt.Errorf("storage: cannot load slot %q: %w", slot, err)
	}
	save.UpdatedAt = parseTime(updatedAt)
	return save, true, nil
}

// ListSlots returns every save, most recently written first.
func (s *Store) ListSlots() ([]Save, error) {
	rows, err := s.db.Query(
		`SELECT slot, map_id, health, crystals, updated_at
		 FROM saves
		 ORDER BY updated_at DESC, slot ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query saves: %w", err)
	}
	defer rows.Close()

	var saves []Save
	for rows.Next() {
		var save Save
		var updatedAt any
		if err := rows.Scan(&save.Slot, &save.MapID, &save.Health, &save.Crystals, &updatedAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		save.UpdatedAt = parseTime(updatedAt)
		saves = append(saves, save)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return saves, nil
}

// DeleteSlot removes slot. Deleting an empty slot is not an error.
func (s *Store) DeleteSlot(slot string) error {
	if _, err := s.db.Exec("DELETE FROM saves WHERE slot = ?", slot); err != nil {
		return fmt.Errorf("storage: cannot delete slot %q: %w", slot, err)
	}
	return nil
}

// RecordRun stores a finished run and returns its ID.
func (s *Store) RecordRun(mapID uint32, crystals int32, frames uint64) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO runs (map_id, crystals, frames) VALUES (?, ?, ?)",
		mapID, crystals, int64(frames),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot record run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopRuns retrieves the best N runs of a map: most crystals first, then
// the fastest.
func (s *Store) TopRuns(mapID uint32, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT id, map_id, crystals, frames, created_at
		 FROM runs
		 WHERE map_id = ?
		 ORDER BY crystals DESC, frames ASC, id ASC
		 LIMIT ?`,
		mapID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var frames int64
		var createdAt any
		if err := rows.Scan(&r.ID, &r.MapID, &r.Crystals, &frames, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Frames = uint64(frames)
		r.CreatedAt = parseTime(createdAt)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// BestRun returns the top run of a map. The bool is false when the map
// has no runs.
func (s *Store) BestRun(mapID uint32) (Run, bool, error) {
	runs, err := s.TopRuns(mapID, 1)
	if err != nil || len(runs) == 0 {
		return Run{}, false, err
	}
	return runs[0], true, nil
}

// RunMaps lists the maps that have at least one recorded run.
func (s *Store) RunMaps() ([]uint32, error) {
	rows, err := s.db.Query("SELECT DISTINCT map_id FROM runs ORDER BY map_id")
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query run maps: %w", err)
	}
	defer rows.Close()

	var ids []uint32
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
