// Package worldstore persists generated worlds field by field in SQLite.
package worldstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/Coelancanth/Darklands-sub002/internal/temperature"
	"github.com/Coelancanth/Darklands-sub002/internal/thresholds"
	"github.com/Coelancanth/Darklands-sub002/internal/world"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when no stored world matches a lookup.
var ErrNotFound = errors.New("world not found")

// Summary describes one stored world without loading its grids.
type Summary struct {
	ID     int64
	Seed   int64
	Width  int
	Height int
	Fields int
}

// Store reads and writes worlds in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// createSchema creates the worlds and fields tables. Threshold and climate
// columns are nullable so worlds saved before those stages existed still load.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS worlds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			sea_level REAL,
			hill_level REAL,
			mountain_level REAL,
			peak_level REAL,
			axial_tilt REAL,
			distance_to_sun_sq REAL
		);

		CREATE INDEX IF NOT EXISTS worlds_seed ON worlds (seed, width, height);

		CREATE TABLE IF NOT EXISTS fields (
			world_id INTEGER NOT NULL REFERENCES worlds (id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			kind INTEGER NOT NULL,
			width INTEGER NOT NULL,
			height INTEGER NOT NULL,
			data BLOB NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS field_index ON fields (world_id, name);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// Save writes w and every present field in one transaction and returns the
// new world id.
func (s *Store) Save(ctx context.Context, w *world.World) (int64, error) {
	if w == nil {
		return 0, errors.New("cannot save nil world")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck

	var sea, hill, mountain, peak, tilt, dist sql.NullFloat64
	if t := w.Thresholds; t != nil {
		sea = sql.NullFloat64{Float64: t.SeaLevel, Valid: true}
		hill = sql.NullFloat64{Float64: t.HillLevel, Valid: true}
		mountain = sql.NullFloat64{Float64: t.MountainLevel, Valid: true}
		peak = sql.NullFloat64{Float64: t.PeakLevel, Valid: true}
	}
	if c := w.Climate; c != nil {
		tilt = sql.NullFloat64{Float64: c.AxialTilt, Valid: true}
		dist = sql.NullFloat64{Float64: c.DistanceToSunSq, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO worlds (seed, width, height, sea_level, hill_level, mountain_level, peak_level, axial_tilt, distance_to_sun_sq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.Seed, w.Width, w.Height, sea, hill, mountain, peak, tilt, dist)
	if err != nil {
		return 0, fmt.Errorf("failed to insert world: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read world id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO fields (world_id, name, kind, width, height, data) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare field insert: %w", err)
	}
	defer stmt.Close()

	for _, name := range w.Present() {
		f, err := w.Field(name)
		if err != nil {
			return 0, err
		}
		data, err := encodeField(f)
		if err != nil {
			return 0, fmt.Errorf("failed to encode field %s: %w", name, err)
		}
		fw, fh := f.Size()
		if _, err := stmt.ExecContext(ctx, id, string(name), int(f.Kind), fw, fh, data); err != nil {
			return 0, fmt.Errorf("failed to insert field %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// Load reads the world with the given id. Fields that were never stored are
// left nil; field names this version does not know are skipped.
func (s *Store) Load(ctx context.Context, id int64) (*world.World, error) {
	var (
		w                         world.World
		sea, hill, mountain, peak sql.NullFloat64
		tilt, dist                sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT seed, width, height, sea_level, hill_level, mountain_level, peak_level, axial_tilt, distance_to_sun_sq
		FROM worlds WHERE id = ?`, id,
	).Scan(&w.Seed, &w.Width, &w.Height, &sea, &hill, &mountain, &peak, &tilt, &dist)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query world: %w", err)
	}

	if sea.Valid && hill.Valid && mountain.Valid && peak.Valid {
		w.Thresholds = &thresholds.Thresholds{
			SeaLevel:      sea.Float64,
			HillLevel:     hill.Float64,
			MountainLevel: mountain.Float64,
			PeakLevel:     peak.Float64,
		}
	}
	if tilt.Valid && dist.Valid {
		w.Climate = &temperature.ClimateParameters{AxialTilt: tilt.Float64, DistanceToSunSq: dist.Float64}
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, kind, width, height, data FROM fields WHERE world_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name         string
			kind, fw, fh int
			data         []byte
		)
		if err := rows.Scan(&name, &kind, &fw, &fh, &data); err != nil {
			return nil, fmt.Errorf("failed to scan field row: %w", err)
		}
		fieldName, err := world.LookupField(name)
		if err != nil {
			continue
		}
		f, err := decodeField(fieldName, world.Kind(kind), fw, fh, data)
		if err != nil {
			return nil, err
		}
		if err := w.SetField(f); err != nil {
			return nil, fmt.Errorf("failed to restore field %s: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fields: %w", err)
	}

	return &w, nil
}

// Find returns the id of the most recently saved world for (seed, width, height).
func (s *Store) Find(ctx context.Context, seed int64, width, height int) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM worlds WHERE seed = ? AND width = ? AND height = ? ORDER BY id DESC LIMIT 1",
		seed, width, height,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: seed %d (%dx%d)", ErrNotFound, seed, width, height)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query world: %w", err)
	}
	return id, nil
}

// List returns a summary of every stored world, oldest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id, w.seed, w.width, w.height, COUNT(f.name)
		FROM worlds w LEFT JOIN fields f ON f.world_id = w.id
		GROUP BY w.id ORDER BY w.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query worlds: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Seed, &s.Width, &s.Height, &s.Fields); err != nil {
			return nil, fmt.Errorf("failed to scan world row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating worlds: %w", err)
	}
	return out, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
