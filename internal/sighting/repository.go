package sighting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-tilt/internal/pipeline"
)

// Sighting is the persisted last known state of one Tilt.
type Sighting struct {
	MAC             string    `json:"mac"`
	Name            string    `json:"name"`
	Color           string    `json:"color"`
	FirstSeen       time.Time `json:"firstSeen"`
	LastSeen        time.Time `json:"lastSeen"`
	Readings        int64     `json:"readings"`
	TemperatureF    float64   `json:"temperature[degF]"`
	TemperatureC    float64   `json:"temperature[degC]"`
	SpecificGravity float64   `json:"specificGravity"`
	Plato           float64   `json:"plato[degP]"`
	RSSI            int       `json:"rssi[dBm]"`
	Calibrated      bool      `json:"calibrated"`
}

// Repository persists sightings.
type Repository interface {
	// Record upserts one sighting per message, all stamped with at.
	Record(ctx context.Context, messages []pipeline.Message, at time.Time) error

	// List returns every sighting, most recently seen first.
	List(ctx context.Context) ([]Sighting, error)

	// Get returns the sighting for a normalised MAC.
	// Returns ErrNotFound if the device was never seen.
	Get(ctx context.Context, mac string) (*Sighting, error)
}

// SQLiteRepository implements Repository on the tilt_sightings table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const upsertSighting = `
	INSERT INTO tilt_sightings (
		mac, name, color, first_seen, last_seen, readings,
		temperature_f, temperature_c, specific_gravity, plato, rssi, calibrated
	) VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(mac) DO UPDATE SET
		name = excluded.name,
		color = excluded.color,
		last_seen = excluded.last_seen,
		readings = tilt_sightings.readings + 1,
		temperature_f = excluded.temperature_f,
		temperature_c = excluded.temperature_c,
		specific_gravity = excluded.specific_gravity,
		plato = excluded.plato,
		rssi = excluded.rssi,
		calibrated = excluded.calibrated`

// Record upserts the messages in a single transaction.
func (r *SQLiteRepository) Record(ctx context.Context, messages []pipeline.Message, at time.Time) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	stmt, err := tx.PrepareContext(ctx, upsertSighting)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	ts := at.UTC().Format(time.RFC3339Nano)
	for _, m := range messages {
		_, err := stmt.ExecContext(ctx,
			m.MAC, m.Name, m.Color, ts, ts,
			m.Data.TemperatureF, m.Data.TemperatureC,
			m.Data.SpecificGravity, m.Data.Plato,
			m.Data.RSSI, boolToInt(m.Data.Calibrated()),
		)
		if err != nil {
			return fmt.Errorf("recording sighting %s: %w", m.MAC, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sightings: %w", err)
	}
	return nil
}

const selectSightings = `
	SELECT mac, name, color, first_seen, last_seen, readings,
		temperature_f, temperature_c, specific_gravity, plato, rssi, calibrated
	FROM tilt_sightings`

// List returns every sighting, most recently seen first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Sighting, error) {
	rows, err := r.db.QueryContext(ctx, selectSightings+" ORDER BY last_seen DESC, mac")
	if err != nil {
		return nil, fmt.Errorf("querying sightings: %w", err)
	}
	defer rows.Close()

	var out []Sighting
	for rows.Next() {
		s, err := scanSighting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sightings: %w", err)
	}
	return out, nil
}

// Get returns the sighting for mac.
func (r *SQLiteRepository) Get(ctx context.Context, mac string) (*Sighting, error) {
	row := r.db.QueryRowContext(ctx, selectSightings+" WHERE mac = ?", mac)
	s, err := scanSighting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSighting(row scanner) (*Sighting, error) {
	var (
		s                   Sighting
		firstSeen, lastSeen string
		calibrated          int
	)
	err := row.Scan(
		&s.MAC, &s.Name, &s.Color, &firstSeen, &lastSeen, &s.Readings,
		&s.TemperatureF, &s.TemperatureC, &s.SpecificGravity, &s.Plato,
		&s.RSSI, &calibrated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning sighting: %w", err)
	}

	if s.FirstSeen, err = time.Parse(time.RFC3339Nano, firstSeen); err != nil {
		return nil, fmt.Errorf("parsing first_seen: %w", err)
	}
	if s.LastSeen, err = time.Parse(time.RFC3339Nano, lastSeen); err != nil {
		return nil, fmt.Errorf("parsing last_seen: %w", err)
	}
	s.Calibrated = calibrated != 0
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
