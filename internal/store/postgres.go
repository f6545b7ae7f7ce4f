package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// Schema creates the facilities table. Coordinates are nullable because
// imported directories are not always geocoded.
const Schema = `
CREATE TABLE IF NOT EXISTS facilities (
	id         BIGSERIAL PRIMARY KEY,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL CHECK (type IN ('hospital', 'police')),
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (type, name)
)`

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db Database
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db Database) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the facilities table if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.Exec(ctx, "migrate", Schema); err != nil {
		return fmt.Errorf("migrate facilities: %w", err)
	}
	return nil
}

// UpsertFacilities inserts or updates facilities keyed by type and name
func (s *PostgresStore) UpsertFacilities(ctx context.Context, facilities []models.Facility) error {
	if len(facilities) == 0 {
		return nil
	}

	query := `
		INSERT INTO facilities (name, phone, type, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (type, name) DO UPDATE SET
			phone = EXCLUDED.phone,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = NOW()
	`

	for _, f := range facilities {
		var lat, lon sql.NullFloat64
		if f.Location != nil {
			lat = sql.NullFloat64{Float64: f.Location.Latitude, Valid: true}
			lon = sql.NullFloat64{Float64: f.Location.Longitude, Valid: true}
		}
		if err := s.db.Exec(ctx, "upsert_facility", query, f.Name, f.Phone, string(f.Type), lat, lon); err != nil {
			return fmt.Errorf("upsert facility %q: %w", f.Name, err)
		}
	}
	return nil
}

// ListFacilities returns facilities of type t in insertion order
func (s *PostgresStore) ListFacilities(ctx context.Context, t models.FacilityType) ([]models.Facility, error) {
	query := `
		SELECT name, phone, type, latitude, longitude
		FROM facilities
		WHERE type = $1
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, "list_facilities", query, string(t))
	if err != nil {
		return nil, fmt.Errorf("query facilities: %w", err)
	}
	defer rows.Close()

	out := make([]models.Facility, 0)
	for rows.Next() {
		var (
			f        models.Facility
			typ      string
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(&f.Name, &f.Phone, &typ, &lat, &lon); err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		f.Type = models.FacilityType(typ)
		if lat.Valid && lon.Valid {
			f.Location = &models.Coordinate{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facilities: %w", err)
	}

	return out, nil
}

// Health checks the database connection
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}
