package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// Store defines the interface for facility storage. ListFacilities returns
// facilities in insertion order so ranking ties stay deterministic.
type Store interface {
	UpsertFacilities(ctx context.Context, facilities []models.Facility) error
	ListFacilities(ctx context.Context, t models.FacilityType) ([]models.Facility, error)
	Health(ctx context.Context) error
}

// Database interface for dependency injection
type Database interface {
	Exec(ctx context.Context, op, sql string, args ...any) error
	Query(ctx context.Context, op, sql string, args ...any) (pgx.Rows, error)
	Health(ctx context.Context) error
	IsConfigured() bool
}

// New creates a new store instance
func New(db Database) Store {
	if db != nil && db.IsConfigured() {
		return NewPostgresStore(db)
	}
	// Fallback to the seeded in-memory table if no database
	return NewSeededStore()
}

// DemoFacilities is the built-in table of Amritsar responders
func DemoFacilities() []models.Facility {
	coord := func(lat, lon float64) *models.Coordinate {
		return &models.Coordinate{Latitude: lat, Longitude: lon}
	}
	return []models.Facility{
		{Name: "EMC Super Speciality Hospital, Amritsar", Phone: "+91 180 2571222", Location: coord(31.6203, 74.8765), Type: models.FacilityHospital},
		{Name: "PULSE Hospital, Amritsar", Phone: "+91 180 2640022", Location: coord(31.6200, 74.8760), Type: models.FacilityHospital},
		{Name: "Fortis Escorts Hospital, Amritsar", Phone: "+91 7527000036", Location: coord(31.6400, 74.8770), Type: models.FacilityHospital},
		{Name: "Amandeep Medicity Hospital, Amritsar", Phone: "+91 8288082870", Location: coord(31.64123, 74.87735), Type: models.FacilityHospital},
		{Name: "A Division Police Station (Rambagh / Kotwali area)", Phone: "+91 9781130201", Location: coord(31.6358, 74.88038), Type: models.FacilityPolice},
		{Name: "B Division Police Station (Sultanwind Gate area)", Phone: "+91 9781130202", Location: coord(31.6357, 74.88030), Type: models.FacilityPolice},
		{Name: "C Division Police Station (Gilwali Gate / Maqboolpura)", Phone: "+91 9781130203", Location: coord(31.6360, 74.88040), Type: models.FacilityPolice},
	}
}
