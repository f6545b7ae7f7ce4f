// Package directory provides responder facilities for a facility type.
// Directories never return errors to the caller: failures are logged and
// reported as an empty result.
package directory

import (
	"context"

	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/metrics"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
	"github.com/rajasatyajit/EmergencyTriage/internal/store"
)

// Directory returns the known facilities of a type
type Directory interface {
	Lookup(ctx context.Context, t models.FacilityType) []models.Facility
}

// NearbyDirectory searches around an origin instead of holding a fixed table
type NearbyDirectory interface {
	LookupNear(ctx context.Context, t models.FacilityType, origin models.Coordinate) []models.Facility
}

// Resolve queries d, preferring a nearby search when d supports one and an
// origin is known
func Resolve(ctx context.Context, d Directory, t models.FacilityType, origin *models.Coordinate) []models.Facility {
	if nd, ok := d.(NearbyDirectory); ok && origin != nil {
		return nd.LookupNear(ctx, t, *origin)
	}
	return d.Lookup(ctx, t)
}

// StoreDirectory serves facilities from a store
type StoreDirectory struct {
	store    store.Store
	provider string
}

// FromStore wraps a store; provider names it in logs and metrics
func FromStore(s store.Store, provider string) *StoreDirectory {
	return &StoreDirectory{store: s, provider: provider}
}

func (d *StoreDirectory) Lookup(ctx context.Context, t models.FacilityType) []models.Facility {
	facilities, err := d.store.ListFacilities(ctx, t)
	if err != nil {
		metrics.RecordDirectoryLookup(d.provider, "error")
		logger.WithContext(ctx).Warn("Facility lookup failed",
			"provider", d.provider,
			"type", t,
			"error", err,
		)
		return []models.Facility{}
	}
	metrics.RecordDirectoryLookup(d.provider, "ok")
	if facilities == nil {
		facilities = []models.Facility{}
	}
	return facilities
}
