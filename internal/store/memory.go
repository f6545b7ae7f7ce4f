package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

type facilityKey struct {
	t    models.FacilityType
	name string
}

// InMemoryStore implements Store using in-memory storage
type InMemoryStore struct {
	mu         sync.RWMutex
	facilities []models.Facility
	index      map[facilityKey]int
}

// NewInMemoryStore creates a new empty in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{index: make(map[facilityKey]int)}
}

// NewSeededStore creates an in-memory store holding DemoFacilities
func NewSeededStore() *InMemoryStore {
	s := NewInMemoryStore()
	_ = s.UpsertFacilities(context.Background(), DemoFacilities())
	return s
}

// UpsertFacilities adds facilities, replacing any with the same type and name
// in place so their position is preserved
func (s *InMemoryStore) UpsertFacilities(ctx context.Context, facilities []models.Facility) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range facilities {
		if f.Name == "" {
			return fmt.Errorf("upsert facility: empty name")
		}
		if _, ok := models.ParseFacilityType(string(f.Type)); !ok {
			return fmt.Errorf("upsert facility %q: invalid type %q", f.Name, f.Type)
		}

		f = cloneFacility(f)
		key := facilityKey{t: f.Type, name: f.Name}
		if i, ok := s.index[key]; ok {
			s.facilities[i] = f
			continue
		}
		s.index[key] = len(s.facilities)
		s.facilities = append(s.facilities, f)
	}
	return nil
}

// ListFacilities returns copies of all facilities of type t
func (s *InMemoryStore) ListFacilities(ctx context.Context, t models.FacilityType) ([]models.Facility, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Facility, 0)
	for _, f := range s.facilities {
		if f.Type == t {
			out = append(out, cloneFacility(f))
		}
	}
	return out, nil
}

// Health always returns nil for in-memory store
func (s *InMemoryStore) Health(ctx context.Context) error {
	return nil
}

func cloneFacility(f models.Facility) models.Facility {
	if f.Location != nil {
		loc := *f.Location
		f.Location = &loc
	}
	return f
}
