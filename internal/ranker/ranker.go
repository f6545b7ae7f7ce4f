// Package ranker orders facilities by distance to a requester.
package ranker

import (
	"sort"

	"github.com/rajasatyajit/EmergencyTriage/internal/geo"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// Rank returns at most topK facilities closest to origin, nearest first.
// Facilities without a valid location are skipped. Equal distances keep
// directory order. topK below 1 is treated as 1.
func Rank(origin models.Coordinate, facilities []models.Facility, topK int) []models.RankedFacility {
	if topK < 1 {
		topK = 1
	}

	ranked := make([]models.RankedFacility, 0, len(facilities))
	for _, f := range facilities {
		if f.Location == nil || !f.Location.Valid() {
			continue
		}
		ranked = append(ranked, models.RankedFacility{
			Facility:   f,
			DistanceKm: geo.Distance(origin, *f.Location),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
