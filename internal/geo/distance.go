// Package geo provides great-circle distance calculations.
package geo

import (
	"math"

	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// EarthRadiusKm is the mean Earth radius used by Distance
const EarthRadiusKm = 6371.0

// Distance returns the haversine distance between a and b in kilometres,
// rounded to 2 decimal places. Inputs are not range-checked.
func Distance(a, b models.Coordinate) float64 {
	return math.Round(DistanceExact(a, b)*100) / 100
}

// DistanceExact is Distance without rounding
func DistanceExact(a, b models.Coordinate) float64 {
	phi1 := a.Latitude * math.Pi / 180
	phi2 := b.Latitude * math.Pi / 180
	deltaPhi := (b.Latitude - a.Latitude) * math.Pi / 180
	deltaLambda := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*
			math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}
