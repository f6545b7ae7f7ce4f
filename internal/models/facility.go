package models

import "strings"

// FacilityType is the kind of responder a facility provides
type FacilityType string

const (
	FacilityHospital FacilityType = "hospital"
	FacilityPolice   FacilityType = "police"
)

// ParseFacilityType parses a facility type name
func ParseFacilityType(s string) (FacilityType, bool) {
	switch FacilityType(strings.ToLower(strings.TrimSpace(s))) {
	case FacilityHospital:
		return FacilityHospital, true
	case FacilityPolice:
		return FacilityPolice, true
	}
	return "", false
}

// Facility is a responder location as returned by a directory.
// Location is nil when the source had no usable coordinate.
type Facility struct {
	Name     string       `json:"name"`
	Phone    string       `json:"phone,omitempty"`
	Location *Coordinate  `json:"location,omitempty"`
	Type     FacilityType `json:"type"`
}

// RankedFacility is a facility annotated with its distance to the requester
type RankedFacility struct {
	Facility
	DistanceKm float64 `json:"distance_km"`
}
