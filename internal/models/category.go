package models

import "strings"

// Category is the emergency class assigned to a free-text description
type Category string

const (
	CategoryFire     Category = "fire"
	CategoryMedical  Category = "medical"
	CategoryPolice   Category = "police"
	CategoryAccident Category = "accident"
	CategoryViolence Category = "violence"

	// CategoryUnknown is assigned when a model label is not a known category
	CategoryUnknown Category = "unknown"
)

// Categories lists every known category
var Categories = []Category{
	CategoryFire,
	CategoryMedical,
	CategoryPolice,
	CategoryAccident,
	CategoryViolence,
	CategoryUnknown,
}

// ParseCategory maps a label onto a known category, or CategoryUnknown
func ParseCategory(label string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(label)))
	for _, known := range Categories {
		if c == known {
			return c
		}
	}
	return CategoryUnknown
}

// Upper returns the upper-cased category name used in alert text
func (c Category) Upper() string {
	return strings.ToUpper(string(c))
}

// FacilityTypeFor maps every category to the kind of responder to look up.
// Categories without a natural medical responder default to police.
func FacilityTypeFor(c Category) FacilityType {
	switch c {
	case CategoryMedical, CategoryAccident:
		return FacilityHospital
	default:
		return FacilityPolice
	}
}
