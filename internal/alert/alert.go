// Package alert builds the outbound emergency message.
package alert

import (
	"fmt"
	"strings"

	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

// Unavailable stands in for coordinates and the maps link when no position is known
const Unavailable = "unavailable"

const unknownCity = "unknown"

// Subject returns the email subject line for a category
func Subject(c models.Category) string {
	return "EMERGENCY ALERT: " + c.Upper()
}

// MapsLink returns a Google Maps search link for the coordinate, using the
// same 4-decimal precision shown in the message body.
func MapsLink(c models.Coordinate) string {
	return "https://www.google.com/maps/search/?api=1&query=" + c.String()
}

// Compose builds the alert for a classified emergency. It never fails:
// a nil coordinate renders as "unavailable" and an empty city as "unknown".
func Compose(category models.Category, coords *models.Coordinate, city, freeText string) models.AlertPayload {
	p := models.AlertPayload{
		Category: category,
		City:     strings.TrimSpace(city),
		FreeText: freeText,
		MapsLink: Unavailable,
		Subject:  Subject(category),
	}

	coordText := Unavailable
	if coords != nil {
		c := *coords
		p.Coordinates = &c
		p.MapsLink = MapsLink(c)
		coordText = fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
	}

	shownCity := p.City
	if shownCity == "" {
		shownCity = unknownCity
	}

	var b strings.Builder
	b.WriteString("🚨 EMERGENCY ALERT 🚨\n\n")
	fmt.Fprintf(&b, "Type: %s\n", category.Upper())
	fmt.Fprintf(&b, "Location: %s\n", shownCity)
	fmt.Fprintf(&b, "Coordinates: %s\n", coordText)
	fmt.Fprintf(&b, "Google Maps: %s\n\n", p.MapsLink)
	fmt.Fprintf(&b, "%s\n", freeText)
	b.WriteString("Please check on me!")
	p.Message = b.String()

	return p
}
