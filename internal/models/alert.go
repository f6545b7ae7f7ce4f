package models

// AlertPayload is the outbound emergency message and its structured parts
type AlertPayload struct {
	Category    Category    `json:"category"`
	City        string      `json:"city,omitempty"`
	Coordinates *Coordinate `json:"coordinates,omitempty"`
	FreeText    string      `json:"free_text"`
	MapsLink    string      `json:"maps_link"`
	Subject     string      `json:"subject"`
	Message     string      `json:"message"`
}

// NotificationResult is the outcome of a single channel send
type NotificationResult struct {
	Channel string `json:"channel"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}
