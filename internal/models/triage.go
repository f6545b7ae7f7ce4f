package models

import "time"

// State is a step of the triage pipeline
type State string

const (
	StateReceived            State = "received"
	StateClassified          State = "classified"
	StateGuidanceResolved    State = "guidance_resolved"
	StateGuidanceAbsent      State = "guidance_absent"
	StateLocationResolved    State = "location_resolved"
	StateLocationUnavailable State = "location_unavailable"
	StateFacilitiesRanked    State = "facilities_ranked"
	StateFacilitiesEmpty     State = "facilities_empty"
	StateAlertComposed       State = "alert_composed"
	StateDispatched          State = "dispatched"
)

// TriageResult is the complete outcome of a single triage cycle.
// Slices and maps are always non-nil so the result serializes fully populated.
type TriageResult struct {
	RequestID     string                        `json:"request_id"`
	Category      Category                      `json:"category"`
	Guidance      *GuidanceBundle               `json:"guidance"`
	Location      *Location                     `json:"location"`
	FacilityType  FacilityType                  `json:"facility_type"`
	Facilities    []RankedFacility              `json:"facilities"`
	Alert         AlertPayload                  `json:"alert"`
	Notifications map[string]NotificationResult `json:"notifications"`
	States        []State                       `json:"states"`
	StartedAt     time.Time                     `json:"started_at"`
	Duration      time.Duration                 `json:"duration_ns"`
}

// GuidanceAvailable reports whether guidance was found for the category
func (r TriageResult) GuidanceAvailable() bool {
	return r.Guidance != nil
}
