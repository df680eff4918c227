// Package event defines the typed events classified from server log lines.
package event

// Type identifies the kind of a classified log line.
type Type string

const (
	// TrackSet updates the observed track candidate.
	TrackSet Type = "track_set"
	// ConfigSet updates the observed config (layout) candidate.
	ConfigSet Type = "config_set"
	// CarRequested announces a car request not yet bound to a driver.
	CarRequested Type = "car_requested"
	// DriverAccepted binds a driver to the oldest pending car request.
	DriverAccepted Type = "driver_accepted"
	// CutsReport carries the cut count of the most recent lap.
	CutsReport Type = "cuts_report"
	// LapReport announces a completed, not yet confirmed lap.
	LapReport Type = "lap_report"
)

// Source identifies which log convention a track or config value came from.
type Source string

const (
	SourceKeyValue    Source = "key_value"    // TRACK=... / CONFIG=...
	SourceJSON        Source = "json"         // "TRACK":"..." fragments
	SourceContentPath Source = "content_path" // content/tracks/... paths
	SourceQuery       Source = "query"        // track=... query parameters
)

// Event is a single classification produced from a log line.
// Only the fields relevant to Type are set.
type Event struct {
	Type   Type   `json:"type"`
	Source Source `json:"source,omitempty"`

	// Value is the raw or resolved track/config value for TrackSet and ConfigSet.
	Value string `json:"value,omitempty"`
	// Resolved marks a TrackSet whose Value is already a layout-qualified
	// canonical key. Applying it clears the config candidate.
	Resolved bool `json:"resolved,omitempty"`

	Player string `json:"player,omitempty"`
	Car    string `json:"car,omitempty"`
	Cuts   int    `json:"cuts,omitempty"`
	LapMs  int64  `json:"lap_ms,omitempty"`
}
