package sim

import (
	"encoding/json"
	"time"
)

// timestampLayout renders UTC with microseconds and an explicit numeric
// offset, e.g. "2025-01-15T20:09:00.123456+00:00".
const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Report is a single position report as published to the message bus
type Report struct {
	ICAOAddress  string  `json:"icao_address"`
	Callsign     string  `json:"callsign"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Altitude     int     `json:"altitude"`
	GroundSpeed  int     `json:"ground_speed"`
	Heading      int     `json:"heading"`
	Timestamp    string  `json:"timestamp"`
	Squawk       string  `json:"squawk"`
	AircraftType string  `json:"aircraft_type"`
}

// Encode returns the UTF-8 JSON encoding of the report
func (r *Report) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// FormatTimestamp renders a report timestamp for the given instant
func FormatTimestamp(now time.Time) string {
	return now.UTC().Format(timestampLayout)
}

// Waypoint is a navigation fix an aircraft steers toward
type Waypoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}
