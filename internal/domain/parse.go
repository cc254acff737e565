package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// ParseRawEvent deserializes a RawEvent's value into a Report.
// String fields are trimmed, a missing sub-location becomes UnknownLocation and
// a missing ID is derived from the report content. Field values are otherwise
// taken as-is: invariants are not validated here.
func ParseRawEvent(raw RawEvent) (Report, error) {
	var r Report
	if err := json.Unmarshal(raw.Value, &r); err != nil {
		return Report{}, fmt.Errorf("parse raw event: %w", err)
	}

	r.ID = strings.TrimSpace(r.ID)
	r.Type = strings.TrimSpace(r.Type)
	r.District = strings.TrimSpace(r.District)
	r.State = strings.TrimSpace(r.State)
	r.LocationKey = strings.TrimSpace(r.LocationKey)
	r.Intensity = Intensity(strings.TrimSpace(string(r.Intensity)))
	r.Source = strings.TrimSpace(r.Source)

	if r.LocationKey == "" {
		r.LocationKey = UnknownLocation
	}
	if r.CategoryCounts == nil {
		r.CategoryCounts = map[string]int{}
	}
	if r.ID == "" {
		r.ID = generateID(r)
	}
	return r, nil
}

// generateID produces a deterministic ID from the report's key fields so a
// replayed message maps onto the same report instead of a new one.
func generateID(r Report) string {
	input := fmt.Sprintf("%s|%s|%.4f|%.4f|%s|%d|%s",
		r.Type, r.LocationKey, r.Coordinates.Lat, r.Coordinates.Lon, r.Intensity, r.ReportCount, r.Description)
	hash := sha256.Sum256([]byte(input))
	return "rpt-" + hex.EncodeToString(hash[:8])
}
