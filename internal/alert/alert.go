// Package alert models early-warning ocean alerts and the filters the
// dashboard applies to them.
package alert

import (
	"context"
	"sort"
	"strings"
	"time"
)

// Color is the warning level of an alert, most to least severe.
type Color string

const (
	ColorRed    Color = "RED"
	ColorOrange Color = "ORANGE"
	ColorYellow Color = "YELLOW"
	ColorGreen  Color = "GREEN"
)

// Alert types issued by the warning centre.
const (
	TypeCyclone      = "Cyclone"
	TypeHighWave     = "High Wave"
	TypeOceanCurrent = "Ocean Current"
	TypeTsunami      = "Tsunami"
	TypeStormSurge   = "Storm Surge"
	TypeSwellSurge   = "Swell Surge"
)

// Alert is a single warning bulletin for a district.
type Alert struct {
	ID        string            `json:"_id"`
	Type      string            `json:"type"`
	District  string            `json:"district"`
	State     string            `json:"state"`
	Color     Color             `json:"color"`
	Latitude  float64           `json:"latitude"`
	Longitude float64           `json:"longitude"`
	IssueDate time.Time         `json:"issueDate"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// Store reads alerts from wherever they are kept. Results are ordered by
// issue date, newest first.
type Store interface {
	All(ctx context.Context) ([]Alert, error)
	Search(ctx context.Context, f Filter) ([]Alert, error)
	HighSeverity(ctx context.Context) ([]Alert, error)
}

// Writer adds alerts to a store, replacing any with the same ID.
type Writer interface {
	Upsert(ctx context.Context, alerts []Alert) error
}

// severityRules lists, per lower-cased alert type, the colors that make it high severity.
var severityRules = map[string][]Color{
	"tsunami":       {ColorRed},
	"storm surge":   {ColorRed, ColorOrange},
	"high wave":     {ColorRed, ColorOrange},
	"ocean current": {ColorRed},
	"swell surge":   {ColorRed, ColorOrange},
}

// SeverityRule pairs a lower-cased alert type with the colors that make it
// high severity.
type SeverityRule struct {
	Type   string
	Colors []Color
}

// SeverityRules returns the high-severity rules ordered by type.
func SeverityRules() []SeverityRule {
	rules := make([]SeverityRule, 0, len(severityRules))
	for typ, colors := range severityRules {
		rules = append(rules, SeverityRule{Type: typ, Colors: append([]Color(nil), colors...)})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Type < rules[j].Type })
	return rules
}

// IsHighSeverity reports whether the alert's type and color put it on the
// high-severity list. Matching is case-insensitive.
func IsHighSeverity(a Alert) bool {
	colors, ok := severityRules[strings.ToLower(strings.TrimSpace(a.Type))]
	if !ok {
		return false
	}
	for _, c := range colors {
		if strings.EqualFold(string(a.Color), string(c)) {
			return true
		}
	}
	return false
}

// HighSeverity keeps the alerts for which IsHighSeverity holds.
func HighSeverity(alerts []Alert) []Alert {
	out := make([]Alert, 0)
	for _, a := range alerts {
		if IsHighSeverity(a) {
			out = append(out, a)
		}
	}
	return out
}
