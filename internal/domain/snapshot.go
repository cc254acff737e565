package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultCenter is the map centre used when no reports are available (Chennai).
var DefaultCenter = Coordinates{Lat: 13.0827, Lon: 80.2707}

// Snapshot is the result of one full aggregation pass over the current report set.
type Snapshot struct {
	Locations    []AggregatedLocation `json:"locations"`
	Center       Coordinates          `json:"center"`
	ReportCount  int                  `json:"reportCount"`
	TotalReports int                  `json:"totalReports"`
	ComputedAt   time.Time            `json:"computedAt"`
}

// NewSnapshot aggregates reports and stamps the result with the package clock.
func NewSnapshot(reports []Report) Snapshot {
	locations := Aggregate(reports)
	total := 0
	for _, l := range locations {
		total += l.TotalReports
	}
	return Snapshot{
		Locations:    locations,
		Center:       Center(reports),
		ReportCount:  len(reports),
		TotalReports: total,
		ComputedAt:   clock.Now().UTC(),
	}
}

// Center returns the mean coordinates of the reports, or DefaultCenter when
// there are none.
func Center(reports []Report) Coordinates {
	if len(reports) == 0 {
		return DefaultCenter
	}
	var lat, lon float64
	for _, r := range reports {
		lat += r.Coordinates.Lat
		lon += r.Coordinates.Lon
	}
	n := float64(len(reports))
	return Coordinates{Lat: lat / n, Lon: lon / n}
}

// Bounds is a lat/lon viewport. Edges are inclusive.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// ParseBounds parses "south,west,north,east".
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("bounds: want south,west,north,east, got %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("bounds: %w", err)
		}
		v[i] = f
	}
	b := Bounds{South: v[0], West: v[1], North: v[2], East: v[3]}
	if b.South > b.North || b.West > b.East {
		return Bounds{}, fmt.Errorf("bounds: south/west must not exceed north/east, got %q", s)
	}
	return b, nil
}

// Contains reports whether c lies inside the viewport.
func (b Bounds) Contains(c Coordinates) bool {
	return c.Lat >= b.South && c.Lat <= b.North && c.Lon >= b.West && c.Lon <= b.East
}

// HighRiskWithin returns the high-intensity locations inside the viewport,
// preserving input order.
func HighRiskWithin(locations []AggregatedLocation, b Bounds) []AggregatedLocation {
	out := make([]AggregatedLocation, 0)
	for _, l := range locations {
		if l.OverallIntensity == IntensityHigh && b.Contains(l.Coordinates) {
			out = append(out, l)
		}
	}
	return out
}

// Sort orders understood by SortLocations.
const (
	SortByKey       = "key"
	SortByReports   = "reports"
	SortByIntensity = "intensity"
)

// SortLocations orders locations in place for presentation. Unknown orders
// leave the slice untouched and return false.
func SortLocations(locations []AggregatedLocation, by string) bool {
	switch by {
	case SortByKey:
		sort.SliceStable(locations, func(i, j int) bool {
			return locations[i].LocationKey < locations[j].LocationKey
		})
	case SortByReports:
		sort.SliceStable(locations, func(i, j int) bool {
			return locations[i].TotalReports > locations[j].TotalReports
		})
	case SortByIntensity:
		sort.SliceStable(locations, func(i, j int) bool {
			if locations[i].AverageIntensityScore != locations[j].AverageIntensityScore {
				return locations[i].AverageIntensityScore > locations[j].AverageIntensityScore
			}
			return locations[i].TotalReports > locations[j].TotalReports
		})
	default:
		return false
	}
	return true
}

// FilterByIntensity keeps the locations classified as i.
func FilterByIntensity(locations []AggregatedLocation, i Intensity) []AggregatedLocation {
	out := make([]AggregatedLocation, 0, len(locations))
	for _, l := range locations {
		if l.OverallIntensity == i {
			out = append(out, l)
		}
	}
	return out
}
