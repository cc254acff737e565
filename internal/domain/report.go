package domain

import (
	"context"
	"time"
)

// Intensity is the severity classification of a report or an aggregated location.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Need categories reported by the social media classifier.
const (
	CategoryFood           = "Food"
	CategoryMedical        = "Medical"
	CategoryRescue         = "Rescue"
	CategoryWater          = "Water"
	CategoryShelter        = "Shelter"
	CategoryInfrastructure = "Infrastructure"
)

// Categories lists the known need categories in display order.
var Categories = []string{
	CategoryFood,
	CategoryMedical,
	CategoryRescue,
	CategoryWater,
	CategoryShelter,
	CategoryInfrastructure,
}

// UnknownLocation is the key used for reports that arrive without a sub-location.
const UnknownLocation = "Unknown"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"long"`
}

// IsZero reports whether both components are zero (coordinates not known).
func (c Coordinates) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}

// Report is a processed social media report: one record may stand for many posts.
type Report struct {
	ID                  string         `json:"id"`
	Type                string         `json:"type"`
	District            string         `json:"district,omitempty"`
	State               string         `json:"state,omitempty"`
	LocationKey         string         `json:"subLocation"`
	Coordinates         Coordinates    `json:"location"`
	Intensity           Intensity      `json:"intensity"`
	ReportCount         int            `json:"reportCount"`
	CategoryCounts      map[string]int `json:"categoryCounts"`
	ContributingReports []string       `json:"contributingReports"`
	Source              string         `json:"source,omitempty"`
	Description         string         `json:"description,omitempty"`
}

// AggregatedLocation is the derived view of every report sharing a location key.
type AggregatedLocation struct {
	LocationKey           string         `json:"locationKey"`
	Coordinates           Coordinates    `json:"coordinates"`
	TotalReports          int            `json:"totalReports"`
	AverageIntensityScore float64        `json:"averageIntensityScore"`
	OverallIntensity      Intensity      `json:"overallIntensity"`
	DominantType          string         `json:"dominantType"`
	CategoryCounts        map[string]int `json:"categoryCounts"`
	SampleEvidence        []string       `json:"sampleEvidence"`
	Summary               string         `json:"summary"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
