// Package reportgen generates plausible processed reports for demos, fixtures
// and the mock feed.
package reportgen

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

const (
	district = "Chennai"
	state    = "Tamil Nadu"

	maxReportCount      = 20
	maxCategoryCount    = 9
	evidencePerCategory = 2
)

// Place is a named sub-location with known coordinates.
type Place struct {
	Name        string
	Coordinates domain.Coordinates
}

// Places are the Chennai neighbourhoods reports are drawn from.
var Places = []Place{
	{Name: "Mylapore", Coordinates: domain.Coordinates{Lat: 13.033, Lon: 80.266}},
	{Name: "Kodambakkam", Coordinates: domain.Coordinates{Lat: 13.061, Lon: 80.228}},
	{Name: "Tambaram", Coordinates: domain.Coordinates{Lat: 12.923, Lon: 80.117}},
	{Name: "Adyar", Coordinates: domain.Coordinates{Lat: 12.99, Lon: 80.25}},
	{Name: "T Nagar", Coordinates: domain.Coordinates{Lat: 13.041, Lon: 80.244}},
	{Name: "Velachery", Coordinates: domain.Coordinates{Lat: 12.986, Lon: 80.219}},
	{Name: "Madipakkam", Coordinates: domain.Coordinates{Lat: 12.985, Lon: 80.203}},
}

// Types are the incident types the generator emits.
var Types = []string{"Cyclone", "Floods", "Infrastructure Collapse"}

// Sources are the social networks reports are attributed to.
var Sources = []string{"twitter", "reddit", "facebook"}

var intensities = []domain.Intensity{domain.IntensityLow, domain.IntensityMedium, domain.IntensityHigh}

// Generator produces random reports. The same seed yields the same sequence.
// A Generator is not safe for concurrent use.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator. A zero seed is replaced by the current time.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // mock data
}

// Generate returns n reports.
func (g *Generator) Generate(n int) []domain.Report {
	reports := make([]domain.Report, 0, n)
	for range n {
		reports = append(reports, g.Report())
	}
	return reports
}

// Report returns a single random report.
func (g *Generator) Report() domain.Report {
	place := Places[g.rng.Intn(len(Places))]
	typ := Types[g.rng.Intn(len(Types))]
	intensity := intensities[g.rng.Intn(len(intensities))]
	count := g.rng.Intn(maxReportCount) + 1

	counts := make(map[string]int, len(domain.Categories))
	for _, cat := range domain.Categories {
		counts[cat] = g.rng.Intn(maxCategoryCount + 1)
	}
	source := Sources[g.rng.Intn(len(Sources))]

	evidence := make([]string, 0)
	for _, cat := range domain.Categories {
		for range min(counts[cat], evidencePerCategory) {
			evidence = append(evidence, fmt.Sprintf("Need for %s in %s.", cat, place.Name))
		}
	}

	return domain.Report{
		ID:                  g.id(),
		Type:                typ,
		District:            district,
		State:               state,
		LocationKey:         place.Name,
		Coordinates:         place.Coordinates,
		Intensity:           intensity,
		ReportCount:         count,
		CategoryCounts:      counts,
		ContributingReports: evidence,
		Source:              source,
		Description:         fmt.Sprintf("This is a report from %s about %s in %s.", source, typ, place.Name),
	}
}

// id draws a UUID from the seeded source so fixtures are reproducible.
func (g *Generator) id() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// *rand.Rand reads never fail.
		panic(err)
	}
	return id.String()
}
