package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

const (
	// highThreshold and mediumThreshold are closed lower bounds on the
	// weighted severity score.
	highThreshold   = 2.5
	mediumThreshold = 1.5

	// maxSampleEvidence bounds the evidence strings kept per location.
	maxSampleEvidence = 5
)

var intensityWeights = map[Intensity]int{
	IntensityLow:    1,
	IntensityMedium: 2,
	IntensityHigh:   3,
}

// IntensityWeight returns the severity weight of an intensity. Unrecognized
// values weigh the same as low.
func IntensityWeight(i Intensity) int {
	if w, ok := intensityWeights[i]; ok {
		return w
	}
	return 1
}

// ClassifyIntensity maps a weighted severity score to an intensity:
// >= 2.5 high, >= 1.5 medium, otherwise low.
func ClassifyIntensity(score float64) Intensity {
	switch {
	case score >= highThreshold:
		return IntensityHigh
	case score >= mediumThreshold:
		return IntensityMedium
	default:
		return IntensityLow
	}
}

// locationAccumulator collects the running totals for one location key.
type locationAccumulator struct {
	key          string
	coordinates  Coordinates
	totalReports int
	weightedSum  int
	typeOrder    []string
	typeCounts   map[string]int
	evidence     []string
	categories   map[string]int
}

// Aggregate groups reports by location key and derives one AggregatedLocation
// per distinct key. Locations are returned in the order their key was first
// seen. The input is never modified and malformed values degrade instead of
// failing: unknown intensities weigh 1 and an empty input yields an empty result.
func Aggregate(reports []Report) []AggregatedLocation {
	if len(reports) == 0 {
		return []AggregatedLocation{}
	}

	index := make(map[string]*locationAccumulator)
	order := make([]*locationAccumulator, 0)

	for i := range reports {
		r := &reports[i]
		acc, ok := index[r.LocationKey]
		if !ok {
			acc = &locationAccumulator{
				key:         r.LocationKey,
				coordinates: r.Coordinates,
				typeCounts:  make(map[string]int),
				categories:  make(map[string]int),
			}
			index[r.LocationKey] = acc
			order = append(order, acc)
		}
		acc.add(r)
	}

	out := make([]AggregatedLocation, 0, len(order))
	for _, acc := range order {
		out = append(out, acc.finish())
	}
	return out
}

func (a *locationAccumulator) add(r *Report) {
	a.totalReports += r.ReportCount
	a.weightedSum += IntensityWeight(r.Intensity) * r.ReportCount

	if _, seen := a.typeCounts[r.Type]; !seen {
		a.typeOrder = append(a.typeOrder, r.Type)
	}
	a.typeCounts[r.Type] += r.ReportCount

	// Only the first few evidence strings are ever surfaced.
	for _, e := range r.ContributingReports {
		if len(a.evidence) == maxSampleEvidence {
			break
		}
		a.evidence = append(a.evidence, e)
	}

	for cat, n := range r.CategoryCounts {
		a.categories[cat] += n
	}
}

func (a *locationAccumulator) finish() AggregatedLocation {
	score := float64(a.weightedSum) / float64(max(a.totalReports, 1))
	dominant := a.dominantType()

	return AggregatedLocation{
		LocationKey:           a.key,
		Coordinates:           a.coordinates,
		TotalReports:          a.totalReports,
		AverageIntensityScore: score,
		OverallIntensity:      ClassifyIntensity(score),
		DominantType:          dominant,
		CategoryCounts:        a.categories,
		SampleEvidence:        append([]string{}, a.evidence...),
		Summary:               summarize(dominant, a.key, a.categories),
	}
}

// dominantType returns the type with the largest weighted count. Ties go to
// the type seen first.
func (a *locationAccumulator) dominantType() string {
	best := ""
	bestCount := 0
	for i, t := range a.typeOrder {
		if n := a.typeCounts[t]; i == 0 || n > bestCount {
			best, bestCount = t, n
		}
	}
	return best
}

func summarize(dominantType, key string, categories map[string]int) string {
	if dominantType == "" {
		dominantType = "various incidents"
	}
	needs := strings.Join(NeedsOf(categories), ", ")
	if needs == "" {
		needs = "relief efforts"
	}
	return fmt.Sprintf(
		"Multiple reports of %s in %s indicate a high level of distress, with immediate needs for %s.",
		dominantType, key, needs,
	)
}

// NeedsOf lists the categories with a positive count: known categories in
// display order first, then any others alphabetically rather than in the
// order they were first reported, which a category map does not record.
func NeedsOf(categories map[string]int) []string {
	var needs []string
	for _, cat := range Categories {
		if categories[cat] > 0 {
			needs = append(needs, cat)
		}
	}

	var extra []string
	for cat, n := range categories {
		if n > 0 && !slices.Contains(Categories, cat) {
			extra = append(extra, cat)
		}
	}
	sort.Strings(extra)
	return append(needs, extra...)
}
