package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshot(t *testing.T) {
	now := time.Date(2025, time.December, 2, 6, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })

	a := report(testAdyar, IntensityHigh, 3)
	a.Coordinates = Coordinates{Lat: 12.99, Lon: 80.25}
	b := report(testTambaram, IntensityLow, 2)
	b.Coordinates = Coordinates{Lat: 12.923, Lon: 80.117}

	snap := NewSnapshot([]Report{a, b})

	assert.Len(t, snap.Locations, 2)
	assert.Equal(t, 2, snap.ReportCount)
	assert.Equal(t, 5, snap.TotalReports)
	assert.Equal(t, now, snap.ComputedAt)
	assert.InDelta(t, (12.99+12.923)/2, snap.Center.Lat, 1e-9)
	assert.InDelta(t, (80.25+80.117)/2, snap.Center.Lon, 1e-9)
}

func TestNewSnapshot_Empty(t *testing.T) {
	snap := NewSnapshot(nil)

	assert.Empty(t, snap.Locations)
	assert.Equal(t, DefaultCenter, snap.Center)
	assert.Zero(t, snap.TotalReports)
	assert.False(t, snap.ComputedAt.IsZero())
}

func TestParseBounds(t *testing.T) {
	b, err := ParseBounds("12.9, 80.1,13.1,80.3")
	require.NoError(t, err)
	assert.Equal(t, Bounds{South: 12.9, West: 80.1, North: 13.1, East: 80.3}, b)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "13,80,12,81"} {
		_, err := ParseBounds(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestBounds_ContainsIsInclusive(t *testing.T) {
	b := Bounds{South: 12, West: 80, North: 13, East: 81}

	assert.True(t, b.Contains(Coordinates{Lat: 12.5, Lon: 80.5}))
	assert.True(t, b.Contains(Coordinates{Lat: 12, Lon: 80}))
	assert.True(t, b.Contains(Coordinates{Lat: 13, Lon: 81}))
	assert.False(t, b.Contains(Coordinates{Lat: 13.01, Lon: 80.5}))
	assert.False(t, b.Contains(Coordinates{Lat: 12.5, Lon: 79.99}))
}

func TestHighRiskWithin(t *testing.T) {
	locs := []AggregatedLocation{
		{LocationKey: "in-high", OverallIntensity: IntensityHigh, Coordinates: Coordinates{Lat: 12.99, Lon: 80.25}},
		{LocationKey: "in-medium", OverallIntensity: IntensityMedium, Coordinates: Coordinates{Lat: 12.99, Lon: 80.25}},
		{LocationKey: "out-high", OverallIntensity: IntensityHigh, Coordinates: Coordinates{Lat: 20, Lon: 80.25}},
	}

	got := HighRiskWithin(locs, Bounds{South: 12.8, West: 80, North: 13.2, East: 80.4})

	require.Len(t, got, 1)
	assert.Equal(t, "in-high", got[0].LocationKey)
	assert.NotNil(t, HighRiskWithin(nil, Bounds{}))
}

func TestSortLocations(t *testing.T) {
	base := []AggregatedLocation{
		{LocationKey: "Tambaram", TotalReports: 5, AverageIntensityScore: 2.0},
		{LocationKey: "Adyar", TotalReports: 9, AverageIntensityScore: 1.0},
		{LocationKey: "Mylapore", TotalReports: 2, AverageIntensityScore: 2.0},
	}

	keys := func(locs []AggregatedLocation) []string {
		out := make([]string, len(locs))
		for i, l := range locs {
			out[i] = l.LocationKey
		}
		return out
	}

	byKey := append([]AggregatedLocation(nil), base...)
	require.True(t, SortLocations(byKey, SortByKey))
	assert.Equal(t, []string{"Adyar", "Mylapore", "Tambaram"}, keys(byKey))

	byReports := append([]AggregatedLocation(nil), base...)
	require.True(t, SortLocations(byReports, SortByReports))
	assert.Equal(t, []string{"Adyar", "Tambaram", "Mylapore"}, keys(byReports))

	byIntensity := append([]AggregatedLocation(nil), base...)
	require.True(t, SortLocations(byIntensity, SortByIntensity))
	assert.Equal(t, []string{"Tambaram", "Mylapore", "Adyar"}, keys(byIntensity))

	untouched := append([]AggregatedLocation(nil), base...)
	assert.False(t, SortLocations(untouched, "bogus"))
	assert.Equal(t, keys(base), keys(untouched))
}

func TestFilterByIntensity(t *testing.T) {
	locs := Aggregate([]Report{
		report(testAdyar, IntensityHigh, 1),
		report(testTambaram, IntensityLow, 1),
	})

	high := FilterByIntensity(locs, IntensityHigh)
	require.Len(t, high, 1)
	assert.Equal(t, testAdyar, high[0].LocationKey)
}
