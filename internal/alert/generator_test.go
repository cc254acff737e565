package alert

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTsunamiColor(t *testing.T) {
	tests := []struct {
		magnitude float64
		want      Color
	}{
		{5.0, ColorOrange},
		{6.99, ColorOrange},
		{7.0, ColorOrange},
		{7.01, ColorRed},
		{8.0, ColorRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TsunamiColor(tt.magnitude), "magnitude %.2f", tt.magnitude)
	}
}

func TestSurgeColor(t *testing.T) {
	tests := []struct {
		height float64
		want   Color
	}{
		{1.0, ColorYellow},
		{2.5, ColorYellow},
		{2.51, ColorOrange},
		{4.0, ColorOrange},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SurgeColor(tt.height), "height %.2f", tt.height)
	}
}

func TestGenerator_Generate(t *testing.T) {
	now := time.Date(2025, 10, 1, 6, 0, 0, 0, time.UTC)
	districts := make(map[string]bool, len(CoastalDistricts))
	for _, d := range CoastalDistricts {
		districts[strings.ToUpper(d.Name)+"|"+strings.ToUpper(d.State)] = true
	}

	for seed := int64(1); seed <= 50; seed++ {
		alerts := NewGenerator(seed, clockwork.NewFakeClockAt(now)).Generate()
		require.GreaterOrEqual(t, len(alerts), 2)
		require.LessOrEqual(t, len(alerts), 5)

		tsunamis, surges := 0, 0
		seen := map[string]bool{}
		for _, a := range alerts {
			assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
			seen[a.ID] = true
			assert.True(t, districts[a.District+"|"+a.State], "unknown district %s, %s", a.District, a.State)
			assert.Equal(t, SourceGenerated, a.Details["source"])
			assert.False(t, a.IssueDate.After(now))

			switch a.Type {
			case TypeTsunami:
				tsunamis++
				assert.Zero(t, surges, "tsunamis come first")
				assert.Contains(t, []Color{ColorRed, ColorOrange}, a.Color)
				assert.False(t, a.IssueDate.Before(now.Add(-11*time.Hour)))
				m, err := strconv.ParseFloat(a.Details["magnitude"], 64)
				require.NoError(t, err)
				assert.InDelta(t, 6.5, m, 1.5)
			case TypeStormSurge:
				surges++
				assert.Contains(t, []Color{ColorOrange, ColorYellow}, a.Color)
				assert.False(t, a.IssueDate.Before(now.Add(-23*time.Hour)))
				h, err := strconv.ParseFloat(a.Details["surge_height"], 64)
				require.NoError(t, err)
				assert.InDelta(t, 2.5, h, 1.5)
			default:
				t.Fatalf("unexpected type %q", a.Type)
			}
		}
		assert.True(t, tsunamis >= 1 && tsunamis <= 3, "tsunamis=%d", tsunamis)
		assert.True(t, surges >= 1 && surges <= 2, "surges=%d", surges)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 10, 1, 6, 0, 0, 0, time.UTC))
	a := NewGenerator(42, clock).Generate()
	b := NewGenerator(42, clock).Generate()
	assert.Equal(t, a, b)
}
