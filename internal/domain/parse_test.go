package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawEvent(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		data := []byte(`{"id":"_abc123","type":"Floods","district":"Chennai","state":"Tamil Nadu","subLocation":"Adyar",
			"location":{"lat":12.99,"long":80.25},"intensity":"high","reportCount":7,
			"categoryCounts":{"Food":2,"Rescue":5},"contributingReports":["Need for Food in Adyar."],
			"source":"twitter","description":"This is a report from twitter about Floods in Adyar."}`)

		r, err := ParseRawEvent(RawEvent{Value: data})
		require.NoError(t, err)

		assert.Equal(t, "_abc123", r.ID)
		assert.Equal(t, "Floods", r.Type)
		assert.Equal(t, "Adyar", r.LocationKey)
		assert.Equal(t, Coordinates{Lat: 12.99, Lon: 80.25}, r.Coordinates)
		assert.Equal(t, IntensityHigh, r.Intensity)
		assert.Equal(t, 7, r.ReportCount)
		assert.Equal(t, map[string]int{CategoryFood: 2, CategoryRescue: 5}, r.CategoryCounts)
		assert.Equal(t, []string{"Need for Food in Adyar."}, r.ContributingReports)
		assert.Equal(t, "twitter", r.Source)
	})

	t.Run("trims and keeps unknown intensity", func(t *testing.T) {
		data := []byte(`{"id":" r1 ","subLocation":"  T Nagar ","intensity":" severe ","reportCount":1}`)

		r, err := ParseRawEvent(RawEvent{Value: data})
		require.NoError(t, err)

		assert.Equal(t, "r1", r.ID)
		assert.Equal(t, "T Nagar", r.LocationKey)
		assert.Equal(t, Intensity("severe"), r.Intensity)
		assert.NotNil(t, r.CategoryCounts)
	})

	t.Run("missing sub-location groups under Unknown", func(t *testing.T) {
		r, err := ParseRawEvent(RawEvent{Value: []byte(`{"id":"r2","reportCount":1}`)})
		require.NoError(t, err)
		assert.Equal(t, UnknownLocation, r.LocationKey)
	})

	t.Run("deterministic ID when missing", func(t *testing.T) {
		data := []byte(`{"type":"Cyclone","subLocation":"Mylapore","location":{"lat":13.033,"long":80.266},"intensity":"low","reportCount":3}`)

		r1, err := ParseRawEvent(RawEvent{Value: data})
		require.NoError(t, err)
		r2, err := ParseRawEvent(RawEvent{Value: data})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(r1.ID, "rpt-"))
		assert.Equal(t, r1.ID, r2.ID)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseRawEvent(RawEvent{Value: []byte("{invalid json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse raw event")
	})
}
