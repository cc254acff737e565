package kafka

import (
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("Adyar"),
		Value:     []byte(`{"id":"rpt-1"}`),
		Topic:     "raw-incident-reports",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("twitter")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("Adyar"), raw.Key)
	assert.JSONEq(t, `{"id":"rpt-1"}`, string(raw.Value))
	assert.Equal(t, "raw-incident-reports", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "twitter", raw.Headers["source"])
	assert.Nil(t, raw.Commit)
}

func TestSerializeToMessage(t *testing.T) {
	computedAt := time.Date(2025, 12, 2, 6, 30, 0, 0, time.UTC)
	loc := domain.AggregatedLocation{
		LocationKey:           "Adyar",
		Coordinates:           domain.Coordinates{Lat: 12.99, Lon: 80.25},
		TotalReports:          4,
		AverageIntensityScore: 2.5,
		OverallIntensity:      domain.IntensityHigh,
		DominantType:          "Floods",
		CategoryCounts:        map[string]int{"Food": 2},
		SampleEvidence:        []string{"Need for Food in Adyar."},
		Summary:               "Multiple reports of Floods in Adyar",
	}

	msg, err := serializeToMessage(loc, computedAt)
	require.NoError(t, err)

	assert.Equal(t, []byte("Adyar"), msg.Key)
	var decoded domain.AggregatedLocation
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, loc, decoded)
	assert.Contains(t, string(msg.Value), `"overallIntensity":"high"`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "intensity", msg.Headers[0].Key)
	assert.Equal(t, []byte("high"), msg.Headers[0].Value)
	assert.Equal(t, "computed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte("2025-12-02T06:30:00Z"), msg.Headers[1].Value)
}
