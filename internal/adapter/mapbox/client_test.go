package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/incident-report-service/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testClient(baseURL string, metrics *observability.Metrics) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		newBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
		},
	}
}

func adyarResponse() response {
	return response{
		Features: []feature{
			{
				Center:    []float64{80.2571, 13.0067},
				PlaceName: "Adyar, Chennai, Tamil Nadu, India",
				Text:      "Adyar",
				Relevance: 0.95,
			},
		},
	}
}

func TestClient_ForwardGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "Adyar, Chennai, Tamil Nadu")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		w.Header().Set(headerContentType, contentTypeJSON)
		assert.NoError(t, json.NewEncoder(w).Encode(adyarResponse()))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)
	result, err := c.ForwardGeocode(context.Background(), "Adyar", "Chennai, Tamil Nadu")
	require.NoError(t, err)

	assert.InDelta(t, 13.0067, result.Lat, 1e-9)
	assert.InDelta(t, 80.2571, result.Lon, 1e-9)
	assert.Equal(t, "Adyar, Chennai, Tamil Nadu, India", result.FormattedAddress)
	assert.Equal(t, "Adyar", result.PlaceName)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("forward", "success")), 0)
}

func TestClient_ReverseGeocode_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "80.257100,13.006700")
		w.Header().Set(headerContentType, contentTypeJSON)
		assert.NoError(t, json.NewEncoder(w).Encode(adyarResponse()))
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())
	result, err := c.ReverseGeocode(context.Background(), 13.0067, 80.2571)
	require.NoError(t, err)

	assert.Equal(t, "Adyar, Chennai, Tamil Nadu, India", result.FormattedAddress)
	assert.Equal(t, "Adyar", result.PlaceName)
}

func TestClient_ForwardGeocode_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		assert.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)
	result, err := c.ForwardGeocode(context.Background(), "Nowhere", "")
	require.NoError(t, err)
	assert.Zero(t, result.Lat)
	assert.Empty(t, result.FormattedAddress)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("forward", "empty")), 0)
}

func TestClient_ForwardGeocode_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)

	_, err := c.ForwardGeocode(context.Background(), "Adyar", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int64(1), calls.Load())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeRequests.WithLabelValues("forward", "error")), 0)
}

func TestClient_ForwardGeocode_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		assert.NoError(t, json.NewEncoder(w).Encode(adyarResponse()))
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())
	result, err := c.ForwardGeocode(context.Background(), "Adyar", "")
	require.NoError(t, err)
	assert.Equal(t, "Adyar", result.PlaceName)
	assert.Equal(t, int64(3), calls.Load())
}

func TestClient_ForwardGeocode_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())
	_, err := c.ForwardGeocode(context.Background(), "Adyar", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int64(3), calls.Load())
}

func TestClient_ForwardGeocode_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL, observability.NewMetricsForTesting())
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	c.newBackOff = nil

	_, err := c.ForwardGeocode(context.Background(), "Adyar", "")
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(testToken, 2*time.Second, observability.NewMetricsForTesting(), slog.Default())

	assert.Equal(t, defaultBaseURL, c.baseURL)
	assert.Equal(t, 2*time.Second, c.httpClient.Timeout)
	require.NotNil(t, c.newBackOff)
	assert.NotNil(t, c.newBackOff())
}
