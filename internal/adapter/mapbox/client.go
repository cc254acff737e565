package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

const (
	defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	maxRetryTime   = 3 * time.Second
)

// Client implements domain.Geocoder using the Mapbox Geocoding API.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger

	// newBackOff returns the retry policy for one request. Nil disables retries.
	newBackOff func() backoff.BackOff
}

// NewClient creates a Mapbox geocoding client. Server errors, rate limiting
// and transport failures are retried with exponential backoff.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = maxRetryTime
			return b
		},
	}
}

// ForwardGeocode converts a sub-location name and its region ("district,
// state") to coordinates.
func (c *Client) ForwardGeocode(ctx context.Context, name, region string) (domain.GeocodingResult, error) {
	query := name
	if region != "" {
		query = fmt.Sprintf("%s, %s", name, region)
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"neighborhood,locality,place"},
	}

	return c.doRequest(ctx, u+"?"+params.Encode(), "forward")
}

// ReverseGeocode converts coordinates to place details.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	// Mapbox uses lon,lat order.
	coord := fmt.Sprintf("%.6f,%.6f", lon, lat)
	u := fmt.Sprintf("%s/%s.json", c.baseURL, coord)
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"neighborhood,locality"},
	}

	return c.doRequest(ctx, u+"?"+params.Encode(), "reverse")
}

func (c *Client) doRequest(ctx context.Context, fullURL, method string) (domain.GeocodingResult, error) {
	var body response
	op := func() error {
		var err error
		body, err = c.fetch(ctx, fullURL, method)
		return err
	}

	var b backoff.BackOff = &backoff.StopBackOff{}
	if c.newBackOff != nil {
		b = c.newBackOff()
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Debug("mapbox request failed, retrying", "method", method, "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues(method, "error").Inc()
		return domain.GeocodingResult{}, err
	}

	if len(body.Features) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues(method, "empty").Inc()
		return domain.GeocodingResult{}, nil
	}
	c.metrics.GeocodeRequests.WithLabelValues(method, "success").Inc()

	f := body.Features[0]
	result := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		result.Lon = f.Center[0]
		result.Lat = f.Center[1]
	}
	return result, nil
}

// fetch performs one HTTP round trip. Errors that retrying cannot fix are
// wrapped with backoff.Permanent.
func (c *Client) fetch(ctx context.Context, fullURL, method string) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return response{}, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.GeocodeAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return response{}, backoff.Permanent(err)
		}
		return response{}, fmt.Errorf("%s geocode request: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return response{}, apiErr
		}
		return response{}, backoff.Permanent(apiErr)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return response{}, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
