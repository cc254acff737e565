package mapbox

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Sub-location
// names repeat constantly in a report stream, so most lookups are hits.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lru.Cache
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder holding at
// most maxEntries results.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) (*CachedGeocoder, error) {
	cache, err := lru.New(maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create geocode cache: %w", err)
	}
	return &CachedGeocoder{inner: inner, cache: cache, metrics: metrics}, nil
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, region string) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("fwd:%s|%s", strings.ToLower(name), strings.ToLower(region))
	return c.lookup(key, "forward", func() (domain.GeocodingResult, error) {
		return c.inner.ForwardGeocode(ctx, name, region)
	})
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := fmt.Sprintf("rev:%.6f,%.6f", lat, lon)
	return c.lookup(key, "reverse", func() (domain.GeocodingResult, error) {
		return c.inner.ReverseGeocode(ctx, lat, lon)
	})
}

func (c *CachedGeocoder) lookup(key, method string, fetch func() (domain.GeocodingResult, error)) (domain.GeocodingResult, error) {
	if v, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues(method, "hit").Inc()
		return v.(domain.GeocodingResult), nil
	}
	c.metrics.GeocodeCache.WithLabelValues(method, "miss").Inc()

	result, err := fetch()
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.cache.Add(key, result)
	}
	return result, nil
}
