package domain

import (
	"context"
	"log/slog"
	"strings"
)

// EnrichWithGeocoding fills in what a report is missing about where it is.
// Reports without coordinates are forward geocoded from their sub-location and
// region; reports keyed UnknownLocation that do carry coordinates take the
// reverse-geocoded place name as their key. A nil geocoder or a failed lookup
// returns the report unchanged.
func EnrichWithGeocoding(ctx context.Context, r Report, geocoder Geocoder, logger *slog.Logger) Report {
	if geocoder == nil {
		return r
	}

	hasName := r.LocationKey != "" && r.LocationKey != UnknownLocation

	if r.Coordinates.IsZero() && hasName {
		result, err := geocoder.ForwardGeocode(ctx, r.LocationKey, region(r))
		if err != nil {
			logger.Warn("forward geocoding failed",
				"report_id", r.ID,
				"location", r.LocationKey,
				"error", err,
			)
			return r
		}
		if result.Lat != 0 || result.Lon != 0 {
			r.Coordinates = Coordinates{Lat: result.Lat, Lon: result.Lon}
		}
		return r
	}

	if !r.Coordinates.IsZero() && !hasName {
		result, err := geocoder.ReverseGeocode(ctx, r.Coordinates.Lat, r.Coordinates.Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"report_id", r.ID,
				"lat", r.Coordinates.Lat,
				"lon", r.Coordinates.Lon,
				"error", err,
			)
			return r
		}
		if result.PlaceName != "" {
			r.LocationKey = result.PlaceName
		}
	}
	return r
}

// region joins district and state into the context string used to
// disambiguate a sub-location, e.g. "Chennai, Tamil Nadu".
func region(r Report) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{r.District, r.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
