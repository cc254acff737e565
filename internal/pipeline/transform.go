package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// ReportTransformer implements Transformer by parsing the message payload and
// filling in missing coordinates or location names through the geocoder.
type ReportTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a ReportTransformer. Pass a nil geocoder to disable
// geocoding enrichment.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *ReportTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.Report, error) {
	report, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.Report{}, err
	}
	return domain.EnrichWithGeocoding(ctx, report, t.geocoder, t.logger), nil
}
