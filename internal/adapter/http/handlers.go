package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/couchcryptid/incident-report-service/internal/adapter/xlsx"
	"github.com/couchcryptid/incident-report-service/internal/alert"
	"github.com/couchcryptid/incident-report-service/internal/domain"
)

type handlers struct {
	reports ReportSource
	alerts  alert.Store
	logger  *slog.Logger
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

func list[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Data: items, Total: len(items)}
}

func (h *handlers) listReports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, list(h.reports.Reports()))
}

// aggregated serves the latest snapshot, optionally narrowed to one
// intensity and re-ordered.
func (h *handlers) aggregated(w http.ResponseWriter, r *http.Request) {
	snap, err := h.filteredSnapshot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handlers) exportAggregated(w http.ResponseWriter, r *http.Request) {
	snap, err := h.filteredSnapshot(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := xlsx.WriteLocations(&buf, snap.Locations); err != nil {
		h.logger.Error("export aggregated locations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build spreadsheet")
		return
	}
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="aggregated-locations.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// highRisk lists high-intensity locations inside ?bounds=s,w,n,e, or all of
// them when no bounds are given.
func (h *handlers) highRisk(w http.ResponseWriter, r *http.Request) {
	locations := h.reports.Snapshot().Locations

	raw := strings.TrimSpace(r.URL.Query().Get("bounds"))
	if raw == "" {
		writeJSON(w, http.StatusOK, list(domain.FilterByIntensity(locations, domain.IntensityHigh)))
		return
	}
	bounds, err := domain.ParseBounds(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list(domain.HighRiskWithin(locations, bounds)))
}

func (h *handlers) filteredSnapshot(r *http.Request) (domain.Snapshot, error) {
	snap := h.reports.Snapshot()
	q := r.URL.Query()

	locations := slices.Clone(snap.Locations)
	if v := strings.ToLower(strings.TrimSpace(q.Get("intensity"))); v != "" {
		i := domain.Intensity(v)
		if i != domain.IntensityLow && i != domain.IntensityMedium && i != domain.IntensityHigh {
			return domain.Snapshot{}, fmt.Errorf("invalid intensity %q: want low, medium or high", v)
		}
		locations = domain.FilterByIntensity(locations, i)
	}
	if v := strings.TrimSpace(q.Get("sort")); v != "" {
		if !domain.SortLocations(locations, v) {
			return domain.Snapshot{}, fmt.Errorf("invalid sort %q: want %s, %s or %s",
				v, domain.SortByKey, domain.SortByReports, domain.SortByIntensity)
		}
	}
	if locations == nil {
		locations = []domain.AggregatedLocation{}
	}
	snap.Locations = locations
	return snap, nil
}

func (h *handlers) listAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.All(r.Context())
	if err != nil {
		h.storeError(w, "list alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, list(alerts))
}

func (h *handlers) searchAlerts(w http.ResponseWriter, r *http.Request) {
	f, err := alert.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	alerts, err := h.alerts.Search(r.Context(), f)
	if err != nil {
		h.storeError(w, "search alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, list(alerts))
}

func (h *handlers) highSeverityAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.HighSeverity(r.Context())
	if err != nil {
		h.storeError(w, "high severity alerts", err)
		return
	}
	writeJSON(w, http.StatusOK, list(alerts))
}

type markedAlert struct {
	alert.Alert
	Marker alert.Marker `json:"marker"`
}

type layersResponse struct {
	Plain     []markedAlert `json:"plain"`
	Clustered []markedAlert `json:"clustered"`
}

// alertLayers splits the (optionally filtered) alerts into the map's plain
// and clustered marker layers.
func (h *handlers) alertLayers(w http.ResponseWriter, r *http.Request) {
	f, err := alert.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	alerts, err := h.alerts.Search(r.Context(), f)
	if err != nil {
		h.storeError(w, "alert layers", err)
		return
	}
	layers := alert.Partition(alerts)
	writeJSON(w, http.StatusOK, layersResponse{
		Plain:     withMarkers(layers.Plain),
		Clustered: withMarkers(layers.Clustered),
	})
}

func withMarkers(alerts []alert.Alert) []markedAlert {
	out := make([]markedAlert, len(alerts))
	for i, a := range alerts {
		out[i] = markedAlert{Alert: a, Marker: alert.MarkerFor(a)}
	}
	return out
}

func (h *handlers) storeError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "failed to "+op)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
