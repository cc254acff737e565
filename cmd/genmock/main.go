// Command genmock generates report fixtures from the seeded report generator.
// The aggregated fixture is produced by the same parse and aggregation code
// the service runs, so it always matches live behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -n 200 -seed 42 \
//	  -reports-out data/mock/reports.json \
//	  -aggregated-out data/mock/aggregated.json \
//	  -xlsx-out data/mock/aggregated.xlsx
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/incident-report-service/internal/adapter/xlsx"
	"github.com/couchcryptid/incident-report-service/internal/domain"
	"github.com/couchcryptid/incident-report-service/internal/reportgen"
)

var computedAt = time.Date(2025, time.October, 1, 6, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	n := flag.Int("n", 200, "number of reports to generate")
	seed := flag.Int64("seed", 42, "generator seed (0 picks a time-based seed)")
	reportsOut := flag.String("reports-out", "", "output path for the raw report JSON fixture")
	aggregatedOut := flag.String("aggregated-out", "", "output path for the aggregated snapshot JSON fixture")
	xlsxOut := flag.String("xlsx-out", "", "output path for the aggregated workbook")
	flag.Parse()

	if *reportsOut == "" || *n <= 0 {
		flag.Usage()
		return fmt.Errorf("missing required flag -reports-out or non-positive -n")
	}

	// Fixed clock for a reproducible ComputedAt.
	domain.SetClock(clockwork.NewFakeClockAt(computedAt))
	defer domain.SetClock(nil)

	generated := reportgen.New(*seed).Generate(*n)
	if err := writeJSON(*reportsOut, generated); err != nil {
		return fmt.Errorf("writing report fixture: %w", err)
	}
	log.Printf("wrote report fixture: %s (%d reports)", *reportsOut, len(generated))

	// Round-trip through the ingest parser, as the service would.
	reports := make([]domain.Report, 0, len(generated))
	for i := range generated {
		data, err := json.Marshal(generated[i])
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		r, err := domain.ParseRawEvent(domain.RawEvent{Value: data, Timestamp: computedAt})
		if err != nil {
			return err
		}
		reports = append(reports, r)
	}
	snap := domain.NewSnapshot(reports)

	if *aggregatedOut != "" {
		if err := writeJSON(*aggregatedOut, snap); err != nil {
			return fmt.Errorf("writing aggregated fixture: %w", err)
		}
		log.Printf("wrote aggregated fixture: %s", *aggregatedOut)
	}
	if *xlsxOut != "" {
		if err := writeXLSX(*xlsxOut, snap.Locations); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
		log.Printf("wrote workbook: %s", *xlsxOut)
	}

	printStats(reports, snap)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func writeXLSX(path string, locations []domain.AggregatedLocation) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := xlsx.WriteLocations(f, locations); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStats(reports []domain.Report, snap domain.Snapshot) {
	intensities := map[domain.Intensity]int{}
	types := map[string]int{}
	for i := range reports {
		intensities[reports[i].Intensity]++
		types[reports[i].Type] += reports[i].ReportCount
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Reports: %d (total posts %d)\n", snap.ReportCount, snap.TotalReports)
	fmt.Printf("By intensity: low=%d, medium=%d, high=%d\n",
		intensities[domain.IntensityLow], intensities[domain.IntensityMedium], intensities[domain.IntensityHigh])
	fmt.Printf("Posts by type: %v\n", types)
	fmt.Printf("Center: %.4f, %.4f\n", snap.Center.Lat, snap.Center.Lon)

	locations := append([]domain.AggregatedLocation(nil), snap.Locations...)
	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].AverageIntensityScore > locations[j].AverageIntensityScore
	})
	fmt.Printf("\nLocations (%d), most severe first:\n", len(locations))
	for _, l := range locations {
		fmt.Printf("  %-12s reports=%-4d score=%.3f intensity=%-6s dominant=%s\n",
			l.LocationKey, l.TotalReports, l.AverageIntensityScore, l.OverallIntensity, l.DominantType)
	}
}
