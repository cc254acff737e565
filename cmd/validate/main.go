// Command validate checks report fixtures for integrity and verifies that the
// aggregation invariants hold over them. With -aggregated-json it also checks
// that a stored snapshot fixture still matches a fresh aggregation.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -reports-json data/mock/reports.json \
//	  -aggregated-json data/mock/aggregated.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	reportsJSON := flag.String("reports-json", "", "path to the raw report JSON fixture")
	aggregatedJSON := flag.String("aggregated-json", "", "optional path to an aggregated snapshot fixture")
	flag.Parse()

	if *reportsJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*reportsJSON, *aggregatedJSON); code != 0 {
		os.Exit(code)
	}
}

func run(reportsPath, aggregatedPath string) int {
	// Same fixed clock as genmock so ComputedAt lines up.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2025, time.October, 1, 6, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	fmt.Println("=== Incident Report Integrity Validation ===")
	fmt.Println()

	raw, err := os.ReadFile(reportsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read reports: %v\n", err)
		return 1
	}
	reports, err := parseReports(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse reports: %v\n", err)
		return 1
	}
	snap := domain.NewSnapshot(reports)

	phases := []*phase{
		validateReports(reports),
		validateAggregation(reports, snap),
	}
	if aggregatedPath != "" {
		stored, err := loadSnapshot(aggregatedPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load aggregated fixture: %v\n", err)
			return 1
		}
		phases = append(phases, validateFixtureParity(stored, snap))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d reports, %d posts, %d locations\n", snap.ReportCount, snap.TotalReports, len(snap.Locations))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// parseReports runs every fixture entry through the ingest parser.
func parseReports(data []byte) ([]domain.Report, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	reports := make([]domain.Report, 0, len(entries))
	for i, e := range entries {
		r, err := domain.ParseRawEvent(domain.RawEvent{Value: e})
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func loadSnapshot(path string) (domain.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Snapshot{}, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func validateReports(reports []domain.Report) *phase {
	p := &phase{name: "Phase 1: Report fixture integrity"}
	seen := make(map[string]int, len(reports))

	for i := range reports {
		r := &reports[i]
		if prev, dup := seen[r.ID]; dup {
			p.errorf("report %d: duplicate id %q (first at %d)", i, r.ID, prev)
		}
		seen[r.ID] = i

		if r.Type == "" {
			p.errorf("report %s: empty type", r.ID)
		}
		switch r.Intensity {
		case domain.IntensityLow, domain.IntensityMedium, domain.IntensityHigh:
		default:
			p.errorf("report %s: unknown intensity %q", r.ID, r.Intensity)
		}
		if r.ReportCount < 0 {
			p.errorf("report %s: negative reportCount %d", r.ID, r.ReportCount)
		}
		for cat, n := range r.CategoryCounts {
			if n < 0 {
				p.errorf("report %s: negative count %d for %s", r.ID, n, cat)
			}
		}
		if r.Coordinates.IsZero() {
			p.errorf("report %s: missing coordinates", r.ID)
		}
	}

	fmt.Printf("Phase 1: %d reports, %d unique ids\n", len(reports), len(seen))
	return p
}

func validateAggregation(reports []domain.Report, snap domain.Snapshot) *phase {
	p := &phase{name: "Phase 2: Aggregation invariants"}

	type expected struct {
		total      int
		categories map[string]int
		types      map[string]bool
	}
	want := map[string]*expected{}
	var order []string
	for i := range reports {
		r := &reports[i]
		e, ok := want[r.LocationKey]
		if !ok {
			e = &expected{categories: map[string]int{}, types: map[string]bool{}}
			want[r.LocationKey] = e
			order = append(order, r.LocationKey)
		}
		e.total += r.ReportCount
		e.types[r.Type] = true
		for cat, n := range r.CategoryCounts {
			e.categories[cat] += n
		}
	}

	if len(snap.Locations) != len(order) {
		p.errorf("locations: got %d, want %d", len(snap.Locations), len(order))
	}
	for i, l := range snap.Locations {
		if i < len(order) && l.LocationKey != order[i] {
			p.errorf("location %d: got key %q, want first-seen %q", i, l.LocationKey, order[i])
		}
		e, ok := want[l.LocationKey]
		if !ok {
			p.errorf("location %q: not present in reports", l.LocationKey)
			continue
		}
		if l.TotalReports != e.total {
			p.errorf("location %q: totalReports %d, want %d", l.LocationKey, l.TotalReports, e.total)
		}
		if e.total > 0 && (l.AverageIntensityScore < 1 || l.AverageIntensityScore > 3) {
			p.errorf("location %q: score %.3f outside [1,3]", l.LocationKey, l.AverageIntensityScore)
		}
		if got := domain.ClassifyIntensity(l.AverageIntensityScore); got != l.OverallIntensity {
			p.errorf("location %q: intensity %s, score %.3f classifies as %s",
				l.LocationKey, l.OverallIntensity, l.AverageIntensityScore, got)
		}
		if !e.types[l.DominantType] {
			p.errorf("location %q: dominant type %q never reported there", l.LocationKey, l.DominantType)
		}
		if len(l.SampleEvidence) > 5 {
			p.errorf("location %q: %d evidence samples", l.LocationKey, len(l.SampleEvidence))
		}
		if !cmp.Equal(l.CategoryCounts, e.categories, cmpopts.EquateEmpty()) {
			p.errorf("location %q: category counts %v, want %v", l.LocationKey, l.CategoryCounts, e.categories)
		}
		if !strings.Contains(l.Summary, l.LocationKey) {
			p.errorf("location %q: summary does not name the location: %q", l.LocationKey, l.Summary)
		}
	}

	sum := 0
	for _, e := range want {
		sum += e.total
	}
	if snap.TotalReports != sum {
		p.errorf("snapshot totalReports %d, want %d", snap.TotalReports, sum)
	}

	fmt.Printf("Phase 2: %d locations checked\n", len(snap.Locations))
	return p
}

func validateFixtureParity(stored, fresh domain.Snapshot) *phase {
	p := &phase{name: "Phase 3: Aggregated fixture parity"}

	approx := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })
	if diff := cmp.Diff(stored.Locations, fresh.Locations, approx, cmpopts.EquateEmpty()); diff != "" {
		p.errorf("locations differ (-fixture +fresh):\n%s", diff)
	}
	if stored.TotalReports != fresh.TotalReports {
		p.errorf("totalReports: fixture %d, fresh %d", stored.TotalReports, fresh.TotalReports)
	}

	fmt.Printf("Phase 3: compared %d stored locations\n", len(stored.Locations))
	return p
}
