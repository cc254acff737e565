// Package xlsx exports aggregated locations as an Excel workbook.
package xlsx

import (
	"fmt"
	"io"
	"slices"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/incident-report-service/internal/domain"
)

// Sheet names.
const (
	LocationsSheet = "Locations"
	EvidenceSheet  = "Evidence"
)

// ContentType is the MIME type of the workbook WriteLocations produces.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var fixedHeader = []string{
	"Location", "Latitude", "Longitude", "Total Reports",
	"Average Intensity Score", "Overall Intensity", "Dominant Type",
}

// WriteLocations writes a workbook with one row per location on the
// Locations sheet (one column per need category) and one row per sample
// evidence string on the Evidence sheet.
func WriteLocations(w io.Writer, locations []domain.AggregatedLocation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LocationsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(EvidenceSheet); err != nil {
		return fmt.Errorf("create evidence sheet: %w", err)
	}

	categories := categoryColumns(locations)
	header := make([]any, 0, len(fixedHeader)+len(categories)+1)
	for _, h := range fixedHeader {
		header = append(header, h)
	}
	for _, c := range categories {
		header = append(header, c)
	}
	header = append(header, "Summary")

	if err := setRow(f, LocationsSheet, 1, header); err != nil {
		return err
	}
	if err := setRow(f, EvidenceSheet, 1, []any{"Location", "Evidence"}); err != nil {
		return err
	}

	evidenceRow := 2
	for i, loc := range locations {
		row := []any{
			loc.LocationKey,
			loc.Coordinates.Lat,
			loc.Coordinates.Lon,
			loc.TotalReports,
			loc.AverageIntensityScore,
			string(loc.OverallIntensity),
			loc.DominantType,
		}
		for _, c := range categories {
			row = append(row, loc.CategoryCounts[c])
		}
		row = append(row, loc.Summary)
		if err := setRow(f, LocationsSheet, i+2, row); err != nil {
			return err
		}

		for _, e := range loc.SampleEvidence {
			if err := setRow(f, EvidenceSheet, evidenceRow, []any{loc.LocationKey, e}); err != nil {
				return err
			}
			evidenceRow++
		}
	}

	if err := boldHeaders(f); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// categoryColumns lists the known categories in display order followed by
// any other category present in the data, alphabetically.
func categoryColumns(locations []domain.AggregatedLocation) []string {
	cols := slices.Clone(domain.Categories)
	var extra []string
	seen := make(map[string]bool)
	for _, loc := range locations {
		for c := range loc.CategoryCounts {
			if !seen[c] && !slices.Contains(domain.Categories, c) {
				seen[c] = true
				extra = append(extra, c)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func boldHeaders(f *excelize.File) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	for _, sheet := range []string{LocationsSheet, EvidenceSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
			return fmt.Errorf("style %s header: %w", sheet, err)
		}
	}
	return nil
}
