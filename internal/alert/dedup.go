package alert

import (
	"strings"
	"time"
)

// DuplicateWindow is how close two issue dates must be for otherwise
// matching alerts to count as the same advisory.
const DuplicateWindow = time.Hour

// IsDuplicate reports whether a and b share type, district, state and color
// (case-insensitively) and were issued within DuplicateWindow of each other.
func IsDuplicate(a, b Alert) bool {
	if !strings.EqualFold(a.Type, b.Type) ||
		!strings.EqualFold(a.District, b.District) ||
		!strings.EqualFold(a.State, b.State) ||
		!strings.EqualFold(string(a.Color), string(b.Color)) {
		return false
	}
	gap := a.IssueDate.Sub(b.IssueDate)
	if gap < 0 {
		gap = -gap
	}
	return gap <= DuplicateWindow
}

// Fresh returns the candidates that duplicate neither an existing alert nor a
// candidate already kept, in input order.
func Fresh(existing, candidates []Alert) []Alert {
	kept := make([]Alert, 0, len(candidates))
next:
	for _, c := range candidates {
		for _, e := range existing {
			if IsDuplicate(c, e) {
				continue next
			}
		}
		for _, k := range kept {
			if IsDuplicate(c, k) {
				continue next
			}
		}
		kept = append(kept, c)
	}
	return kept
}

// Window returns a filter covering every issue date a candidate could be a
// duplicate of.
func Window(candidates []Alert) Filter {
	var f Filter
	for i, c := range candidates {
		start := c.IssueDate.Add(-DuplicateWindow)
		end := c.IssueDate.Add(DuplicateWindow)
		if i == 0 || start.Before(f.StartDate) {
			f.StartDate = start
		}
		if i == 0 || end.After(f.EndDate) {
			f.EndDate = end
		}
	}
	return f
}
