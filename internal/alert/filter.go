package alert

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	dateTimeLayout = "2006-01-02T15:04:05"
	dateLayout     = "2006-01-02"
)

// Query parameter names shared by the dashboard and the search endpoint.
const (
	ParamType            = "type"
	ParamDistrictOrState = "districtOrState"
	ParamColor           = "color"
	ParamStartDate       = "startDate"
	ParamEndDate         = "endDate"
)

// Filter narrows an alert list. Zero-valued fields match everything.
type Filter struct {
	Type            string
	DistrictOrState string
	Color           string
	StartDate       time.Time
	EndDate         time.Time
}

// ParseFilter reads a Filter from query parameters. Dates may be full
// local date-times or bare dates; a bare start date means the start of that
// day and a bare end date the last second of it.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Type:            strings.TrimSpace(q.Get(ParamType)),
		DistrictOrState: strings.TrimSpace(q.Get(ParamDistrictOrState)),
		Color:           strings.TrimSpace(q.Get(ParamColor)),
	}

	var err error
	if f.StartDate, err = parseDate(q.Get(ParamStartDate), false); err != nil {
		return Filter{}, fmt.Errorf("invalid %s: %w", ParamStartDate, err)
	}
	if f.EndDate, err = parseDate(q.Get(ParamEndDate), true); err != nil {
		return Filter{}, fmt.Errorf("invalid %s: %w", ParamEndDate, err)
	}
	if !f.StartDate.IsZero() && !f.EndDate.IsZero() && f.EndDate.Before(f.StartDate) {
		return Filter{}, fmt.Errorf("invalid %s: before %s", ParamEndDate, ParamStartDate)
	}
	return f, nil
}

func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateTimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// Query renders the filter as query parameters, omitting blank fields.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if v := strings.TrimSpace(f.Type); v != "" {
		q.Set(ParamType, v)
	}
	if v := strings.TrimSpace(f.DistrictOrState); v != "" {
		q.Set(ParamDistrictOrState, v)
	}
	if v := strings.TrimSpace(f.Color); v != "" {
		q.Set(ParamColor, v)
	}
	if !f.StartDate.IsZero() {
		q.Set(ParamStartDate, f.StartDate.Format(dateTimeLayout))
	}
	if !f.EndDate.IsZero() {
		q.Set(ParamEndDate, f.EndDate.Format(dateTimeLayout))
	}
	return q
}

// Encode is Query().Encode(): the query string for the search endpoint.
func (f Filter) Encode() string {
	return f.Query().Encode()
}

// IsZero reports whether the filter matches every alert.
func (f Filter) IsZero() bool {
	return len(f.Query()) == 0
}

// Matches reports whether a satisfies every set field of f. Text fields
// compare case-insensitively; the date range is inclusive.
func (f Filter) Matches(a Alert) bool {
	if v := strings.TrimSpace(f.Type); v != "" && !strings.EqualFold(v, a.Type) {
		return false
	}
	if v := strings.TrimSpace(f.Color); v != "" && !strings.EqualFold(v, string(a.Color)) {
		return false
	}
	if v := strings.TrimSpace(f.DistrictOrState); v != "" &&
		!strings.EqualFold(v, a.District) && !strings.EqualFold(v, a.State) {
		return false
	}
	if !f.StartDate.IsZero() && a.IssueDate.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && a.IssueDate.After(f.EndDate) {
		return false
	}
	return true
}

// Search returns the alerts matching f, in input order.
func Search(alerts []Alert, f Filter) []Alert {
	out := make([]Alert, 0, len(alerts))
	for _, a := range alerts {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	return out
}
