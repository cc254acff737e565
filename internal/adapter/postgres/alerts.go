package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/couchcryptid/incident-report-service/internal/alert"
)

type alertRow struct {
	bun.BaseModel `bun:"table:ocean_alerts,alias:oa"`

	ID        string            `bun:"id,pk"`
	Type      string            `bun:"type,notnull"`
	District  string            `bun:"district"`
	State     string            `bun:"state"`
	Color     string            `bun:"color,notnull"`
	Latitude  float64           `bun:"latitude"`
	Longitude float64           `bun:"longitude"`
	IssueDate time.Time         `bun:"issue_date,notnull"`
	Message   string            `bun:"message"`
	Details   map[string]string `bun:"details,type:jsonb"`
}

func toRow(a alert.Alert) alertRow {
	return alertRow{
		ID:        a.ID,
		Type:      a.Type,
		District:  a.District,
		State:     a.State,
		Color:     string(a.Color),
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		IssueDate: a.IssueDate.UTC(),
		Message:   a.Message,
		Details:   a.Details,
	}
}

func (r alertRow) toAlert() alert.Alert {
	return alert.Alert{
		ID:        r.ID,
		Type:      r.Type,
		District:  r.District,
		State:     r.State,
		Color:     alert.Color(strings.ToUpper(r.Color)),
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		IssueDate: r.IssueDate.UTC(),
		Message:   r.Message,
		Details:   r.Details,
	}
}

// AlertStore implements alert.Store on the ocean_alerts table.
type AlertStore struct {
	db *bun.DB
}

// NewAlertStore wraps an open bun handle.
func NewAlertStore(db *bun.DB) *AlertStore {
	return &AlertStore{db: db}
}

// EnsureSchema creates the alerts table if it does not exist.
func (s *AlertStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*alertRow)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return fmt.Errorf("create ocean_alerts: %w", err)
	}
	return nil
}

// Upsert inserts alerts, replacing rows with the same ID.
func (s *AlertStore) Upsert(ctx context.Context, alerts []alert.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	if _, err := s.upsertQuery(alerts).Exec(ctx); err != nil {
		return fmt.Errorf("upsert alerts: %w", err)
	}
	return nil
}

func (s *AlertStore) All(ctx context.Context) ([]alert.Alert, error) {
	return s.scan(ctx, s.searchQuery(alert.Filter{}), "list alerts")
}

func (s *AlertStore) Search(ctx context.Context, f alert.Filter) ([]alert.Alert, error) {
	return s.scan(ctx, s.searchQuery(f), "search alerts")
}

func (s *AlertStore) HighSeverity(ctx context.Context) ([]alert.Alert, error) {
	return s.scan(ctx, s.highSeverityQuery(), "high severity alerts")
}

// CheckReadiness pings the database.
func (s *AlertStore) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *AlertStore) scan(ctx context.Context, q *bun.SelectQuery, op string) ([]alert.Alert, error) {
	var rows []alertRow
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]alert.Alert, len(rows))
	for i, r := range rows {
		out[i] = r.toAlert()
	}
	return out, nil
}

func (s *AlertStore) upsertQuery(alerts []alert.Alert) *bun.InsertQuery {
	rows := make([]alertRow, len(alerts))
	for i, a := range alerts {
		rows[i] = toRow(a)
	}
	return s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("type = EXCLUDED.type").
		Set("district = EXCLUDED.district").
		Set("state = EXCLUDED.state").
		Set("color = EXCLUDED.color").
		Set("latitude = EXCLUDED.latitude").
		Set("longitude = EXCLUDED.longitude").
		Set("issue_date = EXCLUDED.issue_date").
		Set("message = EXCLUDED.message").
		Set("details = EXCLUDED.details")
}

// searchQuery translates a Filter into SQL with the same semantics as
// alert.Filter.Matches.
func (s *AlertStore) searchQuery(f alert.Filter) *bun.SelectQuery {
	q := s.db.NewSelect().Model((*alertRow)(nil))

	if v := strings.TrimSpace(f.Type); v != "" {
		q = q.Where("LOWER(oa.type) = LOWER(?)", v)
	}
	if v := strings.TrimSpace(f.Color); v != "" {
		q = q.Where("LOWER(oa.color) = LOWER(?)", v)
	}
	if v := strings.TrimSpace(f.DistrictOrState); v != "" {
		q = q.Where("(LOWER(oa.district) = LOWER(?) OR LOWER(oa.state) = LOWER(?))", v, v)
	}
	if !f.StartDate.IsZero() {
		q = q.Where("oa.issue_date >= ?", f.StartDate)
	}
	if !f.EndDate.IsZero() {
		q = q.Where("oa.issue_date <= ?", f.EndDate)
	}
	return q.OrderExpr("oa.issue_date DESC")
}

func (s *AlertStore) highSeverityQuery() *bun.SelectQuery {
	rules := alert.SeverityRules()
	return s.db.NewSelect().
		Model((*alertRow)(nil)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			for _, r := range rules {
				colors := make([]string, len(r.Colors))
				for i, c := range r.Colors {
					colors[i] = string(c)
				}
				q = q.WhereOr("(LOWER(oa.type) = ? AND UPPER(oa.color) IN (?))", r.Type, bun.In(colors))
			}
			return q
		}).
		OrderExpr("oa.issue_date DESC")
}
