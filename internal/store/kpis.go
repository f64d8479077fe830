package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// KPIRecord is one live-loop iteration's headline figures.
type KPIRecord struct {
	Job          string          `json:"job"`
	AvgAge       float64         `json:"avg_age"`
	MarriedCount int64           `json:"married_count"`
	AvgBalance   decimal.Decimal `json:"avg_balance"`
	Iteration    int64           `json:"iteration"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// RecordKPI appends one iteration's KPIs.
func (s *Store) RecordKPI(ctx context.Context, rec KPIRecord) error {
	_, err := s.ExecContext(ctx, `
		INSERT INTO live_kpis (job, avg_age, married_count, avg_balance, iteration, recorded_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, rec.Job, rec.AvgAge, rec.MarriedCount, rec.AvgBalance.String(), rec.Iteration)
	if err != nil {
		return fmt.Errorf("store: record kpi: %w", err)
	}
	return nil
}

// RecentKPIs returns the most recent KPI rows, newest first.
func (s *Store) RecentKPIs(ctx context.Context, limit int) ([]KPIRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.QueryContext(ctx, `
		SELECT job, avg_age, married_count, avg_balance, iteration, recorded_at
		FROM live_kpis
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: recent kpis: %w", err)
	}
	defer rows.Close()

	var out []KPIRecord
	for rows.Next() {
		var rec KPIRecord
		var balance string
		if err := rows.Scan(&rec.Job, &rec.AvgAge, &rec.MarriedCount, &balance, &rec.Iteration, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("store: scan kpi row: %w", err)
		}
		rec.AvgBalance, err = decimal.NewFromString(balance)
		if err != nil {
			return nil, fmt.Errorf("store: parse avg_balance %q: %w", balance, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountKPIs reports the number of stored KPI rows.
func (s *Store) CountKPIs(ctx context.Context) (int64, error) {
	var n int64
	if err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM live_kpis`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count kpis: %w", err)
	}
	return n, nil
}
