package store

import (
	"context"
	"database/sql"
	"fmt"

	"ghgledger/internal/report/models"
	"ghgledger/pkg/domain"
	txcontext "ghgledger/pkg/platform/tx"
)

// PostgresStore runs each report as a single read-only statement.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) YearOverYear(ctx context.Context) ([]*models.YearTotal, error) {
	query := `
		SELECT date_trunc('year', recorded_at)::date AS year, scope, SUM(ghg_emission)
		FROM emission_records
		GROUP BY 1, 2
		ORDER BY 1, 2`
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("year over year: %w", err)
	}
	defer rows.Close()

	out := make([]*models.YearTotal, 0)
	for rows.Next() {
		var (
			t     models.YearTotal
			scope string
		)
		if err := rows.Scan(&t.Year, &scope, &t.TotalEmission); err != nil {
			return nil, fmt.Errorf("scan year total: %w", err)
		}
		t.Scope = domain.Scope(scope)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("year over year: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Hotspots(ctx context.Context, limit int) ([]*models.Hotspot, error) {
	query := `
		SELECT activity, SUM(ghg_emission) AS total
		FROM emission_records
		GROUP BY activity
		ORDER BY total DESC, activity ASC
		LIMIT $1`
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("hotspots: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Hotspot, 0, limit)
	for rows.Next() {
		var h models.Hotspot
		if err := rows.Scan(&h.Activity, &h.TotalEmission); err != nil {
			return nil, fmt.Errorf("scan hotspot: %w", err)
		}
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("hotspots: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Trend(ctx context.Context, scope domain.Scope) ([]*models.TrendPoint, error) {
	query := `
		SELECT date_trunc('month', recorded_at)::date AS period, SUM(ghg_emission)
		FROM emission_records
		WHERE ($1 = '' OR scope = $1)
		GROUP BY 1
		ORDER BY 1`
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query, string(scope))
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	defer rows.Close()

	out := make([]*models.TrendPoint, 0)
	for rows.Next() {
		var p models.TrendPoint
		if err := rows.Scan(&p.Period, &p.TotalEmission); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) TotalOnDate(ctx context.Context, on domain.Date) (float64, error) {
	var total float64
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ghg_emission), 0) FROM emission_records WHERE recorded_at = $1`, on,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total on date: %w", err)
	}
	return total, nil
}

// Reconciliation resolves the current factor per record with the same
// lowest-id rule the factor catalog uses.
func (s *PostgresStore) Reconciliation(ctx context.Context) ([]*models.ReconciliationRow, error) {
	query := `
		SELECT r.id, r.scope, r.activity, r.unit, r.quantity, r.recorded_at,
		       r.emission_factor_id, r.ghg_emission, f.id, f.co2e_value
		FROM emission_records r
		LEFT JOIN LATERAL (
			SELECT ef.id, ef.co2e_value
			FROM emission_factors ef
			WHERE ef.activity = r.activity AND ef.unit = r.unit
			  AND ef.valid_from <= r.recorded_at AND ef.valid_to >= r.recorded_at
			ORDER BY ef.id
			LIMIT 1
		) f ON true
		ORDER BY r.id`
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reconciliation: %w", err)
	}
	defer rows.Close()

	out := make([]*models.ReconciliationRow, 0)
	for rows.Next() {
		var (
			row                models.ReconciliationRow
			recordID, factorID int64
			scope              string
			currentID          sql.NullInt64
			co2eValue          sql.NullFloat64
		)
		err := rows.Scan(&recordID, &scope, &row.Activity, &row.Unit, &row.Quantity, &row.RecordedAt,
			&factorID, &row.StoredEmission, &currentID, &co2eValue)
		if err != nil {
			return nil, fmt.Errorf("scan reconciliation row: %w", err)
		}
		row.RecordID = domain.RecordID(recordID)
		row.Scope = domain.Scope(scope)
		row.EmissionFactorID = domain.FactorID(factorID)
		if currentID.Valid && co2eValue.Valid {
			row.Recalculate(domain.FactorID(currentID.Int64), co2eValue.Float64)
		}
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reconciliation: %w", err)
	}
	return out, nil
}
