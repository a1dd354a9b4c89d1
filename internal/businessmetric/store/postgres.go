package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ghgledger/internal/businessmetric/models"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	txcontext "ghgledger/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const metricColumns = `id, metric_date, metric_name, value`

func (s *PostgresStore) Create(ctx context.Context, m *models.Metric) error {
	query := `
		INSERT INTO business_metrics (metric_date, metric_name, value)
		VALUES ($1, $2, $3)
		RETURNING id`
	var id int64
	if err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, m.Date, m.Name, m.Value).Scan(&id); err != nil {
		return fmt.Errorf("insert business metric: %w", err)
	}
	m.ID = domain.MetricID(id)
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Metric, error) {
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, `SELECT `+metricColumns+` FROM business_metrics ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list business metrics: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Metric, 0)
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business metric: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list business metrics: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.MetricID) error {
	res, err := txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, `DELETE FROM business_metrics WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete business metric: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete business metric: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByNameDate(ctx context.Context, name string, on domain.Date) (*models.Metric, error) {
	query := `
		SELECT ` + metricColumns + `
		FROM business_metrics
		WHERE metric_name = $1 AND metric_date = $2
		ORDER BY id
		LIMIT 1`
	m, err := scanMetric(txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, name, on))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find business metric: %w", err)
	}
	return m, nil
}

type metricRow interface {
	Scan(dest ...any) error
}

func scanMetric(row metricRow) (*models.Metric, error) {
	var (
		m  models.Metric
		id int64
	)
	if err := row.Scan(&id, &m.Date, &m.Name, &m.Value); err != nil {
		return nil, err
	}
	m.ID = domain.MetricID(id)
	return &m, nil
}
