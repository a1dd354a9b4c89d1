package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ghgledger/internal/factor/models"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	txcontext "ghgledger/pkg/platform/tx"
)

// PostgresStore persists factors in the emission_factors table. Every method
// joins the transaction bound to ctx, if any.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const factorColumns = `id, activity, unit, co2e_value, source, valid_from, valid_to`

func (s *PostgresStore) Create(ctx context.Context, f *models.Factor) error {
	query := `
		INSERT INTO emission_factors (activity, unit, co2e_value, source, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	var id int64
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query,
		f.Activity, f.Unit, f.CO2eValue, nullString(f.Source), f.ValidFrom, f.ValidTo,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert factor: %w", err)
	}
	f.ID = domain.FactorID(id)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.FactorID) (*models.Factor, error) {
	query := `SELECT ` + factorColumns + ` FROM emission_factors WHERE id = $1`
	f, err := scanFactor(txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find factor: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Factor, error) {
	query := `SELECT ` + factorColumns + ` FROM emission_factors ORDER BY id`
	return s.query(ctx, "list factors", query)
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.FactorID) (*models.Factor, error) {
	query := `DELETE FROM emission_factors WHERE id = $1 RETURNING ` + factorColumns
	f, err := scanFactor(txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("delete factor: %w", err)
	}
	return f, nil
}

func (s *PostgresStore) Resolve(ctx context.Context, activity, unit string, on domain.Date) (*models.Factor, error) {
	query := `
		SELECT ` + factorColumns + `
		FROM emission_factors
		WHERE activity = $1 AND unit = $2 AND valid_from <= $3 AND valid_to >= $3
		ORDER BY id
		LIMIT 1`
	f, err := scanFactor(txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, activity, unit, on))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("resolve factor: %w", err)
	}
	return f, nil
}

// ListOverlapping takes a transaction-scoped advisory lock on (activity, unit)
// first, so two concurrent strict inserts for the same key cannot both pass
// the overlap check. Outside a transaction the lock is released immediately.
func (s *PostgresStore) ListOverlapping(ctx context.Context, activity, unit string, from, to domain.Date) ([]*models.Factor, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	if _, ok := txcontext.From(ctx); ok {
		if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1 || '|' || $2))`, activity, unit); err != nil {
			return nil, fmt.Errorf("lock factor key: %w", err)
		}
	}
	query := `
		SELECT ` + factorColumns + `
		FROM emission_factors
		WHERE activity = $1 AND unit = $2 AND valid_from <= $4 AND valid_to >= $3
		ORDER BY id`
	return s.query(ctx, "list overlapping factors", query, activity, unit, from, to)
}

func (s *PostgresStore) query(ctx context.Context, op, query string, args ...any) ([]*models.Factor, error) {
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]*models.Factor, 0)
	for rows.Next() {
		f, err := scanFactor(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type factorRow interface {
	Scan(dest ...any) error
}

func scanFactor(row factorRow) (*models.Factor, error) {
	var (
		f      models.Factor
		id     int64
		source sql.NullString
	)
	if err := row.Scan(&id, &f.Activity, &f.Unit, &f.CO2eValue, &source, &f.ValidFrom, &f.ValidTo); err != nil {
		return nil, err
	}
	f.ID = domain.FactorID(id)
	if source.Valid {
		f.Source = &source.String
	}
	return &f, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
