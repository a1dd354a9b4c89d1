package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ghgledger/internal/emission/models"
	"ghgledger/internal/sentinel"
	"ghgledger/pkg/domain"
	txcontext "ghgledger/pkg/platform/tx"
)

// PostgresStore persists records in the emission_records table. Every method
// joins the transaction bound to ctx, if any.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, scope, activity, unit, quantity, emission_factor_id, ghg_emission, recorded_at, location, user_id, version`

func (s *PostgresStore) Create(ctx context.Context, r *models.Record) error {
	query := `
		INSERT INTO emission_records (scope, activity, unit, quantity, emission_factor_id, ghg_emission, recorded_at, location, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, version`
	var id int64
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query,
		string(r.Scope), r.Activity, r.Unit, r.Quantity, int64(r.EmissionFactorID), r.GHGEmission,
		r.RecordedAt, nullString(r.Location), nullUserID(r.UserID),
	).Scan(&id, &r.Version)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	r.ID = domain.RecordID(id)
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.RecordID) (*models.Record, error) {
	return s.find(ctx, `SELECT `+recordColumns+` FROM emission_records WHERE id = $1`, id)
}

// FindForUpdate locks the row until the surrounding transaction ends, so
// concurrent corrections of one record run one after the other.
func (s *PostgresStore) FindForUpdate(ctx context.Context, id domain.RecordID) (*models.Record, error) {
	return s.find(ctx, `SELECT `+recordColumns+` FROM emission_records WHERE id = $1 FOR UPDATE`, id)
}

func (s *PostgresStore) find(ctx context.Context, query string, id domain.RecordID) (*models.Record, error) {
	r, err := scanRecord(txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, scope domain.Scope) ([]*models.Record, error) {
	if scope == "" {
		return s.query(ctx, `SELECT `+recordColumns+` FROM emission_records ORDER BY id`)
	}
	return s.query(ctx, `SELECT `+recordColumns+` FROM emission_records WHERE scope = $1 ORDER BY id`, string(scope))
}

func (s *PostgresStore) Update(ctx context.Context, r *models.Record) error {
	query := `
		UPDATE emission_records
		SET scope = $2, activity = $3, unit = $4, quantity = $5, emission_factor_id = $6,
		    ghg_emission = $7, location = $8, user_id = $9, version = version + 1
		WHERE id = $1
		RETURNING version`
	err := txcontext.ExecutorFor(ctx, s.db).QueryRowContext(ctx, query,
		int64(r.ID), string(r.Scope), r.Activity, r.Unit, r.Quantity, int64(r.EmissionFactorID),
		r.GHGEmission, nullString(r.Location), nullUserID(r.UserID),
	).Scan(&r.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.RecordID) error {
	res, err := txcontext.ExecutorFor(ctx, s.db).ExecContext(ctx, `DELETE FROM emission_records WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Record, error) {
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

type recordRow interface {
	Scan(dest ...any) error
}

func scanRecord(row recordRow) (*models.Record, error) {
	var (
		r            models.Record
		id, factorID int64
		scope        string
		location     sql.NullString
		userID       sql.NullInt64
	)
	err := row.Scan(&id, &scope, &r.Activity, &r.Unit, &r.Quantity, &factorID, &r.GHGEmission,
		&r.RecordedAt, &location, &userID, &r.Version)
	if err != nil {
		return nil, err
	}
	r.ID = domain.RecordID(id)
	r.Scope = domain.Scope(scope)
	r.EmissionFactorID = domain.FactorID(factorID)
	if location.Valid {
		r.Location = &location.String
	}
	if userID.Valid {
		uid := domain.UserID(userID.Int64)
		r.UserID = &uid
	}
	return &r, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullUserID(id *domain.UserID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}
