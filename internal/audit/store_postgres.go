package audit

import (
	"context"
	"database/sql"
	"fmt"

	"ghgledger/pkg/domain"
	txcontext "ghgledger/pkg/platform/tx"
)

// PostgresStore appends to audit_log_entries, joining the caller's transaction
// so entries commit or roll back together with the record change they describe.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `id, record_id, field_name, old_value, new_value, changed_by, changed_at, reason`

func (s *PostgresStore) Append(ctx context.Context, entries ...*Entry) error {
	query := `
		INSERT INTO audit_log_entries (record_id, field_name, old_value, new_value, changed_by, changed_at, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	exec := txcontext.ExecutorFor(ctx, s.db)
	for _, e := range entries {
		var id int64
		err := exec.QueryRowContext(ctx, query,
			int64(e.RecordID), e.FieldName, nullString(e.OldValue), nullString(e.NewValue),
			nullUserID(e.ChangedBy), e.ChangedAt, nullString(e.Reason),
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		e.ID = domain.AuditEntryID(id)
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM audit_log_entries ORDER BY id`)
}

func (s *PostgresStore) ListByRecord(ctx context.Context, recordID domain.RecordID) ([]*Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM audit_log_entries WHERE record_id = $1 ORDER BY id`, int64(recordID))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*Entry, error) {
	rows, err := txcontext.ExecutorFor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	out := make([]*Entry, 0)
	for rows.Next() {
		var (
			e                          Entry
			id, recordID               int64
			oldValue, newValue, reason sql.NullString
			changedBy                  sql.NullInt64
		)
		if err := rows.Scan(&id, &recordID, &e.FieldName, &oldValue, &newValue, &changedBy, &e.ChangedAt, &reason); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = domain.AuditEntryID(id)
		e.RecordID = domain.RecordID(recordID)
		e.OldValue = stringPtr(oldValue)
		e.NewValue = stringPtr(newValue)
		e.Reason = stringPtr(reason)
		if changedBy.Valid {
			uid := domain.UserID(changedBy.Int64)
			e.ChangedBy = &uid
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return out, nil
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

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
