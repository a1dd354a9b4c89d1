package audit

import (
	"ghgledger/pkg/domain"
)

const (
	// FieldAll marks a record-level entry written when a record is deleted with audit.
	FieldAll = "*ALL*"
	// DefaultReason is recorded on corrections whose caller gave no reason.
	DefaultReason = "Manual update"
)

// Entry is one append-only line of the audit trail. RecordID is a plain id:
// entries outlive the record they describe. Old and new values are the
// stringified field values; nil means the value was absent.
type Entry struct {
	ID        domain.AuditEntryID `json:"id"`
	RecordID  domain.RecordID     `json:"record_id"`
	FieldName string              `json:"field_name"`
	OldValue  *string             `json:"old_value"`
	NewValue  *string             `json:"new_value"`
	ChangedBy *domain.UserID      `json:"changed_by"`
	ChangedAt domain.Date         `json:"changed_at"`
	Reason    *string             `json:"reason"`
}

// IsRecordLevel reports whether the entry describes a whole-record deletion.
func (e *Entry) IsRecordLevel() bool {
	return e.FieldName == FieldAll
}
