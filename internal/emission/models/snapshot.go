package models

import (
	"strings"

	"ghgledger/pkg/domain"
)

// Snapshot is the typed set of correctable record fields. Fields are only
// stringified when diffed into audit entries.
type Snapshot struct {
	Scope    domain.Scope
	Activity string
	Unit     string
	Quantity float64
	Location *string
	UserID   *domain.UserID
}

// FieldChange is one field whose string form differs between two snapshots.
// A nil value means the field was absent.
type FieldChange struct {
	Field    string
	OldValue *string
	NewValue *string
}

type field struct {
	name  string
	value *string
}

func (s Snapshot) fields() []field {
	return []field{
		{"scope", ptr(s.Scope.String())},
		{"activity", ptr(s.Activity)},
		{"unit", ptr(s.Unit)},
		{"quantity", ptr(FormatFloat(s.Quantity))},
		{"location", s.Location},
		{"user_id", userIDString(s.UserID)},
	}
}

// Diff returns the changed fields in a fixed order:
// scope, activity, unit, quantity, location, user_id.
func Diff(before, after Snapshot) []FieldChange {
	oldFields, newFields := before.fields(), after.fields()
	changes := make([]FieldChange, 0, len(oldFields))
	for i := range oldFields {
		o, n := oldFields[i].value, newFields[i].value
		if equalValues(o, n) {
			continue
		}
		changes = append(changes, FieldChange{Field: oldFields[i].name, OldValue: o, NewValue: n})
	}
	return changes
}

func (s Snapshot) describe() string {
	parts := make([]string, 0, 6)
	for _, f := range s.fields() {
		v := "None"
		if f.value != nil {
			v = *f.value
		}
		parts = append(parts, f.name+"="+v)
	}
	return strings.Join(parts, ", ")
}

func equalValues(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func userIDString(id *domain.UserID) *string {
	if id == nil {
		return nil
	}
	return ptr(id.String())
}

func ptr(s string) *string { return &s }
