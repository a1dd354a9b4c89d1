// Package domain provides type-safe identifiers and calendar dates shared by ledger modules.
package domain

import (
	"strconv"

	dErrors "ghgledger/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing a FactorID where a RecordID is expected.
// All ledger entities use database-assigned serial identifiers.
type (
	FactorID     int64
	RecordID     int64
	MetricID     int64
	AuditEntryID int64
	// UserID references an actor in an external identity system. The ledger never
	// resolves it, it only records who supplied or changed a value.
	UserID int64
)

// Parse functions - use at trust boundaries (handlers, path params).

func ParseFactorID(s string) (FactorID, error) {
	v, err := parseSerial(s, "factor ID")
	return FactorID(v), err
}

func ParseRecordID(s string) (RecordID, error) {
	v, err := parseSerial(s, "record ID")
	return RecordID(v), err
}

func ParseMetricID(s string) (MetricID, error) {
	v, err := parseSerial(s, "metric ID")
	return MetricID(v), err
}

func (id FactorID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id RecordID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id MetricID) String() string     { return strconv.FormatInt(int64(id), 10) }
func (id AuditEntryID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id UserID) String() string       { return strconv.FormatInt(int64(id), 10) }

func (id FactorID) IsNil() bool { return id == 0 }
func (id RecordID) IsNil() bool { return id == 0 }
func (id MetricID) IsNil() bool { return id == 0 }

// parseSerial accepts positive base-10 integers only.
func parseSerial(s, label string) (int64, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" must be positive")
	}
	return v, nil
}
