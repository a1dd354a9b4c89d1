package domain

import (
	"fmt"
	"strings"

	dErrors "ghgledger/pkg/domain-errors"
)

// Scope classifies an emission under the GHG Protocol.
type Scope string

const (
	Scope1 Scope = "Scope1"
	Scope2 Scope = "Scope2"
	Scope3 Scope = "Scope3"
)

// Scopes lists every scope in reporting order.
var Scopes = []Scope{Scope1, Scope2, Scope3}

func (s Scope) IsValid() bool {
	switch s {
	case Scope1, Scope2, Scope3:
		return true
	}
	return false
}

func (s Scope) String() string { return string(s) }

// ParseScope accepts the canonical tags and the short forms "1", "2", "3".
func ParseScope(v string) (Scope, error) {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "scope1", "1":
		return Scope1, nil
	case "scope2", "2":
		return Scope2, nil
	case "scope3", "3":
		return Scope3, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("invalid scope %q: must be one of Scope1, Scope2, Scope3", v))
}
