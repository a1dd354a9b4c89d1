package httputil

import (
	"net/http"
	"strconv"
	"strings"

	"ghgledger/pkg/domain"
	dErrors "ghgledger/pkg/domain-errors"
)

// QueryString returns the trimmed query parameter, or "" when absent.
func QueryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

// RequiredQuery returns the query parameter or a validation error naming it.
func RequiredQuery(r *http.Request, name string) (string, error) {
	v := QueryString(r, name)
	if v == "" {
		return "", dErrors.New(dErrors.CodeValidation, name+" is required")
	}
	return v, nil
}

// QueryDate parses an optional YYYY-MM-DD query parameter. Absent yields the zero Date.
func QueryDate(r *http.Request, name string) (domain.Date, error) {
	v := QueryString(r, name)
	if v == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(v)
	if err != nil {
		return domain.Date{}, dErrors.New(dErrors.CodeValidation, name+" must be a date in YYYY-MM-DD format")
	}
	return d, nil
}

// QueryInt parses an optional positive integer query parameter, returning def when absent.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	v := QueryString(r, name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, name+" must be a positive integer")
	}
	return n, nil
}
