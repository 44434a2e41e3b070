package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter, clamping the
// result to [min, max]. The fallback applies when the parameter is absent.
func ParseQueryInt(r *http.Request, name string, fallback, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("query parameter %q must be an integer", name))
	}

	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return value, nil
}

// ParseQueryTime reads an optional RFC 3339 timestamp query parameter.
func ParseQueryTime(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("query parameter %q must be an RFC 3339 timestamp", name))
	}
	return value, nil
}
