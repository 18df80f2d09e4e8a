// Package handler implements the HTTP endpoints. Authorization business
// rules that go beyond raw role membership (who may create whom, no
// self-deactivation, admin-only role changes) live here at the call sites,
// not in the middleware guard.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Health reports process liveness for load balancers.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// jsonMeta serializes audit metadata opportunistically; on a marshal
// failure the entry is simply written without metadata.
func jsonMeta(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// parseUintQuery parses a numeric query parameter.
func parseUintQuery(v string) (uint64, error) {
	return strconv.ParseUint(v, 10, 64)
}

// snapshot serializes a before/after state for an audit entry. The audit
// schema stores these as opaque text on purpose.
func snapshot(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
