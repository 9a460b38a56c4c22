package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// paramID parses a numeric path parameter. ok is false for a missing or
// non-numeric value; handlers answer 400 in that case.
func paramID(c echo.Context, name string) (uint64, bool) {
	raw := c.Param(name)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
