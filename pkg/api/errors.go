package api

import (
	"errors"
	"log/slog"
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/arclinehq/arcline/pkg/errs"
)

// maxErrorBodyChars bounds every error message this API returns (§7
// "message bodies truncated to 300 chars").
const maxErrorBodyChars = 300

// mapServiceError maps the §7 error taxonomy to HTTP responses for
// /extract: 4xx for every input error, 5xx only for a truly unexpected
// internal failure.
func mapServiceError(err error) *echo.HTTPError {
	var valErr *errs.ValidationError
	if errors.As(err, &valErr) {
		return echo.NewHTTPError(http.StatusBadRequest, truncate(valErr.Error()))
	}
	if errors.Is(err, errs.ErrInsufficientPopulation) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, truncate(err.Error()))
	}
	if errors.Is(err, errs.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	var invErr *errs.InvariantViolationError
	if errors.As(err, &invErr) {
		return echo.NewHTTPError(http.StatusConflict, truncate(invErr.Error()))
	}

	slog.Error("unexpected error serving /extract", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

func truncate(s string) string {
	if len(s) <= maxErrorBodyChars {
		return s
	}
	return s[:maxErrorBodyChars]
}
