package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arclinehq/arcline/pkg/errs"
)

func TestMapServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		expectCode int
		expectMsg  string
	}{
		{
			name:       "validation error maps to 400",
			err:        errs.NewValidationError("entity_type", errors.New("must be event or ctm")),
			expectCode: http.StatusBadRequest,
			expectMsg:  "must be event or ctm",
		},
		{
			name:       "insufficient population maps to 422",
			err:        fmt.Errorf("event family ef-1: %w", errs.ErrInsufficientPopulation),
			expectCode: http.StatusUnprocessableEntity,
			expectMsg:  "insufficient member titles",
		},
		{
			name:       "not found maps to 404",
			err:        fmt.Errorf("wrapped: %w", errs.ErrNotFound),
			expectCode: http.StatusNotFound,
			expectMsg:  "resource not found",
		},
		{
			name:       "invariant violation maps to 409",
			err:        &errs.InvariantViolationError{Invariant: "unique label", Detail: "frame already exists"},
			expectCode: http.StatusConflict,
			expectMsg:  "frame already exists",
		},
		{
			name:       "unknown error maps to 500",
			err:        fmt.Errorf("something unexpected happened"),
			expectCode: http.StatusInternalServerError,
			expectMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he := mapServiceError(tt.err)
			assert.IsType(t, &echo.HTTPError{}, he)
			assert.Equal(t, tt.expectCode, he.Code)
			assert.Contains(t, he.Error(), tt.expectMsg)
		})
	}
}

func TestTruncateBoundsErrorBodyAt300Chars(t *testing.T) {
	long := strings.Repeat("x", 500)
	err := errs.NewValidationError("field", errors.New(long))

	he := mapServiceError(err)

	msg, ok := he.Message.(string)
	require.True(t, ok)
	assert.Len(t, msg, maxErrorBodyChars)
}
