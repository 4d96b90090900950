package common

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"duplicate email", ErrDuplicateEmail, "DUPLICATE_EMAIL", http.StatusConflict},
		{"wrapped not found", NotFoundError("item"), "NOT_FOUND", http.StatusNotFound},
		{"validation", NewValidationError("quantity", "must be positive"), "VALIDATION_ERROR", http.StatusBadRequest},
		{"invalid state", fmt.Errorf("approve: %w", ErrInvalidState), "INVALID_STATE", http.StatusConflict},
		{"conflict", ErrConflict, "CONFLICT", http.StatusConflict},
		{"throttled", ErrTooManyAttempts, "TOO_MANY_ATTEMPTS", http.StatusTooManyRequests},
		{"unavailable", fmt.Errorf("query: %w", ErrUnavailable), "UNAVAILABLE", http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), "SERVER_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, status := ErrorCode(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("unit", "is not supported")
	assert.Equal(t, "unit: is not supported", err.Error())
	assert.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, fmt.Errorf("add item: %w", err), &verr)
	assert.Equal(t, "unit", verr.Field)
}

func TestValidateEmail(t *testing.T) {
	email, err := ValidateEmail("  Alpha@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alpha@example.com", email)

	_, err = ValidateEmail("not-an-email")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ValidateEmail("Alpha <alpha@example.com>")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateUUID(t *testing.T) {
	_, err := ValidateUUID("", "id")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ValidateUUID("00000000-0000-0000-0000-000000000000", "id")
	assert.ErrorIs(t, err, ErrValidation)

	id, err := ValidateUUID(" 6f1c5d2e-3a4b-4c5d-8e9f-0a1b2c3d4e5f ", "id")
	require.NoError(t, err)
	assert.Equal(t, "6f1c5d2e-3a4b-4c5d-8e9f-0a1b2c3d4e5f", id.String())
}

func TestSanitizeSearchQuery(t *testing.T) {
	assert.Equal(t, "%ri_ce%", SanitizeSearchQuery(" %ri_ce% "))
	assert.Equal(t, "", SanitizeSearchQuery("   "))
	assert.Len(t, SanitizeSearchQuery(strings.Repeat("a", 150)), 100)

	// multibyte text is cut on character boundaries
	long := strings.Repeat("é", 150)
	got := SanitizeSearchQuery(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 100, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("水", 100), SanitizeSearchQuery(strings.Repeat("水", 101)))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%rice%", LikePattern("rice"))
	assert.Equal(t, `%100\% juice%`, LikePattern("100% juice"))
	assert.Equal(t, `%first\_aid%`, LikePattern("first_aid"))
	assert.Equal(t, `%C:\\\\%`, LikePattern(`C:\\`))
	assert.Equal(t, `%trailing\\%`, LikePattern(`trailing\`))
}

func TestValidatePaginationParams(t *testing.T) {
	limit, offset, err := ValidatePaginationParams(0, -5)
	require.NoError(t, err)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 0, offset)

	limit, _, err = ValidatePaginationParams(5000, 10)
	require.NoError(t, err)
	assert.Equal(t, 1000, limit)
}
