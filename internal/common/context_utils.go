package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"helpkart/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	SessionKey contextKey = "session"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendError writes err using the standard envelope. Unknown errors are reported
// without their internal message.
func SendError(c echo.Context, err error) error {
	code, status := ErrorCode(err)
	message := err.Error()
	var details map[string]string
	var verr *ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		details = map[string]string{verr.Field: verr.Message}
	}
	switch status {
	case http.StatusInternalServerError:
		message = "internal server error"
	case http.StatusServiceUnavailable:
		message = ErrUnavailable.Error()
	}
	return c.JSON(status, CreateErrorResponse(code, message, details))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

// WithSession stores the authenticated session in ctx.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, session)
}

// GetSessionFromContext extracts the authenticated session from the request context
func GetSessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(SessionKey).(*models.Session)
	return session, ok && session != nil
}

// ValidateUUID validates UUID format
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, NewValidationError(fieldName, "is required")
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, NewValidationError(fieldName, "must be a valid UUID")
	}
	if id == uuid.Nil {
		return uuid.Nil, NewValidationError(fieldName, "must not be the nil UUID")
	}

	return id, nil
}

// ValidatePositiveInteger validates positive integer values with upper bounds
func ValidatePositiveInteger(value int, fieldName string, maxValue int) error {
	if value <= 0 {
		return NewValidationError(fieldName, "must be positive")
	}
	if value > maxValue {
		return NewValidationError(fieldName, fmt.Sprintf("cannot exceed %d", maxValue))
	}
	return nil
}

// ValidateNonNegativeInteger validates quantities that may be zero
func ValidateNonNegativeInteger(value int, fieldName string, maxValue int) error {
	if value < 0 {
		return NewValidationError(fieldName, "cannot be negative")
	}
	if value > maxValue {
		return NewValidationError(fieldName, fmt.Sprintf("cannot exceed %d", maxValue))
	}
	return nil
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fieldName, "is required")
	}
	return nil
}

// ValidateOptionalString validates optional string fields
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value != nil {
		if len(*value) > maxLength {
			return NewValidationError(fieldName, fmt.Sprintf("cannot exceed %d characters", maxLength))
		}
		*value = strings.TrimSpace(*value)
	}
	return nil
}

// ValidateEmail validates and normalizes an email address
func ValidateEmail(email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", NewValidationError("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", NewValidationError("email", "is not a valid email address")
	}
	return email, nil
}

// NormalizeEmail lower-cases and trims an email so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateCoordinates validates latitude/longitude bounds
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return NewValidationError("latitude", "must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return NewValidationError("longitude", "must be between -180 and 180")
	}
	return nil
}

const maxSearchQueryRunes = 100

// SanitizeSearchQuery trims user-supplied search text and caps it at 100
// characters. The text is kept literal; see LikePattern for SQL matching.
func SanitizeSearchQuery(query string) string {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) > maxSearchQueryRunes {
		query = string([]rune(query)[:maxSearchQueryRunes])
	}
	return strings.TrimSpace(query)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns sanitized search text into an (I)LIKE substring pattern.
// Wildcards in the text match themselves under the default backslash escape.
func LikePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// ValidateSortOrder validates sort order parameters
func ValidateSortOrder(sortOrder string) string {
	order := strings.ToLower(sortOrder)
	if order == "asc" {
		return "ASC"
	}
	return "DESC" // Default to DESC
}

// ValidatePaginationParams validates pagination parameters
func ValidatePaginationParams(limit, offset int) (int, int, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	if offset < 0 {
		offset = 0
	}
	if offset > 1000000 {
		return 0, 0, NewValidationError("offset", "cannot exceed 1,000,000")
	}

	return limit, offset, nil
}
