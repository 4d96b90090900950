package handlers

import (
	"net/http"
	"time"

	"helpkart/internal/middleware"
	"helpkart/internal/models"
	"helpkart/internal/services"

	"github.com/labstack/echo/v4"
)

// AuthHandlers handles account and session endpoints
type AuthHandlers struct {
	authService  services.AuthService
	secureCookie bool
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService services.AuthService, secureCookie bool) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		secureCookie: secureCookie,
	}
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the password change payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register handles center registration
func (h *AuthHandlers) Register(c echo.Context) error {
	var req services.RegisterRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	center, err := h.authService.Register(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, center)
}

// Login authenticates a center and issues its session credential
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	token, err := h.authService.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(h.sessionCookie(token.Token, int(models.SessionTTL/time.Second)))
	return c.JSON(http.StatusOK, token)
}

// Logout ends the current session
func (h *AuthHandlers) Logout(c echo.Context) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access")
	}
	if err := h.authService.Logout(c.Request().Context(), session); err != nil {
		return err
	}

	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

// GetProfile returns the caller's center
func (h *AuthHandlers) GetProfile(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	center, err := h.authService.GetProfile(c.Request().Context(), centerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, center)
}

// UpdateProfile edits the caller's center profile
func (h *AuthHandlers) UpdateProfile(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	var patch models.CenterProfilePatch
	if err := bindBody(c, &patch); err != nil {
		return err
	}

	center, err := h.authService.UpdateProfile(c.Request().Context(), centerID, centerID, &patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, center)
}

// ChangePassword replaces the caller's password after checking the current one
func (h *AuthHandlers) ChangePassword(c echo.Context) error {
	centerID, err := callerID(c)
	if err != nil {
		return err
	}
	var req ChangePasswordRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := h.authService.ChangePasswordWithCurrent(c.Request().Context(), centerID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAccount removes the caller's center and ends its session
func (h *AuthHandlers) DeleteAccount(c echo.Context) error {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access")
	}
	ctx := c.Request().Context()

	if err := h.authService.DeleteAccount(ctx, session.CenterID, session.CenterID); err != nil {
		return err
	}
	// The center is gone, so any later resume fails anyway
	_ = h.authService.Logout(ctx, session)

	c.SetCookie(h.sessionCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandlers) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
