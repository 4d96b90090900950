package middleware

import (
	"errors"

	"helpkart/internal/common"
	"helpkart/internal/models"
	"helpkart/internal/services"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

// SessionCookieName carries the session credential for browser clients
const SessionCookieName = "helpkart_session"

const sessionContextKey = "session"

// SessionMiddleware resumes the caller's session from the Authorization header
// or the session cookie and stores it in the request context.
func SessionMiddleware(authService services.AuthService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "header:Authorization:Bearer ,cookie:" + SessionCookieName,
		ContextKey:  sessionContextKey,
		ParseTokenFunc: func(c echo.Context, credential string) (interface{}, error) {
			return authService.ResumeSession(c.Request().Context(), credential)
		},
		SuccessHandler: func(c echo.Context) {
			session, ok := c.Get(sessionContextKey).(*models.Session)
			if !ok {
				return
			}
			c.SetRequest(c.Request().WithContext(common.WithSession(c.Request().Context(), session)))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if errors.Is(err, common.ErrUnavailable) {
				return common.SendError(c, err)
			}
			return common.SendUnauthorizedError(c)
		},
	})
}

// SessionFromContext returns the session placed by SessionMiddleware
func SessionFromContext(c echo.Context) (*models.Session, bool) {
	return common.GetSessionFromContext(c.Request().Context())
}
