package jwtmiddleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/job_tracker/pkg/logging"
	"github.com/Skotchmaster/job_tracker/pkg/tokens"
)

const (
	claimsKey = "claims"
	userIDKey = "user_id"
)

// Bearer accepts "Authorization: Bearer <access token>" and stores the
// caller's id in the echo context. Refresh tokens are rejected.
func Bearer(accessSecret []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsKey,
		TokenLookup: "header:Authorization:Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			claims, err := tokens.AccessClaimsFromToken(auth, accessSecret)
			if err != nil {
				return nil, err
			}
			if _, err := uuid.Parse(claims.Subject); err != nil {
				return nil, fmt.Errorf("bad subject: %w", err)
			}
			return claims, nil
		},
		SuccessHandler: func(c echo.Context) {
			claims := c.Get(claimsKey).(*tokens.AccessClaims)
			c.Set(userIDKey, uuid.MustParse(claims.Subject))
		},
		ErrorHandler: func(c echo.Context, err error) error {
			l := logging.FromContext(c.Request().Context()).With("handler", "bearer_auth")
			msg := "invalid token"
			var missing *echojwt.TokenExtractionError
			switch {
			case errors.As(err, &missing):
				msg = "missing token"
			case errors.Is(err, jwt.ErrTokenExpired):
				msg = "token expired"
			}
			l.Warn("auth_rejected", "status", http.StatusUnauthorized, "reason", msg, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msg)
		},
	})
}

func UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// SetUserID is used by handler tests that skip the middleware.
func SetUserID(c echo.Context, id uuid.UUID) {
	c.Set(userIDKey, id)
}
