package handler

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sumire/devtrack/internal/domain"
	"github.com/sumire/devtrack/internal/service"
)

const (
	contextKeyUser   = "user"
	contextKeyClaims = "claims"
)

// RequestLogger logs each HTTP request with structured fields.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let the error handler write the response so the logged
				// status is the one the client sees.
				c.Error(err)
			}

			attrs := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			}
			if user, ok := GetUser(c); ok {
				attrs = append(attrs, "user_id", user.ID)
			}
			slog.InfoContext(c.Request().Context(), "http request", attrs...)

			return nil
		}
	}
}

// JWTAuth validates the Bearer token and injects the authenticated user and
// the token claims into the echo context.
func JWTAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return domain.ErrUnauthorized
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return domain.ErrUnauthorized
			}

			ctx := c.Request().Context()
			claims, err := auth.ValidateToken(ctx, token)
			if err != nil {
				return err
			}

			user, err := auth.GetUser(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrUnauthorized
				}
				return err
			}

			c.Set(contextKeyUser, *user)
			c.Set(contextKeyClaims, claims)
			return next(c)
		}
	}
}

// GetUser extracts the authenticated user from echo context.
func GetUser(c echo.Context) (domain.User, bool) {
	user, ok := c.Get(contextKeyUser).(domain.User)
	return user, ok
}

// GetClaims extracts the access token claims from echo context.
func GetClaims(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(contextKeyClaims).(*service.Claims)
	return claims, ok
}

// actor returns the authenticated user or an unauthorized error.
func actor(c echo.Context) (domain.User, error) {
	user, ok := GetUser(c)
	if !ok {
		return domain.User{}, domain.ErrUnauthorized
	}
	return user, nil
}
