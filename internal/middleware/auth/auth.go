package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/campus_market/internal/token"
)

const (
	userIDKey   = "userID"
	roleKey     = "role"
	rawTokenKey = "rawToken"
)

type Guard struct {
	Tokens *token.Service
}

// RequireAuth extracts the bearer token, verifies it and puts the principal
// into the echo context. Failure subtypes keep distinct messages so a client
// can tell an expired session from one revoked by logout elsewhere.
func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := bearerToken(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		principal, err := g.Tokens.Verify(c.Request().Context(), raw)
		if err != nil {
			switch {
			case errors.Is(err, token.ErrExpired):
				return echo.NewHTTPError(http.StatusUnauthorized, "token expired")
			case errors.Is(err, token.ErrRevoked):
				return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
			case errors.Is(err, token.ErrMalformed):
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			default:
				return echo.NewHTTPError(http.StatusInternalServerError, "cannot verify token")
			}
		}

		c.Set(userIDKey, principal.UserID)
		c.Set(roleKey, principal.Role)
		c.Set(rawTokenKey, raw)
		return next(c)
	}
}

// RequireRoles gates the route to principals whose role is in allowed.
// Membership is exact: admin passes only where the route lists admin.
// An empty list means any authenticated principal.
func (g *Guard) RequireRoles(allowed ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(roleKey).(string)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			if len(allowed) == 0 {
				return next(c)
			}
			for _, r := range allowed {
				if r == role {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
	}
}

// BearerToken returns the raw bearer credential from the Authorization
// header without verifying it.
func BearerToken(c echo.Context) (string, error) {
	return bearerToken(c)
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", errors.New("authorization header missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("authorization header is not a bearer token")
	}
	return parts[1], nil
}

func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(userIDKey).(uint)
	return id, ok
}

func Role(c echo.Context) (string, bool) {
	role, ok := c.Get(roleKey).(string)
	return role, ok
}

func RawToken(c echo.Context) (string, bool) {
	raw, ok := c.Get(rawTokenKey).(string)
	return raw, ok
}
