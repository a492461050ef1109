package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/campus_market/internal/events"
	"github.com/campuskart/campus_market/internal/logging"
	"github.com/campuskart/campus_market/internal/middleware/auth"
	"github.com/campuskart/campus_market/internal/service"
	"github.com/campuskart/campus_market/internal/token"
)

type AuthHandler struct {
	Svc      *service.AuthService
	Producer events.Publisher
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req service.RegisterInput
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, rawToken, err := h.Svc.Register(ctx, req)
	if err != nil {
		he := httpError(err)
		l.Warn("register_failed", "status", he.Code, "error", err)
		return he
	}

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
		"role":   user.Role,
	})

	l.Info("register_success", "userID", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"token": rawToken,
		"user":  user,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, rawToken, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		he := httpError(err)
		l.Warn("login_failed", "status", he.Code, "error", err)
		return he
	}

	publish(c, h.Producer, events.TopicUserEvents, fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
	})

	l.Info("login_success", "userID", user.ID)
	return c.JSON(http.StatusOK, echo.Map{
		"token": rawToken,
		"user":  user,
	})
}

// Logout revokes the presented token. The route deliberately skips the
// revocation-checking middleware: revoking an already revoked or expired
// token is a no-op that still answers 200, so a double logout never errors.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	raw, err := auth.BearerToken(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	if err := h.Svc.Logout(ctx, raw); err != nil {
		if errors.Is(err, token.ErrMalformed) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		l.Error("logout_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot revoke token")
	}

	l.Info("logout_success")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
