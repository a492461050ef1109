package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/campus_market/internal/logging"
	"github.com/campuskart/campus_market/internal/middleware/auth"
	"github.com/campuskart/campus_market/internal/service"
	"github.com/campuskart/campus_market/internal/util"
)

type ProfileHandler struct {
	Svc *service.AuthService
}

func (h *ProfileHandler) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.me")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	user, err := h.Svc.GetProfile(ctx, userID)
	if err != nil {
		he := httpError(err)
		l.Warn("get_profile_failed", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.update")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	var patch service.ProfilePatch
	if err := c.Bind(&patch); err != nil {
		l.Warn("update_profile_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.UpdateProfile(ctx, userID, patch)
	if err != nil {
		he := httpError(err)
		l.Warn("update_profile_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("update_profile_success", "userID", userID)
	return c.JSON(http.StatusOK, user)
}

// UpdatePassword re-hashes the credential and revokes the current token, so
// the session has to log in again.
func (h *ProfileHandler) UpdatePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.update_password")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	raw, _ := auth.RawToken(c)

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_password_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.UpdatePassword(ctx, userID, req.CurrentPassword, req.NewPassword, raw); err != nil {
		he := httpError(err)
		l.Warn("update_password_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("update_password_success", "userID", userID)
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated, please log in again"})
}

func (h *ProfileHandler) Selling(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.selling")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.SellingList(ctx, userID, offset, limit)
	if err != nil {
		l.Error("selling_list_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list selling items")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": viewProducts(items, userID),
		"meta": pageMeta(page, limit, offset, total),
	})
}
