package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/campus_market/internal/events"
	"github.com/campuskart/campus_market/internal/logging"
	"github.com/campuskart/campus_market/internal/models"
	"github.com/campuskart/campus_market/internal/service"
)

// httpError maps the service taxonomy onto HTTP statuses. Anything outside
// the taxonomy surfaces as a generic 500 without leaking internals.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, detail(err, service.ErrValidation))
	case errors.Is(err, service.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, detail(err, service.ErrUnauthenticated))
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, detail(err, service.ErrForbidden))
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, detail(err, service.ErrNotFound))
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, detail(err, service.ErrConflict))
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func detail(err error, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

func publish(c echo.Context, producer events.Publisher, topic, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "error", err)
	}
}

// productView relabels a viewer's own Available listings as Pending. The
// relabel is display-only, the stored status is untouched.
type productView struct {
	models.Product
	DisplayStatus string `json:"display_status"`
}

func viewProducts(items []models.Product, viewerID uint) []productView {
	views := make([]productView, len(items))
	for i, p := range items {
		views[i] = viewProduct(p, viewerID)
	}
	return views
}

func viewProduct(p models.Product, viewerID uint) productView {
	v := productView{Product: p, DisplayStatus: p.Status}
	if p.SellerID == viewerID && p.Status == models.StatusAvailable {
		v.DisplayStatus = models.StatusPending
	}
	return v
}

func pageMeta(page, limit, offset int, total int64) map[string]interface{} {
	return map[string]interface{}{
		"page":        page,
		"size":        limit,
		"total":       total,
		"total_pages": (total + int64(limit) - 1) / int64(limit),
		"has_prev":    page > 1,
		"has_next":    int64(offset+limit) < total,
	}
}

func param(c echo.Context, name string) (uint, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" is not an integer")
	}
	return uint(v), nil
}
