package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/campus_market/internal/events"
	"github.com/campuskart/campus_market/internal/logging"
	"github.com/campuskart/campus_market/internal/middleware/auth"
	"github.com/campuskart/campus_market/internal/search"
	"github.com/campuskart/campus_market/internal/service"
)

type CartHandler struct {
	Cart     *service.CartService
	Purchase *service.PurchaseCoordinator
	Producer events.Publisher
	Indexer  *search.Indexer
}

func (h *CartHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	lines, err := h.Cart.List(ctx, userID)
	if err != nil {
		l.Error("cart_get_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot read cart")
	}

	return c.JSON(http.StatusOK, echo.Map{"cart": lines})
}

// Add merges quantity into an existing line (add 2 then add 3 leaves one
// line with 5), or appends a new line.
func (h *CartHandler) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	var req struct {
		ProductID uint  `json:"productId"`
		Quantity  *uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_add_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	quantity := uint(1)
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	lines, err := h.Cart.AddItem(ctx, userID, req.ProductID, quantity)
	if err != nil {
		he := httpError(err)
		l.Warn("cart_add_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("cart_add_success", "productID", req.ProductID)
	return c.JSON(http.StatusOK, echo.Map{"cart": lines})
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	productID, err := param(c, "productId")
	if err != nil {
		return err
	}

	var req struct {
		Quantity uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("cart_update_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	lines, err := h.Cart.SetQuantity(ctx, userID, productID, req.Quantity)
	if err != nil {
		he := httpError(err)
		l.Warn("cart_update_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("cart_update_success", "productID", productID)
	return c.JSON(http.StatusOK, echo.Map{"cart": lines})
}

// Remove deletes the whole line. Decrement is the separate step-down
// operation.
func (h *CartHandler) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	productID, err := param(c, "productId")
	if err != nil {
		return err
	}

	lines, err := h.Cart.RemoveItem(ctx, userID, productID)
	if err != nil {
		he := httpError(err)
		l.Warn("cart_remove_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("cart_remove_success", "productID", productID)
	return c.JSON(http.StatusOK, echo.Map{"cart": lines})
}

func (h *CartHandler) Decrement(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.decrement")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	productID, err := param(c, "productId")
	if err != nil {
		return err
	}

	lines, err := h.Cart.DecrementItem(ctx, userID, productID)
	if err != nil {
		he := httpError(err)
		l.Warn("cart_decrement_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("cart_decrement_success", "productID", productID)
	return c.JSON(http.StatusOK, echo.Map{"cart": lines})
}

func (h *CartHandler) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	if err := h.Cart.Clear(ctx, userID); err != nil {
		l.Error("cart_clear_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot clear cart")
	}

	l.Info("cart_clear_success")
	return c.JSON(http.StatusOK, echo.Map{"cart": []service.CartLine{}})
}

// Buy settles the cart best-effort per line and reports which items were
// purchased and which failed.
func (h *CartHandler) Buy(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.buy")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	result, err := h.Purchase.BuyCart(ctx, userID)
	if err != nil {
		he := httpError(err)
		l.Warn("cart_buy_failed", "status", he.Code, "error", err)
		return he
	}

	// sold products must show as Sold in search too
	for i := range result.Purchased {
		if err := h.Indexer.IndexProduct(ctx, &result.Purchased[i]); err != nil {
			l.Error("product_index_failed", "productID", result.Purchased[i].ID, "error", err)
		}
	}

	publish(c, h.Producer, events.TopicCartEvents, fmt.Sprint(userID), map[string]interface{}{
		"type":      "cart_purchased",
		"userID":    userID,
		"purchased": len(result.Purchased),
		"failed":    len(result.Failed),
	})

	l.Info("cart_buy_success", "purchased", len(result.Purchased), "failed", len(result.Failed))
	return c.JSON(http.StatusOK, result)
}
