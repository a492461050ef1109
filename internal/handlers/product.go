package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/campuskart/campus_market/internal/events"
	"github.com/campuskart/campus_market/internal/logging"
	"github.com/campuskart/campus_market/internal/middleware/auth"
	"github.com/campuskart/campus_market/internal/repo"
	"github.com/campuskart/campus_market/internal/search"
	"github.com/campuskart/campus_market/internal/service"
	"github.com/campuskart/campus_market/internal/util"
)

type ProductHandler struct {
	Svc      *service.CatalogService
	Producer events.Publisher
	Indexer  *search.Indexer
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	role, _ := auth.Role(c)

	var req service.CreateProductInput
	if err := c.Bind(&req); err != nil {
		l.Warn("product_create_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.Create(ctx, userID, role, req)
	if err != nil {
		he := httpError(err)
		l.Warn("product_create_failed", "status", he.Code, "error", err)
		return he
	}

	if err := h.Indexer.IndexProduct(ctx, prod); err != nil {
		l.Error("product_index_failed", "productID", prod.ID, "error", err)
	}

	publish(c, h.Producer, events.TopicProductEvents, fmt.Sprint(prod.ID), map[string]interface{}{
		"type":      "product_created",
		"productID": prod.ID,
		"sellerID":  prod.SellerID,
		"name":      prod.Name,
	})

	l.Info("product_create_success", "productID", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	filter := repo.ProductFilter{
		AvailableOnly: c.QueryParam("available") == "true",
		Category:      c.QueryParam("category"),
	}
	if v := c.QueryParam("seller_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			sellerID := uint(id)
			filter.SellerID = &sellerID
		}
	}
	if v := c.QueryParam("exclude_seller_id"); v != "" {
		if id, err := strconv.Atoi(v); err == nil && id > 0 {
			excludeID := uint(id)
			filter.ExcludeSellerID = &excludeID
		}
	}

	total, items, err := h.Svc.List(ctx, filter, offset, limit)
	if err != nil {
		he := httpError(err)
		l.Error("product_list_failed", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": items,
		"meta": pageMeta(page, limit, offset, total),
	})
}

func (h *ProductHandler) GetByID(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get")

	id, err := param(c, "id")
	if err != nil {
		return err
	}

	prod, err := h.Svc.GetByID(ctx, id)
	if err != nil {
		he := httpError(err)
		l.Warn("product_get_failed", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, prod)
}

// Mine lists the requester's own products, with the Pending display relabel.
func (h *ProductHandler) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.mine")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, items, err := h.Svc.List(ctx, repo.ProductFilter{SellerID: &userID}, offset, limit)
	if err != nil {
		he := httpError(err)
		l.Error("product_mine_failed", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": viewProducts(items, userID),
		"meta": pageMeta(page, limit, offset, total),
	})
}

func (h *ProductHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	role, _ := auth.Role(c)

	id, err := param(c, "id")
	if err != nil {
		return err
	}

	var patch service.ProductPatch
	if err := c.Bind(&patch); err != nil {
		l.Warn("product_update_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.Update(ctx, id, userID, role, patch)
	if err != nil {
		he := httpError(err)
		l.Warn("product_update_failed", "status", he.Code, "error", err)
		return he
	}

	if err := h.Indexer.IndexProduct(ctx, prod); err != nil {
		l.Error("product_index_failed", "productID", prod.ID, "error", err)
	}

	publish(c, h.Producer, events.TopicProductEvents, fmt.Sprint(prod.ID), map[string]interface{}{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	l.Info("product_update_success", "productID", prod.ID)
	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	userID, ok := auth.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	role, _ := auth.Role(c)

	id, err := param(c, "id")
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, id, userID, role); err != nil {
		he := httpError(err)
		l.Warn("product_delete_failed", "status", he.Code, "error", err)
		return he
	}

	if err := h.Indexer.DeleteProduct(ctx, id); err != nil {
		l.Error("product_unindex_failed", "productID", id, "error", err)
	}

	publish(c, h.Producer, events.TopicProductEvents, fmt.Sprint(id), map[string]interface{}{
		"type":      "product_deleted",
		"productID": id,
	})

	l.Info("product_delete_success", "productID", id)
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}

// Sell marks the product sold. Of two racing buyers exactly one gets 200,
// the other 409.
func (h *ProductHandler) Sell(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.sell")

	id, err := param(c, "id")
	if err != nil {
		return err
	}

	prod, err := h.Svc.MarkSold(ctx, id)
	if err != nil {
		he := httpError(err)
		l.Warn("product_sell_failed", "status", he.Code, "error", err)
		return he
	}

	if err := h.Indexer.IndexProduct(ctx, prod); err != nil {
		l.Error("product_index_failed", "productID", prod.ID, "error", err)
	}

	publish(c, h.Producer, events.TopicProductEvents, fmt.Sprint(prod.ID), map[string]interface{}{
		"type":      "product_sold",
		"productID": prod.ID,
	})

	l.Info("product_sell_success", "productID", prod.ID)
	return c.JSON(http.StatusOK, prod)
}
