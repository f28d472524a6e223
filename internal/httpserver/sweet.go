package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sweet_shop/internal/service"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
	"github.com/Skotchmaster/sweet_shop/pkg/logging"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"
)

type SweetHTTP struct {
	Svc *service.SweetService
}

func (h *SweetHTTP) GetSweets(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.get_sweets")

	items, err := h.Svc.ListSweets(ctx)
	if err != nil {
		l.Error("get_sweets_error", "status", 500, "reason", "cannot list sweets", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load sweets")
	}

	l.Info("get_sweets_success", "count", len(items))
	return c.JSON(http.StatusOK, items)
}

func (h *SweetHTTP) SearchSweets(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.search")

	items, err := h.Svc.SearchSweets(ctx, c.QueryParam("q"))
	if err != nil {
		l.Error("search_sweets_error", "status", 500, "reason", "cannot search sweets", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot search sweets")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *SweetHTTP) GetSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.get_sweet")

	id, err := parseID(c)
	if err != nil {
		l.Warn("get_sweet_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.Svc.GetSweet(ctx, id)
	if err != nil {
		return serviceError(c, "get_sweet_error", err, "cannot get sweet")
	}
	return c.JSON(http.StatusOK, item)
}

func (h *SweetHTTP) CreateSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.create_sweet")

	var req transport.SweetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_sweet_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.CreateSweet(ctx, req)
	if err != nil {
		return serviceError(c, "create_sweet_error", err, "cannot add sweet")
	}

	l.Info("create_sweet_success", "sweet_id", item.ID)
	return c.JSON(http.StatusCreated, item)
}

func (h *SweetHTTP) UpdateSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.update_sweet")

	id, err := parseID(c)
	if err != nil {
		l.Warn("update_sweet_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req transport.SweetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_sweet_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.UpdateSweet(ctx, id, req)
	if err != nil {
		return serviceError(c, "update_sweet_error", err, "cannot update sweet")
	}

	l.Info("update_sweet_success", "sweet_id", item.ID)
	return c.JSON(http.StatusOK, item)
}

func (h *SweetHTTP) DeleteSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.delete_sweet")

	id, err := parseID(c)
	if err != nil {
		l.Warn("delete_sweet_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.Svc.DeleteSweet(ctx, id); err != nil {
		return serviceError(c, "delete_sweet_error", err, "cannot delete sweet")
	}

	l.Info("delete_sweet_success", "sweet_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *SweetHTTP) RestockSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.restock")

	id, err := parseID(c)
	if err != nil {
		l.Warn("restock_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req transport.QuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("restock_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.Restock(ctx, id, req.Quantity)
	if err != nil {
		return serviceError(c, "restock_error", err, "cannot restock sweet")
	}

	l.Info("restock_success", "sweet_id", id, "quantity", req.Quantity)
	return c.JSON(http.StatusOK, item)
}

func (h *SweetHTTP) PurchaseSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.purchase")

	userID, err := userIDFrom(c)
	if err != nil {
		l.Warn("purchase_error", "status", 401, "reason", "no user in context", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	id, err := parseID(c)
	if err != nil {
		l.Warn("purchase_error", "status", 400, "reason", "bad id", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req transport.QuantityRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("purchase_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	resp, replayed, err := h.Svc.Purchase(ctx, userID, id, req.Quantity, c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return serviceError(c, "purchase_error", err, "cannot complete purchase")
	}

	if replayed {
		c.Response().Header().Set(HeaderReplayed, "true")
	}
	l.Info("purchase_success", "sweet_id", id, "quantity", req.Quantity, "replayed", replayed)
	return c.JSON(http.StatusOK, resp)
}
