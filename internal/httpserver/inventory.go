package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sweet_shop/internal/service"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
	"github.com/Skotchmaster/sweet_shop/pkg/logging"
)

type InventoryHTTP struct {
	Svc *service.InventoryService
}

func (h *InventoryHTTP) ListItems(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.Svc.ListItems(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_inventory_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list inventory")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *InventoryHTTP) GetItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.Svc.GetItem(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, "get_inventory_error", err, "cannot get inventory item")
	}
	return c.JSON(http.StatusOK, item)
}

func (h *InventoryHTTP) CreateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "inventory.create_item")

	var req transport.InventoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_inventory_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.CreateItem(ctx, req)
	if err != nil {
		return serviceError(c, "create_inventory_error", err, "cannot create inventory item")
	}

	l.Info("create_inventory_success", "item_id", item.ID)
	return c.JSON(http.StatusCreated, item)
}

func (h *InventoryHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "inventory.update_item")

	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req transport.InventoryRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_inventory_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	item, err := h.Svc.UpdateItem(ctx, id, req)
	if err != nil {
		return serviceError(c, "update_inventory_error", err, "cannot update inventory item")
	}

	l.Info("update_inventory_success", "item_id", item.ID)
	return c.JSON(http.StatusOK, item)
}

func (h *InventoryHTTP) DeleteItem(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.Svc.DeleteItem(c.Request().Context(), id); err != nil {
		return serviceError(c, "delete_inventory_error", err, "cannot delete inventory item")
	}
	return c.NoContent(http.StatusNoContent)
}
