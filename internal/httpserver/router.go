package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/sweet_shop/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler      *AuthHTTP
	SweetHandler     *SweetHTTP
	OrderHandler     *OrderHTTP
	InventoryHandler *InventoryHTTP
	Auth             *middleware.JWTAuth
	// Ready is called by /health/ready; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout, d.Auth.RequireAuth)

	sweets := api.Group("/sweets")
	sweets.GET("", d.SweetHandler.GetSweets)
	sweets.GET("/search", d.SweetHandler.SearchSweets)
	sweets.GET("/:id", d.SweetHandler.GetSweet)

	sweets.POST("", d.SweetHandler.CreateSweet, d.Auth.RequireAuth)
	sweets.PUT("/:id", d.SweetHandler.UpdateSweet, d.Auth.RequireAuth)
	sweets.POST("/:id/purchase", d.SweetHandler.PurchaseSweet, d.Auth.RequireAuth)
	sweets.DELETE("/:id", d.SweetHandler.DeleteSweet, d.Auth.RequireAdmin)
	sweets.POST("/:id/restock", d.SweetHandler.RestockSweet, d.Auth.RequireAdmin)

	orders := api.Group("/orders", d.Auth.RequireAuth)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)

	inventory := api.Group("/inventory", d.Auth.RequireAuth)
	inventory.GET("", d.InventoryHandler.ListItems)
	inventory.GET("/:id", d.InventoryHandler.GetItem)
	inventory.POST("", d.InventoryHandler.CreateItem)
	inventory.PUT("/:id", d.InventoryHandler.UpdateItem)
	inventory.DELETE("/:id", d.InventoryHandler.DeleteItem)
}
