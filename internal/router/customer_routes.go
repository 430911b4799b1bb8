package router

import (
	"github.com/iliyamo/boardcamp-api/internal/handler"
	"github.com/labstack/echo/v4"
)

// RegisterCustomers registers customer endpoints.  Customers are mutable
// through PUT, so their listings are never cached.
func RegisterCustomers(e *echo.Echo, h *handler.CustomerHandler) {
	g := e.Group("/customers")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PUT("/:id", h.Update)
}
