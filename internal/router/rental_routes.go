package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/boardcamp-api/internal/handler"
)

// RegisterRentals mounts the rental endpoints.  /rentals/metrics is a
// static route and wins over any :id pattern.
func RegisterRentals(e *echo.Echo, h *handler.RentalHandler) {
	g := e.Group("/rentals")
	g.GET("", h.List)
	g.GET("/metrics", h.Metrics)
	g.POST("", h.Create)
	// close an open rental, charging a delay fee when late
	g.POST("/:id/return", h.Return)
	g.DELETE("/:id", h.Delete)
}
