package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/boardcamp-api/internal/handler"
	"github.com/iliyamo/boardcamp-api/internal/middleware"
)

// RegisterCatalog registers category and game endpoints.  Listings go
// through the response cache; successful writes drop the cached pages of
// the resource they touched.
func RegisterCatalog(e *echo.Echo, cats *handler.CategoryHandler, games *handler.GameHandler, cache echo.MiddlewareFunc, inv *middleware.CacheInvalidator) {
	// ---- Categories ----
	e.GET("/categories", cats.List, cache)
	e.POST("/categories", cats.Create, middleware.InvalidateOnWrite(inv, "categories"))

	// ---- Games ----
	e.GET("/games", games.List, cache)
	e.POST("/games", games.Create, middleware.InvalidateOnWrite(inv, "games"))
}
