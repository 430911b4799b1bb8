package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"                    // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware" // echo's stock recover and CORS middleware
	"github.com/redis/go-redis/v9"                   // redis backs the shared rate limiter
	"github.com/sirupsen/logrus"                     // logrus is the request logger sink

	"github.com/iliyamo/boardcamp-api/internal/config"     // runtime configuration
	"github.com/iliyamo/boardcamp-api/internal/handler"    // handlers that implement the endpoints
	"github.com/iliyamo/boardcamp-api/internal/metrics"    // prometheus collectors
	"github.com/iliyamo/boardcamp-api/internal/middleware" // request id, logging, metrics, rate limiting
	"github.com/iliyamo/boardcamp-api/internal/validation" // request body validation
)

// New builds the Echo instance with the global middleware chain.  Order
// matters: Recover is outermost so a panic anywhere below still produces a
// 500, and the request logger sits inside the metrics middleware so it sees
// the handler error before it is rendered.
func New(cfg *config.Config, log logrus.FieldLogger, m *metrics.Metrics, rdb *redis.Client) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Metrics(m))
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb))
	return e
}

// RegisterRoutes registers the operational endpoints: liveness, readiness
// and the Prometheus scrape target.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, m *metrics.Metrics) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
}
