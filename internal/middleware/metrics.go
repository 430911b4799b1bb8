package middleware

import (
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/boardcamp-api/internal/metrics"
)

// Metrics records request count, latency and in-flight requests.  The label
// is the route pattern, so /rentals/1/return and /rentals/2/return share one
// series.  Scrapes of /metrics are not counted.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Path() == "/metrics" {
                return next(c)
            }
            m.InFlightInc()
            defer m.InFlightDec()

            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }
            route := c.Path()
            if route == "" {
                route = "unmatched"
            }
            m.ObserveRequest(c.Request().Method, route, strconv.Itoa(c.Response().Status), time.Since(start).Seconds())
            return nil
        }
    }
}
