package middleware

import (
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/sirupsen/logrus"
)

// RequestID sets X-Request-ID to a fresh UUID unless the client sent one.
func RequestID() echo.MiddlewareFunc {
    return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
        Generator: uuid.NewString,
    })
}

// RequestLogger emits one entry per request.  Server errors log at error
// level, client errors at warn, everything else at info.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let echo write the response so the status below is final
                c.Error(err)
            }

            res := c.Response()
            entry := log.WithFields(logrus.Fields{
                "method":     c.Request().Method,
                "path":       c.Path(),
                "uri":        c.Request().RequestURI,
                "status":     res.Status,
                "latency_ms": time.Since(start).Milliseconds(),
                "request_id": res.Header().Get(echo.HeaderXRequestID),
                "ip":         c.RealIP(),
            })
            switch {
            case res.Status >= 500:
                if err != nil {
                    entry = entry.WithError(err)
                }
                entry.Error("http request")
            case res.Status >= 400:
                entry.Warn("http request")
            default:
                entry.Info("http request")
            }
            return nil
        }
    }
}

// Logger returns a request-scoped logger carrying the request id.
func Logger(c echo.Context, base logrus.FieldLogger) logrus.FieldLogger {
    return base.WithField("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
}
