package handler // handler defines http handlers

import (
    "errors"   // errors builds parse failures
    "net/http" // http provides status code constants
    "strconv"  // strconv converts strings to numeric types
    "strings"  // strings trims query values
    "time"     // time parses date filters

    "github.com/labstack/echo/v4"    // echo defines request context types
    "github.com/sirupsen/logrus"     // logrus records infrastructure failures

    "github.com/iliyamo/boardcamp-api/internal/middleware" // middleware exposes the request-scoped logger
    "github.com/iliyamo/boardcamp-api/internal/repository" // repository defines paging
)

// errBody is the error envelope used by every endpoint.
func errBody(msg string) echo.Map { return echo.Map{"error": msg} }

// parseID reads a positive numeric path parameter.
func parseID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64) // parse the identifier from the URL
    if err != nil || id == 0 {                           // zero is never a valid row id
        return 0, errors.New("invalid " + name)
    }
    return id, nil
}

// parseOptionalID reads a numeric query parameter; empty means "no filter".
func parseOptionalID(c echo.Context, name string) (uint64, error) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return 0, nil
    }
    id, err := strconv.ParseUint(raw, 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid " + name)
    }
    return id, nil
}

// parsePage reads offset, limit, order and desc.  order is passed through
// untouched; repositories resolve it against their allow-lists.
func parsePage(c echo.Context) (repository.Page, error) {
    var p repository.Page
    for _, f := range []struct {
        name string
        dst  *int
    }{{"offset", &p.Offset}, {"limit", &p.Limit}} {
        raw := strings.TrimSpace(c.QueryParam(f.name))
        if raw == "" {
            continue
        }
        n, err := strconv.Atoi(raw)
        if err != nil || n < 0 {
            return repository.Page{}, errors.New("invalid " + f.name)
        }
        *f.dst = n
    }
    p.Order = strings.TrimSpace(c.QueryParam("order"))
    p.Desc = strings.EqualFold(c.QueryParam("desc"), "true")
    return p, nil
}

// parseDate reads a YYYY-MM-DD query parameter as midnight UTC.
func parseDate(c echo.Context, name string) (*time.Time, error) {
    raw := strings.TrimSpace(c.QueryParam(name))
    if raw == "" {
        return nil, nil
    }
    d, err := time.Parse(time.DateOnly, raw)
    if err != nil {
        return nil, errors.New("invalid " + name + ", expected YYYY-MM-DD")
    }
    return &d, nil
}

// bindAndValidate binds the JSON body into dst and runs the echo validator.
// It returns the client-facing message on failure and "" on success.
func bindAndValidate(c echo.Context, dst any) string {
    if err := c.Bind(dst); err != nil {
        return "invalid request body"
    }
    if err := c.Validate(dst); err != nil {
        return err.Error()
    }
    return ""
}

// internalError logs err with request context and hides it from the client.
func internalError(c echo.Context, log logrus.FieldLogger, err error, msg string) error {
    middleware.Logger(c, log).WithError(err).WithFields(logrus.Fields{
        "method": c.Request().Method,
        "path":   c.Path(),
    }).Error(msg)
    return c.JSON(http.StatusInternalServerError, errBody("internal server error"))
}
