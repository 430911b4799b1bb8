package handler // handler contains the rental lifecycle endpoints

import (
    "context"  // context is passed through to the engine
    "errors"   // errors matches engine sentinels
    "net/http" // http provides status code constants
    "strings"  // strings normalizes the status filter
    "time"     // time carries metrics windows

    "github.com/labstack/echo/v4" // echo is the web framework used for handlers
    "github.com/sirupsen/logrus"  // logrus records infrastructure failures

    "github.com/iliyamo/boardcamp-api/internal/model"      // model holds rental shapes
    "github.com/iliyamo/boardcamp-api/internal/repository" // repository defines filters and paging
    "github.com/iliyamo/boardcamp-api/internal/service"    // service implements the rental engine
)

// RentalEngine is the subset of service.RentalService used over HTTP.
type RentalEngine interface {
    Create(ctx context.Context, in service.CreateRentalInput) (*model.Rental, error)
    Return(ctx context.Context, id uint64) (*model.Rental, error)
    Delete(ctx context.Context, id uint64) error
    List(ctx context.Context, f repository.RentalFilter, p repository.Page) ([]model.RentalDetail, error)
    Metrics(ctx context.Context, from, to *time.Time) (model.RentalMetrics, error)
}

// RentalHandler exposes the rental engine.
type RentalHandler struct {
    Engine RentalEngine
    Log    logrus.FieldLogger
}

// NewRentalHandler constructs a RentalHandler and panics if the engine is nil
func NewRentalHandler(engine RentalEngine, log logrus.FieldLogger) *RentalHandler {
    if engine == nil { // a handler without an engine cannot serve anything
        panic("nil engine passed to NewRentalHandler")
    }
    return &RentalHandler{Engine: engine, Log: log}
}

type createRentalBody struct {
    CustomerID uint64 `json:"customerId" validate:"required"`
    GameID     uint64 `json:"gameId" validate:"required"`
    DaysRented int    `json:"daysRented"` // range checked by the engine after the references
}

// engineError maps engine sentinels to HTTP responses.
func (h *RentalHandler) engineError(c echo.Context, err error, what string) error {
    switch {
    case errors.Is(err, service.ErrNotFound):
        return c.JSON(http.StatusNotFound, errBody(err.Error()))
    case errors.Is(err, service.ErrInvalidInput),
        errors.Is(err, service.ErrInvalidReference),
        errors.Is(err, service.ErrCapacityExceeded),
        errors.Is(err, service.ErrInvalidState):
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    return internalError(c, h.Log, err, what)
}

// Create handles POST /rentals
func (h *RentalHandler) Create(c echo.Context) error {
    var body createRentalBody
    if msg := bindAndValidate(c, &body); msg != "" { // reject malformed or incomplete bodies
        return c.JSON(http.StatusBadRequest, errBody(msg))
    }
    r, err := h.Engine.Create(c.Request().Context(), service.CreateRentalInput{
        CustomerID: body.CustomerID,
        GameID:     body.GameID,
        DaysRented: body.DaysRented,
    })
    if err != nil {
        return h.engineError(c, err, "create rental failed")
    }
    return c.JSON(http.StatusCreated, r) // 201 with the persisted rental
}

// Return handles POST /rentals/:id/return
func (h *RentalHandler) Return(c echo.Context) error {
    id, err := parseID(c, "id") // parse the rental ID from the URL
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    r, err := h.Engine.Return(c.Request().Context(), id)
    if err != nil {
        return h.engineError(c, err, "return rental failed")
    }
    return c.JSON(http.StatusOK, r)
}

// Delete handles DELETE /rentals/:id
func (h *RentalHandler) Delete(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    if err := h.Engine.Delete(c.Request().Context(), id); err != nil {
        return h.engineError(c, err, "delete rental failed")
    }
    return c.NoContent(http.StatusOK)
}

// List handles GET /rentals with optional customerId, gameId, status,
// startDate, offset, limit, order and desc.
func (h *RentalHandler) List(c echo.Context) error {
    var f repository.RentalFilter
    var err error
    if f.CustomerID, err = parseOptionalID(c, "customerId"); err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    if f.GameID, err = parseOptionalID(c, "gameId"); err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    switch s := strings.ToLower(strings.TrimSpace(c.QueryParam("status"))); s {
    case "", "open", "closed":
        f.Status = s
    default:
        return c.JSON(http.StatusBadRequest, errBody("status must be open or closed"))
    }
    if f.StartDate, err = parseDate(c, "startDate"); err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    page, err := parsePage(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }

    items, err := h.Engine.List(c.Request().Context(), f, page)
    if err != nil {
        return internalError(c, h.Log, err, "list rentals failed")
    }
    return c.JSON(http.StatusOK, items)
}

// Metrics handles GET /rentals/metrics?startDate&endDate.  endDate is
// inclusive: the window runs to midnight after it.
func (h *RentalHandler) Metrics(c echo.Context) error {
    from, err := parseDate(c, "startDate")
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    end, err := parseDate(c, "endDate")
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    var to *time.Time
    if end != nil {
        t := end.AddDate(0, 0, 1)
        to = &t
    }
    m, err := h.Engine.Metrics(c.Request().Context(), from, to)
    if err != nil {
        if errors.Is(err, service.ErrInvalidInput) {
            return c.JSON(http.StatusBadRequest, errBody("endDate must not be before startDate"))
        }
        return internalError(c, h.Log, err, "rental metrics failed")
    }
    return c.JSON(http.StatusOK, m)
}
