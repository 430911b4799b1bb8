package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/boardcamp-api/internal/model"
    "github.com/iliyamo/boardcamp-api/internal/repository"
)

// CategoryStore is the persistence used by CategoryHandler.
type CategoryStore interface {
    List(ctx context.Context, p repository.Page) ([]model.Category, error)
    Create(ctx context.Context, c *model.Category) error
}

type CategoryHandler struct {
    Store CategoryStore
    Log   logrus.FieldLogger
}

func NewCategoryHandler(store CategoryStore, log logrus.FieldLogger) *CategoryHandler {
    return &CategoryHandler{Store: store, Log: log}
}

// List handles GET /categories.
func (h *CategoryHandler) List(c echo.Context) error {
    page, err := parsePage(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    items, err := h.Store.List(c.Request().Context(), page)
    if err != nil {
        return internalError(c, h.Log, err, "list categories failed")
    }
    return c.JSON(http.StatusOK, items)
}

// Create handles POST /categories.
func (h *CategoryHandler) Create(c echo.Context) error {
    var body struct {
        Name string `json:"name" validate:"required"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
    }
    body.Name = strings.TrimSpace(body.Name)
    if err := c.Validate(&body); err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    cat := &model.Category{Name: body.Name}
    if err := h.Store.Create(c.Request().Context(), cat); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return c.JSON(http.StatusConflict, errBody("category already exists"))
        }
        return internalError(c, h.Log, err, "create category failed")
    }
    return c.JSON(http.StatusCreated, cat)
}
