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

// GameStore is the persistence used by GameHandler.
type GameStore interface {
    List(ctx context.Context, name string, p repository.Page) ([]model.GameListing, error)
    Create(ctx context.Context, g *model.Game) error
}

// CategoryChecker reports whether a category id exists.
type CategoryChecker interface {
    Exists(ctx context.Context, id uint64) (bool, error)
}

type GameHandler struct {
    Store      GameStore
    Categories CategoryChecker
    Log        logrus.FieldLogger
}

func NewGameHandler(store GameStore, categories CategoryChecker, log logrus.FieldLogger) *GameHandler {
    return &GameHandler{Store: store, Categories: categories, Log: log}
}

type gameBody struct {
    Name        string `json:"name" validate:"required"`
    Image       string `json:"image" validate:"omitempty,url"`
    StockTotal  int    `json:"stockTotal" validate:"gte=1"`
    CategoryID  uint64 `json:"categoryId" validate:"required"`
    PricePerDay int64  `json:"pricePerDay" validate:"gte=1"`
}

// List handles GET /games?name=<prefix>.
func (h *GameHandler) List(c echo.Context) error {
    page, err := parsePage(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    items, err := h.Store.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("name")), page)
    if err != nil {
        return internalError(c, h.Log, err, "list games failed")
    }
    return c.JSON(http.StatusOK, items)
}

// Create handles POST /games.  An unknown categoryId is a client error.
func (h *GameHandler) Create(c echo.Context) error {
    var body gameBody
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, errBody("invalid request body"))
    }
    body.Name = strings.TrimSpace(body.Name)
    body.Image = strings.TrimSpace(body.Image)
    if err := c.Validate(&body); err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }

    ctx := c.Request().Context()
    ok, err := h.Categories.Exists(ctx, body.CategoryID)
    if err != nil {
        return internalError(c, h.Log, err, "check category failed")
    }
    if !ok {
        return c.JSON(http.StatusBadRequest, errBody("category does not exist"))
    }

    g := &model.Game{
        Name:        body.Name,
        Image:       body.Image,
        StockTotal:  body.StockTotal,
        CategoryID:  body.CategoryID,
        PricePerDay: body.PricePerDay,
    }
    if err := h.Store.Create(ctx, g); err != nil {
        switch {
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, errBody("game already exists"))
        case errors.Is(err, repository.ErrInvalidReference): // category removed concurrently
            return c.JSON(http.StatusBadRequest, errBody("category does not exist"))
        }
        return internalError(c, h.Log, err, "create game failed")
    }
    return c.JSON(http.StatusCreated, g)
}
