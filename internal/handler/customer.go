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

// CustomerStore is the persistence used by CustomerHandler.
type CustomerStore interface {
    List(ctx context.Context, cpf string, p repository.Page) ([]model.Customer, error)
    GetByID(ctx context.Context, id uint64) (*model.Customer, error)
    Create(ctx context.Context, c *model.Customer) error
    Update(ctx context.Context, c *model.Customer) error
}

type CustomerHandler struct {
    Store CustomerStore
    Log   logrus.FieldLogger
}

func NewCustomerHandler(store CustomerStore, log logrus.FieldLogger) *CustomerHandler {
    return &CustomerHandler{Store: store, Log: log}
}

type customerBody struct {
    Name     string `json:"name" validate:"required"`
    Phone    string `json:"phone" validate:"required,phone"`
    CPF      string `json:"cpf" validate:"required,cpf"`
    Birthday string `json:"birthday" validate:"notfuture"`
}

// readCustomer binds, trims and validates the body shared by POST and PUT.
func readCustomer(c echo.Context) (*model.Customer, string) {
    var body customerBody
    if err := c.Bind(&body); err != nil {
        return nil, "invalid request body"
    }
    body.Name = strings.TrimSpace(body.Name)
    body.Phone = strings.TrimSpace(body.Phone)
    body.CPF = strings.TrimSpace(body.CPF)
    body.Birthday = strings.TrimSpace(body.Birthday)
    if err := c.Validate(&body); err != nil {
        return nil, err.Error()
    }
    cust := &model.Customer{Name: body.Name, Phone: body.Phone, CPF: body.CPF}
    if body.Birthday != "" {
        b := body.Birthday
        cust.Birthday = &b
    }
    return cust, ""
}

// List handles GET /customers?cpf=<prefix>.
func (h *CustomerHandler) List(c echo.Context) error {
    page, err := parsePage(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    items, err := h.Store.List(c.Request().Context(), strings.TrimSpace(c.QueryParam("cpf")), page)
    if err != nil {
        return internalError(c, h.Log, err, "list customers failed")
    }
    return c.JSON(http.StatusOK, items)
}

// Get handles GET /customers/:id.
func (h *CustomerHandler) Get(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    cust, err := h.Store.GetByID(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, errBody("customer not found"))
        }
        return internalError(c, h.Log, err, "get customer failed")
    }
    return c.JSON(http.StatusOK, cust)
}

// Create handles POST /customers.
func (h *CustomerHandler) Create(c echo.Context) error {
    cust, msg := readCustomer(c)
    if msg != "" {
        return c.JSON(http.StatusBadRequest, errBody(msg))
    }
    if err := h.Store.Create(c.Request().Context(), cust); err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return c.JSON(http.StatusConflict, errBody("cpf already registered"))
        }
        return internalError(c, h.Log, err, "create customer failed")
    }
    return c.JSON(http.StatusCreated, cust)
}

// Update handles PUT /customers/:id.  Every field is replaced.
func (h *CustomerHandler) Update(c echo.Context) error {
    id, err := parseID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, errBody(err.Error()))
    }
    cust, msg := readCustomer(c)
    if msg != "" {
        return c.JSON(http.StatusBadRequest, errBody(msg))
    }
    cust.ID = id
    if err := h.Store.Update(c.Request().Context(), cust); err != nil {
        switch {
        case errors.Is(err, repository.ErrNotFound):
            return c.JSON(http.StatusNotFound, errBody("customer not found"))
        case errors.Is(err, repository.ErrConflict):
            return c.JSON(http.StatusConflict, errBody("cpf already registered"))
        }
        return internalError(c, h.Log, err, "update customer failed")
    }
    return c.JSON(http.StatusOK, cust)
}
