package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/boardcamp-api/internal/config"
	"github.com/iliyamo/boardcamp-api/internal/handler"
	"github.com/iliyamo/boardcamp-api/internal/metrics"
	"github.com/iliyamo/boardcamp-api/internal/middleware"
	"github.com/iliyamo/boardcamp-api/internal/model"
	"github.com/iliyamo/boardcamp-api/internal/repository"
	"github.com/iliyamo/boardcamp-api/internal/service"
)

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type stubEngine struct{}

func (stubEngine) Create(context.Context, service.CreateRentalInput) (*model.Rental, error) {
	return nil, service.ErrCapacityExceeded
}
func (stubEngine) Return(context.Context, uint64) (*model.Rental, error) {
	return nil, service.ErrNotFound
}
func (stubEngine) Delete(context.Context, uint64) error { return nil }
func (stubEngine) List(context.Context, repository.RentalFilter, repository.Page) ([]model.RentalDetail, error) {
	return []model.RentalDetail{}, nil
}
func (stubEngine) Metrics(context.Context, *time.Time, *time.Time) (model.RentalMetrics, error) {
	return model.RentalMetrics{}, nil
}

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	log, _ := test.NewNullLogger()
	cfg := &config.Config{
		CORSOrigins: []string{"*"},
		RateLimit:   config.RateLimitConfig{Enabled: false},
	}
	m := metrics.New()
	e := New(cfg, log, m, nil)
	RegisterRoutes(e, okPinger{}, m)
	RegisterCatalog(e,
		handler.NewCategoryHandler(nil, log),
		handler.NewGameHandler(nil, nil, log),
		middleware.NewRedisCache(config.CacheConfig{}, nil),
		nil,
	)
	RegisterCustomers(e, handler.NewCustomerHandler(nil, log))
	RegisterRentals(e, handler.NewRentalHandler(stubEngine{}, log))
	return e
}

func TestRoutesRegistered(t *testing.T) {
	e := newTestRouter(t)
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz", "GET /readyz", "GET /metrics",
		"GET /categories", "POST /categories",
		"GET /games", "POST /games",
		"GET /customers", "GET /customers/:id", "POST /customers", "PUT /customers/:id",
		"GET /rentals", "GET /rentals/metrics", "POST /rentals",
		"POST /rentals/:id/return", "DELETE /rentals/:id",
	} {
		assert.True(t, got[want], want)
	}
}

func TestRentalRoutesReachHandler(t *testing.T) {
	e := newTestRouter(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rentals/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rentals/5/return", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestRouter(t)
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `boardcamp_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	e := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/rentals", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
