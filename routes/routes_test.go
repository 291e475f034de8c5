package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonshanworld/retail-analytics/analytics"
	"github.com/lonshanworld/retail-analytics/cache"
	"github.com/lonshanworld/retail-analytics/metrics"
	"github.com/lonshanworld/retail-analytics/middleware"
	"github.com/lonshanworld/retail-analytics/models"
)

// emptyHistory is a data source for a shop and a product with no sales.
type emptyHistory struct{}

func (emptyHistory) DailySales(context.Context, string, time.Time, time.Time) ([]models.TimeSeriesPoint, error) {
	return nil, nil
}

func (emptyHistory) OrderObservations(context.Context, string, time.Time, time.Time) ([]models.OrderObservation, error) {
	return nil, nil
}

func (emptyHistory) UnitsSold(context.Context, string, time.Time, time.Time) (int, error) {
	return 0, nil
}

func (emptyHistory) WeeklyUnits(context.Context, string, time.Time, time.Time) ([]models.WeeklyQuantity, error) {
	return nil, nil
}

func (emptyHistory) Snapshot(_ context.Context, productID string) (*models.InventorySnapshot, error) {
	if productID != "p1" {
		return nil, analytics.ErrNotFound
	}
	return &models.InventorySnapshot{ProductID: "p1", ProductName: "Rice", CurrentStock: 10}, nil
}

func (emptyHistory) ActiveShopIDs(context.Context) ([]string, error) {
	return []string{"shop-1"}, nil
}

// Ownership: user-1 owns shop-1 and p1; user-2 owns shop-2.
var owners = map[string]string{"shop-1": "user-1", "p1": "user-1", "shop-2": "user-2"}

func (emptyHistory) ShopOwnedBy(_ context.Context, shopID, userID string) (bool, error) {
	return owners[shopID] == userID, nil
}

func (emptyHistory) ProductOwnedBy(_ context.Context, productID, userID string) (bool, error) {
	return owners[productID] == userID, nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	middleware.JWTSecret = []byte("routes-secret")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	engine := analytics.NewEngine(emptyHistory{}, emptyHistory{}, nil)
	store, err := cache.NewMemoryStore(100)
	require.NoError(t, err)
	cached := cache.NewCachedService(engine, store, cache.DefaultTTLs(), m, nil)

	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Service:  cached,
		Access:   emptyHistory{},
		Cache:    cached,
		Warmer:   cache.NewWarmer(cached, emptyHistory{}, 1, m, nil),
		DB:       okPinger{},
		Gatherer: reg,
	})
	return app
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.JwtClaims{
		UserID: "user-1",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(middleware.JWTSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func request(t *testing.T, app *fiber.App, method, target, auth, body string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(raw)
}

func TestAnalyticsRoutes_RequireAuth(t *testing.T) {
	app := newTestApp(t)

	resp, _ := request(t, app, "GET", "/api/v1/merchant/analytics/forecast/sales?shopId=shop-1", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = request(t, app, "GET", "/api/v1/merchant/analytics/forecast/sales?shopId=shop-1", bearer(t, "staff"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAnalyticsRoutes_Merchant(t *testing.T) {
	app := newTestApp(t)
	auth := bearer(t, "merchant")

	resp, body := request(t, app, "GET", "/api/v1/merchant/analytics/forecast/sales?shopId=shop-1&days=3", auth, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"forecastDays":3`)
	assert.Contains(t, body, `"method":"linear_regression"`)

	resp, body = request(t, app, "GET", "/api/v1/merchant/analytics/forecast/stockout/p1", auth, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"priority":"low"`)

	resp, _ = request(t, app, "GET", "/api/v1/merchant/analytics/forecast/demand/unknown", auth, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = request(t, app, "GET", "/api/v1/merchant/analytics/forecast/sales?shopId=shop-1&days=0", auth, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = request(t, app, "GET", "/api/v1/merchant/analytics/trends/seasonal?shopId=shop-1&type=daily", auth, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Contains(t, body, `"period":"hour"`)

	resp, _ = request(t, app, "POST", "/api/v1/merchant/analytics/cache/warm-up?shopId=shop-1", auth, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAnalyticsRoutes_EventsAcceptStaff(t *testing.T) {
	app := newTestApp(t)

	resp, body := request(t, app, "POST", "/api/v1/merchant/analytics/events/order-created", bearer(t, "staff"),
		`{"shopId":"shop-1","productIds":["p1"]}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, _ = request(t, app, "POST", "/api/v1/merchant/analytics/events/product-updated", bearer(t, "admin"),
		`{"productId":"p1"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAnalyticsRoutes_ForeignShop(t *testing.T) {
	app := newTestApp(t)
	auth := bearer(t, "merchant")

	for _, r := range []struct{ method, target, body string }{
		{"GET", "/api/v1/merchant/analytics/forecast/sales?shopId=shop-2", ""},
		{"GET", "/api/v1/merchant/analytics/trends/seasonal?shopId=shop-2", ""},
		{"POST", "/api/v1/merchant/analytics/cache/warm-up?shopId=shop-2", ""},
		{"POST", "/api/v1/merchant/analytics/cache/invalidate?shopId=shop-2", ""},
		{"POST", "/api/v1/merchant/analytics/events/order-created", `{"shopId":"shop-2"}`},
	} {
		resp, body := request(t, app, r.method, r.target, auth, r.body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, r.target)
		assert.Contains(t, body, "does not belong to merchant", r.target)
	}
}

func TestOperationalRoutes(t *testing.T) {
	app := newTestApp(t)

	resp, _ := request(t, app, "GET", "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Generate at least one observation before scraping.
	_, _ = request(t, app, "GET", "/api/v1/merchant/analytics/forecast/stockout/p1", bearer(t, "merchant"), "")

	resp, body := request(t, app, "GET", "/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "retail_analytics_computations_total")
}
