package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lonshanworld/retail-analytics/ai"
	"github.com/lonshanworld/retail-analytics/analytics"
	"github.com/lonshanworld/retail-analytics/handlers"
	"github.com/lonshanworld/retail-analytics/middleware"
	"github.com/lonshanworld/retail-analytics/utils"
)

// Dependencies are the collaborators the routes are wired to. Narrator may
// be nil.
type Dependencies struct {
	Service  analytics.Service
	Access   handlers.Access
	Cache    handlers.CacheController
	Warmer   handlers.ShopWarmer
	Narrator ai.Narrator
	DB       handlers.Pinger
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	app.Get("/healthz", handlers.HandleHealthz(deps.DB))
	app.Get("/version", handlers.HandleVersion)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	// --- Merchant Analytics Routes ---
	analyticsGroup := api.Group("/merchant/analytics", middleware.JWTMiddleware)

	forecast := analyticsGroup.Group("/forecast", middleware.MerchantRequired)
	forecast.Get("/sales", handlers.HandleGetSalesForecast(deps.Service, deps.Access, deps.Narrator, logger))
	forecast.Get("/stockout/:productId", handlers.HandleGetStockoutPrediction(deps.Service, deps.Access, logger))
	forecast.Get("/demand/:productId", handlers.HandleGetDemandForecast(deps.Service, deps.Access, logger))

	trends := analyticsGroup.Group("/trends", middleware.MerchantRequired)
	trends.Get("/seasonal", handlers.HandleGetSeasonalTrends(deps.Service, deps.Access, logger))

	// Order and inventory events are also posted by shop staff from the POS.
	events := analyticsGroup.Group("/events", middleware.CheckRole(utils.RoleMerchant, utils.RoleStaff))
	events.Post("/order-created", handlers.HandleOrderCreated(deps.Cache, deps.Access, logger))
	events.Post("/product-updated", handlers.HandleProductUpdated(deps.Cache, deps.Access, logger))

	cacheGroup := analyticsGroup.Group("/cache", middleware.MerchantRequired)
	cacheGroup.Post("/warm-up", handlers.HandleWarmUpCache(deps.Warmer, deps.Access, logger))
	cacheGroup.Post("/invalidate", handlers.HandleInvalidateCache(deps.Cache, deps.Access, logger))
	cacheGroup.Get("/stats", handlers.HandleGetCacheStats(deps.Cache))
}
