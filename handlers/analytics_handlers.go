package handlers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lonshanworld/retail-analytics/ai"
	"github.com/lonshanworld/retail-analytics/analytics"
	"github.com/lonshanworld/retail-analytics/cache"
	"github.com/lonshanworld/retail-analytics/middleware"
	"github.com/lonshanworld/retail-analytics/models"
)

const (
	defaultForecastDays = 7
	narrativeTimeout    = 15 * time.Second
)

// CacheController is the cache surface the event and cache routes drive.
type CacheController interface {
	OnNewOrder(ctx context.Context, storeID string, productIDs ...string) error
	OnProductUpdated(ctx context.Context, productID string) error
	InvalidateStore(ctx context.Context, storeID string) (int, error)
	Stats() (cache.Stats, bool)
}

// Access decides whether the authenticated user may act on a shop or product.
type Access interface {
	ShopOwnedBy(ctx context.Context, shopID, userID string) (bool, error)
	ProductOwnedBy(ctx context.Context, productID, userID string) (bool, error)
}

// ShopWarmer pre-computes the default results of a shop.
type ShopWarmer interface {
	WarmShop(ctx context.Context, shopID string) error
}

// SalesForecastResponse is the sales forecast plus descriptive metadata.
type SalesForecastResponse struct {
	*models.SalesForecast
	Metadata  models.ForecastMetadata     `json:"metadata"`
	Outlook   []models.ForecastDayOutlook `json:"outlook"`
	Narrative *models.ForecastNarrative   `json:"narrative,omitempty"`
}

// SeasonalTrendResponse is the seasonal profile plus its summary.
type SeasonalTrendResponse struct {
	*models.SeasonalTrend
	models.SeasonalSummary
}

// HandleGetSalesForecast forecasts a shop's daily revenue. The horizon comes
// from forecastDays or days and defaults to 7. A Gemini narrative is added
// only when narrative=true.
func HandleGetSalesForecast(svc analytics.Service, access Access, narrator ai.Narrator, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID := c.Query("shopId")
		if shopID == "" {
			return badRequest(c, "shopId is required")
		}
		if ok, err := allowShop(c, access, logger, shopID); !ok {
			return err
		}

		days := defaultForecastDays
		if raw := c.Query("forecastDays", c.Query("days")); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return badRequest(c, "days must be an integer")
			}
			days = v
		}

		logger.Info("[SALES FORECAST] request",
			zap.String("merchantId", merchantID(c)),
			zap.String("shopId", shopID),
			zap.Int("days", days),
		)

		forecast, err := svc.ForecastSales(c.UserContext(), shopID, days)
		if err != nil {
			return respondError(c, logger, "[SALES FORECAST]", "Failed to fetch sales forecast", err)
		}

		resp := SalesForecastResponse{
			SalesForecast: forecast,
			Metadata:      analytics.DescribeForecast(forecast),
			Outlook:       analytics.DescribeForecastDays(forecast),
		}
		if narrator != nil && c.QueryBool("narrative", false) {
			ctx, cancel := context.WithTimeout(c.UserContext(), narrativeTimeout)
			narrative, err := narrator.Narrate(ctx, shopID, forecast, resp.Metadata)
			cancel()
			if err != nil {
				logger.Warn("[SALES FORECAST] narrative unavailable", zap.String("shopId", shopID), zap.Error(err))
			} else {
				resp.Narrative = narrative
			}
		}

		return c.JSON(fiber.Map{"success": true, "data": resp})
	}
}

// HandleGetStockoutPrediction predicts when a product runs out of stock.
func HandleGetStockoutPrediction(svc analytics.Service, access Access, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID := c.Params("productId")
		if ok, err := allowProduct(c, access, logger, productID); !ok {
			return err
		}
		prediction, err := svc.PredictStockout(c.UserContext(), productID)
		if err != nil {
			return respondError(c, logger, "[STOCKOUT]", "Failed to fetch stockout prediction", err)
		}
		return c.JSON(fiber.Map{"success": true, "data": prediction})
	}
}

// HandleGetDemandForecast projects weekly demand for a product.
func HandleGetDemandForecast(svc analytics.Service, access Access, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID := c.Params("productId")
		if ok, err := allowProduct(c, access, logger, productID); !ok {
			return err
		}
		forecast, err := svc.ForecastDemand(c.UserContext(), productID)
		if err != nil {
			return respondError(c, logger, "[DEMAND]", "Failed to fetch demand forecast", err)
		}
		return c.JSON(fiber.Map{"success": true, "data": forecast})
	}
}

// HandleGetSeasonalTrends profiles a shop's revenue by month, weekday or hour
// and summarises the profile.
func HandleGetSeasonalTrends(svc analytics.Service, access Access, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID := c.Query("shopId")
		if shopID == "" {
			return badRequest(c, "shopId is required")
		}
		if ok, err := allowShop(c, access, logger, shopID); !ok {
			return err
		}
		period, err := analytics.ParsePeriodType(c.Query("type", string(models.PeriodMonthly)))
		if err != nil {
			return badRequest(c, "type must be one of monthly, weekly, daily")
		}

		trend, err := svc.AnalyzeSeasonalTrends(c.UserContext(), shopID, period)
		if err != nil {
			return respondError(c, logger, "[SEASONAL]", "Failed to fetch seasonal trends", err)
		}
		return c.JSON(fiber.Map{"success": true, "data": SeasonalTrendResponse{
			SeasonalTrend:   trend,
			SeasonalSummary: analytics.DescribeSeasonal(trend),
		}})
	}
}

type orderCreatedEvent struct {
	ShopID     string   `json:"shopId"`
	OrderID    string   `json:"orderId"`
	ProductIDs []string `json:"productIds"`
}

type productUpdatedEvent struct {
	ProductID string `json:"productId"`
}

// HandleOrderCreated drops cached results affected by a new order.
func HandleOrderCreated(cc CacheController, access Access, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var event orderCreatedEvent
		if err := c.BodyParser(&event); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if event.ShopID == "" {
			return badRequest(c, "shopId is required")
		}
		if ok, err := allowShop(c, access, logger, event.ShopID); !ok {
			return err
		}

		if err := cc.OnNewOrder(c.UserContext(), event.ShopID, event.ProductIDs...); err != nil {
			logger.Error("[CACHE] order invalidation failed", zap.String("shopId", event.ShopID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to invalidate cache"})
		}
		logger.Info("[CACHE] order created",
			zap.String("shopId", event.ShopID),
			zap.String("orderId", event.OrderID),
			zap.Int("products", len(event.ProductIDs)),
		)
		return c.JSON(fiber.Map{"success": true, "message": "Cache invalidated"})
	}
}

// HandleProductUpdated drops cached results for an updated product.
func HandleProductUpdated(cc CacheController, access Access, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var event productUpdatedEvent
		if err := c.BodyParser(&event); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if event.ProductID == "" {
			return badRequest(c, "productId is required")
		}
		if ok, err := allowProduct(c, access, logger, event.ProductID); !ok {
			return err
		}

		if err := cc.OnProductUpdated(c.UserContext(), event.ProductID); err != nil {
			logger.Error("[CACHE] product invalidation failed", zap.String("productId", event.ProductID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to invalidate cache"})
		}
		return c.JSON(fiber.Map{"success": true, "message": "Cache invalidated"})
	}
}

// HandleWarmUpCache pre-computes the default results of a shop.
func HandleWarmUpCache(w ShopWarmer, access Access, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID := c.Query("shopId")
		if shopID == "" {
			return badRequest(c, "shopId is required")
		}
		if ok, err := allowShop(c, access, logger, shopID); !ok {
			return err
		}
		if err := w.WarmShop(c.UserContext(), shopID); err != nil {
			return respondError(c, logger, "[CACHE WARMER]", "Failed to warm up cache", err)
		}
		return c.JSON(fiber.Map{"success": true, "message": "Cache warmed up successfully"})
	}
}

// HandleInvalidateCache drops every cached result of a shop.
func HandleInvalidateCache(cc CacheController, access Access, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shopID := c.Query("shopId")
		if shopID == "" {
			return badRequest(c, "shopId is required")
		}
		if ok, err := allowShop(c, access, logger, shopID); !ok {
			return err
		}
		n, err := cc.InvalidateStore(c.UserContext(), shopID)
		if err != nil {
			logger.Error("[CACHE] invalidation failed", zap.String("shopId", shopID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to invalidate cache"})
		}
		return c.JSON(fiber.Map{"success": true, "message": "Invalidated " + strconv.Itoa(n) + " cache entries"})
	}
}

// HandleGetCacheStats reports in-process cache statistics.
func HandleGetCacheStats(cc CacheController) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, ok := cc.Stats()
		if !ok {
			return c.JSON(fiber.Map{"success": true, "data": nil, "message": "Statistics are not kept by this cache backend"})
		}
		return c.JSON(fiber.Map{"success": true, "data": stats})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": message})
}

// respondError maps analytics errors to HTTP statuses. Unexpected errors are
// logged and hidden behind fallback.
func respondError(c *fiber.Ctx, logger *zap.Logger, tag, fallback string, err error) error {
	switch {
	case errors.Is(err, analytics.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": err.Error()})
	case errors.Is(err, analytics.ErrInvalidParameter):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	default:
		logger.Error(tag+" failed", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": fallback})
	}
}

// allowShop answers 404 for shops outside the caller's merchant, so foreign
// ids are indistinguishable from unknown ones. It reports false once a
// response has been written.
func allowShop(c *fiber.Ctx, access Access, logger *zap.Logger, shopID string) (bool, error) {
	owned, err := access.ShopOwnedBy(c.UserContext(), shopID, merchantID(c))
	return allowed(c, logger, "Shop", shopID, owned, err)
}

func allowProduct(c *fiber.Ctx, access Access, logger *zap.Logger, productID string) (bool, error) {
	owned, err := access.ProductOwnedBy(c.UserContext(), productID, merchantID(c))
	return allowed(c, logger, "Product", productID, owned, err)
}

func allowed(c *fiber.Ctx, logger *zap.Logger, kind, id string, owned bool, err error) (bool, error) {
	if err != nil {
		logger.Error("[ACCESS] ownership check failed", zap.String("kind", kind), zap.String("id", id), zap.Error(err))
		return false, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Failed to verify access"})
	}
	if !owned {
		logger.Warn("[ACCESS] denied", zap.String("kind", kind), zap.String("id", id), zap.String("userId", merchantID(c)))
		return false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": kind + " not found or does not belong to merchant"})
	}
	return true, nil
}

func merchantID(c *fiber.Ctx) string {
	claims, err := middleware.ExtractClaims(c)
	if err != nil {
		return ""
	}
	return claims.UserID
}
