package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lonshanworld/retail-analytics/models"
)

// HistoricalDataSource supplies time-bucketed history, already restricted to
// non-cancelled, non-refunded sales. Date ranges are inclusive calendar days.
type HistoricalDataSource interface {
	// DailySales returns sparse per-day revenue and order counts for a store.
	// An unknown store yields ErrNotFound.
	DailySales(ctx context.Context, storeID string, from, to time.Time) ([]models.TimeSeriesPoint, error)
	// OrderObservations returns the revenue each order contributed to a store.
	OrderObservations(ctx context.Context, storeID string, from, to time.Time) ([]models.OrderObservation, error)
	// UnitsSold totals the units of a product sold in the range.
	UnitsSold(ctx context.Context, productID string, from, to time.Time) (int, error)
	// WeeklyUnits returns units of a product sold per week.
	WeeklyUnits(ctx context.Context, productID string, from, to time.Time) ([]models.WeeklyQuantity, error)
}

// InventorySnapshotSource reports the stock position of a product. An
// unknown product yields ErrNotFound.
type InventorySnapshotSource interface {
	Snapshot(ctx context.Context, productID string) (*models.InventorySnapshot, error)
}

// Service is the set of forecasting operations exposed to callers.
type Service interface {
	ForecastSales(ctx context.Context, storeID string, days int) (*models.SalesForecast, error)
	PredictStockout(ctx context.Context, productID string) (*models.StockoutPrediction, error)
	AnalyzeSeasonalTrends(ctx context.Context, storeID string, period models.PeriodType) (*models.SeasonalTrend, error)
	ForecastDemand(ctx context.Context, productID string) (*models.DemandForecast, error)
}

// Engine pulls history from its collaborators and runs the models on it.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	history   HistoricalDataSource
	inventory InventorySnapshotSource
	params    Params
	now       func() time.Time
	logger    *zap.Logger
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithParams overrides the model parameters.
func WithParams(p Params) EngineOption {
	return func(e *Engine) { e.params = p.withDefaults() }
}

// WithClock fixes the notion of "now".
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine.
func NewEngine(history HistoricalDataSource, inventory InventorySnapshotSource, logger *zap.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		history:   history,
		inventory: inventory,
		params:    DefaultParams(),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ Service = (*Engine)(nil)

// ForecastSales forecasts daily revenue and orders for the next days.
func (e *Engine) ForecastSales(ctx context.Context, storeID string, days int) (*models.SalesForecast, error) {
	if err := requireID("store", storeID); err != nil {
		return nil, err
	}
	if days <= 0 || days > e.params.MaxForecastDays {
		return nil, fmt.Errorf("%w: forecast days must be between 1 and %d, got %d", ErrInvalidParameter, e.params.MaxForecastDays, days)
	}

	end := DayKey(e.now())
	start := end.AddDate(0, 0, -HistoryWindow(days))
	points, err := e.history.DailySales(ctx, storeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load daily sales for store %s: %w", storeID, err)
	}

	history := NormalizeDaily(points, start, end)
	forecast, err := ForecastSeries(history, days, end)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("[SALES FORECAST] computed",
		zap.String("store_id", storeID),
		zap.Int("days", days),
		zap.Int("history_points", len(history)),
		zap.String("trend", string(forecast.Trend)),
		zap.Float64("accuracy", forecast.Accuracy),
	)
	return forecast, nil
}

// PredictStockout estimates when a product runs out and when to reorder.
func (e *Engine) PredictStockout(ctx context.Context, productID string) (*models.StockoutPrediction, error) {
	snap, err := e.snapshot(ctx, productID)
	if err != nil {
		return nil, err
	}

	today := DayKey(e.now())
	units, err := e.history.UnitsSold(ctx, productID, windowStart(today, stockoutWindowDays), today)
	if err != nil {
		return nil, fmt.Errorf("load units sold for product %s: %w", productID, err)
	}

	prediction := PredictStockout(*snap, units, today, e.params)
	e.logger.Debug("[STOCKOUT] computed",
		zap.String("product_id", productID),
		zap.Int("units_sold_30d", units),
		zap.String("priority", string(prediction.Priority)),
	)
	return prediction, nil
}

// AnalyzeSeasonalTrends profiles a store's revenue by month, weekday or hour.
func (e *Engine) AnalyzeSeasonalTrends(ctx context.Context, storeID string, period models.PeriodType) (*models.SeasonalTrend, error) {
	if err := requireID("store", storeID); err != nil {
		return nil, err
	}
	period, err := ParsePeriodType(string(period))
	if err != nil {
		return nil, err
	}

	end := e.now()
	start, err := SeasonalLookbackStart(period, end)
	if err != nil {
		return nil, err
	}
	observations, err := e.history.OrderObservations(ctx, storeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load orders for store %s: %w", storeID, err)
	}

	trend, err := AnalyzeSeasonal(observations, period)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("[SEASONAL] computed",
		zap.String("store_id", storeID),
		zap.String("type", string(period)),
		zap.Int("observations", len(observations)),
		zap.Int("periods", len(trend.Trends)),
	)
	return trend, nil
}

// ForecastDemand projects weekly demand for a product.
func (e *Engine) ForecastDemand(ctx context.Context, productID string) (*models.DemandForecast, error) {
	snap, err := e.snapshot(ctx, productID)
	if err != nil {
		return nil, err
	}

	today := DayKey(e.now())
	weeks, err := e.history.WeeklyUnits(ctx, productID, windowStart(today, demandLookbackDays), today)
	if err != nil {
		return nil, fmt.Errorf("load weekly units for product %s: %w", productID, err)
	}

	forecast := ForecastDemandFromWeeks(*snap, weeks, e.params)
	e.logger.Debug("[DEMAND] computed",
		zap.String("product_id", productID),
		zap.Int("weeks", len(weeks)),
		zap.Int("next_week", forecast.NextWeekDemand),
	)
	return forecast, nil
}

func (e *Engine) snapshot(ctx context.Context, productID string) (*models.InventorySnapshot, error) {
	if err := requireID("product", productID); err != nil {
		return nil, err
	}
	snap, err := e.inventory.Snapshot(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load inventory for product %s: %w", productID, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	if snap.ProductID == "" {
		snap.ProductID = productID
	}
	return snap, nil
}

// windowStart is the first day of an inclusive window of days ending on today.
func windowStart(today time.Time, days int) time.Time {
	return today.AddDate(0, 0, -(days - 1))
}

func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s id is required", ErrInvalidParameter, kind)
	}
	return nil
}
