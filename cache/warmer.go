package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lonshanworld/retail-analytics/analytics"
	"github.com/lonshanworld/retail-analytics/metrics"
	"github.com/lonshanworld/retail-analytics/models"
)

// DefaultWarmSchedule runs at the top of every hour.
const DefaultWarmSchedule = "0 0 */1 * * *"

// Default parameters warmed for every shop, matching what the dashboard asks for.
const (
	warmForecastDays = 7
	warmPeriodType   = models.PeriodMonthly
)

// ShopLister lists the shops whose results are worth warming.
type ShopLister interface {
	ActiveShopIDs(ctx context.Context) ([]string, error)
}

// WarmStats summarizes one warm-up run.
type WarmStats struct {
	Shops    int
	Warmed   int
	Errors   int
	Duration time.Duration
}

// Warmer periodically pre-computes the default forecasts of every active
// shop through svc, which is normally a CachedService.
type Warmer struct {
	svc         analytics.Service
	shops       ShopLister
	cron        *cron.Cron
	concurrency int
	timeout     time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

func NewWarmer(svc analytics.Service, shops ShopLister, concurrency int, m *metrics.Metrics, logger *zap.Logger) *Warmer {
	if concurrency <= 0 {
		concurrency = 1
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Warmer{
		svc:         svc,
		shops:       shops,
		cron:        cron.New(cron.WithSeconds()),
		concurrency: concurrency,
		timeout:     15 * time.Minute,
		metrics:     m,
		logger:      logger,
	}
}

// Start schedules warm-up runs. The schedule uses the six-field cron format
// with seconds.
func (w *Warmer) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultWarmSchedule
	}

	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return fmt.Errorf("invalid warm schedule %q: %w", schedule, err)
	}

	w.cron.Start()
	w.logger.Info("[CACHE WARMER] started", zap.String("schedule", schedule))
	return nil
}

// Stop stops scheduling and waits for a running warm-up to finish.
func (w *Warmer) Stop() {
	<-w.cron.Stop().Done()
	w.logger.Info("[CACHE WARMER] stopped")
}

func (w *Warmer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	stats, err := w.RunOnce(ctx)
	if err != nil {
		w.metrics.WarmRuns.WithLabelValues("failed").Inc()
		w.logger.Error("[CACHE WARMER] run failed", zap.Error(err))
		return
	}

	outcome := "ok"
	if stats.Errors > 0 {
		outcome = "partial"
	}
	w.metrics.WarmRuns.WithLabelValues(outcome).Inc()
	w.logger.Info("[CACHE WARMER] run completed",
		zap.Int("shops", stats.Shops),
		zap.Int("warmed", stats.Warmed),
		zap.Int("errors", stats.Errors),
		zap.Duration("duration", stats.Duration),
	)
}

// WarmShop pre-computes the default results of one shop.
func (w *Warmer) WarmShop(ctx context.Context, shopID string) error {
	_, errs := w.warmShop(ctx, shopID)
	return errors.Join(errs...)
}

func (w *Warmer) warmShop(ctx context.Context, shopID string) (int, []error) {
	var errs []error
	warmed := 0
	if _, err := w.svc.ForecastSales(ctx, shopID, warmForecastDays); err != nil {
		w.logger.Warn("[CACHE WARMER] sales forecast failed", zap.String("shopId", shopID), zap.Error(err))
		errs = append(errs, err)
	} else {
		warmed++
	}
	if _, err := w.svc.AnalyzeSeasonalTrends(ctx, shopID, warmPeriodType); err != nil {
		w.logger.Warn("[CACHE WARMER] seasonal trend failed", zap.String("shopId", shopID), zap.Error(err))
		errs = append(errs, err)
	} else {
		warmed++
	}
	return warmed, errs
}

// RunOnce warms every active shop once. A failing shop is counted and
// logged; only failing to list shops is returned as an error.
func (w *Warmer) RunOnce(ctx context.Context) (WarmStats, error) {
	start := time.Now()

	shopIDs, err := w.shops.ActiveShopIDs(ctx)
	if err != nil {
		return WarmStats{}, fmt.Errorf("failed to list shops: %w", err)
	}

	var warmed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	for _, shopID := range shopIDs {
		g.Go(func() error {
			ok, errs := w.warmShop(gctx, shopID)
			warmed.Add(int64(ok))
			failed.Add(int64(len(errs)))
			return nil
		})
	}
	_ = g.Wait()

	return WarmStats{
		Shops:    len(shopIDs),
		Warmed:   int(warmed.Load()),
		Errors:   int(failed.Load()),
		Duration: time.Since(start),
	}, nil
}
