package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/lonshanworld/retail-analytics/analytics"
	"github.com/lonshanworld/retail-analytics/metrics"
	"github.com/lonshanworld/retail-analytics/models"
)

// Operation names used for cache metrics and logs.
const (
	OpSales    = "sales"
	OpStockout = "stockout"
	OpSeasonal = "seasonal"
	OpDemand   = "demand"
)

// computeTimeout bounds a shared computation once it is detached from its
// callers.
const computeTimeout = 30 * time.Second

// TTLs controls how long each kind of result stays cached.
type TTLs struct {
	Sales    time.Duration
	Seasonal time.Duration
	Stockout time.Duration
	Demand   time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		Sales:    time.Hour,
		Seasonal: time.Hour,
		Stockout: 30 * time.Minute,
		Demand:   30 * time.Minute,
	}
}

// CachedService memoizes an analytics.Service in a Store. Results are cached
// as JSON; errors are never cached. Concurrent misses on the same key share
// one computation. With a nil Store every call is computed.
//
// Returned results may be shared between callers and must not be modified.
type CachedService struct {
	next    analytics.Service
	store   Store
	ttls    TTLs
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *zap.Logger
}

var _ analytics.Service = (*CachedService)(nil)

func NewCachedService(next analytics.Service, store Store, ttls TTLs, m *metrics.Metrics, logger *zap.Logger) *CachedService {
	if m == nil {
		m = metrics.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedService{
		next:    next,
		store:   store,
		ttls:    ttls,
		metrics: m,
		logger:  logger,
	}
}

func (s *CachedService) ForecastSales(ctx context.Context, storeID string, days int) (*models.SalesForecast, error) {
	return fetch(ctx, s, OpSales, SalesKey(storeID, days), s.ttls.Sales, []string{StoreTag(storeID)},
		func(ctx context.Context) (*models.SalesForecast, error) {
			return s.next.ForecastSales(ctx, storeID, days)
		})
}

func (s *CachedService) PredictStockout(ctx context.Context, productID string) (*models.StockoutPrediction, error) {
	return fetch(ctx, s, OpStockout, StockoutKey(productID), s.ttls.Stockout, []string{ProductTag(productID)},
		func(ctx context.Context) (*models.StockoutPrediction, error) {
			return s.next.PredictStockout(ctx, productID)
		})
}

func (s *CachedService) AnalyzeSeasonalTrends(ctx context.Context, storeID string, period models.PeriodType) (*models.SeasonalTrend, error) {
	return fetch(ctx, s, OpSeasonal, SeasonalKey(storeID, period), s.ttls.Seasonal, []string{StoreTag(storeID)},
		func(ctx context.Context) (*models.SeasonalTrend, error) {
			return s.next.AnalyzeSeasonalTrends(ctx, storeID, period)
		})
}

func (s *CachedService) ForecastDemand(ctx context.Context, productID string) (*models.DemandForecast, error) {
	return fetch(ctx, s, OpDemand, DemandKey(productID), s.ttls.Demand, []string{ProductTag(productID)},
		func(ctx context.Context) (*models.DemandForecast, error) {
			return s.next.ForecastDemand(ctx, productID)
		})
}

// OnNewOrder drops every cached result that depends on the store's sales or
// on the stock of the ordered products.
func (s *CachedService) OnNewOrder(ctx context.Context, storeID string, productIDs ...string) error {
	tags := make([]string, 0, len(productIDs)+1)
	if storeID != "" {
		tags = append(tags, StoreTag(storeID))
	}
	for _, id := range productIDs {
		if id != "" {
			tags = append(tags, ProductTag(id))
		}
	}
	return s.invalidate(ctx, "order_created", tags)
}

// OnProductUpdated drops every cached result for the product.
func (s *CachedService) OnProductUpdated(ctx context.Context, productID string) error {
	if productID == "" {
		return nil
	}
	return s.invalidate(ctx, "product_updated", []string{ProductTag(productID)})
}

// InvalidateStore drops every cached result of the store on request.
func (s *CachedService) InvalidateStore(ctx context.Context, storeID string) (int, error) {
	s.metrics.Invalidations.WithLabelValues("manual").Inc()
	if s.store == nil {
		return 0, nil
	}
	n, err := s.store.InvalidateTag(ctx, StoreTag(storeID))
	if err != nil {
		s.metrics.CacheErrors.WithLabelValues("invalidate").Inc()
		return 0, err
	}
	return n, nil
}

// Stats reports store statistics when the store keeps them.
func (s *CachedService) Stats() (Stats, bool) {
	if st, ok := s.store.(interface{ Stats() Stats }); ok {
		return st.Stats(), true
	}
	return Stats{}, false
}

func (s *CachedService) invalidate(ctx context.Context, event string, tags []string) error {
	s.metrics.Invalidations.WithLabelValues(event).Inc()
	if s.store == nil {
		return nil
	}

	var errs []error
	removed := 0
	for _, tag := range tags {
		n, err := s.store.InvalidateTag(ctx, tag)
		if err != nil {
			s.metrics.CacheErrors.WithLabelValues("invalidate").Inc()
			errs = append(errs, err)
			continue
		}
		removed += n
	}
	s.logger.Debug("[CACHE] invalidated",
		zap.String("event", event),
		zap.Strings("tags", tags),
		zap.Int("removed", removed),
	)
	return errors.Join(errs...)
}

func fetch[T any](ctx context.Context, s *CachedService, op, key string, ttl time.Duration, tags []string,
	compute func(context.Context) (*T, error)) (*T, error) {
	if s.store != nil {
		raw, ok, err := s.store.Get(ctx, key)
		switch {
		case err != nil:
			s.metrics.CacheErrors.WithLabelValues("get").Inc()
			s.logger.Warn("[CACHE] get failed", zap.String("key", key), zap.Error(err))
		case ok:
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				s.metrics.CacheHits.WithLabelValues(op).Inc()
				return &cached, nil
			}
			s.metrics.CacheErrors.WithLabelValues("decode").Inc()
			s.logger.Warn("[CACHE] dropping undecodable entry", zap.String("key", key))
		}
		s.metrics.CacheMisses.WithLabelValues(op).Inc()
	}

	ch := s.group.DoChan(key, func() (any, error) {
		// The computation outlives any single waiter.
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()

		start := time.Now()
		result, err := compute(shared)
		s.metrics.ObserveComputation(op, outcomeOf(err), start)
		if err != nil {
			return nil, err
		}
		if s.store != nil {
			s.put(shared, key, result, ttl, tags)
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*T), nil
	}
}

// put writes a computed result. Failures are logged; the result is still
// returned to the caller.
func (s *CachedService) put(ctx context.Context, key string, result any, ttl time.Duration, tags []string) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.metrics.CacheErrors.WithLabelValues("encode").Inc()
		s.logger.Warn("[CACHE] encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.store.Set(ctx, key, raw, ttl, tags...); err != nil {
		s.metrics.CacheErrors.WithLabelValues("set").Inc()
		s.logger.Warn("[CACHE] set failed", zap.String("key", key), zap.Error(err))
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, analytics.ErrNotFound):
		return "not_found"
	case errors.Is(err, analytics.ErrInvalidParameter):
		return "invalid"
	default:
		return "error"
	}
}
