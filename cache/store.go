package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/lonshanworld/retail-analytics/models"
)

// Store is a byte-oriented key/value cache with per-entry TTL and tag based
// invalidation. A key may carry any number of tags; InvalidateTag removes
// every key that was stored with the tag.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error
	InvalidateTag(ctx context.Context, tag string) (int, error)
	Close() error
}

// Cache keys, one per (entity, parameters) combination.

func SalesKey(storeID string, days int) string {
	return fmt.Sprintf("sales:%s:%d", storeID, days)
}

func SeasonalKey(storeID string, periodType models.PeriodType) string {
	return fmt.Sprintf("seasonal:%s:%s", storeID, periodType)
}

func StockoutKey(productID string) string {
	return "stockout:" + productID
}

func DemandKey(productID string) string {
	return "demand:" + productID
}

// StoreTag groups every cached result derived from a store's orders.
func StoreTag(storeID string) string {
	return "store:" + storeID
}

// ProductTag groups every cached result derived from a product.
func ProductTag(productID string) string {
	return "product:" + productID
}
