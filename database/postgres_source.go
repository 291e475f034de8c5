package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lonshanworld/retail-analytics/analytics"
	"github.com/lonshanworld/retail-analytics/models"
)

// Querier is the subset of *pgxpool.Pool used to read history.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Execer runs statements that return no rows.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Sales in these payment states never count towards history.
const countedSale = `s.payment_status NOT IN ('cancelled', 'refunded')`

// PostgresSource reads sales history and stock positions from the retail
// schema. A store is a shop and a product is an inventory item.
type PostgresSource struct {
	db Querier
}

var (
	_ analytics.HistoricalDataSource    = (*PostgresSource)(nil)
	_ analytics.InventorySnapshotSource = (*PostgresSource)(nil)
)

func NewPostgresSource(db Querier) *PostgresSource {
	return &PostgresSource{db: db}
}

// dayRange turns inclusive calendar days into a half-open timestamp range.
func dayRange(from, to time.Time) (time.Time, time.Time) {
	return analytics.DayKey(from), analytics.DayKey(to).AddDate(0, 0, 1)
}

// DailySales returns per-day revenue and order counts for days that had sales.
func (p *PostgresSource) DailySales(ctx context.Context, storeID string, from, to time.Time) ([]models.TimeSeriesPoint, error) {
	if err := p.requireShop(ctx, storeID); err != nil {
		return nil, err
	}

	start, end := dayRange(from, to)
	rows, err := p.db.Query(ctx, `
		SELECT date_trunc('day', s.sale_date AT TIME ZONE 'UTC') AS day,
		       COALESCE(SUM(s.total_amount), 0)::float8 AS revenue,
		       COUNT(*)::int AS orders
		FROM sales s
		WHERE s.shop_id = $1 AND s.sale_date >= $2 AND s.sale_date < $3 AND `+countedSale+`
		GROUP BY 1
		ORDER BY 1`, storeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query daily sales: %w", err)
	}
	defer rows.Close()

	points := make([]models.TimeSeriesPoint, 0)
	for rows.Next() {
		var pt models.TimeSeriesPoint
		if err := rows.Scan(&pt.Date, &pt.Revenue, &pt.Orders); err != nil {
			return nil, fmt.Errorf("scan daily sales: %w", err)
		}
		pt.Date = analytics.DayKey(pt.Date)
		points = append(points, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read daily sales: %w", err)
	}
	return points, nil
}

// OrderObservations returns one entry per counted sale of the shop.
func (p *PostgresSource) OrderObservations(ctx context.Context, storeID string, from, to time.Time) ([]models.OrderObservation, error) {
	if err := p.requireShop(ctx, storeID); err != nil {
		return nil, err
	}

	start, end := dayRange(from, to)
	rows, err := p.db.Query(ctx, `
		SELECT s.id::text, s.sale_date, s.total_amount::float8
		FROM sales s
		WHERE s.shop_id = $1 AND s.sale_date >= $2 AND s.sale_date < $3 AND `+countedSale+`
		ORDER BY s.sale_date`, storeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	observations := make([]models.OrderObservation, 0)
	for rows.Next() {
		var o models.OrderObservation
		if err := rows.Scan(&o.OrderID, &o.PlacedAt, &o.Revenue); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	return observations, nil
}

// UnitsSold totals the quantity of the item sold across all shops.
func (p *PostgresSource) UnitsSold(ctx context.Context, productID string, from, to time.Time) (int, error) {
	start, end := dayRange(from, to)
	var units int
	err := p.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(si.quantity_sold), 0)::int
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE si.inventory_item_id = $1 AND s.sale_date >= $2 AND s.sale_date < $3 AND `+countedSale,
		productID, start, end).Scan(&units)
	if err != nil {
		return 0, mapError(err, "units sold")
	}
	return units, nil
}

// WeeklyUnits returns the quantity of the item sold per ISO week, for weeks
// that had sales.
func (p *PostgresSource) WeeklyUnits(ctx context.Context, productID string, from, to time.Time) ([]models.WeeklyQuantity, error) {
	start, end := dayRange(from, to)
	rows, err := p.db.Query(ctx, `
		SELECT date_trunc('week', s.sale_date AT TIME ZONE 'UTC') AS week,
		       SUM(si.quantity_sold)::int AS quantity
		FROM sale_items si
		JOIN sales s ON s.id = si.sale_id
		WHERE si.inventory_item_id = $1 AND s.sale_date >= $2 AND s.sale_date < $3 AND `+countedSale+`
		GROUP BY 1
		ORDER BY 1`, productID, start, end)
	if err != nil {
		return nil, mapError(err, "weekly units")
	}
	defer rows.Close()

	weeks := make([]models.WeeklyQuantity, 0)
	for rows.Next() {
		var w models.WeeklyQuantity
		if err := rows.Scan(&w.WeekStart, &w.Quantity); err != nil {
			return nil, fmt.Errorf("scan weekly units: %w", err)
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read weekly units: %w", err)
	}
	return weeks, nil
}

// Snapshot reports the item's stock summed over every shop.
func (p *PostgresSource) Snapshot(ctx context.Context, productID string) (*models.InventorySnapshot, error) {
	snap := &models.InventorySnapshot{}
	err := p.db.QueryRow(ctx, `
		SELECT i.id::text, i.name, i.unlimited_stock, i.low_stock_threshold,
		       COALESCE((SELECT SUM(ss.quantity) FROM shop_stock ss WHERE ss.inventory_item_id = i.id), 0)::int
		FROM inventory_items i
		WHERE i.id = $1`, productID).Scan(
		&snap.ProductID, &snap.ProductName, &snap.Unlimited, &snap.LowStockThreshold, &snap.CurrentStock,
	)
	if err != nil {
		return nil, mapError(err, "inventory item "+productID)
	}
	return snap, nil
}

// ActiveShopIDs lists the shops that are still trading.
func (p *PostgresSource) ActiveShopIDs(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, `SELECT id::text FROM shops WHERE is_active = TRUE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query active shops: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan shop id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read active shops: %w", err)
	}
	return ids, nil
}

func (p *PostgresSource) requireShop(ctx context.Context, shopID string) error {
	var exists bool
	err := p.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM shops WHERE id = $1)`, shopID).Scan(&exists)
	if err != nil {
		return mapError(err, "shop "+shopID)
	}
	if !exists {
		return fmt.Errorf("shop %s: %w", shopID, analytics.ErrNotFound)
	}
	return nil
}

// callerMerchant resolves the merchant a caller ($2) acts for: staff act for
// their employer, everyone else for themselves.
const callerMerchant = `COALESCE((SELECT u.merchant_id FROM users u WHERE u.id = $2 AND u.role = 'staff'), $2::uuid)`

// ShopOwnedBy reports whether the shop belongs to the merchant the user acts
// for. Malformed ids are never owned.
func (p *PostgresSource) ShopOwnedBy(ctx context.Context, shopID, userID string) (bool, error) {
	return p.owned(ctx, `SELECT EXISTS (SELECT 1 FROM shops sh WHERE sh.id = $1 AND sh.merchant_id = `+callerMerchant+`)`, shopID, userID)
}

// ProductOwnedBy reports whether the inventory item belongs to the merchant
// the user acts for.
func (p *PostgresSource) ProductOwnedBy(ctx context.Context, productID, userID string) (bool, error) {
	return p.owned(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_items ii WHERE ii.id = $1 AND ii.merchant_id = `+callerMerchant+`)`, productID, userID)
}

func (p *PostgresSource) owned(ctx context.Context, sql, id, userID string) (bool, error) {
	if id == "" || userID == "" {
		return false, nil
	}
	var owned bool
	if err := p.db.QueryRow(ctx, sql, id, userID).Scan(&owned); err != nil {
		if errors.Is(mapError(err, id), analytics.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check ownership of %s: %w", id, err)
	}
	return owned, nil
}

// invalidTextRepresentation is raised when an id is not a valid UUID.
const invalidTextRepresentation = "22P02"

func mapError(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, analytics.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
		return fmt.Errorf("%s: %w", what, analytics.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
