package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DB is a global variable to hold the database connection pool.
var DB *pgxpool.Pool

// Connect sets up the database connection pool and checks that it works.
func Connect(ctx context.Context, databaseURL string, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}

	DB = pool
	logger.Info("[DATABASE] connected")
	return nil
}

// GetDB returns the connection pool opened by Connect.
func GetDB() *pgxpool.Pool {
	return DB
}

// Close closes the database connection pool.
func Close(logger *zap.Logger) {
	if DB != nil {
		DB.Close()
		DB = nil
		logger.Info("[DATABASE] connection pool closed")
	}
}

// migrations are applied in order by Migrate. Each must be idempotent.
var migrations = []string{
	`ALTER TABLE inventory_items ADD COLUMN IF NOT EXISTS unlimited_stock BOOLEAN NOT NULL DEFAULT FALSE`,
	`CREATE INDEX IF NOT EXISTS idx_sales_shop_sale_date ON sales (shop_id, sale_date)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_item ON sale_items (inventory_item_id)`,
}

// Migrate adds the columns and indexes the analytics queries rely on.
func Migrate(ctx context.Context, db Execer) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %q failed: %w", stmt, err)
		}
	}
	return nil
}
