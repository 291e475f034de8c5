package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lonshanworld/retail-analytics/analytics"
	"github.com/lonshanworld/retail-analytics/metrics"
	"github.com/lonshanworld/retail-analytics/models"
)

var (
	forecastDays int
	seasonalType string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Run a single forecast against the database and print it as JSON",
}

var forecastSalesCmd = &cobra.Command{
	Use:   "sales [shopId]",
	Short: "Forecast daily revenue for a shop",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd, func(ctx context.Context, svc analytics.Service) (any, error) {
			return svc.ForecastSales(ctx, args[0], forecastDays)
		})
	},
}

var forecastStockoutCmd = &cobra.Command{
	Use:   "stockout [productId]",
	Short: "Predict when a product runs out of stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd, func(ctx context.Context, svc analytics.Service) (any, error) {
			return svc.PredictStockout(ctx, args[0])
		})
	},
}

var forecastSeasonalCmd = &cobra.Command{
	Use:   "seasonal [shopId]",
	Short: "Profile a shop's revenue by month, weekday or hour",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd, func(ctx context.Context, svc analytics.Service) (any, error) {
			return svc.AnalyzeSeasonalTrends(ctx, args[0], models.PeriodType(seasonalType))
		})
	},
}

var forecastDemandCmd = &cobra.Command{
	Use:   "demand [productId]",
	Short: "Project weekly demand and replenishment for a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd, func(ctx context.Context, svc analytics.Service) (any, error) {
			return svc.ForecastDemand(ctx, args[0])
		})
	},
}

var warmCmd = &cobra.Command{
	Use:   "warm [shopId...]",
	Short: "Warm the result cache for the given shops, or every active shop",
	RunE: func(cmd *cobra.Command, args []string) error {
		comp, err := bootstrap(cmd.Context(), metrics.New(nil))
		if err != nil {
			return err
		}
		defer comp.close()

		if len(args) == 0 {
			stats, err := comp.warmer.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "warmed %d results for %d shops (%d errors) in %s\n",
				stats.Warmed, stats.Shops, stats.Errors, stats.Duration)
			return nil
		}
		for _, shopID := range args {
			if err := comp.warmer.WarmShop(cmd.Context(), shopID); err != nil {
				return fmt.Errorf("shop %s: %w", shopID, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "warmed %d shops\n", len(args))
		return nil
	},
}

func init() {
	forecastSalesCmd.Flags().IntVar(&forecastDays, "days", 7, "forecast horizon in days")
	forecastSeasonalCmd.Flags().StringVar(&seasonalType, "type", string(models.PeriodMonthly), "period type: monthly, weekly or daily")

	forecastCmd.AddCommand(forecastSalesCmd)
	forecastCmd.AddCommand(forecastStockoutCmd)
	forecastCmd.AddCommand(forecastSeasonalCmd)
	forecastCmd.AddCommand(forecastDemandCmd)
}

type operation func(ctx context.Context, svc analytics.Service) (any, error)

func runOneShot(cmd *cobra.Command, op operation) error {
	comp, err := bootstrap(cmd.Context(), metrics.New(nil))
	if err != nil {
		return err
	}
	defer comp.close()

	comp.logger.Debug("[CLI] running forecast", zap.String("command", cmd.Name()))
	return writeResult(cmd.Context(), cmd.OutOrStdout(), comp.service, op)
}

// writeResult runs op and prints its result as indented JSON.
func writeResult(ctx context.Context, w io.Writer, svc analytics.Service, op operation) error {
	result, err := op(ctx, svc)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
