package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "retail-analytics",
	Short: "Predictive analytics for the retail backend",
	Long: `Sales forecasting, stockout prediction, seasonal trend analysis and
demand forecasting over the shop database, served over HTTP or run one-shot.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(warmCmd)
}

// newLogger builds the process logger. "debug" switches to the development
// encoder; any other level keeps the production JSON encoder.
func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}
