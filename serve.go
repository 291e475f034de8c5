package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lonshanworld/retail-analytics/ai"
	"github.com/lonshanworld/retail-analytics/database"
	"github.com/lonshanworld/retail-analytics/metrics"
	"github.com/lonshanworld/retail-analytics/middleware"
	"github.com/lonshanworld/retail-analytics/routes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics API and run the cache warmer",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	comp, err := bootstrap(ctx, m)
	if err != nil {
		return err
	}
	defer comp.close()
	logger := comp.logger

	if err := comp.cfg.RequireJWT(); err != nil {
		return err
	}
	// Set up the application configuration
	middleware.JWTSecret = []byte(comp.cfg.JWTSecret)

	if comp.cfg.WarmSchedule != "" {
		if err := comp.warmer.Start(comp.cfg.WarmSchedule); err != nil {
			return err
		}
		defer comp.warmer.Stop()
	}

	deps := routes.Dependencies{
		Service:  comp.service,
		Access:   comp.source,
		Cache:    comp.service,
		Warmer:   comp.warmer,
		DB:       database.GetDB(),
		Gatherer: reg,
		Logger:   logger,
	}
	if comp.cfg.GeminiAPIKey != "" {
		narrator, err := ai.NewGeminiNarrator(ctx, comp.cfg.GeminiAPIKey, comp.cfg.GeminiModel, logger)
		if err != nil {
			logger.Warn("[AI NARRATIVE] disabled", zap.Error(err))
		} else {
			defer narrator.Close()
			deps.Narrator = narrator
		}
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(cors.New())
	app.Use(middleware.RequestLogger(logger))
	routes.SetupRoutes(app, deps)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[SERVER] listening",
			zap.String("port", comp.cfg.Port),
			zap.String("cache", comp.cfg.CacheBackend),
			zap.Bool("narrative", deps.Narrator != nil),
		)
		errCh <- app.Listen(":" + comp.cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("[SERVER] shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
