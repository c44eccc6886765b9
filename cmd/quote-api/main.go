// cmd/quote-api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quote-workflow/internal/api"
	"quote-workflow/internal/common/backend"
	"quote-workflow/internal/common/cache"
	"quote-workflow/internal/common/config"
	"quote-workflow/internal/common/logger"
	"quote-workflow/internal/common/observability"
	"quote-workflow/internal/workflow"
)

const (
	sessionIdleTimeout = 2 * time.Hour
	sweepInterval      = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOptions(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.Observability)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := cache.Open(ctx, cfg)
	if err != nil {
		zapLog.Fatal("cache store unavailable", zap.String("backend", cfg.Cache.Backend), zap.Error(err))
	}
	defer closeStore()

	steps := workflow.New(workflow.Options{
		Config:  cfg,
		Backend: backend.New(cfg.Backend, obs, log),
		Store:   store,
		Logger:  log,
	})

	router := api.NewRouter(api.NewHandler(steps, log), api.RouterOptions{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
		Observability:  obs,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:      config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zapLog.Info("Quote API listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := steps.Sessions.Sweep(sessionIdleTimeout); n > 0 {
					zapLog.Debug("idle sessions dropped", zap.Int("count", n))
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutting down quote API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("Quote API stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Quote API stopped gracefully")
}
