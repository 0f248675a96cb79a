package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gyaneshwarpardhi/riskflow/internal/api"
	"github.com/gyaneshwarpardhi/riskflow/internal/config"
	"github.com/gyaneshwarpardhi/riskflow/internal/engine"
	"github.com/gyaneshwarpardhi/riskflow/internal/logging"
	"github.com/gyaneshwarpardhi/riskflow/internal/report"
	"github.com/gyaneshwarpardhi/riskflow/internal/scoring"
	"github.com/gyaneshwarpardhi/riskflow/internal/store"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cfgPath := flag.String("config", "configs/riskflow.yaml", "Path to YAML config (empty for defaults)")
	envFile := flag.String("env-file", ".env", "Optional dotenv file with RISKFLOW_* overrides")
	flag.Parse()

	// Bootstrap logger until the configured one is built.
	slog.SetDefault(logging.New("info", "text"))

	// ── Environment ───────────────────────────────────────────────────────────
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load env file", "path", *envFile, "err", err)
	}

	// ── Load config ──────────────────────────────────────────────────────────
	loader, err := config.NewLoader(*cfgPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	cfg := loader.Config()
	if err := config.Validate(cfg); err != nil {
		slog.Error("config validation failed", "err", err)
		os.Exit(1)
	}

	level := new(slog.LevelVar)
	level.Set(logging.ParseLevel(cfg.Log.Level))
	logger := logging.NewWithLevel(os.Stdout, level, cfg.Log.Format)
	slog.SetDefault(logger)

	loc, err := cfg.Scoring.Location()
	if err != nil {
		slog.Error("invalid scoring timezone", "err", err)
		os.Exit(1)
	}

	// ── Analytics ─────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := store.NewRepository(cfg.Repository)
	builder := report.NewBuilder(loc)
	disp := engine.NewDispatcher(ctx, cfg.Dispatcher, scoring.NewScorer(loc), logger)
	slog.Info("dispatcher started",
		"threshold", cfg.Dispatcher.Threshold,
		"policy", cfg.Dispatcher.Policy,
		"workers", cfg.Dispatcher.PoolSize(),
		"timezone", loc.String(),
	)

	// ── Hot-reload watcher ────────────────────────────────────────────────────
	// The loader only publishes configs that pass Validate.
	loader.OnChange(func(newCfg *config.Config) {
		disp.SetThreshold(newCfg.Dispatcher.Threshold)
		level.Set(logging.ParseLevel(newCfg.Log.Level))
		if newCfg.Dispatcher.Policy != cfg.Dispatcher.Policy || newCfg.Scoring.Timezone != cfg.Scoring.Timezone {
			slog.Warn("policy and timezone changes take effect after restart")
		}
		slog.Info("config hot-reloaded", "threshold", newCfg.Dispatcher.Threshold, "log_level", newCfg.Log.Level)
	})
	stopWatch, err := loader.Watch()
	if err != nil {
		slog.Warn("config watcher unavailable (hot-reload disabled)", "err", err)
	} else {
		defer stopWatch()
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	handler := api.New(repo, builder, disp, loader, logger)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down…")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	disp.Shutdown()
	slog.Info("goodbye")
}
