package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/portfolio-gate/internal/config"
	"github.com/portfolio-gate/internal/infrastructure/catalog"
	"github.com/portfolio-gate/internal/infrastructure/dynamo"
	"github.com/portfolio-gate/internal/infrastructure/kv"
	"github.com/portfolio-gate/internal/infrastructure/memory"
	redisinfra "github.com/portfolio-gate/internal/infrastructure/redis"
	s3infra "github.com/portfolio-gate/internal/infrastructure/s3"
	"github.com/portfolio-gate/internal/infrastructure/smtp"
	"github.com/portfolio-gate/internal/infrastructure/sns"
	"github.com/portfolio-gate/internal/telemetry"
	transporthttp "github.com/portfolio-gate/internal/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	telemetry.SetupLogger(cfg.LogFormat, cfg.LogLevel)
	if envErr != nil {
		slog.Info("no .env file found, reading from environment")
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	store, err := openStore(cfg)
	if err != nil {
		slog.Error("open store", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	cat, err := catalog.Load(context.Background(), cfg.CatalogSource, func(bucket string) catalog.Downloader {
		return s3infra.NewStore(s3infra.NewClient(cfg), bucket)
	})
	if err != nil {
		slog.Error("load project catalog", "source", cfg.CatalogSource, "err", err)
		os.Exit(1)
	}

	deps := &transporthttp.Deps{
		Store:   store,
		Catalog: cat,
		Mailer:  smtp.NewMailer(cfg),
	}
	// SNS alerts are optional.
	if p, err := sns.NewPublisher(cfg); err == nil {
		deps.Alerts = p
	} else {
		slog.Warn("SNS alerts disabled", "err", err)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			slog.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				slog.Error("metrics server error", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv, "store", cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "err", err)
	}
	slog.Info("server stopped")
}

func openStore(cfg *config.Config) (kv.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		client := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), client, cfg.DynamoTable)
		return dynamo.NewStore(client, cfg.DynamoTable), nil
	case config.BackendMemory:
		slog.Warn("using in-memory store; state is lost on restart")
		return memory.New(), nil
	default:
		rdb, err := redisinfra.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return redisinfra.NewStore(rdb), nil
	}
}
