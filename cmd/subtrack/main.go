package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"subtrack/internal/auth"
	"subtrack/internal/backend"
	"subtrack/internal/cache"
	"subtrack/internal/cli"
	apphttp "subtrack/internal/http"
	"subtrack/internal/log"
	"subtrack/internal/metrics"
	"subtrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory().Create(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	m := metrics.New()
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	subs := services.NewSubscriptionService(result.Repository, services.Options{
		Publisher:         result.Publisher,
		Metrics:           m,
		RenewalWindowDays: cfg.RenewalWindowDays,
		StatsCacheTTL:     cfg.StatsCacheTTL,
	})
	users := services.NewUserService(result.Repository, tokens, nil)

	caches := cache.NewManager()
	caches.Register(subs.StatsCache())
	caches.StartCleanup(5 * time.Minute)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Subscriptions:      subs,
		Users:              users,
		Tokens:             tokens,
		Metrics:            m,
		Store:              result.Repository,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting subtrack server",
			"port", cfg.Port,
			"backend", backendCfg.Type,
			"events", result.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}
	logger.Info("Server stopped gracefully")
}
