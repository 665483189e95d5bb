package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"cpitracker/internal/cli"
	"cpitracker/internal/cluster"
	"cpitracker/internal/core"
	apphttp "cpitracker/internal/http"
	"cpitracker/internal/log"
	"cpitracker/internal/metrics"
	"cpitracker/internal/source"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(cli.SetupLogger(nil, os.Stderr), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, os.Stdout)
	m := metrics.New()

	res, err := cli.OpenReader(context.Background(), cfg, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to open dataset", err)
	}
	defer func() {
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Warn("Dataset cleanup failed", log.FieldError, err.Error())
			}
		}
	}()

	provider := source.NewProvider(res.Reader, logger, func(ds *core.Dataset, rep source.Report) {
		m.DatasetLoaded(ds.Len(), rep.Skipped, ds.LatestYear())
	})
	if _, err := provider.Dataset(context.Background()); err != nil {
		cli.Fatal(logger, "Failed to load dataset", err)
	}

	srv, err := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		Provider:           provider,
		Logger:             logger,
		Metrics:            m,
		DefaultCountry:     cfg.DefaultCountry,
		Cluster:            cluster.Options{Seed: cfg.ClusterSeed, MinRows: cfg.ClusterMinRows},
		CacheSize:          cfg.CacheSize,
		CacheTTL:           cfg.CacheTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		IdleTimeout:        cfg.IdleTimeout,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to create server", err)
	}
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
	})

	logger.Info("Starting dashboard server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldRows, provider.Report().Rows,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
