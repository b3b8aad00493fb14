package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"fxdash/internal/api"
	"fxdash/internal/cache"
	"fxdash/internal/config"
	"fxdash/internal/logging"
	"fxdash/internal/monitoring"
	"fxdash/internal/provider/tradermade"
	"fxdash/internal/service"
)

func main() {
	var (
		configFile = flag.String("config", "configs/config.yaml", "configuration file path")
		envFile    = flag.String("env", ".env", "env file with secrets, ignored if absent")
	)
	flag.Parse()

	// Secrets come from the environment; a local .env is a convenience.
	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: failed to load env file %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	logger.WithField("version", cfg.App.Version).Info("starting fxdash")

	store := buildStore(cfg, logger)
	metrics := monitoring.NewMetrics()

	client := tradermade.New(&tradermade.Config{
		APIKey:            cfg.Provider.APIKey,
		BaseURL:           cfg.Provider.BaseURL,
		Timeout:           cfg.Provider.Timeout,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
	}, logger)

	dashboard := service.NewDashboard(client, store, &service.TTLConfig{
		CurrencyList: cfg.Cache.CurrencyListTTL,
		LiveRate:     cfg.Cache.LiveRateTTL,
		History:      cfg.Cache.HistoryTTL,
	}, metrics, logger)

	var refresher *service.Refresher
	if cfg.Refresh.Enabled {
		refresher = service.NewRefresher(dashboard, cfg.Refresh.CronSpec, logger)
		if err := refresher.Start(); err != nil {
			logger.WithError(err).Fatal("failed to start currency list refresher")
		}
	}

	server := api.NewServer(cfg, dashboard, store, metrics, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.WithField("signal", sig.String()).Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("server exited")
		}
	}

	if refresher != nil {
		refresher.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.WithError(err).Error("shutdown failed")
		os.Exit(1)
	}
}

// buildStore assembles the response cache: Redis with memory fallback when an
// address is configured, memory-only otherwise.
func buildStore(cfg *config.Config, logger *logrus.Logger) cache.Store {
	fallbackCfg := &cache.FallbackConfig{
		MaxMemoryEntries: cfg.Cache.MaxMemoryEntries,
	}

	if cfg.Cache.Redis.Addr == "" {
		return cache.NewFallbackStore(nil, fallbackCfg, logger)
	}

	redisStore, err := cache.NewRedisStore(&cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		PoolSize: cfg.Cache.Redis.PoolSize,
	})
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, using in-memory cache")
		return cache.NewFallbackStore(nil, fallbackCfg, logger)
	}
	return cache.NewFallbackStore(redisStore, fallbackCfg, logger)
}
