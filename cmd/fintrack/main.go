package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/analytics"
	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	// .env is for local development; missing file is fine.
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("open record store failed", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	// The event stream is optional; without a broker the API still serves.
	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("connect AMQP failed", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
	} else {
		logger.Info("event publishing disabled, no AMQP_URL configured")
	}

	summaryCache := cache.NewLRU[analytics.Summary](cfg.AnalyticsCacheSize, cfg.AnalyticsCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(summaryCache)
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	svc := services.NewRecordService(store, publisher, summaryCache, logger)

	resolver := &auth.Resolver{AllowAnonymous: cfg.AllowAnonymous}
	if cfg.AllowAnonymous {
		logger.Warn("anonymous access enabled, unauthenticated requests map to the development user")
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:              ":" + cfg.Port,
		RequestsPerMinute: cfg.RequestsPerMinute,
	}, svc, resolver, logger)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("starting fintrack server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"anonymous", cfg.AllowAnonymous)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("server stopped", log.FieldOperation, log.OpShutdown)
}
