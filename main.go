package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"api_pos/api"
	"api_pos/internal/auth"
	"api_pos/internal/config"
	"api_pos/internal/inventory"
	"api_pos/internal/jobs"
	"api_pos/internal/metrics"
	"api_pos/internal/sales"
	"api_pos/internal/sqlite"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// backends are the storage implementations the services run on.
type backends struct {
	products inventory.Storage
	history  sales.Storage
	runner   sales.TxRunner
	users    auth.Storage
	close    func() error
}

func openBackends(cfg config.Config) (backends, error) {
	if cfg.Storage == config.StorageMemory {
		ledger := inventory.NewLocalStorage()
		history := sales.NewLocalStorage()
		return backends{
			products: ledger,
			history:  history,
			runner:   sales.NewLocalTxRunner(ledger, history),
			users:    auth.NewLocalStorage(),
			close:    func() error { return nil },
		}, nil
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return backends{}, err
	}
	return backends{
		products: store,
		history:  store,
		runner:   store,
		users:    store,
		close:    store.Close,
	}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Errorf("error loading configuration: %v", err))
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(fmt.Errorf("error building logger: %v", err))
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	logger.Info("service starting", zap.String("storage", cfg.Storage), zap.String("addr", cfg.HTTPAddr))
	if cfg.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("using the development JWT secret; set POS_JWT_SECRET")
	}

	b, err := openBackends(cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := b.close(); err != nil {
			logger.Error("failed to close storage", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	authService := auth.NewService(b.users, cfg.JWTSecret, cfg.TokenTTL, logger.Named("auth"))
	inventoryService := inventory.NewService(b.products, logger.Named("inventory"))
	salesService := sales.NewService(b.history, b.runner, logger.Named("sales"), sales.WithObserver(m))

	startCtx, cancel := context.WithTimeout(context.Background(), cfg.StorageTimeout)
	err = authService.EnsureOwner(startCtx, cfg.OwnerUsername, cfg.OwnerPassword)
	cancel()
	if err != nil {
		return fmt.Errorf("seed owner account: %w", err)
	}

	watcher := jobs.NewLowStockWatcher(inventoryService, cfg.LowStockThreshold, cfg.StorageTimeout, m.LowStockProducts, logger.Named("jobs"))
	if err := watcher.Start(cfg.LowStockInterval); err != nil {
		return err
	}
	defer watcher.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	api.InitRoutes(router, api.Dependencies{
		Auth:           authService,
		Inventory:      inventoryService,
		Sales:          salesService,
		Metrics:        m,
		Logger:         logger.Named("http"),
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.StorageTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http listen", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigc:
		logger.Info("shutdown signal", zap.String("signal", s.String()))
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}
	logger.Info("service stopped")
	return nil
}
