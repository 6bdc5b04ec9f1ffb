// Package jobs runs periodic background work of the POS server.
package jobs

import (
	"context"
	"fmt"
	"time"

	"api_pos/internal/inventory"

	"github.com/go-co-op/gocron"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// StockLister returns the products at or below a threshold.
type StockLister interface {
	LowStock(ctx context.Context, threshold int) ([]inventory.Product, error)
}

// LowStockWatcher periodically logs products that are running out.
type LowStockWatcher struct {
	products  StockLister
	threshold int
	timeout   time.Duration
	gauge     prometheus.Gauge
	logger    *zap.Logger
	scheduler *gocron.Scheduler
}

// NewLowStockWatcher creates a watcher. gauge may be nil.
func NewLowStockWatcher(products StockLister, threshold int, timeout time.Duration, gauge prometheus.Gauge, logger *zap.Logger) *LowStockWatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockWatcher{
		products:  products,
		threshold: threshold,
		timeout:   timeout,
		gauge:     gauge,
		logger:    logger,
	}
}

// Check runs one scan and returns the products found.
func (w *LowStockWatcher) Check(ctx context.Context) ([]inventory.Product, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	low, err := w.products.LowStock(ctx, w.threshold)
	if err != nil {
		w.logger.Error("low stock check failed", zap.Error(err))
		return nil, err
	}
	if w.gauge != nil {
		w.gauge.Set(float64(len(low)))
	}
	for _, p := range low {
		w.logger.Warn("product running low",
			zap.String("product_id", p.ID),
			zap.String("serial", p.Serial),
			zap.String("description", p.Description),
			zap.Int("quantity", p.Quantity),
		)
	}
	w.logger.Debug("low stock check completed", zap.Int("threshold", w.threshold), zap.Int("count", len(low)))
	return low, nil
}

// Start schedules Check every interval, starting now, in the background.
func (w *LowStockWatcher) Start(interval time.Duration) error {
	s := gocron.NewScheduler(time.UTC)
	_, err := s.Every(interval).Do(func() {
		_, _ = w.Check(context.Background())
	})
	if err != nil {
		return fmt.Errorf("schedule low stock check: %w", err)
	}
	s.StartAsync()
	w.scheduler = s
	return nil
}

// Stop stops the scheduler and waits for a running check to finish.
func (w *LowStockWatcher) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
		w.scheduler = nil
	}
}
