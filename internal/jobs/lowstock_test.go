package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"api_pos/internal/inventory"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func seededCatalog(t *testing.T) *inventory.Service {
	t.Helper()
	svc := inventory.NewService(inventory.NewLocalStorage(), zaptest.NewLogger(t))
	for serial, qty := range map[string]int{"A": 0, "B": 2, "C": 10} {
		_, err := svc.CreateProduct(context.Background(), inventory.Product{
			Serial:      serial,
			Description: "item " + serial,
			Price:       decimal.NewFromInt(1),
			Quantity:    qty,
		})
		require.NoError(t, err)
	}
	return svc
}

func TestCheck_LogsLowProducts(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "low"})
	w := NewLowStockWatcher(seededCatalog(t), 2, time.Second, gauge, zap.New(core))

	low, err := w.Check(context.Background())
	require.NoError(t, err)
	assert.Len(t, low, 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(gauge))

	entries := logs.FilterMessage("product running low").All()
	require.Len(t, entries, 2)
	serials := []string{entries[0].ContextMap()["serial"].(string), entries[1].ContextMap()["serial"].(string)}
	assert.ElementsMatch(t, []string{"A", "B"}, serials)
}

type failingLister struct{}

func (failingLister) LowStock(context.Context, int) ([]inventory.Product, error) {
	return nil, errors.New("storage down")
}

func TestCheck_ReportsErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	w := NewLowStockWatcher(failingLister{}, 1, 0, nil, zap.New(core))

	_, err := w.Check(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("low stock check failed").Len())
}

func TestStart_RunsImmediately(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "low"})
	w := NewLowStockWatcher(seededCatalog(t), 2, time.Second, gauge, zap.NewNop())

	require.NoError(t, w.Start(time.Hour))
	defer w.Stop()

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(gauge) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
