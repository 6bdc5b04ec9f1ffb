// Package metrics exposes Prometheus collectors for the HTTP layer and the
// sale coordinator.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"api_pos/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors of one server.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	SalesCommitted      *prometheus.CounterVec
	SalesRejected       *prometheus.CounterVec
	SaleItems           prometheus.Histogram
	LowStockProducts    prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		SalesCommitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_sales_committed_total",
				Help: "Sales committed, by payment method",
			},
			[]string{"payment_method"},
		),
		SalesRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pos_sales_rejected_total",
				Help: "Sale submissions rejected, by error kind",
			},
			[]string{"kind"},
		),
		SaleItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pos_sale_items",
			Help:    "Line items per committed sale",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		LowStockProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pos_low_stock_products",
			Help: "Products at or below the low stock threshold at the last check",
		}),
	}
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SalesCommitted,
		m.SalesRejected,
		m.SaleItems,
		m.LowStockProducts,
	)
	return m
}

// Middleware records the count and latency of every request.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = "undefined"
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// SaleCommitted implements sales.Observer.
func (m *Metrics) SaleCommitted(sale *sales.Sale) {
	m.SalesCommitted.WithLabelValues(string(sale.PaymentMethod)).Inc()
	m.SaleItems.Observe(float64(len(sale.Items)))
}

// SaleRejected implements sales.Observer.
func (m *Metrics) SaleRejected(kind sales.ErrorKind) {
	m.SalesRejected.WithLabelValues(string(kind)).Inc()
}
