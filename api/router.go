package api

import (
	"context"
	"net/http"
	"time"

	"api_pos/internal/auth"
	"api_pos/internal/inventory"
	"api_pos/internal/metrics"
	"api_pos/internal/sales"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP API is built on.
type Dependencies struct {
	Auth      *auth.Service
	Inventory *inventory.Service
	Sales     *sales.Service
	// Metrics is optional; without it /metrics is not served.
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	CORSOrigins []string
	// RequestTimeout bounds the storage work of one request. Zero disables it.
	RequestTimeout time.Duration
}

// InitRoutes registers every endpoint of the POS API on the given Gin engine.
func InitRoutes(e *gin.Engine, deps Dependencies) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.Use(accessLog(logger), gin.Recovery(), corsMiddleware(deps.CORSOrigins))
	if deps.Metrics != nil {
		e.Use(deps.Metrics.Middleware())
		e.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	authHandler := NewAuthHandler(deps.Auth, logger)
	productHandler := NewProductHandler(deps.Inventory, logger)
	salesHandler := NewSalesHandler(deps.Sales, logger)
	reportHandler := NewReportHandler(deps.Inventory, deps.Sales, logger)

	public := e.Group("/api", requestTimeout(deps.RequestTimeout))
	public.POST("/login", authHandler.handleLogin)
	public.POST("/register", authHandler.handleRegister)

	private := public.Group("", authHandler.authenticated())
	owner := requireRole(auth.RoleOwner)

	private.GET("/products", productHandler.handleListProducts)
	private.GET("/products/:id", productHandler.handleGetProduct)
	private.POST("/products", owner, productHandler.handleCreateProduct)
	private.PUT("/products/:id", owner, productHandler.handleUpdateProduct)
	private.DELETE("/products/:id", owner, productHandler.handleDeleteProduct)
	private.POST("/products/import", owner, productHandler.handleImportProducts)

	private.POST("/sales", salesHandler.handleCreateSale)
	private.GET("/sales", salesHandler.handleGetSales)
	private.GET("/sales/:id", salesHandler.handleGetSale)
	private.GET("/sales/:id/receipt", salesHandler.handleGetReceipt)

	private.GET("/reports/inventory", owner, reportHandler.handleInventoryReport)
	private.GET("/reports/sales", reportHandler.handleSalesReport)
}

func accessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func requestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
