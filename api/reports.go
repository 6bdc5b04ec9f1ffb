package api

import (
	"net/http"
	"strconv"

	"api_pos/internal/inventory"
	"api_pos/internal/report"
	"api_pos/internal/sales"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type reportHandler struct {
	inventoryService *inventory.Service
	salesService     *sales.Service
	logger           *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(inventoryService *inventory.Service, salesService *sales.Service, logger *zap.Logger) *reportHandler {
	return &reportHandler{
		inventoryService: inventoryService,
		salesService:     salesService,
		logger:           logger,
	}
}

func writeWorkbook(ctx *gin.Context, logger *zap.Logger, filename string, wb report.Workbook) {
	ctx.Header("Content-Type", report.ContentType)
	ctx.Header("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	ctx.Status(http.StatusOK)
	if _, err := wb.WriteTo(ctx.Writer); err != nil {
		logger.Error("failed to write workbook", zap.String("filename", filename), zap.Error(err))
	}
}

func (h *reportHandler) handleInventoryReport(ctx *gin.Context) {
	products, err := h.inventoryService.ListProducts(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	wb, err := report.Inventory(products)
	if err != nil {
		h.logger.Error("failed to render inventory report", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
		return
	}
	writeWorkbook(ctx, h.logger, "inventory.xlsx", wb)
}

func (h *reportHandler) handleSalesReport(ctx *gin.Context) {
	seller := sellerFilter(ctx)
	results, _, err := h.salesService.SearchSales(ctx.Request.Context(), seller)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search sales"})
		return
	}
	wb, err := report.Sales(seller, results)
	if err != nil {
		h.logger.Error("failed to render sales report", zap.String("seller", seller), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render report"})
		return
	}
	name := "sales.xlsx"
	if seller != "" {
		name = "sales_" + seller + ".xlsx"
	}
	writeWorkbook(ctx, h.logger, name, wb)
}
