package api

import (
	"errors"
	"net/http"

	"api_pos/internal/auth"
	"api_pos/internal/report"
	"api_pos/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// salesHandler holds the sales service and implements HTTP handlers for sales operations.
type salesHandler struct {
	salesService *sales.Service
	logger       *zap.Logger
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(salesService *sales.Service, logger *zap.Logger) *salesHandler {
	return &salesHandler{
		salesService: salesService,
		logger:       logger,
	}
}

type createSaleRequest struct {
	Items          []sales.ItemRequest `json:"items"`
	Customer       string              `json:"customer"`
	PaymentMethod  string              `json:"payment_method"`
	TotalPrimary   decimal.Decimal     `json:"total_primary"`
	TotalSecondary decimal.Decimal     `json:"total_secondary"`
}

// saleStatus maps a sale error kind onto an HTTP status.
func saleStatus(kind sales.ErrorKind) int {
	switch kind {
	case sales.KindEmptyCart, sales.KindInvalidRequest:
		return http.StatusBadRequest
	case sales.KindProductNotFound:
		return http.StatusNotFound
	case sales.KindInsufficientStock:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeSaleError(ctx *gin.Context, err error) {
	var saleErr *sales.Error
	if !errors.As(err, &saleErr) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create sale", "kind": string(sales.KindPersist)})
		return
	}
	products := saleErr.ProductIDs
	if products == nil {
		products = []string{}
	}
	msg := saleErr.Error()
	if saleErr.Kind == sales.KindPersist {
		msg = sales.ErrPersist.Error()
	}
	ctx.JSON(saleStatus(saleErr.Kind), gin.H{
		"error":    msg,
		"kind":     string(saleErr.Kind),
		"products": products,
	})
}

// handleCreateSale handles the POST /api/sales endpoint. The seller is the
// authenticated user.
func (h *salesHandler) handleCreateSale(ctx *gin.Context) {
	var req createSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind JSON request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "kind": string(sales.KindInvalidRequest), "products": []string{}})
		return
	}

	id := identity(ctx)
	sale, err := h.salesService.Submit(ctx.Request.Context(), sales.SubmitRequest{
		Items:             req.Items,
		Seller:            id.Username,
		Customer:          req.Customer,
		PaymentMethod:     sales.ParsePaymentMethod(req.PaymentMethod),
		DeclaredPrimary:   req.TotalPrimary,
		DeclaredSecondary: req.TotalSecondary,
	})
	if err != nil {
		writeSaleError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, sale)
}

// handleGetSales lists sales. Staff only see their own; the owner sees all
// of them or filters with ?seller=.
func (h *salesHandler) handleGetSales(ctx *gin.Context) {
	seller := sellerFilter(ctx)

	results, metadata, err := h.salesService.SearchSales(ctx.Request.Context(), seller)
	if err != nil {
		h.logger.Error("Error searching sales", zap.String("seller_filter", seller), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search sales"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"results": results, "metadata": metadata})
}

// visibleSale loads sale :id, hiding other sellers' sales from staff.
func (h *salesHandler) visibleSale(ctx *gin.Context) (*sales.Sale, bool) {
	sale, err := h.salesService.GetSale(ctx.Request.Context(), ctx.Param("id"))
	switch {
	case errors.Is(err, sales.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "sale not found"})
		return nil, false
	case err != nil:
		h.logger.Error("failed to get sale", zap.String("sale_id", ctx.Param("id")), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}

	id := identity(ctx)
	if id.Role != auth.RoleOwner && sale.Seller != id.Username {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "sale not found"})
		return nil, false
	}
	return sale, true
}

func (h *salesHandler) handleGetSale(ctx *gin.Context) {
	if sale, ok := h.visibleSale(ctx); ok {
		ctx.JSON(http.StatusOK, sale)
	}
}

func (h *salesHandler) handleGetReceipt(ctx *gin.Context) {
	sale, ok := h.visibleSale(ctx)
	if !ok {
		return
	}
	wb, err := report.Receipt(sale)
	if err != nil {
		h.logger.Error("failed to render receipt", zap.String("sale_id", sale.ID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render receipt"})
		return
	}
	writeWorkbook(ctx, h.logger, "receipt_"+sale.ID+".xlsx", wb)
}

// sellerFilter returns the seller whose sales the caller may list.
func sellerFilter(ctx *gin.Context) string {
	id := identity(ctx)
	if id.Role == auth.RoleOwner {
		return ctx.Query("seller")
	}
	return id.Username
}
