package api

import (
	"errors"
	"net/http"

	"api_pos/internal/inventory"
	"api_pos/internal/report"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type productHandler struct {
	inventoryService *inventory.Service
	logger           *zap.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(inventoryService *inventory.Service, logger *zap.Logger) *productHandler {
	return &productHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

func (h *productHandler) writeError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, inventory.ErrInvalidProduct):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, inventory.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	case errors.Is(err, inventory.ErrDuplicateSerial):
		ctx.JSON(http.StatusConflict, gin.H{"error": "serial already registered"})
	default:
		h.logger.Error("product request failed", zap.String("path", ctx.FullPath()), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *productHandler) handleListProducts(ctx *gin.Context) {
	products, err := h.inventoryService.ListProducts(ctx.Request.Context())
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, products)
}

func (h *productHandler) handleGetProduct(ctx *gin.Context) {
	p, err := h.inventoryService.GetProduct(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

func (h *productHandler) handleCreateProduct(ctx *gin.Context) {
	var req inventory.Product
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	p, err := h.inventoryService.CreateProduct(ctx.Request.Context(), req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, p)
}

func (h *productHandler) handleUpdateProduct(ctx *gin.Context) {
	var req inventory.Product
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	p, err := h.inventoryService.UpdateProduct(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, p)
}

func (h *productHandler) handleDeleteProduct(ctx *gin.Context) {
	if err := h.inventoryService.DeleteProduct(ctx.Request.Context(), ctx.Param("id")); err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// handleImportProducts loads products from an uploaded xlsx sheet in the
// multipart field "file".
func (h *productHandler) handleImportProducts(ctx *gin.Context) {
	header, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	file, err := header.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()

	rows, rejected, err := report.ParseProducts(file)
	if err != nil {
		h.logger.Warn("failed to parse import sheet", zap.String("filename", header.Filename), zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid spreadsheet"})
		return
	}

	result, err := h.inventoryService.Import(ctx.Request.Context(), rows)
	result.Skipped = append(rejected, result.Skipped...)
	if err != nil {
		h.logger.Error("import failed", zap.Int("imported", result.Imported), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "import failed", "result": result})
		return
	}
	ctx.JSON(http.StatusOK, result)
}
