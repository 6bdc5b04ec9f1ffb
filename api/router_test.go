package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"api_pos/internal/auth"
	"api_pos/internal/inventory"
	"api_pos/internal/metrics"
	"api_pos/internal/report"
	"api_pos/internal/sales"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

func InitRoutesTests(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	ledger := inventory.NewLocalStorage()
	history := sales.NewLocalStorage()
	m := metrics.New(prometheus.NewRegistry())

	authService := auth.NewService(auth.NewLocalStorage(), "test-secret", time.Hour, logger, auth.WithHashCost(4))
	require.NoError(t, authService.EnsureOwner(context.Background(), "admin", "admin123"))

	router := gin.New()
	InitRoutes(router, Dependencies{
		Auth:           authService,
		Inventory:      inventory.NewService(ledger, logger),
		Sales:          sales.NewService(history, sales.NewLocalTxRunner(ledger, history), logger, sales.WithObserver(m)),
		Metrics:        m,
		Logger:         logger,
		CORSOrigins:    []string{"*"},
		RequestTimeout: 5 * time.Second,
	})
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, router *gin.Engine, username, password string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

type errorBody struct {
	Error    string   `json:"error"`
	Kind     string   `json:"kind"`
	Products []string `json:"products"`
}

// TestSalesHappyPath_FullFlow walks login, catalog, sale, listing and receipt.
func TestSalesHappyPath_FullFlow(t *testing.T) {
	router := InitRoutesTests(t)
	ownerToken := login(t, router, "admin", "admin123")

	var productID string
	t.Run("POST_CreateProduct", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/products", ownerToken, map[string]any{
			"serial":      "6204-2RS",
			"description": "ball bearing",
			"price":       "10.50",
			"quantity":    3,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var p inventory.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.NotEmpty(t, p.ID)
		productID = p.ID
	})
	require.NotEmpty(t, productID)

	w := doJSON(t, router, http.MethodPost, "/api/register", "", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	staffToken := login(t, router, "alice", "secret1")

	var saleID string
	t.Run("POST_CreateSale", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/sales", staffToken, map[string]any{
			"items":           []map[string]any{{"product_id": productID, "quantity": 2}},
			"customer":        "bob",
			"payment_method":  "punto",
			"total_primary":   "21.00",
			"total_secondary": "840.5",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var sale sales.Sale
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sale))
		assert.NotEmpty(t, sale.ID)
		assert.Equal(t, "alice", sale.Seller)
		assert.Equal(t, sales.PaymentCard, sale.PaymentMethod)
		assert.Equal(t, "21.00", sale.TotalPrimary.StringFixed(2))
		require.Len(t, sale.Items, 1)
		assert.Equal(t, "ball bearing", sale.Items[0].Description)
		saleID = sale.ID
	})
	require.NotEmpty(t, saleID)

	t.Run("POST_Oversell", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/sales", staffToken, map[string]any{
			"items":          []map[string]any{{"product_id": productID, "quantity": 2}},
			"payment_method": "cash",
		})
		require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
		var body errorBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "InsufficientStock", body.Kind)
		assert.Equal(t, []string{productID}, body.Products)

		w = doJSON(t, router, http.MethodGet, "/api/products/"+productID, staffToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var p inventory.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, 1, p.Quantity)
	})

	t.Run("GET_Sales", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/sales", staffToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Results  []sales.Sale        `json:"results"`
			Metadata sales.SalesMetadata `json:"metadata"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, saleID, resp.Results[0].ID)
		assert.Equal(t, 1, resp.Metadata.Quantity)

		w = doJSON(t, router, http.MethodGet, "/api/sales/"+saleID, ownerToken, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("GET_Receipt", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/sales/"+saleID+"/receipt", staffToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, report.ContentType, w.Header().Get("Content-Type"))
		f, err := excelize.OpenReader(w.Body)
		require.NoError(t, err)
		defer f.Close()
	})

	t.Run("GET_Metrics", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/metrics", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `pos_sales_committed_total{payment_method="card"} 1`)
		assert.Contains(t, w.Body.String(), `pos_sales_rejected_total{kind="InsufficientStock"} 1`)
	})
}

func TestSaleErrors(t *testing.T) {
	router := InitRoutesTests(t)
	token := login(t, router, "admin", "admin123")

	cases := []struct {
		name   string
		body   map[string]any
		status int
		kind   string
	}{
		{"empty cart", map[string]any{"items": []any{}, "payment_method": "cash"}, http.StatusBadRequest, "EmptyCart"},
		{"unknown method", map[string]any{"items": []map[string]any{{"product_id": "x", "quantity": 1}}, "payment_method": "barter"}, http.StatusBadRequest, "InvalidRequest"},
		{"unknown product", map[string]any{"items": []map[string]any{{"product_id": "ghost", "quantity": 1}}, "payment_method": "cash"}, http.StatusNotFound, "ProductNotFound"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/sales", token, tc.body)
			require.Equal(t, tc.status, w.Code, w.Body.String())
			var body errorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.kind, body.Kind)
		})
	}
}

func TestAuthorization(t *testing.T) {
	router := InitRoutesTests(t)

	w := doJSON(t, router, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/products", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/register", "", map[string]string{"username": "bob", "password": "secret1"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/register", "", map[string]string{"username": "bob", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	staff := login(t, router, "bob", "secret1")

	w = doJSON(t, router, http.MethodPost, "/api/products", staff, map[string]any{"serial": "S1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doJSON(t, router, http.MethodGet, "/api/reports/inventory", staff, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProducts_DuplicateSerialAndImport(t *testing.T) {
	router := InitRoutesTests(t)
	token := login(t, router, "admin", "admin123")

	w := doJSON(t, router, http.MethodPost, "/api/products", token, map[string]any{"serial": "S1", "price": "1", "quantity": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/products", token, map[string]any{"serial": "S1", "price": "1", "quantity": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = doJSON(t, router, http.MethodPost, "/api/products", token, map[string]any{"price": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	sheet := excelize.NewFile()
	for i, row := range [][]any{
		{"serial", "code", "description", "model", "brand", "price", "quantity"},
		{"S1", "", "duplicate", "", "", "1", 1},
		{"S2", "C2", "seal", "", "", "2.5", 4},
		{"S3", "C3", "bolt", "", "", "n/a", 1},
	} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, sheet.SetSheetRow("Sheet1", cell, &values))
	}
	var xlsx bytes.Buffer
	_, err := sheet.WriteTo(&xlsx)
	require.NoError(t, err)
	require.NoError(t, sheet.Close())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "products.xlsx")
	require.NoError(t, err)
	_, err = part.Write(xlsx.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result inventory.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Skipped, 2)
	lines := []int{result.Skipped[0].Line, result.Skipped[1].Line}
	assert.ElementsMatch(t, []int{2, 4}, lines)

	w = doJSON(t, router, http.MethodGet, "/api/reports/inventory", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Header().Get("Content-Disposition"), "inventory.xlsx"))
}
