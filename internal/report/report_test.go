package report

import (
	"bytes"
	"testing"
	"time"

	"api_pos/internal/inventory"
	"api_pos/internal/sales"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// readBack renders wb and returns the rows of its only sheet.
func readBack(t *testing.T, wb Workbook) (string, [][]string) {
	t.Helper()
	var buf bytes.Buffer
	_, err := wb.WriteTo(&buf)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	require.Len(t, sheets, 1)
	rows, err := f.GetRows(sheets[0])
	require.NoError(t, err)
	return sheets[0], rows
}

func lastRow(rows [][]string) []string {
	return rows[len(rows)-1]
}

func TestInventory(t *testing.T) {
	wb, err := Inventory([]inventory.Product{
		{Serial: "S1", Code: "C1", Description: "bearing", Price: decimal.RequireFromString("12.50"), Quantity: 2},
		{Serial: "S2", Code: "C2", Description: "seal", Price: decimal.RequireFromString("3"), Quantity: 5},
	})
	require.NoError(t, err)

	name, rows := readBack(t, wb)
	assert.Equal(t, "Inventory", name)
	assert.Equal(t, "INVENTORY", rows[0][0])
	assert.Equal(t, "SERIAL", rows[1][0])
	assert.Equal(t, []string{"S1", "C1", "bearing", "", "", "12.5", "2", "25"}, rows[2])
	total := lastRow(rows)
	assert.Equal(t, "TOTAL VALUE:", total[6])
	assert.Equal(t, "40", total[7])
}

func TestSales(t *testing.T) {
	created := time.Date(2026, 5, 4, 13, 30, 0, 0, time.UTC)
	wb, err := Sales("alice", []*sales.Sale{
		{
			CreatedAt:     created,
			Seller:        "alice",
			Customer:      "bob",
			PaymentMethod: sales.PaymentCard,
			TotalPrimary:  decimal.RequireFromString("10.25"),
			Items:         []sales.LineItem{{Description: "bearing", Quantity: 2}, {Description: "seal", Quantity: 1}},
		},
		{
			CreatedAt:     created,
			Seller:        "alice",
			PaymentMethod: sales.PaymentCash,
			TotalPrimary:  decimal.RequireFromString("4.75"),
		},
	})
	require.NoError(t, err)

	_, rows := readBack(t, wb)
	assert.Equal(t, "SALES REPORT - ALICE", rows[0][0])
	assert.Equal(t, "2026-05-04 13:30", rows[2][0])
	assert.Equal(t, "bearing (x2), seal (x1)", rows[2][6])
	total := lastRow(rows)
	assert.Equal(t, "TOTAL SALES:", total[3])
	assert.Equal(t, "15", total[4])
}

func TestReceipt_SecondaryTotalOnlyForNonCash(t *testing.T) {
	sale := &sales.Sale{
		ID:             "sale-1",
		Customer:       "bob",
		Seller:         "alice",
		PaymentMethod:  sales.PaymentCash,
		TotalPrimary:   decimal.RequireFromString("7.50"),
		TotalSecondary: decimal.Zero,
		Items: []sales.LineItem{
			{Description: "bearing", Quantity: 3, UnitPrice: decimal.RequireFromString("2.50"), Subtotal: decimal.RequireFromString("7.50")},
		},
	}

	wb, err := Receipt(sale)
	require.NoError(t, err)
	_, rows := readBack(t, wb)
	assert.Equal(t, "TOTAL:", lastRow(rows)[2])
	assert.Equal(t, "7.5", lastRow(rows)[3])

	sale.PaymentMethod = sales.PaymentTransfer
	sale.TotalSecondary = decimal.RequireFromString("300")
	wb, err = Receipt(sale)
	require.NoError(t, err)
	_, rows = readBack(t, wb)
	assert.Equal(t, "TOTAL (SECONDARY):", lastRow(rows)[2])
	assert.Equal(t, "300", lastRow(rows)[3])
}

func productSheet(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestParseProducts(t *testing.T) {
	buf := productSheet(t,
		[]any{"serial", "code", "description", "model", "brand", "price", "quantity"},
		[]any{"S1", "C1", "bearing", "6204", "SKF", "12.5", 4},
		[]any{"S2", "C2", "seal", "", "", "3,75", ""},
		[]any{"S3", "C3", "bolt", "", "", "cheap", 1},
	)

	rows, rejected, err := ParseProducts(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "S1", rows[0].Product.Serial)
	assert.Equal(t, "SKF", rows[0].Product.Brand)
	assert.True(t, rows[0].Product.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 4, rows[0].Product.Quantity)

	assert.Equal(t, 3, rows[1].Line)
	assert.True(t, rows[1].Product.Price.Equal(decimal.RequireFromString("3.75")))
	assert.Equal(t, 0, rows[1].Product.Quantity)

	require.Len(t, rejected, 1)
	assert.Equal(t, 4, rejected[0].Line)
	assert.Equal(t, "S3", rejected[0].Serial)
}

func TestParseProducts_NotAWorkbook(t *testing.T) {
	_, _, err := ParseProducts(bytes.NewBufferString("serial,code\n"))
	assert.Error(t, err)
}
