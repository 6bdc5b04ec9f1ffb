package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"api_pos/internal/inventory"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Import sheet columns, in order. The first row is a header and is skipped.
const (
	colSerial = iota
	colCode
	colDescription
	colModel
	colBrand
	colPrice
	colQuantity
)

// ParseProducts reads the first sheet of an xlsx workbook. Rows whose price or
// quantity cannot be read are returned as row errors; blank rows are ignored.
func ParseProducts(r io.Reader) ([]inventory.ImportRow, []inventory.ImportRowError, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	parsed := make([]inventory.ImportRow, 0, len(rows))
	rejected := make([]inventory.ImportRowError, 0)
	for i, cells := range rows {
		line := i + 1
		if line == 1 || blank(cells) {
			continue
		}
		p, err := parseProduct(cells)
		if err != nil {
			rejected = append(rejected, inventory.ImportRowError{
				Line:   line,
				Serial: cell(cells, colSerial),
				Error:  err.Error(),
			})
			continue
		}
		parsed = append(parsed, inventory.ImportRow{Line: line, Product: p})
	}
	return parsed, rejected, nil
}

func parseProduct(cells []string) (inventory.Product, error) {
	p := inventory.Product{
		Serial:      cell(cells, colSerial),
		Code:        cell(cells, colCode),
		Description: cell(cells, colDescription),
		Model:       cell(cells, colModel),
		Brand:       cell(cells, colBrand),
		Price:       decimal.Zero,
	}
	if raw := cell(cells, colPrice); raw != "" {
		price, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
		if err != nil {
			return p, fmt.Errorf("invalid price %q", raw)
		}
		p.Price = price
	}
	if raw := cell(cells, colQuantity); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("invalid quantity %q", raw)
		}
		p.Quantity = qty
	}
	return p, nil
}

func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
