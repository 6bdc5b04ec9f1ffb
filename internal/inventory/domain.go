package inventory

import "github.com/shopspring/decimal"

// Product is a catalog entry together with its quantity on hand.
type Product struct {
	ID          string          `json:"id"`
	Serial      string          `json:"serial"`
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Model       string          `json:"model"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Value returns the stock value of the product (price × quantity on hand).
func (p Product) Value() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// ImportRow is one product row read from a bulk import source.
// Line is the 1-based position of the row in the source, used for reporting.
type ImportRow struct {
	Line    int
	Product Product
}

// ImportRowError describes a row the catalog refused during an import.
type ImportRowError struct {
	Line   int    `json:"line"`
	Serial string `json:"serial"`
	Error  string `json:"error"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Imported int              `json:"imported"`
	Skipped  []ImportRowError `json:"skipped"`
}
