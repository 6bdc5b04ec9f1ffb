package sales

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places totals are rounded to.
const CurrencyPlaces = 2

// PaymentMethod is how the customer paid for a sale.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentMobile   PaymentMethod = "mobile_payment"
)

var paymentAliases = map[string]PaymentMethod{
	"cash":           PaymentCash,
	"efectivo":       PaymentCash,
	"card":           PaymentCard,
	"punto":          PaymentCard,
	"transfer":       PaymentTransfer,
	"transferencia":  PaymentTransfer,
	"mobile_payment": PaymentMobile,
	"mobile payment": PaymentMobile,
	"pago movil":     PaymentMobile,
	"pago_movil":     PaymentMobile,
}

// ParsePaymentMethod maps a payment label, including the till's legacy
// labels, onto a PaymentMethod. Unknown labels are returned as-is and fail Valid.
func ParsePaymentMethod(s string) PaymentMethod {
	key := strings.ToLower(strings.TrimSpace(s))
	if m, ok := paymentAliases[key]; ok {
		return m
	}
	return PaymentMethod(key)
}

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentMobile:
		return true
	}
	return false
}

// UsesSecondary reports whether the secondary currency total applies to m.
func (m PaymentMethod) UsesSecondary() bool {
	return m != PaymentCash
}

// LineItem is one product of a sale, with description and price captured
// when the sale was committed.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// Sale represents a committed, immutable sales transaction.
type Sale struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	Seller         string          `json:"seller"`
	Customer       string          `json:"customer"`
	Items          []LineItem      `json:"items"`
	TotalPrimary   decimal.Decimal `json:"total_primary"`
	TotalSecondary decimal.Decimal `json:"total_secondary"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
}

func (s *Sale) clone() *Sale {
	c := *s
	c.Items = append([]LineItem(nil), s.Items...)
	return &c
}

// Total sums price × quantity over items, rounded to CurrencyPlaces.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(CurrencyPlaces)
}

// ItemRequest asks for quantity units of one product.
type ItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SubmitRequest carries everything needed to commit one sale.
type SubmitRequest struct {
	Items             []ItemRequest
	Seller            string
	Customer          string
	PaymentMethod     PaymentMethod
	DeclaredPrimary   decimal.Decimal
	DeclaredSecondary decimal.Decimal
}

// SalesMetadata summarizes a set of sales.
type SalesMetadata struct {
	Quantity       int                   `json:"quantity"`
	TotalPrimary   decimal.Decimal       `json:"total_primary"`
	TotalSecondary decimal.Decimal       `json:"total_secondary"`
	ByMethod       map[PaymentMethod]int `json:"by_method"`
}
