package report

import (
	"fmt"
	"strings"
	"time"

	"api_pos/internal/inventory"
	"api_pos/internal/sales"

	"github.com/shopspring/decimal"
)

const timeLayout = "2006-01-02 15:04"

func money(d decimal.Decimal) float64 {
	return d.Round(sales.CurrencyPlaces).InexactFloat64()
}

// Inventory renders every product with its stock value and the valued total.
func Inventory(products []inventory.Product) (Workbook, error) {
	s, err := newSheet("Inventory")
	if err != nil {
		return nil, err
	}
	if err := inventorySheet(s, products); err != nil {
		_ = s.f.Close()
		return nil, fmt.Errorf("render inventory report: %w", err)
	}
	return s, nil
}

func inventorySheet(s *sheet, products []inventory.Product) error {
	if err := s.title("INVENTORY", 8); err != nil {
		return err
	}
	if err := s.styledRow("header", "SERIAL", "CODE", "DESCRIPTION", "MODEL", "BRAND", "PRICE", "STOCK", "VALUE"); err != nil {
		return err
	}

	total := decimal.Zero
	for _, p := range products {
		value := p.Value()
		total = total.Add(value)
		if _, err := s.row(p.Serial, p.Code, p.Description, p.Model, p.Brand, money(p.Price), p.Quantity, money(value)); err != nil {
			return err
		}
	}

	s.blank()
	if err := s.styledRow("total", "", "", "", "", "", "", "TOTAL VALUE:", money(total)); err != nil {
		return err
	}
	return s.widths(15, 15, 40, 15, 15, 10, 14, 15)
}

// Sales renders the sales of one seller with the sum of their primary totals.
func Sales(seller string, list []*sales.Sale) (Workbook, error) {
	s, err := newSheet("Sales")
	if err != nil {
		return nil, err
	}
	if err := salesSheet(s, seller, list); err != nil {
		_ = s.f.Close()
		return nil, fmt.Errorf("render sales report: %w", err)
	}
	return s, nil
}

func salesSheet(s *sheet, seller string, list []*sales.Sale) error {
	heading := "SALES REPORT"
	if seller != "" {
		heading += " - " + strings.ToUpper(seller)
	}
	if err := s.title(heading, 7); err != nil {
		return err
	}
	if err := s.styledRow("header", "DATE", "SELLER", "CUSTOMER", "PAYMENT", "TOTAL", "TOTAL (SECONDARY)", "ITEMS"); err != nil {
		return err
	}

	sum := decimal.Zero
	for _, sale := range list {
		sum = sum.Add(sale.TotalPrimary)
		items := make([]string, 0, len(sale.Items))
		for _, it := range sale.Items {
			items = append(items, fmt.Sprintf("%s (x%d)", it.Description, it.Quantity))
		}
		if _, err := s.row(
			sale.CreatedAt.Format(timeLayout),
			sale.Seller,
			sale.Customer,
			string(sale.PaymentMethod),
			money(sale.TotalPrimary),
			money(sale.TotalSecondary),
			strings.Join(items, ", "),
		); err != nil {
			return err
		}
	}

	s.blank()
	if err := s.styledRow("total", "", "", "", "TOTAL SALES:", money(sum)); err != nil {
		return err
	}
	return s.widths(18, 15, 25, 16, 12, 18, 50)
}

// Receipt renders one sale. The secondary total is left out for cash sales.
func Receipt(sale *sales.Sale) (Workbook, error) {
	s, err := newSheet("Receipt")
	if err != nil {
		return nil, err
	}
	if err := receiptSheet(s, sale); err != nil {
		_ = s.f.Close()
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return s, nil
}

func receiptSheet(s *sheet, sale *sales.Sale) error {
	if err := s.title("SALES RECEIPT", 4); err != nil {
		return err
	}
	s.blank()
	header := [][]any{
		{"Sale:", sale.ID},
		{"Date:", sale.CreatedAt.In(time.UTC).Format(timeLayout)},
		{"Customer:", sale.Customer},
		{"Seller:", sale.Seller},
		{"Payment:", string(sale.PaymentMethod)},
	}
	for _, values := range header {
		if _, err := s.row(values...); err != nil {
			return err
		}
	}
	s.blank()

	if err := s.styledRow("header", "QTY", "DESCRIPTION", "UNIT PRICE", "SUBTOTAL"); err != nil {
		return err
	}
	for _, it := range sale.Items {
		if _, err := s.row(it.Quantity, it.Description, money(it.UnitPrice), money(it.Subtotal)); err != nil {
			return err
		}
	}

	s.blank()
	if err := s.styledRow("total", "", "", "TOTAL:", money(sale.TotalPrimary)); err != nil {
		return err
	}
	if sale.PaymentMethod.UsesSecondary() {
		if err := s.styledRow("total", "", "", "TOTAL (SECONDARY):", money(sale.TotalSecondary)); err != nil {
			return err
		}
	}
	return s.widths(12, 40, 18, 15)
}
