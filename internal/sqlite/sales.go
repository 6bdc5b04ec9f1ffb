package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"api_pos/internal/inventory"
	"api_pos/internal/sales"
)

const saleColumns = `id, created_at, seller, customer, total_primary, total_secondary, payment_method`

type saleTx struct {
	tx       *sql.Tx
	appended bool
}

func (t *saleTx) TryDecrement(ctx context.Context, productID string, qty int) (inventory.Product, error) {
	return decrement(ctx, t.tx, productID, qty)
}

func (t *saleTx) Append(ctx context.Context, sale *sales.Sale) error {
	if t.appended {
		return sales.ErrSaleAlreadyStaged
	}
	if err := appendSale(ctx, t.tx, sale); err != nil {
		return err
	}
	t.appended = true
	return nil
}

// InTx runs fn in one SQLite transaction; it commits only when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx sales.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sale transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, &saleTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sale transaction: %w", err)
	}
	committed = true
	return nil
}

// Append records a sale in its own transaction.
func (s *Store) Append(ctx context.Context, sale *sales.Sale) error {
	return s.InTx(ctx, func(ctx context.Context, tx sales.Tx) error {
		return tx.Append(ctx, sale)
	})
}

func appendSale(ctx context.Context, q querier, sale *sales.Sale) error {
	if sale.ID == "" {
		return sales.ErrEmptyID
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO sales (`+saleColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sale.ID,
		toMillis(sale.CreatedAt),
		sale.Seller,
		sale.Customer,
		sale.TotalPrimary,
		sale.TotalSecondary,
		string(sale.PaymentMethod),
	)
	if err != nil {
		if uniqueViolation(err, "sales.id") {
			return sales.ErrAlreadyExists
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	for i, it := range sale.Items {
		_, err := q.ExecContext(ctx,
			`INSERT INTO sale_items (sale_id, position, product_id, description, quantity, unit_price, subtotal)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sale.ID, i, it.ProductID, it.Description, it.Quantity, it.UnitPrice, it.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert sale item %d: %w", i, err)
		}
	}
	return nil
}

func scanSale(row rowScanner) (*sales.Sale, error) {
	var (
		s         sales.Sale
		createdAt int64
		method    string
	)
	if err := row.Scan(&s.ID, &createdAt, &s.Seller, &s.Customer, &s.TotalPrimary, &s.TotalSecondary, &method); err != nil {
		return nil, err
	}
	s.CreatedAt = fromMillis(createdAt)
	s.PaymentMethod = sales.PaymentMethod(method)
	s.Items = make([]sales.LineItem, 0)
	return &s, nil
}

// Read returns one sale with its items.
func (s *Store) Read(ctx context.Context, id string) (*sales.Sale, error) {
	sale, err := scanSale(s.sqlDB.QueryRowContext(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sales.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sale: %w", err)
	}
	if err := s.loadItems(ctx, map[string]*sales.Sale{sale.ID: sale},
		`SELECT sale_id, product_id, description, quantity, unit_price, subtotal
		   FROM sale_items WHERE sale_id = ? ORDER BY position`, id); err != nil {
		return nil, err
	}
	return sale, nil
}

// ListBySeller returns the seller's sales, newest first.
func (s *Store) ListBySeller(ctx context.Context, seller string) ([]*sales.Sale, error) {
	return s.listSales(ctx, `WHERE s.seller = ?`, seller)
}

// ListAll returns every sale, newest first.
func (s *Store) ListAll(ctx context.Context) ([]*sales.Sale, error) {
	return s.listSales(ctx, "")
}

func (s *Store) listSales(ctx context.Context, where string, args ...any) ([]*sales.Sale, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT s.id, s.created_at, s.seller, s.customer, s.total_primary, s.total_secondary, s.payment_method
		   FROM sales s `+where+` ORDER BY s.seq DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	result := make([]*sales.Sale, 0)
	byID := map[string]*sales.Sale{}
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		result = append(result, sale)
		byID[sale.ID] = sale
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	if len(result) == 0 {
		return result, nil
	}

	if err := s.loadItems(ctx, byID,
		`SELECT si.sale_id, si.product_id, si.description, si.quantity, si.unit_price, si.subtotal
		   FROM sale_items si JOIN sales s ON s.id = si.sale_id `+where+`
		  ORDER BY si.sale_id, si.position`, args...); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) loadItems(ctx context.Context, byID map[string]*sales.Sale, query string, args ...any) error {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			saleID string
			it     sales.LineItem
		)
		if err := rows.Scan(&saleID, &it.ProductID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return fmt.Errorf("scan sale item: %w", err)
		}
		if sale, ok := byID[saleID]; ok {
			sale.Items = append(sale.Items, it)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list sale items: %w", err)
	}
	return nil
}
