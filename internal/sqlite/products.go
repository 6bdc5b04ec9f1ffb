package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"api_pos/internal/inventory"
)

const productColumns = `id, COALESCE(serial, ''), code, description, model, brand, price, quantity`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (inventory.Product, error) {
	var p inventory.Product
	err := row.Scan(&p.ID, &p.Serial, &p.Code, &p.Description, &p.Model, &p.Brand, &p.Price, &p.Quantity)
	return p, err
}

func productWriteError(err error, action string) error {
	switch {
	case uniqueViolation(err, "products.serial"):
		return inventory.ErrDuplicateSerial
	case uniqueViolation(err, "products.id"):
		return inventory.ErrAlreadyExists
	}
	return fmt.Errorf("%s product: %w", action, err)
}

// Insert stores a new product.
func (s *Store) Insert(ctx context.Context, p *inventory.Product) error {
	if p.ID == "" {
		return inventory.ErrEmptyID
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity", inventory.ErrInvalidQuantity)
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO products (id, serial, code, description, model, brand, price, quantity)
		 VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Serial, p.Code, p.Description, p.Model, p.Brand, p.Price, p.Quantity,
	)
	if err != nil {
		return productWriteError(err, "insert")
	}
	return nil
}

// Update replaces the stored fields of an existing product.
func (s *Store) Update(ctx context.Context, p *inventory.Product) error {
	if p.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity", inventory.ErrInvalidQuantity)
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE products
		    SET serial = NULLIF(?, ''), code = ?, description = ?, model = ?, brand = ?, price = ?, quantity = ?
		  WHERE id = ?`,
		p.Serial, p.Code, p.Description, p.Model, p.Brand, p.Price, p.Quantity, p.ID,
	)
	if err != nil {
		return productWriteError(err, "update")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// Get returns one product by ID.
func (s *Store) Get(ctx context.Context, id string) (inventory.Product, error) {
	p, err := scanProduct(s.sqlDB.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Product{}, inventory.ErrNotFound
	}
	if err != nil {
		return inventory.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns every product, most recently inserted first.
func (s *Store) List(ctx context.Context) ([]inventory.Product, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]inventory.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// TryDecrement subtracts qty from the product's quantity in one conditional
// UPDATE and returns the new quantity.
func (s *Store) TryDecrement(ctx context.Context, id string, qty int) (int, error) {
	p, err := decrement(ctx, s.sqlDB, id, qty)
	if err != nil {
		return 0, err
	}
	return p.Quantity, nil
}

func decrement(ctx context.Context, q querier, id string, qty int) (inventory.Product, error) {
	if qty <= 0 {
		return inventory.Product{}, inventory.ErrInvalidQuantity
	}
	p, err := scanProduct(q.QueryRowContext(ctx,
		`UPDATE products SET quantity = quantity - ?
		  WHERE id = ? AND quantity >= ?
		  RETURNING `+productColumns,
		qty, id, qty,
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return inventory.Product{}, fmt.Errorf("decrement product: %w", err)
	}

	var have int
	err = q.QueryRowContext(ctx, `SELECT quantity FROM products WHERE id = ?`, id).Scan(&have)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Product{}, inventory.ErrNotFound
	}
	if err != nil {
		return inventory.Product{}, fmt.Errorf("read product quantity: %w", err)
	}
	return inventory.Product{}, fmt.Errorf("%w: product %s has %d, requested %d", inventory.ErrInsufficientStock, id, have, qty)
}
