package sales

import (
	"context"
	"errors"

	"api_pos/internal/inventory"
)

// Tx is the atomic scope of one sale. Stock decrements and the history
// append made through it commit together or not at all.
type Tx interface {
	// TryDecrement takes qty units of a product and returns the product as
	// it stands after the decrement.
	TryDecrement(ctx context.Context, productID string, qty int) (inventory.Product, error)
	Append(ctx context.Context, sale *Sale) error
}

// TxRunner runs fn inside one transaction. A non-nil error from fn, or a
// failure to commit, rolls back everything done through the Tx.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// ErrSaleAlreadyStaged is returned when a second sale is appended to one Tx.
var ErrSaleAlreadyStaged = errors.New("transaction already holds a sale")

// LocalTxRunner runs sale transactions over the in-memory ledger and a
// history Storage. Rows stay locked from their first decrement until the
// history append has succeeded or every decrement has been restored.
type LocalTxRunner struct {
	ledger  *inventory.LocalStorage
	history Storage
}

// NewLocalTxRunner creates a LocalTxRunner.
func NewLocalTxRunner(ledger *inventory.LocalStorage, history Storage) *LocalTxRunner {
	return &LocalTxRunner{ledger: ledger, history: history}
}

type taken struct {
	row *inventory.Row
	qty int
}

type localTx struct {
	ledger *inventory.LocalStorage
	rows   map[string]*inventory.Row
	undo   []taken
	sale   *Sale
}

func (tx *localTx) TryDecrement(ctx context.Context, productID string, qty int) (inventory.Product, error) {
	row, ok := tx.rows[productID]
	if !ok {
		var err error
		row, err = tx.ledger.Lock(ctx, productID)
		if err != nil {
			return inventory.Product{}, err
		}
		tx.rows[productID] = row
	}
	if _, err := row.Decrement(qty); err != nil {
		return inventory.Product{}, err
	}
	tx.undo = append(tx.undo, taken{row: row, qty: qty})
	return row.Product(), nil
}

func (tx *localTx) Append(_ context.Context, sale *Sale) error {
	if tx.sale != nil {
		return ErrSaleAlreadyStaged
	}
	tx.sale = sale
	return nil
}

func (tx *localTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i].row.Restore(tx.undo[i].qty)
	}
	tx.undo = nil
}

func (tx *localTx) release() {
	for _, row := range tx.rows {
		row.Unlock()
	}
}

// InTx implements TxRunner.
func (r *LocalTxRunner) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &localTx{ledger: r.ledger, rows: map[string]*inventory.Row{}}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
		tx.release()
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if tx.sale != nil {
		if err := r.history.Append(ctx, tx.sale); err != nil {
			return err
		}
	}
	committed = true
	return nil
}
