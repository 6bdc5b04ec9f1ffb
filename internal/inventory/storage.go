package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when a product with the given ID is not found.
var ErrNotFound = errors.New("product not found")

// ErrEmptyID is returned when trying to store a product with an empty ID.
var ErrEmptyID = errors.New("empty product ID")

// ErrAlreadyExists is returned when inserting a product whose ID is taken.
var ErrAlreadyExists = errors.New("product already exists")

// ErrDuplicateSerial is returned when another product already uses the serial.
var ErrDuplicateSerial = errors.New("duplicate product serial")

// ErrInsufficientStock is returned when a decrement exceeds the quantity on hand.
var ErrInsufficientStock = errors.New("insufficient stock")

// ErrInvalidQuantity is returned when a decrement is not a positive amount.
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// Storage is the stock ledger: product records plus their quantity on hand.
type Storage interface {
	Insert(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Product, error)
	// List returns every product, most recently inserted first.
	List(ctx context.Context) ([]Product, error)
	// TryDecrement atomically subtracts qty from the product's quantity when
	// enough stock is on hand and returns the new quantity.
	TryDecrement(ctx context.Context, id string, qty int) (int, error)
}

type row struct {
	mu      sync.Mutex
	p       Product
	seq     uint64
	deleted bool
}

func (r *row) decrement(qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidQuantity
	}
	if r.p.Quantity < qty {
		return r.p.Quantity, fmt.Errorf("%w: product %s has %d, requested %d", ErrInsufficientStock, r.p.ID, r.p.Quantity, qty)
	}
	r.p.Quantity -= qty
	return r.p.Quantity, nil
}

// LocalStorage provides an in-memory stock ledger.
//
// Every product row has its own mutex; mu only guards the index maps and is
// never held while waiting for a row lock.
type LocalStorage struct {
	mu      sync.RWMutex
	rows    map[string]*row
	serials map[string]string
	seq     uint64
}

// NewLocalStorage instantiates an empty LocalStorage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		rows:    map[string]*row{},
		serials: map[string]string{},
	}
}

func (l *LocalStorage) lookup(id string) (*row, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.rows[id]
	return r, ok
}

// Insert stores a new product.
// Returns ErrEmptyID, ErrAlreadyExists or ErrDuplicateSerial.
func (l *LocalStorage) Insert(ctx context.Context, p *Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ID == "" {
		return ErrEmptyID
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity", ErrInvalidQuantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rows[p.ID]; ok {
		return ErrAlreadyExists
	}
	if p.Serial != "" {
		if _, taken := l.serials[p.Serial]; taken {
			return ErrDuplicateSerial
		}
		l.serials[p.Serial] = p.ID
	}
	l.seq++
	l.rows[p.ID] = &row{p: *p, seq: l.seq}
	return nil
}

// Update replaces the stored fields of an existing product.
func (l *LocalStorage) Update(ctx context.Context, p *Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity", ErrInvalidQuantity)
	}
	r, ok := l.lookup(p.ID)
	if !ok {
		return ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleted {
		return ErrNotFound
	}

	if p.Serial != r.p.Serial {
		l.mu.Lock()
		if owner, taken := l.serials[p.Serial]; p.Serial != "" && taken && owner != p.ID {
			l.mu.Unlock()
			return ErrDuplicateSerial
		}
		delete(l.serials, r.p.Serial)
		if p.Serial != "" {
			l.serials[p.Serial] = p.ID
		}
		l.mu.Unlock()
	}
	r.p = *p
	return nil
}

// Delete removes a product immediately.
func (l *LocalStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r, ok := l.lookup(id)
	if !ok {
		return ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleted {
		return ErrNotFound
	}
	r.deleted = true

	l.mu.Lock()
	delete(l.rows, id)
	if l.serials[r.p.Serial] == id {
		delete(l.serials, r.p.Serial)
	}
	l.mu.Unlock()
	return nil
}

// Get retrieves a product by ID.
// A row held by an in-flight transaction is read once the transaction ends.
func (l *LocalStorage) Get(ctx context.Context, id string) (Product, error) {
	if err := ctx.Err(); err != nil {
		return Product{}, err
	}
	r, ok := l.lookup(id)
	if !ok {
		return Product{}, ErrNotFound
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleted {
		return Product{}, ErrNotFound
	}
	return r.p, nil
}

// List retrieves all products, most recently inserted first.
func (l *LocalStorage) List(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	rows := make([]*row, 0, len(l.rows))
	for _, r := range l.rows {
		rows = append(rows, r)
	}
	l.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })

	products := make([]Product, 0, len(rows))
	for _, r := range rows {
		r.mu.Lock()
		if !r.deleted {
			products = append(products, r.p)
		}
		r.mu.Unlock()
	}
	return products, nil
}

// TryDecrement subtracts qty from the product's quantity under its row lock.
func (l *LocalStorage) TryDecrement(ctx context.Context, id string, qty int) (int, error) {
	row, err := l.Lock(ctx, id)
	if err != nil {
		return 0, err
	}
	defer row.Unlock()
	return row.Decrement(qty)
}

// Row is a product row held under its lock. Multi-item transactions keep
// rows locked until they commit or roll back, so no other writer or reader
// observes the intermediate quantities.
type Row struct {
	r *row
}

// Lock acquires the row lock of a product.
// Rows must be locked in ascending ID order to avoid deadlocks.
func (l *LocalStorage) Lock(ctx context.Context, id string) (*Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := l.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	r.mu.Lock()
	if r.deleted {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	return &Row{r: r}, nil
}

// Product returns the current state of the held row.
func (r *Row) Product() Product { return r.r.p }

// Decrement subtracts qty when enough stock is on hand.
func (r *Row) Decrement(qty int) (int, error) { return r.r.decrement(qty) }

// Restore gives back qty units previously taken by Decrement.
func (r *Row) Restore(qty int) { r.r.p.Quantity += qty }

// Unlock releases the row lock.
func (r *Row) Unlock() { r.r.mu.Unlock() }
