package sales

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when a sale with the given ID is not found.
var ErrNotFound = errors.New("sale not found")

// ErrEmptyID is returned when trying to store a sale with an empty ID.
var ErrEmptyID = errors.New("empty sale ID")

// ErrAlreadyExists is returned when appending a sale whose ID is taken.
var ErrAlreadyExists = errors.New("sale already exists")

// Storage is the append-only sale history. There is no update or delete.
type Storage interface {
	Append(ctx context.Context, sale *Sale) error
	Read(ctx context.Context, id string) (*Sale, error)
	// ListBySeller returns the seller's sales, newest first.
	ListBySeller(ctx context.Context, seller string) ([]*Sale, error)
	// ListAll returns every sale, newest first.
	ListAll(ctx context.Context) ([]*Sale, error)
}

// LocalStorage provides an in-memory sale history.
type LocalStorage struct {
	mu    sync.RWMutex
	m     map[string]*Sale
	order []*Sale
}

// NewLocalStorage instantiates a new LocalStorage for sales with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m: map[string]*Sale{},
	}
}

// Append records a sale.
// Returns ErrEmptyID if the sale has an empty ID.
func (l *LocalStorage) Append(ctx context.Context, sale *Sale) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sale.ID == "" {
		return ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m[sale.ID]; ok {
		return ErrAlreadyExists
	}
	stored := sale.clone()
	l.m[sale.ID] = stored
	l.order = append(l.order, stored)
	return nil
}

// Read retrieves a sale by ID.
// Returns ErrNotFound if the sale is not found.
func (l *LocalStorage) Read(ctx context.Context, id string) (*Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.clone(), nil
}

// ListBySeller retrieves the sales of one seller, newest first.
func (l *LocalStorage) ListBySeller(ctx context.Context, seller string) ([]*Sale, error) {
	return l.list(ctx, func(s *Sale) bool { return s.Seller == seller })
}

// ListAll retrieves every sale, newest first.
func (l *LocalStorage) ListAll(ctx context.Context) ([]*Sale, error) {
	return l.list(ctx, func(*Sale) bool { return true })
}

func (l *LocalStorage) list(ctx context.Context, keep func(*Sale) bool) ([]*Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	sales := make([]*Sale, 0)
	for i := len(l.order) - 1; i >= 0; i-- {
		if s := l.order[i]; keep(s) {
			sales = append(sales, s.clone())
		}
	}
	return sales, nil
}
