package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidProduct is returned when a product fails validation.
var ErrInvalidProduct = errors.New("invalid product")

// Service provides catalog management operations on a Storage backend.
type Service struct {
	storage Storage
	logger  *zap.Logger
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		storage: storage,
		logger:  logger,
	}
}

func normalize(p *Product) {
	p.Serial = strings.TrimSpace(p.Serial)
	p.Code = strings.TrimSpace(p.Code)
	p.Description = strings.TrimSpace(p.Description)
	p.Model = strings.TrimSpace(p.Model)
	p.Brand = strings.TrimSpace(p.Brand)
}

func validate(p *Product) error {
	if p.Serial == "" {
		return fmt.Errorf("%w: serial is required", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", ErrInvalidProduct)
	}
	return nil
}

// CreateProduct validates and inserts a new product under a fresh ID.
func (s *Service) CreateProduct(ctx context.Context, p Product) (*Product, error) {
	normalize(&p)
	if err := validate(&p); err != nil {
		return nil, err
	}
	p.ID = uuid.NewString()

	if err := s.storage.Insert(ctx, &p); err != nil {
		s.logger.Error("failed to insert product", zap.String("serial", p.Serial), zap.Error(err))
		return nil, fmt.Errorf("failed to insert product: %w", err)
	}

	s.logger.Info("product created", zap.String("product_id", p.ID), zap.String("serial", p.Serial), zap.Int("quantity", p.Quantity))
	return &p, nil
}

// UpdateProduct replaces the editable fields of product id.
func (s *Service) UpdateProduct(ctx context.Context, id string, p Product) (*Product, error) {
	normalize(&p)
	if err := validate(&p); err != nil {
		return nil, err
	}
	p.ID = id

	if err := s.storage.Update(ctx, &p); err != nil {
		s.logger.Error("failed to update product", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.logger.Info("product updated", zap.String("product_id", id), zap.Int("quantity", p.Quantity))
	return &p, nil
}

// DeleteProduct removes product id.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

// GetProduct returns product id.
func (s *Service) GetProduct(ctx context.Context, id string) (Product, error) {
	return s.storage.Get(ctx, id)
}

// ListProducts returns the whole catalog.
func (s *Service) ListProducts(ctx context.Context) ([]Product, error) {
	products, err := s.storage.List(ctx)
	if err != nil {
		s.logger.Error("failed to list products", zap.Error(err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// LowStock returns the products whose quantity is at or below threshold.
func (s *Service) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]Product, 0)
	for _, p := range products {
		if p.Quantity <= threshold {
			low = append(low, p)
		}
	}
	return low, nil
}

// Import inserts rows one by one. Rows that fail validation or collide on
// serial are skipped and reported; any other storage error stops the import.
func (s *Service) Import(ctx context.Context, rows []ImportRow) (ImportResult, error) {
	result := ImportResult{Skipped: make([]ImportRowError, 0)}

	for _, r := range rows {
		_, err := s.CreateProduct(ctx, r.Product)
		switch {
		case err == nil:
			result.Imported++
		case errors.Is(err, ErrInvalidProduct), errors.Is(err, ErrDuplicateSerial):
			result.Skipped = append(result.Skipped, ImportRowError{
				Line:   r.Line,
				Serial: strings.TrimSpace(r.Product.Serial),
				Error:  err.Error(),
			})
		default:
			s.logger.Error("import aborted", zap.Int("line", r.Line), zap.Int("imported", result.Imported), zap.Error(err))
			return result, err
		}
	}

	s.logger.Info("import completed",
		zap.Int("rows", len(rows)),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}
