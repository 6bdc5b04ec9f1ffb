package sales

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"api_pos/internal/inventory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Observer is notified about the outcome of every submission.
type Observer interface {
	SaleCommitted(sale *Sale)
	SaleRejected(kind ErrorKind)
}

type nopObserver struct{}

func (nopObserver) SaleCommitted(*Sale)     {}
func (nopObserver) SaleRejected(ErrorKind) {}

// Service coordinates sale transactions and serves the sale history.
type Service struct {
	storage  Storage
	runner   TxRunner
	logger   *zap.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithObserver reports submission outcomes to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithClock overrides the clock used to stamp sales.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service. storage is the read side of the history;
// runner provides the transactions sales are committed in.
func NewService(storage Storage, runner TxRunner, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		storage:  storage,
		runner:   runner,
		logger:   logger,
		observer: nopObserver{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validateRequest(req SubmitRequest) *Error {
	if len(req.Items) == 0 {
		return &Error{Kind: KindEmptyCart}
	}
	if strings.TrimSpace(req.Seller) == "" {
		return invalid("seller is required")
	}
	if !req.PaymentMethod.Valid() {
		return invalid("unknown payment method %q", req.PaymentMethod)
	}
	if req.DeclaredPrimary.IsNegative() || req.DeclaredSecondary.IsNegative() {
		return invalid("declared totals must not be negative")
	}
	for i, it := range req.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			return invalid("item %d: product id is required", i)
		}
		if it.Quantity <= 0 {
			e := invalid("item %d: quantity must be greater than zero", i)
			e.ProductIDs = []string{it.ProductID}
			return e
		}
	}
	return nil
}

// aggregate sums the requested quantity per product and returns the product
// IDs in ascending order, which is the order rows are locked in. Sums saturate
// at math.MaxInt, which no stock level can satisfy.
func aggregate(items []ItemRequest) (map[string]int, []string) {
	qty := make(map[string]int, len(items))
	ids := make([]string, 0, len(items))
	for _, it := range items {
		sum, seen := qty[it.ProductID]
		if !seen {
			ids = append(ids, it.ProductID)
		}
		if sum > math.MaxInt-it.Quantity {
			qty[it.ProductID] = math.MaxInt
			continue
		}
		qty[it.ProductID] = sum + it.Quantity
	}
	sort.Strings(ids)
	return qty, ids
}

// Submit validates a sale, takes the stock of every item and records the sale,
// all in one transaction. On any failure nothing is changed.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Sale, error) {
	if err := validateRequest(req); err != nil {
		s.logger.Warn("sale rejected", zap.String("seller", req.Seller), zap.String("kind", string(err.Kind)), zap.Error(err))
		s.observer.SaleRejected(err.Kind)
		return nil, err
	}

	quantities, ids := aggregate(req.Items)
	var sale *Sale

	err := s.runner.InTx(ctx, func(ctx context.Context, tx Tx) error {
		snapshots := make(map[string]inventory.Product, len(ids))
		var missing, short []string
		for _, id := range ids {
			p, err := tx.TryDecrement(ctx, id, quantities[id])
			switch {
			case err == nil:
				snapshots[id] = p
			case errors.Is(err, inventory.ErrNotFound):
				missing = append(missing, id)
			case errors.Is(err, inventory.ErrInsufficientStock):
				short = append(short, id)
			default:
				return fmt.Errorf("decrement product %s: %w", id, err)
			}
		}
		if len(missing) > 0 || len(short) > 0 {
			return stockError(missing, short)
		}

		sale = s.buildSale(req, snapshots)
		if err := tx.Append(ctx, sale); err != nil {
			return fmt.Errorf("append sale: %w", err)
		}
		return nil
	})
	if err != nil {
		var saleErr *Error
		if !errors.As(err, &saleErr) {
			saleErr = &Error{Kind: KindPersist, Err: err}
		}
		if saleErr.Kind == KindPersist {
			s.logger.Error("failed to persist sale", zap.String("seller", req.Seller), zap.Error(err))
		} else {
			s.logger.Warn("sale rejected",
				zap.String("seller", req.Seller),
				zap.String("kind", string(saleErr.Kind)),
				zap.Strings("product_ids", saleErr.ProductIDs),
			)
		}
		s.observer.SaleRejected(saleErr.Kind)
		return nil, saleErr
	}

	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("seller", sale.Seller),
		zap.Int("items", len(sale.Items)),
		zap.String("total_primary", sale.TotalPrimary.StringFixed(CurrencyPlaces)),
	)
	s.observer.SaleCommitted(sale)
	return sale.clone(), nil
}

func (s *Service) buildSale(req SubmitRequest, snapshots map[string]inventory.Product) *Sale {
	items := make([]LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		p := snapshots[it.ProductID]
		items = append(items, LineItem{
			ProductID:   it.ProductID,
			Description: p.Description,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
			Subtotal:    p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}

	total := Total(items)
	if !req.DeclaredPrimary.IsZero() && !req.DeclaredPrimary.Round(CurrencyPlaces).Equal(total) {
		s.logger.Warn("declared total differs from computed total",
			zap.String("declared", req.DeclaredPrimary.String()),
			zap.String("computed", total.String()),
		)
	}
	secondary := decimal.Zero
	if req.PaymentMethod.UsesSecondary() {
		secondary = req.DeclaredSecondary.Round(CurrencyPlaces)
	}

	return &Sale{
		ID:             uuid.NewString(),
		CreatedAt:      s.now().UTC(),
		Seller:         strings.TrimSpace(req.Seller),
		Customer:       strings.TrimSpace(req.Customer),
		Items:          items,
		TotalPrimary:   total,
		TotalSecondary: secondary,
		PaymentMethod:  req.PaymentMethod,
	}
}

// GetSale returns one sale.
func (s *Service) GetSale(ctx context.Context, id string) (*Sale, error) {
	return s.storage.Read(ctx, id)
}

// SearchSales lists the sales of seller, or every sale when seller is empty,
// newest first, together with their summary.
func (s *Service) SearchSales(ctx context.Context, seller string) ([]*Sale, SalesMetadata, error) {
	var (
		results []*Sale
		err     error
	)
	if seller == "" {
		results, err = s.storage.ListAll(ctx)
	} else {
		results, err = s.storage.ListBySeller(ctx, seller)
	}
	if err != nil {
		s.logger.Error("failed to get sales from storage", zap.String("seller", seller), zap.Error(err))
		return nil, SalesMetadata{}, fmt.Errorf("failed to retrieve sales: %w", err)
	}

	metadata := SalesMetadata{
		TotalPrimary:   decimal.Zero,
		TotalSecondary: decimal.Zero,
		ByMethod:       map[PaymentMethod]int{},
	}
	for _, sale := range results {
		metadata.Quantity++
		metadata.TotalPrimary = metadata.TotalPrimary.Add(sale.TotalPrimary)
		metadata.TotalSecondary = metadata.TotalSecondary.Add(sale.TotalSecondary)
		metadata.ByMethod[sale.PaymentMethod]++
	}

	s.logger.Debug("sales search completed",
		zap.String("seller_filter", seller),
		zap.Int("results_count", len(results)),
	)
	return results, metadata, nil
}
