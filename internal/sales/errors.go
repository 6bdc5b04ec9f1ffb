package sales

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a sale submission failed.
type ErrorKind string

const (
	KindEmptyCart         ErrorKind = "EmptyCart"
	KindInvalidRequest    ErrorKind = "InvalidRequest"
	KindProductNotFound   ErrorKind = "ProductNotFound"
	KindInsufficientStock ErrorKind = "InsufficientStock"
	KindPersist           ErrorKind = "PersistError"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInvalidRequest    = errors.New("invalid sale request")
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPersist           = errors.New("failed to persist sale")
)

var kindSentinels = map[ErrorKind]error{
	KindEmptyCart:         ErrEmptyCart,
	KindInvalidRequest:    ErrInvalidRequest,
	KindProductNotFound:   ErrProductNotFound,
	KindInsufficientStock: ErrInsufficientStock,
	KindPersist:           ErrPersist,
}

// Error is returned by Submit. A submission that fails with any kind has
// left no trace in the ledger or the history.
type Error struct {
	Kind ErrorKind
	// ProductIDs names the offending products, if any.
	ProductIDs []string
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		msg = sentinel.Error()
	}
	if len(e.ProductIDs) > 0 {
		msg += " [" + strings.Join(e.ProductIDs, ", ") + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the sentinel of the error kind.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func (e *Error) Unwrap() error { return e.Err }

func invalid(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Err: fmt.Errorf(format, args...)}
}

// stockError reports every product that failed its decrement. Missing
// products alone yield ProductNotFound; any shortage makes it InsufficientStock.
func stockError(missing, short []string) *Error {
	if len(short) == 0 {
		return &Error{Kind: KindProductNotFound, ProductIDs: missing}
	}
	return &Error{Kind: KindInsufficientStock, ProductIDs: append(short, missing...)}
}
