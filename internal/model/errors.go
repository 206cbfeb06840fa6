package model

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a use case wraps exactly one of these.
var (
	ErrValidation              = errors.New("validation error")
	ErrNotFound                = errors.New("not found")
	ErrPriceMismatch           = errors.New("price mismatch")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrIncompletePayment       = errors.New("incomplete payment")
	ErrPaymentExceedsRemaining = errors.New("payment exceeds remaining amount")
	ErrAlreadyFullyPaid        = errors.New("already fully paid")
	ErrInvalidAmount           = errors.New("invalid amount")
	ErrLoanCancelled           = errors.New("loan cancelled")
	ErrPersistence             = errors.New("persistence error")
)

var (
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrLotNotFound      = fmt.Errorf("lot %w", ErrNotFound)
	ErrSaleNotFound     = fmt.Errorf("sale %w", ErrNotFound)
	ErrLoanNotFound     = fmt.Errorf("loan %w", ErrNotFound)
	ErrUnitNotFound     = fmt.Errorf("unit %w", ErrNotFound)
	ErrEmptySale        = fmt.Errorf("%w: sale has no items", ErrValidation)
	ErrLoanExists       = fmt.Errorf("%w: a loan already exists for this sale", ErrValidation)
	ErrDuplicateRequest = fmt.Errorf("%w: request is already being processed", ErrValidation)
)

var kinds = []error{
	ErrValidation,
	ErrNotFound,
	ErrPriceMismatch,
	ErrInsufficientStock,
	ErrIncompletePayment,
	ErrPaymentExceedsRemaining,
	ErrAlreadyFullyPaid,
	ErrInvalidAmount,
	ErrLoanCancelled,
	ErrPersistence,
}

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Kind returns the error kind err belongs to, or nil for unclassified errors.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Persistence classifies a storage failure. Errors that already carry a kind
// pass through untouched.
func Persistence(err error) error {
	if err == nil || Kind(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
