package ledger

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinel errors. Use errors.Is against these; the typed errors below carry
// the details.
var (
	ErrInvalidDate       = errors.New("invalid date format")
	ErrInvalidNumber     = errors.New("invalid number")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStorage           = errors.New("storage failure")
)

// NotFoundError reports a member, book or sale id with no matching row.
type NotFoundError struct {
	Entity string // "member", "book" or "sale"
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StockError is returned when a sale asks for more copies than are on hand.
type StockError struct {
	BookID    string
	Available int64
	Requested int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %s (requested %d, in stock %d)", e.BookID, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// StorageError wraps a driver error raised while a workflow was reading or
// writing. The enclosing transaction has been rolled back when this is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrStorage) match any StorageError.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ValidateDate applies the loose structural check used for sale dates:
// exactly 10 characters and exactly two '-' separators. It does not check
// that the date exists on the calendar.
func ValidateDate(s string) error {
	if utf8.RuneCountInString(s) != 10 || strings.Count(s, "-") != 2 {
		return fmt.Errorf("%w: %q (expected YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return nil
}

// ValidateQty requires a positive quantity.
func ValidateQty(qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer, got %d", ErrInvalidNumber, qty)
	}
	return nil
}

// ValidateDiscount requires a non-negative discount.
func ValidateDiscount(discount int64) error {
	if discount < 0 {
		return fmt.Errorf("%w: discount cannot be negative, got %d", ErrInvalidNumber, discount)
	}
	return nil
}
