package domain

import (
	"errors"
	"fmt"
)

type ErrNotFound string

func (e ErrNotFound) Error() string { return string(e) + " not found" }

// ErrUnknownMenuItem carries the id of a requested menu item that the menu store does not know.
type ErrUnknownMenuItem string

func (e ErrUnknownMenuItem) Error() string {
	return fmt.Sprintf("Menu item with id %s not found", string(e))
}

type ErrUnauthorized string

func (e ErrUnauthorized) Error() string { return string(e) }

type ErrForbidden string

func (e ErrForbidden) Error() string { return string(e) }

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StoreError wraps any failure reported by a backing store gateway.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// OrphanedOrderError reports an order header left behind because its line items failed to persist
// and the compensating delete failed too. Cause is the line item failure.
type OrphanedOrderError struct {
	OrderID string
	Cause   error
	Cleanup error
}

func (e *OrphanedOrderError) Error() string {
	return fmt.Sprintf("order %s orphaned: cleanup failed: %v (after: %v)", e.OrderID, e.Cleanup, e.Cause)
}

func (e *OrphanedOrderError) Unwrap() []error { return []error{e.Cause, e.Cleanup} }

func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// ErrUnsupported reports an operation the configured backend cannot perform.
type ErrUnsupported string

func (e ErrUnsupported) Error() string { return string(e) }
