package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientFunds is returned when a debit exceeds the wallet balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientQuantity is returned when a decrease exceeds the held quantity.
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrQuantityOverflow is returned when an increase would exceed math.MaxInt64.
	ErrQuantityOverflow = errors.New("quantity overflow")

	// ErrPersistence matches every *PersistenceError via errors.Is.
	ErrPersistence = errors.New("ledger persistence failure")
)

// PersistenceError reports a missing, unreadable, malformed or unwritable
// ledger document.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ledger: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPersistence) match any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

func persistenceErr(op, path string, err error) error {
	return &PersistenceError{Op: op, Path: path, Err: err}
}
