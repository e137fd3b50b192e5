package economy

import (
	"errors"

	"github.com/kingrea/economy/internal/ledger"
)

// Soft failures. Commands reply with a message and return nil for these;
// each one is journaled at Warn with the sentinel's text as the entry tag.
var (
	ErrInvalidItem          = errors.New("invalid item")
	ErrUnusableItem         = errors.New("unusable item")
	ErrInsufficientQuantity = ledger.ErrInsufficientQuantity
	ErrInsufficientFunds    = ledger.ErrInsufficientFunds
	ErrBadQuantity          = errors.New("quantity must be a positive whole number")

	// ErrNotReady is returned by the gate while the ledger has not loaded.
	ErrNotReady = errors.New("economy is not ready")

	// ErrNotPermitted is returned when a non-admin invokes an admin command.
	ErrNotPermitted = errors.New("command restricted to the economy admin")
)
