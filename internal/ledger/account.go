// Package ledger holds the per-user accounts of the economy and the store
// that persists them to a single JSON document.
//
// Amounts are whole coins (int64); there is no fractional currency.
package ledger

import (
	"fmt"
	"math"
	"sort"
)

// Bank is the separate balance + capacity pair attached to every account.
type Bank struct {
	Balance  int64
	Capacity int64
}

// Account is one user's wallet, bank record and inventory.
type Account struct {
	Wallet    int64
	Inventory map[string]int64
	Bank      Bank
}

// Balances reports wallet and bank balances after (or instead of) a wallet change.
type Balances struct {
	Wallet int64
	Bank   int64
}

// Clone returns a deep copy so callers never share the live inventory map.
func (a Account) Clone() Account {
	cp := a
	cp.Inventory = make(map[string]int64, len(a.Inventory))
	for item, qty := range a.Inventory {
		cp.Inventory[item] = qty
	}
	return cp
}

// Quantity returns how many of item the account holds (0 when absent).
func (a Account) Quantity(item string) int64 {
	return a.Inventory[item]
}

// Items returns the owned item names in sorted order.
func (a Account) Items() []string {
	names := make([]string, 0, len(a.Inventory))
	for item := range a.Inventory {
		names = append(names, item)
	}
	sort.Strings(names)
	return names
}

// AdjustQuantity changes the quantity of item by delta.
//
// A decrease larger than the held quantity fails with ErrInsufficientQuantity
// and an increase past math.MaxInt64 fails with ErrQuantityOverflow; both
// return the current quantity and leave the inventory untouched. A result of
// zero removes the key.
func (a *Account) AdjustQuantity(item string, delta int64) (int64, error) {
	if a.Inventory == nil {
		a.Inventory = map[string]int64{}
	}
	current, ok := a.Inventory[item]
	if delta < 0 && (!ok || current < -delta) {
		return current, fmt.Errorf("%w: have %d of %s, need %d", ErrInsufficientQuantity, current, item, -delta)
	}
	if delta > 0 && current > math.MaxInt64-delta {
		return current, fmt.Errorf("%w: have %d of %s, adding %d", ErrQuantityOverflow, current, item, delta)
	}
	next := current + delta
	if next <= 0 {
		delete(a.Inventory, item)
		return 0, nil
	}
	a.Inventory[item] = next
	return next, nil
}

// AdjustWallet changes the wallet balance by delta.
//
// A debit larger than the wallet fails with ErrInsufficientFunds and returns
// the unchanged balances.
func (a *Account) AdjustWallet(delta int64) (Balances, error) {
	if delta < 0 && a.Wallet < -delta {
		return a.balances(), fmt.Errorf("%w: wallet %d, need %d", ErrInsufficientFunds, a.Wallet, -delta)
	}
	a.Wallet += delta
	return a.balances(), nil
}

func (a Account) balances() Balances {
	return Balances{Wallet: a.Wallet, Bank: a.Bank.Balance}
}

// Options configures the store: where the document lives, which keys it uses
// for the account fields and what a starter account looks like.
//
// A nil DefaultWallet means DefaultWallet coins; use Coins(0) for an empty
// starter wallet.
type Options struct {
	Path                string
	WalletField         string
	InventoryField      string
	BankField           string
	DefaultWallet       *int64
	DefaultBankBalance  int64
	DefaultBankCapacity int64
	DefaultInventory    map[string]int64
}

const (
	DefaultWalletField    = "balance"
	DefaultInventoryField = "inventory"
	DefaultBankField      = "bank"
	DefaultWallet         = 500
)

func (o Options) withDefaults() Options {
	if o.WalletField == "" {
		o.WalletField = DefaultWalletField
	}
	if o.InventoryField == "" {
		o.InventoryField = DefaultInventoryField
	}
	if o.BankField == "" {
		o.BankField = DefaultBankField
	}
	if o.DefaultWallet == nil {
		o.DefaultWallet = Coins(DefaultWallet)
	}
	return o
}

// Coins returns a pointer to n, for Options.DefaultWallet.
func Coins(n int64) *int64 {
	return &n
}

// StarterAccount builds the account handed to a user on first contact.
func StarterAccount(opts Options) Account {
	opts = opts.withDefaults()
	inv := make(map[string]int64, len(opts.DefaultInventory))
	for item, qty := range opts.DefaultInventory {
		if qty > 0 {
			inv[item] = qty
		}
	}
	return Account{
		Wallet:    *opts.DefaultWallet,
		Inventory: inv,
		Bank: Bank{
			Balance:  opts.DefaultBankBalance,
			Capacity: opts.DefaultBankCapacity,
		},
	}
}
