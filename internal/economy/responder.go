package economy

import (
	"fmt"
	"strings"

	"github.com/kingrea/economy/internal/chat"
	"github.com/kingrea/economy/internal/ledger"
)

// Responder produces the boilerplate replies for soft failures. Embedders can
// replace it to change wording without touching command logic.
type Responder interface {
	InvalidItem(ctx chat.Context, item, suggestion string) error
	UnusableItem(ctx chat.Context, item string) error
	NoItems(ctx chat.Context, item string) error
}

type defaultResponder struct{}

func (defaultResponder) InvalidItem(ctx chat.Context, item, suggestion string) error {
	msg := fmt.Sprintf("%s is not a valid item", item)
	if suggestion != "" && suggestion != item {
		msg += fmt.Sprintf(". Did you mean %s?", suggestion)
	}
	return ctx.Send(msg)
}

func (defaultResponder) UnusableItem(ctx chat.Context, item string) error {
	return ctx.Send(fmt.Sprintf("%s is not a usable item", item))
}

func (defaultResponder) NoItems(ctx chat.Context, item string) error {
	return ctx.Send(fmt.Sprintf("You have 0 of %s, oops", item))
}

const (
	msgDone         = "Done!"
	msgNotReady     = "The economy is still loading, try again in a moment."
	msgNotPermitted = "You are not allowed to do that."
	msgBadQuantity  = "Quantity must be a positive whole number."
	msgEmptyInv     = "Your inventory is empty."
)

func purchaseMessage(item string, qty, cost, owned int64, bal ledger.Balances) string {
	return fmt.Sprintf("You bought %d %s for %d coins. You now have %d %s and %d coins in your wallet.",
		qty, item, cost, owned, item, bal.Wallet)
}

func shortfallMessage(item string, qty, cost int64, bal ledger.Balances) string {
	return fmt.Sprintf("You need %d coins to buy %d %s but only have %d in your wallet (%d in the bank). You are %d coins short.",
		cost, qty, item, bal.Wallet, bal.Bank, cost-bal.Wallet)
}

func balanceMessage(acct ledger.Account) string {
	return fmt.Sprintf("Wallet: %d coins\nBank: %d / %d coins", acct.Wallet, acct.Bank.Balance, acct.Bank.Capacity)
}

func inventoryMessage(acct ledger.Account) string {
	if len(acct.Inventory) == 0 {
		return msgEmptyInv
	}
	var b strings.Builder
	b.WriteString("Inventory:")
	for _, item := range acct.Items() {
		fmt.Fprintf(&b, "\n%s × %d", item, acct.Inventory[item])
	}
	return b.String()
}
