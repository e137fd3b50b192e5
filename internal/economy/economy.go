// Package economy implements the chat commands of the economy: buying and
// using items, and the admin save/load commands. It owns no state of its
// own; the ledger store, catalog and handler table are handed in by the
// application root.
package economy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kingrea/economy/internal/catalog"
	"github.com/kingrea/economy/internal/chat"
	"github.com/kingrea/economy/internal/ledger"
	"github.com/kingrea/economy/internal/usehandler"
)

// Logger records operational messages. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

// Journal records ledger activity. It matches logbook.Logbook's signature.
// Soft failures are journaled at Warn, tagged with their sentinel error.
type Journal interface {
	Info(format string, args ...any) string
	Warn(format string, args ...any) string
	Error(format string, args ...any) string
}

// Option customizes Economy construction.
type Option func(*Economy)

// WithAdmin sets the identity allowed to run savedata/loaddata.
func WithAdmin(id string) Option {
	return func(e *Economy) {
		e.admin = strings.TrimSpace(id)
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(e *Economy) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithJournal records purchases, consumptions and persistence events.
func WithJournal(j Journal) Option {
	return func(e *Economy) {
		if j != nil {
			e.journal = j
		}
	}
}

// WithResponder overrides the soft-failure replies.
func WithResponder(r Responder) Option {
	return func(e *Economy) {
		if r != nil {
			e.responder = r
		}
	}
}

// Economy wires the ledger store, the catalog and the use-handler table into
// the chat commands.
type Economy struct {
	store     *ledger.Store
	catalog   *catalog.Catalog
	handlers  *usehandler.Registry
	admin     string
	logger    Logger
	journal   Journal
	responder Responder
}

// New builds an Economy. A nil registry means no item is usable.
func New(store *ledger.Store, cat *catalog.Catalog, handlers *usehandler.Registry, opts ...Option) (*Economy, error) {
	if store == nil {
		return nil, fmt.Errorf("economy: ledger store is required")
	}
	if cat == nil {
		return nil, fmt.Errorf("economy: catalog is required")
	}
	if handlers == nil {
		handlers = usehandler.NewRegistry()
	}
	e := &Economy{
		store:     store,
		catalog:   cat,
		handlers:  handlers,
		logger:    nopLogger{},
		journal:   nopJournal{},
		responder: defaultResponder{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Store returns the ledger store the economy operates on.
func (e *Economy) Store() *ledger.Store {
	return e.store
}

// Catalog returns the item catalog.
func (e *Economy) Catalog() *catalog.Catalog {
	return e.catalog
}

// Check runs before every command: it refuses to work until the ledger has
// loaded, then makes sure the caller has an account.
func (e *Economy) Check(ctx chat.Context) error {
	if !e.store.Ready() {
		if err := ctx.Send(msgNotReady); err != nil {
			return err
		}
		return ErrNotReady
	}
	e.store.Touch(ctx.AuthorID())
	return nil
}

// IsAdmin reports whether user may run the privileged commands. An empty
// admin id locks them for everyone.
func (e *Economy) IsAdmin(user string) bool {
	return e.admin != "" && user == e.admin
}

// Use consumes one unit of item and runs its use-handler.
func (e *Economy) Use(ctx chat.Context, item string) error {
	item = catalog.Normalize(item)
	handler, ok := e.handlers.Lookup(item)
	if !ok {
		if !e.catalog.Has(item) {
			return e.invalidItem(ctx, item)
		}
		e.warn(ErrUnusableItem, ctx, "item=%s", item)
		return e.responder.UnusableItem(ctx, item)
	}

	user := ctx.AuthorID()
	left, err := e.store.AdjustQuantity(user, item, -1)
	if errors.Is(err, ledger.ErrInsufficientQuantity) {
		e.warn(ErrInsufficientQuantity, ctx, "item=%s", item)
		return e.responder.NoItems(ctx, item)
	}
	if err != nil {
		return err
	}
	e.journal.Info("use user=%s item=%s left=%d", user, item, left)
	if err := handler.Use(ctx, item); err != nil {
		e.logger.Printf("economy: use-handler for %s failed: %v", item, err)
		return fmt.Errorf("economy: use %s: %w", item, err)
	}
	return nil
}

// Buy debits price × quantity from the wallet and credits the items, as one
// all-or-nothing ledger update.
func (e *Economy) Buy(ctx chat.Context, item string, quantity int64) error {
	item = catalog.Normalize(item)
	entry, ok := e.catalog.Lookup(item)
	if !ok {
		return e.invalidItem(ctx, item)
	}
	cost, ok := totalCost(entry.Price, quantity)
	if !ok {
		return e.badQuantity(ctx, item, quantity)
	}

	user := ctx.AuthorID()
	var (
		bal   ledger.Balances
		owned int64
	)
	_, err := e.store.Update(user, func(a *ledger.Account) error {
		var err error
		if bal, err = a.AdjustWallet(-cost); err != nil {
			return err
		}
		owned, err = a.AdjustQuantity(item, quantity)
		return err
	})
	if errors.Is(err, ledger.ErrInsufficientFunds) {
		e.warn(ErrInsufficientFunds, ctx, "item=%s qty=%d cost=%d wallet=%d", item, quantity, cost, bal.Wallet)
		return ctx.Send(shortfallMessage(item, quantity, cost, bal))
	}
	if errors.Is(err, ledger.ErrQuantityOverflow) {
		return e.badQuantity(ctx, item, quantity)
	}
	if err != nil {
		return err
	}
	e.journal.Info("buy user=%s item=%s qty=%d cost=%d wallet=%d", user, item, quantity, cost, bal.Wallet)
	return ctx.Send(purchaseMessage(item, quantity, cost, owned, bal))
}

// Balance replies with the caller's wallet and bank figures.
func (e *Economy) Balance(ctx chat.Context) error {
	return ctx.Send(balanceMessage(e.store.Touch(ctx.AuthorID())))
}

// Inventory replies with what the caller owns.
func (e *Economy) Inventory(ctx chat.Context) error {
	return ctx.Send(inventoryMessage(e.store.Touch(ctx.AuthorID())))
}

// SaveData writes the ledger to its configured location. Admin only.
func (e *Economy) SaveData(ctx chat.Context) error {
	if err := e.requireAdmin(ctx); err != nil {
		return err
	}
	if err := e.store.Save(""); err != nil {
		e.journal.Error("save failed: %v", err)
		return err
	}
	e.journal.Info("save by=%s accounts=%d", ctx.AuthorID(), len(e.store.Users()))
	return ctx.Send(msgDone)
}

// LoadData reloads the ledger from disk. Admin only. The economy refuses
// other commands until the reload succeeds; a failed reload leaves it
// refusing them.
func (e *Economy) LoadData(ctx chat.Context) error {
	if err := e.requireAdmin(ctx); err != nil {
		return err
	}
	e.store.MarkUnready()
	if err := e.store.Load(); err != nil {
		e.journal.Error("load failed: %v", err)
		return err
	}
	e.journal.Info("load by=%s accounts=%d", ctx.AuthorID(), len(e.store.Users()))
	return ctx.Send(msgDone)
}

// LoadOnStartup performs the first load. A failure is logged and returned;
// the store stays unready so an admin can fix the file and run loaddata.
func (e *Economy) LoadOnStartup() error {
	if err := e.store.Load(); err != nil {
		e.logger.Printf("economy: initial load failed: %v", err)
		e.journal.Error("initial load failed: %v", err)
		return err
	}
	e.logger.Printf("economy: ready")
	return nil
}

func (e *Economy) requireAdmin(ctx chat.Context) error {
	if e.IsAdmin(ctx.AuthorID()) {
		return nil
	}
	if err := ctx.Send(msgNotPermitted); err != nil {
		return err
	}
	return ErrNotPermitted
}

func (e *Economy) invalidItem(ctx chat.Context, item string) error {
	suggestion, _ := e.catalog.Suggest(item)
	e.warn(ErrInvalidItem, ctx, "item=%s", item)
	return e.responder.InvalidItem(ctx, item, suggestion)
}

func (e *Economy) badQuantity(ctx chat.Context, item string, quantity int64) error {
	e.warn(ErrBadQuantity, ctx, "item=%s qty=%d", item, quantity)
	return ctx.Send(msgBadQuantity)
}

// warn journals a soft failure as "<sentinel>: user=<id> <details>".
func (e *Economy) warn(kind error, ctx chat.Context, format string, args ...any) {
	e.journal.Warn("%v: user=%s %s", kind, ctx.AuthorID(), fmt.Sprintf(format, args...))
}

func totalCost(price, quantity int64) (int64, bool) {
	if quantity < 1 {
		return 0, false
	}
	if price > 0 && quantity > math.MaxInt64/price {
		return 0, false
	}
	return price * quantity, true
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

type nopJournal struct{}

func (nopJournal) Info(string, ...any) string  { return "" }
func (nopJournal) Warn(string, ...any) string  { return "" }
func (nopJournal) Error(string, ...any) string { return "" }
