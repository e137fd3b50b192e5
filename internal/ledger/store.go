package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
)

// Logger records store status information. It matches logging.Logger's signature.
type Logger interface {
	Printf(format string, args ...any)
}

// StoreOption customizes Store construction.
type StoreOption func(*Store)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store keeps the whole ledger in memory and reads/writes it wholesale.
//
//   - ioMu: at most one Load or Save is in flight.
//   - mu: guards accounts and the carried-through unknown keys.
//   - ready: false until the first successful Load, and again while an
//     operator reload is in progress.
type Store struct {
	opts   Options
	logger Logger

	ioMu  sync.Mutex
	ready atomic.Bool

	mu           sync.RWMutex
	accounts     map[string]*Account
	extra        map[string]json.RawMessage
	accountExtra map[string]map[string]json.RawMessage
}

// NewStore returns an unready store for the document at opts.Path.
func NewStore(opts Options, storeOpts ...StoreOption) *Store {
	s := &Store{
		opts:         opts.withDefaults(),
		logger:       nopLogger{},
		accounts:     map[string]*Account{},
		extra:        map[string]json.RawMessage{},
		accountExtra: map[string]map[string]json.RawMessage{},
	}
	for _, opt := range storeOpts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Path returns the default document location.
func (s *Store) Path() string {
	return s.opts.Path
}

// Ready reports whether the ledger finished loading.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// MarkUnready flips readiness off ahead of a reload.
func (s *Store) MarkUnready() {
	s.ready.Store(false)
}

// Load replaces the in-memory ledger with the persisted document and marks
// the store ready. On failure the in-memory ledger and readiness are left as
// they were.
func (s *Store) Load() error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	path := s.opts.Path
	data, err := os.ReadFile(path)
	if err != nil {
		return persistenceErr("load", path, err)
	}
	doc, err := decodeDocument(data, s.opts)
	if err != nil {
		return persistenceErr("load", path, err)
	}

	s.mu.Lock()
	s.accounts = doc.accounts
	s.extra = doc.extra
	s.accountExtra = doc.accountExtra
	s.mu.Unlock()

	s.ready.Store(true)
	s.logger.Printf("ledger: loaded %d accounts from %s", len(doc.accounts), path)
	return nil
}

// Save writes the full ledger to target, or to the configured path when
// target is empty. The file is written to target+".tmp" and renamed into
// place so a failed write never leaves a torn document behind.
func (s *Store) Save(target string) error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()

	path := target
	if path == "" {
		path = s.opts.Path
	}

	s.mu.RLock()
	doc := document{
		accounts:     make(map[string]*Account, len(s.accounts)),
		extra:        s.extra,
		accountExtra: s.accountExtra,
	}
	for user, acct := range s.accounts {
		cp := acct.Clone()
		doc.accounts[user] = &cp
	}
	data, err := encodeDocument(doc, s.opts)
	s.mu.RUnlock()
	if err != nil {
		return persistenceErr("save", path, err)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return persistenceErr("save", path, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return persistenceErr("save", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return persistenceErr("save", path, err)
	}
	s.logger.Printf("ledger: saved %d accounts to %s", len(doc.accounts), path)
	return nil
}

// Touch returns the user's account, creating a starter account first if the
// user has never been seen.
func (s *Store) Touch(user string) Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touchLocked(user).Clone()
}

func (s *Store) touchLocked(user string) *Account {
	acct, ok := s.accounts[user]
	if !ok {
		starter := StarterAccount(s.opts)
		acct = &starter
		s.accounts[user] = acct
	}
	return acct
}

// Account returns a copy of the user's account without creating one.
func (s *Store) Account(user string) (Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[user]
	if !ok {
		return Account{}, false
	}
	return acct.Clone(), true
}

// Users returns every known user id in sorted order.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]string, 0, len(s.accounts))
	for user := range s.accounts {
		users = append(users, user)
	}
	sort.Strings(users)
	return users
}

// Snapshot returns a deep copy of every account.
func (s *Store) Snapshot() map[string]Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Account, len(s.accounts))
	for user, acct := range s.accounts {
		out[user] = acct.Clone()
	}
	return out
}

// Update runs fn against the user's live account under the store lock. If fn
// returns an error every change it made is rolled back, so a multi-step
// mutation is applied completely or not at all.
func (s *Store) Update(user string, fn func(*Account) error) (Account, error) {
	if fn == nil {
		return Account{}, fmt.Errorf("ledger: update for %s: nil func", user)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := s.touchLocked(user)
	before := acct.Clone()
	if err := fn(acct); err != nil {
		*acct = before
		return before.Clone(), err
	}
	return acct.Clone(), nil
}

// AdjustQuantity changes the quantity of item held by user. See
// Account.AdjustQuantity for the soft-failure contract.
func (s *Store) AdjustQuantity(user, item string, delta int64) (int64, error) {
	var qty int64
	_, err := s.Update(user, func(a *Account) error {
		var err error
		qty, err = a.AdjustQuantity(item, delta)
		return err
	})
	return qty, err
}

// AdjustWallet changes the user's wallet balance. See Account.AdjustWallet for
// the soft-failure contract.
func (s *Store) AdjustWallet(user string, delta int64) (Balances, error) {
	var bal Balances
	_, err := s.Update(user, func(a *Account) error {
		var err error
		bal, err = a.AdjustWallet(delta)
		return err
	})
	return bal, err
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
