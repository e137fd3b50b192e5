// Package usehandler is the explicit table of item use-handlers, built at
// startup and read-only afterwards.
package usehandler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kingrea/economy/internal/chat"
)

// HandlerPrefix is the naming convention for handlers whose item is derived
// from their name: use_stick handles "stick".
const HandlerPrefix = "use_"

// ErrImproperHandlerName matches every *ImproperHandlerNameError.
var ErrImproperHandlerName = errors.New("improper use-handler name")

// ImproperHandlerNameError is returned at registration time when an item
// cannot be derived from a handler name.
type ImproperHandlerNameError struct {
	Name string
}

func (e *ImproperHandlerNameError) Error() string {
	return fmt.Sprintf("usehandler: %q is an invalid name for a use handler (want %s<item>)", e.Name, HandlerPrefix)
}

func (e *ImproperHandlerNameError) Is(target error) bool {
	return target == ErrImproperHandlerName
}

// Handler runs when a user consumes one unit of item.
type Handler interface {
	Use(ctx chat.Context, item string) error
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(ctx chat.Context, item string) error

// Use executes f(ctx, item).
func (f HandlerFunc) Use(ctx chat.Context, item string) error {
	if f == nil {
		return nil
	}
	return f(ctx, item)
}

// ItemFromHandlerName derives the item a use_<item> handler serves.
func ItemFromHandlerName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, HandlerPrefix) || len(lower) <= len(HandlerPrefix) {
		return "", &ImproperHandlerNameError{Name: name}
	}
	item := lower[len(HandlerPrefix):]
	if strings.TrimSpace(item) != item || strings.ContainsAny(item, " \t\n") {
		return "", &ImproperHandlerNameError{Name: name}
	}
	return item, nil
}

// Registry maps item names to handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register installs a handler for item. Returns an error if item already has one.
func (r *Registry) Register(item string, h Handler) error {
	key := strings.ToLower(strings.TrimSpace(item))
	if key == "" {
		return fmt.Errorf("usehandler: item is required")
	}
	if h == nil {
		return fmt.Errorf("usehandler: handler is required for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[key]; exists {
		return fmt.Errorf("usehandler: %s already has a handler", key)
	}
	r.handlers[key] = h
	return nil
}

// RegisterNamed installs a handler whose item is derived from its name.
func (r *Registry) RegisterNamed(name string, h Handler) (string, error) {
	item, err := ItemFromHandlerName(name)
	if err != nil {
		return "", err
	}
	return item, r.Register(item, h)
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(item string, h Handler) {
	if err := r.Register(item, h); err != nil {
		panic(err)
	}
}

// MustRegisterNamed panics if registration fails.
func (r *Registry) MustRegisterNamed(name string, h Handler) {
	if _, err := r.RegisterNamed(name, h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler for item.
func (r *Registry) Lookup(item string) (Handler, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[strings.ToLower(strings.TrimSpace(item))]
	return h, ok
}

// Has reports whether item has a handler.
func (r *Registry) Has(item string) bool {
	_, ok := r.Lookup(item)
	return ok
}

// Items returns the items with handlers in sorted order.
func (r *Registry) Items() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]string, 0, len(r.handlers))
	for item := range r.handlers {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}
