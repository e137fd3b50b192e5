// Package catalog holds the immutable set of items the economy sells.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Item is one purchasable entry. Metadata carries whatever extra keys the
// embedding application attached (descriptions, emoji, ...).
type Item struct {
	Name     string
	Price    int64
	Metadata map[string]any
}

// Catalog maps lowercase item names to items. It is never mutated after New.
type Catalog struct {
	items map[string]Item
	names []string
}

// Normalize returns the canonical (trimmed, lowercase) form of an item name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// New validates items and builds a catalog. Keys are normalised, so "Stick"
// and "stick" collide.
func New(items map[string]Item) (*Catalog, error) {
	c := &Catalog{items: make(map[string]Item, len(items))}
	for key, item := range items {
		name := Normalize(key)
		if name == "" {
			return nil, fmt.Errorf("catalog: item name is required")
		}
		if strings.ContainsAny(name, " \t\n") {
			return nil, fmt.Errorf("catalog: item %q must be a single word", name)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("catalog: item %s has negative price %d", name, item.Price)
		}
		if _, dup := c.items[name]; dup {
			return nil, fmt.Errorf("catalog: duplicate item %s", name)
		}
		item.Name = name
		if len(item.Metadata) > 0 {
			meta := make(map[string]any, len(item.Metadata))
			for k, v := range item.Metadata {
				meta[k] = v
			}
			item.Metadata = meta
		}
		c.items[name] = item
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c, nil
}

// Lookup finds an item by name, ignoring case.
func (c *Catalog) Lookup(name string) (Item, bool) {
	if c == nil {
		return Item{}, false
	}
	item, ok := c.items[Normalize(name)]
	return item, ok
}

// Has reports whether name is catalogued.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Lookup(name)
	return ok
}

// Names returns the catalogued item names in sorted order.
func (c *Catalog) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Len returns the number of catalogued items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.names)
}

// Suggest returns the catalogued name that best matches a mistyped one.
func (c *Catalog) Suggest(name string) (string, bool) {
	if c == nil || len(c.names) == 0 {
		return "", false
	}
	pattern := Normalize(name)
	if pattern == "" {
		return "", false
	}
	matches := fuzzy.Find(pattern, c.names)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
