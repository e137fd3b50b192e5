// Package plugins loads use-handlers declared outside the binary: YAML files
// and Go source files interpreted at startup, both under .economy/handlers.
package plugins

import (
	"fmt"

	"github.com/kingrea/economy/internal/catalog"
	"github.com/kingrea/economy/internal/chat"
	"github.com/kingrea/economy/internal/usehandler"
)

// RegisterOption customizes RegisterHandlerPlugins.
type RegisterOption func(*registerConfig)

type registerConfig struct {
	catalog *catalog.Catalog
}

// WithCatalog rejects handlers for items the catalog does not list.
func WithCatalog(cat *catalog.Catalog) RegisterOption {
	return func(c *registerConfig) {
		c.catalog = cat
	}
}

// RegisterHandlerPlugins discovers YAML and Go handler definitions under dir
// and registers a reply handler for each. It returns the registered items in
// discovery order.
func RegisterHandlerPlugins(reg *usehandler.Registry, dir string, opts ...RegisterOption) ([]string, error) {
	if reg == nil {
		return nil, nil
	}
	var cfg registerConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	defs, err := loadAllDefinitionFiles(dir)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]string, len(defs))
	items := make([]string, 0, len(defs))
	for _, file := range defs {
		def := file.Definition
		if existing, ok := seen[def.Item]; ok {
			return nil, fmt.Errorf("plugin: duplicate handler for %s (%s and %s)", def.Item, existing, file.Path)
		}
		seen[def.Item] = file.Path
		if cfg.catalog != nil && !cfg.catalog.Has(def.Item) {
			return nil, fmt.Errorf("plugin: %s: %s is not a catalogued item", file.Path, def.Item)
		}
		if err := reg.Register(def.Item, replyHandler(def)); err != nil {
			return nil, fmt.Errorf("plugin: register %s from %s: %w", def.Item, file.Path, err)
		}
		items = append(items, def.Item)
	}
	return items, nil
}

func replyHandler(def Definition) usehandler.Handler {
	return usehandler.HandlerFunc(func(ctx chat.Context, item string) error {
		return ctx.Send(def.Render(ctx.AuthorID(), item))
	})
}

func loadAllDefinitionFiles(dir string) ([]DefinitionFile, error) {
	yamlDefs, err := LoadDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	goDefs, err := LoadGoDefinitionDir(dir)
	if err != nil {
		return nil, err
	}
	return append(yamlDefs, goDefs...), nil
}
