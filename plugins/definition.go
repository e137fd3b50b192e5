package plugins

import (
	"fmt"
	"strings"

	"github.com/kingrea/economy/internal/catalog"
	"github.com/kingrea/economy/internal/usehandler"
)

// Definition describes a use-handler declared outside the binary.
//
// The struct mirrors the on-disk schema under .economy/handlers/*.yaml. Name
// follows the use_<item> convention; Item may be given instead of (or in
// addition to) Name.
type Definition struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Item  string `json:"item,omitempty" yaml:"item,omitempty"`
	Reply string `json:"reply" yaml:"reply"`
}

// Normalized returns a trimmed copy with Item filled in from Name when the
// name is well formed.
func (def Definition) Normalized() Definition {
	clone := Definition{
		Name:  strings.TrimSpace(def.Name),
		Item:  catalog.Normalize(def.Item),
		Reply: strings.TrimSpace(def.Reply),
	}
	if clone.Item == "" && clone.Name != "" {
		if item, err := usehandler.ItemFromHandlerName(clone.Name); err == nil {
			clone.Item = item
		}
	}
	if clone.Name == "" && clone.Item != "" {
		clone.Name = usehandler.HandlerPrefix + clone.Item
	}
	return clone
}

// Validate ensures the definition names exactly one item and has a reply.
func (def Definition) Validate() error {
	name := strings.TrimSpace(def.Name)
	item := catalog.Normalize(def.Item)
	if name == "" && item == "" {
		return fmt.Errorf("plugin: name or item is required")
	}
	if name != "" {
		derived, err := usehandler.ItemFromHandlerName(name)
		if err != nil {
			return fmt.Errorf("plugin: %w", err)
		}
		if item != "" && item != derived {
			return fmt.Errorf("plugin %s: item %s does not match handler name", name, item)
		}
		item = derived
	}
	if strings.TrimSpace(def.Reply) == "" {
		return fmt.Errorf("plugin %s: reply is required", item)
	}
	return nil
}

// Render expands {user} and {item} in the reply.
func (def Definition) Render(user, item string) string {
	return strings.NewReplacer("{user}", user, "{item}", item).Replace(def.Reply)
}
