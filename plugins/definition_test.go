package plugins

import (
	"errors"
	"strings"
	"testing"

	"github.com/kingrea/economy/internal/usehandler"
)

func TestDefinitionNormalizedDerivesItem(t *testing.T) {
	def := Definition{Name: " use_Stick ", Reply: " You used a stick, lol "}.Normalized()
	if def.Item != "stick" {
		t.Fatalf("item = %q, want stick", def.Item)
	}
	if def.Reply != "You used a stick, lol" {
		t.Fatalf("reply not trimmed: %q", def.Reply)
	}

	byItem := Definition{Item: "Game", Reply: "gg"}.Normalized()
	if byItem.Name != "use_game" || byItem.Item != "game" {
		t.Fatalf("unexpected definition: %+v", byItem)
	}
}

func TestDefinitionValidateFailures(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
		msg  string
	}{
		{name: "nothing named", def: Definition{Reply: "hi"}, msg: "name or item is required"},
		{name: "missing reply", def: Definition{Name: "use_stick"}, msg: "reply is required"},
		{name: "item mismatch", def: Definition{Name: "use_stick", Item: "brain", Reply: "hi"}, msg: "does not match"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.def.Validate(); err == nil || !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("expected error containing %q, got %v", tc.msg, err)
			}
		})
	}
}

func TestDefinitionValidateImproperName(t *testing.T) {
	for _, name := range []string{"stick", "use_", "usestick"} {
		err := Definition{Name: name, Reply: "hi"}.Validate()
		if !errors.Is(err, usehandler.ErrImproperHandlerName) {
			t.Fatalf("name %q: expected ErrImproperHandlerName, got %v", name, err)
		}
	}
}

func TestDefinitionRender(t *testing.T) {
	def := Definition{Reply: "{user} waved the {item}. The {item} broke."}
	got := def.Render("u1", "stick")
	want := "u1 waved the stick. The stick broke."
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}
