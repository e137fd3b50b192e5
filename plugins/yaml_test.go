package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const stickDefinition = `name: use_stick
reply: "You used a stick, lol"
`

func TestParseDefinitionYAML(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte(stickDefinition))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Item != "stick" || def.Reply != "You used a stick, lol" {
		t.Fatalf("unexpected definition: %+v", def)
	}
}

func TestParseDefinitionYAMLErrors(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"unknown key": "name: use_stick\nreploy: hi\n",
		"bad name":    "name: stick\nreply: hi\n",
		"not yaml":    "name: [unterminated\n",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseDefinitionYAML([]byte(payload)); err == nil {
				t.Fatalf("expected %s payload to fail", name)
			}
		})
	}
}

func TestLoadDefinitionDir(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "stick.yaml")
	if err := os.WriteFile(path, []byte(stickDefinition), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "game.YML"), []byte("item: game\nreply: gg\n"), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	if err := os.Mkdir(filepath.Join(root, "nested.yaml"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	defs, err := LoadDefinitionDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Definition.Item != "game" || defs[1].Definition.Item != "stick" {
		t.Fatalf("unexpected order: %+v", defs)
	}
	if defs[1].Path != path {
		t.Fatalf("expected path %s, got %s", path, defs[1].Path)
	}
}

func TestLoadDefinitionDirReportsFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "broken.yaml"), []byte("name: use_stick\n"), 0644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	_, err := LoadDefinitionDir(root)
	if err == nil || !strings.Contains(err.Error(), "broken.yaml") {
		t.Fatalf("expected error naming broken.yaml, got %v", err)
	}
}

func TestLoadDefinitionDirMissing(t *testing.T) {
	defs, err := LoadDefinitionDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected nil slice for missing dir, got %v", defs)
	}
}
