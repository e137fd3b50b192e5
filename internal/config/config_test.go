package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if c.Prefix() != "e " {
		t.Fatalf("expected default prefix, got %q", c.Prefix())
	}
	opts := c.LedgerOptions()
	if opts.WalletField != "balance" || opts.InventoryField != "inventory" || opts.BankField != "bank" {
		t.Fatalf("unexpected default fields: %+v", opts)
	}
	if opts.DefaultWallet == nil || *opts.DefaultWallet != 500 {
		t.Fatalf("expected starter wallet 500, got %v", opts.DefaultWallet)
	}
	want := filepath.Join(projectDir, EconomyDir, "bank_data.json")
	if c.DataFilePath() != want {
		t.Fatalf("data file = %s, want %s", c.DataFilePath(), want)
	}
}

func TestInitEconomyDirSeedsFiles(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitEconomyDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	for _, rel := range []string{"config.yaml", "bank_data.json", filepath.Join("handlers", "stick.yaml")} {
		if _, err := os.Stat(filepath.Join(projectDir, EconomyDir, rel)); err != nil {
			t.Fatalf("expected %s to be seeded: %v", rel, err)
		}
	}
	// A second run must not clobber edits.
	cfgPath := filepath.Join(projectDir, EconomyDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("version: 1\nadmin_id: owner\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitEconomyDir(projectDir); err != nil {
		t.Fatalf("second init: %v", err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if c.AdminID() != "owner" {
		t.Fatalf("config was overwritten; admin = %q", c.AdminID())
	}
}

func TestSeededConfigParses(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitEconomyDir(projectDir); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	cat, err := c.Catalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	stick, ok := cat.Lookup("stick")
	if !ok || stick.Price != 10 {
		t.Fatalf("stick missing from catalog: %+v", stick)
	}
	game, _ := cat.Lookup("game")
	if game.Metadata["description"] != "a board game" {
		t.Fatalf("metadata not kept: %+v", game.Metadata)
	}
	if c.Project.Bridge.Port != 8766 || c.Project.Bridge.DedupeWindow != 1024 || c.ConsoleUser() != "console" {
		t.Fatalf("unexpected bridge/console config: %+v %+v", c.Project.Bridge, c.Project.Console)
	}
}

func TestLoadProjectConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	economyDir := filepath.Join(projectDir, EconomyDir)
	if err := os.MkdirAll(economyDir, 0o755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
data_file: /tmp/elsewhere/data.json
admin_id: " 1234 "
prefix: "!"
fields:
  wallet: coins
  inventory: bag
  bank: vault
defaults:
  wallet: 50
  bank_capacity: 10
  inventory:
    Stick: 2
items:
  Stick:
    price: 3
`)
	if err := os.WriteFile(filepath.Join(economyDir, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.AdminID() != "1234" || c.Prefix() != "!" {
		t.Fatalf("admin/prefix not parsed: %q %q", c.AdminID(), c.Prefix())
	}
	if c.DataFilePath() != "/tmp/elsewhere/data.json" {
		t.Fatalf("absolute data file not kept: %s", c.DataFilePath())
	}
	opts := c.LedgerOptions()
	if opts.WalletField != "coins" || opts.InventoryField != "bag" || opts.BankField != "vault" {
		t.Fatalf("fields not parsed: %+v", opts)
	}
	if opts.DefaultInventory["stick"] != 2 {
		t.Fatalf("starter inventory not normalised: %+v", opts.DefaultInventory)
	}
}

func TestLoadProjectConfigValidation(t *testing.T) {
	cases := map[string]string{
		"duplicate fields":  "version: 1\nfields:\n  wallet: x\n  inventory: x\n",
		"negative wallet":   "version: 1\ndefaults:\n  wallet: -1\n",
		"negative price":    "version: 1\nitems:\n  stick:\n    price: -5\n",
		"zero starter qty":  "version: 1\ndefaults:\n  inventory:\n    stick: 0\n",
		"bad port":          "version: 1\nbridge:\n  port: 70000\n",
		"negative body cap": "version: 1\nbridge:\n  max_body_bytes: -1\n",
		"bad yaml":          "version: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			projectDir := t.TempDir()
			economyDir := filepath.Join(projectDir, EconomyDir)
			if err := os.MkdirAll(economyDir, 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(economyDir, "config.yaml"), []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewConfig(projectDir); err == nil {
				t.Fatalf("expected validation error but got none")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv("ECONOMY_ADMIN_ID", "boss")
	t.Setenv("ECONOMY_DATA_FILE", "other.json")
	t.Setenv("ECONOMY_PREFIX", "")
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if c.AdminID() != "boss" {
		t.Fatalf("admin override ignored: %q", c.AdminID())
	}
	if filepath.Base(c.DataFilePath()) != "other.json" {
		t.Fatalf("data file override ignored: %s", c.DataFilePath())
	}
	if c.Prefix() != "" {
		t.Fatalf("empty prefix override ignored: %q", c.Prefix())
	}
}

func TestDotEnvFeedsOverrides(t *testing.T) {
	projectDir := t.TempDir()
	t.Setenv("ECONOMY_ADMIN_ID", "")
	if err := os.Unsetenv("ECONOMY_ADMIN_ID"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(projectDir, ".env"), []byte("ECONOMY_ADMIN_ID=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	if c.AdminID() != "from-dotenv" {
		t.Fatalf(".env value not applied: %q", c.AdminID())
	}
}
