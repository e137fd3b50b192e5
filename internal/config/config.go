// internal/config/config.go
//
// This package handles configuration and the .economy directory structure.
// Every project that runs the economy gets a .economy/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kingrea/economy/internal/catalog"
	"github.com/kingrea/economy/internal/ledger"
)

const (
	// EconomyDir is the name of the directory we create in each project
	EconomyDir = ".economy"

	defaultDataFile = "bank_data.json"
	defaultPrefix   = "e "
	defaultConsole  = "console"
)

const defaultProjectConfigYAML = `# economy configuration
version: 1

# Ledger document, relative to .economy/ unless absolute.
data_file: bank_data.json

# Identity allowed to run savedata / loaddata.
admin_id: ""

# Prefix chat adapters expect before a command, e.g. "e buy stick".
prefix: "e "

# Keys used inside each account of the ledger document.
fields:
  wallet: balance
  inventory: inventory
  bank: bank

# Starter account handed to new users.
defaults:
  wallet: 500
  bank_balance: 0
  bank_capacity: 1000
  inventory: {}

# The item catalog. Keys other than price are kept as item metadata.
items:
  stick:
    price: 10
  game:
    price: 60
    description: a board game
  brain:
    price: 1000

bridge:
  enabled: true
  host: 127.0.0.1
  port: 8766
  max_body_bytes: 65536
  dedupe_window: 1024

console:
  user: console
`

const emptyLedgerJSON = `{
    "accounts": {}
}
`

const exampleHandlerYAML = `# Handlers named use_<item> serve <item>; set item: to name it explicitly.
name: use_stick
reply: "You used a stick, lol"
`

// FieldsConfig names the keys used inside each persisted account.
type FieldsConfig struct {
	Wallet    string `yaml:"wallet"`
	Inventory string `yaml:"inventory"`
	Bank      string `yaml:"bank"`
}

// DefaultsConfig describes the starter account.
type DefaultsConfig struct {
	Wallet       int64            `yaml:"wallet"`
	BankBalance  int64            `yaml:"bank_balance"`
	BankCapacity int64            `yaml:"bank_capacity"`
	Inventory    map[string]int64 `yaml:"inventory,omitempty"`
}

// ItemConfig is one catalog entry. Unknown keys land in Metadata.
type ItemConfig struct {
	Price    int64          `yaml:"price"`
	Metadata map[string]any `yaml:",inline"`
}

// BridgeConfig captures the HTTP bridge preferences. Zero values fall back
// to the bridge defaults.
type BridgeConfig struct {
	Enabled      *bool  `yaml:"enabled,omitempty"`
	Host         string `yaml:"host,omitempty"`
	Port         int    `yaml:"port,omitempty"`
	MaxBodyBytes int64  `yaml:"max_body_bytes,omitempty"`
	DedupeWindow int    `yaml:"dedupe_window,omitempty"`
}

// ConsoleConfig captures console preferences.
type ConsoleConfig struct {
	User string `yaml:"user,omitempty"`
}

// ProjectConfig models .economy/config.yaml.
type ProjectConfig struct {
	Version  int                   `yaml:"version"`
	DataFile string                `yaml:"data_file"`
	AdminID  string                `yaml:"admin_id"`
	Prefix   string                `yaml:"prefix"`
	Fields   FieldsConfig          `yaml:"fields"`
	Defaults DefaultsConfig        `yaml:"defaults"`
	Items    map[string]ItemConfig `yaml:"items"`
	Bridge   BridgeConfig          `yaml:"bridge"`
	Console  ConsoleConfig         `yaml:"console"`
}

// Config holds the runtime configuration for the economy.
type Config struct {
	// ProjectDir is the directory the economy was started from
	ProjectDir string

	// EconomyProjectDir is ProjectDir/.economy
	EconomyProjectDir string

	Project ProjectConfig
}

// InitEconomyDir creates the .economy directory structure in the given
// project directory and seeds the files a first run needs.
//
// Structure created:
// .economy/
// ├── config.yaml
// ├── bank_data.json   <- the ledger document
// ├── handlers/        <- use-handler plugins (*.yaml, *.go)
// └── logs/            <- economy.log and ledger.log
func InitEconomyDir(projectDir string) error {
	economyDir := filepath.Join(projectDir, EconomyDir)

	dirs := []string{
		economyDir,
		filepath.Join(economyDir, "logs"),
		filepath.Join(economyDir, "handlers"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	seeds := []struct {
		path string
		body string
	}{
		{filepath.Join(economyDir, "config.yaml"), defaultProjectConfigYAML},
		{filepath.Join(economyDir, defaultDataFile), emptyLedgerJSON},
		{filepath.Join(economyDir, "handlers", "stick.yaml"), exampleHandlerYAML},
	}
	for _, seed := range seeds {
		if err := ensureFile(seed.path, seed.body); err != nil {
			return err
		}
	}
	return nil
}

// NewConfig creates a new Config instance populated with project settings.
// A .env file in the project directory, when present, is loaded first so its
// values can feed the environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(projectDir, ".env"))

	cfg := &Config{
		ProjectDir:        projectDir,
		EconomyProjectDir: filepath.Join(projectDir, EconomyDir),
		Project:           defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// DataFilePath returns the absolute location of the ledger document.
func (c *Config) DataFilePath() string {
	return resolvePath(c.EconomyProjectDir, c.Project.DataFile)
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.EconomyProjectDir, "logs")
}

// HandlersDir returns the directory scanned for use-handler plugins
func (c *Config) HandlersDir() string {
	return filepath.Join(c.EconomyProjectDir, "handlers")
}

// JournalPath returns the ledger journal location
func (c *Config) JournalPath() string {
	return filepath.Join(c.LogsDir(), "ledger.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.EconomyProjectDir, "config.yaml")
}

// AdminID returns the identity allowed to run privileged commands.
func (c *Config) AdminID() string {
	return c.Project.AdminID
}

// Prefix returns the chat command prefix.
func (c *Config) Prefix() string {
	return c.Project.Prefix
}

// ConsoleUser returns the identity used by the local console.
func (c *Config) ConsoleUser() string {
	return c.Project.Console.User
}

// Catalog builds the item catalog from the configured items.
func (c *Config) Catalog() (*catalog.Catalog, error) {
	items := make(map[string]catalog.Item, len(c.Project.Items))
	for name, item := range c.Project.Items {
		items[name] = catalog.Item{Price: item.Price, Metadata: item.Metadata}
	}
	cat, err := catalog.New(items)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cat, nil
}

// LedgerOptions translates the configuration into store options.
func (c *Config) LedgerOptions() ledger.Options {
	inv := make(map[string]int64, len(c.Project.Defaults.Inventory))
	for item, qty := range c.Project.Defaults.Inventory {
		inv[item] = qty
	}
	return ledger.Options{
		Path:                c.DataFilePath(),
		WalletField:         c.Project.Fields.Wallet,
		InventoryField:      c.Project.Fields.Inventory,
		BankField:           c.Project.Fields.Bank,
		DefaultWallet:       ledger.Coins(c.Project.Defaults.Wallet),
		DefaultBankBalance:  c.Project.Defaults.BankBalance,
		DefaultBankCapacity: c.Project.Defaults.BankCapacity,
		DefaultInventory:    inv,
	}
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("ECONOMY_DATA_FILE")); value != "" {
		c.Project.DataFile = value
	}
	if value := strings.TrimSpace(os.Getenv("ECONOMY_ADMIN_ID")); value != "" {
		c.Project.AdminID = value
	}
	if value, ok := os.LookupEnv("ECONOMY_PREFIX"); ok {
		c.Project.Prefix = value
	}
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{
		Version: 1,
		Defaults: DefaultsConfig{
			Wallet:       ledger.DefaultWallet,
			BankCapacity: 1000,
		},
		Prefix: defaultPrefix,
	}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.DataFile) == "" {
		pc.DataFile = defaultDataFile
	}
	if pc.Fields.Wallet == "" {
		pc.Fields.Wallet = ledger.DefaultWalletField
	}
	if pc.Fields.Inventory == "" {
		pc.Fields.Inventory = ledger.DefaultInventoryField
	}
	if pc.Fields.Bank == "" {
		pc.Fields.Bank = ledger.DefaultBankField
	}
	if pc.Items == nil {
		pc.Items = map[string]ItemConfig{}
	}
	if pc.Defaults.Inventory == nil {
		pc.Defaults.Inventory = map[string]int64{}
	}
	if strings.TrimSpace(pc.Console.User) == "" {
		pc.Console.User = defaultConsole
	}
}

func (pc *ProjectConfig) normalize() {
	pc.DataFile = strings.TrimSpace(pc.DataFile)
	pc.AdminID = strings.TrimSpace(pc.AdminID)
	pc.Fields.Wallet = strings.TrimSpace(pc.Fields.Wallet)
	pc.Fields.Inventory = strings.TrimSpace(pc.Fields.Inventory)
	pc.Fields.Bank = strings.TrimSpace(pc.Fields.Bank)
	pc.Console.User = strings.TrimSpace(pc.Console.User)
	pc.Bridge.Host = strings.TrimSpace(pc.Bridge.Host)
	inv := make(map[string]int64, len(pc.Defaults.Inventory))
	for item, qty := range pc.Defaults.Inventory {
		inv[catalog.Normalize(item)] = qty
	}
	pc.Defaults.Inventory = inv
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.DataFile == "" {
		return fmt.Errorf("data_file is required")
	}
	fields := map[string]string{
		"wallet":    pc.Fields.Wallet,
		"inventory": pc.Fields.Inventory,
		"bank":      pc.Fields.Bank,
	}
	seen := map[string]string{}
	for role, name := range fields {
		if name == "" {
			return fmt.Errorf("fields.%s is required", role)
		}
		if other, ok := seen[name]; ok {
			return fmt.Errorf("fields.%s and fields.%s both use %q", other, role, name)
		}
		seen[name] = role
	}
	if pc.Defaults.Wallet < 0 || pc.Defaults.BankBalance < 0 || pc.Defaults.BankCapacity < 0 {
		return fmt.Errorf("defaults must not be negative")
	}
	for item, qty := range pc.Defaults.Inventory {
		if item == "" {
			return fmt.Errorf("defaults.inventory has an empty item name")
		}
		if qty <= 0 {
			return fmt.Errorf("defaults.inventory[%s] must be > 0", item)
		}
	}
	names := map[string]struct{}{}
	for name, item := range pc.Items {
		key := catalog.Normalize(name)
		if key == "" {
			return fmt.Errorf("items: empty item name")
		}
		if _, dup := names[key]; dup {
			return fmt.Errorf("items[%s]: duplicate item name", key)
		}
		names[key] = struct{}{}
		if item.Price < 0 {
			return fmt.Errorf("items[%s]: price must be >= 0", key)
		}
	}
	if pc.Bridge.Port < 0 || pc.Bridge.Port > 65535 {
		return fmt.Errorf("bridge.port must be between 0 and 65535")
	}
	if pc.Bridge.MaxBodyBytes < 0 || pc.Bridge.DedupeWindow < 0 {
		return fmt.Errorf("bridge.max_body_bytes and bridge.dedupe_window must not be negative")
	}
	return nil
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureFile(path, body string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(body), 0o644)
}
