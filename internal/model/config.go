package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Dedup policies for queueing the same item twice (see CartConfig.DedupPolicy).
const (
	DedupNone       = "none"
	DedupByItemLink = "item_link"
)

// defaultSheetURL is the published TSV export of the site's page table.
const defaultSheetURL = "https://docs.google.com/spreadsheets/d/e/2PACX-1vQnARSkARuiT-loYhnqLfEQ5tl0CecRL39x1fsg2T1y56xLMjpoz8JauaUHa7rIUlQD09UVF3MAMECt/pub?output=tsv"

// CartConfig holds bulk-checkout settings.
type CartConfig struct {
	// AssociateTag is appended to every generated cart URL.
	AssociateTag string `mapstructure:"associate_tag" yaml:"associate_tag"`

	// BatchLimit caps how many items a single cart URL may carry.
	BatchLimit int `mapstructure:"batch_limit" yaml:"batch_limit"`

	// DedupPolicy controls whether queueing the same item twice appends a
	// second snapshot ("none") or is ignored ("item_link").
	DedupPolicy string `mapstructure:"dedup_policy" yaml:"dedup_policy"`
}

// DisplayConfig holds UI preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	// SheetURL is the published TSV export holding the page table.
	SheetURL string `mapstructure:"sheet_url" yaml:"sheet_url"`

	// DatabasePath locates the local SQLite state database.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	// LogPath locates the application log file (stdout belongs to the UI).
	LogPath string `mapstructure:"log_path" yaml:"log_path"`

	Cart    CartConfig    `mapstructure:"cart" yaml:"cart"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/packlist/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "packlist", "config.yaml")
}

// defaultDataDir returns the directory for the database and log files.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "packlist")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dataDir := defaultDataDir()
	return &AppConfig{
		SheetURL:     defaultSheetURL,
		DatabasePath: filepath.Join(dataDir, "packlist.db"),
		LogPath:      filepath.Join(dataDir, "packlist.log"),
		Cart: CartConfig{
			AssociateTag: "ceprince-20",
			BatchLimit:   10,
			DedupPolicy:  DedupByItemLink,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	defaults := defaultAppConfig()

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("sheet_url", defaults.SheetURL)
	v.SetDefault("database_path", defaults.DatabasePath)
	v.SetDefault("log_path", defaults.LogPath)
	v.SetDefault("cart.associate_tag", defaults.Cart.AssociateTag)
	v.SetDefault("cart.batch_limit", defaults.Cart.BatchLimit)
	v.SetDefault("cart.dedup_policy", defaults.Cart.DedupPolicy)
	v.SetDefault("display.theme", defaults.Display.Theme)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaults, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Cart.BatchLimit <= 0 {
		cfg.Cart.BatchLimit = defaults.Cart.BatchLimit
	}
	if cfg.Cart.DedupPolicy != DedupNone && cfg.Cart.DedupPolicy != DedupByItemLink {
		cfg.Cart.DedupPolicy = DedupByItemLink
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("sheet_url", cfg.SheetURL)
	v.Set("database_path", cfg.DatabasePath)
	v.Set("log_path", cfg.LogPath)
	v.Set("cart", cfg.Cart)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
