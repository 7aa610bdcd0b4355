package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// APIConfig holds the endpoints and identity used against the GreenSpace API.
type APIConfig struct {
	// BaseURL is the root URL of the REST API.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// PushURL is the websocket URL of the notification hub. When empty the
	// client runs without push updates and relies on manual refresh.
	PushURL string `mapstructure:"push_url" yaml:"push_url"`

	// OwnerID is the contractor/designer whose work items are synced.
	OwnerID string `mapstructure:"owner_id" yaml:"owner_id"`

	// UserID is the account whose notifications and cart are loaded.
	UserID string `mapstructure:"user_id" yaml:"user_id"`
}

// DebugOffset shifts the effective clock for demos. It never changes the
// authoritative clock used for gating decisions.
type DebugOffset struct {
	Hours   int `mapstructure:"hours" yaml:"hours"`
	Minutes int `mapstructure:"minutes" yaml:"minutes"`
}

// Duration returns the offset as a time.Duration.
func (d DebugOffset) Duration() time.Duration {
	return time.Duration(d.Hours)*time.Hour + time.Duration(d.Minutes)*time.Minute
}

// PolicyConfig holds the action time-window settings.
type PolicyConfig struct {
	LeadMinutes int         `mapstructure:"lead_minutes" yaml:"lead_minutes"`
	DebugOffset DebugOffset `mapstructure:"debug_offset" yaml:"debug_offset"`
}

// SyncConfig tunes the cache reconciler and gate monitor.
type SyncConfig struct {
	SilentDebounceMs   int `mapstructure:"silent_debounce_ms" yaml:"silent_debounce_ms"`
	SilentApplyDelayMs int `mapstructure:"silent_apply_delay_ms" yaml:"silent_apply_delay_ms"`
	GateTickMs         int `mapstructure:"gate_tick_ms" yaml:"gate_tick_ms"`
}

// CartConfig tunes the optimistic cart.
type CartConfig struct {
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Policy  PolicyConfig  `mapstructure:"policy" yaml:"policy"`
	Sync    SyncConfig    `mapstructure:"sync" yaml:"sync"`
	Cart    CartConfig    `mapstructure:"cart" yaml:"cart"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	DBPath  string        `mapstructure:"db_path" yaml:"db_path"`
}

// Millis converts a millisecond setting to a duration, substituting def
// for non-positive values.
func Millis(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/greenspace/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "greenspace", "config.yaml")
}

// DefaultDBPath returns the default location of the local cache database.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "greenspace.db")
	}
	return filepath.Join(home, ".config", "greenspace", "cache.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
		},
		Policy: PolicyConfig{
			LeadMinutes: 15,
		},
		Sync: SyncConfig{
			SilentDebounceMs:   100,
			SilentApplyDelayMs: 50,
			GateTickMs:         500,
		},
		Cart: CartConfig{
			DebounceMs: 500,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		DBPath: DefaultDBPath(),
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with GREENSPACE_ override file values
// (e.g. GREENSPACE_API_BASE_URL). If the file does not exist, it returns a
// default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("greenspace")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := defaultAppConfig()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.push_url", "")
	v.SetDefault("api.owner_id", "")
	v.SetDefault("api.user_id", "")
	v.SetDefault("policy.lead_minutes", def.Policy.LeadMinutes)
	v.SetDefault("policy.debug_offset.hours", 0)
	v.SetDefault("policy.debug_offset.minutes", 0)
	v.SetDefault("sync.silent_debounce_ms", def.Sync.SilentDebounceMs)
	v.SetDefault("sync.silent_apply_delay_ms", def.Sync.SilentApplyDelayMs)
	v.SetDefault("sync.gate_tick_ms", def.Sync.GateTickMs)
	v.SetDefault("cart.debounce_ms", def.Cart.DebounceMs)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("db_path", def.DBPath)

	if err := v.ReadInConfig(); err != nil {
		_, missing := err.(*os.PathError)
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			missing = true
		}
		if !missing {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Policy.LeadMinutes < 0 {
		return nil, fmt.Errorf("policy.lead_minutes must not be negative, got %d", cfg.Policy.LeadMinutes)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

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

	v.Set("api", cfg.API)
	v.Set("policy", cfg.Policy)
	v.Set("sync", cfg.Sync)
	v.Set("cart", cfg.Cart)
	v.Set("display", cfg.Display)
	v.Set("db_path", cfg.DBPath)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
