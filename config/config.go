// Package config loads engine configuration with Viper: defaults first,
// then an optional TOML file, then CNV_-prefixed environment variables.
package config

import (
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/seanchatmangpt/clap-noun-verb-sub004/errors"
)

// Config is the engine configuration tree.
type Config struct {
	Catalogue CatalogueConfig `mapstructure:"catalogue"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Query     QueryConfig     `mapstructure:"query"`
	Log       LogConfig       `mapstructure:"log"`
}

// CatalogueConfig locates the command catalogue feeding the triple store.
type CatalogueConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}

// GatewayConfig bounds the protocol gateway.
type GatewayConfig struct {
	// QueryTimeoutSeconds bounds total query-pipeline wall time per request.
	QueryTimeoutSeconds int `mapstructure:"query_timeout_seconds"`

	// ToolCallsPerSecond rate-limits tool dispatch; zero disables limiting.
	ToolCallsPerSecond float64 `mapstructure:"tool_calls_per_second"`

	// RecentReceipts is how many entries the recent-receipts resource returns.
	RecentReceipts int `mapstructure:"recent_receipts"`
}

// LedgerConfig identifies the appending agent.
type LedgerConfig struct {
	AgentID string `mapstructure:"agent_id"`
}

// QueryConfig tunes the optimizer.
type QueryConfig struct {
	// HashJoinThreshold is the estimated cardinality below which the smaller
	// join input is hashed.
	HashJoinThreshold float64 `mapstructure:"hash_join_threshold"`
}

// LogConfig selects the log output format.
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

var (
	mu           sync.Mutex
	globalConfig *Config
)

// Load reads configuration once and caches it for the process lifetime.
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := newViper()
	// A missing config file is fine; defaults and env cover everything.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	globalConfig = &cfg
	return globalConfig, nil
}

// LoadFromFile loads configuration from a specific TOML file, bypassing the
// cache. Used by tests and the --config flag.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal config from %s", path)
	}
	return &cfg, nil
}

// Reset clears the cached configuration. For tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	globalConfig = nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("CNV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	v.SetConfigName("cnv")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/cnv")
	return v
}

// SetDefaults configures default values for every option.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("catalogue.path", "commands.yaml")
	v.SetDefault("catalogue.watch", false)

	v.SetDefault("gateway.query_timeout_seconds", 10)
	v.SetDefault("gateway.tool_calls_per_second", 0.0) // unlimited
	v.SetDefault("gateway.recent_receipts", 20)

	v.SetDefault("ledger.agent_id", "cnv@local")

	// The 100-row hash-join bound is a fixed heuristic; change it only with
	// measurements to back a new value.
	v.SetDefault("query.hash_join_threshold", 100.0)

	v.SetDefault("log.json", false)
}
