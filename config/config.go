package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"dipbot/strategy"
)

// Duration wraps time.Duration so YAML values like "5m" parse directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("bad duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the complete bot configuration: pair, bar geometry, strategy
// rule set, venue endpoints, journaling, persistence, and process wiring.
type Config struct {
	Pair         string          `yaml:"pair"`
	BarDuration  Duration        `yaml:"bar_duration"`
	MaxBars      int             `yaml:"max_bars"`
	PollInterval Duration        `yaml:"poll_interval"`
	Strategy     strategy.Params `yaml:"strategy"`
	Trade        TradeConfig     `yaml:"trade"`
	Venue        VenueConfig     `yaml:"venue"`
	Journal      JournalConfig   `yaml:"journal"`
	State        StateConfig     `yaml:"state"`
	Web          WebConfig       `yaml:"web"`
}

// TradeConfig controls execution. Sizing is fixed: signal strength does not
// scale quantity.
type TradeConfig struct {
	Quantity float64 `yaml:"quantity"`
	DryRun   bool    `yaml:"dry_run"`
}

// VenueConfig holds the swap venue endpoints and request budget.
type VenueConfig struct {
	PriceURL   string  `yaml:"price_url"`
	QuoteURL   string  `yaml:"quote_url"`
	SwapURL    string  `yaml:"swap_url"`
	CandlesURL string  `yaml:"candles_url"`
	RateLimit  float64 `yaml:"rate_limit"` // requests per second
}

// JournalConfig selects the trade log backend.
type JournalConfig struct {
	Type string `yaml:"type"` // "sqlite" or "csv"
	Path string `yaml:"path"`
}

// StateConfig locates the persistence database.
type StateConfig struct {
	Path string `yaml:"path"`
}

// WebConfig configures the status/admin HTTP server. Empty Addr disables it.
type WebConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a runnable dry-run configuration.
func Default() *Config {
	return &Config{
		Pair:         "SOL/USDC",
		BarDuration:  Duration(5 * time.Minute),
		MaxBars:      500,
		PollInterval: Duration(10 * time.Second),
		Strategy:     strategy.DefaultParams(),
		Trade: TradeConfig{
			Quantity: 1.0,
			DryRun:   true,
		},
		Venue: VenueConfig{
			RateLimit: 2,
		},
		Journal: JournalConfig{
			Type: "sqlite",
			Path: "./dipbot-journal.db",
		},
		State: StateConfig{
			Path: "./dipbot-state.db",
		},
		Web: WebConfig{
			Addr: ":8787",
		},
	}
}

// Load reads the YAML config at path, layered over Default and environment
// overrides. An empty path yields Default plus environment.
func Load(path string) (*Config, error) {
	// Secrets and endpoints may live in a .env next to the binary; missing
	// files are fine.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays DIPBOT_* environment variables on the file values.
// Endpoints tend to carry API keys in the query string, which is why they
// come from the environment rather than the config file.
func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("DIPBOT_PAIR", &c.Pair)
	setString("DIPBOT_PRICE_URL", &c.Venue.PriceURL)
	setString("DIPBOT_QUOTE_URL", &c.Venue.QuoteURL)
	setString("DIPBOT_SWAP_URL", &c.Venue.SwapURL)
	setString("DIPBOT_CANDLES_URL", &c.Venue.CandlesURL)
	setString("DIPBOT_JOURNAL_PATH", &c.Journal.Path)
	setString("DIPBOT_STATE_PATH", &c.State.Path)
	setString("DIPBOT_WEB_ADDR", &c.Web.Addr)

	if v := os.Getenv("DIPBOT_DRY_RUN"); v != "" {
		c.Trade.DryRun = v != "false" && v != "0"
	}
}

// Validate checks the configuration is coherent enough to run.
func (c *Config) Validate() error {
	if c.Pair == "" {
		return fmt.Errorf("pair is required")
	}
	if c.BarDuration.Std() < time.Second {
		return fmt.Errorf("bar_duration must be at least 1s")
	}
	if c.PollInterval.Std() <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.MaxBars <= 0 {
		return fmt.Errorf("max_bars must be positive")
	}
	if c.Trade.Quantity <= 0 {
		return fmt.Errorf("trade.quantity must be positive")
	}
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if c.Journal.Type != "sqlite" && c.Journal.Type != "csv" {
		return fmt.Errorf("journal.type must be 'sqlite' or 'csv'")
	}
	if c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required")
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}
	if !c.Trade.DryRun {
		if c.Venue.PriceURL == "" || c.Venue.QuoteURL == "" || c.Venue.SwapURL == "" {
			return fmt.Errorf("venue price_url, quote_url and swap_url are required for live trading")
		}
	}
	return nil
}

// SaveToFile writes the configuration to path as YAML.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
