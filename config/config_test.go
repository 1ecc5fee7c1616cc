package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Trade.DryRun)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dipbot.yaml")
	body := `
pair: BONK/USDC
bar_duration: 1m
poll_interval: 5s
strategy:
  ema_fast: 10
  ema_slow: 30
  atr_len: 7
  warmup_margin: 5
  zone_mult: 1.5
  min_slope: 0.001
  tp1_pct: 0.05
  trail_pct: 0.02
  sl_pct: 0.03
  max_hold_bars: 48
  cooldown_bars: 2
journal:
  type: csv
  path: ./trades.csv
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "BONK/USDC", cfg.Pair)
	assert.Equal(t, time.Minute, cfg.BarDuration.Std())
	assert.Equal(t, 10, cfg.Strategy.EMAFast)
	assert.Equal(t, "csv", cfg.Journal.Type)
	// Defaults survive for sections the file omits.
	assert.Equal(t, 500, cfg.MaxBars)
	assert.Equal(t, 1.0, cfg.Trade.Quantity)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DIPBOT_PAIR", "JUP/USDC")
	t.Setenv("DIPBOT_PRICE_URL", "https://quote.example/price")
	t.Setenv("DIPBOT_DRY_RUN", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "JUP/USDC", cfg.Pair)
	assert.Equal(t, "https://quote.example/price", cfg.Venue.PriceURL)
	assert.True(t, cfg.Trade.DryRun)
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty pair", func(c *Config) { c.Pair = "" }},
		{"sub-second bars", func(c *Config) { c.BarDuration = Duration(500 * time.Millisecond) }},
		{"zero quantity", func(c *Config) { c.Trade.Quantity = 0 }},
		{"fast ema not below slow", func(c *Config) { c.Strategy.EMAFast = c.Strategy.EMASlow }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "parquet" }},
		{"live without endpoints", func(c *Config) { c.Trade.DryRun = false }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
