package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty_InvalidDurationsFallBackToDefault(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	defaults := Default()

	properties.Property("non-positive poll interval falls back to default", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{Monitor: MonitorConfig{PollInterval: time.Duration(seconds) * time.Second}}
			validateAndApplyDefaults(cfg)
			return cfg.Monitor.PollInterval == defaults.Monitor.PollInterval
		},
		gen.IntRange(-1000, 0),
	))

	properties.Property("non-positive alert cooldown falls back to default", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{Monitor: MonitorConfig{AlertCooldown: time.Duration(seconds) * time.Second}}
			validateAndApplyDefaults(cfg)
			return cfg.Monitor.AlertCooldown == 24*time.Hour
		},
		gen.IntRange(-1000, 0),
	))

	properties.Property("positive values are preserved", prop.ForAll(
		func(seconds int) bool {
			interval := time.Duration(seconds) * time.Second
			cfg := &Config{Monitor: MonitorConfig{PollInterval: interval}}
			validateAndApplyDefaults(cfg)
			return cfg.Monitor.PollInterval == interval
		},
		gen.IntRange(1, 100000),
	))

	properties.TestingRun(t)
}

func TestProperty_NonPositiveRatesAreDropped(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("rate table never holds non-positive rates", prop.ForAll(
		func(rate float64) bool {
			cfg := &Config{Earnings: EarningsConfig{Rates: map[string]float64{"3090": 0.176, "custom": rate}}}
			validateAndApplyDefaults(cfg)
			for _, r := range cfg.Earnings.Rates {
				if r <= 0 {
					return false
				}
			}
			_, ok := cfg.Earnings.Rates[cfg.Earnings.DefaultTier]
			return ok
		},
		gen.Float64Range(-10, 10),
	))

	properties.TestingRun(t)
}

func TestValidateAndApplyDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 0.006, cfg.Monitor.LowBalanceThreshold)
	assert.Equal(t, 100, cfg.Monitor.MaxNodesPerUser)
	assert.Equal(t, "UTC", cfg.Monitor.Timezone)
	assert.Equal(t, 0.46, cfg.Price.FallbackPrice)
	assert.Equal(t, EarningsModeTransition, cfg.Earnings.Mode)
	assert.Equal(t, "3090", cfg.Earnings.DefaultTier)
	assert.Equal(t, 0.176, cfg.Earnings.Rates["3090"])
	assert.Equal(t, 5, cfg.Auth.MaxFailedLogins)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
monitor:
  poll_interval: 2m
  timezone: Not/AZone
earnings:
  mode: scrape
  rates:
    "4090": 0.3
  default_tier: "4090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Monitor.PollInterval)
	assert.Equal(t, "UTC", cfg.Monitor.Timezone)
	assert.Equal(t, EarningsModeScrape, cfg.Earnings.Mode)
	assert.Equal(t, "4090", cfg.Earnings.DefaultTier)
	assert.Equal(t, 0.3, cfg.Earnings.Rates["4090"])
}
