package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "AED", cfg.ReportingCurrency)
	assert.Equal(t, 7, cfg.Retry.Attempts)
	assert.Equal(t, 15*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxJitter)
	assert.Equal(t, 2*time.Second, cfg.Batch.PageDelay)
	assert.Equal(t, 3, cfg.Batch.Concurrency)
	assert.Equal(t, 0.5, cfg.Rules.SwapRejectionBias)
	assert.Equal(t, 0.6, cfg.Rules.NameOverlapThreshold)
	assert.Equal(t, []string{"-", "N/A", "..", "."}, cfg.Rules.PlaceholderDates)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DOCUFLOW_REPORTING_CURRENCY", "usd")
	t.Setenv("DOCUFLOW_BATCH_CONCURRENCY", "5")
	t.Setenv("DOCUFLOW_FX_REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.ReportingCurrency)
	assert.Equal(t, 5, cfg.Batch.Concurrency)
	assert.Equal(t, "localhost:6379", cfg.FX.RedisAddr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad currency", func(c *Config) { c.ReportingCurrency = "DIRHAM" }},
		{"zero attempts", func(c *Config) { c.Retry.Attempts = 0 }},
		{"zero concurrency", func(c *Config) { c.Batch.Concurrency = 0 }},
		{"threshold above one", func(c *Config) { c.Rules.NameOverlapThreshold = 1.5 }},
		{"negative bias", func(c *Config) { c.Rules.SwapRejectionBias = -1 }},
		{"archive without project", func(c *Config) { c.ArchiveDataset = "docuflow"; c.GCPProject = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
