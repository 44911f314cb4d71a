package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, 5.0, cfg.MinYield)
	assert.Equal(t, 100.0, cfg.MaxPayoutRatio)
	assert.Equal(t, 5, cfg.ScanWorkers)
	assert.Equal(t, MergeOverwrite, cfg.SnapshotMergePolicy)
	assert.Equal(t, []string{"sp500"}, cfg.ScanMarkets)
	assert.Equal(t, 24, cfg.AnalysisCacheTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MIN_YIELD", "3.5")
	t.Setenv("SCAN_WORKERS", "10")
	t.Setenv("SNAPSHOT_MERGE_POLICY", "coalesce")
	t.Setenv("SCAN_MARKETS", "sp500, ftse_mib ,dax40")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3.5, cfg.MinYield)
	assert.Equal(t, 10, cfg.ScanWorkers)
	assert.Equal(t, MergeCoalesce, cfg.SnapshotMergePolicy)
	assert.Equal(t, []string{"sp500", "ftse_mib", "dax40"}, cfg.ScanMarkets)
}

func TestValidate(t *testing.T) {
	valid := &Config{
		DatabasePath:        "./data/test.db",
		DataDir:             "./data",
		ScanWorkers:         1,
		SnapshotMergePolicy: MergeOverwrite,
	}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing database path", func(c *Config) { c.DatabasePath = "" }},
		{"missing data dir", func(c *Config) { c.DataDir = "" }},
		{"bad merge policy", func(c *Config) { c.SnapshotMergePolicy = "upsert" }},
		{"zero workers", func(c *Config) { c.ScanWorkers = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_InvalidMergePolicyRejected(t *testing.T) {
	t.Setenv("SNAPSHOT_MERGE_POLICY", "merge-everything")

	_, err := Load()
	assert.Error(t, err)
}
