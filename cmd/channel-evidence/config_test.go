// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/channel-evidence/internal/secrets"
)

func resetConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	bindEnv()
	setDefaults()
	loadedSecrets = secrets.Secrets{}
	t.Cleanup(func() {
		viper.Reset()
		loadedSecrets = secrets.Secrets{}
	})
}

func TestPipelineConfigDefaults(t *testing.T) {
	resetConfig(t)

	cfg := pipelineConfig()
	assert.Equal(t, defaultUserAgent, cfg.Fetch.UserAgent)
	assert.Equal(t, 10, cfg.Fetch.MaxPages)
	assert.Equal(t, defaultMaxRetries, cfg.Fetch.MaxRetries)
	assert.Equal(t, time.Hour, cfg.Fetch.CacheTTL)
	assert.Equal(t, defaultDBDir, cfg.Store.DBDir)
	assert.Equal(t, defaultOutput, cfg.Output)
	assert.Empty(t, cfg.Fetch.BaseURL)
}

func TestPipelineConfigEnv(t *testing.T) {
	resetConfig(t)
	t.Setenv("CHANNEL_EVIDENCE_FETCH_EV_LIMIT", "25")
	t.Setenv("CHANNEL_EVIDENCE_SELECTION_FAMILY", "Kinase")
	t.Setenv("CHANNEL_EVIDENCE_COLLECT_CONCURRENCY", "4")

	cfg := pipelineConfig()
	assert.Equal(t, 25, cfg.Fetch.EvidenceLimit)
	assert.Equal(t, "Kinase", cfg.Selection.Family)
	assert.Equal(t, 4, cfg.Collect.Concurrency)
}

func TestPipelineConfigFile(t *testing.T) {
	resetConfig(t)

	path := filepath.Join(t.TempDir(), "channel-evidence.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
selection:
  family: GPCR
  target_only: true
fetch:
  best_first: true
  timeout: 30s
collect:
  excluded_source: sparser
output: out/gpcr.gob
`), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg := pipelineConfig()
	assert.Equal(t, "GPCR", cfg.Selection.Family)
	assert.True(t, cfg.Selection.TargetOnly)
	assert.True(t, cfg.Fetch.BestFirst)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "sparser", cfg.Collect.ExcludedSource)
	assert.Equal(t, "out/gpcr.gob", cfg.Output)
}

func TestPipelineConfigSecrets(t *testing.T) {
	resetConfig(t)
	loadedSecrets = secrets.Secrets{
		secrets.KeyIndraDBAPIKey: "secret-key",
		secrets.KeyIndraDBURL:    "https://indra.example.org",
	}

	cfg := pipelineConfig()
	assert.Equal(t, "secret-key", cfg.Fetch.APIKey)
	assert.Equal(t, "https://indra.example.org", cfg.Fetch.BaseURL)

	viper.Set("fetch.api_key", "configured")
	cfg = pipelineConfig()
	assert.Equal(t, "configured", cfg.Fetch.APIKey)
}
