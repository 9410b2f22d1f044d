package main

import (
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/channel-evidence/internal/secrets"
	"github.com/pdiddy/channel-evidence/pkg/types"
)

const (
	defaultTargetsFile = "data/IDG_target_final.csv"
	defaultFamily      = "Ion Channel"
	defaultOutput      = "dark_ion_channel_stmts_v1.gob"
	defaultTimeout     = 60 * time.Second
	defaultUserAgent   = "channel-evidence/0.1"
	defaultRate        = 2.0
	defaultMaxRetries  = 5
	defaultDBDir       = "db"
)

// setDefaults registers values for keys that have no command-line flag.
// Flag-backed keys take their defaults from the bound flag.
func setDefaults() {
	viper.SetDefault("fetch.user_agent", defaultUserAgent)
	viper.SetDefault("fetch.max_pages", 10)
	viper.SetDefault("fetch.max_retries", defaultMaxRetries)
	viper.SetDefault("fetch.cache_ttl", time.Hour)
	viper.SetDefault("store.db_dir", defaultDBDir)
	viper.SetDefault("output", defaultOutput)
}

// pipelineConfig assembles the run configuration from flags, environment,
// and the config file. The database URL and API key fall back to
// .secrets/ when not configured.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		Selection: types.SelectionConfig{
			TargetsFile:  viper.GetString("selection.targets_file"),
			Family:       viper.GetString("selection.family"),
			TargetOnly:   viper.GetBool("selection.target_only"),
			FamilyColumn: viper.GetString("selection.family_column"),
			TargetColumn: viper.GetString("selection.target_column"),
			GeneColumn:   viper.GetString("selection.gene_column"),
		},
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("fetch.timeout"),
				UserAgent: viper.GetString("fetch.user_agent"),
			},
			BaseURL:           loadedSecrets.Or(secrets.KeyIndraDBURL, viper.GetString("fetch.base_url")),
			APIKey:            loadedSecrets.Or(secrets.KeyIndraDBAPIKey, viper.GetString("fetch.api_key")),
			EvidenceLimit:     viper.GetInt("fetch.ev_limit"),
			BestFirst:         viper.GetBool("fetch.best_first"),
			MaxPages:          viper.GetInt("fetch.max_pages"),
			MaxRetries:        viper.GetInt("fetch.max_retries"),
			RequestsPerSecond: viper.GetFloat64("fetch.requests_per_second"),
			CacheTTL:          viper.GetDuration("fetch.cache_ttl"),
		},
		Collect: types.CollectConfig{
			FilterConfig: types.FilterConfig{
				ExcludedSource: viper.GetString("collect.excluded_source"),
			},
			Concurrency: viper.GetInt("collect.concurrency"),
		},
		Store:  storeConfig(),
		Output: viper.GetString("output"),
	}
}

func storeConfig() types.StoreConfig {
	return types.StoreConfig{
		DBDir:      viper.GetString("store.db_dir"),
		MaxResults: viper.GetInt("store.max_results"),
	}
}
