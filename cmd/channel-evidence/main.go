// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the channel-evidence CLI.
// Implements: target selection, statement collection, evidence filtering,
// summary statistics, and the artifact/database surfaces around them.
// See docs/ARCHITECTURE § Pipeline Interface.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/channel-evidence/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets = secrets.Secrets{}

// rootCmd is the base command for the channel-evidence CLI.
var rootCmd = &cobra.Command{
	Use:   "channel-evidence",
	Short: "Collect INDRA DB statements for understudied ion channels",
	Long: `channel-evidence selects genes from the IDG target table (dark ion
channels by default), fetches the mechanistic statements mentioning each gene
from the INDRA DB REST API, removes evidence from a low-precision reader, and
writes the filtered statements to a binary artifact with summary statistics.

The artifact can be summarized again with stats, converted with export, or
loaded into a local SQLite database with db store for querying.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/", os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Keys())
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./channel-evidence.yaml or ~/.config/channel-evidence/channel-evidence.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("channel-evidence")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "channel-evidence"))
		}
	}

	bindEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindEnv maps dotted config keys to CHANNEL_EVIDENCE_* variables,
// e.g. fetch.ev_limit to CHANNEL_EVIDENCE_FETCH_EV_LIMIT.
func bindEnv() {
	viper.SetEnvPrefix("CHANNEL_EVIDENCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
