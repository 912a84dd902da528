// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the dx-index CLI, which extracts
// digital transformation initiatives from corporate report PDFs into a
// queryable SQLite database.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dx-index/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the dx-index CLI.
var rootCmd = &cobra.Command{
	Use:   "dx-index",
	Short: "Extract digital transformation initiatives from corporate reports",
	Long: `dx-index turns corporate report PDFs (annual, corporate governance, and
sustainability reports) into structured digital transformation initiative
records. Each PDF is converted to text, windowed into overlapping chunks,
and sent through a language model; the extracted initiatives are
normalized, deduplicated, and stored in a SQLite database.

Use run to process a directory of PDFs, query to search the results, and
stats or export to summarize the database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./dx-index.yaml or ~/.config/dx-index/config.yaml)")
	rootCmd.PersistentFlags().String("db", "database/dx-index.db", "SQLite database file")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dx-index")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "dx-index"))
		}
	}

	viper.SetEnvPrefix("DX_INDEX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
