// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the bibcheck CLI.
// Subcommands cover the bibliography workflow: resolve paper IDs, verify
// entries against authoritative metadata, fetch clean entries, and search
// for papers.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bibcheck/internal/secrets"
	"github.com/pdiddy/bibcheck/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 3
	defaultUserAgent  = "bibcheck/0.1 (mailto:bibcheck@meshintelligence.example)"

	apiKeyEnvVar     = "SEMANTIC_SCHOLAR_API_KEY"
	apiKeySecretName = "semantic-scholar-api-key"
)

// exitCode is set by subcommands that map report status to the process
// exit code (0 pass, 1 warning, 2 fail).
var exitCode int

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// resolveAPIKey picks the Semantic Scholar API key: the flag wins, then the
// environment, then the secrets directory.
func resolveAPIKey(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(apiKeyEnvVar); v != "" {
		return v
	}
	return loadedSecrets[apiKeySecretName]
}

// rootCmd is the base command for the bibcheck CLI.
var rootCmd = &cobra.Command{
	Use:   "bibcheck",
	Short: "Verify bibliographies against authoritative metadata sources",
	Long: `bibcheck keeps bibtex files honest. Entries are tied to resolver paper IDs
through annotation comments; verification fetches each paper's metadata from a
single authoritative source (CrossRef for DOIs, DBLP for published venues,
arXiv for preprints) and compares titles, authors, years, and venues.

Each workflow step is a subcommand: resolve annotates entries with paper IDs,
verify checks annotated entries, fetch prints a clean entry for one paper, and
search finds candidate papers by title.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env first so it can supply SEMANTIC_SCHOLAR_API_KEY.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: loading .env: %v\n", err)
		}

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

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./bibcheck.yaml or ~/.config/bibcheck/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("bibcheck")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "bibcheck"))
		}
	}

	viper.SetDefault("timeout", defaultTimeout)
	viper.SetDefault("max_retries", defaultMaxRetries)
	viper.SetDefault("user_agent", defaultUserAgent)
	viper.SetDefault("min_confidence", 0.85)

	viper.SetEnvPrefix("BIBCHECK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// fetchConfig assembles the shared provider-client settings from the
// command's flags with viper (config file, env) filling the gaps.
func fetchConfig(cmd *cobra.Command) types.FetchConfig {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("timeout")
	}
	maxRetries, _ := cmd.Flags().GetInt("max-retries")
	if maxRetries == 0 {
		maxRetries = viper.GetInt("max_retries")
	}
	apiKey, _ := cmd.Flags().GetString("api-key")

	return types.FetchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: viper.GetString("user_agent"),
		},
		SemanticScholarAPIKey: resolveAPIKey(apiKey),
		MaxRetries:            maxRetries,
	}
}

// addFetchFlags registers the flags shared by every command that talks to
// the metadata APIs.
func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	cmd.Flags().Int("max-retries", 0, "attempts per HTTP request (default 3)")
	cmd.Flags().String("api-key", "", "Semantic Scholar API key (default: $"+apiKeyEnvVar+" or .secrets/)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}
