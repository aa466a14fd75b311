// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the serp-evals CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/serp-evals/internal/evaluate"
	"github.com/pdiddy/serp-evals/internal/logging"
	"github.com/pdiddy/serp-evals/internal/rank"
	"github.com/pdiddy/serp-evals/internal/secrets"
	"github.com/pdiddy/serp-evals/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the resolved configuration, populated before any subcommand runs.
	cfg types.Config

	// log is the process logger built from cfg.Log.
	log *logrus.Logger = logging.Discard()

	// loadedSecrets holds API keys from the secrets directory and keys file.
	loadedSecrets map[string]string
)

// rootCmd is the base command for the serp-evals CLI.
var rootCmd = &cobra.Command{
	Use:   "serp-evals",
	Short: "Evaluate web search results for company sustainability reports",
	Long: `serp-evals runs a templated search query per company against a search
backend (SerpHouse or a Google Discovery Engine data store), normalizes the
document dates of each hit, and ranks the results per query, newest first.

Each stage is a subcommand: evaluate, convert, consolidate, and rank. Tables
are read and written as CSV, JSONL (optionally .gz), or a SQLite store,
chosen by file extension.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}

		l, err := logging.New(cfg.Log.Level, cfg.Log.File)
		if err != nil {
			return err
		}
		log = l
		if used := viper.ConfigFileUsed(); used != "" {
			log.WithField("file", used).Debug("using config file")
		}

		fromDir, err := secrets.Load(cfg.Secrets.Dir, log)
		if err != nil {
			return err
		}
		fromFile, err := secrets.LoadYAML(cfg.Secrets.KeysFile)
		if err != nil {
			return err
		}
		loadedSecrets = secrets.Merge(fromFile, fromDir)
		if len(loadedSecrets) > 0 {
			log.WithField("keys", secrets.Names(loadedSecrets)).Debug("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./serp-evals.yaml or ~/.config/serp-evals/serp-evals.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-file", "", "also append log output to this file")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))

	setDefaults()
}

// setDefaults registers the default for every configuration key so that
// environment variables and Unmarshal see the full key set.
func setDefaults() {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.file", "")

	viper.SetDefault("search.backend", "serphouse")
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.user_agent", "serp-evals/"+version)
	viper.SetDefault("search.rate_per_second", 0.0)
	viper.SetDefault("search.retry.max_attempts", 5)
	viper.SetDefault("search.retry.base_delay", 2*time.Second)
	viper.SetDefault("search.retry.max_delay", 60*time.Second)

	viper.SetDefault("search.serphouse.endpoint", "")
	viper.SetDefault("search.serphouse.api_key", "")
	viper.SetDefault("search.serphouse.domain", "google.com")
	viper.SetDefault("search.serphouse.lang", "en")
	viper.SetDefault("search.serphouse.device", "desktop")
	viper.SetDefault("search.serphouse.serp_type", "web")
	viper.SetDefault("search.serphouse.loc", "United States")
	viper.SetDefault("search.serphouse.num_result", 10)

	viper.SetDefault("search.discovery.project_id", "")
	viper.SetDefault("search.discovery.location", "global")
	viper.SetDefault("search.discovery.data_store_id", "")
	viper.SetDefault("search.discovery.serving_config", "default_config")
	viper.SetDefault("search.discovery.page_size", 10)
	viper.SetDefault("search.discovery.endpoint", "")

	viper.SetDefault("evaluate.query_template", evaluate.DefaultQueryTemplate)
	viper.SetDefault("rank.allowed_years", rank.DefaultAllowedYears)

	viper.SetDefault("secrets.dir", ".secrets")
	viper.SetDefault("secrets.keys_file", filepath.Join("credentials", "keys.yaml"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("serp-evals")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "serp-evals"))
		}
	}

	viper.SetEnvPrefix("SERP_EVALS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "warning: reading config:", err)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
