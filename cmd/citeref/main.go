// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the citeref CLI and HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/citeref/internal/config"
	"github.com/pdiddy/citeref/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	// cfg is the configuration loaded before every command runs.
	cfg    types.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "citeref",
	Short: "Turn DOIs, ISBNs, PubMed IDs, videos, and web pages into citations",
	Long: `citeref resolves an identifier or URL into normalized citation metadata.
Academic databases are tried first, then the page's own metadata, then AI
providers when enabled.

Run "citeref serve" for the JSON HTTP API, or use the detect, resolve, video,
tags, and ocr commands to run the same pipeline from the shell.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./citeref.yaml or ~/.config/citeref/citeref.yaml)")
	rootCmd.PersistentFlags().String("env-file", config.DefaultEnvFile, "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().String("secrets-dir", config.DefaultSecretsDir, "directory of API key files")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log at debug level")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	secretsDir, _ := cmd.Flags().GetString("secrets-dir")
	verbose, _ := cmd.Flags().GetBool("verbose")

	loaded, err := config.Load(config.Options{
		ConfigFile: cfgFile,
		EnvFile:    envFile,
		SecretsDir: secretsDir,
	})
	if err != nil {
		return err
	}
	if loaded.ConfigFile != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", loaded.ConfigFile)
	}
	if len(loaded.Secrets) > 0 {
		fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", loaded.Secrets)
	}
	for _, w := range loaded.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	cfg = loaded.Config

	logger, err = newLogger(cfg.Log, verbose)
	return err
}

func newLogger(c types.LogConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	if c.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zc.Level = level
	}
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return l.With(zap.String("version", version)), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
