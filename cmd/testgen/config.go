package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/ado-testgen/internal/config"
)

// commonFlags are shared by every subcommand that talks to a collaborator.
type commonFlags struct {
	configPath  string
	verbose     bool
	databaseURL string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by environment and flags)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
}

// resolveConfig layers defaults, the optional config file and the environment.
// Callers apply their own explicitly set flags afterwards.
func resolveConfig(path string, lookup func(string) (string, bool)) (config.Config, error) {
	cfg := config.Defaults()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded.MergeWithDefaults(cfg)
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// load resolves the configuration and applies the shared flags.
func (f *commonFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := resolveConfig(f.configPath, os.LookupEnv)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if cfg.Verbose && f.configPath != "" {
		_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", f.configPath)
	}
	return cfg, nil
}
