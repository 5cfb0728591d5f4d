// Package main is the entry point for the docsplit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/MegaGrindStone/go-docsplit/config"
	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type globalFlags struct {
	configFile string
	envFile    string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   "docsplit",
		Short: "Markdown documentation chunker",
		Long: `docsplit splits Markdown documentation into retrieval-sized chunks that respect
headers and code blocks, and keeps a chunk store in sync with the documentation tree.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. YAML file (--config)
  3. .env file (--env-file, or .env in the current directory)
  4. DOCSPLIT_* environment variables
  5. Command line flags`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")

	cmd.AddCommand(splitCmd(&flags))
	cmd.AddCommand(ingestCmd(&flags))
	cmd.AddCommand(showCmd(&flags))
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from the config file, .env file and environment variables.
func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configFile, flags.envFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
