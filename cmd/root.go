// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vixbot/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagDomain   string
	flagLanguage string
	flagResolver string
	flagJSON     bool
	flagDebug    bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vixbot",
	Short: "Telegram bot that resolves and downloads streams from vixsrc",
	Long: `Vixbot searches TMDB for movies and series, resolves playable stream
manifests from vixsrc embed pages and either hands back a direct link or
downloads and remuxes the content before delivery.`,
	PersistentPreRunE: loadConfig,
	RunE:              botRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDomain, "domain", "", "vixsrc domain override")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "", "Catalog and stream language (e.g. it-IT)")
	rootCmd.PersistentFlags().StringVar(&flagResolver, "resolver", "", "Dynamic resolver base URL")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagDomain != "" {
		cfg.VixDomain = flagDomain
	}
	if flagLanguage != "" {
		cfg.Language = flagLanguage
	}
	if flagResolver != "" {
		cfg.ResolverBase = flagResolver
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	return nil
}
