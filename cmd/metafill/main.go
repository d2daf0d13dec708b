// Package main provides the metafill CLI entry point.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/opted-eu/metafill/internal/config"
	"github.com/opted-eu/metafill/internal/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	logLevel  string
	logFormat string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "metafill",
	Short: "Fill inventory entries from DOIs, arXiv IDs and package names",
	Long: `metafill looks up a research item by identifier and returns the metadata
needed to describe it in the inventory.

Supported platforms:
  doi      DOI, resolved through doi.org (Crossref as fallback)
  arxiv    arXiv identifier
  cran     CRAN package name
  python   PyPI package name
  github   GitHub repository (owner/repo or URL)

Every lookup also checks whether the item is already in the inventory.
The inventory is stored in git-versionable JSONL with an ephemeral SQLite
index. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Environment variables may come from a .env file in the working directory.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.Version = Version
}

// newLogger returns the logger configured by the global flags. Logs go to
// stderr so stdout stays machine-readable.
func newLogger() *slog.Logger {
	return logger.New(os.Stderr, logLevel, logFormat)
}

// getStartingDirectory returns the directory to start searching for a repository.
func getStartingDirectory() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	return cwd
}

// findRepository returns the repository root, or "" when there is none.
func findRepository() string {
	root, err := config.ResolveRepository(getStartingDirectory())
	if err != nil {
		return ""
	}
	return root
}

// mustFindRepository finds the repository or exits with a helpful message.
func mustFindRepository() string {
	root := findRepository()
	if root == "" {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}
	return root
}

// mustLoadConfig loads the repository config or exits.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}
