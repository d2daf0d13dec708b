package main

import (
	"strings"

	"github.com/opted-eu/metafill/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set repository configuration values.

Usage:
  metafill config                                   # Show all config
  metafill config mailto                            # Get specific value
  metafill config inventory-url https://example.org # Set value

Keys:
  inventory-url  Inventory server to check against (empty uses the local inventory)
  mailto         Contact address sent to the public APIs
  cache-size     Records kept in memory by serve`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	if len(args) == 0 {
		values := make(map[string]string, len(config.ValidKeys))
		for _, key := range config.ValidKeys {
			v, _ := cfg.Get(key)
			values[key] = v
		}
		if humanOutput {
			for _, key := range config.ValidKeys {
				outputHuman("%-14s %s\n", key+":", values[key])
			}
			return nil
		}
		return outputJSON(values)
	}

	key := normalizeKey(args[0])

	if len(args) == 1 {
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		if humanOutput {
			outputHuman("%s\n", v)
			return nil
		}
		return outputJSON(map[string]string{key: v})
	}

	value := args[1]
	if err := cfg.Set(key, value); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		outputHuman("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}

// normalizeKey accepts both dashed and underscored key names.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "-", "_")
}
