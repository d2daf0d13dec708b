package main

import (
	"fmt"
	"os"

	"github.com/opted-eu/metafill/internal/config"
	"github.com/opted-eu/metafill/internal/inventory"
	"github.com/spf13/cobra"
)

var (
	listLimit       int
	searchLimit     int
	searchDuplicate bool
	searchType      string
)

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum results (0 for all)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", DefaultListLimit, "Maximum results")
	searchCmd.Flags().BoolVar(&searchDuplicate, "duplicates", false, "Check for duplicates of a new entry (uses the inventory server when one is configured)")
	searchCmd.Flags().StringVar(&searchType, "type", "", "Restrict duplicate matches to an entry type (e.g. Tool)")
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List inventory entries",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search entry names and titles",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	local, err := openLocal(repoRoot, newLogger())
	if err != nil {
		exitWithError(ExitDataError, "opening inventory: %v", err)
	}
	defer local.Close()

	entries, err := local.List(cmd.Context(), listLimit)
	if err != nil {
		local.Close()
		exitWithError(ExitDataError, "listing entries: %v", err)
	}
	printEntries(entries)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchDuplicate {
		return runDuplicateSearch(cmd, args[0])
	}

	repoRoot := mustFindRepository()
	local, err := openLocal(repoRoot, newLogger())
	if err != nil {
		exitWithError(ExitDataError, "opening inventory: %v", err)
	}
	defer local.Close()

	entries, err := local.Search(cmd.Context(), args[0], searchLimit)
	if err != nil {
		local.Close()
		exitWithError(ExitDataError, "searching: %v", err)
	}
	printEntries(entries)
	return nil
}

// runDuplicateSearch asks the configured inventory, remote or local, for
// entries that may duplicate name.
func runDuplicateSearch(cmd *cobra.Command, name string) error {
	log := newLogger()
	repoRoot := findRepository()
	cfg := loadOptionalConfig(repoRoot)

	store, closeStore, err := openChecker(repoRoot, cfg, newTransport(cfg, log), log)
	if err != nil {
		exitWithError(ExitDataError, "opening inventory: %v", err)
	}
	defer closeStore()
	if store == nil {
		fmt.Fprintln(os.Stderr, config.HelpfulConfigMessage())
		os.Exit(ExitConfigError)
	}

	entries, err := store.DuplicateCheck(cmd.Context(), name, searchType, searchLimit)
	if err != nil {
		closeStore()
		exitWithError(exitCodeFor(err), "checking duplicates: %v", err)
	}
	printEntries(entries)
	return nil
}

func printEntries(entries []inventory.Entry) {
	if entries == nil {
		entries = []inventory.Entry{}
	}
	if !humanOutput {
		outputJSON(entries)
		return
	}
	if len(entries) == 0 {
		outputHuman("No entries found\n")
		return
	}
	for _, e := range entries {
		outputHuman("%-40s %-9s %s\n", e.UniqueName, e.Status, truncateString(e.Name, ListNameMaxLen))
	}
	outputHuman("\n%d entries\n", len(entries))
}
