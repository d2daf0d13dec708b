package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query index from JSONL",
	Long: `Rebuild the SQLite query index from the JSONL source of truth.

Run this after pulling entries.jsonl changes made elsewhere. The index is also
rebuilt automatically when the JSONL file is newer than the database.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	local, err := openLocal(repoRoot, newLogger())
	if err != nil {
		exitWithError(ExitDataError, "opening inventory: %v", err)
	}
	defer local.Close()

	count, err := local.Rebuild()
	if err != nil {
		local.Close()
		exitWithError(ExitDataError, "rebuilding index: %v", err)
	}

	if humanOutput {
		outputHuman("Rebuilt index with %d entries\n", count)
	} else {
		outputJSON(RebuildResult{Status: "rebuilt", Entries: count})
	}
	return nil
}
