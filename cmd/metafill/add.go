package main

import (
	"errors"

	"github.com/opted-eu/metafill/internal/inventory"
	"github.com/opted-eu/metafill/internal/magic"
	"github.com/spf13/cobra"
)

var addName string

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "Override the entry name")
	rootCmd.AddCommand(addCmd)
}

// AddResponse is the JSON output of the add command.
type AddResponse struct {
	Status string          `json:"status"`
	Entry  inventory.Entry `json:"entry"`
}

var addCmd = &cobra.Command{
	Use:   "add <platform> <identifier>",
	Short: "Fetch metadata and add a draft entry to the inventory",
	Long: `Fetch metadata for an identifier and add it to the local inventory as a
draft entry. Publications become ScientificPublication entries, packages and
repositories become Tool entries.

Fails with exit code 6 when an entry with the same identifier exists.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	log := newLogger()
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	t := newTransport(cfg, log)

	local, err := openLocal(repoRoot, log)
	if err != nil {
		exitWithError(ExitDataError, "opening inventory: %v", err)
	}
	defer local.Close()

	reg, err := newRegistry(t, log)
	if err != nil {
		local.Close()
		exitWithError(ExitError, "registering sources: %v", err)
	}
	resolver, err := magic.NewResolver(reg, magic.WithChecker(local), magic.WithLogger(log))
	if err != nil {
		local.Close()
		exitWithError(ExitError, "creating resolver: %v", err)
	}

	res, err := resolver.Fetch(cmd.Context(), args[0], args[1])
	if err != nil {
		local.Close()
		exitWithError(exitCodeFor(err), "%v", err)
	}
	if res.Inventory.Status {
		local.Close()
		exitWithError(ExitDuplicate, "%s", res.Warning)
	}

	entry := inventory.NewEntry(res.Record, inventory.TypeFor(res.Platform))
	if addName != "" {
		entry.Name = addName
	}

	added, err := local.Add(cmd.Context(), entry)
	if err != nil {
		local.Close()
		switch {
		case errors.Is(err, inventory.ErrDuplicate):
			exitWithError(ExitDuplicate, "%v", err)
		case errors.Is(err, inventory.ErrEmptyName):
			exitWithError(ExitDataError, "%v (use --name)", err)
		}
		exitWithError(ExitError, "adding entry: %v", err)
	}

	if humanOutput {
		outputHuman("Added %s (%s)\n", added.UniqueName, added.UID)
		return nil
	}
	return outputJSON(AddResponse{Status: "added", Entry: added})
}
