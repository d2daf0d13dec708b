package main

import (
	"fmt"
	"sort"

	"github.com/opted-eu/metafill/internal/form"
	"github.com/opted-eu/metafill/internal/identifier"
	"github.com/opted-eu/metafill/internal/inventory"
	"github.com/opted-eu/metafill/internal/magic"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(checkCmd)
}

// FetchResponse is the JSON output of the fetch command.
type FetchResponse struct {
	*magic.Result
	Form   map[string]any `json:"form"`
	Button *form.Button   `json:"button"`
}

// CheckResponse is the JSON output of the check command.
type CheckResponse struct {
	Field      string `json:"field"`
	Identifier string `json:"identifier"`
	inventory.Result
	Warning string `json:"warning,omitempty"`
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <platform> <identifier>",
	Short: "Fetch metadata for an identifier",
	Long: fmt.Sprintf(`Fetch metadata for an identifier and fill the entry form with it.

The inventory is checked for the same identifier at the same time; a match
is reported as a warning, not an error.

Platforms: %v`, identifier.Platforms),
	Args: cobra.ExactArgs(2),
	RunE: runFetch,
}

var checkCmd = &cobra.Command{
	Use:   "check <platform> <identifier>",
	Short: "Check whether an identifier is already in the inventory",
	Args:  cobra.ExactArgs(2),
	RunE:  runCheck,
}

func runFetch(cmd *cobra.Command, args []string) error {
	log := newLogger()
	repoRoot := findRepository()
	cfg := loadOptionalConfig(repoRoot)
	t := newTransport(cfg, log)

	reg, err := newRegistry(t, log)
	if err != nil {
		exitWithError(ExitError, "registering sources: %v", err)
	}
	checker, closeChecker, err := openChecker(repoRoot, cfg, t, log)
	if err != nil {
		exitWithError(ExitDataError, "opening inventory: %v", err)
	}
	defer closeChecker()

	resolver, err := magic.NewResolver(reg, magic.WithChecker(checker), magic.WithLogger(log))
	if err != nil {
		exitWithError(ExitError, "creating resolver: %v", err)
	}

	button := form.NewButton()
	entryForm := form.NewEntryForm()
	res, err := fetchWithButton(cmd.Context(), resolver, entryForm, button, args[0], args[1])
	if err != nil {
		closeChecker()
		exitWithError(exitCodeFor(err), "%s: %v", button.Label, err)
	}

	if humanOutput {
		printFetchHuman(res, entryForm, button)
		return nil
	}
	return outputJSON(FetchResponse{Result: res, Form: entryForm.Values(), Button: button})
}

func printFetchHuman(res *magic.Result, f *form.Form, b *form.Button) {
	outputHuman("%s %s: %s\n", res.Platform.Label(), res.Identifier, b.Label)
	if b.WarningText != "" {
		outputHuman("\n%s\n", b.WarningText)
	}
	outputHuman("\n")

	values := f.Values()
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		label := id
		if field, ok := f.Field(id); ok && field.Label != "" {
			label = field.Label
		}
		outputHuman("  %-22s %s\n", label+":", formatValue(values[id]))
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	log := newLogger()
	repoRoot := findRepository()
	cfg := loadOptionalConfig(repoRoot)

	p, id, err := magic.Sanitize(args[0], args[1])
	if err != nil {
		exitWithError(ExitInvalidIdentifier, "%v", err)
	}

	checker, closeChecker, err := openChecker(repoRoot, cfg, newTransport(cfg, log), log)
	if err != nil {
		exitWithError(ExitDataError, "opening inventory: %v", err)
	}
	defer closeChecker()
	if checker == nil {
		exitWithError(ExitConfigError, "no inventory to check against")
	}

	res, err := checker.Lookup(cmd.Context(), p.InventoryField(), id)
	if err != nil {
		closeChecker()
		exitWithError(exitCodeFor(err), "checking inventory: %v", err)
	}

	resp := CheckResponse{Field: p.InventoryField(), Identifier: id, Result: res, Warning: inventory.Warning(res)}
	if humanOutput {
		if resp.Warning != "" {
			outputHuman("%s\n", resp.Warning)
		} else {
			outputHuman("%s %s is not in the inventory\n", p.Label(), id)
		}
		return nil
	}
	return outputJSON(resp)
}
