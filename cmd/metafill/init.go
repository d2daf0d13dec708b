package main

import (
	"github.com/opted-eu/metafill/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new metafill repository",
	Long:  `Initialize a new metafill repository in the current directory.`,
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := getStartingDirectory()

	if config.IsRepository(root) {
		exitWithError(ExitError, "metafill repository already exists in this directory")
	}

	if err := config.Init(root); err != nil {
		exitWithError(ExitError, "initializing repository: %v", err)
	}

	if humanOutput {
		outputHuman("Initialized metafill repository in %s\n", root)
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	return nil
}
