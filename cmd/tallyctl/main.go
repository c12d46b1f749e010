package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tally/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	rootCmd := &cobra.Command{
		Use:   "tallyctl",
		Short: "Manage tally data from the command line",
		Long:  "tallyctl imports, exports, and maintains the local tally database.",
	}

	rootCmd.AddCommand(
		newImportCmd(logger),
		newExportCmd(logger),
		newResetCmd(logger),
		newRecurringCmd(logger),
		newRecurringDisableCmd(logger),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
