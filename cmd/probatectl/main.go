package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd(openPGUsers).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(openUsers repoOpener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "probatectl",
		Short:         "Operator tools for the probate backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(feeCmd())
	rootCmd.AddCommand(deadlinesCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd(openUsers))

	return rootCmd
}
