package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "contact-upload",
	Short:         "Roster parent-contact sync for the CRM",
	Long:          `Extracts parent contacts from a roster CSV export and creates the ones missing from the CRM through its batch API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
