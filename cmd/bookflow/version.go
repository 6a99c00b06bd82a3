package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/bookflow"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bookflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bookflow version %s\n", strings.TrimSpace(bookflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
