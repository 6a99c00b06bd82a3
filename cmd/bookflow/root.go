package main

import (
	"fmt"
	"os"

	"github.com/aretw0/bookflow/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bookflow",
	Short: "Bookflow runs multi-step booking wizards",
	Long: `Bookflow serves a booking wizard over HTTP: area check, service selection,
conditional steps, scheduling and submission, with sessions persisted in memory or Redis.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default ./"+config.ProjectPath+" when present)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
