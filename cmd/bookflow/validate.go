package main

import (
	"fmt"

	"github.com/aretw0/bookflow/internal/cli"
	"github.com/aretw0/bookflow/internal/config"
	"github.com/aretw0/bookflow/pkg/adapters/memory"
	"github.com/aretw0/bookflow/pkg/persistence/middleware"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for consistency",
	Long:  `Loads the configuration and checks the services, availability rules, postal pattern and store settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := termenv.NewOutput(cmd.OutOrStdout())
		cfg, err := loadConfig(cmd)
		if err != nil {
			report(out, "config", err)
			return err
		}
		report(out, "config", nil)

		failed := 0
		for _, c := range checks(cfg) {
			err := c.run()
			report(out, c.name, err)
			if err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		fmt.Fprintln(out, out.String("Configuration is valid.").Bold())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

type check struct {
	name string
	run  func() error
}

func checks(cfg *config.Config) []check {
	return []check{
		{"services", func() error {
			_, err := memory.NewCatalog(cfg.Services...)
			return err
		}},
		{"availability", func() error {
			_, err := memory.NewAvailability(cfg.Availability)
			return err
		}},
		{"postal pattern", func() error {
			_, err := cli.NewRegistry(cfg)
			return err
		}},
		{"pii mask", func() error {
			_, err := middleware.NewPIIMiddleware(cfg.Store.PIIMask)
			return err
		}},
		{"encryption key", func() error {
			if cfg.Store.EncryptionKey == "" {
				return nil
			}
			_, err := middleware.ParseKey(cfg.Store.EncryptionKey, cfg.Tenant)
			return err
		}},
	}
}

func report(out *termenv.Output, name string, err error) {
	if err != nil {
		fmt.Fprintf(out, "%s %s: %v\n", out.String("✗").Foreground(termenv.ANSIRed), name, err)
		return
	}
	fmt.Fprintf(out, "%s %s\n", out.String("✓").Foreground(termenv.ANSIGreen), name)
}
