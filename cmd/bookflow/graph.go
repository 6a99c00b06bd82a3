package main

import (
	"fmt"

	"github.com/aretw0/bookflow/internal/cli"
	"github.com/aretw0/bookflow/internal/presentation/graph"
	"github.com/aretw0/bookflow/pkg/domain"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the wizard steps as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph TD) of the booking steps. Conditional steps are
drawn as hexagons; steps hidden by the configured form settings are greyed out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		settings, err := cfg.Settings()
		if err != nil {
			return err
		}
		reg, err := cli.NewRegistry(cfg)
		if err != nil {
			return err
		}

		wctx := domain.NewContext(settings)
		overlay := &graph.GraphOverlay{}
		for _, s := range reg.Steps() {
			if !s.IsVisible(wctx) {
				overlay.Hidden = append(overlay.Hidden, s.ID)
			}
		}
		if plain, _ := cmd.Flags().GetBool("plain"); plain {
			overlay = nil
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(reg.Steps(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("plain", false, "Do not style steps hidden by the form settings")
}
