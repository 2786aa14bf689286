package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tgdialogs/internal/presentation/graph"
	"github.com/aretw0/tgdialogs/pkg/dialog"
	"github.com/aretw0/tgdialogs/pkg/dialogs/hello"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [flows.yaml]",
	Short: "Export dialog graphs as Mermaid diagrams",
	Long: `Outputs a Mermaid diagram (graph TD) for every dialog of a flow file, or for the
built-in hello dialog when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defs := []*dialog.Definition{hello.Definition()}
		if len(args) == 1 {
			loaded, err := dialog.LoadFlowsFile(args[0])
			if err != nil {
				return err
			}
			defs = loaded
		}

		only, _ := cmd.Flags().GetString("dialog")
		current, _ := cmd.Flags().GetString("current")

		var overlay *graph.GraphOverlay
		if current != "" {
			overlay = &graph.GraphOverlay{CurrentStep: current}
		}

		printed := 0
		for _, def := range defs {
			if only != "" && def.Name != only {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%%%% dialog: %s\n", def.Name)
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, overlay))
			printed++
		}
		if printed == 0 {
			return fmt.Errorf("no dialog named %q", only)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("dialog", "", "Only render the named dialog")
	graphCmd.Flags().String("current", "", "Highlight a step")
}
