package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/tgdialogs/pkg/dialog"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flows.yaml>...",
	Short: "Validate declarative dialog files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			defs, err := dialog.LoadFlowsFile(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s\n  %v\n", path, err)
				failed++
				continue
			}
			for _, def := range defs {
				fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s (%d steps)\n", path, def.Name, len(def.Steps))
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d file(s) failed validation", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
