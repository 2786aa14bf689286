package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tgdialogs"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tgdialogs",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tgdialogs version %s\n", strings.TrimSpace(tgdialogs.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
