package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored dialogs",
	Long:  `List, inspect, and remove the dialogs persisted in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active dialogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		keys, err := app.Manager.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing dialogs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(keys) == 0 {
			fmt.Fprintln(out, "No active dialogs found.")
			return nil
		}

		fmt.Fprintln(out, "Active Dialogs:")
		for _, k := range keys {
			fmt.Fprintln(out, "- "+k)
		}
		return nil
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <key>",
	Short: "Print the stored state of a dialog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		snap, err := app.Manager.Repository().Inspect(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error loading dialog '%s': %w", args[0], err)
		}

		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling dialog: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <key>...",
	Short: "Remove one or more dialogs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		failed := 0
		for _, key := range args {
			if err := app.Manager.Repository().Forget(cmd.Context(), key); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", key, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed dialog '%s'\n", key)
		}
		if failed > 0 {
			return fmt.Errorf("%d dialog(s) could not be removed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
