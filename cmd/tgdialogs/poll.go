package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Run the bot with long polling",
	Long:  `Receives updates with getUpdates and feeds them to the dialog router until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		transport, err := app.NewTransport()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app.Logger.Info("polling for updates",
			"client", app.Config.Telegram.Client,
			"store", app.Config.Store.Driver,
			"dialogs", app.Registry.Names(),
		)
		router := app.Router(transport)
		if err := app.Poll(ctx, router.HandleUpdate); err != nil {
			return err
		}
		app.Logger.Info("polling stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pollCmd)
}
