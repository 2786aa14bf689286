package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/tgdialogs/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot behind a webhook",
	Long: `Starts an HTTP server receiving Telegram webhook calls, plus /health, /info and,
when metrics are enabled, /metrics. Register the webhook URL with setWebhook separately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close(context.Background())

		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			app.Config.Webhook.Listen = listen
		}
		if app.Config.Webhook.Listen == "" {
			app.Config.Webhook.Listen = ":8080"
		}

		transport, err := app.NewTransport()
		if err != nil {
			return err
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithPath(app.Config.Webhook.Path),
			httpAdapter.WithSecret(app.Config.Webhook.Secret),
			httpAdapter.WithLogger(app.Logger),
		}
		if app.Metrics != nil {
			opts = append(opts, httpAdapter.WithMetrics(app.Metrics.Handler()))
		}

		srv := &http.Server{
			Addr:              app.Config.Webhook.Listen,
			Handler:           httpAdapter.NewHandler(app.Router(transport), opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("starting webhook server", "addr", srv.Addr, "store", app.Config.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			app.Logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Warn("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("listen", "l", "", "Address to listen on (overrides webhook.listen)")
}
