package tgbotapi

import (
	"context"
	"log/slog"

	botapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

// HandlerFunc processes one converted update.
type HandlerFunc func(ctx context.Context, u *domain.Update) error

// Poll long-polls getUpdates and hands every update to handle, in order, until ctx is done.
func Poll(ctx context.Context, api *botapi.BotAPI, timeoutSeconds int, handle HandlerFunc, logger *slog.Logger) {
	cfg := botapi.NewUpdate(0)
	cfg.Timeout = timeoutSeconds
	updates := api.GetUpdatesChan(cfg)
	defer api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := handle(ctx, ConvertUpdate(u)); err != nil {
				logger.Error("update handling failed", "update_id", u.UpdateID, "err", err)
			}
		}
	}
}
