package telebot

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/tgdialogs/pkg/domain"
	tele "gopkg.in/telebot.v4"
)

// NewPoller returns a long poller; non-positive timeouts default to 10 seconds.
func NewPoller(timeoutSeconds int) *tele.LongPoller {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}
	return &tele.LongPoller{Timeout: time.Duration(timeoutSeconds) * time.Second}
}

// HandlerFunc processes one converted update.
type HandlerFunc func(ctx context.Context, u *domain.Update) error

// Poll feeds updates from poller to handle until ctx is done. Updates are handled one at a
// time, in order. Handler errors are logged and do not stop the loop.
func Poll(ctx context.Context, bot *tele.Bot, poller tele.Poller, handle HandlerFunc, logger *slog.Logger) {
	updates := make(chan tele.Update, 100)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		poller.Poll(bot, updates, stop)
	}()

	for {
		select {
		case <-ctx.Done():
			close(stop)
			<-done
			return
		case u := <-updates:
			if err := handle(ctx, ConvertUpdate(u)); err != nil {
				logger.Error("update handling failed", "update_id", u.ID, "err", err)
			}
		}
	}
}
