package telebot_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/aretw0/tgdialogs/internal/logging"
	"github.com/aretw0/tgdialogs/pkg/adapters/telebot"
	"github.com/aretw0/tgdialogs/pkg/domain"
)

type scriptedPoller struct {
	updates []tele.Update
	stopped atomic.Bool
}

func (p *scriptedPoller) Poll(_ *tele.Bot, dest chan tele.Update, stop chan struct{}) {
	for _, u := range p.updates {
		dest <- u
	}
	<-stop
	p.stopped.Store(true)
}

func TestPoll(t *testing.T) {
	bot, err := tele.NewBot(tele.Settings{Token: "TOKEN", Offline: true})
	require.NoError(t, err)

	poller := &scriptedPoller{updates: []tele.Update{
		{ID: 1, Message: &tele.Message{Text: "a", Chat: &tele.Chat{ID: 1}}},
		{ID: 2, Message: &tele.Message{Text: "b", Chat: &tele.Chat{ID: 1}}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var texts []string
	done := make(chan struct{})
	go func() {
		telebot.Poll(ctx, bot, poller, func(_ context.Context, u *domain.Update) error {
			texts = append(texts, u.Text())
			if len(texts) == 2 {
				cancel()
			}
			return errors.New("handler errors are only logged")
		}, logging.NewNop())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not return after cancel")
	}
	assert.Equal(t, []string{"a", "b"}, texts)
	assert.True(t, poller.stopped.Load())
}

func TestNewPoller(t *testing.T) {
	assert.Equal(t, 10*time.Second, telebot.NewPoller(0).Timeout)
	assert.Equal(t, 25*time.Second, telebot.NewPoller(25).Timeout)
}
