package testutils

import (
	"context"
	"sync"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

// Transport records everything sent through it. Safe for concurrent use.
type Transport struct {
	mu        sync.Mutex
	Messages  []domain.OutboundMessage
	Callbacks []domain.CallbackAnswer
	Actions   []domain.ChatAction
	// Err, when set, is returned by every call.
	Err    error
	nextID int64
}

// NewTransport creates an empty recording transport.
func NewTransport() *Transport {
	return &Transport{}
}

func (t *Transport) SendMessage(_ context.Context, msg domain.OutboundMessage) (*domain.SentMessage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return nil, t.Err
	}
	t.Messages = append(t.Messages, msg)
	t.nextID++
	return &domain.SentMessage{MessageID: t.nextID, ChatID: msg.ChatID}, nil
}

func (t *Transport) AnswerCallback(_ context.Context, answer domain.CallbackAnswer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return t.Err
	}
	t.Callbacks = append(t.Callbacks, answer)
	return nil
}

func (t *Transport) SendChatAction(_ context.Context, _ int64, action domain.ChatAction) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Err != nil {
		return t.Err
	}
	t.Actions = append(t.Actions, action)
	return nil
}

// Texts returns the text of every sent message, in order.
func (t *Transport) Texts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.Messages))
	for i, m := range t.Messages {
		out[i] = m.Text
	}
	return out
}

// LastMessage returns the most recent message, or a zero value.
func (t *Transport) LastMessage() domain.OutboundMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Messages) == 0 {
		return domain.OutboundMessage{}
	}
	return t.Messages[len(t.Messages)-1]
}

// Reset forgets recorded calls.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Messages = nil
	t.Callbacks = nil
	t.Actions = nil
}

// TextUpdate builds a private text message from userID in chatID.
func TextUpdate(chatID, userID int64, text string) *domain.Update {
	return &domain.Update{
		Message: &domain.Message{
			MessageID: 1,
			From:      &domain.User{ID: userID},
			Chat:      &domain.Chat{ID: chatID, Type: "private"},
			Text:      text,
		},
	}
}

// CallbackUpdate builds a callback query pressed by userID on a bot message in chatID.
func CallbackUpdate(chatID, userID int64, id, data string) *domain.Update {
	return &domain.Update{
		CallbackQuery: &domain.CallbackQuery{
			ID:   id,
			From: &domain.User{ID: userID},
			Message: &domain.Message{
				MessageID: 2,
				Chat:      &domain.Chat{ID: chatID, Type: "private"},
			},
			Data: data,
		},
	}
}
