package ports

import (
	"context"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

// Transport defines the outbound side of the messaging bot API.
// Errors are returned as-is; the engine does not retry them.
type Transport interface {
	// SendMessage delivers a message to msg.ChatID.
	SendMessage(ctx context.Context, msg domain.OutboundMessage) (*domain.SentMessage, error)

	// AnswerCallback acknowledges a callback query.
	AnswerCallback(ctx context.Context, answer domain.CallbackAnswer) error

	// SendChatAction shows a status such as "typing" in the chat.
	SendChatAction(ctx context.Context, chatID int64, action domain.ChatAction) error
}
