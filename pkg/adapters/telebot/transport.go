package telebot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aretw0/tgdialogs/internal/logging"
	"github.com/aretw0/tgdialogs/pkg/domain"
	tele "gopkg.in/telebot.v4"
)

// API is the part of *tele.Bot the transport needs.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
	Notify(to tele.Recipient, action tele.ChatAction, threadID ...int) error
	Raw(method string, payload interface{}) ([]byte, error)
}

// Transport implements ports.Transport on top of telebot.
type Transport struct {
	api    API
	logger *slog.Logger
}

// Option configures the Transport.
type Option func(*Transport)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTransport wraps a bot.
func NewTransport(api API, opts ...Option) *Transport {
	t := &Transport{api: api, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewBot creates a telebot bot with a long poller. Updates are not dispatched by telebot
// itself; see Poll.
func NewBot(token string, timeoutSeconds int) (*tele.Bot, error) {
	return tele.NewBot(tele.Settings{
		Token:  token,
		Poller: NewPoller(timeoutSeconds),
	})
}

func (t *Transport) SendMessage(ctx context.Context, msg domain.OutboundMessage) (*domain.SentMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(msg.Options) > 0 {
		return t.sendRaw(msg)
	}

	opts := &tele.SendOptions{
		ParseMode:             tele.ParseMode(msg.ParseMode),
		DisableNotification:   msg.DisableNotification,
		DisableWebPagePreview: msg.DisableWebPagePreview,
		ReplyMarkup:           markup(msg.Keyboard),
	}
	if msg.ReplyToMessageID != 0 {
		opts.ReplyTo = &tele.Message{ID: int(msg.ReplyToMessageID)}
	}
	sent, err := t.api.Send(tele.ChatID(msg.ChatID), msg.Text, opts)
	if err != nil {
		return nil, fmt.Errorf("telebot send: %w", err)
	}

	out := &domain.SentMessage{MessageID: int64(sent.ID), ChatID: msg.ChatID}
	if sent.Chat != nil {
		out.ChatID = sent.Chat.ID
	}
	return out, nil
}

// sendRaw calls sendMessage with the modelled fields plus every provider option.
// Options override modelled fields of the same name.
func (t *Transport) sendRaw(msg domain.OutboundMessage) (*domain.SentMessage, error) {
	params := map[string]any{
		"chat_id": strconv.FormatInt(msg.ChatID, 10),
		"text":    msg.Text,
	}
	if msg.ParseMode != "" {
		params["parse_mode"] = msg.ParseMode
	}
	if msg.DisableNotification {
		params["disable_notification"] = true
	}
	if msg.DisableWebPagePreview {
		params["disable_web_page_preview"] = true
	}
	if msg.ReplyToMessageID != 0 {
		params["reply_to_message_id"] = msg.ReplyToMessageID
	}
	if kb := markup(msg.Keyboard); kb != nil {
		data, err := json.Marshal(kb)
		if err != nil {
			return nil, fmt.Errorf("telebot encode reply_markup: %w", err)
		}
		params["reply_markup"] = string(data)
	}
	for k, v := range msg.Options {
		params[k] = v
	}

	data, err := t.api.Raw("sendMessage", params)
	if err != nil {
		t.logger.Error("telebot raw send failed", "chat_id", msg.ChatID, "err", err)
		return nil, fmt.Errorf("telebot send: %w", err)
	}

	var resp struct {
		Result *tele.Message `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("telebot decode sent message: %w", err)
	}
	out := &domain.SentMessage{ChatID: msg.ChatID}
	if resp.Result != nil {
		out.MessageID = int64(resp.Result.ID)
		if resp.Result.Chat != nil {
			out.ChatID = resp.Result.Chat.ID
		}
	}
	return out, nil
}

func (t *Transport) AnswerCallback(ctx context.Context, answer domain.CallbackAnswer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := t.api.Respond(&tele.Callback{ID: answer.CallbackQueryID}, &tele.CallbackResponse{
		Text:      answer.Text,
		ShowAlert: answer.ShowAlert,
	})
	if err != nil {
		return fmt.Errorf("telebot answer callback: %w", err)
	}
	return nil
}

func (t *Transport) SendChatAction(ctx context.Context, chatID int64, action domain.ChatAction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.api.Notify(tele.ChatID(chatID), tele.ChatAction(action)); err != nil {
		return fmt.Errorf("telebot chat action: %w", err)
	}
	return nil
}

func markup(kb *domain.InlineKeyboard) *tele.ReplyMarkup {
	if kb == nil {
		return nil
	}
	rows := make([][]tele.InlineButton, len(kb.Rows))
	for i, row := range kb.Rows {
		r := make([]tele.InlineButton, len(row))
		for j, b := range row {
			r[j] = tele.InlineButton{Text: b.Text, Data: b.CallbackData, URL: b.URL}
		}
		rows[i] = r
	}
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}
