package tgbotapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	botapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/aretw0/tgdialogs/internal/logging"
	"github.com/aretw0/tgdialogs/pkg/domain"
)

// Telegram allows about 30 messages per second per bot.
const (
	DefaultRate  = 30
	DefaultBurst = 30
)

// API is the part of *tgbotapi.BotAPI the transport needs.
type API interface {
	Send(c botapi.Chattable) (botapi.Message, error)
	Request(c botapi.Chattable) (*botapi.APIResponse, error)
	MakeRequest(endpoint string, params botapi.Params) (*botapi.APIResponse, error)
}

// Transport implements ports.Transport on top of telegram-bot-api with client-side
// rate limiting.
type Transport struct {
	api     API
	limiter *rate.Limiter
	logger  *slog.Logger
}

// Option configures the Transport.
type Option func(*Transport)

// WithRateLimit caps outgoing calls to perSecond with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(t *Transport) {
		if perSecond <= 0 {
			t.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// NewTransport wraps an API client.
func NewTransport(api API, opts ...Option) *Transport {
	t := &Transport{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(DefaultRate), DefaultBurst),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewBotAPI connects to the Bot API. An empty endpoint uses the public one.
func NewBotAPI(token, endpoint string, timeout time.Duration) (*botapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = botapi.APIEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	api, err := botapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return api, nil
}

func (t *Transport) SendMessage(ctx context.Context, msg domain.OutboundMessage) (*domain.SentMessage, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	var (
		sent botapi.Message
		err  error
	)
	if len(msg.Options) > 0 {
		sent, err = t.sendRaw(msg)
	} else {
		cfg := botapi.NewMessage(msg.ChatID, msg.Text)
		cfg.ParseMode = msg.ParseMode
		cfg.DisableNotification = msg.DisableNotification
		cfg.DisableWebPagePreview = msg.DisableWebPagePreview
		cfg.ReplyToMessageID = int(msg.ReplyToMessageID)
		if kb := keyboard(msg.Keyboard); kb != nil {
			cfg.ReplyMarkup = *kb
		}
		sent, err = t.api.Send(cfg)
	}
	if err != nil {
		t.logger.Error("failed to send telegram message",
			"chat_id", msg.ChatID,
			"duration_ms", time.Since(start).Milliseconds(),
			"err", err,
		)
		return nil, fmt.Errorf("failed to send message: %w", err)
	}

	out := &domain.SentMessage{MessageID: int64(sent.MessageID), ChatID: msg.ChatID}
	if sent.Chat != nil {
		out.ChatID = sent.Chat.ID
	}
	return out, nil
}

func (t *Transport) AnswerCallback(ctx context.Context, answer domain.CallbackAnswer) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	cfg := botapi.NewCallback(answer.CallbackQueryID, answer.Text)
	cfg.ShowAlert = answer.ShowAlert
	cfg.CacheTime = answer.CacheTime
	if _, err := t.api.Request(cfg); err != nil {
		return fmt.Errorf("failed to answer callback: %w", err)
	}
	return nil
}

func (t *Transport) SendChatAction(ctx context.Context, chatID int64, action domain.ChatAction) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if _, err := t.api.Request(botapi.NewChatAction(chatID, string(action))); err != nil {
		return fmt.Errorf("failed to send chat action: %w", err)
	}
	return nil
}

// sendRaw calls sendMessage with the modelled fields plus every provider option.
// Options override modelled fields of the same name.
func (t *Transport) sendRaw(msg domain.OutboundMessage) (botapi.Message, error) {
	params := botapi.Params{
		"chat_id": strconv.FormatInt(msg.ChatID, 10),
		"text":    msg.Text,
	}
	params.AddNonEmpty("parse_mode", msg.ParseMode)
	params.AddBool("disable_notification", msg.DisableNotification)
	params.AddBool("disable_web_page_preview", msg.DisableWebPagePreview)
	params.AddNonZero64("reply_to_message_id", msg.ReplyToMessageID)
	if kb := keyboard(msg.Keyboard); kb != nil {
		if err := params.AddInterface("reply_markup", kb); err != nil {
			return botapi.Message{}, fmt.Errorf("encode reply_markup: %w", err)
		}
	}
	for k, v := range msg.Options {
		value, err := paramValue(v)
		if err != nil {
			return botapi.Message{}, fmt.Errorf("encode option %q: %w", k, err)
		}
		params[k] = value
	}

	resp, err := t.api.MakeRequest("sendMessage", params)
	if err != nil {
		return botapi.Message{}, err
	}
	var sent botapi.Message
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		return botapi.Message{}, fmt.Errorf("decode sent message: %w", err)
	}
	return sent, nil
}

// paramValue renders an option as a form value: strings verbatim, everything else as JSON.
func paramValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func keyboard(kb *domain.InlineKeyboard) *botapi.InlineKeyboardMarkup {
	if kb == nil {
		return nil
	}
	rows := make([][]botapi.InlineKeyboardButton, 0, len(kb.Rows))
	for _, row := range kb.Rows {
		buttons := make([]botapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, botapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, botapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
		}
		rows = append(rows, buttons)
	}
	markup := botapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}
