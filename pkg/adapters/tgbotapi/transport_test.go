package tgbotapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	botapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tgdialogs/pkg/adapters/tgbotapi"
	"github.com/aretw0/tgdialogs/pkg/domain"
	"github.com/aretw0/tgdialogs/pkg/ports"
)

var _ ports.Transport = (*tgbotapi.Transport)(nil)

type rawCall struct {
	endpoint string
	params   botapi.Params
}

type fakeAPI struct {
	sent     []botapi.Chattable
	requests []botapi.Chattable
	raw      []rawCall
	err      error
}

func (f *fakeAPI) Send(c botapi.Chattable) (botapi.Message, error) {
	f.sent = append(f.sent, c)
	if f.err != nil {
		return botapi.Message{}, f.err
	}
	cfg := c.(botapi.MessageConfig)
	return botapi.Message{MessageID: len(f.sent), Chat: &botapi.Chat{ID: cfg.ChatID}}, nil
}

func (f *fakeAPI) Request(c botapi.Chattable) (*botapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	if f.err != nil {
		return nil, f.err
	}
	return &botapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) MakeRequest(endpoint string, params botapi.Params) (*botapi.APIResponse, error) {
	f.raw = append(f.raw, rawCall{endpoint: endpoint, params: params})
	if f.err != nil {
		return nil, f.err
	}
	return &botapi.APIResponse{Ok: true, Result: json.RawMessage(`{"message_id":11,"date":0,"chat":{"id":42,"type":"supergroup"}}`)}, nil
}

func TestTransport_SendMessage(t *testing.T) {
	api := &fakeAPI{}
	tr := tgbotapi.NewTransport(api)

	sent, err := tr.SendMessage(context.Background(), domain.OutboundMessage{
		ChatID:           42,
		Text:             "pick one",
		ParseMode:        domain.ParseModeHTML,
		ReplyToMessageID: 9,
		Keyboard: domain.NewInlineKeyboard(
			[]domain.InlineButton{{Text: "A", CallbackData: "a"}},
			[]domain.InlineButton{{Text: "Site", URL: "https://example.org"}},
		),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), sent.MessageID)
	assert.Equal(t, int64(42), sent.ChatID)

	require.Len(t, api.sent, 1)
	cfg := api.sent[0].(botapi.MessageConfig)
	assert.Equal(t, "pick one", cfg.Text)
	assert.Equal(t, "HTML", cfg.ParseMode)
	assert.Equal(t, 9, cfg.ReplyToMessageID)

	markup := cfg.ReplyMarkup.(botapi.InlineKeyboardMarkup)
	require.Len(t, markup.InlineKeyboard, 2)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "a", *markup.InlineKeyboard[0][0].CallbackData)
	require.NotNil(t, markup.InlineKeyboard[1][0].URL)
	assert.Equal(t, "https://example.org", *markup.InlineKeyboard[1][0].URL)
}

func TestTransport_NoKeyboard(t *testing.T) {
	api := &fakeAPI{}
	tr := tgbotapi.NewTransport(api)

	_, err := tr.SendMessage(context.Background(), domain.OutboundMessage{ChatID: 1, Text: "plain"})
	require.NoError(t, err)
	assert.Nil(t, api.sent[0].(botapi.MessageConfig).ReplyMarkup)
}

func TestTransport_SendMessageOptions(t *testing.T) {
	api := &fakeAPI{}
	tr := tgbotapi.NewTransport(api)

	sent, err := tr.SendMessage(context.Background(), domain.OutboundMessage{
		ChatID:    42,
		Text:      "in a topic",
		ParseMode: domain.ParseModeHTML,
		Keyboard:  domain.NewInlineKeyboard([]domain.InlineButton{{Text: "A", CallbackData: "a"}}),
		Options: map[string]any{
			"message_thread_id": 7,
			"protect_content":   true,
			"business_id":       "b-1",
			"reply_parameters":  map[string]any{"message_id": 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), sent.MessageID)
	assert.Equal(t, int64(42), sent.ChatID)

	assert.Empty(t, api.sent)
	require.Len(t, api.raw, 1)
	call := api.raw[0]
	assert.Equal(t, "sendMessage", call.endpoint)
	assert.Equal(t, "42", call.params["chat_id"])
	assert.Equal(t, "in a topic", call.params["text"])
	assert.Equal(t, "HTML", call.params["parse_mode"])
	assert.Equal(t, "7", call.params["message_thread_id"])
	assert.Equal(t, "true", call.params["protect_content"])
	assert.Equal(t, "b-1", call.params["business_id"])
	assert.JSONEq(t, `{"message_id":3}`, call.params["reply_parameters"])
	assert.Contains(t, call.params["reply_markup"], `"callback_data":"a"`)
}

func TestTransport_Requests(t *testing.T) {
	api := &fakeAPI{}
	tr := tgbotapi.NewTransport(api)
	ctx := context.Background()

	require.NoError(t, tr.AnswerCallback(ctx, domain.CallbackAnswer{CallbackQueryID: "cb", Text: "thanks", ShowAlert: true}))
	require.NoError(t, tr.SendChatAction(ctx, 42, domain.ActionTyping))

	require.Len(t, api.requests, 2)
	cb := api.requests[0].(botapi.CallbackConfig)
	assert.Equal(t, "cb", cb.CallbackQueryID)
	assert.Equal(t, "thanks", cb.Text)
	assert.True(t, cb.ShowAlert)

	action := api.requests[1].(botapi.ChatActionConfig)
	assert.Equal(t, int64(42), action.ChatID)
	assert.Equal(t, "typing", action.Action)
}

func TestTransport_Errors(t *testing.T) {
	boom := errors.New("boom")
	tr := tgbotapi.NewTransport(&fakeAPI{err: boom})
	ctx := context.Background()

	_, err := tr.SendMessage(ctx, domain.OutboundMessage{ChatID: 1, Text: "x"})
	assert.ErrorIs(t, err, boom)
	_, err = tr.SendMessage(ctx, domain.OutboundMessage{ChatID: 1, Text: "x", Options: map[string]any{"protect_content": true}})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, tr.AnswerCallback(ctx, domain.CallbackAnswer{CallbackQueryID: "x"}), boom)
	assert.ErrorIs(t, tr.SendChatAction(ctx, 1, domain.ActionTyping), boom)
}

func TestTransport_RateLimit(t *testing.T) {
	api := &fakeAPI{}
	tr := tgbotapi.NewTransport(api, tgbotapi.WithRateLimit(1, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := tr.SendMessage(ctx, domain.OutboundMessage{ChatID: 1, Text: "first"})
	require.NoError(t, err)

	// The bucket is empty; the next token arrives after the deadline.
	_, err = tr.SendMessage(ctx, domain.OutboundMessage{ChatID: 1, Text: "second"})
	assert.Error(t, err)
	assert.Len(t, api.sent, 1)
}

func TestConvertUpdate(t *testing.T) {
	u := tgbotapi.ConvertUpdate(botapi.Update{
		UpdateID: 5,
		Message: &botapi.Message{
			MessageID: 1,
			From:      &botapi.User{ID: 7, UserName: "ann"},
			Chat:      &botapi.Chat{ID: 42, Type: "private"},
			Text:      "/start",
		},
	})
	assert.Equal(t, int64(5), u.UpdateID)
	assert.Equal(t, "/start", u.Text())
	assert.Equal(t, int64(42), u.Chat().ID)
	assert.Equal(t, "ann", u.Sender().Username)

	join := tgbotapi.ConvertUpdate(botapi.Update{
		ChatJoinRequest: &botapi.ChatJoinRequest{Chat: botapi.Chat{ID: -100}, From: botapi.User{ID: 3}},
	})
	assert.Equal(t, int64(-100), join.Chat().ID)
	assert.Equal(t, int64(3), join.Sender().ID)
}
