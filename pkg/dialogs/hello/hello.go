// Package hello is a small demo dialog: it asks for the user's mood with an inline
// keyboard, answers it, and offers to start again.
package hello

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/tgdialogs/pkg/dialog"
	"github.com/aretw0/tgdialogs/pkg/domain"
	"github.com/aretw0/tgdialogs/pkg/dsl"
)

// Name identifies the dialog in storage.
const Name = "hello"

const moodPrefix = "MOOD:"

var definition = dsl.Define(Name).
	Handle("sayHello", sayHello).
	Handle("empathyReply", empathyReply).
	Handle("sayBye", sayBye).
	MustBuild()

// Definition returns the shared definition of the dialog.
func Definition() *dialog.Definition { return definition }

// New starts a hello dialog in chatID.
func New(chatID int64, opts ...dialog.Option) *dialog.Dialog {
	return definition.New(chatID, opts...)
}

func moodKeyboard() *domain.InlineKeyboard {
	return domain.NewInlineKeyboard([]domain.InlineButton{
		{Text: "Awesome 🤩", CallbackData: moodPrefix + "awesome"},
		{Text: "Great 😀", CallbackData: moodPrefix + "great"},
		{Text: "Good 🙂", CallbackData: moodPrefix + "good"},
		{Text: "Bad ☹️", CallbackData: moodPrefix + "bad"},
	})
}

func sayHello(ctx context.Context, d *dialog.Dialog, u *domain.Update) (dialog.Outcome, error) {
	name := ""
	if u.Message != nil && u.Message.From != nil {
		name = u.Message.From.FirstName
	}

	_, err := d.Send(ctx, domain.OutboundMessage{
		Text:     fmt.Sprintf("👋 %s! I’m a Dialog bot. How are you today?", name),
		Keyboard: moodKeyboard(),
	})
	return dialog.Advance(), err
}

func empathyReply(ctx context.Context, d *dialog.Dialog, u *domain.Update) (dialog.Outcome, error) {
	cb := u.CallbackQuery
	if cb == nil || !strings.HasPrefix(cb.Data, moodPrefix) {
		if err := d.Reply(ctx, "Please answer the question by selecting one of the options from the inline keyboard above."); err != nil {
			return dialog.Outcome{}, err
		}
		return dialog.Outcome{}, fmt.Errorf("%w: callback query expected", domain.ErrUnexpectedUpdate)
	}

	if err := d.AnswerCallback(ctx, domain.CallbackAnswer{CallbackQueryID: cb.ID, CacheTime: 2}); err != nil {
		return dialog.Outcome{}, err
	}

	mood := strings.TrimPrefix(cb.Data, moodPrefix)
	if err := d.Memory().Put("userMood", mood); err != nil {
		return dialog.Outcome{}, err
	}

	if _, err := d.Send(ctx, domain.OutboundMessage{
		Text:      fmt.Sprintf("I’m also doing <b>%s</b> today!", mood),
		ParseMode: domain.ParseModeHTML,
	}); err != nil {
		return dialog.Outcome{}, err
	}

	if err := d.SendChatAction(ctx, domain.ActionTyping); err != nil {
		return dialog.Outcome{}, err
	}

	_, err := d.Send(ctx, domain.OutboundMessage{
		Text:      "Do you want to start again? Just type <code>again</code>, or send me anything else to finish the dialog!",
		ParseMode: domain.ParseModeHTML,
	})
	return dialog.Advance(), err
}

func sayBye(ctx context.Context, d *dialog.Dialog, u *domain.Update) (dialog.Outcome, error) {
	if u.Message != nil && u.Message.Text == "again" {
		if _, err := d.Send(ctx, domain.OutboundMessage{
			Text:             fmt.Sprintf("OK, send me something, we will try to improve your %s mood! 😀", d.Memory().Value("userMood", "awesome")),
			ReplyToMessageID: u.Message.MessageID,
		}); err != nil {
			return dialog.Outcome{}, err
		}
		return dialog.JumpTo("sayHello"), nil
	}

	_, err := d.Send(ctx, domain.OutboundMessage{
		Text:      "Bye!\n\nPS: Please do not forget to star <a href='https://github.com/aretw0/tgdialogs'>tgdialogs</a> if you like this library! ⭐️",
		ParseMode: domain.ParseModeHTML,
	})
	return dialog.Advance(), err
}
