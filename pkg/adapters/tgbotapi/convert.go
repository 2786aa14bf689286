package tgbotapi

import (
	botapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aretw0/tgdialogs/pkg/domain"
)

// ConvertUpdate maps a telegram-bot-api update to the engine representation.
func ConvertUpdate(u botapi.Update) *domain.Update {
	out := &domain.Update{
		UpdateID:          int64(u.UpdateID),
		Message:           convertMessage(u.Message),
		EditedMessage:     convertMessage(u.EditedMessage),
		ChannelPost:       convertMessage(u.ChannelPost),
		EditedChannelPost: convertMessage(u.EditedChannelPost),
		MyChatMember:      convertMember(u.MyChatMember),
		ChatMember:        convertMember(u.ChatMember),
	}
	if c := u.CallbackQuery; c != nil {
		out.CallbackQuery = &domain.CallbackQuery{
			ID:      c.ID,
			From:    convertUser(c.From),
			Message: convertMessage(c.Message),
			Data:    c.Data,
		}
	}
	if r := u.ChatJoinRequest; r != nil {
		out.ChatJoinRequest = &domain.ChatJoinRequest{
			Chat: convertChat(&r.Chat),
			From: convertUser(&r.From),
		}
	}
	return out
}

func convertMessage(m *botapi.Message) *domain.Message {
	if m == nil {
		return nil
	}
	return &domain.Message{
		MessageID:      int64(m.MessageID),
		From:           convertUser(m.From),
		Chat:           convertChat(m.Chat),
		Date:           int64(m.Date),
		Text:           m.Text,
		Caption:        m.Caption,
		ReplyToMessage: convertMessage(m.ReplyToMessage),
	}
}

func convertMember(m *botapi.ChatMemberUpdated) *domain.ChatMemberUpdated {
	if m == nil {
		return nil
	}
	return &domain.ChatMemberUpdated{
		Chat: convertChat(&m.Chat),
		From: convertUser(&m.From),
		Date: int64(m.Date),
	}
}

func convertUser(u *botapi.User) *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:        u.ID,
		IsBot:     u.IsBot,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}

func convertChat(c *botapi.Chat) *domain.Chat {
	if c == nil {
		return nil
	}
	return &domain.Chat{
		ID:       c.ID,
		Type:     c.Type,
		Title:    c.Title,
		Username: c.UserName,
	}
}
