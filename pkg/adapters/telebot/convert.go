package telebot

import (
	"github.com/aretw0/tgdialogs/pkg/domain"
	tele "gopkg.in/telebot.v4"
)

// ConvertUpdate maps a telebot update to the engine representation.
func ConvertUpdate(u tele.Update) *domain.Update {
	return &domain.Update{
		UpdateID:          int64(u.ID),
		Message:           convertMessage(u.Message),
		EditedMessage:     convertMessage(u.EditedMessage),
		ChannelPost:       convertMessage(u.ChannelPost),
		EditedChannelPost: convertMessage(u.EditedChannelPost),
		CallbackQuery:     convertCallback(u.Callback),
		MyChatMember:      convertMember(u.MyChatMember),
		ChatMember:        convertMember(u.ChatMember),
		ChatJoinRequest:   convertJoinRequest(u.ChatJoinRequest),
	}
}

func convertMessage(m *tele.Message) *domain.Message {
	if m == nil {
		return nil
	}
	return &domain.Message{
		MessageID:      int64(m.ID),
		From:           convertUser(m.Sender),
		Chat:           convertChat(m.Chat),
		Date:           m.Unixtime,
		Text:           m.Text,
		Caption:        m.Caption,
		ReplyToMessage: convertMessage(m.ReplyTo),
	}
}

func convertCallback(c *tele.Callback) *domain.CallbackQuery {
	if c == nil {
		return nil
	}
	return &domain.CallbackQuery{
		ID:      c.ID,
		From:    convertUser(c.Sender),
		Message: convertMessage(c.Message),
		Data:    c.Data,
	}
}

func convertMember(m *tele.ChatMemberUpdate) *domain.ChatMemberUpdated {
	if m == nil {
		return nil
	}
	return &domain.ChatMemberUpdated{
		Chat: convertChat(m.Chat),
		From: convertUser(m.Sender),
		Date: m.Unixtime,
	}
}

func convertJoinRequest(r *tele.ChatJoinRequest) *domain.ChatJoinRequest {
	if r == nil {
		return nil
	}
	return &domain.ChatJoinRequest{
		Chat: convertChat(r.Chat),
		From: convertUser(r.Sender),
	}
}

func convertUser(u *tele.User) *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:        u.ID,
		IsBot:     u.IsBot,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
	}
}

func convertChat(c *tele.Chat) *domain.Chat {
	if c == nil {
		return nil
	}
	return &domain.Chat{
		ID:       c.ID,
		Type:     string(c.Type),
		Title:    c.Title,
		Username: c.Username,
	}
}
