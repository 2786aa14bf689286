package domain

// Update represents an incoming Telegram update.
// Field names follow the Bot API so webhook payloads decode directly into it.
type Update struct {
	UpdateID int64 `json:"update_id"`

	Message           *Message           `json:"message,omitempty"`
	EditedMessage     *Message           `json:"edited_message,omitempty"`
	ChannelPost       *Message           `json:"channel_post,omitempty"`
	EditedChannelPost *Message           `json:"edited_channel_post,omitempty"`
	CallbackQuery     *CallbackQuery     `json:"callback_query,omitempty"`
	MyChatMember      *ChatMemberUpdated `json:"my_chat_member,omitempty"`
	ChatMember        *ChatMemberUpdated `json:"chat_member,omitempty"`
	ChatJoinRequest   *ChatJoinRequest   `json:"chat_join_request,omitempty"`

	// BotInitiated marks synthetic updates created on the server side to start a dialog.
	BotInitiated bool `json:"-"`
}

// Message represents a Telegram message.
type Message struct {
	MessageID      int64    `json:"message_id"`
	From           *User    `json:"from,omitempty"`
	Chat           *Chat    `json:"chat"`
	Date           int64    `json:"date,omitempty"`
	Text           string   `json:"text,omitempty"`
	Caption        string   `json:"caption,omitempty"`
	ReplyToMessage *Message `json:"reply_to_message,omitempty"`
}

// CallbackQuery represents a press on an inline keyboard button.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// ChatMemberUpdated represents a change of a chat member status.
type ChatMemberUpdated struct {
	Chat *Chat `json:"chat"`
	From *User `json:"from"`
	Date int64 `json:"date,omitempty"`
}

// ChatJoinRequest represents a request to join a chat.
type ChatJoinRequest struct {
	Chat *Chat `json:"chat"`
	From *User `json:"from"`
}

// User represents a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Chat represents a Telegram chat.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type,omitempty"` // "private", "group", "supergroup", "channel"
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// EffectiveMessage returns the message carried by the update, if any.
// For callback queries it is the message the inline keyboard is attached to.
func (u *Update) EffectiveMessage() *Message {
	if u == nil {
		return nil
	}
	switch {
	case u.Message != nil:
		return u.Message
	case u.EditedMessage != nil:
		return u.EditedMessage
	case u.ChannelPost != nil:
		return u.ChannelPost
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost
	case u.CallbackQuery != nil:
		return u.CallbackQuery.Message
	}
	return nil
}

// Chat returns the chat the update belongs to, or nil when it cannot be determined.
func (u *Update) Chat() *Chat {
	if u == nil {
		return nil
	}
	if msg := u.EffectiveMessage(); msg != nil && msg.Chat != nil {
		return msg.Chat
	}
	switch {
	case u.MyChatMember != nil:
		return u.MyChatMember.Chat
	case u.ChatMember != nil:
		return u.ChatMember.Chat
	case u.ChatJoinRequest != nil:
		return u.ChatJoinRequest.Chat
	}
	return nil
}

// Sender returns the user who triggered the update, or nil when it is unknown.
// For callback queries this is the user who pressed the button, not the author of the message.
func (u *Update) Sender() *User {
	if u == nil {
		return nil
	}
	switch {
	case u.CallbackQuery != nil:
		return u.CallbackQuery.From
	case u.Message != nil:
		return u.Message.From
	case u.EditedMessage != nil:
		return u.EditedMessage.From
	case u.ChannelPost != nil:
		return u.ChannelPost.From
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost.From
	case u.MyChatMember != nil:
		return u.MyChatMember.From
	case u.ChatMember != nil:
		return u.ChatMember.From
	case u.ChatJoinRequest != nil:
		return u.ChatJoinRequest.From
	}
	return nil
}

// Text returns the text of the effective message (or its caption).
func (u *Update) Text() string {
	msg := u.EffectiveMessage()
	if msg == nil || u.CallbackQuery != nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// BotInitiatedUpdate creates a synthetic update used to run a dialog step without user input.
// A nil userID produces an update without a sender.
func BotInitiatedUpdate(chatID int64, userID *int64) *Update {
	msg := &Message{Chat: &Chat{ID: chatID}}
	if userID != nil {
		msg.From = &User{ID: *userID}
	}
	return &Update{Message: msg, BotInitiated: true}
}
