package domain

// Parse modes accepted by the Bot API.
const (
	ParseModeHTML       = "HTML"
	ParseModeMarkdown   = "Markdown"
	ParseModeMarkdownV2 = "MarkdownV2"
)

// ChatAction is a status shown to the user while the bot prepares a response.
type ChatAction string

const (
	ActionTyping         ChatAction = "typing"
	ActionUploadPhoto    ChatAction = "upload_photo"
	ActionUploadDocument ChatAction = "upload_document"
	ActionFindLocation   ChatAction = "find_location"
)

// OutboundMessage is a message the engine asks the transport to deliver.
// Options holds provider-specific parameters not modelled explicitly.
type OutboundMessage struct {
	ChatID                int64           `json:"chat_id" mapstructure:"chat_id" yaml:"chat_id,omitempty"`
	Text                  string          `json:"text" mapstructure:"text" yaml:"text"`
	ParseMode             string          `json:"parse_mode,omitempty" mapstructure:"parse_mode" yaml:"parse_mode,omitempty"`
	ReplyToMessageID      int64           `json:"reply_to_message_id,omitempty" mapstructure:"reply_to_message_id" yaml:"reply_to_message_id,omitempty"`
	DisableNotification   bool            `json:"disable_notification,omitempty" mapstructure:"disable_notification" yaml:"disable_notification,omitempty"`
	DisableWebPagePreview bool            `json:"disable_web_page_preview,omitempty" mapstructure:"disable_web_page_preview" yaml:"disable_web_page_preview,omitempty"`
	Keyboard              *InlineKeyboard `json:"reply_markup,omitempty" mapstructure:"reply_markup" yaml:"reply_markup,omitempty"`
	Options               map[string]any  `json:"-" mapstructure:",remain" yaml:"-"`
}

// InlineKeyboard is a grid of buttons attached to a message.
type InlineKeyboard struct {
	Rows [][]InlineButton `json:"inline_keyboard" mapstructure:"inline_keyboard" yaml:"inline_keyboard"`
}

// InlineButton is a single inline keyboard button.
type InlineButton struct {
	Text         string `json:"text" mapstructure:"text" yaml:"text"`
	CallbackData string `json:"callback_data,omitempty" mapstructure:"callback_data" yaml:"callback_data,omitempty"`
	URL          string `json:"url,omitempty" mapstructure:"url" yaml:"url,omitempty"`
}

// NewInlineKeyboard builds a keyboard from rows of buttons.
func NewInlineKeyboard(rows ...[]InlineButton) *InlineKeyboard {
	return &InlineKeyboard{Rows: rows}
}

// SentMessage is the delivery result of an OutboundMessage.
type SentMessage struct {
	MessageID int64
	ChatID    int64
}

// CallbackAnswer answers a callback query.
type CallbackAnswer struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
	CacheTime       int
}
