package session

import (
	"strconv"

	"github.com/aretw0/tgdialogs/pkg/dialog"
)

// ChatKey is the key of a dialog shared by every participant of a chat.
func ChatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// UserKey is the key of a dialog bound to one participant of a chat.
func UserKey(chatID, userID int64) string {
	return strconv.FormatInt(chatID, 10) + "-" + strconv.FormatInt(userID, 10)
}

// KeyFor returns the key a dialog is stored under.
func KeyFor(d *dialog.Dialog) string {
	if userID, ok := d.UserID(); ok {
		return UserKey(d.ChatID(), userID)
	}
	return ChatKey(d.ChatID())
}
