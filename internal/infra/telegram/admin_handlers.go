package telegram

import (
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// restrictToChat drops updates that do not come from the configured chat.
func restrictToChat(chatID int64, logger *logrus.Entry) telebot.MiddlewareFunc {
	return func(next telebot.HandlerFunc) telebot.HandlerFunc {
		return func(c telebot.Context) error {
			if !allowedChat(chatID, c.Chat()) {
				fields := logrus.Fields{"text": c.Text()}
				if c.Chat() != nil {
					fields["chat_id"] = c.Chat().ID
				}
				if c.Sender() != nil {
					fields["sender_id"] = c.Sender().ID
				}
				logger.WithFields(fields).Warn("Unauthorized access attempt")
				return nil
			}
			return next(c)
		}
	}
}

func allowedChat(chatID int64, chat *telebot.Chat) bool {
	return chat != nil && chat.ID == chatID
}
