// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"peptrack_reminders/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// sender is the part of *telebot.Bot used to push messages.
type sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// NewBot creates a long-polling bot. A bad token makes the channel unavailable.
func NewBot(token string, logger *logrus.Entry) (*telebot.Bot, error) {
	pref := telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := logger.WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"message":   c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telebot error")
		},
	}
	b, err := telebot.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("%w: telegram bot: %v", notification.ErrChannelUnavailable, err)
	}
	return b, nil
}

// Notifier implements notification.Notifier by messaging a single chat.
type Notifier struct {
	bot    sender
	chat   *telebot.Chat
	logger *logrus.Entry
}

func NewNotifier(bot sender, chatID int64, logger *logrus.Entry) *Notifier {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Notifier{
		bot:    bot,
		chat:   &telebot.Chat{ID: chatID},
		logger: logger.WithField("component", "telegram_notifier"),
	}
}

var _ notification.Notifier = (*Notifier)(nil)

// Notify sends "*title*\nbody" in Markdown. Telegram has no replace-by-tag,
// so the tag is only logged.
func (n *Notifier) Notify(ctx context.Context, title, body, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := "*" + escapeMarkdown(title) + "*\n" + escapeMarkdown(body)
	msg, err := n.bot.Send(n.chat, text, &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	if err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", n.chat.ID, err)
	}
	fields := logrus.Fields{"chat_id": n.chat.ID, "tag": tag}
	if msg != nil {
		fields["message_id"] = msg.ID
	}
	n.logger.WithFields(fields).Debug("Telegram notification sent")
	return nil
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
