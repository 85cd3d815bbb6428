// Package telegram delivers digest messages to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dailydigest/digestd/internal/digest"
)

// Config holds bot credentials and the target chat.
type Config struct {
	Token  string
	ChatID int64
}

// Notifier implements digest.Notifier over the Telegram Bot API.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New builds a Notifier, validating the token against the API.
func New(cfg Config) (*Notifier, error) {
	if cfg.Token == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram token and chat_id are required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: cfg.ChatID}, nil
}

// Deliver sends the message as a single chat post. Telegram has no
// subject line, so the subject becomes the first bold line.
func (n *Notifier) Deliver(_ context.Context, msg digest.Message) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*\n\n", escapeMarkdown(msg.Subject))
	if msg.Title != "" && msg.Title != msg.Subject {
		fmt.Fprintf(&sb, "%s\n\n", escapeMarkdown(msg.Title))
	}
	sb.WriteString(escapeMarkdown(msg.Body))
	if msg.URL != "" {
		fmt.Fprintf(&sb, "\n\n%s", msg.URL)
	}

	out := tgbotapi.NewMessage(n.chatID, sb.String())
	out.ParseMode = tgbotapi.ModeMarkdown
	out.DisableWebPagePreview = false
	if _, err := n.bot.Send(out); err != nil {
		return fmt.Errorf("%w: telegram send: %v", digest.ErrDeliveryFailed, err)
	}
	return nil
}

func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer("*", "\\*", "_", "\\_", "`", "\\`", "[", "\\[")
	return replacer.Replace(s)
}
