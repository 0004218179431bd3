// Package notify sends the day's recommendations to a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"safe-bets/internal/pipeline"
)

// Min interval between two messages to the same chat, to stay under the per-chat rate limit.
const sendInterval = 1 * time.Second

// Telegram rejects longer messages.
const maxMessageLen = 4096

// ErrNotConfigured is returned when the bot token or chat is missing.
var ErrNotConfigured = errors.New("telegram bot token and chat id are required")

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts a run summary to one chat.
type TelegramNotifier struct {
	sender   Sender
	chatID   int64
	interval time.Duration
}

// NewTelegramNotifier connects a bot with token and checks it with getMe.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	if token == "" || chatID == 0 {
		return nil, ErrNotConfigured
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	bot.Debug = false
	return NewTelegramNotifierWithSender(bot, chatID), nil
}

// NewTelegramNotifierWithSender creates a notifier on an existing sender.
func NewTelegramNotifierWithSender(sender Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID, interval: sendInterval}
}

// Name identifies the publisher in logs and metrics.
func (n *TelegramNotifier) Name() string {
	return "telegram"
}

// Publish sends the run summary, split into as many messages as needed.
func (n *TelegramNotifier) Publish(ctx context.Context, res *pipeline.Result) error {
	for i, text := range splitMessage(FormatMessage(res), maxMessageLen) {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.interval):
			}
		}
		msg := tgbotapi.NewMessage(n.chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if _, err := n.sender.Send(msg); err != nil {
			return fmt.Errorf("send telegram message %d: %w", i+1, err)
		}
	}
	return nil
}

// FormatMessage renders a run as Telegram HTML.
func FormatMessage(res *pipeline.Result) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<b>Safe bets %s</b>\n", res.RunDate))
	sb.WriteString(fmt.Sprintf("%d matches evaluated, %d skipped\n\n", len(res.Evaluations), res.Absent))

	if len(res.Recommendations) == 0 {
		sb.WriteString("No actionable bet today.\n")
		return sb.String()
	}

	for i, r := range res.Recommendations {
		sb.WriteString(fmt.Sprintf("%d. <b>%s</b>\n", i+1, html.EscapeString(r.Match)))
		sb.WriteString(fmt.Sprintf("   %s (%s) confidence %.3f", html.EscapeString(r.Decision), r.Bet, r.Confidence))
		if !r.Flags.Empty() {
			sb.WriteString(" <i>" + strings.ReplaceAll(r.Flags.String(), "|", ", ") + "</i>")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// splitMessage cuts text on line boundaries into chunks of at most limit bytes.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if cur.Len()+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

var _ pipeline.Publisher = (*TelegramNotifier)(nil)
