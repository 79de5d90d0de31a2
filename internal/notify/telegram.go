// Package notify sends capacity net-addition summaries via the Telegram Bot
// API. Whenever a ledger refresh surfaces a new latest month whose total
// capacity moved by at least the configured threshold against the comparison
// window, one MarkdownV2 message is sent. Delivery is retried; the summary
// for a given latest month is sent at most once per process lifetime.
package notify

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/gridledger/internal/models"
	"github.com/rewired-gh/gridledger/internal/month"
)

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration

	notifiedMonths map[month.Key]bool
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		notifiedMonths: make(map[month.Key]bool),
	}, nil
}

// AlreadySent reports whether a summary ending at the given month was sent.
func (c *Client) AlreadySent(end month.Key) bool {
	return c.notifiedMonths[end]
}

// SendDelta sends a net-addition summary for the given delta and records the
// end month as notified on success.
func (c *Client) SendDelta(delta models.Delta) error {
	msg := tgbotapi.NewMessage(c.chatID, formatDelta(delta))
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			c.notifiedMonths[delta.End] = true
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatDelta formats a capacity delta into a Telegram message
func formatDelta(delta models.Delta) string {
	directionEmoji := "📈"
	if delta.Direction == models.DirectionNegative {
		directionEmoji = "📉"
	}

	message := "⚡ *Installed Capacity Update*\n\n"
	message += fmt.Sprintf("%s Net addition %s → %s: *%s GW*\n",
		directionEmoji,
		escapeMarkdownV2(string(delta.Start)),
		escapeMarkdownV2(string(delta.End)),
		escapeMarkdownV2(fmt.Sprintf("%+.2f", delta.Total)))
	message += fmt.Sprintf("Total: %s → %s GW\n\n",
		escapeMarkdownV2(fmt.Sprintf("%.2f", delta.StartTotal)),
		escapeMarkdownV2(fmt.Sprintf("%.2f", delta.EndTotal)))

	for _, s := range models.AllSources {
		v := delta.PerSource[s]
		if v == 0 {
			continue
		}
		message += fmt.Sprintf("• %s: %s GW\n",
			escapeMarkdownV2(string(s)),
			escapeMarkdownV2(fmt.Sprintf("%+.2f", v)))
	}
	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	result := ""
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			result += "\\" + string(char)
		default:
			result += string(char)
		}
	}
	return result
}
