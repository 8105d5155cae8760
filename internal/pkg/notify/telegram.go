package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Min interval between messages to the same chat to stay clear of
// Telegram's ~30/min rate limit.
const sendInterval = 2 * time.Second

// TelegramNotifier reports run outcomes to a Telegram chat.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64

	mu       sync.Mutex
	lastSend time.Time
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	slog.Info("Telegram notifier initialized", "bot", bot.Self.UserName, "chat_id", chatID)
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) NotifyRunFinished(fixtures int, duration time.Duration) {
	n.send(fmt.Sprintf("2up scrape finished: %d fixtures in %s", fixtures, duration.Round(time.Second)))
}

func (n *TelegramNotifier) NotifyRunFailed(err error) {
	n.send(fmt.Sprintf("2up scrape failed: %v", err))
}

func (n *TelegramNotifier) send(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if wait := sendInterval - time.Since(n.lastSend); wait > 0 {
		time.Sleep(wait)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		slog.Warn("Failed to send telegram notification", "error", err)
		return
	}
	n.lastSend = time.Now()
}
