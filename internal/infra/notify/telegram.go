package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/pressops/internal/domain/alerts"
)

// BotSender is satisfied by *tgbotapi.BotAPI.
type BotSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts to the admin chat.
type TelegramSink struct {
	api    BotSender
	chatID int64
}

func NewTelegramSink(api BotSender, chatID int64) *TelegramSink {
	return &TelegramSink{api: api, chatID: chatID}
}

func (s *TelegramSink) Name() string { return "telegram" }

func icon(p alerts.Priority) string {
	switch p {
	case alerts.PriorityHigh:
		return "🔴"
	case alerts.PriorityMedium:
		return "⚠️"
	}
	return "ℹ️"
}

func (s *TelegramSink) Send(_ context.Context, n Notification) error {
	msg := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("%s %s\n%s", icon(n.Priority), n.Title, n.Message))
	msg.DisableWebPagePreview = true
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
