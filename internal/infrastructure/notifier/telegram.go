package notifier

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"minefactory.backend/internal/domain/entities"
	"minefactory.backend/pkg/logger"
)

// MessageSender is the part of *tgbotapi.BotAPI the notifier needs
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UserLookup resolves a user to their Telegram chat
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
}

// TelegramNotifier delivers user notifications as bot messages
type TelegramNotifier struct {
	api   MessageSender
	users UserLookup
}

// NewTelegramNotifier creates a notifier over a bot connection
func NewTelegramNotifier(api MessageSender, users UserLookup) *TelegramNotifier {
	return &TelegramNotifier{api: api, users: users}
}

// NotifyUser sends message to the user's private chat
func (n *TelegramNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, message string) error {
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve telegram chat for %s: %w", userID, err)
	}

	msg := tgbotapi.NewMessage(user.TelegramID, message)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// LogNotifier is used when no bot token is configured
type LogNotifier struct{}

// NotifyUser writes the message to the log
func (LogNotifier) NotifyUser(ctx context.Context, userID uuid.UUID, message string) error {
	logger.Info(ctx, "User notification", zap.String("user_id", userID.String()), zap.String("message", message))
	return nil
}
