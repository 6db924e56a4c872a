// Package messaging abstracts the chat transport behind a small interface
// so the dialogue controller and the scheduled jobs never talk to the
// Telegram client directly.
package messaging

import (
	"context"

	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/telegram"
)

// Service defines a pluggable message delivery abstraction.
// It supports sending messages with keyboards and provides a channel of
// inbound chat events.
type Service interface {
	// Start begins background processing (e.g., long polling for updates).
	Start(ctx context.Context) error

	// Stop stops background processing and closes the event channel.
	Stop() error

	// SendMessage sends plain text to a chat.
	SendMessage(ctx context.Context, chatID int64, text string) error

	// SendMessageWithKeyboard sends text with a keyboard attachment.
	SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) error

	// SendPhoto re-sends a stored photo by its provider file id.
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error

	// AnswerCallback acknowledges an inline button press.
	AnswerCallback(ctx context.Context, callbackID, text string) error

	// Events returns the channel of inbound chat events.
	Events() <-chan models.Event
}
