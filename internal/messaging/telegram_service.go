package messaging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/telegram"
	"github.com/google/uuid"
)

// Constants for TelegramService configuration
const (
	// DefaultChannelBufferSize defines the default buffer size for the event channel
	DefaultChannelBufferSize = 100
	// DefaultPollTimeout defines the long-poll timeout for getUpdates
	DefaultPollTimeout = 30 * time.Second
	// DefaultPollRetryDelay defines the pause after a failed poll before retrying
	DefaultPollRetryDelay = 3 * time.Second
)

// TelegramService implements Service over the Telegram Bot API client.
type TelegramService struct {
	client *telegram.Client
	events chan models.Event
	done   chan struct{}
}

// NewTelegramService creates a TelegramService wrapping the given client.
func NewTelegramService(client *telegram.Client) *TelegramService {
	return &TelegramService{
		client: client,
		events: make(chan models.Event, DefaultChannelBufferSize),
		done:   make(chan struct{}),
	}
}

// Start validates the token and begins long polling in the background.
func (s *TelegramService) Start(ctx context.Context) error {
	slog.Debug("TelegramService Start invoked")
	me, err := s.client.GetMe(ctx)
	if err != nil {
		slog.Error("TelegramService token validation failed", "error", err)
		return err
	}
	slog.Info("TelegramService authorized", "bot_id", me.ID, "username", me.Username)

	go s.pollLoop(ctx)
	return nil
}

// Stop stops background processing and closes the event channel.
func (s *TelegramService) Stop() error {
	slog.Info("TelegramService Stop invoked")
	close(s.done)
	return nil
}

// Events returns the channel of inbound chat events.
func (s *TelegramService) Events() <-chan models.Event {
	return s.events
}

func (s *TelegramService) SendMessage(ctx context.Context, chatID int64, text string) error {
	return s.SendMessageWithKeyboard(ctx, chatID, text, nil)
}

func (s *TelegramService) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) error {
	slog.Debug("TelegramService SendMessage invoked", "chat_id", chatID, "body_length", len(text))
	if err := s.client.SendMessage(ctx, chatID, text, opts); err != nil {
		slog.Error("TelegramService SendMessage error", "error", err, "chat_id", chatID)
		return err
	}
	return nil
}

func (s *TelegramService) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	slog.Debug("TelegramService SendPhoto invoked", "chat_id", chatID)
	if err := s.client.SendPhoto(ctx, chatID, fileID, caption); err != nil {
		slog.Error("TelegramService SendPhoto error", "error", err, "chat_id", chatID)
		return err
	}
	return nil
}

func (s *TelegramService) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := s.client.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		slog.Error("TelegramService AnswerCallback error", "error", err)
		return err
	}
	return nil
}

// pollLoop long-polls getUpdates until the context or service is stopped.
func (s *TelegramService) pollLoop(ctx context.Context) {
	slog.Debug("TelegramService pollLoop starting")
	defer close(s.events)

	var offset int64
	for {
		select {
		case <-ctx.Done():
			slog.Debug("TelegramService pollLoop stopping due to context cancellation")
			return
		case <-s.done:
			slog.Debug("TelegramService pollLoop stopping due to Stop")
			return
		default:
		}

		updates, next, err := s.client.GetUpdates(ctx, offset, DefaultPollTimeout)
		if err != nil {
			if telegram.IsPollTimeout(err) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			slog.Error("TelegramService poll failed", "error", err)
			select {
			case <-time.After(DefaultPollRetryDelay):
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
			continue
		}
		offset = next

		for _, update := range updates {
			ev, ok := convertUpdate(update)
			if !ok {
				continue
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			case <-s.done:
				return
			}
		}
	}
}

// convertUpdate maps one Telegram update onto the internal event union.
// Updates without actionable content (stickers, edits of old messages with
// no text) are dropped.
func convertUpdate(update telegram.Update) (models.Event, bool) {
	ev := models.Event{
		TraceID: uuid.NewString(),
		Time:    time.Now(),
	}

	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
			return ev, false
		}
		ev.Kind = models.EventCallback
		ev.ChatID = cb.Message.Chat.ID
		ev.TelegramID = cb.From.ID
		ev.Profile = profileOf(cb.From)
		ev.CallbackID = cb.ID
		ev.CallbackData = cb.Data
		return ev, true
	}

	msg := update.Message
	if msg == nil {
		msg = update.EditedMessage
	}
	if msg == nil || msg.Chat == nil || msg.From == nil {
		return ev, false
	}
	if msg.From.IsBot {
		return ev, false
	}

	ev.ChatID = msg.Chat.ID
	ev.TelegramID = msg.From.ID
	ev.Profile = profileOf(msg.From)

	if fileID := telegram.LargestPhoto(msg); fileID != "" {
		ev.Kind = models.EventPhoto
		ev.PhotoFileID = fileID
		ev.Text = strings.TrimSpace(msg.Caption)
		return ev, true
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return ev, false
	}
	if strings.HasPrefix(text, "/") {
		ev.Kind = models.EventCommand
	} else {
		ev.Kind = models.EventText
	}
	ev.Text = text
	return ev, true
}

func profileOf(u *telegram.User) models.Profile {
	return models.Profile{
		FirstName: strings.TrimSpace(u.FirstName),
		LastName:  strings.TrimSpace(u.LastName),
		Username:  strings.TrimSpace(u.Username),
	}
}
