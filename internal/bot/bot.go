// Package bot implements the dialogue controller: the per-chat
// conversational state machine that turns inbound chat events into store
// mutations and replies.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Anastasiia-on/intention/internal/dates"
	"github.com/Anastasiia-on/intention/internal/encryption"
	"github.com/Anastasiia-on/intention/internal/messaging"
	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/session"
	"github.com/Anastasiia-on/intention/internal/store"
)

// Constants for Bot configuration
const (
	// DefaultReflectionTTL is the window during which a reflect-yes press
	// still links the reflection to the prompted intention.
	DefaultReflectionTTL = 2 * time.Hour
	// DefaultWorkerQueueSize is the per-chat event queue depth.
	DefaultWorkerQueueSize = 16
)

// Opts holds configuration options for the bot.
type Opts struct {
	ReflectionTTL   time.Duration
	AdminTelegramID int64
}

// Option defines a configuration option for NewBot.
type Option func(*Opts)

// WithReflectionTTL overrides the reflect-prompt stale window.
func WithReflectionTTL(ttl time.Duration) Option {
	return func(o *Opts) {
		if ttl > 0 {
			o.ReflectionTTL = ttl
		}
	}
}

// WithAdminTelegramID marks one Telegram account as the broadcast admin.
func WithAdminTelegramID(id int64) Option {
	return func(o *Opts) { o.AdminTelegramID = id }
}

// Bot is the dialogue controller. Events for the same chat are handled
// strictly in order by a dedicated worker goroutine; distinct chats run
// concurrently.
type Bot struct {
	store    store.Store
	sessions *session.Store
	msg      messaging.Service
	cipher   *encryption.Cipher
	resolver *dates.Resolver

	reflectionTTL time.Duration
	adminID       int64

	mu      sync.Mutex
	workers map[int64]chan models.Event
	wg      sync.WaitGroup
}

// NewBot wires the controller from its collaborators.
func NewBot(st store.Store, sessions *session.Store, msg messaging.Service, cipher *encryption.Cipher, resolver *dates.Resolver, opts ...Option) *Bot {
	cfg := Opts{ReflectionTTL: DefaultReflectionTTL}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Bot{
		store:         st,
		sessions:      sessions,
		msg:           msg,
		cipher:        cipher,
		resolver:      resolver,
		reflectionTTL: cfg.ReflectionTTL,
		adminID:       cfg.AdminTelegramID,
		workers:       make(map[int64]chan models.Event),
	}
}

// Run consumes the messaging event channel until the context is cancelled
// or the channel closes. It blocks the caller.
func (b *Bot) Run(ctx context.Context) {
	slog.Info("Bot event loop starting")
	for {
		select {
		case <-ctx.Done():
			slog.Info("Bot event loop stopping", "reason", ctx.Err())
			b.drainWorkers()
			return
		case ev, ok := <-b.msg.Events():
			if !ok {
				slog.Info("Bot event channel closed")
				b.drainWorkers()
				return
			}
			b.dispatch(ctx, ev)
		}
	}
}

// dispatch routes one event onto its chat's worker queue, starting the
// worker on first contact.
func (b *Bot) dispatch(ctx context.Context, ev models.Event) {
	b.mu.Lock()
	queue, ok := b.workers[ev.ChatID]
	if !ok {
		queue = make(chan models.Event, DefaultWorkerQueueSize)
		b.workers[ev.ChatID] = queue
		b.wg.Add(1)
		go b.chatWorker(ctx, ev.ChatID, queue)
	}
	b.mu.Unlock()

	select {
	case queue <- ev:
	default:
		slog.Warn("Bot chat queue full, dropping event", "chat_id", ev.ChatID, "trace_id", ev.TraceID)
	}
}

func (b *Bot) chatWorker(ctx context.Context, chatID int64, queue <-chan models.Event) {
	defer b.wg.Done()
	slog.Debug("Bot chat worker started", "chat_id", chatID)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-queue:
			if !ok {
				return
			}
			if err := b.handleEvent(ctx, ev); err != nil {
				slog.Error("Bot event handling failed", "error", err, "chat_id", chatID, "trace_id", ev.TraceID, "kind", ev.Kind)
			}
		}
	}
}

func (b *Bot) drainWorkers() {
	b.mu.Lock()
	for id, queue := range b.workers {
		close(queue)
		delete(b.workers, id)
	}
	b.mu.Unlock()
	b.wg.Wait()
}
