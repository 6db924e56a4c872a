package jobs

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Anastasiia-on/intention/internal/encryption"
	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/store"
	"github.com/Anastasiia-on/intention/internal/telegram"
)

const testKeyB64 = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *telegram.SendOptions
}

// fakeService records outbound messages instead of talking to Telegram.
type fakeService struct {
	sent []sentMessage
}

func (f *fakeService) Start(ctx context.Context) error { return nil }
func (f *fakeService) Stop() error                     { return nil }
func (f *fakeService) Events() <-chan models.Event     { return nil }

func (f *fakeService) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeService) SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, keyboard: opts})
	return nil
}

func (f *fakeService) SendPhoto(ctx context.Context, chatID int64, fileID, caption string) error {
	return nil
}

func (f *fakeService) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return nil
}

func newTestRunner(t *testing.T) (*Runner, *store.InMemoryStore, *fakeService, *encryption.Cipher) {
	t.Helper()
	st := store.NewInMemoryStore()
	svc := &fakeService{}
	cipher, err := encryption.NewCipher(testKeyB64)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	return NewRunner(st, svc, cipher, time.UTC), st, svc, cipher
}

func addUser(t *testing.T, st store.Store, telegramID int64) models.User {
	t.Helper()
	u, err := st.UpsertUserLanguage(telegramID, models.LanguageEN, models.Profile{FirstName: "Test"})
	if err != nil {
		t.Fatalf("UpsertUserLanguage failed: %v", err)
	}
	return u
}

func addDatedIntention(t *testing.T, st store.Store, cipher *encryption.Cipher, userID int64, text, date string) models.Intention {
	t.Helper()
	payload, err := cipher.Encrypt(text)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	it, err := st.AddIntention(userID, payload)
	if err != nil {
		t.Fatalf("AddIntention failed: %v", err)
	}
	if err := st.SetIntentionDate(userID, it.ID, date); err != nil {
		t.Fatalf("SetIntentionDate failed: %v", err)
	}
	return it
}

// Sunday in the test calendar.
var sunday = time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

func TestMorningReminderSentOnceForTomorrow(t *testing.T) {
	runner, st, svc, cipher := newTestRunner(t)
	user := addUser(t, st, 100)
	addDatedIntention(t, st, cipher, user.ID, "run 5k", "2026-03-16")

	tick := sunday.Add(9 * time.Hour) // user default reminder time 09:00
	runner.Tick(context.Background(), tick)
	runner.Tick(context.Background(), tick)

	if len(svc.sent) != 1 {
		t.Fatalf("expected exactly 1 reminder, got %d", len(svc.sent))
	}
	if svc.sent[0].chatID != user.TelegramID {
		t.Errorf("reminder sent to wrong chat %d", svc.sent[0].chatID)
	}
	if !strings.Contains(svc.sent[0].text, "run 5k") {
		t.Errorf("reminder missing decrypted intention: %q", svc.sent[0].text)
	}
}

func TestMorningReminderSkippedWithoutIntentions(t *testing.T) {
	runner, st, svc, _ := newTestRunner(t)
	addUser(t, st, 100)

	runner.Tick(context.Background(), sunday.Add(9*time.Hour))
	if len(svc.sent) != 0 {
		t.Fatalf("expected no sends, got %d", len(svc.sent))
	}
}

func TestEveningPromptPerIntentionWithKeyboard(t *testing.T) {
	runner, st, svc, cipher := newTestRunner(t)
	user := addUser(t, st, 100)
	addDatedIntention(t, st, cipher, user.ID, "call grandma", "2026-03-15")
	addDatedIntention(t, st, cipher, user.ID, "water plants", "2026-03-15")

	tick := sunday.Add(20*time.Hour + 30*time.Minute) // default evening time 20:30
	runner.Tick(context.Background(), tick)
	runner.Tick(context.Background(), tick)

	if len(svc.sent) != 2 {
		t.Fatalf("expected 2 evening prompts, got %d", len(svc.sent))
	}
	for _, m := range svc.sent {
		if m.keyboard == nil || m.keyboard.InlineKeyboard == nil {
			t.Errorf("evening prompt missing reflect keyboard: %q", m.text)
		}
	}
}

func TestWeeklySummaryOnlyOnSunday(t *testing.T) {
	runner, st, svc, _ := newTestRunner(t)
	addUser(t, st, 100)

	monday := sunday.AddDate(0, 0, 1)
	runner.Tick(context.Background(), monday.Add(18*time.Hour)) // default weekly time 18:00
	if len(svc.sent) != 0 {
		t.Fatalf("expected no weekly summary on Monday, got %d sends", len(svc.sent))
	}

	runner.Tick(context.Background(), sunday.Add(18*time.Hour))
	if len(svc.sent) != 1 {
		t.Fatalf("expected 1 weekly summary on Sunday, got %d", len(svc.sent))
	}
	runner.Tick(context.Background(), sunday.Add(18*time.Hour))
	if len(svc.sent) != 1 {
		t.Fatalf("weekly summary deduped, expected still 1, got %d", len(svc.sent))
	}
}

func TestMonthlySummaryOnLastDayOnly(t *testing.T) {
	runner, st, svc, cipher := newTestRunner(t)
	user := addUser(t, st, 100)
	addDatedIntention(t, st, cipher, user.ID, "finish the book", "2026-03-20")

	notLast := time.Date(2026, 3, 30, 21, 0, 0, 0, time.UTC)
	runner.Tick(context.Background(), notLast)
	if len(svc.sent) != 0 {
		t.Fatalf("expected no monthly summary before the last day, got %d", len(svc.sent))
	}

	last := time.Date(2026, 3, 31, 21, 0, 0, 0, time.UTC) // default monthly time 21:00
	runner.Tick(context.Background(), last)
	runner.Tick(context.Background(), last)
	if len(svc.sent) != 1 {
		t.Fatalf("expected exactly 1 monthly summary, got %d", len(svc.sent))
	}
	if !strings.Contains(svc.sent[0].text, "1") {
		t.Errorf("monthly summary missing counts: %q", svc.sent[0].text)
	}
}
