package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Anastasiia-on/intention/internal/dates"
	"github.com/Anastasiia-on/intention/internal/encryption"
	"github.com/Anastasiia-on/intention/internal/i18n"
	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/session"
	"github.com/Anastasiia-on/intention/internal/store"
	"github.com/Anastasiia-on/intention/internal/telegram"
)

const testKeyB64 = "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY="

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *telegram.SendOptions
}

// fakeService records outbound traffic instead of talking to Telegram.
type fakeService struct {
	sent      []sentMessage
	callbacks []string
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
	f.callbacks = append(f.callbacks, callbackID)
	return nil
}

func (f *fakeService) last(t *testing.T) sentMessage {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	bot    *Bot
	store  *store.InMemoryStore
	svc    *fakeService
	cipher *encryption.Cipher
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	st := store.NewInMemoryStore()
	svc := &fakeService{}
	cipher, err := encryption.NewCipher(testKeyB64)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	resolver := dates.NewResolver(time.UTC)
	b := NewBot(st, session.NewStore(), svc, cipher, resolver, opts...)
	return &fixture{bot: b, store: st, svc: svc, cipher: cipher}
}

func (fx *fixture) registeredUser(t *testing.T, telegramID int64) models.User {
	t.Helper()
	u, err := fx.store.UpsertUserLanguage(telegramID, models.LanguageEN, models.Profile{FirstName: "Ada"})
	if err != nil {
		t.Fatalf("UpsertUserLanguage failed: %v", err)
	}
	return u
}

func textEvent(chatID, telegramID int64, text string) models.Event {
	kind := models.EventText
	if strings.HasPrefix(text, "/") {
		kind = models.EventCommand
	}
	return models.Event{
		Kind: kind, TraceID: "t", ChatID: chatID, TelegramID: telegramID,
		Profile: models.Profile{FirstName: "Ada"}, Text: text, Time: time.Now(),
	}
}

func callbackEvent(chatID, telegramID int64, data string) models.Event {
	return models.Event{
		Kind: models.EventCallback, TraceID: "t", ChatID: chatID, TelegramID: telegramID,
		Profile: models.Profile{FirstName: "Ada"}, CallbackID: "cb", CallbackData: data, Time: time.Now(),
	}
}

func photoEvent(chatID, telegramID int64, fileID, caption string) models.Event {
	return models.Event{
		Kind: models.EventPhoto, TraceID: "t", ChatID: chatID, TelegramID: telegramID,
		Profile: models.Profile{FirstName: "Ada"}, PhotoFileID: fileID, Text: caption, Time: time.Now(),
	}
}

func (fx *fixture) handle(t *testing.T, ev models.Event) {
	t.Helper()
	if err := fx.bot.handleEvent(context.Background(), ev); err != nil {
		t.Fatalf("handleEvent failed: %v", err)
	}
}

func TestOnboardingAsksForLanguageThenWelcomes(t *testing.T) {
	fx := newFixture(t)
	en := i18n.Get(models.LanguageEN)

	fx.handle(t, textEvent(5, 100, "hello"))
	if got := fx.svc.last(t).text; got != i18n.LanguageSelectionText {
		t.Fatalf("expected language selection, got %q", got)
	}

	fx.handle(t, textEvent(5, 100, i18n.LanguageEnglishLabel))
	welcome := fx.svc.last(t)
	if !strings.Contains(welcome.text, en.Intro) {
		t.Errorf("expected welcome with intro, got %q", welcome.text)
	}

	user, err := fx.store.GetUserByTelegramID(100)
	if err != nil || user == nil {
		t.Fatalf("user not registered: %v", err)
	}
	if user.Language != models.LanguageEN {
		t.Errorf("expected en, got %s", user.Language)
	}
}

func TestFreeTextYesCreatesIntentionAndEntersConfig(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	en := i18n.Get(models.LanguageEN)

	fx.handle(t, textEvent(5, 100, "meditate daily"))
	if got := fx.svc.last(t).text; got != en.FreeTextPrompt {
		t.Fatalf("expected free text confirm prompt, got %q", got)
	}

	fx.handle(t, callbackEvent(5, 100, "free_text_yes"))
	if got := fx.svc.last(t).text; got != en.ConfigPrompt {
		t.Fatalf("expected config prompt, got %q", got)
	}

	intentions, err := fx.store.ListIntentionsForUser(user.ID)
	if err != nil {
		t.Fatalf("ListIntentionsForUser failed: %v", err)
	}
	if len(intentions) != 1 {
		t.Fatalf("expected 1 intention, got %d", len(intentions))
	}
	text, err := fx.cipher.Decrypt(intentions[0].Payload)
	if err != nil || text != "meditate daily" {
		t.Errorf("decrypted %q (err %v), want original text", text, err)
	}
}

func TestFreeTextNoDiscards(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)

	fx.handle(t, textEvent(5, 100, "just chatting"))
	fx.handle(t, callbackEvent(5, 100, "free_text_no"))

	intentions, _ := fx.store.ListIntentionsForUser(user.ID)
	if len(intentions) != 0 {
		t.Fatalf("expected no intentions, got %d", len(intentions))
	}
}

func TestDateStepAcceptsTomorrowAndReplaces(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	payload, _ := fx.cipher.Encrypt("swim")
	it, _ := fx.store.AddIntention(user.ID, payload)

	fx.handle(t, callbackEvent(5, 100, fmt.Sprintf("intent_add_date:%d", it.ID)))
	fx.handle(t, textEvent(5, 100, "tomorrow"))

	want := time.Now().UTC().AddDate(0, 0, 1).Format(dates.Layout)
	got, err := fx.store.GetIntentionForUser(user.ID, it.ID)
	if err != nil {
		t.Fatalf("GetIntentionForUser failed: %v", err)
	}
	if got.Date != want {
		t.Errorf("expected date %s, got %s", want, got.Date)
	}

	// Setting again replaces rather than appends.
	fx.handle(t, callbackEvent(5, 100, fmt.Sprintf("intent_add_date:%d", it.ID)))
	fx.handle(t, textEvent(5, 100, "2027-01-05"))
	got, _ = fx.store.GetIntentionForUser(user.ID, it.ID)
	if got.Date != "2027-01-05" {
		t.Errorf("expected replaced date, got %s", got.Date)
	}
}

func TestDateStepRejectionKeepsStepOpen(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	payload, _ := fx.cipher.Encrypt("swim")
	it, _ := fx.store.AddIntention(user.ID, payload)
	en := i18n.Get(models.LanguageEN)

	fx.handle(t, callbackEvent(5, 100, fmt.Sprintf("intent_add_date:%d", it.ID)))

	fx.handle(t, textEvent(5, 100, "2025-02-30"))
	if got := fx.svc.last(t).text; got != en.InvalidDateCalendar {
		t.Fatalf("expected calendar rejection, got %q", got)
	}
	fx.handle(t, textEvent(5, 100, "not a date at all zzz"))
	if got := fx.svc.last(t).text; got != en.InvalidDateFormat {
		t.Fatalf("expected format rejection, got %q", got)
	}

	// Step stayed open: a valid date still lands.
	fx.handle(t, textEvent(5, 100, "2027-06-01"))
	got, _ := fx.store.GetIntentionForUser(user.ID, it.ID)
	if got.Date != "2027-06-01" {
		t.Errorf("expected date set after retries, got %q", got.Date)
	}
}

func TestReflectionCaptureTwoTextsOnePhoto(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	payload, _ := fx.cipher.Encrypt("swim")
	it, _ := fx.store.AddIntention(user.ID, payload)
	en := i18n.Get(models.LanguageEN)

	data := fmt.Sprintf("REFLECT_YES:%d:%d", it.ID, time.Now().Unix())
	fx.handle(t, callbackEvent(5, 100, data))
	if got := fx.svc.last(t).text; got != en.ReflectionInstructions {
		t.Fatalf("expected capture instructions, got %q", got)
	}

	fx.handle(t, textEvent(5, 100, "went to the pool"))
	fx.handle(t, textEvent(5, 100, "felt great"))
	fx.handle(t, photoEvent(5, 100, "photo123", ""))

	// Menu labels are inert while capturing.
	before, _ := fx.store.ListReflectionsForUser(user.ID)
	fx.handle(t, textEvent(5, 100, en.MenuAdd))
	after, _ := fx.store.ListReflectionsForUser(user.ID)
	if len(before) != len(after) {
		t.Fatal("menu label must not close the capture")
	}

	fx.handle(t, textEvent(5, 100, en.ReflectionDone))

	reflections, err := fx.store.ListReflectionsForUser(user.ID)
	if err != nil {
		t.Fatalf("ListReflectionsForUser failed: %v", err)
	}
	if len(reflections) != 1 {
		t.Fatalf("expected exactly 1 reflection, got %d", len(reflections))
	}
	r := reflections[0]
	text, _ := fx.cipher.Decrypt(r.Payload)
	if !strings.Contains(text, "went to the pool") || !strings.Contains(text, "felt great") || !strings.Contains(text, en.MenuAdd) {
		t.Errorf("fragments not joined as expected: %q", text)
	}
	if len(r.PhotoFileIDs) != 1 || r.PhotoFileIDs[0] != "photo123" {
		t.Errorf("photo not captured: %v", r.PhotoFileIDs)
	}
	if r.IntentionID != it.ID {
		t.Errorf("expected intention link %d, got %d", it.ID, r.IntentionID)
	}
}

func TestReflectionCancelDiscards(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	en := i18n.Get(models.LanguageEN)

	fx.handle(t, callbackEvent(5, 100, "REFLECT_YES:0:0"))
	fx.handle(t, textEvent(5, 100, "half a thought"))
	fx.handle(t, textEvent(5, 100, en.ReflectionCancel))

	reflections, _ := fx.store.ListReflectionsForUser(user.ID)
	if len(reflections) != 0 {
		t.Fatalf("expected no reflections after cancel, got %d", len(reflections))
	}
}

func TestStaleReflectPromptDropsIntentionLink(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	payload, _ := fx.cipher.Encrypt("swim")
	it, _ := fx.store.AddIntention(user.ID, payload)
	en := i18n.Get(models.LanguageEN)

	old := time.Now().Add(-3 * time.Hour).Unix()
	fx.handle(t, callbackEvent(5, 100, fmt.Sprintf("REFLECT_YES:%d:%d", it.ID, old)))
	fx.handle(t, textEvent(5, 100, "late but here"))
	fx.handle(t, textEvent(5, 100, en.ReflectionDone))

	reflections, _ := fx.store.ListReflectionsForUser(user.ID)
	if len(reflections) != 1 {
		t.Fatalf("expected 1 reflection, got %d", len(reflections))
	}
	if reflections[0].IntentionID != 0 {
		t.Errorf("stale prompt must drop the link, got %d", reflections[0].IntentionID)
	}
}

func TestCommandDuringIntentionEntryKeepsStep(t *testing.T) {
	fx := newFixture(t)
	fx.registeredUser(t, 100)
	en := i18n.Get(models.LanguageEN)

	fx.handle(t, textEvent(5, 100, en.MenuAdd))
	fx.handle(t, textEvent(5, 100, "/oops"))
	if got := fx.svc.last(t).text; got != en.AddPrompt {
		t.Fatalf("expected re-prompt on command-marker text, got %q", got)
	}

	// The step survived the rejection: plain text still lands.
	fx.handle(t, textEvent(5, 100, "write every morning"))
	user, _ := fx.store.GetUserByTelegramID(100)
	intentions, _ := fx.store.ListIntentionsForUser(user.ID)
	if len(intentions) != 1 {
		t.Fatalf("expected 1 intention after retry, got %d", len(intentions))
	}
}

func TestCommandDuringEditKeepsStep(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	payload, _ := fx.cipher.Encrypt("old text")
	it, _ := fx.store.AddIntention(user.ID, payload)
	en := i18n.Get(models.LanguageEN)

	fx.handle(t, callbackEvent(5, 100, fmt.Sprintf("intent_edit:%d", it.ID)))
	fx.handle(t, textEvent(5, 100, "/help"))
	if got := fx.svc.last(t).text; got != en.AddPrompt {
		t.Fatalf("expected re-prompt on command-marker text, got %q", got)
	}

	fx.handle(t, textEvent(5, 100, "new text"))
	got, _ := fx.store.GetIntentionForUser(user.ID, it.ID)
	text, _ := fx.cipher.Decrypt(got.Payload)
	if text != "new text" {
		t.Errorf("edit step lost after command rejection, payload %q", text)
	}
}

func TestStartCommandClearsOpenStep(t *testing.T) {
	fx := newFixture(t)
	fx.registeredUser(t, 100)
	en := i18n.Get(models.LanguageEN)

	fx.handle(t, textEvent(5, 100, en.MenuAdd))
	fx.handle(t, textEvent(5, 100, "/start"))
	if got := fx.svc.last(t).text; got != en.MainMenuTitle {
		t.Fatalf("expected menu after /start, got %q", got)
	}

	// The step is gone: the next text goes to the free-text stash instead.
	fx.handle(t, textEvent(5, 100, "just a thought"))
	if got := fx.svc.last(t).text; got != en.FreeTextPrompt {
		t.Fatalf("expected free-text confirm after /start reset, got %q", got)
	}
}

func TestForgedDeleteRespondsNormally(t *testing.T) {
	fx := newFixture(t)
	owner := fx.registeredUser(t, 100)
	fx.registeredUser(t, 200)
	payload, _ := fx.cipher.Encrypt("secret plan")
	it, _ := fx.store.AddIntention(owner.ID, payload)
	en := i18n.Get(models.LanguageEN)

	// The second user forges the owner's intention id.
	fx.handle(t, callbackEvent(6, 200, fmt.Sprintf("intent_delete:%d", it.ID)))
	if got := fx.svc.last(t).text; got != en.IntentionDeleted {
		t.Fatalf("forged delete must look normal, got %q", got)
	}
	if _, err := fx.store.GetIntentionForUser(owner.ID, it.ID); err != nil {
		t.Errorf("owner's intention must survive a forged delete: %v", err)
	}
}

func TestEditReplacesTextKeepsDate(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	payload, _ := fx.cipher.Encrypt("old text")
	it, _ := fx.store.AddIntention(user.ID, payload)
	fx.store.SetIntentionDate(user.ID, it.ID, "2027-03-03")

	fx.handle(t, callbackEvent(5, 100, fmt.Sprintf("intent_edit:%d", it.ID)))
	fx.handle(t, textEvent(5, 100, "new text"))

	got, _ := fx.store.GetIntentionForUser(user.ID, it.ID)
	text, _ := fx.cipher.Decrypt(got.Payload)
	if text != "new text" {
		t.Errorf("expected replaced text, got %q", text)
	}
	if got.Date != "2027-03-03" {
		t.Errorf("date must be untouched by edit, got %q", got.Date)
	}
}

func TestNewCategoryAttachedToExistingIntention(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	payload, _ := fx.cipher.Encrypt("read more")
	it, _ := fx.store.AddIntention(user.ID, payload)

	// No categories yet: the chooser jumps straight to naming one.
	fx.handle(t, callbackEvent(5, 100, fmt.Sprintf("intent_cat:%d", it.ID)))
	fx.handle(t, textEvent(5, 100, "books"))

	got, _ := fx.store.GetIntentionForUser(user.ID, it.ID)
	if got.CategoryName != "books" {
		t.Errorf("expected category attached, got %q", got.CategoryName)
	}
}

func TestCategoryPreseededIntention(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)
	category, _ := fx.store.CreateOrReuseCategory(user.ID, "health")

	fx.handle(t, callbackEvent(5, 100, fmt.Sprintf("cat_add_intent:%d", category.ID)))
	fx.handle(t, textEvent(5, 100, "sleep by eleven"))

	intentions, _ := fx.store.ListIntentionsForUserByCategory(user.ID, category.ID)
	if len(intentions) != 1 {
		t.Fatalf("expected 1 intention in the category, got %d", len(intentions))
	}
}

func TestLanguageSwitchChangesReplies(t *testing.T) {
	fx := newFixture(t)
	fx.registeredUser(t, 100)
	uk := i18n.Get(models.LanguageUK)

	fx.handle(t, textEvent(5, 100, i18n.LanguageUkrainianLabel))
	if got := fx.svc.last(t).text; got != uk.MainMenuTitle {
		t.Fatalf("expected ukrainian menu, got %q", got)
	}

	user, _ := fx.store.GetUserByTelegramID(100)
	if user.Language != models.LanguageUK {
		t.Errorf("language not persisted, got %s", user.Language)
	}
}

func TestBroadcastFlowAdminOnly(t *testing.T) {
	fx := newFixture(t, WithAdminTelegramID(100))
	fx.registeredUser(t, 100)
	other := fx.registeredUser(t, 200)
	_ = other
	en := i18n.Get(models.LanguageEN)

	fx.handle(t, textEvent(5, 100, en.MenuBroadcast))
	fx.handle(t, textEvent(5, 100, "spring check-in for everyone"))
	if got := fx.svc.last(t).text; got != en.BroadcastConfirm {
		t.Fatalf("expected broadcast confirm, got %q", got)
	}
	fx.handle(t, callbackEvent(5, 100, "broadcast_yes"))

	var delivered int
	for _, m := range fx.svc.sent {
		if m.text == "spring check-in for everyone" {
			delivered++
		}
	}
	if delivered != 2 {
		t.Errorf("expected broadcast to 2 users, delivered %d", delivered)
	}
}

func TestStrayPhotoIsIgnored(t *testing.T) {
	fx := newFixture(t)
	user := fx.registeredUser(t, 100)

	before := len(fx.svc.sent)
	fx.handle(t, photoEvent(5, 100, "random", ""))
	if len(fx.svc.sent) != before {
		t.Errorf("stray photo must not produce a reply")
	}
	reflections, _ := fx.store.ListReflectionsForUser(user.ID)
	if len(reflections) != 0 {
		t.Errorf("stray photo must not persist anything")
	}
}
