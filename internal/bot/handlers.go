package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Anastasiia-on/intention/internal/dates"
	"github.com/Anastasiia-on/intention/internal/i18n"
	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/session"
	"github.com/Anastasiia-on/intention/internal/store"
)

// handleEvent is the single entry point for one inbound event. Dispatch
// order: unknown user, reflection capture, callbacks, menu labels, step
// input, opportunistic free text.
func (b *Bot) handleEvent(ctx context.Context, ev models.Event) error {
	sess := b.sessions.Get(ev.ChatID)

	user, err := b.store.GetUserByTelegramID(ev.TelegramID)
	if err != nil {
		return err
	}
	if user == nil {
		return b.handleOnboarding(ctx, ev, sess)
	}
	sess.Language = user.Language
	msgs := i18n.Get(user.Language)

	if sess.InReflectionMode() {
		return b.handleReflectionCapture(ctx, ev, sess, *user, msgs)
	}

	switch ev.Kind {
	case models.EventCallback:
		return b.handleCallback(ctx, ev, sess, *user, msgs)
	case models.EventCommand:
		return b.handleCommand(ctx, ev, sess, *user, msgs)
	case models.EventPhoto:
		return b.handlePhoto(ctx, ev, sess, *user, msgs)
	case models.EventText:
		if handled, err := b.handleMenuLabel(ctx, ev, sess, *user, msgs); handled {
			return err
		}
		return b.handleStepText(ctx, ev, sess, *user, msgs)
	default:
		slog.Debug("Bot ignoring event kind", "kind", ev.Kind, "trace_id", ev.TraceID)
		return nil
	}
}

// handleOnboarding runs until the user picks a language. Whatever an
// unknown user sends, the answer is the language choice, never an error.
func (b *Bot) handleOnboarding(ctx context.Context, ev models.Event, sess *session.Session) error {
	if ev.Kind == models.EventCallback {
		b.answerCallback(ctx, ev)
	}
	if ev.Kind == models.EventText {
		var lang models.Language
		switch strings.TrimSpace(ev.Text) {
		case i18n.LanguageEnglishLabel:
			lang = models.LanguageEN
		case i18n.LanguageUkrainianLabel:
			lang = models.LanguageUK
		}
		if lang.Valid() {
			user, err := b.store.UpsertUserLanguage(ev.TelegramID, lang, ev.Profile)
			if err != nil {
				return err
			}
			sess.Language = user.Language
			msgs := i18n.Get(user.Language)
			slog.Info("Bot registered new user", "telegram_id", ev.TelegramID, "language", lang)
			welcome := i18n.WelcomeCaption + "\n\n" + msgs.Intro + "\n\n" + msgs.Privacy
			return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, welcome, learnMoreKeyboard(msgs))
		}
	}
	return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, i18n.LanguageSelectionText, languageKeyboard())
}

// handleReflectionCapture routes every event into the open capture until
// a sentinel closes it. Menu labels and steps do not exist here.
func (b *Bot) handleReflectionCapture(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages) error {
	capture := sess.Reflection

	switch ev.Kind {
	case models.EventCallback:
		// Buttons from older messages are acknowledged and dropped.
		b.answerCallback(ctx, ev)
		return nil
	case models.EventPhoto:
		capture.PhotoFileIDs = append(capture.PhotoFileIDs, ev.PhotoFileID)
		if ev.Text != "" {
			capture.TextParts = append(capture.TextParts, ev.Text)
		}
		return nil
	case models.EventText:
		switch ev.Text {
		case msgs.ReflectionDone:
			return b.finishReflection(ctx, ev.ChatID, sess, user, msgs)
		case msgs.ReflectionCancel:
			sess.ClearReflection()
			return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.ReflectionCancelAck, mainMenuKeyboard(msgs, b.isAdmin(user)))
		default:
			capture.TextParts = append(capture.TextParts, ev.Text)
			return nil
		}
	default:
		return nil
	}
}

// finishReflection persists the accumulated capture as one record.
func (b *Bot) finishReflection(ctx context.Context, chatID int64, sess *session.Session, user models.User, msgs i18n.Messages) error {
	capture := sess.Reflection
	sess.ClearReflection()

	if len(capture.TextParts) == 0 && len(capture.PhotoFileIDs) == 0 {
		return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.ReflectionCancelAck, mainMenuKeyboard(msgs, b.isAdmin(user)))
	}

	payload, err := b.cipher.Encrypt(strings.Join(capture.TextParts, "\n"))
	if err != nil {
		return err
	}
	if _, err := b.store.AddReflection(user.ID, b.resolver.Today(), payload, capture.PhotoFileIDs, capture.IntentionID); err != nil {
		return err
	}
	slog.Info("Bot reflection saved", "user_id", user.ID, "parts", len(capture.TextParts), "photos", len(capture.PhotoFileIDs), "intention_id", capture.IntentionID)
	return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.ReflectionSaved, mainMenuKeyboard(msgs, b.isAdmin(user)))
}

func (b *Bot) handleCommand(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages) error {
	// Command-marker text while intention text is awaited is rejected with
	// a re-prompt; the step stays open for a real answer.
	if strings.Fields(ev.Text)[0] != "/start" {
		switch sess.Step {
		case session.StepAwaitingIntentionText, session.StepAwaitingEditText:
			return b.msg.SendMessage(ctx, ev.ChatID, msgs.AddPrompt)
		}
	}

	sess.ClearFlow()
	switch strings.Fields(ev.Text)[0] {
	case "/start":
		if err := b.store.UpdateUserProfile(ev.TelegramID, ev.Profile); err != nil {
			slog.Error("Bot profile refresh failed", "error", err, "telegram_id", ev.TelegramID)
		}
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.MainMenuTitle, mainMenuKeyboard(msgs, b.isAdmin(user)))
	default:
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.OtherAction, mainMenuKeyboard(msgs, b.isAdmin(user)))
	}
}

// handleMenuLabel reacts to persistent keyboard presses. It reports false
// when the text is not a menu label so step dispatch can run.
func (b *Bot) handleMenuLabel(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages) (bool, error) {
	switch ev.Text {
	case i18n.LanguageEnglishLabel:
		return true, b.switchLanguage(ctx, ev, sess, models.LanguageEN)
	case i18n.LanguageUkrainianLabel:
		return true, b.switchLanguage(ctx, ev, sess, models.LanguageUK)

	case msgs.MenuAdd:
		sess.ClearFlow()
		sess.EnterStep(session.StepAwaitingIntentionText, ev.Time)
		return true, b.msg.SendMessage(ctx, ev.ChatID, msgs.AddPrompt)

	case msgs.MenuShow:
		sess.ClearFlow()
		return true, b.sendIntentionList(ctx, ev.ChatID, user, msgs)

	case msgs.MenuReflections:
		sess.ClearFlow()
		return true, b.sendReflectionList(ctx, ev.ChatID, user, msgs)

	case msgs.MenuCategories:
		sess.ClearFlow()
		categories, err := b.store.ListCategoriesForUser(user.ID)
		if err != nil {
			return true, err
		}
		title := msgs.CategoriesHeader
		if len(categories) == 0 {
			title = msgs.NoCategories
		}
		return true, b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, title, categoryListKeyboard(msgs, categories))

	case msgs.MenuBroadcast:
		if !b.isAdmin(user) {
			return false, nil
		}
		sess.ClearFlow()
		sess.EnterStep(session.StepAwaitingBroadcastText, ev.Time)
		return true, b.msg.SendMessage(ctx, ev.ChatID, msgs.BroadcastPrompt)
	}
	return false, nil
}

func (b *Bot) switchLanguage(ctx context.Context, ev models.Event, sess *session.Session, lang models.Language) error {
	user, err := b.store.UpsertUserLanguage(ev.TelegramID, lang, ev.Profile)
	if err != nil {
		return err
	}
	sess.Language = lang
	msgs := i18n.Get(lang)
	return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.MainMenuTitle, mainMenuKeyboard(msgs, b.isAdmin(user)))
}

// handleStepText consumes text owed to the active step; with no step open
// it stashes the text and asks whether to save it as an intention.
func (b *Bot) handleStepText(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages) error {
	switch sess.Step {
	case session.StepAwaitingIntentionText:
		return b.createIntention(ctx, ev.ChatID, sess, user, msgs, ev.Text)

	case session.StepAwaitingDate:
		return b.applyDateInput(ctx, ev, sess, user, msgs)

	case session.StepAwaitingEditText:
		payload, err := b.cipher.Encrypt(ev.Text)
		if err != nil {
			return err
		}
		if err := b.store.UpdateIntentionText(user.ID, sess.IntentionID, payload); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return b.neutralMenu(ctx, ev.ChatID, sess, user, msgs)
			}
			return err
		}
		sess.ClearFlow()
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.IntentionUpdated, mainMenuKeyboard(msgs, b.isAdmin(user)))

	case session.StepAwaitingNewCategory:
		return b.createCategory(ctx, ev, sess, user, msgs)

	case session.StepAwaitingFeedbackText:
		payload, err := b.cipher.Encrypt(ev.Text)
		if err != nil {
			return err
		}
		if _, err := b.store.AddReflection(user.ID, b.resolver.Today(), payload, nil, 0); err != nil {
			return err
		}
		sess.ClearFlow()
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.FeedbackSaved, mainMenuKeyboard(msgs, b.isAdmin(user)))

	case session.StepAwaitingFeedbackPhoto:
		return b.msg.SendMessage(ctx, ev.ChatID, msgs.PhotoPrompt)

	case session.StepAwaitingFreeTextConfirm:
		// The stash stays; the user just has to answer the buttons.
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.FreeTextPrompt, freeTextConfirmKeyboard(msgs))

	case session.StepAwaitingBroadcastText:
		sess.PendingText = ev.Text
		sess.Step = session.StepAwaitingBroadcastConfirm
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.BroadcastConfirm, broadcastConfirmKeyboard(msgs))

	case session.StepAwaitingBroadcastConfirm:
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.BroadcastConfirm, broadcastConfirmKeyboard(msgs))

	default:
		sess.EnterStep(session.StepAwaitingFreeTextConfirm, ev.Time)
		sess.PendingText = ev.Text
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.FreeTextPrompt, freeTextConfirmKeyboard(msgs))
	}
}

// createIntention is the shared finalize routine for the add-intention
// step and the free-text yes path. It opens the configuration sub-flow.
func (b *Bot) createIntention(ctx context.Context, chatID int64, sess *session.Session, user models.User, msgs i18n.Messages, text string) error {
	payload, err := b.cipher.Encrypt(text)
	if err != nil {
		return err
	}
	it, err := b.store.AddIntention(user.ID, payload)
	if err != nil {
		return err
	}
	if sess.CategoryID != 0 {
		if err := b.store.SetIntentionCategory(user.ID, it.ID, sess.CategoryID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	slog.Info("Bot intention created", "user_id", user.ID, "intention_id", it.ID)

	sess.ClearFlow()
	sess.IntentionID = it.ID
	sess.ConfigMode = true
	return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.ConfigPrompt, configKeyboard(msgs, it.ID, false))
}

// applyDateInput runs the resolver over the user's text and either sets
// the intention's single date or echoes the typed rejection, keeping the
// step open for another try.
func (b *Bot) applyDateInput(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages) error {
	date, err := b.resolver.Resolve(ev.Text)
	if err != nil {
		return b.msg.SendMessage(ctx, ev.ChatID, dateRejectionMessage(err, msgs))
	}
	if err := b.store.SetIntentionDate(user.ID, sess.IntentionID, date); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return b.neutralMenu(ctx, ev.ChatID, sess, user, msgs)
		}
		return err
	}
	slog.Info("Bot intention date set", "user_id", user.ID, "intention_id", sess.IntentionID, "date", date)

	confirmation := msgs.IntentionUpdated + ": " + i18n.FormatDate(date, user.Language)
	if sess.ConfigMode {
		intentionID := sess.IntentionID
		sess.Step = session.StepNone
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, confirmation+"\n\n"+msgs.ConfigPrompt, configKeyboard(msgs, intentionID, true))
	}
	sess.ClearFlow()
	return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, confirmation, mainMenuKeyboard(msgs, b.isAdmin(user)))
}

func dateRejectionMessage(err error, msgs i18n.Messages) string {
	switch {
	case errors.Is(err, dates.ErrImpossibleDate):
		return msgs.InvalidDateCalendar
	case errors.Is(err, dates.ErrPastDate):
		return msgs.InvalidDatePast
	default:
		return msgs.InvalidDateFormat
	}
}

// createCategory handles the new-category step for all three entry paths.
func (b *Bot) createCategory(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages) error {
	name := strings.TrimSpace(ev.Text)
	if name == "" {
		return b.msg.SendMessage(ctx, ev.ChatID, msgs.CategoryPrompt)
	}
	category, err := b.store.CreateOrReuseCategory(user.ID, name)
	if err != nil {
		return err
	}
	slog.Info("Bot category ready", "user_id", user.ID, "category_id", category.ID, "name", category.Name)

	if sess.CategoryTarget == session.CategoryTargetExisting && sess.IntentionID != 0 {
		if err := b.store.SetIntentionCategory(user.ID, sess.IntentionID, category.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return b.neutralMenu(ctx, ev.ChatID, sess, user, msgs)
			}
			return err
		}
		if sess.ConfigMode {
			intentionID := sess.IntentionID
			sess.Step = session.StepNone
			sess.CategoryTarget = session.CategoryTargetNone
			return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.ConfigPrompt, configKeyboard(msgs, intentionID, false))
		}
		sess.ClearFlow()
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.IntentionUpdated, mainMenuKeyboard(msgs, b.isAdmin(user)))
	}

	// Entered from manage-categories: offer a preseeded new intention.
	sess.ClearFlow()
	return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.AddIntentionAfterCategory, addIntentionOfferKeyboard(msgs, category.ID))
}

func (b *Bot) handlePhoto(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages) error {
	if sess.Step != session.StepAwaitingFeedbackPhoto {
		// Photos outside reflection or feedback-photo capture are ignored.
		slog.Debug("Bot ignoring stray photo", "chat_id", ev.ChatID, "trace_id", ev.TraceID)
		return nil
	}
	payload, err := b.cipher.Encrypt(ev.Text)
	if err != nil {
		return err
	}
	if _, err := b.store.AddReflection(user.ID, b.resolver.Today(), payload, []string{ev.PhotoFileID}, 0); err != nil {
		return err
	}
	sess.ClearFlow()
	return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.PhotoSaved, mainMenuKeyboard(msgs, b.isAdmin(user)))
}

// neutralMenu is the shared answer for forged or stale identifiers: the
// flow resets and the user simply sees the menu again.
func (b *Bot) neutralMenu(ctx context.Context, chatID int64, sess *session.Session, user models.User, msgs i18n.Messages) error {
	sess.ClearFlow()
	return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.MainMenuTitle, mainMenuKeyboard(msgs, b.isAdmin(user)))
}

func (b *Bot) isAdmin(user models.User) bool {
	return user.IsAdmin || (b.adminID != 0 && user.TelegramID == b.adminID)
}

func (b *Bot) answerCallback(ctx context.Context, ev models.Event) {
	if ev.CallbackID == "" {
		return
	}
	if err := b.msg.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
		slog.Debug("Bot callback ack failed", "error", err, "trace_id", ev.TraceID)
	}
}

// decryptOrPlaceholder substitutes the per-language placeholder when a
// payload cannot be decrypted, so listings never fail wholesale.
func (b *Bot) decryptOrPlaceholder(payload models.EncryptedPayload, msgs i18n.Messages) string {
	text, err := b.cipher.Decrypt(payload)
	if err != nil {
		slog.Error("Bot payload decrypt failed", "error", err)
		return msgs.DecryptPlaceholder
	}
	return text
}

func (b *Bot) sendIntentionList(ctx context.Context, chatID int64, user models.User, msgs i18n.Messages) error {
	intentions, err := b.store.ListIntentionsForUser(user.ID)
	if err != nil {
		return err
	}
	if len(intentions) == 0 {
		return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.NoIntentions, mainMenuKeyboard(msgs, b.isAdmin(user)))
	}
	var sb strings.Builder
	sb.WriteString(msgs.IntentionsHeader)
	for i, it := range intentions {
		sb.WriteString(fmt.Sprintf("\n\n%d. %s", i+1, b.decryptOrPlaceholder(it.Payload, msgs)))
		if it.Date != "" {
			sb.WriteString("\n📅 " + i18n.FormatDate(it.Date, user.Language))
		}
		if it.CategoryName != "" {
			sb.WriteString("\n#" + it.CategoryName)
		}
	}
	return b.msg.SendMessageWithKeyboard(ctx, chatID, sb.String(), intentionListKeyboard(intentions))
}

func (b *Bot) sendReflectionList(ctx context.Context, chatID int64, user models.User, msgs i18n.Messages) error {
	reflections, err := b.store.ListReflectionsForUser(user.ID)
	if err != nil {
		return err
	}
	if len(reflections) == 0 {
		return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.NoReflections, mainMenuKeyboard(msgs, b.isAdmin(user)))
	}
	var sb strings.Builder
	sb.WriteString(msgs.ReflectionsHeader)
	for _, r := range reflections {
		sb.WriteString("\n\n" + i18n.FormatDate(r.Date, user.Language))
		if text := b.decryptOrPlaceholder(r.Payload, msgs); text != "" {
			sb.WriteString("\n" + text)
		}
		if n := len(r.PhotoFileIDs); n > 0 {
			sb.WriteString(fmt.Sprintf("\n📷 ×%d", n))
		}
	}
	return b.msg.SendMessageWithKeyboard(ctx, chatID, sb.String(), mainMenuKeyboard(msgs, b.isAdmin(user)))
}
