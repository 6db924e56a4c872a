package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Anastasiia-on/intention/internal/i18n"
	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/session"
	"github.com/Anastasiia-on/intention/internal/store"
)

// handleCallback routes inline button presses. Every press is acknowledged
// first so the client spinner stops even when the data turns out stale.
func (b *Bot) handleCallback(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages) error {
	b.answerCallback(ctx, ev)

	prefix, args := parseCallback(ev.CallbackData)
	switch prefix {
	case cbLearnMore:
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.OptionalInfo, mainMenuKeyboard(msgs, b.isAdmin(user)))

	case cbFreeTextYes:
		text := strings.TrimSpace(sess.PendingText)
		if text == "" || sess.Step != session.StepAwaitingFreeTextConfirm {
			return b.neutralMenu(ctx, ev.ChatID, sess, user, msgs)
		}
		return b.createIntention(ctx, ev.ChatID, sess, user, msgs, text)

	case cbFreeTextNo:
		sess.ClearFlow()
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.OtherAction, mainMenuKeyboard(msgs, b.isAdmin(user)))

	case cbReflectYes:
		return b.startReflectionFromPrompt(ctx, ev, sess, user, msgs, args)

	case cbReflectNo:
		sess.ClearFlow()
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.EveningPrompt, feedbackChoiceKeyboard(msgs))

	case cbFeedbackWrite:
		sess.ClearFlow()
		sess.EnterStep(session.StepAwaitingFeedbackText, ev.Time)
		return b.msg.SendMessage(ctx, ev.ChatID, msgs.FeedbackTextPrompt)

	case cbFeedbackPhoto:
		sess.ClearFlow()
		sess.EnterStep(session.StepAwaitingFeedbackPhoto, ev.Time)
		return b.msg.SendMessage(ctx, ev.ChatID, msgs.PhotoPrompt)

	case cbFeedbackSkip:
		sess.ClearFlow()
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.OtherAction, mainMenuKeyboard(msgs, b.isAdmin(user)))

	case cbIntentSelect:
		return b.showIntention(ctx, ev.ChatID, sess, user, msgs, callbackArg(args, 0))

	case cbIntentAddDate:
		intentionID := callbackArg(args, 0)
		if _, err := b.store.GetIntentionForUser(user.ID, intentionID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return b.neutralMenu(ctx, ev.ChatID, sess, user, msgs)
			}
			return err
		}
		sess.EnterStep(session.StepAwaitingDate, ev.Time)
		sess.IntentionID = intentionID
		return b.msg.SendMessage(ctx, ev.ChatID, msgs.ChooseDate)

	case cbIntentEdit:
		intentionID := callbackArg(args, 0)
		if _, err := b.store.GetIntentionForUser(user.ID, intentionID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return b.neutralMenu(ctx, ev.ChatID, sess, user, msgs)
			}
			return err
		}
		sess.ClearFlow()
		sess.EnterStep(session.StepAwaitingEditText, ev.Time)
		sess.IntentionID = intentionID
		return b.msg.SendMessage(ctx, ev.ChatID, msgs.AddPrompt)

	case cbIntentDelete:
		// Forged or stale ids delete nothing and still answer normally.
		if err := b.store.DeleteIntention(user.ID, callbackArg(args, 0)); err != nil {
			return err
		}
		sess.ClearFlow()
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.IntentionDeleted, mainMenuKeyboard(msgs, b.isAdmin(user)))

	case cbIntentCategory:
		return b.offerCategoryChooser(ctx, ev, sess, user, msgs, callbackArg(args, 0))

	case cbIntentDone:
		return b.finishConfig(ctx, ev.ChatID, sess, user, msgs)

	case cbCategoryPick:
		return b.attachCategory(ctx, ev.ChatID, sess, user, msgs, callbackArg(args, 0), callbackArg(args, 1))

	case cbCategoryNew:
		intentionID := callbackArg(args, 0)
		sess.EnterStep(session.StepAwaitingNewCategory, ev.Time)
		if intentionID != 0 {
			sess.IntentionID = intentionID
			sess.CategoryTarget = session.CategoryTargetExisting
		} else {
			sess.CategoryTarget = session.CategoryTargetNone
		}
		return b.msg.SendMessage(ctx, ev.ChatID, msgs.CategoryPrompt)

	case cbCategoryShow:
		return b.showCategory(ctx, ev.ChatID, sess, user, msgs, callbackArg(args, 0))

	case cbCategoryAddIntent:
		categoryID := callbackArg(args, 0)
		if _, err := b.store.GetCategoryForUser(user.ID, categoryID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return b.neutralMenu(ctx, ev.ChatID, sess, user, msgs)
			}
			return err
		}
		sess.ClearFlow()
		sess.EnterStep(session.StepAwaitingIntentionText, ev.Time)
		sess.CategoryID = categoryID
		sess.CategoryTarget = session.CategoryTargetNewIntention
		return b.msg.SendMessage(ctx, ev.ChatID, msgs.AddPrompt)

	case cbBroadcastYes:
		return b.sendBroadcast(ctx, ev.ChatID, sess, user, msgs)

	case cbBroadcastNo:
		sess.ClearFlow()
		return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.BroadcastCancelAck, mainMenuKeyboard(msgs, b.isAdmin(user)))

	default:
		slog.Debug("Bot unknown callback", "data", ev.CallbackData, "trace_id", ev.TraceID)
		return b.neutralMenu(ctx, ev.ChatID, sess, user, msgs)
	}
}

// startReflectionFromPrompt honors the evening prompt's stale window: a
// press past the TTL still opens a capture, just without the intention link.
func (b *Bot) startReflectionFromPrompt(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages, args []int64) error {
	intentionID := callbackArg(args, 0)
	promptUnix := callbackArg(args, 1)

	if promptUnix > 0 && ev.Time.Sub(time.Unix(promptUnix, 0)) > b.reflectionTTL {
		slog.Debug("Bot reflect prompt stale, dropping intention link", "intention_id", intentionID, "chat_id", ev.ChatID)
		intentionID = 0
	}
	if intentionID != 0 {
		if _, err := b.store.GetIntentionForUser(user.ID, intentionID); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			intentionID = 0
		}
	}

	sess.StartReflection(intentionID, ev.Time)
	return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.ReflectionInstructions, reflectionCaptureKeyboard(msgs))
}

func (b *Bot) showIntention(ctx context.Context, chatID int64, sess *session.Session, user models.User, msgs i18n.Messages, intentionID int64) error {
	it, err := b.store.GetIntentionForUser(user.ID, intentionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return b.neutralMenu(ctx, chatID, sess, user, msgs)
		}
		return err
	}
	var sb strings.Builder
	sb.WriteString(b.decryptOrPlaceholder(it.Payload, msgs))
	if it.Date != "" {
		sb.WriteString("\n📅 " + i18n.FormatDate(it.Date, user.Language))
	}
	if it.CategoryName != "" {
		sb.WriteString("\n#" + it.CategoryName)
	}
	return b.msg.SendMessageWithKeyboard(ctx, chatID, sb.String(), intentionDetailKeyboard(msgs, *it))
}

// offerCategoryChooser shows existing categories for attachment, or jumps
// straight to naming a new one when the user has none yet.
func (b *Bot) offerCategoryChooser(ctx context.Context, ev models.Event, sess *session.Session, user models.User, msgs i18n.Messages, intentionID int64) error {
	if _, err := b.store.GetIntentionForUser(user.ID, intentionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return b.neutralMenu(ctx, ev.ChatID, sess, user, msgs)
		}
		return err
	}
	categories, err := b.store.ListCategoriesForUser(user.ID)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		sess.EnterStep(session.StepAwaitingNewCategory, ev.Time)
		sess.IntentionID = intentionID
		sess.CategoryTarget = session.CategoryTargetExisting
		return b.msg.SendMessage(ctx, ev.ChatID, msgs.CategoryPrompt)
	}
	return b.msg.SendMessageWithKeyboard(ctx, ev.ChatID, msgs.ChooseCategory, categoryChooserKeyboard(msgs, categories, intentionID))
}

func (b *Bot) attachCategory(ctx context.Context, chatID int64, sess *session.Session, user models.User, msgs i18n.Messages, categoryID, intentionID int64) error {
	if err := b.store.SetIntentionCategory(user.ID, intentionID, categoryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return b.neutralMenu(ctx, chatID, sess, user, msgs)
		}
		return err
	}
	if sess.ConfigMode && sess.IntentionID == intentionID {
		return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.ConfigPrompt, configKeyboard(msgs, intentionID, false))
	}
	sess.ClearFlow()
	return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.IntentionUpdated, mainMenuKeyboard(msgs, b.isAdmin(user)))
}

// finishConfig closes the configuration sub-flow with a summary of what
// was saved.
func (b *Bot) finishConfig(ctx context.Context, chatID int64, sess *session.Session, user models.User, msgs i18n.Messages) error {
	intentionID := sess.IntentionID
	sess.ClearFlow()
	if intentionID == 0 {
		return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.MainMenuTitle, mainMenuKeyboard(msgs, b.isAdmin(user)))
	}
	it, err := b.store.GetIntentionForUser(user.ID, intentionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.MainMenuTitle, mainMenuKeyboard(msgs, b.isAdmin(user)))
		}
		return err
	}
	var sb strings.Builder
	sb.WriteString(msgs.SavedSummaryTitle)
	sb.WriteString("\n\n" + b.decryptOrPlaceholder(it.Payload, msgs))
	if it.Date != "" {
		sb.WriteString("\n📅 " + i18n.FormatDate(it.Date, user.Language))
	}
	if it.CategoryName != "" {
		sb.WriteString("\n#" + it.CategoryName)
	}
	return b.msg.SendMessageWithKeyboard(ctx, chatID, sb.String(), mainMenuKeyboard(msgs, b.isAdmin(user)))
}

func (b *Bot) showCategory(ctx context.Context, chatID int64, sess *session.Session, user models.User, msgs i18n.Messages, categoryID int64) error {
	category, err := b.store.GetCategoryForUser(user.ID, categoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return b.neutralMenu(ctx, chatID, sess, user, msgs)
		}
		return err
	}
	intentions, err := b.store.ListIntentionsForUserByCategory(user.ID, categoryID)
	if err != nil {
		return err
	}
	if len(intentions) == 0 {
		return b.msg.SendMessageWithKeyboard(ctx, chatID, category.Name+"\n"+msgs.CategoryEmpty, addIntentionOfferKeyboard(msgs, categoryID))
	}
	var sb strings.Builder
	sb.WriteString("#" + category.Name)
	for i, it := range intentions {
		sb.WriteString(fmt.Sprintf("\n\n%d. %s", i+1, b.decryptOrPlaceholder(it.Payload, msgs)))
		if it.Date != "" {
			sb.WriteString("\n📅 " + i18n.FormatDate(it.Date, user.Language))
		}
	}
	return b.msg.SendMessageWithKeyboard(ctx, chatID, sb.String(), intentionListKeyboard(intentions))
}

// sendBroadcast pushes the stashed draft to every registered user.
func (b *Bot) sendBroadcast(ctx context.Context, chatID int64, sess *session.Session, user models.User, msgs i18n.Messages) error {
	if !b.isAdmin(user) || sess.Step != session.StepAwaitingBroadcastConfirm {
		return b.neutralMenu(ctx, chatID, sess, user, msgs)
	}
	draft := strings.TrimSpace(sess.PendingText)
	sess.ClearFlow()
	if draft == "" {
		return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.MainMenuTitle, mainMenuKeyboard(msgs, b.isAdmin(user)))
	}

	users, err := b.store.ListUsers()
	if err != nil {
		return err
	}
	var sent, failed int
	for _, u := range users {
		if err := b.msg.SendMessage(ctx, u.TelegramID, draft); err != nil {
			failed++
			slog.Error("Bot broadcast delivery failed", "error", err, "telegram_id", u.TelegramID)
			continue
		}
		sent++
	}
	slog.Info("Bot broadcast finished", "sent", sent, "failed", failed)
	return b.msg.SendMessageWithKeyboard(ctx, chatID, msgs.BroadcastSent, mainMenuKeyboard(msgs, b.isAdmin(user)))
}
