// Package jobs implements the scheduled sends: morning reminders, evening
// reflection prompts, weekly and monthly summaries.
//
// Everything hangs off a minute tick evaluated in the reference timezone.
// Each send is guarded by an insert-if-absent notification key, so a tick
// that overlaps a previous one, or a restart mid-minute, never produces a
// duplicate message.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Anastasiia-on/intention/internal/bot"
	"github.com/Anastasiia-on/intention/internal/encryption"
	"github.com/Anastasiia-on/intention/internal/i18n"
	"github.com/Anastasiia-on/intention/internal/messaging"
	"github.com/Anastasiia-on/intention/internal/models"
	"github.com/Anastasiia-on/intention/internal/scheduler"
	"github.com/Anastasiia-on/intention/internal/store"
)

const dateLayout = "2006-01-02"

// Runner owns the scheduled sends.
type Runner struct {
	store  store.Store
	msg    messaging.Service
	cipher *encryption.Cipher
	loc    *time.Location
}

// NewRunner wires the job runner.
func NewRunner(st store.Store, msg messaging.Service, cipher *encryption.Cipher, loc *time.Location) *Runner {
	return &Runner{store: st, msg: msg, cipher: cipher, loc: loc}
}

// Register schedules the minute tick on the given scheduler.
func (r *Runner) Register(ctx context.Context, sched *scheduler.Scheduler) error {
	return sched.AddJob("* * * * *", func() {
		r.Tick(ctx, time.Now().In(r.loc))
	})
}

// Tick runs every scheduled send that is due at the given instant.
func (r *Runner) Tick(ctx context.Context, now time.Time) {
	hhmm := now.Format("15:04")
	slog.Debug("Jobs tick", "time", hhmm, "date", now.Format(dateLayout))

	r.morningReminders(ctx, now, hhmm)
	r.eveningPrompts(ctx, now, hhmm)
	if now.Weekday() == time.Sunday {
		r.weeklySummaries(ctx, now, hhmm)
	}
	if isLastDayOfMonth(now) {
		r.monthlySummaries(ctx, now, hhmm)
	}
}

func isLastDayOfMonth(now time.Time) bool {
	return now.AddDate(0, 0, 1).Day() == 1
}

// morningReminders pings users about intentions dated tomorrow.
func (r *Runner) morningReminders(ctx context.Context, now time.Time, hhmm string) {
	users, err := r.store.ListUsersByReminderTime(hhmm)
	if err != nil {
		slog.Error("Jobs morning user query failed", "error", err)
		return
	}
	tomorrow := now.AddDate(0, 0, 1).Format(dateLayout)

	for _, user := range users {
		intentions, err := r.store.ListIntentionsForUserByDate(user.ID, tomorrow)
		if err != nil {
			slog.Error("Jobs morning intention query failed", "error", err, "user_id", user.ID)
			continue
		}
		if len(intentions) == 0 {
			continue
		}
		allowed, err := r.store.RecordNotification(user.ID, models.NotificationMorning, tomorrow, 0)
		if err != nil {
			slog.Error("Jobs morning dedupe failed", "error", err, "user_id", user.ID)
			continue
		}
		if !allowed {
			continue
		}
		msgs := i18n.Get(user.Language)
		var sb strings.Builder
		sb.WriteString(msgs.TomorrowReminder + " — " + i18n.FormatDate(tomorrow, user.Language))
		for _, it := range intentions {
			sb.WriteString("\n• " + r.decryptOrPlaceholder(it.Payload, msgs))
		}
		if err := r.msg.SendMessage(ctx, user.TelegramID, sb.String()); err != nil {
			slog.Error("Jobs morning send failed", "error", err, "user_id", user.ID)
			continue
		}
		slog.Info("Jobs morning reminder sent", "user_id", user.ID, "date", tomorrow, "intentions", len(intentions))
	}
}

// eveningPrompts asks about each intention dated today, carrying the
// reflect-yes/no keyboard. The stale window opens at send time.
func (r *Runner) eveningPrompts(ctx context.Context, now time.Time, hhmm string) {
	users, err := r.store.ListUsersByEveningTime(hhmm)
	if err != nil {
		slog.Error("Jobs evening user query failed", "error", err)
		return
	}
	today := now.Format(dateLayout)

	for _, user := range users {
		intentions, err := r.store.ListIntentionsForUserByDate(user.ID, today)
		if err != nil {
			slog.Error("Jobs evening intention query failed", "error", err, "user_id", user.ID)
			continue
		}
		msgs := i18n.Get(user.Language)
		for _, it := range intentions {
			allowed, err := r.store.RecordNotification(user.ID, models.NotificationEvening, today, it.ID)
			if err != nil {
				slog.Error("Jobs evening dedupe failed", "error", err, "user_id", user.ID, "intention_id", it.ID)
				continue
			}
			if !allowed {
				continue
			}
			text := msgs.EveningPrompt + "\n\n" + r.decryptOrPlaceholder(it.Payload, msgs)
			keyboard := bot.ReflectPromptKeyboard(msgs, it.ID, now.Unix())
			if err := r.msg.SendMessageWithKeyboard(ctx, user.TelegramID, text, keyboard); err != nil {
				slog.Error("Jobs evening send failed", "error", err, "user_id", user.ID, "intention_id", it.ID)
				continue
			}
			slog.Info("Jobs evening prompt sent", "user_id", user.ID, "intention_id", it.ID, "date", today)
		}
	}
}

// weeklySummaries wraps the current ISO week on Sunday evenings.
func (r *Runner) weeklySummaries(ctx context.Context, now time.Time, hhmm string) {
	users, err := r.store.ListUsersByWeeklyTime(hhmm)
	if err != nil {
		slog.Error("Jobs weekly user query failed", "error", err)
		return
	}
	year, week := now.ISOWeek()
	weekKey := fmt.Sprintf("%d-W%02d", year, week)
	// Sunday closes the ISO week, so the range runs Monday..today.
	start := now.AddDate(0, 0, -6).Format(dateLayout)
	end := now.Format(dateLayout)

	for _, user := range users {
		allowed, err := r.store.RecordNotification(user.ID, models.NotificationWeekly, weekKey, 0)
		if err != nil {
			slog.Error("Jobs weekly dedupe failed", "error", err, "user_id", user.ID)
			continue
		}
		if !allowed {
			continue
		}
		summary, err := r.store.GetMonthlySummary(user.ID, start, end)
		if err != nil {
			slog.Error("Jobs weekly summary query failed", "error", err, "user_id", user.ID)
			continue
		}
		msgs := i18n.Get(user.Language)
		text := summaryText(msgs.WeeklySummaryTitle, msgs, summary, "")
		if err := r.msg.SendMessage(ctx, user.TelegramID, text); err != nil {
			slog.Error("Jobs weekly send failed", "error", err, "user_id", user.ID)
			continue
		}
		slog.Info("Jobs weekly summary sent", "user_id", user.ID, "week", weekKey)
	}
}

// monthlySummaries wraps the month on its last day.
func (r *Runner) monthlySummaries(ctx context.Context, now time.Time, hhmm string) {
	users, err := r.store.ListUsersByMonthlyTime(hhmm)
	if err != nil {
		slog.Error("Jobs monthly user query failed", "error", err)
		return
	}
	monthKey := now.Format("2006-01")
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format(dateLayout)
	end := now.Format(dateLayout)

	for _, user := range users {
		allowed, err := r.store.RecordNotification(user.ID, models.NotificationMonthly, monthKey, 0)
		if err != nil {
			slog.Error("Jobs monthly dedupe failed", "error", err, "user_id", user.ID)
			continue
		}
		if !allowed {
			continue
		}
		summary, err := r.store.GetMonthlySummary(user.ID, start, end)
		if err != nil {
			slog.Error("Jobs monthly summary query failed", "error", err, "user_id", user.ID)
			continue
		}
		msgs := i18n.Get(user.Language)
		text := summaryText(msgs.MonthlySummaryTitle, msgs, summary, msgs.MonthlySummaryFooter)
		if err := r.msg.SendMessage(ctx, user.TelegramID, text); err != nil {
			slog.Error("Jobs monthly send failed", "error", err, "user_id", user.ID)
			continue
		}
		slog.Info("Jobs monthly summary sent", "user_id", user.ID, "month", monthKey)
	}
}

func summaryText(title string, msgs i18n.Messages, summary models.MonthlySummary, footer string) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString(fmt.Sprintf("\n%s: %d", msgs.MonthlyIntentionsLine, summary.Intentions))
	sb.WriteString(fmt.Sprintf("\n%s: %d", msgs.MonthlyDatesLine, summary.PlannedDates))
	sb.WriteString(fmt.Sprintf("\n%s: %d", msgs.MonthlyReflectionsLine, summary.Reflections))
	if footer != "" {
		sb.WriteString("\n\n" + footer)
	}
	return sb.String()
}

func (r *Runner) decryptOrPlaceholder(payload models.EncryptedPayload, msgs i18n.Messages) string {
	text, err := r.cipher.Decrypt(payload)
	if err != nil {
		slog.Error("Jobs payload decrypt failed", "error", err)
		return msgs.DecryptPlaceholder
	}
	return text
}
