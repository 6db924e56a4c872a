package store

import (
	"encoding/json"
	"log/slog"

	"github.com/Anastasiia-on/intention/internal/models"
)

// rowScanner abstracts sql.Row and sql.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, telegram_id, language, first_name, last_name, username,
	reminder_time, evening_time, weekly_time, monthly_time, is_admin, created_at`

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.TelegramID, &u.Language, &u.FirstName, &u.LastName, &u.Username,
		&u.ReminderTime, &u.EveningTime, &u.WeeklyTime, &u.MonthlyTime, &u.IsAdmin, &u.CreatedAt,
	)
	return u, err
}

// intentionColumns selects an intention joined with its single date and its
// category name, with empty-string/zero fallbacks for the optional parts.
const intentionColumns = `i.id, i.user_id, i.ciphertext_b64, i.iv_b64, i.auth_tag_b64,
	COALESCE(d.date, ''), COALESCE(i.category_id, 0), COALESCE(c.name, ''), i.created_at`

const intentionJoins = `
	LEFT JOIN intention_dates d ON d.intention_id = i.id
	LEFT JOIN categories c ON c.id = i.category_id`

func scanIntention(row rowScanner) (models.Intention, error) {
	var it models.Intention
	err := row.Scan(
		&it.ID, &it.UserID, &it.Payload.CiphertextB64, &it.Payload.IVB64, &it.Payload.AuthTagB64,
		&it.Date, &it.CategoryID, &it.CategoryName, &it.CreatedAt,
	)
	return it, err
}

func scanReflection(row rowScanner) (models.Reflection, error) {
	var r models.Reflection
	var photosJSON string
	err := row.Scan(
		&r.ID, &r.UserID, &r.Date, &r.Payload.CiphertextB64, &r.Payload.IVB64, &r.Payload.AuthTagB64,
		&r.IntentionID, &photosJSON, &r.CreatedAt,
	)
	if err != nil {
		return r, err
	}
	r.PhotoFileIDs = decodePhotoFileIDs(photosJSON)
	return r, nil
}

// encodePhotoFileIDs serializes photo references for the single text column.
func encodePhotoFileIDs(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		slog.Error("failed to encode photo file ids", "error", err)
		return "[]"
	}
	return string(raw)
}

func decodePhotoFileIDs(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		slog.Error("failed to decode photo file ids", "error", err, "raw_length", len(raw))
		return nil
	}
	return ids
}
