// Package store provides storage backends for the intention bot.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "embed"

	"github.com/Anastasiia-on/intention/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore is a Store backed by a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	return s.db.Close()
}

func (s *SQLiteStore) UpsertUserLanguage(telegramID int64, lang models.Language, profile models.Profile) (models.User, error) {
	_, err := s.db.Exec(`
		INSERT INTO users (telegram_id, language, first_name, last_name, username)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			language = excluded.language,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			username = excluded.username`,
		telegramID, lang, profile.FirstName, profile.LastName, profile.Username)
	if err != nil {
		slog.Error("SQLiteStore UpsertUserLanguage failed", "error", err, "telegram_id", telegramID)
		return models.User{}, fmt.Errorf("failed to upsert user %d: %w", telegramID, err)
	}
	user, err := s.GetUserByTelegramID(telegramID)
	if err != nil {
		return models.User{}, err
	}
	slog.Debug("SQLiteStore UpsertUserLanguage succeeded", "telegram_id", telegramID, "language", lang)
	return *user, nil
}

func (s *SQLiteStore) UpdateUserProfile(telegramID int64, profile models.Profile) error {
	_, err := s.db.Exec(`UPDATE users SET first_name = ?, last_name = ?, username = ? WHERE telegram_id = ?`,
		profile.FirstName, profile.LastName, profile.Username, telegramID)
	if err != nil {
		slog.Error("SQLiteStore UpdateUserProfile failed", "error", err, "telegram_id", telegramID)
		return fmt.Errorf("failed to update profile for %d: %w", telegramID, err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByTelegramID(telegramID int64) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE telegram_id = ?`, telegramID)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUserByTelegramID failed", "error", err, "telegram_id", telegramID)
		return nil, fmt.Errorf("failed to query user %d: %w", telegramID, err)
	}
	return &user, nil
}

func (s *SQLiteStore) ListUsers() ([]models.User, error) {
	return s.queryUsers(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
}

func (s *SQLiteStore) ListUsersByReminderTime(hhmm string) ([]models.User, error) {
	return s.queryUsers(`SELECT `+userColumns+` FROM users WHERE reminder_time = ?`, hhmm)
}

func (s *SQLiteStore) ListUsersByEveningTime(hhmm string) ([]models.User, error) {
	return s.queryUsers(`SELECT `+userColumns+` FROM users WHERE evening_time = ?`, hhmm)
}

func (s *SQLiteStore) ListUsersByWeeklyTime(hhmm string) ([]models.User, error) {
	return s.queryUsers(`SELECT `+userColumns+` FROM users WHERE weekly_time = ?`, hhmm)
}

func (s *SQLiteStore) ListUsersByMonthlyTime(hhmm string) ([]models.User, error) {
	return s.queryUsers(`SELECT `+userColumns+` FROM users WHERE monthly_time = ?`, hhmm)
}

func (s *SQLiteStore) queryUsers(query string, args ...any) ([]models.User, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore user query failed", "error", err)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			slog.Error("SQLiteStore user scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) AddIntention(userID int64, payload models.EncryptedPayload) (models.Intention, error) {
	res, err := s.db.Exec(`INSERT INTO intentions (user_id, ciphertext_b64, iv_b64, auth_tag_b64) VALUES (?, ?, ?, ?)`,
		userID, payload.CiphertextB64, payload.IVB64, payload.AuthTagB64)
	if err != nil {
		slog.Error("SQLiteStore AddIntention failed", "error", err, "user_id", userID)
		return models.Intention{}, fmt.Errorf("failed to insert intention: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Intention{}, fmt.Errorf("failed to read intention id: %w", err)
	}
	slog.Debug("SQLiteStore AddIntention succeeded", "user_id", userID, "intention_id", id)
	intention, err := s.GetIntentionForUser(userID, id)
	if err != nil {
		return models.Intention{}, err
	}
	return *intention, nil
}

func (s *SQLiteStore) ListIntentionsForUser(userID int64) ([]models.Intention, error) {
	return s.queryIntentions(`
		SELECT `+intentionColumns+` FROM intentions i`+intentionJoins+`
		WHERE i.user_id = ?
		ORDER BY d.date IS NULL, d.date, i.id`, userID)
}

func (s *SQLiteStore) GetIntentionForUser(userID, intentionID int64) (*models.Intention, error) {
	row := s.db.QueryRow(`
		SELECT `+intentionColumns+` FROM intentions i`+intentionJoins+`
		WHERE i.user_id = ? AND i.id = ?`, userID, intentionID)
	it, err := scanIntention(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore GetIntentionForUser failed", "error", err, "user_id", userID, "intention_id", intentionID)
		return nil, fmt.Errorf("failed to query intention %d: %w", intentionID, err)
	}
	return &it, nil
}

func (s *SQLiteStore) UpdateIntentionText(userID, intentionID int64, payload models.EncryptedPayload) error {
	res, err := s.db.Exec(`UPDATE intentions SET ciphertext_b64 = ?, iv_b64 = ?, auth_tag_b64 = ? WHERE id = ? AND user_id = ?`,
		payload.CiphertextB64, payload.IVB64, payload.AuthTagB64, intentionID, userID)
	if err != nil {
		slog.Error("SQLiteStore UpdateIntentionText failed", "error", err, "intention_id", intentionID)
		return fmt.Errorf("failed to update intention %d: %w", intentionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteIntention(userID, intentionID int64) error {
	_, err := s.db.Exec(`DELETE FROM intentions WHERE id = ? AND user_id = ?`, intentionID, userID)
	if err != nil {
		slog.Error("SQLiteStore DeleteIntention failed", "error", err, "intention_id", intentionID)
		return fmt.Errorf("failed to delete intention %d: %w", intentionID, err)
	}
	slog.Debug("SQLiteStore DeleteIntention succeeded", "user_id", userID, "intention_id", intentionID)
	return nil
}

// SetIntentionDate replaces the single target date inside one transaction:
// delete-then-insert, so a crash mid-update cannot leave two dates attached.
func (s *SQLiteStore) SetIntentionDate(userID, intentionID int64, date string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owned int64
	if err := tx.QueryRow(`SELECT id FROM intentions WHERE id = ? AND user_id = ?`, intentionID, userID).Scan(&owned); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to verify intention ownership: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM intention_dates WHERE intention_id = ?`, intentionID); err != nil {
		return fmt.Errorf("failed to clear previous date: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO intention_dates (intention_id, date) VALUES (?, ?)`, intentionID, date); err != nil {
		return fmt.Errorf("failed to insert date: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit date replace: %w", err)
	}
	slog.Debug("SQLiteStore SetIntentionDate succeeded", "intention_id", intentionID, "date", date)
	return nil
}

func (s *SQLiteStore) SetIntentionCategory(userID, intentionID, categoryID int64) error {
	var owned int64
	if err := s.db.QueryRow(`SELECT id FROM categories WHERE id = ? AND user_id = ?`, categoryID, userID).Scan(&owned); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to verify category ownership: %w", err)
	}
	res, err := s.db.Exec(`UPDATE intentions SET category_id = ? WHERE id = ? AND user_id = ?`, categoryID, intentionID, userID)
	if err != nil {
		slog.Error("SQLiteStore SetIntentionCategory failed", "error", err, "intention_id", intentionID)
		return fmt.Errorf("failed to set category on intention %d: %w", intentionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListIntentionsForUserByDate(userID int64, date string) ([]models.Intention, error) {
	return s.queryIntentions(`
		SELECT `+intentionColumns+` FROM intentions i`+intentionJoins+`
		WHERE i.user_id = ? AND d.date = ?
		ORDER BY i.id`, userID, date)
}

func (s *SQLiteStore) ListIntentionsForUserByCategory(userID, categoryID int64) ([]models.Intention, error) {
	return s.queryIntentions(`
		SELECT `+intentionColumns+` FROM intentions i`+intentionJoins+`
		WHERE i.user_id = ? AND i.category_id = ?
		ORDER BY i.id`, userID, categoryID)
}

func (s *SQLiteStore) queryIntentions(query string, args ...any) ([]models.Intention, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("SQLiteStore intention query failed", "error", err)
		return nil, fmt.Errorf("failed to query intentions: %w", err)
	}
	defer rows.Close()

	var intentions []models.Intention
	for rows.Next() {
		it, err := scanIntention(rows)
		if err != nil {
			slog.Error("SQLiteStore intention scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan intention row: %w", err)
		}
		intentions = append(intentions, it)
	}
	return intentions, rows.Err()
}

func (s *SQLiteStore) CreateOrReuseCategory(userID int64, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, fmt.Errorf("category name is empty")
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO categories (user_id, name) VALUES (?, ?)`, userID, name); err != nil {
		slog.Error("SQLiteStore CreateOrReuseCategory insert failed", "error", err, "user_id", userID)
		return models.Category{}, fmt.Errorf("failed to insert category: %w", err)
	}
	row := s.db.QueryRow(`SELECT id, user_id, name, created_at FROM categories WHERE user_id = ? AND name = ?`, userID, name)
	var c models.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
		slog.Error("SQLiteStore CreateOrReuseCategory select failed", "error", err, "user_id", userID)
		return models.Category{}, fmt.Errorf("failed to read category: %w", err)
	}
	return c, nil
}

func (s *SQLiteStore) ListCategoriesForUser(userID int64) ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT id, user_id, name, created_at FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		slog.Error("SQLiteStore ListCategoriesForUser failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) GetCategoryForUser(userID, categoryID int64) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT id, user_id, name, created_at FROM categories WHERE id = ? AND user_id = ?`, categoryID, userID)
	var c models.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query category %d: %w", categoryID, err)
	}
	return &c, nil
}

func (s *SQLiteStore) AddReflection(userID int64, date string, payload models.EncryptedPayload, photoFileIDs []string, intentionID int64) (models.Reflection, error) {
	res, err := s.db.Exec(`
		INSERT INTO reflections (user_id, date, ciphertext_b64, iv_b64, auth_tag_b64, intention_id, photo_file_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, date, payload.CiphertextB64, payload.IVB64, payload.AuthTagB64, intentionID, encodePhotoFileIDs(photoFileIDs))
	if err != nil {
		slog.Error("SQLiteStore AddReflection failed", "error", err, "user_id", userID)
		return models.Reflection{}, fmt.Errorf("failed to insert reflection: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Reflection{}, fmt.Errorf("failed to read reflection id: %w", err)
	}
	slog.Debug("SQLiteStore AddReflection succeeded", "user_id", userID, "reflection_id", id, "photos", len(photoFileIDs))
	return models.Reflection{
		ID: id, UserID: userID, Date: date, Payload: payload,
		PhotoFileIDs: photoFileIDs, IntentionID: intentionID,
	}, nil
}

func (s *SQLiteStore) ListReflectionsForUser(userID int64) ([]models.Reflection, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, date, ciphertext_b64, iv_b64, auth_tag_b64, intention_id, photo_file_ids, created_at
		FROM reflections WHERE user_id = ? ORDER BY date, id`, userID)
	if err != nil {
		slog.Error("SQLiteStore ListReflectionsForUser failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query reflections: %w", err)
	}
	defer rows.Close()

	var reflections []models.Reflection
	for rows.Next() {
		r, err := scanReflection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reflection row: %w", err)
		}
		reflections = append(reflections, r)
	}
	return reflections, rows.Err()
}

func (s *SQLiteStore) GetMonthlySummary(userID int64, start, end string) (models.MonthlySummary, error) {
	var summary models.MonthlySummary
	err := s.db.QueryRow(`SELECT COUNT(*) FROM intentions WHERE user_id = ? AND date(created_at) BETWEEN ? AND ?`,
		userID, start, end).Scan(&summary.Intentions)
	if err != nil {
		return summary, fmt.Errorf("failed to count intentions: %w", err)
	}
	err = s.db.QueryRow(`
		SELECT COUNT(*)
		FROM intention_dates d
		JOIN intentions i ON i.id = d.intention_id
		WHERE i.user_id = ? AND d.date BETWEEN ? AND ?`, userID, start, end).
		Scan(&summary.PlannedDates)
	if err != nil {
		return summary, fmt.Errorf("failed to count planned dates: %w", err)
	}
	err = s.db.QueryRow(`SELECT COUNT(*) FROM reflections WHERE user_id = ? AND date BETWEEN ? AND ?`,
		userID, start, end).Scan(&summary.Reflections)
	if err != nil {
		return summary, fmt.Errorf("failed to count reflections: %w", err)
	}
	return summary, nil
}

func (s *SQLiteStore) RecordNotification(userID int64, notifType, date string, intentionID int64) (bool, error) {
	res, err := s.db.Exec(`INSERT OR IGNORE INTO notifications (user_id, type, date, intention_id) VALUES (?, ?, ?, ?)`,
		userID, notifType, date, intentionID)
	if err != nil {
		slog.Error("SQLiteStore RecordNotification failed", "error", err, "user_id", userID, "type", notifType)
		return false, fmt.Errorf("failed to record notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
