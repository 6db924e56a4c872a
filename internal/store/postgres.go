// PostgreSQL-backed implementation of the Store interface.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "embed"

	"github.com/Anastasiia-on/intention/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore is a Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	slog.Debug("Postgres database opened")

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// Close closes the PostgreSQL database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	return s.db.Close()
}

func (s *PostgresStore) UpsertUserLanguage(telegramID int64, lang models.Language, profile models.Profile) (models.User, error) {
	_, err := s.db.Exec(`
		INSERT INTO users (telegram_id, language, first_name, last_name, username)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_id) DO UPDATE SET
			language = EXCLUDED.language,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username`,
		telegramID, lang, profile.FirstName, profile.LastName, profile.Username)
	if err != nil {
		slog.Error("PostgresStore UpsertUserLanguage failed", "error", err, "telegram_id", telegramID)
		return models.User{}, fmt.Errorf("failed to upsert user %d: %w", telegramID, err)
	}
	user, err := s.GetUserByTelegramID(telegramID)
	if err != nil {
		return models.User{}, err
	}
	slog.Debug("PostgresStore UpsertUserLanguage succeeded", "telegram_id", telegramID, "language", lang)
	return *user, nil
}

func (s *PostgresStore) UpdateUserProfile(telegramID int64, profile models.Profile) error {
	_, err := s.db.Exec(`UPDATE users SET first_name = $1, last_name = $2, username = $3 WHERE telegram_id = $4`,
		profile.FirstName, profile.LastName, profile.Username, telegramID)
	if err != nil {
		slog.Error("PostgresStore UpdateUserProfile failed", "error", err, "telegram_id", telegramID)
		return fmt.Errorf("failed to update profile for %d: %w", telegramID, err)
	}
	return nil
}

func (s *PostgresStore) GetUserByTelegramID(telegramID int64) (*models.User, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUserByTelegramID failed", "error", err, "telegram_id", telegramID)
		return nil, fmt.Errorf("failed to query user %d: %w", telegramID, err)
	}
	return &user, nil
}

func (s *PostgresStore) ListUsers() ([]models.User, error) {
	return s.queryUsers(`SELECT ` + userColumns + ` FROM users ORDER BY id`)
}

func (s *PostgresStore) ListUsersByReminderTime(hhmm string) ([]models.User, error) {
	return s.queryUsers(`SELECT `+userColumns+` FROM users WHERE reminder_time = $1`, hhmm)
}

func (s *PostgresStore) ListUsersByEveningTime(hhmm string) ([]models.User, error) {
	return s.queryUsers(`SELECT `+userColumns+` FROM users WHERE evening_time = $1`, hhmm)
}

func (s *PostgresStore) ListUsersByWeeklyTime(hhmm string) ([]models.User, error) {
	return s.queryUsers(`SELECT `+userColumns+` FROM users WHERE weekly_time = $1`, hhmm)
}

func (s *PostgresStore) ListUsersByMonthlyTime(hhmm string) ([]models.User, error) {
	return s.queryUsers(`SELECT `+userColumns+` FROM users WHERE monthly_time = $1`, hhmm)
}

func (s *PostgresStore) queryUsers(query string, args ...any) ([]models.User, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore user query failed", "error", err)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			slog.Error("PostgresStore user scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) AddIntention(userID int64, payload models.EncryptedPayload) (models.Intention, error) {
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO intentions (user_id, ciphertext_b64, iv_b64, auth_tag_b64)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		userID, payload.CiphertextB64, payload.IVB64, payload.AuthTagB64).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore AddIntention failed", "error", err, "user_id", userID)
		return models.Intention{}, fmt.Errorf("failed to insert intention: %w", err)
	}
	slog.Debug("PostgresStore AddIntention succeeded", "user_id", userID, "intention_id", id)
	intention, err := s.GetIntentionForUser(userID, id)
	if err != nil {
		return models.Intention{}, err
	}
	return *intention, nil
}

func (s *PostgresStore) ListIntentionsForUser(userID int64) ([]models.Intention, error) {
	return s.queryIntentions(`
		SELECT `+intentionColumns+` FROM intentions i`+intentionJoins+`
		WHERE i.user_id = $1
		ORDER BY d.date IS NULL, d.date, i.id`, userID)
}

func (s *PostgresStore) GetIntentionForUser(userID, intentionID int64) (*models.Intention, error) {
	row := s.db.QueryRow(`
		SELECT `+intentionColumns+` FROM intentions i`+intentionJoins+`
		WHERE i.user_id = $1 AND i.id = $2`, userID, intentionID)
	it, err := scanIntention(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.Error("PostgresStore GetIntentionForUser failed", "error", err, "user_id", userID, "intention_id", intentionID)
		return nil, fmt.Errorf("failed to query intention %d: %w", intentionID, err)
	}
	return &it, nil
}

func (s *PostgresStore) UpdateIntentionText(userID, intentionID int64, payload models.EncryptedPayload) error {
	res, err := s.db.Exec(`UPDATE intentions SET ciphertext_b64 = $1, iv_b64 = $2, auth_tag_b64 = $3 WHERE id = $4 AND user_id = $5`,
		payload.CiphertextB64, payload.IVB64, payload.AuthTagB64, intentionID, userID)
	if err != nil {
		slog.Error("PostgresStore UpdateIntentionText failed", "error", err, "intention_id", intentionID)
		return fmt.Errorf("failed to update intention %d: %w", intentionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteIntention(userID, intentionID int64) error {
	_, err := s.db.Exec(`DELETE FROM intentions WHERE id = $1 AND user_id = $2`, intentionID, userID)
	if err != nil {
		slog.Error("PostgresStore DeleteIntention failed", "error", err, "intention_id", intentionID)
		return fmt.Errorf("failed to delete intention %d: %w", intentionID, err)
	}
	slog.Debug("PostgresStore DeleteIntention succeeded", "user_id", userID, "intention_id", intentionID)
	return nil
}

// SetIntentionDate replaces the single target date inside one transaction:
// delete-then-insert, so a crash mid-update cannot leave two dates attached.
func (s *PostgresStore) SetIntentionDate(userID, intentionID int64, date string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owned int64
	if err := tx.QueryRow(`SELECT id FROM intentions WHERE id = $1 AND user_id = $2`, intentionID, userID).Scan(&owned); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to verify intention ownership: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM intention_dates WHERE intention_id = $1`, intentionID); err != nil {
		return fmt.Errorf("failed to clear previous date: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO intention_dates (intention_id, date) VALUES ($1, $2)`, intentionID, date); err != nil {
		return fmt.Errorf("failed to insert date: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit date replace: %w", err)
	}
	slog.Debug("PostgresStore SetIntentionDate succeeded", "intention_id", intentionID, "date", date)
	return nil
}

func (s *PostgresStore) SetIntentionCategory(userID, intentionID, categoryID int64) error {
	var owned int64
	if err := s.db.QueryRow(`SELECT id FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID).Scan(&owned); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to verify category ownership: %w", err)
	}
	res, err := s.db.Exec(`UPDATE intentions SET category_id = $1 WHERE id = $2 AND user_id = $3`, categoryID, intentionID, userID)
	if err != nil {
		slog.Error("PostgresStore SetIntentionCategory failed", "error", err, "intention_id", intentionID)
		return fmt.Errorf("failed to set category on intention %d: %w", intentionID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListIntentionsForUserByDate(userID int64, date string) ([]models.Intention, error) {
	return s.queryIntentions(`
		SELECT `+intentionColumns+` FROM intentions i`+intentionJoins+`
		WHERE i.user_id = $1 AND d.date = $2
		ORDER BY i.id`, userID, date)
}

func (s *PostgresStore) ListIntentionsForUserByCategory(userID, categoryID int64) ([]models.Intention, error) {
	return s.queryIntentions(`
		SELECT `+intentionColumns+` FROM intentions i`+intentionJoins+`
		WHERE i.user_id = $1 AND i.category_id = $2
		ORDER BY i.id`, userID, categoryID)
}

func (s *PostgresStore) queryIntentions(query string, args ...any) ([]models.Intention, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		slog.Error("PostgresStore intention query failed", "error", err)
		return nil, fmt.Errorf("failed to query intentions: %w", err)
	}
	defer rows.Close()

	var intentions []models.Intention
	for rows.Next() {
		it, err := scanIntention(rows)
		if err != nil {
			slog.Error("PostgresStore intention scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan intention row: %w", err)
		}
		intentions = append(intentions, it)
	}
	return intentions, rows.Err()
}

func (s *PostgresStore) CreateOrReuseCategory(userID int64, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, fmt.Errorf("category name is empty")
	}
	if _, err := s.db.Exec(`INSERT INTO categories (user_id, name) VALUES ($1, $2) ON CONFLICT (user_id, name) DO NOTHING`,
		userID, name); err != nil {
		slog.Error("PostgresStore CreateOrReuseCategory insert failed", "error", err, "user_id", userID)
		return models.Category{}, fmt.Errorf("failed to insert category: %w", err)
	}
	row := s.db.QueryRow(`SELECT id, user_id, name, created_at FROM categories WHERE user_id = $1 AND name = $2`, userID, name)
	var c models.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
		slog.Error("PostgresStore CreateOrReuseCategory select failed", "error", err, "user_id", userID)
		return models.Category{}, fmt.Errorf("failed to read category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCategoriesForUser(userID int64) ([]models.Category, error) {
	rows, err := s.db.Query(`SELECT id, user_id, name, created_at FROM categories WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		slog.Error("PostgresStore ListCategoriesForUser failed", "error", err, "user_id", userID)
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

func (s *PostgresStore) GetCategoryForUser(userID, categoryID int64) (*models.Category, error) {
	row := s.db.QueryRow(`SELECT id, user_id, name, created_at FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	var c models.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query category %d: %w", categoryID, err)
	}
	return &c, nil
}

func (s *PostgresStore) AddReflection(userID int64, date string, payload models.EncryptedPayload, photoFileIDs []string, intentionID int64) (models.Reflection, error) {
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO reflections (user_id, date, ciphertext_b64, iv_b64, auth_tag_b64, intention_id, photo_file_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		userID, date, payload.CiphertextB64, payload.IVB64, payload.AuthTagB64, intentionID, encodePhotoFileIDs(photoFileIDs)).Scan(&id)
	if err != nil {
		slog.Error("PostgresStore AddReflection failed", "error", err, "user_id", userID)
		return models.Reflection{}, fmt.Errorf("failed to insert reflection: %w", err)
	}
	slog.Debug("PostgresStore AddReflection succeeded", "user_id", userID, "reflection_id", id, "photos", len(photoFileIDs))
	return models.Reflection{
		ID: id, UserID: userID, Date: date, Payload: payload,
		PhotoFileIDs: photoFileIDs, IntentionID: intentionID,
	}, nil
}

func (s *PostgresStore) ListReflectionsForUser(userID int64) ([]models.Reflection, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, date, ciphertext_b64, iv_b64, auth_tag_b64, intention_id, photo_file_ids, created_at
		FROM reflections WHERE user_id = $1 ORDER BY date, id`, userID)
	if err != nil {
		slog.Error("PostgresStore ListReflectionsForUser failed", "error", err, "user_id", userID)
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

func (s *PostgresStore) GetMonthlySummary(userID int64, start, end string) (models.MonthlySummary, error) {
	var summary models.MonthlySummary
	err := s.db.QueryRow(`SELECT COUNT(*) FROM intentions WHERE user_id = $1 AND created_at::date BETWEEN $2::date AND $3::date`,
		userID, start, end).Scan(&summary.Intentions)
	if err != nil {
		return summary, fmt.Errorf("failed to count intentions: %w", err)
	}
	err = s.db.QueryRow(`
		SELECT COUNT(*)
		FROM intention_dates d
		JOIN intentions i ON i.id = d.intention_id
		WHERE i.user_id = $1 AND d.date BETWEEN $2 AND $3`, userID, start, end).
		Scan(&summary.PlannedDates)
	if err != nil {
		return summary, fmt.Errorf("failed to count planned dates: %w", err)
	}
	err = s.db.QueryRow(`SELECT COUNT(*) FROM reflections WHERE user_id = $1 AND date BETWEEN $2 AND $3`,
		userID, start, end).Scan(&summary.Reflections)
	if err != nil {
		return summary, fmt.Errorf("failed to count reflections: %w", err)
	}
	return summary, nil
}

func (s *PostgresStore) RecordNotification(userID int64, notifType, date string, intentionID int64) (bool, error) {
	res, err := s.db.Exec(`
		INSERT INTO notifications (user_id, type, date, intention_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, type, date, intention_id) DO NOTHING`,
		userID, notifType, date, intentionID)
	if err != nil {
		slog.Error("PostgresStore RecordNotification failed", "error", err, "user_id", userID, "type", notifType)
		return false, fmt.Errorf("failed to record notification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
