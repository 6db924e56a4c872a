// Package store provides storage backends for the intention bot.
//
// It includes an in-memory store for tests and SQLite/PostgreSQL stores for
// production, selected by DSN shape. All reads and writes are owner-scoped:
// every query that touches a user-owned row carries the owning user id, so
// a forged identifier from another user simply matches nothing.
package store

import (
	"errors"

	"github.com/Anastasiia-on/intention/internal/models"
)

// ErrNotFound is returned when an owner-scoped lookup matches no row,
// including the case of a row that exists but belongs to someone else.
var ErrNotFound = errors.New("not found")

// Store is the durable persistence contract consumed by the dialogue
// controller and the scheduled jobs.
type Store interface {
	// Users.
	UpsertUserLanguage(telegramID int64, lang models.Language, profile models.Profile) (models.User, error)
	UpdateUserProfile(telegramID int64, profile models.Profile) error
	GetUserByTelegramID(telegramID int64) (*models.User, error)
	ListUsers() ([]models.User, error)
	ListUsersByReminderTime(hhmm string) ([]models.User, error)
	ListUsersByEveningTime(hhmm string) ([]models.User, error)
	ListUsersByWeeklyTime(hhmm string) ([]models.User, error)
	ListUsersByMonthlyTime(hhmm string) ([]models.User, error)

	// Intentions. Free text is stored as the opaque encrypted triple.
	AddIntention(userID int64, payload models.EncryptedPayload) (models.Intention, error)
	ListIntentionsForUser(userID int64) ([]models.Intention, error)
	GetIntentionForUser(userID, intentionID int64) (*models.Intention, error)
	UpdateIntentionText(userID, intentionID int64, payload models.EncryptedPayload) error
	DeleteIntention(userID, intentionID int64) error
	// SetIntentionDate replaces the intention's single target date inside
	// one atomic unit: a date is single-valued, re-setting replaces.
	SetIntentionDate(userID, intentionID int64, date string) error
	SetIntentionCategory(userID, intentionID, categoryID int64) error
	ListIntentionsForUserByDate(userID int64, date string) ([]models.Intention, error)

	// Categories.
	CreateOrReuseCategory(userID int64, name string) (models.Category, error)
	ListCategoriesForUser(userID int64) ([]models.Category, error)
	GetCategoryForUser(userID, categoryID int64) (*models.Category, error)
	ListIntentionsForUserByCategory(userID, categoryID int64) ([]models.Intention, error)

	// Reflections.
	AddReflection(userID int64, date string, payload models.EncryptedPayload, photoFileIDs []string, intentionID int64) (models.Reflection, error)
	ListReflectionsForUser(userID int64) ([]models.Reflection, error)
	GetMonthlySummary(userID int64, start, end string) (models.MonthlySummary, error)

	// RecordNotification atomically records a (user, type, date, intention)
	// dedupe key. It reports true when the key was new and the caller may
	// send; repeated or concurrent calls for the same key report false.
	RecordNotification(userID int64, notifType, date string, intentionID int64) (bool, error)

	Close() error
}
