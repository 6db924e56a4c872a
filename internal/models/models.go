// Package models defines the core data structures for the intention bot.
//
// It includes durable entities (users, intentions, categories, reflections),
// the encrypted payload triple stored for all free-text fields, and the
// inbound event union delivered by the messaging layer.
package models

import "time"

// Language is a supported interface language.
type Language string

const (
	LanguageEN Language = "en"
	LanguageUK Language = "uk"
)

// Valid reports whether l is a known language.
func (l Language) Valid() bool {
	return l == LanguageEN || l == LanguageUK
}

// EncryptedPayload is the opaque triple stored for every free-text field.
// The store never interprets its contents; only the encryption package can.
type EncryptedPayload struct {
	CiphertextB64 string `json:"ciphertext_b64"`
	IVB64         string `json:"iv_b64"`
	AuthTagB64    string `json:"auth_tag_b64"`
}

// Empty reports whether the payload carries no ciphertext.
func (p EncryptedPayload) Empty() bool {
	return p.CiphertextB64 == ""
}

// Profile holds the mutable Telegram display fields of a user.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// User represents a registered bot user.
type User struct {
	ID           int64     `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Language     Language  `json:"language"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Username     string    `json:"username"`
	ReminderTime string    `json:"reminder_time"` // HH:MM in the reference timezone
	EveningTime  string    `json:"evening_time"`
	WeeklyTime   string    `json:"weekly_time"`
	MonthlyTime  string    `json:"monthly_time"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Intention is a user-owned goal with an optional single target date and
// optional category. The text lives in the encrypted payload.
type Intention struct {
	ID           int64            `json:"id"`
	UserID       int64            `json:"user_id"`
	Payload      EncryptedPayload `json:"payload"`
	Date         string           `json:"date,omitempty"` // canonical YYYY-MM-DD, empty when unset
	CategoryID   int64            `json:"category_id,omitempty"`
	CategoryName string           `json:"category_name,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Category is a user-scoped label, unique per (user, name).
type Category struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Reflection is a retrospective note with optional photos and an optional
// back-reference to the intention it responds to.
type Reflection struct {
	ID           int64            `json:"id"`
	UserID       int64            `json:"user_id"`
	Date         string           `json:"date"` // canonical YYYY-MM-DD
	Payload      EncryptedPayload `json:"payload"`
	PhotoFileIDs []string         `json:"photo_file_ids,omitempty"`
	IntentionID  int64            `json:"intention_id,omitempty"` // 0 when unlinked
	CreatedAt    time.Time        `json:"created_at"`
}

// Notification types recorded for scheduled-send deduplication.
const (
	NotificationMorning = "morning"
	NotificationEvening = "evening"
	NotificationWeekly  = "weekly"
	NotificationMonthly = "monthly"
)

// MonthlySummary aggregates a user's activity over one calendar month.
type MonthlySummary struct {
	Intentions   int `json:"intentions"`
	PlannedDates int `json:"planned_dates"`
	Reflections  int `json:"reflections"`
}

// EventKind discriminates inbound chat events.
type EventKind string

const (
	EventText     EventKind = "text"
	EventPhoto    EventKind = "photo"
	EventCallback EventKind = "callback"
	EventCommand  EventKind = "command"
)

// Event is one inbound chat event as delivered by the messaging service.
// Exactly one of Text, PhotoFileID, or CallbackData is meaningful,
// depending on Kind.
type Event struct {
	Kind         EventKind `json:"kind"`
	TraceID      string    `json:"trace_id"`
	ChatID       int64     `json:"chat_id"`
	TelegramID   int64     `json:"telegram_id"`
	Profile      Profile   `json:"profile"`
	Text         string    `json:"text,omitempty"`
	PhotoFileID  string    `json:"photo_file_id,omitempty"`
	CallbackID   string    `json:"callback_id,omitempty"`
	CallbackData string    `json:"callback_data,omitempty"`
	Time         time.Time `json:"time"`
}
