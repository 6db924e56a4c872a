// Package session holds the ephemeral per-chat conversational state.
//
// One mutable record exists per chat id. Records survive across messages
// within a conversation and are cleared explicitly by the dialogue
// controller. Events for a single chat are processed strictly one at a
// time, so the record itself needs no locking; the store only guards the
// map against concurrent access from different chats.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Anastasiia-on/intention/internal/models"
)

// Step marks which input the controller currently expects from the chat.
// At most one step is active at a time.
type Step string

const (
	StepNone                     Step = ""
	StepAwaitingIntentionText    Step = "awaiting_intention_text"
	StepAwaitingDate             Step = "awaiting_date"
	StepAwaitingEditText         Step = "awaiting_edit_text"
	StepAwaitingNewCategory      Step = "awaiting_new_category"
	StepAwaitingFeedbackText     Step = "awaiting_feedback_text"
	StepAwaitingFeedbackPhoto    Step = "awaiting_feedback_photo"
	StepAwaitingFreeTextConfirm  Step = "awaiting_free_text_confirm"
	StepAwaitingBroadcastText    Step = "awaiting_broadcast_text"
	StepAwaitingBroadcastConfirm Step = "awaiting_broadcast_confirm"
)

// CategoryTarget marks where a newly named category should be attached.
type CategoryTarget string

const (
	CategoryTargetNone         CategoryTarget = ""
	CategoryTargetNewIntention CategoryTarget = "new_intention"
	CategoryTargetExisting     CategoryTarget = "existing_intention"
)

// ReflectionCapture accumulates one in-progress multi-message reflection.
// A non-nil capture on the session IS reflection mode: while present it
// preempts all step-based dispatch.
type ReflectionCapture struct {
	TextParts    []string
	PhotoFileIDs []string
	IntentionID  int64 // optional back-reference, 0 when unlinked
	StartedAt    time.Time
}

// Session is the per-chat conversational state record.
type Session struct {
	Language       models.Language
	Step           Step
	IntentionID    int64
	CategoryID     int64 // category preseeded for the next new intention
	ConfigMode     bool  // intention configuration sub-flow active
	CategoryTarget CategoryTarget
	PendingText    string // stashed free text or broadcast draft
	Reflection     *ReflectionCapture
	StepStartedAt  time.Time
}

// InReflectionMode reports whether reflection capture preempts dispatch.
func (s *Session) InReflectionMode() bool {
	return s.Reflection != nil
}

// EnterStep supersedes the current step: the previous step's stashed input
// is cleared before the new marker is set.
func (s *Session) EnterStep(step Step, now time.Time) {
	s.PendingText = ""
	s.Step = step
	s.StepStartedAt = now
}

// ClearFlow resets every flow field while preserving the cached language
// and any reflection capture in progress.
func (s *Session) ClearFlow() {
	s.Step = StepNone
	s.IntentionID = 0
	s.CategoryID = 0
	s.ConfigMode = false
	s.CategoryTarget = CategoryTargetNone
	s.PendingText = ""
	s.StepStartedAt = time.Time{}
}

// StartReflection clears the flow state and opens a reflection capture
// targeting the given intention (0 for an unlinked reflection).
func (s *Session) StartReflection(intentionID int64, now time.Time) {
	s.ClearFlow()
	s.Reflection = &ReflectionCapture{
		TextParts:    []string{},
		PhotoFileIDs: []string{},
		IntentionID:  intentionID,
		StartedAt:    now,
	}
}

// ClearReflection drops the reflection capture, leaving other fields alone.
func (s *Session) ClearReflection() {
	s.Reflection = nil
}

// Store keeps one session per chat id with default-empty reads.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the current session for a chat, creating a fresh empty one
// for unseen keys. The returned record is the live record: callers mutate
// its fields directly, which is safe because events for one chat are
// processed sequentially.
func (st *Store) Get(chatID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[chatID]; ok {
		return s
	}
	s := &Session{}
	st.sessions[chatID] = s
	slog.Debug("session created", "chat_id", chatID)
	return s
}

// Delete removes a chat's session entirely.
func (st *Store) Delete(chatID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, chatID)
}
