package session

import (
	"testing"
	"time"

	"github.com/Anastasiia-on/intention/internal/models"
)

func TestStoreDefaultEmpty(t *testing.T) {
	st := NewStore()
	s := st.Get(42)
	if s.Step != StepNone || s.IntentionID != 0 || s.InReflectionMode() {
		t.Errorf("fresh session is not empty: %+v", s)
	}
}

func TestStoreReturnsSameRecord(t *testing.T) {
	st := NewStore()
	first := st.Get(42)
	first.Language = models.LanguageUK
	second := st.Get(42)
	if second.Language != models.LanguageUK {
		t.Error("Get did not return the same mutable record")
	}
	if other := st.Get(43); other.Language != "" {
		t.Error("state leaked across chat keys")
	}
}

func TestEnterStepSupersedes(t *testing.T) {
	now := time.Now()
	s := &Session{}
	s.EnterStep(StepAwaitingFreeTextConfirm, now)
	s.PendingText = "draft"
	s.EnterStep(StepAwaitingDate, now.Add(time.Minute))
	if s.Step != StepAwaitingDate {
		t.Errorf("step = %q, want awaiting_date", s.Step)
	}
	if s.PendingText != "" {
		t.Error("entering a new step must clear the previous step's stashed input")
	}
}

func TestClearFlowPreservesLanguageAndReflection(t *testing.T) {
	now := time.Now()
	s := &Session{Language: models.LanguageEN}
	s.StartReflection(7, now)
	s.Reflection.TextParts = append(s.Reflection.TextParts, "part")
	s.EnterStep(StepAwaitingDate, now)
	s.IntentionID = 3
	s.ConfigMode = true

	s.ClearFlow()
	if s.Step != StepNone || s.IntentionID != 0 || s.ConfigMode {
		t.Errorf("flow fields not cleared: %+v", s)
	}
	if s.Language != models.LanguageEN {
		t.Error("language must survive ClearFlow")
	}
	if !s.InReflectionMode() || len(s.Reflection.TextParts) != 1 {
		t.Error("reflection capture must survive ClearFlow")
	}
}

func TestStartReflectionClearsFlow(t *testing.T) {
	now := time.Now()
	s := &Session{}
	s.EnterStep(StepAwaitingEditText, now)
	s.IntentionID = 9
	s.StartReflection(9, now)
	if s.Step != StepNone {
		t.Error("starting reflection capture must clear the pending step")
	}
	if !s.InReflectionMode() {
		t.Error("expected reflection mode")
	}
	if s.Reflection.IntentionID != 9 {
		t.Errorf("capture target = %d, want 9", s.Reflection.IntentionID)
	}
}
