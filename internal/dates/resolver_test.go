package dates

import (
	"errors"
	"testing"
	"time"
)

// Fixed anchor for deterministic tests: Wednesday 2026-03-11 noon.
func testAnchor(t *testing.T) (*Resolver, time.Time) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Fatalf("failed to load timezone: %v", err)
	}
	return NewResolver(loc), time.Date(2026, 3, 11, 12, 0, 0, 0, loc)
}

func TestResolveISOIdentity(t *testing.T) {
	r, now := testAnchor(t)
	for _, input := range []string{"2026-03-11", "2026-03-12", "2026-12-31", "2027-02-28"} {
		got, err := r.ResolveAt(input, now)
		if err != nil {
			t.Errorf("ResolveAt(%q) failed: %v", input, err)
			continue
		}
		if got != input {
			t.Errorf("ResolveAt(%q) = %q, want identity", input, got)
		}
	}
}

func TestResolveISOToday(t *testing.T) {
	// Boundary policy: today itself is acceptable.
	r, now := testAnchor(t)
	got, err := r.ResolveAt("2026-03-11", now)
	if err != nil {
		t.Fatalf("today should be accepted, got %v", err)
	}
	if got != "2026-03-11" {
		t.Errorf("got %q, want 2026-03-11", got)
	}
}

func TestResolveISOPast(t *testing.T) {
	r, now := testAnchor(t)
	if _, err := r.ResolveAt("2026-03-10", now); !errors.Is(err, ErrPastDate) {
		t.Errorf("yesterday's ISO date: got %v, want ErrPastDate", err)
	}
	if _, err := r.ResolveAt("2020-01-01", now); !errors.Is(err, ErrPastDate) {
		t.Errorf("old date: got %v, want ErrPastDate", err)
	}
}

func TestResolveISOImpossible(t *testing.T) {
	r, now := testAnchor(t)
	for _, input := range []string{"2025-02-30", "2026-13-01", "2026-04-31", "2026-00-10", "2026-06-00"} {
		if _, err := r.ResolveAt(input, now); !errors.Is(err, ErrImpossibleDate) {
			t.Errorf("ResolveAt(%q): got %v, want ErrImpossibleDate", input, err)
		}
	}
}

func TestResolveDotted(t *testing.T) {
	r, now := testAnchor(t)
	cases := map[string]string{
		"15.3.2026":  "2026-03-15",
		"15.03.2026": "2026-03-15",
		"1.12.2026":  "2026-12-01",
		"11.3.2026":  "2026-03-11", // today, accepted
	}
	for input, want := range cases {
		got, err := r.ResolveAt(input, now)
		if err != nil {
			t.Errorf("ResolveAt(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ResolveAt(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := r.ResolveAt("30.2.2026", now); !errors.Is(err, ErrImpossibleDate) {
		t.Errorf("30.2.2026: got %v, want ErrImpossibleDate", err)
	}
	if _, err := r.ResolveAt("10.3.2026", now); !errors.Is(err, ErrPastDate) {
		t.Errorf("10.3.2026: got %v, want ErrPastDate", err)
	}
}

func TestResolveRelativeKeywords(t *testing.T) {
	r, now := testAnchor(t)
	cases := map[string]string{
		"today":     "2026-03-11",
		"tomorrow":  "2026-03-12",
		"Сегодня":   "2026-03-11",
		"завтра!":   "2026-03-12",
		"сьогодні":  "2026-03-11",
	}
	for input, want := range cases {
		got, err := r.ResolveAt(input, now)
		if err != nil {
			t.Errorf("ResolveAt(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ResolveAt(%q) = %q, want %q", input, got, want)
		}
	}
	for _, input := range []string{"yesterday", "вчера", "вчора"} {
		if _, err := r.ResolveAt(input, now); !errors.Is(err, ErrPastDate) {
			t.Errorf("ResolveAt(%q): got %v, want ErrPastDate", input, err)
		}
	}
}

func TestResolveNaturalLanguage(t *testing.T) {
	r, now := testAnchor(t)
	cases := map[string]string{
		"послезавтра":   "2026-03-13", // "in 2 days"
		"післязавтра":   "2026-03-13",
		"через 2 дня":   "2026-03-13",
		"за 2 дні":      "2026-03-13",
		"через день":    "2026-03-12",
		"через неделю":  "2026-03-18",
		"через тиждень": "2026-03-18",
		"in 3 days":     "2026-03-14",
	}
	for input, want := range cases {
		got, err := r.ResolveAt(input, now)
		if err != nil {
			t.Errorf("ResolveAt(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ResolveAt(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestResolveWeekdayNames(t *testing.T) {
	// Anchor is Wednesday; a plain weekday name resolves forward.
	r, now := testAnchor(t)
	got, err := r.ResolveAt("пятница", now)
	if err != nil {
		t.Fatalf("ResolveAt failed: %v", err)
	}
	want := time.Date(2026, 3, 13, 0, 0, 0, 0, now.Location())
	if got != want.Format(Layout) {
		t.Errorf("friday from wednesday = %q, want %q", got, want.Format(Layout))
	}
}

func TestResolveUnparseable(t *testing.T) {
	r, now := testAnchor(t)
	for _, input := range []string{"", "   ", "hello world no date here maybe", "?????"} {
		if _, err := r.ResolveAt(input, now); !errors.Is(err, ErrUnparseable) {
			t.Errorf("ResolveAt(%q): got %v, want ErrUnparseable", input, err)
		}
	}
}

func TestResolveIdempotent(t *testing.T) {
	r, now := testAnchor(t)
	first, err := r.ResolveAt("завтра", now)
	if err != nil {
		t.Fatalf("ResolveAt failed: %v", err)
	}
	second, err := r.ResolveAt(first, now)
	if err != nil {
		t.Fatalf("re-resolving canonical form failed: %v", err)
	}
	if second != first {
		t.Errorf("resolution is not idempotent: %q then %q", first, second)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"15 Марта":           "15 march",
		"через неделю":       "in 1 week",
		"через 2 недели":     "in 2 weeks",
		"у п'ятницю? Завтра": "у friday tomorrow",
		"":                   "",
		"  .,!  ":            "",
	}
	for input, want := range cases {
		if got := Normalize(input); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}
}
