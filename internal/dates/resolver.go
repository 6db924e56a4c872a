package dates

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Canonical layout for all resolved dates.
const Layout = "2006-01-02"

// Rejection reasons. Every failed resolution returns exactly one of these.
var (
	// ErrUnparseable means no parsing stage could extract a date.
	ErrUnparseable = errors.New("date is unparseable")
	// ErrImpossibleDate means the input named a date that does not exist on
	// the Gregorian calendar (e.g. 2025-02-30).
	ErrImpossibleDate = errors.New("date is not a real calendar date")
	// ErrPastDate means the date lies strictly before the anchored today.
	ErrPastDate = errors.New("date is in the past")
)

// outcome is the per-stage result discriminator: a stage either resolves,
// rejects for a definite reason, or yields to the next stage.
type outcome int

const (
	noMatch outcome = iota
	resolvedDate
	invalidDate
)

var (
	isoPattern    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	dottedPattern = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`)
)

// Resolver converts raw user text into a canonical YYYY-MM-DD date.
//
// All "today" computations and calendar checks are anchored to a single
// fixed civil timezone so reminders and validity agree for every user
// regardless of device locale. The resolver holds no mutable state and is
// safe for concurrent use.
type Resolver struct {
	loc    *time.Location
	parser *when.Parser
}

// NewResolver builds a Resolver anchored to the given timezone.
func NewResolver(loc *time.Location) *Resolver {
	parser := when.New(nil)
	parser.Add(en.All...)
	parser.Add(common.All...)
	return &Resolver{loc: loc, parser: parser}
}

// Location returns the fixed reference timezone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Today returns the current civil date in the reference timezone.
func (r *Resolver) Today() string {
	return time.Now().In(r.loc).Format(Layout)
}

// Resolve parses raw input against the current anchored today.
func (r *Resolver) Resolve(raw string) (string, error) {
	return r.ResolveAt(raw, time.Now().In(r.loc))
}

// ResolveAt parses raw input with an explicit "now" anchor. The stages run
// in fixed order; the first stage that recognizes the input decides the
// outcome, and later stages are never consulted for recognized input.
func (r *Resolver) ResolveAt(raw string, now time.Time) (string, error) {
	now = now.In(r.loc)
	today := now.Format(Layout)

	if date, oc, err := r.resolveISO(raw, today); oc != noMatch {
		return date, err
	}
	if date, oc, err := r.resolveDotted(raw, today); oc != noMatch {
		return date, err
	}
	normalized := Normalize(raw)
	if date, oc, err := r.resolveRelativeKeyword(normalized, now); oc != noMatch {
		return date, err
	}
	return r.resolveNatural(raw, normalized, now, today)
}

// resolveISO handles strict YYYY-MM-DD input.
func (r *Resolver) resolveISO(raw, today string) (string, outcome, error) {
	match := isoPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return "", noMatch, nil
	}
	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])
	date, ok := r.canonical(year, month, day)
	if !ok {
		return "", invalidDate, ErrImpossibleDate
	}
	if date < today {
		return "", invalidDate, ErrPastDate
	}
	return date, resolvedDate, nil
}

// resolveDotted handles D.M.YYYY and DD.MM.YYYY input.
func (r *Resolver) resolveDotted(raw, today string) (string, outcome, error) {
	match := dottedPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if match == nil {
		return "", noMatch, nil
	}
	day, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])
	date, ok := r.canonical(year, month, day)
	if !ok {
		return "", invalidDate, ErrImpossibleDate
	}
	if date < today {
		return "", invalidDate, ErrPastDate
	}
	return date, resolvedDate, nil
}

// resolveRelativeKeyword handles input whose normalized form is exactly one
// of the three canonical relative words.
func (r *Resolver) resolveRelativeKeyword(normalized string, now time.Time) (string, outcome, error) {
	switch normalized {
	case "today":
		return now.Format(Layout), resolvedDate, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(Layout), resolvedDate, nil
	case "yesterday":
		return "", invalidDate, ErrPastDate
	default:
		return "", noMatch, nil
	}
}

// resolveNatural is the last stage: a general natural-language parse of the
// normalized text (or the original, when normalization changed nothing),
// anchored at now. Parsed components are re-validated against the real
// calendar before acceptance, so a parser that silently clamps an
// impossible date cannot smuggle it through.
func (r *Resolver) resolveNatural(raw, normalized string, now time.Time, today string) (string, error) {
	text := normalized
	if text == "" {
		text = strings.TrimSpace(raw)
	}
	if text == "" {
		return "", ErrUnparseable
	}

	result, err := r.parser.Parse(text, now)
	if err != nil {
		slog.Debug("dates: natural-language parse error", "error", err)
		return "", ErrUnparseable
	}
	if result == nil {
		return "", ErrUnparseable
	}

	parsed := result.Time.In(r.loc)
	date, ok := r.canonical(parsed.Year(), int(parsed.Month()), parsed.Day())
	if !ok {
		return "", ErrImpossibleDate
	}
	if date < today {
		return "", ErrPastDate
	}
	return date, nil
}

// canonical builds a date from components and requires the round-tripped
// year/month/day to match the input exactly, rejecting impossible dates
// instead of letting time.Date normalize them.
func (r *Resolver) canonical(year, month, day int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, r.loc)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format(Layout), true
}

