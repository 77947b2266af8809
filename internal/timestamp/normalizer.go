// Package timestamp converts the relative and absolute time strings rendered by
// upstream sites into a single canonical layout.
package timestamp

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultLayout is month/day/4-digit-year, 24-hour clock with seconds
const DefaultLayout = "01/02/2006, 15:04:05"

// maxMinutesAgo is the largest offset a time.Duration can hold
const maxMinutesAgo = math.MaxInt64 / int64(time.Minute)

const (
	clockLayout    = "3:04 PM"
	localeLayout   = "1/2/06, 3:04 PM"
	longFormLayout = "January 2, 2006 3:04 PM"
)

var (
	// ErrUnresolved is returned when no recognized shape matches or a matched shape
	// carries an invalid value.
	ErrUnresolved = errors.New("timestamp unresolved")

	minutesAgoPattern = regexp.MustCompile(`^([+-]?\d+)m$`)
	clockPattern      = regexp.MustCompile(`^\d{1,2}:\d{2} ?(?i:[AP]M)$`)
	localePattern     = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2}, \d{1,2}:\d{2} ?(?i:[AP]M)$`)
	longFormPattern   = regexp.MustCompile(`^([A-Za-z]+ \d{1,2}, \d{4} \d{1,2}:\d{2} (?i:[AP]M))(?: [A-Z]{2,4})?$`)
)

// Shape names which recognizer matched a raw string
type Shape string

const (
	ShapeNone       Shape = ""
	ShapeNow        Shape = "now"
	ShapeMinutesAgo Shape = "minutes_ago"
	ShapeClock      Shape = "clock"
	ShapeLocale     Shape = "locale"
	ShapeLongForm   Shape = "long_form"
)

// UnresolvedError describes why a raw string could not be normalized
type UnresolvedError struct {
	Raw    string
	Shape  Shape // Shape that matched structurally, ShapeNone if none did
	Reason error
}

func (e *UnresolvedError) Error() string {
	if e.Shape == ShapeNone {
		return fmt.Sprintf("%s: %q matches no known shape", ErrUnresolved, e.Raw)
	}
	return fmt.Sprintf("%s: %q (%s): %v", ErrUnresolved, e.Raw, e.Shape, e.Reason)
}

func (e *UnresolvedError) Unwrap() error {
	return ErrUnresolved
}

// Normalizer resolves raw strings against a fixed reference instant, normally the
// moment the run started, so every record in a run shares the same notion of now.
type Normalizer struct {
	reference time.Time
	layout    string
}

// NewNormalizer creates a normalizer. An empty layout selects DefaultLayout.
func NewNormalizer(reference time.Time, layout string) *Normalizer {
	if layout == "" {
		layout = DefaultLayout
	}
	return &Normalizer{
		reference: reference,
		layout:    layout,
	}
}

// Reference returns the reference instant
func (n *Normalizer) Reference() time.Time {
	return n.reference
}

// Normalize returns raw in canonical form, or an *UnresolvedError
func (n *Normalizer) Normalize(raw string) (string, error) {
	t, err := n.Resolve(raw)
	if err != nil {
		return "", err
	}
	return t.Format(n.layout), nil
}

// Resolve returns the instant raw denotes. Shapes are tried in priority order and
// the first structural match decides; a later shape is never consulted after an
// earlier one matched and failed.
func (n *Normalizer) Resolve(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)

	switch {
	case strings.EqualFold(s, "now"):
		return n.reference, nil

	case minutesAgoPattern.MatchString(s):
		prefix := minutesAgoPattern.FindStringSubmatch(s)[1]
		minutes, err := strconv.Atoi(prefix)
		if err != nil {
			return time.Time{}, &UnresolvedError{Raw: raw, Shape: ShapeMinutesAgo, Reason: err}
		}
		if minutes < 0 {
			return time.Time{}, &UnresolvedError{Raw: raw, Shape: ShapeMinutesAgo, Reason: fmt.Errorf("negative offset %d", minutes)}
		}
		if int64(minutes) > maxMinutesAgo {
			return time.Time{}, &UnresolvedError{Raw: raw, Shape: ShapeMinutesAgo, Reason: fmt.Errorf("offset %d minutes exceeds %d", minutes, maxMinutesAgo)}
		}
		return n.reference.Add(-time.Duration(minutes) * time.Minute), nil

	case clockPattern.MatchString(s):
		clock, err := time.Parse(clockLayout, canonicalMeridiem(s))
		if err != nil {
			return time.Time{}, &UnresolvedError{Raw: raw, Shape: ShapeClock, Reason: err}
		}
		y, m, d := n.reference.Date()
		return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, n.reference.Location()), nil

	case localePattern.MatchString(s):
		t, err := time.ParseInLocation(localeLayout, canonicalMeridiem(s), n.reference.Location())
		if err != nil {
			return time.Time{}, &UnresolvedError{Raw: raw, Shape: ShapeLocale, Reason: err}
		}
		return t, nil

	case longFormPattern.MatchString(s):
		body := longFormPattern.FindStringSubmatch(s)[1]
		t, err := time.ParseInLocation(longFormLayout, canonicalMeridiem(body), n.reference.Location())
		if err != nil {
			return time.Time{}, &UnresolvedError{Raw: raw, Shape: ShapeLongForm, Reason: err}
		}
		return t, nil
	}

	return time.Time{}, &UnresolvedError{Raw: raw, Shape: ShapeNone}
}

// canonicalMeridiem upper-cases the AM/PM suffix and guarantees one space before it
func canonicalMeridiem(s string) string {
	if len(s) < 2 {
		return s
	}
	head := strings.TrimRight(s[:len(s)-2], " ")
	return head + " " + strings.ToUpper(s[len(s)-2:])
}
