package core

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InvalidDateLabel is rendered in place of any date that cannot be parsed.
const InvalidDateLabel = "Invalid date"

// LabelStyle selects how Label renders a date.
type LabelStyle int

const (
	// StyleFull renders "Jan 2, 2024".
	StyleFull LabelStyle = iota
	// StyleShort renders "Jan 2".
	StyleShort
	// StyleRelative renders "Today" or "Yesterday" when applicable, StyleShort otherwise.
	StyleRelative
)

const (
	monthLayout = "Jan 2006"
	fullLayout  = "Jan 2, 2006"
	shortLayout = "Jan 2"
)

// Layouts carrying their own offset.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
	"2006-01-02 15:04:05Z07",
}

// Layouts interpreted in the normalizer's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
}

// Bank SMS style timestamps, e.g. "03月15日14:30".
var tokenDate = regexp.MustCompile(`(\d{2})月(\d{2})日(\d{2}):(\d{2})`)

// DateNormalizer turns the date text found on transactions into instants and
// display labels. The zero value uses the local zone and the wall clock.
type DateNormalizer struct {
	Now      func() time.Time
	Location *time.Location
}

// NewDateNormalizer returns a normalizer bound to loc (Local when nil).
func NewDateNormalizer(loc *time.Location) DateNormalizer {
	return DateNormalizer{Now: time.Now, Location: loc}
}

func (n DateNormalizer) now() time.Time {
	if n.Now == nil {
		return time.Now().In(n.loc())
	}
	return n.Now().In(n.loc())
}

// CurrentTime returns now in the normalizer's location.
func (n DateNormalizer) CurrentTime() time.Time {
	return n.now()
}

func (n DateNormalizer) loc() *time.Location {
	if n.Location == nil {
		return time.Local
	}
	return n.Location
}

// Parse resolves raw to an instant. It reports false for anything that is
// neither ISO-8601 nor the "MM月DD日HH:mm" token format.
func (n DateNormalizer) Parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if strings.ContainsAny(s, "T-") {
		if t, ok := n.parseISO(s); ok {
			return t, true
		}
	}
	return n.parseToken(s)
}

func (n DateNormalizer) parseISO(s string) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, n.loc()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n DateNormalizer) parseToken(s string) (time.Time, bool) {
	m := tokenDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	hour, _ := strconv.Atoi(m[3])
	minute, _ := strconv.Atoi(m[4])
	if month < 1 || month > 12 || day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}, false
	}
	// Days past the end of the month roll into the next one.
	year := n.now().Year()
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, n.loc()), true
}

// MonthLabel renders the calendar month of raw, e.g. "Jan 2024".
func (n DateNormalizer) MonthLabel(raw string) string {
	t, ok := n.Parse(raw)
	if !ok {
		return InvalidDateLabel
	}
	return t.In(n.loc()).Format(monthLayout)
}

// Label renders raw in the requested style.
func (n DateNormalizer) Label(raw string, style LabelStyle) string {
	t, ok := n.Parse(raw)
	if !ok {
		return InvalidDateLabel
	}
	return n.FormatTime(t, style)
}

// FormatTime renders an already parsed instant in the requested style.
func (n DateNormalizer) FormatTime(t time.Time, style LabelStyle) string {
	t = t.In(n.loc())
	switch style {
	case StyleFull:
		return t.Format(fullLayout)
	case StyleRelative:
		now := n.now()
		if sameDay(t, now) {
			return "Today"
		}
		if sameDay(t, now.AddDate(0, 0, -1)) {
			return "Yesterday"
		}
		return t.Format(shortLayout)
	default:
		return t.Format(shortLayout)
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// Index orders months chronologically.
func (k MonthKey) Index() int {
	return k.Year*12 + int(k.Month) - 1
}

// Label renders "Jan 2024".
func (k MonthKey) Label() string {
	return time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
}

// Prev returns the month before k.
func (k MonthKey) Prev() MonthKey {
	if k.Month == time.January {
		return MonthKey{Year: k.Year - 1, Month: time.December}
	}
	return MonthKey{Year: k.Year, Month: k.Month - 1}
}

// MonthOf resolves raw to its calendar month in the normalizer's location.
func (n DateNormalizer) MonthOf(raw string) (MonthKey, bool) {
	t, ok := n.Parse(raw)
	if !ok {
		return MonthKey{}, false
	}
	t = t.In(n.loc())
	return MonthKey{Year: t.Year(), Month: t.Month()}, true
}

// CurrentMonth returns the month containing the normalizer's now.
func (n DateNormalizer) CurrentMonth() MonthKey {
	now := n.now()
	return MonthKey{Year: now.Year(), Month: now.Month()}
}
