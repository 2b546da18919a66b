package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/champcarillon/actualites/app/profile"
)

const keyLayout = "2006_01_02"

// Key is a canonical YYYY_MM_DD calendar date. Keys sort chronologically.
type Key string

// Unresolved is returned when a label does not name a date.
const Unresolved Key = "unknown_date"

var explicitDate = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4}|\d{2})\b`)

func Format(t time.Time) Key {
	return Key(t.Format(keyLayout))
}

func (k Key) Resolved() bool {
	return k != Unresolved && k != ""
}

// Time parses the key as midnight in loc.
func (k Key) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(keyLayout, string(k), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date key %q: %w", k, err)
	}
	return t, nil
}

type Resolver struct {
	lexicon *profile.Lexicon
}

func NewResolver(lexicon *profile.Lexicon) *Resolver {
	return &Resolver{lexicon: lexicon}
}

// Resolve turns a chat date separator into a Key relative to now. Weekday
// names always refer to a past day: today's own weekday means a week ago.
func (r *Resolver) Resolve(label string, now time.Time) Key {
	switch {
	case r.lexicon.MentionsToday(label):
		return Format(now)
	case r.lexicon.MentionsYesterday(label):
		return Format(now.AddDate(0, 0, -1))
	}

	if target := r.lexicon.Weekday(label); target >= 0 {
		back := (mondayIndex(now.Weekday()) - target + 7) % 7
		if back == 0 {
			back = 7
		}
		return Format(now.AddDate(0, 0, -back))
	}

	if m := explicitDate.FindStringSubmatch(label); m != nil {
		return literal(m[1], m[2], m[3], now.Location())
	}

	return Unresolved
}

func mondayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func literal(day, month, year string, loc *time.Location) Key {
	d, _ := strconv.Atoi(day)
	m, _ := strconv.Atoi(month)
	y, _ := strconv.Atoi(year)
	if len(year) == 2 {
		y += 2000
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	// time.Date normalizes 31/2 into March; such labels are not dates.
	if t.Day() != d || int(t.Month()) != m || t.Year() != y {
		return Unresolved
	}
	return Format(t)
}

// Human renders a key as a French long date ("Lundi 3 mars 2025"). Keys that
// do not parse are returned unchanged.
func Human(k Key, lexicon *profile.Lexicon) string {
	t, err := k.Time(time.UTC)
	if err != nil || len(lexicon.Weekdays) != 7 || len(lexicon.Months) != 12 {
		return string(k)
	}

	day := lexicon.Weekdays[mondayIndex(t.Weekday())]
	if day != "" {
		day = strings.ToUpper(day[:1]) + day[1:]
	}

	return fmt.Sprintf("%s %d %s %d", day, t.Day(), lexicon.Months[t.Month()-1], t.Year())
}
