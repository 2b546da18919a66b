package profile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	lower      = cases.Lower(language.French)
	apostrophe = strings.NewReplacer("\u2019", "'", "\u02bc", "'", "\u00a0", " ", "\u202f", " ")
)

// Fold puts interface text into the comparable form used by every lexicon
// lookup: NFC, French lower case, plain apostrophes and spaces, trimmed.
func Fold(s string) string {
	s = norm.NFC.String(s)
	s = apostrophe.Replace(s)
	return strings.TrimSpace(lower.String(s))
}

func containsAny(folded string, words []string) bool {
	for _, w := range words {
		if w = Fold(w); w != "" && strings.Contains(folded, w) {
			return true
		}
	}
	return false
}

func (l *Lexicon) MentionsToday(label string) bool {
	return containsAny(Fold(label), l.Today)
}

func (l *Lexicon) MentionsYesterday(label string) bool {
	return containsAny(Fold(label), l.Yesterday)
}

// Weekday returns the Monday-based index (0..6) of the first weekday name
// found in label, or -1.
func (l *Lexicon) Weekday(label string) int {
	folded := Fold(label)
	for i, day := range l.Weekdays {
		if day = Fold(day); day != "" && strings.Contains(folded, day) {
			return i
		}
	}
	return -1
}

// StartsWithWeekday reports whether text begins with one of the weekday names.
func (l *Lexicon) StartsWithWeekday(text string) bool {
	folded := Fold(text)
	for _, day := range l.Weekdays {
		if day = Fold(day); day != "" && strings.HasPrefix(folded, day) {
			return true
		}
	}
	return false
}

func (l *Lexicon) IsDeletionNotice(text string) bool {
	return containsAny(Fold(text), l.Deleted)
}

// IgnoreLabel reports whether a caption near a message is a system notice
// (admin changes, membership) rather than a date separator.
func (l *Lexicon) IgnoreLabel(label string) bool {
	return containsAny(Fold(label), l.LabelIgnore)
}
