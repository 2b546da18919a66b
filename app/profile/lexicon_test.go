package profile

import "testing"

func testLexicon(t *testing.T) *Lexicon {
	t.Helper()
	p, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	return &p.Lexicon
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"  AUJOURD’HUI ":   "aujourd'hui",
		"Message Supprimé": "message supprimé",
		"Vendredi 12":      "vendredi 12",
		"Été":              "été",
	}

	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLexiconLookups(t *testing.T) {
	lex := testLexicon(t)

	if !lex.MentionsToday("AUJOURD’HUI") {
		t.Error("Expected today label to match")
	}
	if !lex.MentionsYesterday("Hier") {
		t.Error("Expected yesterday label to match")
	}
	if got := lex.Weekday("Mercredi"); got != 2 {
		t.Errorf("Expected mercredi index 2, got %d", got)
	}
	if got := lex.Weekday("15/03/2024"); got != -1 {
		t.Errorf("Expected -1 for a numeric label, got %d", got)
	}
	if !lex.StartsWithWeekday("Lundi 3 mars 2025") {
		t.Error("Expected text to start with a weekday")
	}
	if lex.StartsWithWeekday("Rendez-vous lundi") {
		t.Error("Expected weekday in the middle not to count as a prefix")
	}
	if !lex.IsDeletionNotice("Ce message a été supprimé") {
		t.Error("Expected deletion notice to match")
	}
	if !lex.IgnoreLabel("Vous êtes désormais admin") {
		t.Error("Expected system notice to be ignored")
	}
	if lex.IgnoreLabel("Hier") {
		t.Error("Expected date label not to be ignored")
	}
}
