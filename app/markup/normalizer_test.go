package markup

import (
	"strings"
	"testing"

	"github.com/champcarillon/actualites/app/profile"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	p, err := profile.Default()
	if err != nil {
		t.Fatal(err)
	}
	return NewNormalizer(&p.Lexicon)
}

func TestNormalize(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "blank line splits paragraphs",
			raw:  "Bonjour\n\nTout le monde",
			want: "<p>Bonjour</p><p>Tout le monde</p>",
		},
		{
			name: "blank line with spaces",
			raw:  "Un\n  \n\nDeux",
			want: "<p>Un</p><p>Deux</p>",
		},
		{
			name: "attributes stripped and unknown tags unwrapped",
			raw:  `<span class="x" dir="ltr"><strong class="y">Fête</strong> du <a href="https://example.com">jardin</a></span>`,
			want: "<p><strong>Fête</strong> du jardin</p>",
		},
		{
			name: "b and i become strong and em",
			raw:  "<b>gras</b> et <i>penché</i>",
			want: "<p><strong>gras</strong> et <em>penché</em></p>",
		},
		{
			name: "trailing line break dropped",
			raw:  "Salut<br>",
			want: "<p>Salut</p>",
		},
		{
			name: "inner line break kept",
			raw:  "Ligne 1<br>Ligne 2",
			want: "<p>Ligne 1<br/>Ligne 2</p>",
		},
		{
			name: "double line break splits paragraphs",
			raw:  "Un<br><br>Deux",
			want: "<p>Un</p><p>Deux</p>",
		},
		{
			name: "caption separated by line breaks",
			raw:  `<div class="copyable-text"><span>Lundi 3 mars 2025</span><br><br><strong>Fête</strong> du jardin<br>samedi</div>`,
			want: "<p><strong>Fête</strong> du jardin<br/>samedi</p>",
		},
		{
			name: "lists stay top level",
			raw:  "Programme :\n\n<ul><li class=\"a\">café</li><li>visite</li></ul>",
			want: "<p>Programme :</p><ul><li>café</li><li>visite</li></ul>",
		},
		{
			name: "stray list item unwrapped",
			raw:  "<li>seul</li>",
			want: "<p>seul</p>",
		},
		{
			name: "code kept",
			raw:  `<code class="c">x = 1</code>`,
			want: "<p><code>x = 1</code></p>",
		},
		{
			name: "leading date caption dropped",
			raw:  "Lundi 3 mars 2025\n\nRéunion au jardin",
			want: "<p>Réunion au jardin</p>",
		},
		{
			name: "leading numeric date caption dropped",
			raw:  "<span>Samedi 15/03/2025</span>\n\n<br>Atelier compost",
			want: "<p>Atelier compost</p>",
		},
		{
			name: "weekday without date kept",
			raw:  "Mardi gras\n\nCrêpes pour tous",
			want: "<p>Mardi gras</p><p>Crêpes pour tous</p>",
		},
		{
			name: "date not at start kept",
			raw:  "Rendez-vous lundi 3 mars 2025",
			want: "<p>Rendez-vous lundi 3 mars 2025</p>",
		},
		{
			name: "only caption left",
			raw:  "Dimanche 2 mars 2025",
			want: "",
		},
		{
			name: "empty input",
			raw:  "   ",
			want: "",
		},
		{
			name: "comments removed",
			raw:  "Bonjour<!-- tracking -->",
			want: "<p>Bonjour</p>",
		},
		{
			name: "text is escaped",
			raw:  "1 &lt; 2 &amp; 3",
			want: "<p>1 &lt; 2 &amp; 3</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.raw)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q)\n got: %q\nwant: %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := testNormalizer(t)

	inputs := []string{
		"Bonjour\n\nTout le monde",
		`<div class="copyable-text"><span>Lundi 3 mars 2025</span><br><br><strong>Fête</strong> du jardin<br>samedi</div>`,
		"<ul><li>un</li><li><em>deux</em></li></ul>\n\nfin",
		"<strong><ul><li>liste en gras</li></ul></strong>",
		"L'été \"chaud\" &amp; <code>a &lt; b</code>",
		"<ol><li>un</li><li>deux</li></ol>",
		"Ligne 1\nLigne 2\n\n\n<br>",
	}

	for _, raw := range inputs {
		once, err := n.Normalize(raw)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", raw, err)
		}
		twice, err := n.Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q) failed: %v", once, err)
		}
		if once != twice {
			t.Errorf("Normalization not idempotent for %q\nfirst:  %q\nsecond: %q", raw, once, twice)
		}
	}
}

func TestNormalizeStripsDangerousAttributes(t *testing.T) {
	n := testNormalizer(t)

	got, err := n.Normalize(`<strong onclick="alert(1)" style="color:red">Attention</strong>`)
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(got, "onclick") || strings.Contains(got, "style") {
		t.Errorf("Expected attributes to be removed, got %q", got)
	}
}
