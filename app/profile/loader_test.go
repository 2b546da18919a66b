package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadBuiltInProfile(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if p.URL != "https://web.whatsapp.com/" {
		t.Errorf("Expected WhatsApp Web URL, got '%s'", p.URL)
	}
	if p.Selectors.Message != "div.message-in, div.message-out" {
		t.Errorf("Unexpected message selector '%s'", p.Selectors.Message)
	}
	if len(p.Lexicon.Weekdays) != 7 || p.Lexicon.Weekdays[0] != "lundi" {
		t.Errorf("Expected weekdays starting on lundi, got %v", p.Lexicon.Weekdays)
	}
}

func TestLoadOverrideKeepsDefaults(t *testing.T) {
	tempDir := t.TempDir()
	content := `
selectors:
  text: "span.copyable-text"
lexicon:
  deleted: ["deleted", "supprimé"]
`
	path := filepath.Join(tempDir, "override.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if p.Selectors.Text != "span.copyable-text" {
		t.Errorf("Expected overridden text selector, got '%s'", p.Selectors.Text)
	}
	if p.Selectors.Viewer == "" {
		t.Error("Expected viewer selector to keep its default")
	}
	if len(p.Lexicon.Deleted) != 2 {
		t.Errorf("Expected 2 deletion phrases, got %v", p.Lexicon.Deleted)
	}
	if len(p.Lexicon.Months) != 12 {
		t.Errorf("Expected months to keep their default, got %v", p.Lexicon.Months)
	}
}

func TestLoadRejectsInvalidProfiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "empty selector",
			content: "selectors:\n  message: \"\"\n",
			wantErr: "selectors.message is required",
		},
		{
			name:    "no way to find the show more control",
			content: "selectors:\n  show_more: \"\"\nlexicon:\n  show_more: []\n",
			wantErr: "show_more",
		},
		{
			name:    "chat title without placeholder",
			content: "selectors:\n  chat_title: \"span.title\"\n",
			wantErr: "chat_title must contain",
		},
		{
			name:    "short weekday list",
			content: "lexicon:\n  weekdays: [\"monday\"]\n",
			wantErr: "7 days",
		},
		{
			name:    "malformed yaml",
			content: "selectors: [",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profile.yml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing '%s', got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadShowMoreByLabelOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	if err := os.WriteFile(path, []byte("selectors:\n  show_more: \"\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.Selectors.ShowMore != "" {
		t.Errorf("Expected empty show more selector, got '%s'", p.Selectors.ShowMore)
	}
	if len(p.Lexicon.ShowMore) == 0 {
		t.Error("Expected show more labels to keep their default")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}
