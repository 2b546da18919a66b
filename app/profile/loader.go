package profile

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultProfile []byte

// Default returns the built-in WhatsApp Web (French) profile.
func Default() (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(defaultProfile, &p); err != nil {
		return nil, fmt.Errorf("failed to parse built-in profile: %w", err)
	}
	return &p, nil
}

// Load returns the built-in profile with the YAML file at path laid over it.
// Keys absent from the file keep their default value. An empty path yields
// the built-in profile.
func Load(path string) (*Profile, error) {
	p, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}

		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}

		slog.Debug("UI profile loaded", "path", path, "url", p.URL)
	}

	if err := validate(p); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", displayName(path), err)
	}

	return p, nil
}

func displayName(path string) string {
	if path == "" {
		return "(built-in)"
	}
	return path
}

func validate(p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}

	requiredFields := map[string]string{
		"url":                           p.URL,
		"selectors.chat_list":           p.Selectors.ChatList,
		"selectors.chat_title":          p.Selectors.ChatTitle,
		"selectors.message":             p.Selectors.Message,
		"selectors.text":                p.Selectors.Text,
		"selectors.image":               p.Selectors.Image,
		"selectors.extra_count_xpath":   p.Selectors.ExtraCountXPath,
		"selectors.date_label_xpath":    p.Selectors.DateLabelXPath,
		"selectors.viewer":              p.Selectors.Viewer,
		"selectors.viewer_image":        p.Selectors.ViewerImage,
		"selectors.viewer_close":        p.Selectors.ViewerClose,
		"selectors.recalled":            p.Selectors.Recalled,
		"selectors.deleted_placeholder": p.Selectors.DeletedPlaceholder,
	}

	for fieldName, fieldValue := range requiredFields {
		if strings.TrimSpace(fieldValue) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if strings.TrimSpace(p.Selectors.ShowMore) == "" && len(p.Lexicon.ShowMore) == 0 {
		return fmt.Errorf("selectors.show_more or lexicon.show_more is required")
	}

	if !strings.Contains(p.Selectors.ChatTitle, "%s") {
		return fmt.Errorf("selectors.chat_title must contain %%s for the chat name")
	}

	if len(p.Lexicon.Weekdays) != 7 {
		return fmt.Errorf("lexicon.weekdays must list 7 days, got %d", len(p.Lexicon.Weekdays))
	}
	if len(p.Lexicon.Months) != 12 {
		return fmt.Errorf("lexicon.months must list 12 months, got %d", len(p.Lexicon.Months))
	}

	nonEmptyLists := map[string][]string{
		"lexicon.today":     p.Lexicon.Today,
		"lexicon.yesterday": p.Lexicon.Yesterday,
		"lexicon.deleted":   p.Lexicon.Deleted,
	}

	for fieldName, words := range nonEmptyLists {
		if len(words) == 0 {
			return fmt.Errorf("%s must list at least one word", fieldName)
		}
	}

	return nil
}
