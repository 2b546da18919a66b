package harvest

import (
	"context"
	"fmt"

	"github.com/champcarillon/actualites/app/media"
	"github.com/champcarillon/actualites/app/profile"
)

type Verdict string

const (
	Eligible Verdict = "eligible"
	Deleted  Verdict = "deleted"
	Empty    Verdict = "empty"
)

// Classifier decides which messages are worth archiving.
type Classifier struct {
	lexicon *profile.Lexicon
}

func NewClassifier(lexicon *profile.Lexicon) *Classifier {
	return &Classifier{lexicon: lexicon}
}

// IsDeleted reports a recalled message or one replaced by a deletion notice.
func (c *Classifier) IsDeleted(ctx context.Context, msg Message) (bool, error) {
	recalled, err := msg.HasRecalledMarker(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check recalled marker: %w", err)
	}
	if recalled {
		return true, nil
	}

	placeholder, err := msg.DeletedPlaceholderText(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read deleted placeholder: %w", err)
	}
	return placeholder != "" && c.lexicon.IsDeletionNotice(placeholder), nil
}

// IsEmpty reports a message with neither text nor a usable image.
func (c *Classifier) IsEmpty(ctx context.Context, msg Message) (bool, error) {
	hasText, err := msg.HasText(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check text: %w", err)
	}
	if hasText {
		return false, nil
	}

	sources, err := msg.ImageSources(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list images: %w", err)
	}
	for _, src := range sources {
		if _, err := media.ParseReference(src); err == nil {
			return false, nil
		}
	}
	return true, nil
}

func (c *Classifier) Eligible(ctx context.Context, msg Message) (Verdict, error) {
	deleted, err := c.IsDeleted(ctx, msg)
	if err != nil {
		return "", err
	}
	if deleted {
		return Deleted, nil
	}

	empty, err := c.IsEmpty(ctx, msg)
	if err != nil {
		return "", err
	}
	if empty {
		return Empty, nil
	}

	return Eligible, nil
}
