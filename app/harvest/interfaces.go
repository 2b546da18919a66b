package harvest

import (
	"context"

	"github.com/champcarillon/actualites/app/database"
	"github.com/champcarillon/actualites/app/media"
)

// Session is the live chat page. It also reads ephemeral image handles.
type Session interface {
	media.Fetcher
	OpenChat(ctx context.Context, name string) error
	// Messages snapshots the rendered transcript, oldest first. Handles from
	// an earlier snapshot must not be used after a new one is taken.
	Messages(ctx context.Context) ([]Message, error)
}

// Message is one rendered chat entry.
type Message interface {
	media.Carousel

	// ID identifies the rendered message across snapshots, "" when unknown.
	ID() string

	HasRecalledMarker(ctx context.Context) (bool, error)
	// DeletedPlaceholderText returns the text of the deletion placeholder, or
	// "" when the message has none.
	DeletedPlaceholderText(ctx context.Context) (string, error)

	HasText(ctx context.Context) (bool, error)
	TextHTML(ctx context.Context) (string, error)
	ImageSources(ctx context.Context) ([]string, error)
	// ExtraImageCount is the N of a "+N" overlay, 0 when absent.
	ExtraImageCount(ctx context.Context) (int, error)

	HasShowMore(ctx context.Context) (bool, error)
	ClickShowMore(ctx context.Context) error

	// DateLabels returns up to limit date captions preceding the message,
	// nearest first.
	DateLabels(ctx context.Context, limit int) ([]string, error)
}

// Journal keeps a record of runs and entries next to the archive.
type Journal interface {
	StartRun(ctx context.Context, run database.Run) error
	FinishRun(ctx context.Context, run database.Run) error
	RecordPost(ctx context.Context, post database.Post) error
	FindDuplicate(ctx context.Context, contentHash, dirName string) (*database.Post, error)
}

var _ Journal = (*database.JournalRepository)(nil)

// NopJournal discards everything.
type NopJournal struct{}

func (NopJournal) StartRun(context.Context, database.Run) error { return nil }
func (NopJournal) FinishRun(context.Context, database.Run) error { return nil }
func (NopJournal) RecordPost(context.Context, database.Post) error { return nil }

func (NopJournal) FindDuplicate(context.Context, string, string) (*database.Post, error) {
	return nil, nil
}
