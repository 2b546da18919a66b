package api

import (
	"context"

	"github.com/champcarillon/actualites/app/archive"
	"github.com/champcarillon/actualites/app/database"
	"github.com/champcarillon/actualites/app/feed"
)

type GeneratorInterface interface {
	Run(posts []archive.Post) (string, error)
}

var _ GeneratorInterface = (*feed.Generator)(nil)

type ArchiveScanner interface {
	Scan() ([]archive.Post, []archive.Incomplete, error)
}

var _ ArchiveScanner = (*archive.Reader)(nil)

// JournalReader is the read side of the harvest journal.
type JournalReader interface {
	ListRuns(ctx context.Context, limit int) ([]database.Run, error)
	GetRun(ctx context.Context, id string) (*database.Run, error)
	ListPosts(ctx context.Context, runID string) ([]database.Post, error)
}

var _ JournalReader = (*database.JournalRepository)(nil)

type Handler struct {
	archive   ArchiveScanner
	generator GeneratorInterface
	journal   JournalReader
	humanDate func(date string) string
	version   string
}

type postResponse struct {
	Name   string   `json:"name"`
	Date   string   `json:"date"`
	Title  string   `json:"title"`
	Text   string   `json:"text"`
	Images []string `json:"images"`
}
