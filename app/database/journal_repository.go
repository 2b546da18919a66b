package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const timeLayout = time.RFC3339Nano

// JournalRepository records harvest runs and the entries they wrote.
type JournalRepository struct {
	db *DB
}

func NewJournalRepository(db *DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) StartRun(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, chat, target, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, run.ID, run.Chat, run.Target, RunStatusRunning, run.StartedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to start run: %w", err)
	}
	return nil
}

func (r *JournalRepository) FinishRun(ctx context.Context, run Run) error {
	finishedAt := time.Now().UTC()
	if run.FinishedAt != nil {
		finishedAt = run.FinishedAt.UTC()
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE runs
		SET archived = ?, skipped = ?, status = ?, error = ?, finished_at = ?
		WHERE id = ?
	`, run.Archived, run.Skipped, run.Status, run.Error, finishedAt.Format(timeLayout), run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("failed to finish run: run %s not found", run.ID)
	}
	return nil
}

// RecordPost inserts the entry or updates its status when already known.
func (r *JournalRepository) RecordPost(ctx context.Context, post Post) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (
			run_id, dir_name, date_key, status, stage,
			image_count, content_hash, error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, dir_name) DO UPDATE SET
			status = excluded.status,
			stage = excluded.stage,
			image_count = excluded.image_count,
			content_hash = excluded.content_hash,
			error = excluded.error,
			updated_at = excluded.updated_at
	`, post.RunID, post.DirName, post.DateKey, post.Status, post.Stage,
		post.ImageCount, post.ContentHash, post.Error, now, now)
	if err != nil {
		return fmt.Errorf("failed to record post: %w", err)
	}
	return nil
}

// FindDuplicate returns a completed entry other than dirName carrying the
// same content hash, or nil.
func (r *JournalRepository) FindDuplicate(ctx context.Context, contentHash, dirName string) (*Post, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT run_id, dir_name, date_key, status, stage, image_count,
			content_hash, error, created_at, updated_at
		FROM posts
		WHERE content_hash = ? AND dir_name != ? AND status = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, contentHash, dirName, PostStatusComplete)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return post, nil
}

func (r *JournalRepository) GetRun(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, chat, target, archived, skipped, status, error, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first.
func (r *JournalRepository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, chat, target, archived, skipped, status, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (r *JournalRepository) ListPosts(ctx context.Context, runID string) ([]Post, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT run_id, dir_name, date_key, status, stage, image_count,
			content_hash, error, created_at, updated_at
		FROM posts
		WHERE run_id = ?
		ORDER BY created_at, dir_name
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, *post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
	)
	if err := s.Scan(&run.ID, &run.Chat, &run.Target, &run.Archived, &run.Skipped,
		&run.Status, &run.Error, &startedAt, &finishedAt); err != nil {
		return nil, err
	}

	var err error
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	if finishedAt.Valid {
		t, err := time.Parse(timeLayout, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid finished_at %q: %w", finishedAt.String, err)
		}
		run.FinishedAt = &t
	}
	return &run, nil
}

func scanPost(s scanner) (*Post, error) {
	var (
		post                 Post
		createdAt, updatedAt string
	)
	if err := s.Scan(&post.RunID, &post.DirName, &post.DateKey, &post.Status, &post.Stage,
		&post.ImageCount, &post.ContentHash, &post.Error, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if post.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}
	if post.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("invalid updated_at %q: %w", updatedAt, err)
	}
	return &post, nil
}
