package harvest

import (
	"cmp"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/champcarillon/actualites/app/archive"
	"github.com/champcarillon/actualites/app/database"
	"github.com/champcarillon/actualites/app/dates"
	"github.com/champcarillon/actualites/app/markup"
	"github.com/champcarillon/actualites/app/media"
	"github.com/champcarillon/actualites/app/poll"
	"github.com/champcarillon/actualites/app/profile"
	"github.com/google/uuid"
)

const (
	DefaultLabelDepth    = 5
	DefaultPollInterval  = 200 * time.Millisecond
	DefaultExpandTimeout = 2 * time.Second
	DefaultSettleDelay   = 150 * time.Millisecond
)

// Options tune a run. Zero durations and depth take the package defaults.
type Options struct {
	Chat string
	// Now anchors relative date labels. Zero means the wall clock.
	Now           time.Time
	LabelDepth    int
	PollInterval  time.Duration
	ExpandTimeout time.Duration
	SettleDelay   time.Duration
}

// Archived describes one entry written by a run.
type Archived struct {
	Name    string    `json:"name"`
	Key     dates.Key `json:"date_key"`
	Images  int       `json:"images"`
	HasText bool      `json:"has_text"`
}

type Result struct {
	RunID    string          `json:"run_id"`
	Target   int             `json:"target"`
	Archived []Archived      `json:"archived"`
	Skipped  map[Verdict]int `json:"skipped"`
	// Exhausted is set when the transcript ran out before the target.
	Exhausted bool `json:"exhausted"`
}

func (r *Result) SkippedTotal() int {
	total := 0
	for _, n := range r.Skipped {
		total += n
	}
	return total
}

// Orchestrator archives the newest eligible posts of one chat, strictly one
// message at a time.
type Orchestrator struct {
	session    Session
	lexicon    *profile.Lexicon
	classifier *Classifier
	dates      *dates.Resolver
	normalizer *markup.Normalizer
	writer     *archive.Writer
	resolver   *media.Resolver
	walker     *media.Walker
	journal    Journal
	opts       Options
}

func NewOrchestrator(session Session, lexicon *profile.Lexicon, writer *archive.Writer,
	resolver *media.Resolver, walker *media.Walker, journal Journal, opts Options) *Orchestrator {
	opts.LabelDepth = cmp.Or(opts.LabelDepth, DefaultLabelDepth)
	opts.PollInterval = cmp.Or(opts.PollInterval, DefaultPollInterval)
	opts.ExpandTimeout = cmp.Or(opts.ExpandTimeout, DefaultExpandTimeout)
	opts.SettleDelay = cmp.Or(opts.SettleDelay, DefaultSettleDelay)
	if journal == nil {
		journal = NopJournal{}
	}

	return &Orchestrator{
		session:    session,
		lexicon:    lexicon,
		classifier: NewClassifier(lexicon),
		dates:      dates.NewResolver(lexicon),
		normalizer: markup.NewNormalizer(lexicon),
		writer:     writer,
		resolver:   resolver,
		walker:     walker,
		journal:    journal,
		opts:       opts,
	}
}

// Run archives up to target posts. The result is returned also on error and
// holds what was archived before the failure.
func (o *Orchestrator) Run(ctx context.Context, target int) (*Result, error) {
	result := &Result{
		RunID:   uuid.NewString(),
		Target:  target,
		Skipped: make(map[Verdict]int),
	}

	run := database.Run{ID: result.RunID, Chat: o.opts.Chat, Target: target, StartedAt: time.Now()}
	if err := o.journal.StartRun(ctx, run); err != nil {
		slog.Warn("Failed to journal run start", "run", run.ID, "error", err)
	}

	start := time.Now()
	err := o.run(ctx, target, result)

	finished := time.Now()
	run.Archived = len(result.Archived)
	run.Skipped = result.SkippedTotal()
	run.Status = database.RunStatusDone
	run.FinishedAt = &finished
	if err != nil {
		run.Status = database.RunStatusFailed
		run.Error = err.Error()
	}
	if jerr := o.journal.FinishRun(context.WithoutCancel(ctx), run); jerr != nil {
		slog.Warn("Failed to journal run end", "run", run.ID, "error", jerr)
	}

	slog.Info("Harvest finished",
		"run", run.ID,
		"archived", run.Archived,
		"target", target,
		"skipped", run.Skipped,
		"duration", time.Since(start).Round(time.Millisecond),
		"status", run.Status)

	return result, err
}

func (o *Orchestrator) run(ctx context.Context, target int, result *Result) error {
	if target <= 0 {
		return nil
	}

	slog.Info("Opening chat", "chat", o.opts.Chat)
	if err := o.session.OpenChat(ctx, o.opts.Chat); err != nil {
		return fmt.Errorf("failed to open chat %q: %w", o.opts.Chat, err)
	}

	cursor, err := NewCursor(ctx, o.session)
	if err != nil {
		return err
	}

	for len(result.Archived) < target {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, ok := cursor.Next()
		if !ok {
			result.Exhausted = true
			slog.Warn("Ran out of messages before reaching target",
				"archived", len(result.Archived), "target", target, "scanned", cursor.Position())
			return nil
		}

		verdict, err := o.classifier.Eligible(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to classify message %d: %w", cursor.Position(), err)
		}
		if verdict != Eligible {
			result.Skipped[verdict]++
			slog.Info("Message skipped", "position", cursor.Position(), "reason", string(verdict))
			continue
		}

		archived, err := o.archive(ctx, msg, cursor, result.RunID)
		if err != nil {
			return err
		}
		result.Archived = append(result.Archived, archived)

		slog.Info("Post archived",
			"dir", archived.Name,
			"images", archived.Images,
			"text", archived.HasText,
			"progress", fmt.Sprintf("%d/%d", len(result.Archived), target))
	}

	return nil
}

func (o *Orchestrator) archive(ctx context.Context, msg Message, cursor *Cursor, runID string) (Archived, error) {
	key := o.resolveDate(ctx, msg)

	entry, err := o.writer.Allocate(key)
	if err != nil {
		return Archived{}, err
	}

	post := database.Post{RunID: runID, DirName: entry.Name, DateKey: string(key), Status: database.PostStatusPending}
	o.record(ctx, post)

	stage := StageExpanding
	saved := 0
	fail := func(err error) (Archived, error) {
		post.Status = database.PostStatusFailed
		post.Stage = string(stage)
		post.ImageCount = saved
		post.Error = err.Error()
		o.record(context.WithoutCancel(ctx), post)
		return Archived{}, &PostError{Dir: entry.Dir, Stage: stage, Saved: saved, Err: err}
	}

	if err := o.expand(ctx, msg); err != nil {
		return fail(err)
	}

	stage = StageExtractingText
	text, err := o.extractText(ctx, msg)
	if err != nil {
		return fail(err)
	}
	if err := entry.WriteText(text); err != nil {
		return fail(err)
	}

	stage = StageExtractingMedia
	saved, err = o.extractMedia(ctx, msg, entry, cursor)
	if err != nil {
		return fail(err)
	}

	stage = StagePersisting
	if err := entry.Finalize(saved); err != nil {
		return fail(err)
	}

	post.Status = database.PostStatusComplete
	post.ImageCount = saved
	post.ContentHash = contentHash(text, saved)
	if text != "" {
		o.warnDuplicate(ctx, post)
	}
	o.record(ctx, post)

	return Archived{Name: entry.Name, Key: key, Images: saved, HasText: text != ""}, nil
}

// resolveDate uses the nearest date caption that resolves, falling back to
// the reference day.
func (o *Orchestrator) resolveDate(ctx context.Context, msg Message) dates.Key {
	now := o.now()

	labels, err := msg.DateLabels(ctx, o.opts.LabelDepth)
	if err != nil {
		slog.Warn("Failed to read date labels", "error", err)
	}

	for _, label := range labels {
		if strings.TrimSpace(label) == "" || o.lexicon.IgnoreLabel(label) {
			continue
		}
		if key := o.dates.Resolve(label, now); key.Resolved() {
			return key
		}
	}

	slog.Debug("No date label resolved, using reference date", "labels", labels)
	return dates.Format(now)
}

func (o *Orchestrator) expand(ctx context.Context, msg Message) error {
	present, err := msg.HasShowMore(ctx)
	if err != nil {
		return fmt.Errorf("failed to look for show more control: %w", err)
	}
	if !present {
		return nil
	}

	if err := msg.ClickShowMore(ctx); err != nil {
		slog.Warn("Failed to expand message, using visible text", "error", err)
		return nil
	}

	err = poll.Until(ctx, o.opts.PollInterval, o.opts.ExpandTimeout, func(ctx context.Context) (bool, error) {
		present, err := msg.HasShowMore(ctx)
		return !present, err
	})
	if errors.Is(err, poll.ErrTimeout) {
		slog.Warn("Show more control still present, using visible text", "waited", o.opts.ExpandTimeout)
	} else if err != nil {
		return fmt.Errorf("failed to wait for expansion: %w", err)
	}

	return poll.Sleep(ctx, o.opts.SettleDelay)
}

func (o *Orchestrator) extractText(ctx context.Context, msg Message) (string, error) {
	hasText, err := msg.HasText(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to check text: %w", err)
	}
	if !hasText {
		return "", nil
	}

	raw, err := msg.TextHTML(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}

	text, err := o.normalizer.Normalize(raw)
	if err != nil {
		return "", fmt.Errorf("failed to normalize text: %w", err)
	}
	return text, nil
}

func (o *Orchestrator) extractMedia(ctx context.Context, msg Message, entry *archive.Entry, cursor *Cursor) (int, error) {
	sources, err := msg.ImageSources(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list images: %w", err)
	}
	extra, err := msg.ExtraImageCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read extra image count: %w", err)
	}

	if extra == 0 {
		return o.resolver.SaveInline(ctx, sources, entry.ImageStem)
	}

	total := len(sources) + extra
	slog.Debug("Walking carousel", "dir", entry.Name, "visible", len(sources), "extra", extra)

	saved, err := o.walker.Walk(ctx, msg, total, entry.ImageStem)
	// The viewer re-renders the transcript, so older handles are stale now.
	if rerr := cursor.Refresh(ctx); rerr != nil {
		err = errors.Join(err, rerr)
	}
	return saved, err
}

func (o *Orchestrator) warnDuplicate(ctx context.Context, post database.Post) {
	dup, err := o.journal.FindDuplicate(ctx, post.ContentHash, post.DirName)
	if err != nil {
		slog.Warn("Failed to check duplicate", "dir", post.DirName, "error", err)
		return
	}
	if dup != nil {
		slog.Warn("Post looks like an earlier entry", "dir", post.DirName, "duplicate_of", dup.DirName)
	}
}

func (o *Orchestrator) record(ctx context.Context, post database.Post) {
	if err := o.journal.RecordPost(ctx, post); err != nil {
		slog.Warn("Failed to journal post", "dir", post.DirName, "status", post.Status, "error", err)
	}
}

func (o *Orchestrator) now() time.Time {
	if o.opts.Now.IsZero() {
		return time.Now()
	}
	return o.opts.Now
}

func contentHash(text string, images int) string {
	sum := sha256.Sum256([]byte(text + "|" + strconv.Itoa(images)))
	return fmt.Sprintf("%x", sum)
}
