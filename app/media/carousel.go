package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/champcarillon/actualites/app/poll"
)

// ErrStuckViewer means the viewer kept showing the same image after being
// asked for the next one.
var ErrStuckViewer = errors.New("media viewer did not advance")

// Viewer is the full-screen media overlay of the chat page.
type Viewer interface {
	// CurrentSource returns the handle of the displayed image, or "" while
	// none is displayed.
	CurrentSource(ctx context.Context) (string, error)
	Next(ctx context.Context) error
	// Close dismisses the overlay and waits until it is gone.
	Close(ctx context.Context) error
}

// Carousel is a message whose images can be paged through in the viewer.
type Carousel interface {
	OpenViewer(ctx context.Context) (Viewer, error)
}

// Walker pages through a carousel saving one image per step. The viewer is
// the only liveness signal, so images are fetched strictly in display order.
type Walker struct {
	resolver       *Resolver
	pollInterval   time.Duration
	advanceTimeout time.Duration
}

func NewWalker(resolver *Resolver, pollInterval, advanceTimeout time.Duration) *Walker {
	return &Walker{
		resolver:       resolver,
		pollInterval:   pollInterval,
		advanceTimeout: advanceTimeout,
	}
}

// Walk saves total images from the carousel to stem(1)..stem(total) and
// returns how many were written. The viewer is closed before returning,
// whatever the outcome.
func (w *Walker) Walk(ctx context.Context, carousel Carousel, total int, stem StemFunc) (saved int, err error) {
	if total <= 0 {
		return 0, nil
	}

	viewer, err := carousel.OpenViewer(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to open media viewer: %w", err)
	}
	defer func() {
		if closeErr := viewer.Close(ctx); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close media viewer: %w", closeErr))
		}
	}()

	current, err := viewer.CurrentSource(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read displayed image: %w", err)
	}

	for i := 1; i <= total; i++ {
		if current == "" {
			return saved, fmt.Errorf("image %d of %d: viewer shows no image", i, total)
		}

		ref := Reference{Kind: Ephemeral, Source: current}
		if _, err := w.resolver.Save(ctx, ref, stem(i)); err != nil {
			return saved, fmt.Errorf("image %d of %d: %w", i, total, err)
		}
		saved++

		if i == total {
			break
		}

		if err := viewer.Next(ctx); err != nil {
			return saved, fmt.Errorf("failed to advance to image %d of %d: %w", i+1, total, err)
		}

		previous := current
		err := poll.Until(ctx, w.pollInterval, w.advanceTimeout, func(ctx context.Context) (bool, error) {
			src, err := viewer.CurrentSource(ctx)
			if err != nil {
				return false, err
			}
			if src != "" && src != previous {
				current = src
				return true, nil
			}
			return false, nil
		})
		if errors.Is(err, poll.ErrTimeout) {
			return saved, fmt.Errorf("image %d of %d: %w after %s", i+1, total, ErrStuckViewer, w.advanceTimeout)
		}
		if err != nil {
			return saved, fmt.Errorf("image %d of %d: %w", i+1, total, err)
		}
	}

	slog.Debug("Carousel walked", "images", saved)
	return saved, nil
}
