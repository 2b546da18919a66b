package browser

import (
	"context"
	"fmt"

	"github.com/champcarillon/actualites/app/media"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

type viewer struct {
	session *Session
}

var _ media.Viewer = (*viewer)(nil)

func (v *viewer) CurrentSource(ctx context.Context) (string, error) {
	src, err := v.session.attribute(ctx, v.session.profile.Selectors.ViewerImage, "src")
	if err != nil {
		return "", fmt.Errorf("failed to read viewer image: %w", err)
	}
	return src, nil
}

// Next focuses the viewer image so the overlay receives the key, then
// pages forward.
func (v *viewer) Next(ctx context.Context) error {
	if err := v.session.focus(ctx, v.session.profile.Selectors.ViewerImage); err != nil {
		return fmt.Errorf("failed to focus viewer: %w", err)
	}
	return v.session.run(ctx, v.session.opts.ViewerTimeout, chromedp.KeyEvent(kb.ArrowRight))
}

func (v *viewer) Close(ctx context.Context) error {
	sel := v.session.profile.Selectors
	return v.session.run(ctx, v.session.opts.CloseTimeout,
		chromedp.Click(sel.ViewerClose, chromedp.ByQuery),
		chromedp.WaitNotPresent(sel.Viewer, chromedp.ByQuery),
	)
}
