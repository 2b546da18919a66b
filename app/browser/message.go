package browser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/champcarillon/actualites/app/harvest"
	"github.com/champcarillon/actualites/app/media"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

type message struct {
	session *Session
	node    *cdp.Node
}

var _ harvest.Message = (*message)(nil)

// ID is the backend node id, stable while the message stays rendered.
func (m *message) ID() string {
	return strconv.FormatInt(int64(m.node.BackendNodeID), 10)
}

func (m *message) exists(ctx context.Context, sel string) (bool, error) {
	var ok bool
	if err := m.session.callOn(ctx, m.node, jsExists, &ok, sel); err != nil {
		return false, err
	}
	return ok, nil
}

func (m *message) HasRecalledMarker(ctx context.Context) (bool, error) {
	return m.exists(ctx, m.session.profile.Selectors.Recalled)
}

func (m *message) DeletedPlaceholderText(ctx context.Context) (string, error) {
	var text string
	err := m.session.callOn(ctx, m.node, jsInnerText, &text, m.session.profile.Selectors.DeletedPlaceholder)
	return text, err
}

func (m *message) HasText(ctx context.Context) (bool, error) {
	return m.exists(ctx, m.session.profile.Selectors.Text)
}

func (m *message) TextHTML(ctx context.Context) (string, error) {
	var html string
	err := m.session.callOn(ctx, m.node, jsInnerHTML, &html, m.session.profile.Selectors.Text)
	return html, err
}

func (m *message) ImageSources(ctx context.Context) ([]string, error) {
	var sources []string
	err := m.session.callOn(ctx, m.node, jsSources, &sources, m.session.profile.Selectors.Image)
	return sources, err
}

func (m *message) ExtraImageCount(ctx context.Context) (int, error) {
	var n int
	err := m.session.callOn(ctx, m.node, jsExtraCount, &n, m.session.profile.Selectors.ExtraCountXPath)
	return n, err
}

func (m *message) HasShowMore(ctx context.Context) (bool, error) {
	return m.showMore(ctx, false)
}

func (m *message) ClickShowMore(ctx context.Context) error {
	found, err := m.showMore(ctx, true)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("show more control not found")
	}
	return nil
}

func (m *message) showMore(ctx context.Context, click bool) (bool, error) {
	var found bool
	err := m.session.callOn(ctx, m.node, jsShowMore, &found,
		m.session.profile.Selectors.ShowMore, m.session.profile.Lexicon.ShowMore, click)
	return found, err
}

func (m *message) DateLabels(ctx context.Context, limit int) ([]string, error) {
	var labels []string
	err := m.session.callOn(ctx, m.node, jsDateLabels, &labels, m.session.profile.Selectors.DateLabelXPath, limit)
	return labels, err
}

// OpenViewer clicks the first image of the message and waits for the media
// viewer to show it.
func (m *message) OpenViewer(ctx context.Context) (media.Viewer, error) {
	s := m.session
	sel := s.profile.Selectors

	err := s.run(ctx, s.opts.ViewerTimeout,
		chromedp.Click(sel.Image, chromedp.ByQuery, chromedp.FromNode(m.node)),
		chromedp.WaitVisible(sel.Viewer, chromedp.ByQuery),
		chromedp.WaitVisible(sel.ViewerImage, chromedp.ByQuery),
	)
	if err != nil {
		return nil, err
	}

	return &viewer{session: s}, nil
}
