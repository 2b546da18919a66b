package browser

import (
	"cmp"
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/champcarillon/actualites/app/harvest"
	"github.com/champcarillon/actualites/app/profile"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// DefaultQueryTimeout bounds a single DOM query or script call.
const DefaultQueryTimeout = 10 * time.Second

type Options struct {
	// UserDataDir keeps the logged-in browser profile between runs.
	UserDataDir   string
	Headless      bool
	LoginTimeout  time.Duration
	ViewerTimeout time.Duration
	CloseTimeout  time.Duration
	QueryTimeout  time.Duration
	// FetchTimeout bounds reading an ephemeral image from the page.
	FetchTimeout time.Duration
}

// withDefaults gives every page wait a positive bound.
func (o Options) withDefaults() Options {
	o.QueryTimeout = cmp.Or(o.QueryTimeout, DefaultQueryTimeout)
	o.FetchTimeout = cmp.Or(o.FetchTimeout, o.QueryTimeout)
	o.ViewerTimeout = cmp.Or(o.ViewerTimeout, o.QueryTimeout)
	o.CloseTimeout = cmp.Or(o.CloseTimeout, o.QueryTimeout)
	o.LoginTimeout = cmp.Or(o.LoginTimeout, o.QueryTimeout)
	return o
}

// Session drives one browser tab on the chat web client.
type Session struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	profile     *profile.Profile
	opts        Options
}

var _ harvest.Session = (*Session)(nil)

// New starts the browser. Close must be called to stop it.
func New(ctx context.Context, prof *profile.Profile, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(opts.UserDataDir),
		chromedp.Flag("headless", opts.Headless),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			slog.Debug("Browser protocol error", "message", fmt.Sprintf(format, args...))
		}),
	)

	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	slog.Info("Browser started", "profile_dir", opts.UserDataDir, "headless", opts.Headless)

	return &Session{
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		profile:     prof,
		opts:        opts,
	}, nil
}

func (s *Session) Close() {
	s.cancelTab()
	s.cancelAlloc()
}

// run executes actions on the tab, stopping early when ctx is done or the
// timeout elapses. A non-positive timeout falls back to the query timeout.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = cmp.Or(s.opts.QueryTimeout, DefaultQueryTimeout)
	}
	runCtx, cancel := context.WithTimeout(s.tab, timeout)
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// OpenChat loads the web client, waits for the chat list (the login flow
// happens out of band) and opens the chat with the given title.
func (s *Session) OpenChat(ctx context.Context, name string) error {
	sel := s.profile.Selectors

	err := s.run(ctx, s.opts.LoginTimeout,
		chromedp.Navigate(s.profile.URL),
		chromedp.WaitVisible(sel.ChatList, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("chat list not available (is the profile logged in?): %w", err)
	}

	err = s.run(ctx, s.opts.LoginTimeout,
		chromedp.Click(chatSelector(sel.ChatTitle, name), chromedp.ByQuery),
		chromedp.WaitVisible(sel.Message, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to open chat: %w", err)
	}

	slog.Info("Chat opened", "chat", name)
	return nil
}

func (s *Session) Messages(ctx context.Context) ([]harvest.Message, error) {
	var nodes []*cdp.Node
	err := s.run(ctx, s.opts.QueryTimeout, chromedp.Nodes(s.profile.Selectors.Message, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	messages := make([]harvest.Message, len(nodes))
	for i, node := range nodes {
		messages[i] = &message{session: s, node: node}
	}

	slog.Debug("Transcript snapshot", "messages", len(messages))
	return messages, nil
}

// FetchEphemeral reads a blob: handle from inside the page, where it is valid.
func (s *Session) FetchEphemeral(ctx context.Context, handle string) ([]byte, error) {
	expr, err := callExpr(jsFetchBase64, handle)
	if err != nil {
		return nil, err
	}

	var encoded string
	err = s.run(ctx, s.opts.FetchTimeout, chromedp.Evaluate(expr, &encoded, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode blob: %w", err)
	}
	return data, nil
}

// attribute reads an attribute of the first element matching sel, "" when
// there is none.
func (s *Session) attribute(ctx context.Context, sel, name string) (string, error) {
	expr, err := callExpr(jsAttribute, sel, name)
	if err != nil {
		return "", err
	}

	var value string
	if err := s.run(ctx, s.opts.QueryTimeout, chromedp.Evaluate(expr, &value)); err != nil {
		return "", err
	}
	return value, nil
}

// focus moves keyboard focus to the first element matching sel.
func (s *Session) focus(ctx context.Context, sel string) error {
	expr, err := callExpr(jsFocus, sel)
	if err != nil {
		return err
	}

	var found bool
	if err := s.run(ctx, s.opts.QueryTimeout, chromedp.Evaluate(expr, &found)); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("nothing to focus at %s", sel)
	}
	return nil
}

// callOn calls fn with the element as this and decodes its result into res.
func (s *Session) callOn(ctx context.Context, node *cdp.Node, fn string, res any, args ...any) error {
	return s.run(ctx, s.opts.QueryTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(node.BackendNodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("message no longer rendered: %w", err)
		}
		defer func() {
			_ = runtime.ReleaseObject(obj.ObjectID).Do(ctx)
		}()

		return chromedp.CallFunctionOn(fn, res, func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(obj.ObjectID)
		}, args...).Do(ctx)
	}))
}
