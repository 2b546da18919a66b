package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Fetcher reads ephemeral image handles from inside the live chat page.
type Fetcher interface {
	FetchEphemeral(ctx context.Context, handle string) ([]byte, error)
}

// StemFunc returns the destination path, without extension, of the n-th
// (1-based) image of a post.
type StemFunc func(n int) string

type Resolver struct {
	fetcher    Fetcher
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
}

func NewResolver(fetcher Fetcher, httpClient *http.Client, userAgent string, timeout time.Duration) *Resolver {
	return &Resolver{
		fetcher:    fetcher,
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
	}
}

// Save fetches ref and writes it to stem plus the reference's extension.
// It returns the written path.
func (r *Resolver) Save(ctx context.Context, ref Reference, stem string) (string, error) {
	data, err := r.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}

	path := stem + "." + ref.Format()
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	slog.Debug("Image saved", "path", path, "kind", ref.Kind.String(), "bytes", len(data))
	return path, nil
}

func (r *Resolver) Fetch(ctx context.Context, ref Reference) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch ref.Kind {
	case Embedded:
		data, err = decodeDataURL(ref.Source)
	case Ephemeral:
		data, err = r.fetchEphemeral(ctx, ref.Source)
	case Remote:
		data, err = r.fetchRemote(ctx, ref.Source)
	default:
		return nil, fmt.Errorf("cannot fetch %s image reference", ref.Kind)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s image: %w", ref.Kind, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to fetch %s image: empty payload", ref.Kind)
	}

	return data, nil
}

// SaveInline saves the images rendered directly in a message, in order,
// numbering files consecutively from 1. Animated images are skipped. On
// error the count of files already written is returned with it.
func (r *Resolver) SaveInline(ctx context.Context, sources []string, stem StemFunc) (int, error) {
	saved := 0
	for _, src := range sources {
		ref, err := ParseReference(src)
		if err != nil {
			slog.Debug("Inline image skipped", "reason", err)
			continue
		}
		if ref.Animated() {
			slog.Debug("Inline image skipped", "reason", "animated", "format", ref.Format())
			continue
		}

		if _, err := r.Save(ctx, ref, stem(saved+1)); err != nil {
			return saved, fmt.Errorf("image %d: %w", saved+1, err)
		}
		saved++
	}

	return saved, nil
}

// fetchEphemeral bounds the in-page read by the fetch timeout, returning
// even if the fetcher ignores its context.
func (r *Resolver) fetchEphemeral(ctx context.Context, handle string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := r.fetcher.FetchEphemeral(timeoutCtx, handle)
		done <- result{data, err}
	}()

	select {
	case res := <-done:
		return res.data, res.err
	case <-timeoutCtx.Done():
		return nil, timeoutCtx.Err()
	}
}

func (r *Resolver) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
