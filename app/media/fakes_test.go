package media

import (
	"context"
	"fmt"
	"path/filepath"
)

type fakeFetcher struct {
	images  map[string][]byte
	failOn  string
	fetched []string
}

func (f *fakeFetcher) FetchEphemeral(ctx context.Context, handle string) ([]byte, error) {
	f.fetched = append(f.fetched, handle)
	if handle == f.failOn {
		return nil, fmt.Errorf("network error")
	}
	data, ok := f.images[handle]
	if !ok {
		return nil, fmt.Errorf("unknown handle %s", handle)
	}
	return data, nil
}

type fakeViewer struct {
	sources    []string
	index      int
	stuckAfter int // Next stops working once index reaches this value; 0 disables
	nextCalls  int
	closed     bool
	closeErr   error
}

func (v *fakeViewer) CurrentSource(ctx context.Context) (string, error) {
	if v.closed {
		return "", fmt.Errorf("viewer closed")
	}
	return v.sources[v.index], nil
}

func (v *fakeViewer) Next(ctx context.Context) error {
	v.nextCalls++
	if v.stuckAfter > 0 && v.index >= v.stuckAfter {
		return nil
	}
	if v.index < len(v.sources)-1 {
		v.index++
	}
	return nil
}

func (v *fakeViewer) Close(ctx context.Context) error {
	v.closed = true
	return v.closeErr
}

type fakeCarousel struct {
	viewer  *fakeViewer
	openErr error
	opened  int
}

func (c *fakeCarousel) OpenViewer(ctx context.Context) (Viewer, error) {
	c.opened++
	if c.openErr != nil {
		return nil, c.openErr
	}
	return c.viewer, nil
}

func blobSources(n int) ([]string, map[string][]byte) {
	sources := make([]string, n)
	images := make(map[string][]byte, n)
	for i := range sources {
		sources[i] = fmt.Sprintf("blob:https://web.whatsapp.com/img-%d", i+1)
		images[sources[i]] = []byte(fmt.Sprintf("image-%d", i+1))
	}
	return sources, images
}

func stemIn(dir string) StemFunc {
	return func(n int) string {
		return filepath.Join(dir, fmt.Sprintf("%02d", n))
	}
}
