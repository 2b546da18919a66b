package harvest

import (
	"context"
	"fmt"

	"github.com/champcarillon/actualites/app/database"
	"github.com/champcarillon/actualites/app/media"
)

type fakeSession struct {
	messages  []Message
	images    map[string][]byte
	openErr   error
	listErr   error
	opened    string
	snapshots int
}

func (s *fakeSession) OpenChat(ctx context.Context, name string) error {
	s.opened = name
	return s.openErr
}

func (s *fakeSession) Messages(ctx context.Context) ([]Message, error) {
	s.snapshots++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.messages, nil
}

func (s *fakeSession) FetchEphemeral(ctx context.Context, handle string) ([]byte, error) {
	data, ok := s.images[handle]
	if !ok {
		return nil, fmt.Errorf("unknown handle %s", handle)
	}
	return data, nil
}

type fakeMessage struct {
	id          string
	recalled    bool
	placeholder string
	text        string
	sources     []string
	extra       int
	labels      []string

	showMore     bool
	stickyExpand bool
	clicks       int

	viewer  *fakeViewer
	openErr error
}

func (m *fakeMessage) ID() string {
	return m.id
}

func (m *fakeMessage) HasRecalledMarker(ctx context.Context) (bool, error) {
	return m.recalled, nil
}

func (m *fakeMessage) DeletedPlaceholderText(ctx context.Context) (string, error) {
	return m.placeholder, nil
}

func (m *fakeMessage) HasText(ctx context.Context) (bool, error) {
	return m.text != "", nil
}

func (m *fakeMessage) TextHTML(ctx context.Context) (string, error) {
	return m.text, nil
}

func (m *fakeMessage) ImageSources(ctx context.Context) ([]string, error) {
	return m.sources, nil
}

func (m *fakeMessage) ExtraImageCount(ctx context.Context) (int, error) {
	return m.extra, nil
}

func (m *fakeMessage) HasShowMore(ctx context.Context) (bool, error) {
	return m.showMore, nil
}

func (m *fakeMessage) ClickShowMore(ctx context.Context) error {
	m.clicks++
	if !m.stickyExpand {
		m.showMore = false
	}
	return nil
}

func (m *fakeMessage) DateLabels(ctx context.Context, limit int) ([]string, error) {
	if len(m.labels) > limit {
		return m.labels[:limit], nil
	}
	return m.labels, nil
}

func (m *fakeMessage) OpenViewer(ctx context.Context) (media.Viewer, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	if m.viewer == nil {
		return nil, fmt.Errorf("no viewer")
	}
	return m.viewer, nil
}

type fakeViewer struct {
	sources   []string
	index     int
	stuckAt   int // Next stops advancing at this index; 0 disables
	nextCalls int
	closed    bool
}

func (v *fakeViewer) CurrentSource(ctx context.Context) (string, error) {
	return v.sources[v.index], nil
}

func (v *fakeViewer) Next(ctx context.Context) error {
	v.nextCalls++
	if v.stuckAt > 0 && v.index >= v.stuckAt {
		return nil
	}
	if v.index < len(v.sources)-1 {
		v.index++
	}
	return nil
}

func (v *fakeViewer) Close(ctx context.Context) error {
	v.closed = true
	return nil
}

type fakeJournal struct {
	runs  map[string]database.Run
	posts []database.Post
	dups  map[string]string
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{runs: make(map[string]database.Run), dups: make(map[string]string)}
}

func (j *fakeJournal) StartRun(ctx context.Context, run database.Run) error {
	j.runs[run.ID] = run
	return nil
}

func (j *fakeJournal) FinishRun(ctx context.Context, run database.Run) error {
	j.runs[run.ID] = run
	return nil
}

func (j *fakeJournal) RecordPost(ctx context.Context, post database.Post) error {
	j.posts = append(j.posts, post)
	return nil
}

func (j *fakeJournal) FindDuplicate(ctx context.Context, hash, dirName string) (*database.Post, error) {
	if name, ok := j.dups[hash]; ok && name != dirName {
		return &database.Post{DirName: name}, nil
	}
	return nil, nil
}

// last returns the final record of each entry, keyed by directory name.
func (j *fakeJournal) last() map[string]database.Post {
	out := make(map[string]database.Post)
	for _, p := range j.posts {
		out[p.DirName] = p
	}
	return out
}

func blobs(prefix string, n int) ([]string, map[string][]byte) {
	sources := make([]string, n)
	images := make(map[string][]byte, n)
	for i := range n {
		sources[i] = fmt.Sprintf("blob:https://web.whatsapp.com/%s-%d", prefix, i+1)
		images[sources[i]] = []byte(fmt.Sprintf("png %s %d", prefix, i+1))
	}
	return sources, images
}
