package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/champcarillon/actualites/app/dates"
)

// Writer allocates and fills entry directories under one archive root.
// Allocation relies on directory creation being atomic; callers still
// process posts one at a time.
type Writer struct {
	root string
}

func NewWriter(root string) *Writer {
	return &Writer{root: root}
}

func (w *Writer) Root() string {
	return w.root
}

// Allocate creates <root>/<key>_<n> for the smallest n not taken yet,
// together with its image directory.
func (w *Writer) Allocate(key dates.Key) (*Entry, error) {
	if err := os.MkdirAll(w.root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive root: %w", err)
	}

	for index := 0; ; index++ {
		name := fmt.Sprintf("%s_%d", key, index)
		dir := filepath.Join(w.root, name)

		err := os.Mkdir(dir, 0755)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create entry %s: %w", name, err)
		}

		if err := os.Mkdir(filepath.Join(dir, ImageDir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create image directory for %s: %w", name, err)
		}

		return &Entry{Name: name, Dir: dir, Key: key, Index: index}, nil
	}
}

// Entry is a freshly allocated post directory.
type Entry struct {
	Name  string
	Dir   string
	Key   dates.Key
	Index int
}

// WriteText stores the normalized text. Empty text leaves no file.
func (e *Entry) WriteText(fragment string) error {
	if fragment == "" {
		return nil
	}
	if err := os.WriteFile(filepath.Join(e.Dir, TextFile), []byte(fragment), 0644); err != nil {
		return fmt.Errorf("failed to write text of %s: %w", e.Name, err)
	}
	return nil
}

// ImageStem is the path, without extension, of the n-th image (01, 02, ...).
func (e *Entry) ImageStem(n int) string {
	return filepath.Join(e.Dir, ImageDir, fmt.Sprintf("%02d", n))
}

// Finalize writes the metadata record. It must be the last write of a post.
func (e *Entry) Finalize(imageCount int) error {
	data, err := json.MarshalIndent(Metadata{ImageCount: imageCount}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(e.Dir, MetadataFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata of %s: %w", e.Name, err)
	}
	return nil
}
