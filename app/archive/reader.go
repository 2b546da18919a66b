package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Reader reads the archive the way the site generator does.
type Reader struct {
	root string
}

func NewReader(root string) *Reader {
	return &Reader{root: root}
}

// Scan returns complete posts, newest directory name first, and the entries
// that lack a valid metadata record. A missing root is an empty archive.
func (r *Reader) Scan() ([]Post, []Incomplete, error) {
	entries, err := os.ReadDir(r.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read archive root: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() > entries[j].Name()
	})

	posts := make([]Post, 0, len(entries))
	var incomplete []Incomplete

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		post, err := r.readPost(entry.Name())
		if err != nil {
			incomplete = append(incomplete, Incomplete{
				Name:   entry.Name(),
				Images: len(post.Images),
				Reason: err.Error(),
			})
			continue
		}
		posts = append(posts, post)
	}

	return posts, incomplete, nil
}

func (r *Reader) readPost(name string) (Post, error) {
	dir := filepath.Join(r.root, name)
	post := Post{Name: name, Date: dateOf(name)}

	images, err := filepath.Glob(filepath.Join(dir, ImageDir, "*.*"))
	if err != nil {
		return post, fmt.Errorf("failed to list images: %w", err)
	}
	sort.Strings(images)
	for _, img := range images {
		rel, err := filepath.Rel(r.root, img)
		if err != nil {
			return post, fmt.Errorf("failed to resolve image path: %w", err)
		}
		post.Images = append(post.Images, filepath.ToSlash(rel))
	}

	data, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return post, fmt.Errorf("metadata missing: %w", err)
	}
	if err := json.Unmarshal(data, &post.Meta); err != nil {
		return post, fmt.Errorf("metadata unreadable: %w", err)
	}

	text, err := os.ReadFile(filepath.Join(dir, TextFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return post, fmt.Errorf("failed to read text: %w", err)
	}
	post.Text = string(text)

	return post, nil
}

// dateOf returns the YYYY_MM_DD prefix of an entry name, or the name itself.
func dateOf(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return name
	}
	return strings.Join(parts[:3], "_")
}
