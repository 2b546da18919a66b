package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/champcarillon/actualites/app/dates"
)

func TestAllocateSameDateTwice(t *testing.T) {
	root := filepath.Join(t.TempDir(), "actualites")
	w := NewWriter(root)

	first, err := w.Allocate("2025_03_05")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	second, err := w.Allocate("2025_03_05")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if first.Name != "2025_03_05_0" {
		t.Errorf("Expected 2025_03_05_0, got %s", first.Name)
	}
	if second.Name != "2025_03_05_1" {
		t.Errorf("Expected 2025_03_05_1, got %s", second.Name)
	}
	if second.Index != 1 {
		t.Errorf("Expected index 1, got %d", second.Index)
	}

	for _, e := range []*Entry{first, second} {
		info, err := os.Stat(filepath.Join(e.Dir, ImageDir))
		if err != nil || !info.IsDir() {
			t.Errorf("Expected image directory for %s", e.Name)
		}
	}
}

func TestAllocateSkipsExistingDirectories(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"2024_12_31_0", "2024_12_31_1", "2024_12_31_3"} {
		if err := os.Mkdir(filepath.Join(root, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	entry, err := NewWriter(root).Allocate(dates.Key("2024_12_31"))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if entry.Name != "2024_12_31_2" {
		t.Errorf("Expected the smallest free index 2, got %s", entry.Name)
	}
}

func TestWriteTextOnlyWhenNotEmpty(t *testing.T) {
	w := NewWriter(t.TempDir())

	empty, _ := w.Allocate("2025_01_01")
	if err := empty.WriteText(""); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := os.Stat(filepath.Join(empty.Dir, TextFile)); !os.IsNotExist(err) {
		t.Error("Expected no text file for empty text")
	}

	full, _ := w.Allocate("2025_01_01")
	if err := full.WriteText("<p>Bonjour</p>"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(full.Dir, TextFile))
	if err != nil {
		t.Fatalf("Expected text file: %v", err)
	}
	if string(data) != "<p>Bonjour</p>" {
		t.Errorf("Unexpected text %q", data)
	}
}

func TestImageStem(t *testing.T) {
	e := &Entry{Dir: filepath.Join("base", "2025_03_05_0")}

	if got := e.ImageStem(1); got != filepath.Join("base", "2025_03_05_0", "image", "01") {
		t.Errorf("Unexpected stem %s", got)
	}
	if got := e.ImageStem(12); filepath.Base(got) != "12" {
		t.Errorf("Unexpected stem %s", got)
	}
}

func TestFinalizeWritesMetadata(t *testing.T) {
	entry, err := NewWriter(t.TempDir()).Allocate("2025_03_05")
	if err != nil {
		t.Fatal(err)
	}

	if err := entry.Finalize(3); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(entry.Dir, MetadataFile))
	if err != nil {
		t.Fatalf("Expected metadata file: %v", err)
	}

	if string(data) != "{\n  \"image_count\": 3\n}" {
		t.Errorf("Unexpected metadata layout %q", data)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil || meta.ImageCount != 3 {
		t.Errorf("Expected image_count 3, got %+v (%v)", meta, err)
	}
}
