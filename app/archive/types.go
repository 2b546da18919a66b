package archive

const (
	TextFile     = "texte.html"
	MetadataFile = "json.txt"
	ImageDir     = "image"
)

// Metadata is the record closing a post. Its presence marks the entry complete.
type Metadata struct {
	ImageCount int `json:"image_count"`
}

// Post is one archived entry as read back from disk.
type Post struct {
	Name   string   `json:"name"`
	Date   string   `json:"date"`
	Text   string   `json:"text"`
	Images []string `json:"images"` // paths relative to the archive root
	Meta   Metadata `json:"meta"`
}

// Incomplete is an entry directory without a valid metadata record.
type Incomplete struct {
	Name   string `json:"name"`
	Images int    `json:"images_on_disk"`
	Reason string `json:"reason"`
}
