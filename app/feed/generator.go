package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"mime"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/champcarillon/actualites/app/archive"
	"github.com/champcarillon/actualites/app/cfg"
	"github.com/champcarillon/actualites/app/dates"
	"github.com/champcarillon/actualites/app/profile"
)

const (
	channelTitle       = "Actualités"
	channelDescription = "Dernières nouvelles du groupe"
	channelLanguage    = "fr"
)

// Generator renders archived posts as an RSS 2.0 document.
type Generator struct {
	lexicon *profile.Lexicon
	root    string
	baseURL string
	loc     *time.Location
	version string
}

func NewGenerator(c *cfg.Cfg, lexicon *profile.Lexicon) *Generator {
	baseURL := c.BaseUrl
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%s", c.Port)
	}

	return &Generator{
		lexicon: lexicon,
		root:    c.ArchiveDir(),
		baseURL: baseURL,
		loc:     c.Location,
		version: c.Version,
	}
}

// Run expects posts newest first, as returned by archive.Reader.Scan.
func (g *Generator) Run(posts []archive.Post) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channelTitle, 4)
	g.writeElement(&buf, "link", g.baseURL+"/posts", 4)
	g.writeElement(&buf, "description", channelDescription, 4)
	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.baseURL+"/feed.xml")))

	lastBuildDate := time.Now().In(g.loc)
	if len(posts) > 0 {
		if t, err := dates.Key(posts[0].Date).Time(g.loc); err == nil {
			lastBuildDate = t
		}
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Actualites/%s", g.version), 4)
	g.writeElement(&buf, "language", channelLanguage, 4)

	for _, post := range posts {
		if err := g.writeItem(&buf, post); err != nil {
			return "", err
		}
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, post archive.Post) error {
	key := dates.Key(post.Date)

	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(post.Name))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", dates.Human(key, g.lexicon), 6)
	g.writeElement(buf, "link", g.baseURL+"/posts#"+post.Name, 6)

	if post.Text != "" {
		g.writeElement(buf, "description", post.Text, 6)
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(post.Text)
		buf.WriteString("]]></content:encoded>\n")
	}

	if t, err := key.Time(g.loc); err == nil {
		g.writeElement(buf, "pubDate", t.Format(time.RFC1123Z), 6)
	}

	// RSS 2.0 allows a single enclosure per item.
	if len(post.Images) > 0 {
		image := post.Images[0]
		info, err := os.Stat(filepath.Join(g.root, filepath.FromSlash(image)))
		if err != nil {
			return fmt.Errorf("failed to stat image of %s: %w", post.Name, err)
		}
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"%d\" type=\"%s\" />\n",
			html.EscapeString(g.baseURL+"/media/"+image),
			info.Size(),
			html.EscapeString(imageType(image))))
	}

	buf.WriteString("    </item>\n")
	return nil
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

func imageType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
