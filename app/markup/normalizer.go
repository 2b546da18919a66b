package markup

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/champcarillon/actualites/app/profile"
)

// allowed maps every element that survives normalization to its output atom.
var allowed = map[atom.Atom]atom.Atom{
	atom.P:      atom.P,
	atom.Ul:     atom.Ul,
	atom.Li:     atom.Li,
	atom.Strong: atom.Strong,
	atom.B:      atom.Strong,
	atom.Em:     atom.Em,
	atom.I:      atom.Em,
	atom.Code:   atom.Code,
	atom.Br:     atom.Br,
}

var (
	blankLine  = regexp.MustCompile(`\n\s*\n`)
	headerDate = regexp.MustCompile(`\d{1,2}\s.*\s\d{4}|\d{1,2}/\d{1,2}/\d{2,4}`)
)

// Normalizer reduces chat rich text to a small, safe HTML subset.
type Normalizer struct {
	lexicon *profile.Lexicon
}

func NewNormalizer(lexicon *profile.Lexicon) *Normalizer {
	return &Normalizer{lexicon: lexicon}
}

// Normalize filters raw to the allowed tags, reflows bare text into
// paragraphs and drops a leading date caption. Running it on its own output
// returns the same string.
func (n *Normalizer) Normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	root := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	nodes, err := html.ParseFragment(strings.NewReader(raw), root)
	if err != nil {
		return "", fmt.Errorf("failed to parse message markup: %w", err)
	}
	for _, node := range nodes {
		root.AppendChild(node)
	}

	filter(root)
	reflow(root)
	n.stripLeadingHeader(root)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("failed to render normalized markup: %w", err)
		}
	}

	return buf.String(), nil
}

// filter applies the allow-list below parent: kept elements lose their
// attributes, other elements are replaced by their children.
func filter(parent *html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling

		switch c.Type {
		case html.ElementNode:
			filter(c)
			to, ok := allowed[c.DataAtom]
			if c.DataAtom == atom.Li && parent.DataAtom != atom.Ul {
				ok = false
			}
			if ok {
				c.DataAtom = to
				c.Data = to.String()
				c.Attr = nil
				c.Namespace = ""
			} else {
				next = unwrap(c)
			}
		case html.TextNode:
		default:
			parent.RemoveChild(c)
		}

		c = next
	}
}

// unwrap hoists n's children in its place and returns n's former next
// sibling. The hoisted children must already be filtered.
func unwrap(n *html.Node) *html.Node {
	parent := n.Parent
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	after := n.NextSibling
	parent.RemoveChild(n)
	return after
}

// isBlock reports whether n is, or wraps, a paragraph or list. Such nodes
// cannot sit inside a <p> without the parser splitting it on the next pass.
func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.DataAtom == atom.P || n.DataAtom == atom.Ul {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlock(c) {
			return true
		}
	}
	return false
}

// reflow groups top-level inline content into <p> elements, starting a new
// paragraph at every blank line inside bare text and at every <br><br>.
func reflow(root *html.Node) {
	var children []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if last := len(children) - 1; last >= 0 && c.Type == html.TextNode && children[last].Type == html.TextNode {
			children[last].Data += c.Data
			continue
		}
		children = append(children, c)
	}
	for c := root.FirstChild; c != nil; c = root.FirstChild {
		root.RemoveChild(c)
	}

	para := newParagraph()
	flush := func() {
		if finishParagraph(para) {
			root.AppendChild(para)
		}
		para = newParagraph()
	}

	for _, c := range children {
		switch {
		case isBlock(c):
			flush()
			root.AppendChild(c)
		case c.Type == html.TextNode:
			parts := blankLine.Split(c.Data, -1)
			for i, part := range parts {
				if i > 0 {
					flush()
				}
				if part != "" {
					para.AppendChild(&html.Node{Type: html.TextNode, Data: part})
				}
			}
		case isBr(c) && endsWithBr(para):
			flush()
		default:
			para.AppendChild(c)
		}
	}
	flush()
}

func isBr(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Br
}

func endsWithBr(p *html.Node) bool {
	for c := p.LastChild; c != nil; c = c.PrevSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		return isBr(c)
	}
	return false
}

func newParagraph() *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: atom.P, Data: "p"}
}

// finishParagraph trims surrounding whitespace and line breaks and reports
// whether anything is left.
func finishParagraph(p *html.Node) bool {
	for {
		last := p.LastChild
		if last == nil {
			return false
		}
		if isBr(last) {
			p.RemoveChild(last)
			continue
		}
		if last.Type == html.TextNode {
			last.Data = strings.TrimRight(last.Data, " \t\r\n")
			if last.Data == "" {
				p.RemoveChild(last)
				continue
			}
		}
		break
	}

	for {
		first := p.FirstChild
		if first == nil {
			return false
		}
		if isBr(first) {
			p.RemoveChild(first)
			continue
		}
		if first.Type == html.TextNode {
			first.Data = strings.TrimLeft(first.Data, " \t\r\n")
			if first.Data == "" {
				p.RemoveChild(first)
				continue
			}
		}
		break
	}

	return p.FirstChild != nil
}

// stripLeadingHeader drops empty nodes, line breaks and a date caption such
// as "Lundi 3 mars 2025" from the start of the fragment.
func (n *Normalizer) stripLeadingHeader(root *html.Node) {
	for first := root.FirstChild; first != nil; first = root.FirstChild {
		if isBr(first) {
			root.RemoveChild(first)
			continue
		}

		text := strings.TrimSpace(textContent(first))
		if text == "" {
			root.RemoveChild(first)
			continue
		}

		if n.lexicon.StartsWithWeekday(text) && headerDate.MatchString(text) {
			root.RemoveChild(first)
			continue
		}

		return
	}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
