package html

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// nonContent lists elements whose text is never indexed.
const nonContent = "head, script, style, noscript, svg, template, iframe"

// blockElements start and end on their own line.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"header": true, "footer": true, "nav": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "dl": true, "dt": true, "dd": true,
	"table": true, "tr": true, "blockquote": true, "pre": true,
	"figure": true, "figcaption": true, "form": true,
}

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts an HTML document to plain text on a single page.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, domain.ErrInvalidInput
	}

	meta := map[string]any{"format": "html"}
	if lang, ok := doc.Find("html").Attr("lang"); ok && lang != "" {
		meta["language"] = lang
	}
	if author, ok := doc.Find("meta[name='author']").Attr("content"); ok && author != "" {
		meta["author"] = strings.TrimSpace(author)
	}

	title := extractTitle(doc, raw.FileName)
	content := documentText(doc)

	extracted := &domain.ExtractedDocument{Title: title, Metadata: meta}
	if content != "" {
		extracted.Pages = []domain.PageText{{Number: 1, Text: content}}
	}
	return extracted, nil
}

// extractTitle prefers <title>, then the first <h1>, then the file name.
func extractTitle(doc *goquery.Document, fileName string) string {
	if title := collapse(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := collapse(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}

	name := filepath.Base(fileName)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}

// stripHTML returns the readable text of an HTML fragment or page.
func stripHTML(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}
	return documentText(doc)
}

func documentText(doc *goquery.Document) string {
	doc.Find(nonContent).Remove()

	var b strings.Builder
	collectText(doc.Selection, &b)

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = collapse(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// collectText writes the text below s, breaking lines around block elements.
func collectText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(c.Text())
		case name == "#comment", name == "img":
		case name == "br", name == "hr":
			b.WriteString("\n")
		case name == "td", name == "th":
			b.WriteString(" ")
			collectText(c, b)
			b.WriteString(" ")
		case blockElements[name]:
			b.WriteString("\n")
			collectText(c, b)
			b.WriteString("\n")
		default:
			collectText(c, b)
		}
	})
}

// collapse trims and squeezes internal whitespace to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
