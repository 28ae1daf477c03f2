// Package pptx provides a Normaliser for PowerPoint presentations.
// Each slide becomes one page, numbered by its position in the deck.
package pptx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/normalisers/ooxml"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var slidePart = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Normaliser handles PPTX documents.
type Normaliser struct{}

// New creates a new PPTX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every slide in deck order.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	pkg, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, err
	}

	doc := &domain.ExtractedDocument{}
	for i, name := range slideParts(pkg.Files()) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := pkg.Read(name)
		if err != nil {
			return nil, err
		}
		text, err := parseSlideXML(data)
		if err != nil {
			return nil, err
		}
		if text == "" {
			continue
		}
		doc.Pages = append(doc.Pages, domain.PageText{Number: i + 1, Text: text})
	}

	title, author := pkg.CoreProperties()
	if title == "" && len(doc.Pages) > 0 {
		title, _, _ = strings.Cut(doc.Pages[0].Text, "\n")
	}
	if title == "" {
		title = ooxml.TitleFromFileName(raw.FileName)
	}
	doc.Title = title
	doc.Metadata = ooxml.Metadata("pptx", author)
	doc.Metadata["slide_count"] = len(slideParts(pkg.Files()))
	return doc, nil
}

// slideParts returns slide part names sorted by slide number.
func slideParts(files []string) []string {
	type part struct {
		name string
		num  int
	}
	var parts []part
	for _, f := range files {
		m := slidePart.FindStringSubmatch(f)
		if m == nil {
			continue
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		parts = append(parts, part{name: f, num: num})
	}
	sort.Slice(parts, func(i, j int) bool {
		return parts[i].num < parts[j].num
	})

	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = p.name
	}
	return names
}

// parseSlideXML collects the text runs of a slide, one line per paragraph.
func parseSlideXML(content []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var lines []string
	var para strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", domain.ErrInvalidInput
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "br":
				para.WriteString(" ")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(para.String()); line != "" {
					lines = append(lines, line)
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
