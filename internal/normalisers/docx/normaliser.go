// Package docx provides a Normaliser for Word documents. Explicit page
// breaks split the text into pages; a document without them is one page.
package docx

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/normalisers/ooxml"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser
}

// Normalise extracts the text of word/document.xml.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	pkg, err := ooxml.Open(raw.Content)
	if err != nil {
		return nil, err
	}

	var pages []string
	body, err := pkg.Read("word/document.xml")
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// A package without a body has no text.
	case err != nil:
		return nil, err
	default:
		pages, err = parseDocumentXML(body)
		if err != nil {
			return nil, err
		}
	}

	title, author := pkg.CoreProperties()
	if title == "" {
		title = ooxml.TitleFromFileName(raw.FileName)
	}

	doc := &domain.ExtractedDocument{
		Title:    title,
		Metadata: ooxml.Metadata("docx", author),
	}
	for i, text := range pages {
		if text == "" {
			continue
		}
		doc.Pages = append(doc.Pages, domain.PageText{Number: i + 1, Text: text})
	}
	return doc, nil
}

// parseDocumentXML walks the document body and returns the text of each
// page. Paragraphs are separated by newlines, tabs become spaces.
func parseDocumentXML(content []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))

	var pages []string
	var page, para strings.Builder
	inText := false

	flushPara := func() {
		text := strings.TrimSpace(para.String())
		para.Reset()
		if text == "" {
			return
		}
		if page.Len() > 0 {
			page.WriteString("\n")
		}
		page.WriteString(text)
	}
	flushPage := func() {
		flushPara()
		pages = append(pages, page.String())
		page.Reset()
	}

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.ErrInvalidInput
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteString(" ")
			case "br":
				if isPageBreak(t) {
					flushPage()
				} else {
					para.WriteString(" ")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flushPara()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flushPage()
	return pages, nil
}

func isPageBreak(el xml.StartElement) bool {
	for _, attr := range el.Attr {
		if attr.Name.Local == "type" && attr.Value == "page" {
			return true
		}
	}
	return false
}
