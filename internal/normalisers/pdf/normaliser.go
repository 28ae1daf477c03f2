// Package pdf provides a Normaliser for PDF documents that extracts text
// page by page.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
	"github.com/custodia-labs/docsift/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxTitleLength rejects lines too long to be a title.
const maxTitleLength = 200

// ErrUnreadablePDF is returned when the bytes cannot be parsed as a PDF.
var ErrUnreadablePDF = errors.New("unreadable pdf")

// PageSource exposes the pages of a parsed PDF.
type PageSource interface {
	// NumPage returns the number of pages.
	NumPage() int

	// PageText returns the plain text of the 1-based page.
	PageText(page int) (string, error)

	// Title returns the document info title, empty if absent.
	Title() string
}

// Opener parses raw bytes into a PageSource.
type Opener func(content []byte) (PageSource, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	open Opener
}

// New creates a new PDF normaliser backed by ledongthuc/pdf.
func New() *Normaliser {
	return &Normaliser{open: openReader}
}

// NewWithOpener creates a PDF normaliser with a custom parser (for testing).
func NewWithOpener(open Opener) *Normaliser {
	return &Normaliser{open: open}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every non-empty page. Pages that fail to
// decode are logged and skipped; a PDF with no readable page is an error.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	src, err := n.open(raw.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	var pages []domain.PageText
	total := src.NumPage()
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := src.PageText(i)
		if err != nil {
			logger.Warn("pdf %s: page %d unreadable: %v", raw.FileName, i, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		pages = append(pages, domain.PageText{Number: i, Text: text})
	}
	if total > 0 && len(pages) == 0 {
		logger.Debug("pdf %s: no text on %d pages", raw.FileName, total)
	}

	title := strings.TrimSpace(src.Title())
	if title == "" && len(pages) > 0 {
		title = extractTitle(pages[0].Text, raw.FileName)
	} else if title == "" {
		title = extractTitle("", raw.FileName)
	}

	return &domain.ExtractedDocument{
		Title: title,
		Pages: pages,
		Metadata: map[string]any{
			"format":      "pdf",
			"total_pages": total,
		},
	}, nil
}

// extractTitle uses the first short non-empty line, else the file name.
func extractTitle(content, fileName string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) <= maxTitleLength && !isBinary(line) {
			return line
		}
	}

	name := filepath.Base(fileName)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}

func isBinary(s string) bool {
	return strings.ContainsRune(s, 0)
}

// reader adapts ledongthuc/pdf to PageSource.
type reader struct {
	r *pdf.Reader
}

func openReader(content []byte) (src PageSource, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("%w: %v", ErrUnreadablePDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadablePDF, err)
	}
	return &reader{r: r}, nil
}

func (p *reader) NumPage() int {
	return p.r.NumPage()
}

func (p *reader) PageText(page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: page %d: %v", ErrUnreadablePDF, page, r)
		}
	}()

	pg := p.r.Page(page)
	if pg.V.IsNull() {
		return "", nil
	}
	return pg.GetPlainText(nil)
}

func (p *reader) Title() string {
	info := p.r.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return info.Key("Title").Text()
}
