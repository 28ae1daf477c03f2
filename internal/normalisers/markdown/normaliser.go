// Package markdown provides a Normaliser for Markdown documents. The
// source is parsed with goldmark and reduced to the text of its blocks.
package markdown

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{md: goldmark.New()}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document to plain text on a single page.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.ExtractedDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content, title := n.stripMarkdown(raw.Content)
	if title == "" {
		title = titleFromFileName(raw.FileName)
	}

	doc := &domain.ExtractedDocument{
		Title:    title,
		Metadata: map[string]any{"format": "markdown"},
	}
	if content != "" {
		doc.Pages = []domain.PageText{{Number: 1, Text: content}}
	}
	return doc, nil
}

// stripMarkdown returns the text of every block, one block per line, and
// the text of the first level-one heading. Code blocks, raw HTML and
// images are dropped.
func (n *Normaliser) stripMarkdown(source []byte) (string, string) {
	root := n.md.Parser().Parse(text.NewReader(source))

	var blocks []string
	var title string
	_ = ast.Walk(root, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch b := node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			line := inlineText(b, source)
			if title == "" && b.Level == 1 {
				title = line
			}
			blocks = appendBlock(blocks, line)
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			blocks = appendBlock(blocks, inlineText(b, source))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(blocks, "\n"), title
}

// inlineText concatenates the inline text below a block node.
func inlineText(block ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(block, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch in := node.(type) {
		case *ast.Image, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			b.Write(in.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.String:
			b.Write(in.Value)
		case *ast.Text:
			b.Write(in.Segment.Value(source))
			if in.HardLineBreak() {
				b.WriteByte('\n')
			} else if in.SoftLineBreak() {
				b.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// appendBlock collapses runs of spaces within each line and drops empty blocks.
func appendBlock(blocks []string, block string) []string {
	lines := strings.Split(block, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return blocks
	}
	return append(blocks, strings.Join(kept, "\n"))
}

func titleFromFileName(fileName string) string {
	name := filepath.Base(fileName)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
