package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

const pptxMIME = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// createTestPPTX builds a deck whose parts are given by name.
func createTestPPTX(parts map[string]string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range parts {
		f, _ := w.Create(name)
		f.Write([]byte(content))
	}
	w.Close()
	return buf.Bytes()
}

func slide(paragraphs ...string) string {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"
xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody>`)
	for _, p := range paragraphs {
		b.WriteString(`<a:p><a:r><a:t>` + p + `</a:t></a:r></a:p>`)
	}
	b.WriteString(`</p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	return b.String()
}

func rawPPTX(name string, content []byte) *domain.RawDocument {
	return &domain.RawDocument{FileName: name, MIMEType: pptxMIME, Content: content}
}

func TestSupportedMIMETypes(t *testing.T) {
	assert.Equal(t, []string{pptxMIME}, New().SupportedMIMETypes())
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_SlidesInNumericOrder(t *testing.T) {
	content := createTestPPTX(map[string]string{
		"ppt/slides/slide10.xml":            slide("Tenth slide"),
		"ppt/slides/slide2.xml":             slide("Second slide"),
		"ppt/slides/slide1.xml":             slide("Quarterly Review", "Agenda"),
		"ppt/slides/_rels/slide1.xml.rels":  "<Relationships/>",
		"ppt/slideLayouts/slideLayout1.xml": slide("Layout placeholder"),
	})

	doc, err := New().Normalise(context.Background(), rawPPTX("deck.pptx", content))
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	assert.Equal(t, domain.PageText{Number: 1, Text: "Quarterly Review\nAgenda"}, doc.Pages[0])
	assert.Equal(t, domain.PageText{Number: 2, Text: "Second slide"}, doc.Pages[1])
	assert.Equal(t, domain.PageText{Number: 3, Text: "Tenth slide"}, doc.Pages[2])
	assert.Equal(t, "Quarterly Review", doc.Title)
	assert.Equal(t, "pptx", doc.Metadata["format"])
	assert.Equal(t, 3, doc.Metadata["slide_count"])
}

func TestNormalise_EmptySlideKeepsNumbering(t *testing.T) {
	content := createTestPPTX(map[string]string{
		"ppt/slides/slide1.xml": slide(),
		"ppt/slides/slide2.xml": slide("Only text"),
	})

	doc, err := New().Normalise(context.Background(), rawPPTX("deck.pptx", content))
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 2, doc.Pages[0].Number)
}

func TestNormalise_CoreTitle(t *testing.T) {
	content := createTestPPTX(map[string]string{
		"ppt/slides/slide1.xml": slide("Body"),
		"docProps/core.xml": `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Board Deck</dc:title></cp:coreProperties>`,
	})

	doc, err := New().Normalise(context.Background(), rawPPTX("deck.pptx", content))
	require.NoError(t, err)
	assert.Equal(t, "Board Deck", doc.Title)
}

func TestNormalise_NoSlidesFallsBackToFilename(t *testing.T) {
	content := createTestPPTX(map[string]string{"[Content_Types].xml": "<Types/>"})

	doc, err := New().Normalise(context.Background(), rawPPTX("q3_board-deck.pptx", content))
	require.NoError(t, err)
	assert.Empty(t, doc.Pages)
	assert.Equal(t, "q3 board deck", doc.Title)
}

func TestNormalise_Invalid(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Normalise(context.Background(), rawPPTX("x.pptx", []byte("nope")))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	content := createTestPPTX(map[string]string{"ppt/slides/slide1.xml": "<a:p><a:t>unclosed"})
	_, err = New().Normalise(context.Background(), rawPPTX("x.pptx", content))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
