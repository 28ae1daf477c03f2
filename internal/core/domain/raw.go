package domain

// RawDocument represents opaque bytes handed to ingestion.
// It is the input before extraction.
type RawDocument struct {
	// FileName is the original file name including extension.
	FileName string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte
}

// PageText is the text of one page of an extracted document.
type PageText struct {
	// Number is the 1-based page number.
	Number int

	// Text is the extracted page text.
	Text string
}

// ExtractedDocument is the output of an extractor.
type ExtractedDocument struct {
	// Title is the document title, if one could be found.
	Title string

	// Pages holds the per-page text in page order.
	// Formats without pages produce a single page.
	Pages []PageText

	// Metadata carries format-specific values such as author.
	Metadata map[string]any
}

// FullText joins all pages separated by blank lines.
func (e *ExtractedDocument) FullText() string {
	if e == nil || len(e.Pages) == 0 {
		return ""
	}
	n := 0
	for _, p := range e.Pages {
		n += len(p.Text) + 2
	}
	buf := make([]byte, 0, n)
	for i, p := range e.Pages {
		if i > 0 {
			buf = append(buf, '\n', '\n')
		}
		buf = append(buf, p.Text...)
	}
	return string(buf)
}

// PageCount returns the number of pages.
func (e *ExtractedDocument) PageCount() int {
	if e == nil {
		return 0
	}
	return len(e.Pages)
}
