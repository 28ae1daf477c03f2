package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsift/internal/core/domain"
	"github.com/custodia-labs/docsift/internal/core/ports/driven"
)

func rawHTML(name, content string) *domain.RawDocument {
	return &domain.RawDocument{FileName: name, MIMEType: "text/html", Content: []byte(content)}
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()
	assert.ElementsMatch(t, []string{"text/html", "application/xhtml+xml"}, mimeTypes)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_Success(t *testing.T) {
	content := `<html lang="en"><head><title>Test Page</title>
<meta name="author" content="Policy Team"></head>
<body><h1>Hello</h1><p>This is a test.</p></body></html>`

	doc, err := New().Normalise(context.Background(), rawHTML("page.html", content))
	require.NoError(t, err)

	assert.Equal(t, "Test Page", doc.Title)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "Hello\nThis is a test.", doc.Pages[0].Text)
	assert.Equal(t, "html", doc.Metadata["format"])
	assert.Equal(t, "en", doc.Metadata["language"])
	assert.Equal(t, "Policy Team", doc.Metadata["author"])
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_EmptyContent(t *testing.T) {
	doc, err := New().Normalise(context.Background(), rawHTML("empty.html", ""))
	require.NoError(t, err)
	assert.Empty(t, doc.Pages)
	assert.Equal(t, "empty", doc.Title)
}

func TestNormalise_TitleExtraction(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		fileName      string
		expectedTitle string
	}{
		{"title tag", "<html><head><title>My Page</title></head></html>", "page.html", "My Page"},
		{"title with entities", "<title>Tom &amp; Jerry</title>", "page.html", "Tom & Jerry"},
		{"title whitespace collapsed", "<title>\n  Spaced   Title \n</title>", "page.html", "Spaced Title"},
		{"first h1 when no title", "<body><h1>Heading One</h1><h1>Two</h1></body>", "page.html", "Heading One"},
		{"fallback to filename", "<p>No title</p>", "my_web-page.html", "my web page"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := New().Normalise(context.Background(), rawHTML(tc.fileName, tc.content))
			require.NoError(t, err)
			assert.Equal(t, tc.expectedTitle, doc.Title)
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple paragraph", "<p>Hello World</p>", "Hello World"},
		{"nested tags", "<div><p><strong>Bold</strong> text</p></div>", "Bold text"},
		{"script removed", "<p>Before</p><script>alert('evil');</script><p>After</p>", "Before\nAfter"},
		{"style removed", "<style>.foo { color: red; }</style><p>Content</p>", "Content"},
		{"noscript removed", "<p>Content</p><noscript>No JS fallback</noscript>", "Content"},
		{"head removed", "<head><meta charset='utf-8'><title>Title</title></head><body>Content</body>", "Content"},
		{"br to newline", "Line 1<br>Line 2<br/>Line 3", "Line 1\nLine 2\nLine 3"},
		{"block elements create newlines", "<div>Block 1</div><div>Block 2</div>", "Block 1\nBlock 2"},
		{"HTML entities decoded", "<p>&lt;tag&gt; &amp; &quot;quotes&quot;</p>", "<tag> & \"quotes\""},
		{"comments removed", "<p>Before</p><!-- comment --><p>After</p>", "Before\nAfter"},
		{"list items", "<ul><li>Item 1</li><li>Item 2</li></ul>", "Item 1\nItem 2"},
		{"headings", "<h1>Title</h1><h2>Subtitle</h2><p>Content</p>", "Title\nSubtitle\nContent"},
		{"links - text preserved", `<a href="https://example.com">Click here</a>`, "Click here"},
		{"images removed", `<p>See <img src="image.png" alt="Image"> here</p>`, "See here"},
		{"table cells separated", "<table><tr><td>Cell 1</td><td>Cell 2</td></tr></table>", "Cell 1 Cell 2"},
		{"svg removed", `<p>Before</p><svg width="100"><circle cx="50"/></svg><p>After</p>`, "Before\nAfter"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripHTML(tc.input))
		})
	}
}

func TestNormalise_ComplexHTML(t *testing.T) {
	complexHTML := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>Complex Page</title>
    <style>
        body { font-family: Arial; }
    </style>
</head>
<body>
    <header>
        <h1>Main Title</h1>
    </header>
    <main>
        <article>
            <h2>Article Title</h2>
            <p>This is a <strong>paragraph</strong> with <em>emphasis</em>.</p>
            <ul>
                <li>First item</li>
                <li>Second item</li>
            </ul>
        </article>
    </main>
    <script>
        console.log('This should be removed');
    </script>
    <!-- This is a comment that should be removed -->
    <footer>
        <p>&copy; 2024 Example Corp</p>
    </footer>
</body>
</html>`

	doc, err := New().Normalise(context.Background(), rawHTML("complex.html", complexHTML))
	require.NoError(t, err)

	assert.Equal(t, "Complex Page", doc.Title)
	text := doc.FullText()
	assert.Contains(t, text, "This is a paragraph with emphasis.")
	assert.NotContains(t, text, "console.log")
	assert.NotContains(t, text, "font-family")
	assert.NotContains(t, text, "<!--")
	assert.Contains(t, text, "Main Title")
	assert.Contains(t, text, "First item\nSecond item")
	assert.Contains(t, text, "© 2024 Example Corp")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
