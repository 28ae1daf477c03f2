// Package ooxml reads the parts of Office Open XML packages (DOCX, PPTX)
// shared by their normalisers.
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docsift/internal/core/domain"
)

// maxPartSize bounds a single decompressed part.
const maxPartSize = 64 << 20

// Package is an opened OOXML archive.
type Package struct {
	zr *zip.Reader
}

// Open parses content as a zip archive.
func Open(content []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not an office document: %w", domain.ErrInvalidInput, err)
	}
	return &Package{zr: zr}, nil
}

// Files returns the names of all parts.
func (p *Package) Files() []string {
	names := make([]string, 0, len(p.zr.File))
	for _, f := range p.zr.File {
		names = append(names, f.Name)
	}
	return names
}

// Read returns the content of the named part.
// Returns domain.ErrNotFound if the part does not exist.
func (p *Package) Read(name string) ([]byte, error) {
	for _, f := range p.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", domain.ErrInvalidInput, name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", domain.ErrInvalidInput, name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("part %s: %w", name, domain.ErrNotFound)
}

// coreXML represents the structure of docProps/core.xml.
type coreXML struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
}

// CoreProperties returns the title and author recorded in docProps/core.xml.
// Missing or malformed properties yield empty strings.
func (p *Package) CoreProperties() (title, author string) {
	data, err := p.Read("docProps/core.xml")
	if err != nil {
		return "", ""
	}
	var core coreXML
	if err := xml.Unmarshal(data, &core); err != nil {
		return "", ""
	}
	return strings.TrimSpace(core.Title), strings.TrimSpace(core.Creator)
}

// TitleFromFileName derives a readable title from a file name.
func TitleFromFileName(fileName string) string {
	name := filepath.Base(fileName)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}

// Metadata builds the extracted metadata map for a format.
func Metadata(format, author string) map[string]any {
	meta := map[string]any{"format": format}
	if author != "" {
		meta["author"] = author
	}
	return meta
}
