// Package extract reads document files and returns their text with paragraph breaks kept
// as blank lines, so downstream chunking on "\n\n" sees one paragraph per chunk.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidEncoding is returned for plain text files that are not valid UTF-8.
var ErrInvalidEncoding = errors.New("file is not valid UTF-8")

// paragraphSep separates paragraphs, pages, slides and sheets in extracted text.
const paragraphSep = "\n\n"

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Plain text files (.txt, .md, .rst and unknown extensions) must be valid UTF-8.
// PDF, DOCX, XLSX, PPTX, ODT, ODP, ODS and RTF are converted to text first.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".pptx":
		return extractPPTX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".odt", ".odp", ".ods":
		return extractOpenDocument(content)
	case ".rtf":
		return extractRTF(content)
	default:
		return extractPlain(content)
	}
}
