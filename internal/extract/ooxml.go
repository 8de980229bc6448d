package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const (
	docxDocumentXMLPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	pptxSlidePathPrefix = "ppt/slides/slide"
)

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

func openZip(content []byte, format string) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract %s: not a zip: %w", format, err)
	}
	return zr, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// docxMainPart returns the main document part named in [Content_Types].xml, or the default path.
func docxMainPart(zr *zip.Reader) string {
	f := findZipFile(zr, contentTypesPath)
	if f == nil {
		return docxDocumentXMLPath
	}
	data, err := readZipFile(f)
	if err != nil {
		return docxDocumentXMLPath
	}
	var ct contentTypes
	if err := xml.Unmarshal(data, &ct); err != nil {
		return docxDocumentXMLPath
	}
	for _, o := range ct.Overrides {
		if o.ContentType == docxMainContentType {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return docxDocumentXMLPath
}

// extractDOCX returns one paragraph per <w:p>, separated by blank lines.
func extractDOCX(content []byte) (string, error) {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return "", err
	}
	docPath := docxMainPart(zr)
	f := findZipFile(zr, docPath)
	if f == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docPath)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	paras, err := xmlParagraphs(rc, ooxmlRule)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	return strings.Join(paras, paragraphSep), nil
}

// extractPPTX returns slide text in slide order; each paragraph on a slide becomes its own block.
func extractPPTX(content []byte) (string, error) {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return "", err
	}
	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, pptxSlidePathPrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, pptxSlidePathPrefix), ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, slide{n: n, f: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	var all []string
	for _, s := range slides {
		rc, err := s.f.Open()
		if err != nil {
			return "", fmt.Errorf("extract PPTX: open %s: %w", s.f.Name, err)
		}
		paras, err := xmlParagraphs(rc, ooxmlRule)
		_ = rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract PPTX: %s: %w", s.f.Name, err)
		}
		all = append(all, paras...)
	}
	return strings.Join(all, paragraphSep), nil
}
