package extract

import (
	"fmt"
	"strings"
)

const odfContentPath = "content.xml"

// extractOpenDocument handles .odt, .odp and .ods. All three keep their body in content.xml,
// with text in <text:p> and <text:h> elements.
func extractOpenDocument(content []byte) (string, error) {
	zr, err := openZip(content, "OpenDocument")
	if err != nil {
		return "", err
	}
	f := findZipFile(zr, odfContentPath)
	if f == nil {
		return "", fmt.Errorf("extract OpenDocument: %s not found", odfContentPath)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: open %s: %w", f.Name, err)
	}
	defer rc.Close()
	paras, err := xmlParagraphs(rc, odfRule)
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: %w", err)
	}
	return strings.Join(paras, paragraphSep), nil
}
