package extract

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// textRule says which XML elements delimit paragraphs and which hold text.
// When textElems is nil, all character data inside a paragraph is kept.
type textRule struct {
	paraElems map[string]bool
	textElems map[string]bool
}

var (
	// WordprocessingML and DrawingML: <w:p>/<a:p> paragraphs with <w:t>/<a:t> runs.
	ooxmlRule = textRule{
		paraElems: map[string]bool{"p": true},
		textElems: map[string]bool{"t": true},
	}
	// OpenDocument: <text:p> and <text:h>, with nested spans.
	odfRule = textRule{
		paraElems: map[string]bool{"p": true, "h": true},
	}
)

// xmlParagraphs streams an XML document and returns the non-empty paragraphs it contains.
// Element names are matched on their local part only.
func xmlParagraphs(r io.Reader, rule textRule) ([]string, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.Entity = xml.HTMLEntity

	var (
		paras     []string
		cur       strings.Builder
		paraDepth int
		textDepth int
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			paras = append(paras, s)
		}
		cur.Reset()
	}

	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case rule.paraElems[name]:
				paraDepth++
			case rule.textElems[name]:
				textDepth++
			case paraDepth > 0 && name == "tab":
				cur.WriteByte(' ')
			case paraDepth > 0 && (name == "br" || name == "line-break"):
				cur.WriteByte('\n')
			case paraDepth > 0 && name == "s":
				cur.WriteByte(' ')
			}
		case xml.EndElement:
			name := t.Name.Local
			switch {
			case rule.paraElems[name] && paraDepth > 0:
				paraDepth--
				if paraDepth == 0 {
					flush()
				}
			case rule.textElems[name] && textDepth > 0:
				textDepth--
			}
		case xml.CharData:
			if paraDepth == 0 {
				continue
			}
			if rule.textElems == nil || textDepth > 0 {
				cur.Write(t)
			}
		}
	}
	flush()
	return paras, nil
}
