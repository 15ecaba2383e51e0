package preview

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// ConvertDocx converts the body of a .docx archive into markdown-ish
// markup: headings, list items and plain paragraphs. Character-level
// formatting is dropped; the goal is a readable preview, not fidelity.
func ConvertDocx(r io.ReaderAt, size int64) (string, error) {
	archive, err := zip.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("opening docx archive: %w", err)
	}

	var docFile *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", fmt.Errorf("docx archive has no word/document.xml")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("opening document body: %w", err)
	}
	defer rc.Close()

	return convertDocumentXML(rc)
}

// convertDocumentXML streams WordprocessingML and emits one markup line
// per paragraph.
func convertDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var out strings.Builder
	var para strings.Builder
	var style string
	listItem := false

	flush := func() {
		text := strings.TrimRight(para.String(), " \t")
		para.Reset()
		defer func() { style = ""; listItem = false }()
		if text == "" {
			return
		}
		switch {
		case strings.HasPrefix(style, "Heading"):
			level := 1
			if n := style[len("Heading"):]; len(n) == 1 && n[0] >= '1' && n[0] <= '6' {
				level = int(n[0] - '0')
			}
			out.WriteString(strings.Repeat("#", level) + " " + text + "\n\n")
		case listItem:
			out.WriteString("- " + text + "\n")
		default:
			out.WriteString(text + "\n\n")
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing document body: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "pStyle":
				for _, attr := range el.Attr {
					if attr.Name.Local == "val" {
						style = attr.Value
					}
				}
			case "numPr":
				listItem = true
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &el); err != nil {
					return "", fmt.Errorf("parsing text run: %w", err)
				}
				para.WriteString(text)
			case "tab":
				para.WriteString("\t")
			case "br":
				para.WriteString("\n")
			}
		case xml.EndElement:
			if el.Name.Local == "p" {
				flush()
			}
		}
	}
	flush()

	markup := strings.TrimRight(out.String(), "\n")
	if markup == "" {
		return "", fmt.Errorf("document body is empty")
	}
	return markup + "\n", nil
}
