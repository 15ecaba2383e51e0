package preview

import (
	"path/filepath"
	"strings"
)

// Kind is the closed set of preview strategies. Exactly one is selected
// per document, by filename suffix, in a fixed priority order.
type Kind int

const (
	// KindImage renders the raw upload URL as media.
	KindImage Kind = iota
	// KindPDF points a viewer at the document URL; a text rendition is
	// extracted for terminal display when possible.
	KindPDF
	// KindDocx fetches the raw bytes and converts them to markup.
	KindDocx
	// KindText renders literal extracted text.
	KindText
	// KindDownload is the fallback: a downloadable link only.
	KindDownload
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPDF:
		return "pdf"
	case KindDocx:
		return "docx"
	case KindText:
		return "text"
	default:
		return "download"
	}
}

// Preview is the displayable representation of a document.
type Preview struct {
	Kind   Kind
	URL    string // raw upload URL: media source, viewer target, or download link
	Text   string // literal text for KindText, extracted text for KindPDF, fallback notices
	Markup string // converted markup for KindDocx
	// Pending marks an interim "rendering" state while an asynchronous
	// conversion is still running.
	Pending bool
}

// fallbackText is rendered in place of a DOCX preview whose conversion
// failed. The page never crashes over a malformed document.
const fallbackText = "Failed to render document."

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".webp": true,
}

// Classify selects the preview strategy for a filename. hasText reports
// whether the backend extracted literal text for the document, which
// promotes otherwise unknown formats to a text preview.
func Classify(filename string, hasText bool) Kind {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case imageExts[ext]:
		return KindImage
	case ext == ".pdf":
		return KindPDF
	case ext == ".docx":
		return KindDocx
	case ext == ".txt" || hasText:
		return KindText
	default:
		return KindDownload
	}
}
