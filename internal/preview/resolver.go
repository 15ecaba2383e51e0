package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Fetcher supplies raw document bytes and their public URLs.
// *api.Client satisfies it.
type Fetcher interface {
	Upload(ctx context.Context, filename string) (io.ReadCloser, int64, error)
	UploadURL(filename string) string
}

// Resolver maps the current document to a displayable Preview. Heavy
// formats resolve asynchronously; a resolve started for one document
// commits its result only if that document is still the current one,
// so a slow fetch for document A can never overwrite document B.
type Resolver struct {
	mu       sync.Mutex
	fetcher  Fetcher
	docID    int64
	filename string
	text     string
	preview  Preview

	// ShowProgress draws a byte progress bar during raw fetches.
	ShowProgress bool
	// OnChange is invoked after the visible preview changes.
	OnChange func()

	// afterResolve is a test hook fired when an async resolve finishes,
	// whether committed or discarded as stale.
	afterResolve func(docID int64)
}

// NewResolver creates a resolver over the given fetcher.
func NewResolver(f Fetcher) *Resolver {
	return &Resolver{fetcher: f}
}

// Preview returns the current displayable representation.
func (r *Resolver) Preview() Preview {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.preview
}

// SetDocument makes the given document current and re-resolves its
// preview. Resolution is skipped when neither the filename nor the
// extracted text actually changed, so parent refreshes do not trigger
// redundant fetches of heavy formats.
func (r *Resolver) SetDocument(ctx context.Context, docID int64, filename, text string) {
	r.mu.Lock()
	if docID == r.docID && filename == r.filename && text == r.text {
		r.mu.Unlock()
		return
	}
	r.docID = docID
	r.filename = filename
	r.text = text

	url := r.fetcher.UploadURL(filename)
	switch Classify(filename, text != "") {
	case KindImage:
		r.preview = Preview{Kind: KindImage, URL: url}
	case KindText:
		display := text
		if display == "" {
			display = "No preview available for this document."
		}
		r.preview = Preview{Kind: KindText, Text: display}
	case KindDownload:
		r.preview = Preview{Kind: KindDownload, URL: url}
	case KindPDF:
		r.preview = Preview{Kind: KindPDF, URL: url, Pending: true}
		go r.resolvePDF(ctx, docID, filename, url)
	case KindDocx:
		r.preview = Preview{Kind: KindDocx, URL: url, Pending: true}
		go r.resolveDocx(ctx, docID, filename, url)
	}
	r.mu.Unlock()
	r.notify()
}

// resolveDocx fetches the raw bytes and converts them to markup. Any
// failure degrades to a readable fallback instead of propagating.
func (r *Resolver) resolveDocx(ctx context.Context, docID int64, filename, url string) {
	p := Preview{Kind: KindDocx, URL: url}

	data, err := r.fetchAll(ctx, filename)
	if err == nil {
		p.Markup, err = ConvertDocx(bytes.NewReader(data), int64(len(data)))
	}
	if err != nil {
		p.Text = fallbackText
	}
	r.commit(docID, p)
}

// resolvePDF extracts a text rendition for terminal display. The URL
// keeps working as the viewer target even when extraction fails.
func (r *Resolver) resolvePDF(ctx context.Context, docID int64, filename, url string) {
	p := Preview{Kind: KindPDF, URL: url}

	data, err := r.fetchAll(ctx, filename)
	if err == nil {
		p.Text, _ = ExtractPDFText(bytes.NewReader(data), int64(len(data)))
	}
	r.commit(docID, p)
}

// commit applies an async result only if its originating document is
// still current; stale results are discarded, not applied.
func (r *Resolver) commit(docID int64, p Preview) {
	r.mu.Lock()
	stale := r.docID != docID
	if !stale {
		r.preview = p
	}
	r.mu.Unlock()

	if r.afterResolve != nil {
		r.afterResolve(docID)
	}
	if !stale {
		r.notify()
	}
}

// fetchAll downloads the full raw document.
func (r *Resolver) fetchAll(ctx context.Context, filename string) ([]byte, error) {
	rc, size, err := r.fetcher.Upload(ctx, filename)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var buf bytes.Buffer
	var dst io.Writer = &buf
	if r.ShowProgress && size > 0 {
		bar := progressbar.DefaultBytes(size, "Fetching "+filename)
		dst = io.MultiWriter(&buf, bar)
	}
	if _, err := io.Copy(dst, rc); err != nil {
		return nil, fmt.Errorf("downloading %s: %w", filename, err)
	}
	return buf.Bytes(), nil
}

func (r *Resolver) notify() {
	if r.OnChange != nil {
		r.OnChange()
	}
}
