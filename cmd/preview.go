package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
	"github.com/harshithareddy1810/SmartDocQ/internal/preview"
	"github.com/harshithareddy1810/SmartDocQ/internal/share"
)

var (
	previewOut    string
	previewExport string
)

var previewCmd = &cobra.Command{
	Use:   "preview <doc-id>",
	Short: "Show a text rendition of a document",
	Long: `Render a document for the terminal.

Images and unknown formats print their raw URL; PDFs print extracted
text; Word documents are converted to markdown; plain text documents
print the extracted text. With --out the rendition is written to a
file instead of stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewOut, "out", "", "write the rendition to a file")
	previewCmd.Flags().StringVar(&previewExport, "export", "", "write an HTML rendition to a file")
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	docID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, client, err := newSession(cfg)
	if err != nil {
		return err
	}
	if err := requireAuth(cmd.Context(), store, client); err != nil {
		return err
	}

	doc, err := client.Document(cmd.Context(), docID)
	if err != nil {
		return fmt.Errorf("loading document %d: %w", docID, err)
	}

	resolver := preview.NewResolver(client)
	resolver.ShowProgress = previewOut == "" && previewExport == ""
	p, err := resolvePreview(cmd.Context(), resolver, doc)
	if err != nil {
		return err
	}

	if previewExport != "" {
		page, err := share.RenderMarkdown(previewBody(p))
		if err != nil {
			return err
		}
		if err := os.WriteFile(previewExport, page, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", previewExport, err)
		}
		fmt.Printf("Wrote HTML rendition to %s\n", previewExport)
		return nil
	}
	if previewOut != "" {
		if err := os.WriteFile(previewOut, []byte(previewBody(p)), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", previewOut, err)
		}
		fmt.Printf("Wrote %s rendition to %s\n", p.Kind, previewOut)
		return nil
	}

	printResolved(p)
	return nil
}

// resolvePreview makes doc current and blocks until any asynchronous
// resolve settles. The change callback is registered before the resolve
// starts.
func resolvePreview(ctx context.Context, r *preview.Resolver, doc *api.Document) (preview.Preview, error) {
	changed := make(chan struct{}, 1)
	r.OnChange = func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}
	r.SetDocument(ctx, doc.ID, doc.Filename, doc.Text)

	deadline := time.After(2 * time.Minute)
	for {
		p := r.Preview()
		if !p.Pending {
			return p, nil
		}
		select {
		case <-changed:
		case <-deadline:
			return preview.Preview{}, fmt.Errorf("preview did not resolve in time")
		}
	}
}

// previewBody returns the printable rendition of a resolved preview.
func previewBody(p preview.Preview) string {
	switch p.Kind {
	case preview.KindDocx:
		if p.Markup != "" {
			return p.Markup
		}
		return p.Text
	case preview.KindPDF, preview.KindText:
		if p.Text != "" {
			return p.Text
		}
		return p.URL
	default:
		return p.URL
	}
}

func printResolved(p preview.Preview) {
	switch p.Kind {
	case preview.KindImage:
		fmt.Printf("Image: %s\n", p.URL)
	case preview.KindDownload:
		fmt.Printf("No inline preview; download from %s\n", p.URL)
	default:
		fmt.Println(previewBody(p))
	}
}

// printPreview resolves and prints the preview inside a chat session.
func printPreview(ctx context.Context, r *preview.Resolver, doc *api.Document) {
	p, err := resolvePreview(ctx, r, doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	printResolved(p)
}
