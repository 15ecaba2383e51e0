package share

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/harshithareddy1810/SmartDocQ/internal/api"
)

// pageData holds the data passed to the HTML template.
type pageData struct {
	Filename  string
	CreatedAt string
	Messages  []messageData
}

type messageData struct {
	Role    string
	Time    string
	Content template.HTML
}

var pageTemplate = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Filename}} - SmartDocQ</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; color: #1f2328; }
  header { border-bottom: 1px solid #d0d7de; padding-bottom: 1rem; margin-bottom: 1.5rem; }
  header h1 { font-size: 1.3rem; margin: 0 0 0.25rem; }
  header .meta { color: #656d76; font-size: 0.85rem; }
  .message { margin-bottom: 1rem; padding: 0.75rem 1rem; border-radius: 8px; }
  .message.user { background: #ddf4ff; }
  .message.assistant { background: #f6f8fa; }
  .message .who { font-weight: 600; font-size: 0.8rem; color: #656d76; margin-bottom: 0.25rem; }
  .message pre { background: #1f2328; color: #f6f8fa; padding: 0.75rem; border-radius: 6px; overflow-x: auto; }
  .message code { font-size: 0.9em; }
</style>
</head>
<body>
<header>
  <h1>{{.Filename}}</h1>
  <div class="meta">Shared conversation{{if .CreatedAt}} &middot; {{.CreatedAt}}{{end}}</div>
</header>
{{range .Messages}}<div class="message {{.Role}}">
  <div class="who">{{.Role}}{{if .Time}} &middot; {{.Time}}{{end}}</div>
  <div class="content">{{.Content}}</div>
</div>
{{end}}</body>
</html>
`))

var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// RenderMarkdown converts markdown to an HTML fragment with the same
// pipeline used for shared conversation pages.
func RenderMarkdown(src string) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderHTML renders a shared conversation as a standalone HTML page.
// Assistant answers are treated as markdown; user questions are shown
// as plain text.
func RenderHTML(sc *api.SharedConversation) ([]byte, error) {
	data := pageData{
		Filename:  sc.Filename,
		CreatedAt: sc.CreatedAt,
	}

	for _, m := range sc.Conversation {
		md := messageData{Role: m.Role, Time: m.Time}
		if m.Role == api.RoleAssistant {
			var buf bytes.Buffer
			if err := markdown.Convert([]byte(m.Content), &buf); err != nil {
				return nil, fmt.Errorf("rendering answer markdown: %w", err)
			}
			md.Content = template.HTML(buf.String())
		} else {
			md.Content = template.HTML(template.HTMLEscapeString(m.Content))
		}
		data.Messages = append(data.Messages, md)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering share page: %w", err)
	}
	return buf.Bytes(), nil
}
