package chat

import (
	"bytes"

	"github.com/yuin/goldmark"
)

// renderMarkdown converts model output to HTML for presentation. Replies to
// image requests are rendered; plain chat turns are returned raw so the
// front-end can stream them as text.
func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return text
	}
	return buf.String()
}
