package mail

import (
	"html"
	"regexp"
	"strings"
)

var (
	lineBreakTag = regexp.MustCompile(`(?i)<br\s*/?>`)
	paragraphEnd = regexp.MustCompile(`(?i)</p>`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)

	// Only these entities are decoded, in this order.
	namedEntities = []struct{ entity, text string }{
		{"&nbsp;", " "},
		{"&amp;", "&"},
		{"&lt;", "<"},
		{"&gt;", ">"},
		{"&quot;", `"`},
	}
)

// StripHTML reduces an HTML body to plain text. It is a best-effort cleanup,
// not an HTML parser.
func StripHTML(body string) string {
	if body == "" {
		return ""
	}

	text := lineBreakTag.ReplaceAllString(body, "\n")
	text = paragraphEnd.ReplaceAllString(text, "\n\n")
	text = anyTag.ReplaceAllString(text, "")
	for _, r := range namedEntities {
		text = strings.ReplaceAll(text, r.entity, r.text)
	}

	return strings.TrimSpace(text)
}

// TextToHTML escapes text and turns newlines into <br> tags.
func TextToHTML(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}
