// Package htmltext flattens HTML fragments to plain text. Imported
// catalog descriptions often come from scraped menus or admin copy-paste
// and carry markup the cards must not show.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// Flatten extracts the text content of an HTML fragment, collapsing
// whitespace. Input that fails to parse is returned trimmed as-is.
func Flatten(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}

	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(doc)

	return strings.Join(strings.Fields(buf.String()), " ")
}
