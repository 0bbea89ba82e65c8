package cleaner

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reToggle     = regexp.MustCompile(`Show more|Show less|See more|See less`)
)

// CleanText collapses whitespace and drops the expand/collapse button labels
// job boards render inside descriptions.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = reWhitespace.ReplaceAllString(strings.TrimSpace(text), " ")
	text = reToggle.ReplaceAllString(text, "")
	text = reWhitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// blockTags break words apart when their text is joined.
var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "br": {}, "li": {}, "ul": {}, "ol": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {},
	"section": {}, "article": {}, "tr": {}, "td": {}, "th": {},
}

// nodeText returns the visible text below n, separating block elements so
// "<p>a</p><p>b</p>" reads "a b" rather than "ab". Script and style
// content is skipped.
func nodeText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
		}
		_, block := blockTags[n.Data]
		if block && n.Type == html.ElementNode {
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block && n.Type == html.ElementNode {
			buf.WriteByte(' ')
		}
	}
	walk(n)
	return buf.String()
}
