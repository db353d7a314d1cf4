// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"strings"

	"golang.org/x/net/html"
)

// skipText lists elements whose text is never visible content.
var skipText = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"svg":      true,
	"head":     true,
}

// TextContent returns the visible text of htmlContent with whitespace
// collapsed, truncated to at most limit runes. limit <= 0 means no limit.
func TextContent(htmlContent string, limit int) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipText[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(s)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := strings.Join(strings.Fields(b.String()), " ")
	if limit > 0 {
		if r := []rune(text); len(r) > limit {
			text = string(r[:limit])
		}
	}
	return text
}
