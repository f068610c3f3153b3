// CLAUDE:SUMMARY Verbatim reader for plain-text-like formats and tag-stripping HTML reader.
package extract

import (
	"bytes"
	"os"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extractVerbatim reads a plain-text-like file as-is. Only line endings are
// normalised; find/replace planning needs byte-faithful text.
func extractVerbatim(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &Document{PlainText: text}, nil
}

// extractHTML strips tags from an HTML file, keeping block boundaries as
// newlines so paragraph-level matching remains possible.
func extractHTML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Head, atom.Noscript:
				return
			}
		case html.TextNode:
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && isBlockElement(n.DataAtom) && sb.Len() > 0 {
			sb.WriteByte('\n')
		}
	}
	walk(doc)

	return &Document{PlainText: strings.TrimSpace(sb.String())}, nil
}

func isBlockElement(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Li, atom.Tr, atom.Table, atom.Br, atom.Section, atom.Article, atom.Blockquote:
		return true
	}
	return false
}
