// CLAUDE:SUMMARY Markup/plain targets: markdown, sanitized HTML, tag stripping, xml/ics/vcf/eml/mbox envelopes.
package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	xhtml "golang.org/x/net/html"

	"github.com/hazyhaar/docforge/artifact"
)

// renderMarkup performs structural conversion into text-like targets.
func (r *Renderer) renderMarkup(content, formatID, title, outPath string) error {
	var out string
	var err error

	switch formatID {
	case "md":
		out, err = toMarkdown(content)
	case "html":
		out = htmlDocument(title, content)
	case "txt":
		out = toPlainText(content)
	case "xml":
		out = xmlEnvelope(title, content)
	case "ics":
		out = icsEnvelope(title, content)
	case "vcf":
		out = vcfEnvelope(title, content)
	case "eml":
		out = emlEnvelope(title, content)
	case "mbox":
		out = "From docforge " + time.Now().UTC().Format(time.ANSIC) + "\n" + emlEnvelope(title, content)
	default:
		return fmt.Errorf("no markup encoder for %q", formatID)
	}
	if err != nil {
		return err
	}
	return artifact.WriteFileAtomic(outPath, []byte(out))
}

// looksLikeHTML is a cheap check for content that arrived as markup rather
// than plain/markdown text.
func looksLikeHTML(content string) bool {
	trimmed := strings.TrimSpace(content)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, "</")
}

// mdConverter converts HTML to markdown (tables included).
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// toMarkdown passes markdown through and converts HTML input to markdown
// syntax.
func toMarkdown(content string) (string, error) {
	if !looksLikeHTML(content) {
		return content, nil
	}
	md, err := mdConverter.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("html to markdown: %w", err)
	}
	return md, nil
}

var htmlPolicy = bluemonday.UGCPolicy()

// htmlDocument renders the content as a complete styled HTML page. Content
// that is already HTML is sanitized; markdown is converted first.
func htmlDocument(title, content string) string {
	var body string
	if looksLikeHTML(content) {
		body = htmlPolicy.Sanitize(content)
	} else {
		body = htmlPolicy.Sanitize(markdownToHTML(content))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; max-width: 48rem; margin: 2rem auto; line-height: 1.5; color: #1a1a1a; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 0.3rem 0.6rem; }
th { background: #f0f0f0; }
</style>
</head>
<body>
%s
</body>
</html>
`, escapeXML(title), body)
}

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// markdownToHTML converts markdown (GFM tables included) to an HTML
// fragment.
func markdownToHTML(content string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		// Conversion over in-memory buffers only fails on renderer bugs;
		// fall back to an escaped block.
		return "<pre>" + escapeXML(content) + "</pre>"
	}
	return buf.String()
}

// toPlainText strips tags from HTML content and light markdown markers
// from everything else.
func toPlainText(content string) string {
	if looksLikeHTML(content) {
		return stripTags(content)
	}
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimLeft(line, "#")
		if trimmed != line {
			trimmed = strings.TrimSpace(trimmed)
		} else {
			trimmed = line
		}
		lines = append(lines, trimmed)
	}
	return strings.Join(lines, "\n")
}

// stripTags removes all markup from an HTML string, keeping text content.
func stripTags(content string) string {
	node, err := xhtml.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}
	var sb strings.Builder
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == xhtml.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return sb.String()
}

func xmlEnvelope(title, content string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<document>
  <title>%s</title>
  <content>%s</content>
</document>
`, escapeXML(title), escapeXML(toPlainText(content)))
}

func icsEnvelope(title, content string) string {
	now := time.Now().UTC().Format("20060102T150405Z")
	desc := strings.ReplaceAll(toPlainText(content), "\n", "\\n")
	return strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//docforge//EN",
		"BEGIN:VEVENT",
		"DTSTAMP:" + now,
		"DTSTART:" + now,
		"SUMMARY:" + icsEscape(title),
		"DESCRIPTION:" + icsEscape(desc),
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")
}

func icsEscape(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	return s
}

func vcfEnvelope(title, content string) string {
	note := strings.ReplaceAll(toPlainText(content), "\n", "\\n")
	return strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:3.0",
		"FN:" + icsEscape(title),
		"NOTE:" + icsEscape(note),
		"END:VCARD",
		"",
	}, "\r\n")
}

func emlEnvelope(title, content string) string {
	return fmt.Sprintf("From: docforge <noreply@localhost>\r\nSubject: %s\r\nDate: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		title, time.Now().UTC().Format(time.RFC1123Z), toPlainText(content))
}
