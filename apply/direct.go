// CLAUDE:SUMMARY Direct binary editor: rewrites the content stream of zipped-markup office packages.
package apply

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hazyhaar/docforge/artifact"
	"github.com/hazyhaar/docforge/format"
	"github.com/hazyhaar/docforge/plan"
)

// contentStream names the package entry that carries the document body.
func contentStream(formatID string) (string, error) {
	switch formatID {
	case "docx":
		return "word/document.xml", nil
	case "odt":
		return "content.xml", nil
	}
	return "", fmt.Errorf("no content stream mapping for %q", formatID)
}

// applyOffice rewrites exactly one content stream inside the zipped
// package and re-serializes the package to a new path. The structured edit
// is attempted first; any failure there falls back to plain paragraph
// replacement before surfacing ErrDirectEditFailed.
func (a *Applier) applyOffice(ctx context.Context, req Request, desc format.Descriptor) (*artifact.Artifact, error) {
	if err := planRequired(req.Plan); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streamName, err := contentStream(desc.ID)
	if err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(req.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	defer zr.Close()

	var stream string
	found := false
	for _, f := range zr.File {
		if f.Name == streamName {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", streamName, err)
			}
			data, err := io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", streamName, err)
			}
			stream = string(data)
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("package has no %s", streamName)
	}

	edited, err := editStream(stream, req.Plan.Changes, desc.ID)
	if err != nil {
		a.logger.Warn("structured edit failed, trying paragraph fallback", "error", err)
		edited, err = paragraphFallback(stream, req.Plan.Changes, desc.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDirectEditFailed, err)
		}
	}

	outPath, err := a.store.NewPath(req.Title, desc.ID)
	if err != nil {
		return nil, err
	}
	if err := repackage(zr, streamName, edited, outPath); err != nil {
		return nil, err
	}

	return &artifact.Artifact{
		Path:         outPath,
		Format:       desc.ID,
		Preservation: artifact.PreservationFull,
	}, nil
}

// repackage copies every entry of the source package except the edited
// stream, which is replaced. Entry order and compression methods are kept,
// so odt's stored-first mimetype entry survives.
func repackage(zr *zip.ReadCloser, streamName, edited, outPath string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		hdr := &zip.FileHeader{Name: f.Name, Method: f.Method}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("repackage %s: %w", f.Name, err)
		}
		if f.Name == streamName {
			if _, err := w.Write([]byte(edited)); err != nil {
				return fmt.Errorf("repackage %s: %w", f.Name, err)
			}
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("repackage %s: %w", f.Name, err)
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("repackage %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return artifact.WriteFileAtomic(outPath, buf.Bytes())
}

// editStream applies changes to the markup stream. Bullet-formatted
// replacements swap a whole paragraph block for synthesized list markup;
// plain replacements are literal text-node substitutions with escaping.
func editStream(stream string, changes []plan.Change, formatID string) (string, error) {
	applied := 0
	for _, ch := range changes {
		if ch.IsCell {
			continue
		}
		if isBulletContent(ch.Replace) {
			span, ok := locateParagraph(stream, ch.Find, formatID)
			if !ok {
				return "", fmt.Errorf("no paragraph matches %q", truncate(ch.Find, 60))
			}
			stream = stream[:span.start] + synthesizeList(ch.Replace, formatID) + stream[span.end:]
			applied++
			continue
		}
		escFind := escapeXML(ch.Find)
		if !strings.Contains(stream, escFind) {
			// Find text spans multiple runs; the fallback handles it.
			return "", fmt.Errorf("find text not contiguous in markup: %q", truncate(ch.Find, 60))
		}
		stream = strings.ReplaceAll(stream, escFind, escapeXML(ch.Replace))
		applied++
	}
	if applied == 0 {
		return "", fmt.Errorf("no change applied")
	}
	return stream, nil
}

// paragraphFallback replaces whole matching paragraphs with plain
// paragraphs carrying the replacement text. Cruder than editStream but
// tolerant of text split across runs.
func paragraphFallback(stream string, changes []plan.Change, formatID string) (string, error) {
	applied := 0
	for _, ch := range changes {
		if ch.IsCell {
			continue
		}
		span, ok := locateParagraph(stream, ch.Find, formatID)
		if !ok {
			continue
		}
		oldText := blockText(stream[span.start:span.end])
		newText := strings.ReplaceAll(oldText, ch.Find, ch.Replace)
		if isBulletContent(ch.Replace) {
			newText = ch.Replace
		}
		stream = stream[:span.start] + plainParagraphs(newText, formatID) + stream[span.end:]
		applied++
	}
	if applied == 0 {
		return "", fmt.Errorf("no paragraph matched any change")
	}
	return stream, nil
}

type span struct{ start, end int }

// locateParagraph finds the first paragraph block whose rendered text
// contains the find text verbatim, falling back to the first block whose
// significant words overlap the find text by more than half. First match
// only; repeated near-duplicate paragraphs resolve to the earliest.
func locateParagraph(stream, find, formatID string) (span, bool) {
	blocks := paragraphBlocks(stream, formatID)

	for _, b := range blocks {
		if strings.Contains(blockText(stream[b.start:b.end]), find) {
			return b, true
		}
	}

	want := significantWords(find)
	if len(want) == 0 {
		return span{}, false
	}
	for _, b := range blocks {
		have := significantWords(blockText(stream[b.start:b.end]))
		matched := 0
		for w := range want {
			if have[w] {
				matched++
			}
		}
		if matched*2 > len(want) {
			return b, true
		}
	}
	return span{}, false
}

// paragraphBlocks scans the stream for top-level paragraph elements.
func paragraphBlocks(stream, formatID string) []span {
	openTag, closeTag := "<w:p", "</w:p>"
	if formatID == "odt" {
		openTag, closeTag = "<text:p", "</text:p>"
	}

	var blocks []span
	pos := 0
	for {
		i := strings.Index(stream[pos:], openTag)
		if i < 0 {
			break
		}
		start := pos + i
		after := start + len(openTag)
		if after >= len(stream) {
			break
		}
		// Skip longer element names sharing the prefix (w:pPr, text:page).
		if c := stream[after]; c != '>' && c != ' ' && c != '/' {
			pos = after
			continue
		}
		j := strings.Index(stream[after:], closeTag)
		if j < 0 {
			break
		}
		end := after + j + len(closeTag)
		blocks = append(blocks, span{start: start, end: end})
		pos = end
	}
	return blocks
}

var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&#39;", "'", "&#34;", `"`, "&amp;", "&",
)

// blockText strips markup from a fragment and unescapes entities.
func blockText(fragment string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range fragment {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return xmlUnescaper.Replace(sb.String())
}

// significantWords lowercases and keeps words longer than three runes.
func significantWords(s string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		w = strings.Trim(w, ".,;:!?\"'()")
		if len([]rune(w)) > 3 {
			words[w] = true
		}
	}
	return words
}

var bulletMarkers = []string{"- ", "* ", "+ ", "• "}

// isBulletContent reports whether the replacement is a bullet-formatted
// list rather than running text.
func isBulletContent(s string) bool {
	lines := nonEmptyLines(s)
	if len(lines) == 0 {
		return false
	}
	for _, line := range lines {
		marked := false
		for _, m := range bulletMarkers {
			if strings.HasPrefix(line, m) {
				marked = true
				break
			}
		}
		if !marked {
			return false
		}
	}
	return true
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

func stripMarker(line string) string {
	for _, m := range bulletMarkers {
		if strings.HasPrefix(line, m) {
			return strings.TrimSpace(line[len(m):])
		}
	}
	return line
}

// synthesizeList builds structural list markup from bullet-formatted text,
// so markers never land in the document as literal characters.
func synthesizeList(content, formatID string) string {
	lines := nonEmptyLines(content)
	var sb strings.Builder
	if formatID == "odt" {
		sb.WriteString(`<text:list>`)
		for _, line := range lines {
			sb.WriteString(`<text:list-item><text:p>` + escapeXML(stripMarker(line)) + `</text:p></text:list-item>`)
		}
		sb.WriteString(`</text:list>`)
		return sb.String()
	}
	for _, line := range lines {
		sb.WriteString(`<w:p><w:pPr><w:numPr><w:ilvl w:val="0"/><w:numId w:val="1"/></w:numPr></w:pPr>` +
			`<w:r><w:t xml:space="preserve">` + escapeXML(stripMarker(line)) + `</w:t></w:r></w:p>`)
	}
	return sb.String()
}

// plainParagraphs renders replacement text as simple paragraphs, one per
// line.
func plainParagraphs(content, formatID string) string {
	lines := nonEmptyLines(content)
	if isBulletContent(content) {
		return synthesizeList(content, formatID)
	}
	var sb strings.Builder
	for _, line := range lines {
		if formatID == "odt" {
			sb.WriteString(`<text:p>` + escapeXML(line) + `</text:p>`)
		} else {
			sb.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + escapeXML(line) + `</w:t></w:r></w:p>`)
		}
	}
	return sb.String()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// readFileBytes is a small helper shared by the text and sheet appliers.
func readFileBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return data, nil
}
