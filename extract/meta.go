// CLAUDE:SUMMARY Structural metadata heuristics: table, list, heading, and emphasis pattern checks.
package extract

import (
	"regexp"
	"strings"
)

var (
	tableLineRe   = regexp.MustCompile(`\|.+\|`)
	listMarkerRe  = regexp.MustCompile(`(?m)^\s*([-*+•]|\d+[.)])\s+\S`)
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	imageMarkerRe = regexp.MustCompile(`!\[[^\]]*\]\(|<img\s`)
)

// deriveMetadata inspects extracted text for structure hints. These are
// lightweight approximations: a pipe-delimited line counts as a table, a
// bullet or numbered prefix as a list. Flags already set by the reader
// (e.g. image streams found inside a PDF) are preserved.
func deriveMetadata(doc *Document) StructuralMetadata {
	meta := doc.Meta
	text := doc.PlainText

	if len(doc.Rows) > 0 {
		meta.HasTables = true
	} else if tableLineRe.MatchString(text) || strings.Contains(text, "\t") {
		meta.HasTables = true
	}
	if listMarkerRe.MatchString(text) {
		meta.HasLists = true
	}
	if headingRe.MatchString(text) {
		meta.HasHeadings = true
	}
	if imageMarkerRe.MatchString(text) {
		meta.HasImages = true
	}
	return meta
}
