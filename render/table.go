// CLAUDE:SUMMARY Tabular targets: table-markup parser plus csv/tsv and worksheet writers.
package render

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/hazyhaar/docforge/artifact"
)

// renderTabular parses table markup out of the content and writes it as
// the requested tabular format. The first parsed row is always the header.
func (r *Renderer) renderTabular(content, formatID, outPath string) error {
	rows := ParseTable(content)
	if len(rows) == 0 {
		return fmt.Errorf("no tabular content found")
	}

	switch formatID {
	case "csv":
		return writeDelimited(outPath, rows, ',')
	case "tsv":
		return writeDelimited(outPath, rows, '\t')
	case "xlsx":
		return WriteXlsx(outPath, rows)
	case "xls":
		// No legacy BIFF writer exists; ship the modern worksheet under
		// the requested extension and note the degraded fidelity.
		r.logger.Warn("xls requested, writing xlsx content under .xls name", "path", outPath)
		return WriteXlsx(outPath, rows)
	case "ods":
		return writeODS(outPath, rows)
	}
	return fmt.Errorf("no tabular encoder for %q", formatID)
}

// ParseTable pulls pipe-delimited or tab-delimited rows out of lightly
// marked-up text. Markdown separator rows (|---|---|) are skipped. Lines
// that are not table-like are ignored, so prose around a table does not
// break parsing.
func ParseTable(content string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		switch {
		case strings.Contains(trimmed, "|"):
			if isRuleRow(trimmed) {
				continue
			}
			cells := splitPipeRow(trimmed)
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		case strings.Contains(trimmed, "\t"):
			cells := strings.Split(trimmed, "\t")
			for i := range cells {
				cells[i] = strings.TrimSpace(cells[i])
			}
			rows = append(rows, cells)
		}
	}
	return rows
}

// isRuleRow detects markdown separator rows such as |---|:---:|.
func isRuleRow(line string) bool {
	stripped := strings.Map(func(r rune) rune {
		switch r {
		case '|', '-', ':', ' ':
			return -1
		}
		return r
	}, line)
	return stripped == "" && strings.Contains(line, "-")
}

func splitPipeRow(line string) []string {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, strings.TrimSpace(p))
	}
	// Drop rows that are entirely empty cells.
	for _, c := range cells {
		if c != "" {
			return cells
		}
	}
	return nil
}

func writeDelimited(outPath string, rows [][]string, sep rune) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = sep
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	return artifact.WriteFileAtomic(outPath, buf.Bytes())
}
