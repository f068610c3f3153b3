// CLAUDE:SUMMARY Spreadsheet applier: cell writes by coordinate, column appends, used-range recompute.
package apply

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"

	"github.com/hazyhaar/docforge/artifact"
	"github.com/hazyhaar/docforge/format"
	"github.com/hazyhaar/docforge/plan"
	"github.com/hazyhaar/docforge/render"
)

// applySheet applies cell-level writes to a tabular source. The source
// rows come from the extractor, mutations happen in memory, and the result
// is written as a fresh file. Rebuilt xlsx workbooks keep values but not
// the original cell styling, so their preservation level is partial.
func (a *Applier) applySheet(ctx context.Context, req Request, desc format.Descriptor) (*artifact.Artifact, error) {
	if err := planRequired(req.Plan); err != nil {
		return nil, err
	}
	if a.extractor == nil {
		return nil, fmt.Errorf("apply: no extractor configured")
	}

	doc, err := a.extractor.Extract(ctx, req.SourcePath, desc.ID)
	if err != nil {
		return nil, err
	}
	if len(doc.Rows) == 0 {
		return nil, plan.ErrNoValidChanges
	}

	rows := cloneRows(doc.Rows)
	applied := 0
	for _, ch := range req.Plan.Changes {
		if !ch.IsCell {
			continue
		}
		if ch.Row < 0 || ch.Row >= len(rows) {
			a.logger.Warn("cell row out of range at apply time", "row", ch.Row)
			continue
		}
		setCell(rows, ch.Row, ch.Col, ch.Replace)
		applied++
	}
	if applied == 0 {
		return nil, plan.ErrNoValidChanges
	}

	// Recompute the used range: every row is padded to the widest row so
	// appended columns exist on all rows.
	normalizeWidth(rows)

	outPath, err := a.store.NewPath(req.Title, desc.ID)
	if err != nil {
		return nil, err
	}

	preservation := artifact.PreservationFull
	switch desc.ID {
	case "csv":
		err = writeCSVFile(outPath, rows, ',')
	case "tsv":
		err = writeCSVFile(outPath, rows, '\t')
	case "xlsx":
		preservation = artifact.PreservationPartial
		err = render.WriteXlsx(outPath, rows)
	default:
		err = fmt.Errorf("no sheet writer for %q", desc.ID)
	}
	if err != nil {
		return nil, err
	}

	return &artifact.Artifact{
		Path:         outPath,
		Format:       desc.ID,
		Preservation: preservation,
	}, nil
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// setCell writes a value, padding the row when the column is one past the
// current width (column append).
func setCell(rows [][]string, r, c int, value string) {
	for len(rows[r]) <= c {
		rows[r] = append(rows[r], "")
	}
	rows[r][c] = value
}

// normalizeWidth pads every row with empty cells to the widest row.
func normalizeWidth(rows [][]string) {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i := range rows {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], "")
		}
	}
}

func writeCSVFile(outPath string, rows [][]string, sep rune) error {
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
