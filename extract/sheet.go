// CLAUDE:SUMMARY Spreadsheet readers: xlsx (sharedStrings + sheet XML), ods table walk, csv/tsv.
package extract

import (
	"archive/zip"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// extractXlsx enumerates all worksheets of an .xlsx workbook and flattens
// their rows, in sheet order, into one ordered table. Shared strings are
// resolved; inline strings and numeric cells are taken verbatim.
func extractXlsx(path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	shared, err := readSharedStrings(&r.Reader)
	if err != nil {
		return nil, err
	}

	var sheetFiles []*zip.File
	for _, f := range r.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheetFiles = append(sheetFiles, f)
		}
	}
	if len(sheetFiles) == 0 {
		return nil, fmt.Errorf("no worksheets found in workbook")
	}
	sort.Slice(sheetFiles, func(i, j int) bool {
		return sheetNumber(sheetFiles[i].Name) < sheetNumber(sheetFiles[j].Name)
	})

	var rows [][]string
	for _, sf := range sheetFiles {
		sheetRows, err := readSheetRows(sf, shared)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", sf.Name, err)
		}
		rows = append(rows, sheetRows...)
	}

	return &Document{PlainText: rowsToText(rows), Rows: rows}, nil
}

func sheetNumber(name string) int {
	name = strings.TrimSuffix(strings.TrimPrefix(name, "xl/worksheets/sheet"), ".xml")
	n, _ := strconv.Atoi(name)
	return n
}

// readSharedStrings loads xl/sharedStrings.xml. A workbook without shared
// strings is valid (all-inline or all-numeric cells).
func readSharedStrings(r *zip.Reader) ([]string, error) {
	var f *zip.File
	for _, zf := range r.File {
		if zf.Name == "xl/sharedStrings.xml" {
			f = zf
			break
		}
	}
	if f == nil {
		return nil, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open sharedStrings: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var shared []string
	var sb strings.Builder
	var inSI bool
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "si" {
				inSI = true
				sb.Reset()
			}
		case xml.CharData:
			if inSI {
				sb.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "si" {
				inSI = false
				shared = append(shared, sb.String())
			}
		}
	}
	return shared, nil
}

// readSheetRows walks one worksheet XML and returns its rows in order.
// Cell gaps (sparse rows) are padded so column indices stay positional.
func readSheetRows(f *zip.File, shared []string) ([][]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var rows [][]string
	var row []string
	var cellType string
	var cellCol int
	var inValue bool
	var sb strings.Builder

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "row":
				row = nil
			case "c":
				cellType = ""
				cellCol = len(row)
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "t":
						cellType = attr.Value
					case "r":
						if col := columnIndex(attr.Value); col >= 0 {
							cellCol = col
						}
					}
				}
				for len(row) < cellCol {
					row = append(row, "")
				}
			case "v", "t":
				inValue = true
				sb.Reset()
			}
		case xml.CharData:
			if inValue {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "v", "t":
				if !inValue {
					break
				}
				inValue = false
				val := sb.String()
				if cellType == "s" {
					if idx, err := strconv.Atoi(strings.TrimSpace(val)); err == nil && idx >= 0 && idx < len(shared) {
						val = shared[idx]
					}
				}
				for len(row) <= cellCol {
					row = append(row, "")
				}
				row[cellCol] = val
			case "row":
				if len(row) > 0 {
					rows = append(rows, row)
				}
			}
		}
	}
	return rows, nil
}

// columnIndex converts an A1-style cell reference to a zero-based column
// index ("A1" → 0, "C7" → 2). Returns -1 for malformed references.
func columnIndex(ref string) int {
	col := 0
	seen := false
	for _, r := range ref {
		if r >= 'A' && r <= 'Z' {
			col = col*26 + int(r-'A') + 1
			seen = true
		} else if r >= 'a' && r <= 'z' {
			col = col*26 + int(r-'a') + 1
			seen = true
		} else {
			break
		}
	}
	if !seen {
		return -1
	}
	return col - 1
}

// extractODS walks content.xml table rows of an OpenDocument spreadsheet.
func extractODS(path string) (*Document, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var contentFile *zip.File
	for _, f := range r.File {
		if f.Name == "content.xml" {
			contentFile = f
			break
		}
	}
	if contentFile == nil {
		return nil, fmt.Errorf("content.xml not found in archive")
	}

	rc, err := contentFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open content.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var rows [][]string
	var row []string
	var cellRepeat int
	var inCell bool
	var sb strings.Builder

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "table-row":
				row = nil
			case "table-cell":
				inCell = true
				sb.Reset()
				cellRepeat = 1
				for _, attr := range t.Attr {
					if attr.Name.Local == "number-columns-repeated" {
						if n, err := strconv.Atoi(attr.Value); err == nil && n > 0 && n < 1024 {
							cellRepeat = n
						}
					}
				}
			}
		case xml.CharData:
			if inCell {
				sb.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "table-cell":
				inCell = false
				val := strings.TrimSpace(sb.String())
				for range cellRepeat {
					row = append(row, val)
				}
			case "table-row":
				if trimmed := trimTrailingEmpty(row); len(trimmed) > 0 {
					rows = append(rows, trimmed)
				}
			}
		}
	}

	return &Document{PlainText: rowsToText(rows), Rows: rows}, nil
}

func trimTrailingEmpty(row []string) []string {
	end := len(row)
	for end > 0 && row[end-1] == "" {
		end--
	}
	return row[:end]
}

// extractDelimited reads a csv or tsv file into ordered rows.
func extractDelimited(path string, sep rune) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = sep
	cr.FieldsPerRecord = -1

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, rec)
	}

	return &Document{PlainText: rowsToText(rows), Rows: rows}, nil
}

// rowsToText renders a table as tab-separated lines, the plain-text twin
// of the Rows field.
func rowsToText(rows [][]string) string {
	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Join(row, "\t"))
	}
	return sb.String()
}
