package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

const docxBody = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Quarterly Report</w:t></w:r></w:p>
    <w:p><w:r><w:t>Revenue grew in the third quarter.</w:t></w:r></w:p>
    <w:p><w:pPr><w:numPr><w:ilvl w:val="0"/></w:numPr></w:pPr><w:r><w:t>First item</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtractDocx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.docx")
	writeZip(t, path, map[string]string{"word/document.xml": docxBody})

	e := New(Config{})
	doc, err := e.Extract(context.Background(), path, "docx")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.PlainText, "# Quarterly Report") {
		t.Errorf("missing heading line, got %q", doc.PlainText)
	}
	if !strings.Contains(doc.PlainText, "Revenue grew in the third quarter.") {
		t.Errorf("missing paragraph, got %q", doc.PlainText)
	}
	if !strings.Contains(doc.PlainText, "- First item") {
		t.Errorf("missing list item, got %q", doc.PlainText)
	}
	if !doc.Meta.HasHeadings || !doc.Meta.HasLists {
		t.Errorf("metadata = %+v, want headings and lists", doc.Meta)
	}
}

func TestExtractODT(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.odt")
	content := `<?xml version="1.0"?>
<office:document-content xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0" xmlns:text="urn:oasis:names:tc:opendocument:xmlns:text:1.0">
  <office:body><office:text>
    <text:h text:outline-level="2">Background</text:h>
    <text:p>Some context here.</text:p>
    <text:list><text:list-item><text:p>bullet one</text:p></text:list-item></text:list>
  </office:text></office:body>
</office:document-content>`
	writeZip(t, path, map[string]string{"content.xml": content})

	e := New(Config{})
	doc, err := e.Extract(context.Background(), path, "odt")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"## Background", "Some context here.", "- bullet one"}
	for _, w := range want {
		if !strings.Contains(doc.PlainText, w) {
			t.Errorf("missing %q in %q", w, doc.PlainText)
		}
	}
}

const xlsxSharedStrings = `<?xml version="1.0"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="3" uniqueCount="3">
  <si><t>Name</t></si><si><t>Age</t></si><si><t>Ann</t></si>
</sst>`

const xlsxSheet = `<?xml version="1.0"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <sheetData>
    <row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>
    <row r="2"><c r="A2" t="s"><v>2</v></c><c r="B2"><v>30</v></c></row>
  </sheetData>
</worksheet>`

func TestExtractXlsx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "people.xlsx")
	writeZip(t, path, map[string]string{
		"xl/sharedStrings.xml":     xlsxSharedStrings,
		"xl/worksheets/sheet1.xml": xlsxSheet,
		"[Content_Types].xml":      `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
	})

	e := New(Config{})
	doc, err := e.Extract(context.Background(), path, "xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (%v)", len(doc.Rows), doc.Rows)
	}
	if doc.Rows[0][0] != "Name" || doc.Rows[0][1] != "Age" {
		t.Errorf("header row = %v", doc.Rows[0])
	}
	if doc.Rows[1][0] != "Ann" || doc.Rows[1][1] != "30" {
		t.Errorf("data row = %v", doc.Rows[1])
	}
	if !doc.Meta.HasTables {
		t.Error("expected HasTables")
	}
}

func TestExtractCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	os.WriteFile(path, []byte("Name,Age\nAnn,30\n"), 0o644)

	e := New(Config{})
	doc, err := e.Extract(context.Background(), path, "csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Rows) != 2 || doc.Rows[1][1] != "30" {
		t.Fatalf("rows = %v", doc.Rows)
	}
}

func TestExtractVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	os.WriteFile(path, []byte("line one\r\nline two"), 0o644)

	e := New(Config{})
	doc, err := e.Extract(context.Background(), path, "txt")
	if err != nil {
		t.Fatal(err)
	}
	if doc.PlainText != "line one\nline two" {
		t.Fatalf("got %q", doc.PlainText)
	}
}

func TestExtractHTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	os.WriteFile(path, []byte(`<html><head><style>p{}</style></head><body><h1>Title</h1><p>Body text.</p><script>x()</script></body></html>`), 0o644)

	e := New(Config{})
	doc, err := e.Extract(context.Background(), path, "html")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.PlainText, "Title") || !strings.Contains(doc.PlainText, "Body text.") {
		t.Errorf("got %q", doc.PlainText)
	}
	if strings.Contains(doc.PlainText, "x()") || strings.Contains(doc.PlainText, "p{}") {
		t.Errorf("script/style leaked into %q", doc.PlainText)
	}
}

func TestExtractPDFWithoutTextLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatal(err)
	}

	e := New(Config{})
	_, err := e.Extract(context.Background(), path, "pdf")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed for textless pdf, got %v", err)
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	e := New(Config{})
	_, err := e.Extract(context.Background(), "whatever.bin", "bin")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestDeriveMetadata(t *testing.T) {
	doc := &Document{PlainText: "# Head\n\n- one\n- two\n\n| a | b |\n"}
	meta := deriveMetadata(doc)
	if !meta.HasHeadings || !meta.HasLists || !meta.HasTables {
		t.Fatalf("meta = %+v", meta)
	}

	doc = &Document{PlainText: "just a sentence"}
	meta = deriveMetadata(doc)
	if meta.HasHeadings || meta.HasLists || meta.HasTables || meta.HasImages {
		t.Fatalf("meta = %+v, want all false", meta)
	}
}
