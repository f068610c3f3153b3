package format

import (
	"errors"
	"testing"
)

func TestDescribeRoundTrip(t *testing.T) {
	for _, id := range IDs() {
		d, err := Describe(id)
		if err != nil {
			t.Errorf("Describe(%q): %v", id, err)
			continue
		}
		if d.ID != id {
			t.Errorf("Describe(%q).ID = %q", id, d.ID)
		}
		if d.Extension == "" || d.Extension[0] != '.' {
			t.Errorf("Describe(%q).Extension = %q, want leading dot", id, d.Extension)
		}
		if d.Label == "" {
			t.Errorf("Describe(%q) has empty label", id)
		}
	}
}

func TestDescribeNormalization(t *testing.T) {
	tests := []string{"docx", "DOCX", ".docx", ".DocX", " docx "}
	for _, in := range tests {
		d, err := Describe(in)
		if err != nil {
			t.Fatalf("Describe(%q): %v", in, err)
		}
		if d.ID != "docx" {
			t.Fatalf("Describe(%q).ID = %q, want docx", in, d.ID)
		}
	}
}

func TestDescribeUnknown(t *testing.T) {
	_, err := Describe("flac")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestListByStrategy(t *testing.T) {
	direct := ListByStrategy(DirectBinary)
	if len(direct) == 0 {
		t.Fatal("no DirectBinary formats registered")
	}
	seen := map[string]bool{}
	for _, d := range direct {
		if d.Strategy != DirectBinary {
			t.Errorf("%s has strategy %s", d.ID, d.Strategy)
		}
		if seen[d.ID] {
			t.Errorf("duplicate descriptor for %s", d.ID)
		}
		seen[d.ID] = true
	}
	if !seen["docx"] {
		t.Error("docx missing from DirectBinary list")
	}

	images := ListByStrategy(ImageOnly)
	for _, d := range images {
		if d.Strategy.Modifiable() {
			t.Errorf("%s should not be modifiable", d.ID)
		}
	}
}

func TestRequiredFamilies(t *testing.T) {
	required := []string{
		"pdf", "docx", "doc", "xlsx", "xls", "pptx", "ppt",
		"txt", "md", "html", "xml", "rtf",
		"csv", "tsv",
		"odt", "ods", "odp",
		"jpg", "png", "bmp", "tiff", "gif",
		"zip", "rar", "7z", "tar.gz",
		"ics", "vcf", "eml", "msg", "mbox",
	}
	for _, id := range required {
		if !Known(id) {
			t.Errorf("required format %q not registered", id)
		}
	}
}
