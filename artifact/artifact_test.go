package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"quarterly report", "QuarterlyReport"},
		{"  Q3 / revenue: summary!  ", "Q3RevenueSummary"},
		{"", "Document"},
		{"///", "Document"},
		{"über résumé", "ÜberRésumé"},
	}
	for _, tt := range tests {
		if got := SanitizeTitle(tt.in); got != tt.want {
			t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("verylongword", 20)
	if got := SanitizeTitle(long); len(got) > maxTitleLen {
		t.Errorf("sanitized title not capped: %d chars", len(got))
	}
}

func TestNewPathDistinct(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.NewPath("report", "pdf")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.NewPath("report", "pdf")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("paths must be distinct: %s", a)
	}
	if !strings.HasSuffix(a, ".pdf") {
		t.Errorf("missing extension: %s", a)
	}
	if !strings.Contains(filepath.Base(a), "Report_") {
		t.Errorf("missing title: %s", a)
	}
}

func TestNewPathUnknownFormat(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.NewPath("x", "flac"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := WriteFileAtomic(path, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Fatalf("got %q", data)
	}

	// No temp droppings left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("unexpected files in dir: %d", len(entries))
	}
}
