// CLAUDE:SUMMARY Export artifacts: derived filenames, preservation level, atomic write-then-rename storage.
// Package artifact manages the files the pipeline produces. An artifact is
// written once under the uploads directory and never mutated afterwards; a
// re-export always creates a new artifact.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/hazyhaar/docforge/format"
	"github.com/hazyhaar/docforge/idgen"
)

// Preservation reports how much of the original document's structure
// survived a modification.
type Preservation string

const (
	PreservationFull    Preservation = "full"
	PreservationPartial Preservation = "partial"
	PreservationNone    Preservation = "none"
)

// Artifact is a finished output file.
type Artifact struct {
	Path         string       `json:"path"`
	Format       string       `json:"format"`
	Preservation Preservation `json:"preservation"`
}

// Store allocates artifact paths and writes artifact files.
type Store struct {
	dir    string
	suffix idgen.Generator
}

// NewStore creates a Store rooted at dir. The directory is created if
// missing.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("artifact: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir, suffix: idgen.NanoID(8)}, nil
}

// Dir returns the uploads directory.
func (s *Store) Dir() string { return s.dir }

// NewPath derives a fresh artifact path from a human-readable title and a
// target format: sanitized title-cased name, date stamp, random suffix,
// and the registry extension. Every call yields a distinct path so no
// artifact is ever overwritten.
func (s *Store) NewPath(title, formatID string) (string, error) {
	desc, err := format.Describe(formatID)
	if err != nil {
		return "", fmt.Errorf("artifact: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%s%s",
		SanitizeTitle(title),
		time.Now().UTC().Format("20060102"),
		s.suffix(),
		desc.Extension)
	return filepath.Join(s.dir, name), nil
}

// maxTitleLen caps the sanitized title portion of a filename.
const maxTitleLen = 48

// SanitizeTitle turns free text into a safe, length-capped, title-cased
// filename fragment. Empty or fully-unsafe input becomes "Document".
func SanitizeTitle(title string) string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			w := []rune(cur.String())
			w[0] = unicode.ToUpper(w[0])
			words = append(words, string(w))
			cur.Reset()
		}
	}
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(unicode.ToLower(r))
		default:
			flush()
		}
	}
	flush()

	out := strings.Join(words, "")
	if out == "" {
		return "Document"
	}
	if r := []rune(out); len(r) > maxTitleLen {
		out = string(r[:maxTitleLen])
	}
	return out
}

// WriteFileAtomic writes data to path via a scoped temp file and an atomic
// rename, so a crash mid-write never leaves a half-written artifact
// visible at its final path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("artifact: temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("artifact: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: close: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("artifact: rename: %w", err)
	}
	return nil
}
