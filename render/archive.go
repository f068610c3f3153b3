// CLAUDE:SUMMARY Archive targets: wrap rendered content as a single entry in zip or tar.gz.
package render

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"time"

	"github.com/hazyhaar/docforge/artifact"
)

// renderArchive wraps the content as a markdown file inside the requested
// archive container.
func (r *Renderer) renderArchive(content, formatID, title, outPath string) error {
	entryName := artifact.SanitizeTitle(title) + ".md"
	payload := []byte(content)

	var buf bytes.Buffer
	switch formatID {
	case "zip":
		zw := zip.NewWriter(&buf)
		w, err := zw.Create(entryName)
		if err != nil {
			return fmt.Errorf("zip: %w", err)
		}
		if _, err := w.Write(payload); err != nil {
			return fmt.Errorf("zip: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("zip: %w", err)
		}
	case "tar.gz":
		gz := gzip.NewWriter(&buf)
		tw := tar.NewWriter(gz)
		hdr := &tar.Header{
			Name:    entryName,
			Mode:    0o644,
			Size:    int64(len(payload)),
			ModTime: time.Now(),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("tar: %w", err)
		}
		if _, err := tw.Write(payload); err != nil {
			return fmt.Errorf("tar: %w", err)
		}
		if err := tw.Close(); err != nil {
			return fmt.Errorf("tar: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("gzip: %w", err)
		}
	default:
		return fmt.Errorf("no archive encoder for %q", formatID)
	}

	return artifact.WriteFileAtomic(outPath, buf.Bytes())
}
