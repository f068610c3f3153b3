// CLAUDE:SUMMARY Document targets via pandoc exec, with gofpdf and built-in docx fallbacks.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hazyhaar/docforge/artifact"
)

// pandocTarget maps a format id to pandoc's output format name.
var pandocTarget = map[string]string{
	"pdf":  "pdf",
	"docx": "docx",
	"doc":  "docx", // pandoc has no legacy .doc writer; modern package under the old name
	"rtf":  "rtf",
	"odt":  "odt",
	"pptx": "pptx",
	"ppt":  "pptx",
	"odp":  "odp",
}

// renderDocument converts markdown-style content to a document format via
// pandoc. When pandoc is not installed, pdf falls back to the gofpdf
// writer and docx to the built-in package writer; other targets fail.
func (r *Renderer) renderDocument(ctx context.Context, content, formatID, outPath string) error {
	pandocBin, lookErr := exec.LookPath(r.cfg.PandocPath)
	if lookErr != nil {
		switch formatID {
		case "pdf":
			r.logger.Info("pandoc unavailable, using built-in pdf writer")
			return r.renderPDFBuiltin(content, outPath)
		case "docx", "doc":
			r.logger.Info("pandoc unavailable, using built-in docx writer")
			return writeDocx(outPath, content)
		}
		return fmt.Errorf("pandoc not found in PATH (needed for %s)", formatID)
	}

	args := []string{"-f", "markdown", "-t", pandocTarget[formatID]}
	if formatID == "pdf" {
		// pandoc cannot produce PDF without an engine.
		args = []string{"-f", "markdown", "--pdf-engine", r.cfg.PDFEngine}
	}

	// pandoc writes the binary container formats only to a named file;
	// render into a scoped temp file and move the bytes atomically.
	tmp, err := os.CreateTemp(r.store.Dir(), ".pandoc-*."+extOf(formatID))
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	args = append(args, "-o", tmpName)
	cmd := exec.CommandContext(ctx, pandocBin, args...)
	cmd.Stdin = strings.NewReader(content)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pandoc: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(tmpName)
	if err != nil {
		return err
	}
	return artifact.WriteFileAtomic(outPath, data)
}

func extOf(formatID string) string {
	if formatID == "doc" {
		return "docx"
	}
	if formatID == "ppt" {
		return "pptx"
	}
	return formatID
}

// renderPDFBuiltin writes a simple paginated PDF from the content lines.
// Headings get a larger bold font; everything else is body text. Layout
// fidelity is deliberately modest, this path exists so pdf export works on
// hosts without pandoc.
func (r *Renderer) renderPDFBuiltin(content, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			pdf.Ln(3)
		case strings.HasPrefix(trimmed, "#"):
			level := len(trimmed) - len(strings.TrimLeft(trimmed, "#"))
			text := strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
			size := 18.0 - float64(level)*2
			if size < 11 {
				size = 11
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 8, tr(text), "", "L", false)
			pdf.SetFont("Helvetica", "", 11)
		default:
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 5.5, tr(trimmed), "", "L", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("gofpdf: %w", err)
	}
	return artifact.WriteFileAtomic(outPath, buf.Bytes())
}
