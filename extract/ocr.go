// CLAUDE:SUMMARY OCR for image formats via the tesseract binary; empty recognized text is valid.
package extract

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// extractImage runs optical character recognition over an image file and
// returns whatever text was recognized. An image with no recognizable text
// yields an empty document, which is valid, not an error.
func (e *Extractor) extractImage(ctx context.Context, path string) (*Document, error) {
	bin, err := exec.LookPath(e.cfg.TesseractPath)
	if err != nil {
		return nil, failf("ocr unavailable: %s not found in PATH", e.cfg.TesseractPath)
	}

	cmd := exec.CommandContext(ctx, bin, path, "stdout", "-l", "eng", "--psm", "3")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, failf("ocr failed: %v (%s)", err, strings.TrimSpace(stderr.String()))
	}

	text := strings.TrimSpace(stdout.String())
	e.logger.Debug("ocr complete", "path", path, "chars", len(text))

	return &Document{
		PlainText: text,
		Meta:      StructuralMetadata{HasImages: true},
	}, nil
}
