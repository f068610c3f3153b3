// CLAUDE:SUMMARY Extraction engine: dispatches by format to docx/odt/xlsx/pdf/ocr/html/text readers.
// Package extract produces a plain-text (and, for spreadsheets, tabular)
// representation of a file regardless of its original binary format.
//
// Dispatch rules:
//   - docx/odt        — structure-aware markup pullers (zip + xml token walk)
//   - xlsx/ods        — sheet enumeration, rows flattened in order
//   - csv/tsv         — stdlib csv reader
//   - pdf             — text-layer extraction; a PDF without a text layer fails
//   - images          — OCR; empty recognized text is valid, not an error
//   - txt/md/xml/rtf  — verbatim read
//   - html            — tag-stripping walker
//
// The result is derived solely from the source file and is re-derived on
// every request; nothing here caches.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hazyhaar/docforge/format"
)

// ErrExtractionFailed wraps every extraction failure.
var ErrExtractionFailed = errors.New("extraction failed")

// Document is the normalized representation of an extracted file.
type Document struct {
	PlainText string `json:"plain_text"`
	// Rows holds the ordered table for spreadsheet formats, nil otherwise.
	Rows [][]string         `json:"rows,omitempty"`
	Meta StructuralMetadata `json:"meta"`
}

// StructuralMetadata records approximate structure hints derived from the
// extracted text. Pattern checks, not guarantees.
type StructuralMetadata struct {
	HasTables   bool `json:"has_tables"`
	HasLists    bool `json:"has_lists"`
	HasHeadings bool `json:"has_headings"`
	HasImages   bool `json:"has_images"`
}

// Extractor extracts text from files.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// Config configures an Extractor.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// TesseractPath overrides the OCR binary lookup (default: "tesseract"
	// from PATH).
	TesseractPath string `json:"tesseract_path" yaml:"tesseract_path"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.TesseractPath == "" {
		c.TesseractPath = "tesseract"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg, logger: cfg.Logger}
}

func failf(formatStr string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrExtractionFailed, fmt.Sprintf(formatStr, args...))
}

// Extract reads the file at path, declared as formatID, and returns its
// normalized representation.
func (e *Extractor) Extract(ctx context.Context, path, formatID string) (*Document, error) {
	desc, err := format.Describe(formatID)
	if err != nil {
		return nil, failf("describe %q: %v", formatID, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, failf("stat %s: %v", path, err)
	}
	if info.Size() > e.cfg.MaxFileSize {
		return nil, failf("file too large: %d bytes (max %d)", info.Size(), e.cfg.MaxFileSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Debug("extracting document", "path", path, "format", desc.ID)

	var doc *Document
	switch desc.ID {
	case "docx":
		doc, err = extractDocx(path)
	case "odt":
		doc, err = extractODT(path)
	case "xlsx":
		doc, err = extractXlsx(path)
	case "ods":
		doc, err = extractODS(path)
	case "csv":
		doc, err = extractDelimited(path, ',')
	case "tsv":
		doc, err = extractDelimited(path, '\t')
	case "pdf":
		doc, err = extractPDF(path)
	case "jpg", "jpeg", "png", "bmp", "tiff", "gif":
		doc, err = e.extractImage(ctx, path)
	case "html":
		doc, err = extractHTML(path)
	case "txt", "md", "xml", "rtf", "ics", "vcf", "eml", "mbox":
		doc, err = extractVerbatim(path)
	default:
		return nil, failf("no extractor for format %q", desc.ID)
	}
	if err != nil {
		if errors.Is(err, ErrExtractionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s (%s): %v", ErrExtractionFailed, path, desc.ID, err)
	}

	doc.Meta = deriveMetadata(doc)
	return doc, nil
}
