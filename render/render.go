// CLAUDE:SUMMARY Re-exporter: converts normalized content into any supported output format.
// Package render converts a normalized intermediate representation (plain
// or lightly marked-up text) into any supported output format. Dispatch by
// target family:
//
//   - document targets (pdf, docx, doc, rtf, odt, pptx, ppt, odp) route
//     through pandoc; pdf and docx have built-in fallback writers
//   - tabular targets (xlsx, xls, csv, tsv, ods) go through the table
//     builder, first parsed row styled as header
//   - image targets render styled HTML in a headless browser and
//     transcode the raster when needed
//   - markup/plain targets (md, html, xml, txt, ics, vcf, eml, mbox)
//     are structural conversions
//   - archive targets (zip, tar.gz) wrap the content file
//
// Every writer goes through artifact.WriteFileAtomic, so a failed render
// never leaves a partial file at its final path.
package render

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/docforge/artifact"
	"github.com/hazyhaar/docforge/format"
)

// Error reports a failed render with its target format.
type Error struct {
	Format string
	Cause  error
}

func (e *Error) Error() string { return fmt.Sprintf("render %s: %v", e.Format, e.Cause) }
func (e *Error) Unwrap() error { return e.Cause }

func renderErr(formatID string, cause error) error {
	return &Error{Format: formatID, Cause: cause}
}

// Renderer converts content into output artifacts.
type Renderer struct {
	cfg     Config
	store   *artifact.Store
	browser *Browser
	logger  *slog.Logger
}

// Config configures a Renderer.
type Config struct {
	// Store allocates output paths. Required.
	Store *artifact.Store

	// PandocPath overrides the pandoc binary lookup (default: "pandoc"
	// from PATH).
	PandocPath string `json:"pandoc_path" yaml:"pandoc_path"`

	// PDFEngine is passed to pandoc's --pdf-engine flag for pdf targets.
	// Default: "wkhtmltopdf".
	PDFEngine string `json:"pdf_engine" yaml:"pdf_engine"`

	// Browser renders image targets. Optional: image renders fail
	// cleanly when nil.
	Browser *Browser

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.PandocPath == "" {
		c.PandocPath = "pandoc"
	}
	if c.PDFEngine == "" {
		c.PDFEngine = "wkhtmltopdf"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates a Renderer.
func New(cfg Config) (*Renderer, error) {
	cfg.defaults()
	if cfg.Store == nil {
		return nil, fmt.Errorf("render: store is required")
	}
	return &Renderer{cfg: cfg, store: cfg.Store, browser: cfg.Browser, logger: cfg.Logger}, nil
}

// Render converts content (plain or markdown-style text) into the target
// format and returns the resulting artifact.
func (r *Renderer) Render(ctx context.Context, content, formatID, title string) (*artifact.Artifact, error) {
	desc, err := format.Describe(formatID)
	if err != nil {
		return nil, renderErr(formatID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, renderErr(desc.ID, err)
	}

	outPath, err := r.store.NewPath(title, desc.ID)
	if err != nil {
		return nil, renderErr(desc.ID, err)
	}

	r.logger.Debug("rendering", "format", desc.ID, "path", outPath, "chars", len(content))

	switch desc.ID {
	case "pdf", "docx", "doc", "rtf", "odt", "pptx", "ppt", "odp":
		err = r.renderDocument(ctx, content, desc.ID, outPath)
	case "xlsx", "xls", "csv", "tsv", "ods":
		err = r.renderTabular(content, desc.ID, outPath)
	case "jpg", "jpeg", "png", "bmp", "tiff", "gif":
		err = r.renderImage(ctx, content, desc.ID, title, outPath)
	case "md", "html", "xml", "txt", "ics", "vcf", "eml", "mbox":
		err = r.renderMarkup(content, desc.ID, title, outPath)
	case "zip", "tar.gz":
		err = r.renderArchive(content, desc.ID, title, outPath)
	default:
		err = fmt.Errorf("no encoder for format %q", desc.ID)
	}
	if err != nil {
		if _, ok := err.(*Error); ok {
			return nil, err
		}
		return nil, renderErr(desc.ID, err)
	}

	return &artifact.Artifact{
		Path:         outPath,
		Format:       desc.ID,
		Preservation: artifact.PreservationFull,
	}, nil
}
