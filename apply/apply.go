// CLAUDE:SUMMARY Format-specific appliers: one applier per handling strategy, never overwriting the source file.
// Package apply executes a modification plan against a source file. One
// applier exists per format strategy:
//
//   - direct binary (docx, odt): rewrite the package's content stream in
//     place, preserving surrounding markup
//   - spreadsheet (xlsx, csv, tsv): cell-level writes by coordinate
//   - text-based (txt, md, html, ...): literal global find/replace
//   - extract-modify-export (pdf, pptx, ...): full oracle rewrite plus
//     re-render, with degraded preservation
//
// Every applier writes its result to a freshly derived output path. The
// source file is never modified, so a failed run cannot corrupt user data.
package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/docforge/artifact"
	"github.com/hazyhaar/docforge/extract"
	"github.com/hazyhaar/docforge/format"
	"github.com/hazyhaar/docforge/oracle"
	"github.com/hazyhaar/docforge/plan"
	"github.com/hazyhaar/docforge/render"
)

var (
	// ErrUnsupportedModification means the format's strategy does not
	// allow in-place modification at all.
	ErrUnsupportedModification = errors.New("format does not support modification")

	// ErrDirectEditFailed means both the structured edit and the simple
	// paragraph-replacement fallback failed.
	ErrDirectEditFailed = errors.New("direct edit failed")
)

// UnsupportedError wraps ErrUnsupportedModification with a suggestion the
// chat layer can relay to the user.
type UnsupportedError struct {
	Format         string
	Recommendation string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s files cannot be modified in place", e.Format)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedModification }

// Request describes one modification run.
type Request struct {
	// SourcePath is the original file. It is read, never written.
	SourcePath string

	// Format is the declared format id of the source file.
	Format string

	// Instruction is the user's modification request. Used by the
	// extract-modify-export applier, which rewrites the whole body.
	Instruction string

	// Plan carries validated change instructions. Required for the
	// direct, spreadsheet and text strategies; ignored by
	// extract-modify-export.
	Plan *plan.Plan

	// Title seeds the output filename.
	Title string
}

// Applier dispatches modification runs to the per-strategy editors.
type Applier struct {
	cfg       Config
	store     *artifact.Store
	extractor *extract.Extractor
	renderer  *render.Renderer
	oracle    oracle.Client
	logger    *slog.Logger
}

// Config configures an Applier.
type Config struct {
	// Store allocates output paths. Required.
	Store *artifact.Store

	// Extractor and Oracle feed the extract-modify-export applier.
	Extractor *extract.Extractor
	Oracle    oracle.Client

	// Renderer re-serializes rewritten content. Required.
	Renderer *render.Renderer

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates an Applier.
func New(cfg Config) (*Applier, error) {
	cfg.defaults()
	if cfg.Store == nil {
		return nil, errors.New("apply: store is required")
	}
	if cfg.Renderer == nil {
		return nil, errors.New("apply: renderer is required")
	}
	return &Applier{
		cfg:       cfg,
		store:     cfg.Store,
		extractor: cfg.Extractor,
		renderer:  cfg.Renderer,
		oracle:    cfg.Oracle,
		logger:    cfg.Logger,
	}, nil
}

// Apply runs the modification and returns the new artifact. The source
// file is left byte-identical in every outcome.
func (a *Applier) Apply(ctx context.Context, req Request) (*artifact.Artifact, error) {
	desc, err := format.Describe(req.Format)
	if err != nil {
		return nil, err
	}

	if !desc.Strategy.Modifiable() {
		return nil, &UnsupportedError{
			Format: desc.ID,
			Recommendation: fmt.Sprintf(
				"%s files cannot be edited directly. Export the content to a modifiable format such as docx or md first, then apply the change there.",
				desc.Label),
		}
	}

	a.logger.Info("applying modification",
		"format", desc.ID, "strategy", desc.Strategy, "source", req.SourcePath)

	switch desc.Strategy {
	case format.DirectBinary:
		switch desc.ID {
		case "xlsx":
			return a.applySheet(ctx, req, desc)
		default:
			return a.applyOffice(ctx, req, desc)
		}
	case format.TextBased:
		if desc.ID == "csv" || desc.ID == "tsv" {
			if hasCellChanges(req.Plan) {
				return a.applySheet(ctx, req, desc)
			}
		}
		return a.applyText(req, desc)
	case format.ExtractModifyExport:
		return a.applyRerender(ctx, req, desc)
	}
	return nil, fmt.Errorf("no applier for strategy %q", desc.Strategy)
}

func hasCellChanges(p *plan.Plan) bool {
	if p == nil {
		return false
	}
	for _, ch := range p.Changes {
		if ch.IsCell {
			return true
		}
	}
	return false
}

func planRequired(p *plan.Plan) error {
	if p == nil || len(p.Changes) == 0 {
		return plan.ErrNoValidChanges
	}
	return nil
}
