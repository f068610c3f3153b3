// CLAUDE:SUMMARY Extract-modify-export applier: full oracle rewrite re-rendered from scratch.
package apply

import (
	"context"
	"fmt"
	"strings"

	"github.com/hazyhaar/docforge/artifact"
	"github.com/hazyhaar/docforge/format"
	"github.com/hazyhaar/docforge/oracle"
)

// applyRerender handles formats where structural re-anchoring is
// unreliable (pdf, presentations, legacy office). It extracts the text,
// asks the oracle for a fully rewritten body, and re-renders the result
// from scratch. The artifact's preservation level is partial at best.
func (a *Applier) applyRerender(ctx context.Context, req Request, desc format.Descriptor) (*artifact.Artifact, error) {
	if a.extractor == nil || a.oracle == nil {
		return nil, fmt.Errorf("apply: rewrite path needs extractor and oracle")
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, fmt.Errorf("apply: rewrite path needs an instruction")
	}

	doc, err := a.extractor.Extract(ctx, req.SourcePath, desc.ID)
	if err != nil {
		return nil, err
	}

	rewritten, err := a.oracle.Complete(ctx, oracle.Request{
		Tier:        oracle.TierDeep,
		Temperature: 0.7,
		MaxTokens:   4000,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Content: "You rewrite documents. Reply with the complete modified document " +
				"body as markdown, nothing else. Keep all content the user did not ask to change."},
			{Role: oracle.RoleUser, Content: fmt.Sprintf(
				"Document content:\n---\n%s\n---\n\nRequested modification: %s", doc.PlainText, req.Instruction)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("apply: oracle rewrite: %w", err)
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return nil, fmt.Errorf("apply: oracle returned an empty rewrite")
	}

	art, err := a.renderer.Render(ctx, rewritten, desc.ID, req.Title)
	if err != nil {
		return nil, err
	}

	// Layout, styling and embedded objects do not survive the round trip.
	art.Preservation = artifact.PreservationPartial
	if doc.Meta.HasImages || doc.Meta.HasTables {
		art.Preservation = artifact.PreservationNone
	}
	a.logger.Info("rewrote document through re-render",
		"format", desc.ID, "preservation", art.Preservation)
	return art, nil
}
