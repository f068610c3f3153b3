// CLAUDE:SUMMARY Text-based applier: literal global find/replace on raw file content.
package apply

import (
	"strings"

	"github.com/hazyhaar/docforge/artifact"
	"github.com/hazyhaar/docforge/format"
	"github.com/hazyhaar/docforge/plan"
)

// applyText performs literal, global find/replace on the raw content and
// writes the result verbatim to a new path. Instructions apply in plan
// order; later instructions see the text left by earlier ones.
func (a *Applier) applyText(req Request, desc format.Descriptor) (*artifact.Artifact, error) {
	if err := planRequired(req.Plan); err != nil {
		return nil, err
	}

	data, err := readFileBytes(req.SourcePath)
	if err != nil {
		return nil, err
	}

	content := string(data)
	applied := 0
	for _, ch := range req.Plan.Changes {
		if ch.IsCell || ch.Find == "" {
			continue
		}
		if !strings.Contains(content, ch.Find) {
			a.logger.Warn("find text absent at apply time", "find", truncate(ch.Find, 60))
			continue
		}
		content = strings.ReplaceAll(content, ch.Find, ch.Replace)
		applied++
	}
	if applied == 0 {
		return nil, plan.ErrNoValidChanges
	}

	outPath, err := a.store.NewPath(req.Title, desc.ID)
	if err != nil {
		return nil, err
	}
	if err := artifact.WriteFileAtomic(outPath, []byte(content)); err != nil {
		return nil, err
	}

	return &artifact.Artifact{
		Path:         outPath,
		Format:       desc.ID,
		Preservation: artifact.PreservationFull,
	}, nil
}
