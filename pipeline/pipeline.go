// CLAUDE:SUMMARY Orchestrator: classify, extract, plan, apply or export per chat turn.
// Package pipeline wires the export and modification components into one
// per-turn run. Each turn is an independent unit of work: classification
// decides the route, the modify route goes extract, plan, apply, and the
// export route renders from the conversation's snapshot or freshly
// generated content. Every failure beyond classification comes back as a
// structured Result instead of an error, so the chat turn can continue
// with an explanation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/docforge/apply"
	"github.com/hazyhaar/docforge/artifact"
	"github.com/hazyhaar/docforge/convo"
	"github.com/hazyhaar/docforge/extract"
	"github.com/hazyhaar/docforge/format"
	"github.com/hazyhaar/docforge/intent"
	"github.com/hazyhaar/docforge/oracle"
	"github.com/hazyhaar/docforge/plan"
	"github.com/hazyhaar/docforge/render"
)

// Turn is one chat-driven pipeline request.
type Turn struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`

	// SourcePath and SourceFormat describe an attached document, when the
	// turn operates on one.
	SourcePath   string `json:"source_path,omitempty"`
	SourceFormat string `json:"source_format,omitempty"`

	// Title seeds the output filename. Defaults to "Document".
	Title string `json:"title,omitempty"`
}

// Result is the structured outcome of a turn. Failures carry an error
// code from the pipeline taxonomy plus a user-facing recommendation, never
// a raw error across the chat boundary.
type Result struct {
	Success        bool               `json:"success"`
	Artifact       *artifact.Artifact `json:"artifact,omitempty"`
	Error          string             `json:"error,omitempty"`
	Recommendation string             `json:"recommendation,omitempty"`
	Message        string             `json:"message,omitempty"`
}

// Error codes surfaced in Result.Error.
const (
	CodeUnknownFormat    = "unknown_format"
	CodeExtractionFailed = "extraction_failed"
	CodeNoValidChanges   = "no_valid_changes"
	CodeDirectEditFailed = "direct_edit_failed"
	CodeUnsupported      = "unsupported_modification"
	CodeRenderFailed     = "render_failed"
	CodeInternal         = "internal"
)

// SnapshotBuilder renders a conversation's exportable content. Injected so
// tests can count invocations.
type SnapshotBuilder func(ctx context.Context, messages []convo.Message) (string, error)

// DefaultSnapshotBuilder joins assistant messages oldest-first.
func DefaultSnapshotBuilder(_ context.Context, messages []convo.Message) (string, error) {
	var parts []string
	for _, m := range messages {
		if m.Sender == "assistant" {
			parts = append(parts, m.Body)
		}
	}
	if len(parts) == 0 {
		return "", errors.New("conversation has no exportable content")
	}
	return strings.Join(parts, "\n\n"), nil
}

// Pipeline orchestrates one turn at a time. Safe for concurrent use: all
// per-turn state lives on the stack, and snapshot races resolve
// last-writer-wins in the store.
type Pipeline struct {
	cfg        Config
	classifier *intent.Classifier
	extractor  *extract.Extractor
	planner    *plan.Planner
	applier    *apply.Applier
	renderer   *render.Renderer
	store      *convo.Store
	buildSnap  SnapshotBuilder
	oracle     oracle.Client
	logger     *slog.Logger
}

// Config configures a Pipeline. All components are required except
// Snapshot, which defaults to DefaultSnapshotBuilder, and Oracle, which is
// only needed for content-creation exports.
type Config struct {
	Classifier *intent.Classifier
	Extractor  *extract.Extractor
	Planner    *plan.Planner
	Applier    *apply.Applier
	Renderer   *render.Renderer
	Store      *convo.Store
	Snapshot   SnapshotBuilder
	Oracle     oracle.Client

	Logger *slog.Logger `json:"-" yaml:"-"`
}

// New creates a Pipeline.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Classifier == nil || cfg.Extractor == nil || cfg.Planner == nil ||
		cfg.Applier == nil || cfg.Renderer == nil || cfg.Store == nil {
		return nil, errors.New("pipeline: all components are required")
	}
	if cfg.Snapshot == nil {
		cfg.Snapshot = DefaultSnapshotBuilder
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		cfg:        cfg,
		classifier: cfg.Classifier,
		extractor:  cfg.Extractor,
		planner:    cfg.Planner,
		applier:    cfg.Applier,
		renderer:   cfg.Renderer,
		store:      cfg.Store,
		buildSnap:  cfg.Snapshot,
		oracle:     cfg.Oracle,
		logger:     cfg.Logger,
	}, nil
}

// Run executes one turn. It never returns an error for in-pipeline
// failures; those are reported in the Result. An error return means the
// turn could not be routed at all (e.g. cancelled context).
func (p *Pipeline) Run(ctx context.Context, turn Turn) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if turn.Title == "" {
		turn.Title = "Document"
	}

	exportIntent := p.classifier.ClassifyExport(ctx, turn.Message)

	if turn.SourcePath != "" {
		docIntent := p.classifier.ClassifyDocument(ctx, turn.Message)
		p.logger.Info("document turn classified",
			"action", docIntent.Intent, "confidence", docIntent.Confidence)
		switch docIntent.Intent {
		case intent.ActionModify:
			return p.runModify(ctx, turn), nil
		case intent.ActionExport:
			return p.runDocumentExport(ctx, turn, exportIntent), nil
		default:
			// Analysis is answered by the chat layer directly; nothing for
			// the pipeline to produce.
			return &Result{Success: true, Message: "document analysis requested, no artifact produced"}, nil
		}
	}

	if !exportIntent.IsExport {
		return &Result{Success: true, Message: "no export intent detected"}, nil
	}
	return p.runConversationExport(ctx, turn, exportIntent), nil
}

// runModify is the extract, plan, apply route for an attached document.
func (p *Pipeline) runModify(ctx context.Context, turn Turn) *Result {
	desc, err := format.Describe(turn.SourceFormat)
	if err != nil {
		return failure(err, "check the file extension; this format is not supported")
	}

	// Non-modifiable formats fail before any extraction work.
	if !desc.Strategy.Modifiable() {
		_, err := p.applier.Apply(ctx, apply.Request{
			SourcePath: turn.SourcePath,
			Format:     desc.ID,
			Title:      turn.Title,
		})
		return failure(err, "")
	}

	var modPlan *plan.Plan
	if desc.Strategy != format.ExtractModifyExport {
		doc, err := p.extractor.Extract(ctx, turn.SourcePath, desc.ID)
		if err != nil {
			return failure(err, "the document content could not be read")
		}
		modPlan, err = p.planner.Build(ctx, doc, turn.Message)
		if err != nil {
			return failure(err, "")
		}
	}

	art, err := p.applier.Apply(ctx, apply.Request{
		SourcePath:  turn.SourcePath,
		Format:      desc.ID,
		Instruction: turn.Message,
		Plan:        modPlan,
		Title:       turn.Title,
	})
	if err != nil {
		return failure(err, "")
	}

	msg := "document modified"
	if modPlan != nil && modPlan.Explanation != "" {
		msg = modPlan.Explanation
	}
	return &Result{Success: true, Artifact: art, Message: msg}
}

// runDocumentExport converts an attached document into the requested
// format: extract, then re-render.
func (p *Pipeline) runDocumentExport(ctx context.Context, turn Turn, ei intent.ExportIntent) *Result {
	doc, err := p.extractor.Extract(ctx, turn.SourcePath, turn.SourceFormat)
	if err != nil {
		return failure(err, "the document content could not be read")
	}

	target := ei.ExportType
	if target == "" {
		target = intent.DefaultExportType
	}
	art, err := p.renderer.Render(ctx, doc.PlainText, target, turn.Title)
	if err != nil {
		return failure(err, "")
	}
	return &Result{Success: true, Artifact: art, Message: fmt.Sprintf("exported as %s", target)}
}

// runConversationExport renders conversation content (cached snapshot,
// scoped messages, or freshly generated content) into the target format.
func (p *Pipeline) runConversationExport(ctx context.Context, turn Turn, ei intent.ExportIntent) *Result {
	var content string
	var err error

	switch {
	case ei.HasContentRequest:
		content, err = p.generateContent(ctx, turn.Message)
		if err != nil {
			return failure(err, "content generation failed, try rephrasing the request")
		}
	default:
		content, err = p.exportableContent(ctx, turn)
		if err != nil {
			return failure(err, "there is no conversation content to export yet")
		}
	}

	art, err := p.renderer.Render(ctx, content, ei.ExportType, turn.Title)
	if err != nil {
		return failure(err, "")
	}
	return &Result{Success: true, Artifact: art, Message: fmt.Sprintf("exported as %s", ei.ExportType)}
}

// exportableContent resolves the content for a pure export. Whole-
// conversation exports go through the snapshot cache; narrower scopes read
// messages directly.
func (p *Pipeline) exportableContent(ctx context.Context, turn Turn) (string, error) {
	scope := intent.DetectScope(turn.Message)

	if scope == intent.ScopeAll {
		if cached, ok, err := p.store.ExportSnapshot(ctx, turn.ConversationID); err != nil {
			return "", err
		} else if ok {
			p.logger.Debug("export served from snapshot", "conversation", turn.ConversationID)
			return cached, nil
		}

		messages, err := p.store.Messages(ctx, turn.ConversationID, 0, convo.OldestFirst)
		if err != nil {
			return "", err
		}
		built, err := p.buildSnap(ctx, messages)
		if err != nil {
			return "", err
		}
		if err := p.store.SetExportSnapshot(ctx, turn.ConversationID, built); err != nil {
			// A failed cache write is not fatal; the content is still good.
			p.logger.Warn("snapshot cache write failed", "error", err)
		}
		return built, nil
	}

	// The tail of a conversation can be an unbroken run of user messages,
	// so scan the whole history newest-first for assistant answers.
	messages, err := p.store.Messages(ctx, turn.ConversationID, 0, convo.NewestFirst)
	if err != nil {
		return "", err
	}
	var fromAssistant []string
	for _, m := range messages {
		if m.Sender == "assistant" {
			fromAssistant = append(fromAssistant, m.Body)
		}
	}
	if len(fromAssistant) == 0 {
		return "", errors.New("conversation has no exportable content")
	}
	idx := 0
	if scope == intent.ScopePrevious && len(fromAssistant) > 1 {
		idx = 1
	}
	return fromAssistant[idx], nil
}

// generateContent asks the oracle for fresh document content before an
// export that requires it.
func (p *Pipeline) generateContent(ctx context.Context, message string) (string, error) {
	if p.oracle == nil {
		return "", errors.New("content generation needs an oracle")
	}
	content, err := p.oracle.Complete(ctx, oracle.Request{
		Tier:        oracle.TierDeep,
		Temperature: 0.7,
		MaxTokens:   4000,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Content: "You write documents. Reply with the requested document as markdown, " +
				"using headings, lists and pipe tables where appropriate. No commentary."},
			{Role: oracle.RoleUser, Content: message},
		},
	})
	if err != nil {
		return "", err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New("oracle returned empty content")
	}
	return content, nil
}

// failure maps an internal error to the structured failure taxonomy.
func failure(err error, recommendation string) *Result {
	res := &Result{Success: false, Error: CodeInternal, Recommendation: recommendation, Message: err.Error()}

	var uerr *apply.UnsupportedError
	switch {
	case errors.As(err, &uerr):
		res.Error = CodeUnsupported
		res.Recommendation = uerr.Recommendation
	case errors.Is(err, format.ErrUnknownFormat):
		res.Error = CodeUnknownFormat
	case errors.Is(err, extract.ErrExtractionFailed):
		res.Error = CodeExtractionFailed
	case errors.Is(err, plan.ErrNoValidChanges):
		res.Error = CodeNoValidChanges
		res.Message = "nothing to change"
		if res.Recommendation == "" {
			res.Recommendation = "no requested change matched the document content"
		}
	case errors.Is(err, apply.ErrDirectEditFailed):
		res.Error = CodeDirectEditFailed
	default:
		var rerr *render.Error
		if errors.As(err, &rerr) {
			res.Error = CodeRenderFailed
		}
	}
	return res
}
