// CLAUDE:SUMMARY Export/document classifiers: deterministic rules first, constrained oracle fallback, safe defaults.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/docforge/format"
	"github.com/hazyhaar/docforge/oracle"
)

// DefaultExportType is used when the oracle names a format the registry
// does not know.
const DefaultExportType = "docx"

// Classifier resolves message intent. The oracle is optional: with a nil
// client only the deterministic phase runs.
type Classifier struct {
	oracle oracle.Client
	logger *slog.Logger
}

// Config configures a Classifier.
type Config struct {
	Oracle oracle.Client
	Logger *slog.Logger
}

// New creates a Classifier.
func New(cfg Config) *Classifier {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Classifier{oracle: cfg.Oracle, logger: cfg.Logger}
}

// ClassifyExport determines whether a message requests an export and into
// which format. Deterministic phase first: an explicit format mention plus
// an export verb decides immediately. Otherwise, if export wording is
// present, the oracle picks the format from the registered ids. Oracle
// errors and unregistered answers degrade to DefaultExportType; they never
// propagate.
//
// Tie-break (deterministic wins): if the rule phase detected a content
// request, an oracle claim of "pure export" is ignored. The oracle can only
// upgrade HasContentRequest from false to true, never downgrade it.
func (c *Classifier) ClassifyExport(ctx context.Context, message string) ExportIntent {
	formatID := matchFormat(message)
	exportVerb := hasExportVerb(message)
	contentVerb := hasContentVerb(message)

	if formatID != "" && (exportVerb || contentVerb) {
		return ExportIntent{
			IsExport:          true,
			IsPureExport:      !contentVerb,
			HasContentRequest: contentVerb,
			ExportType:        formatID,
			Confidence:        0.95,
		}
	}

	if !exportVerb {
		// No export wording at all: not an export request.
		return ExportIntent{}
	}

	// Export wording without a recognizable format: ask the oracle,
	// constrained to registered ids.
	out := ExportIntent{
		IsExport:          true,
		IsPureExport:      !contentVerb,
		HasContentRequest: contentVerb,
		ExportType:        DefaultExportType,
		Confidence:        0.4,
	}
	if c.oracle == nil {
		return out
	}

	answer, err := c.askExportFormat(ctx, message)
	if err != nil {
		c.logger.Warn("export format fallback to default", "error", err)
		return out
	}
	if format.Known(answer.Format) {
		out.ExportType = format.Normalize(answer.Format)
		out.Confidence = 0.7
	}
	if answer.NeedsContent && !out.HasContentRequest {
		out.HasContentRequest = true
		out.IsPureExport = false
	}
	return out
}

type exportFormatAnswer struct {
	Format       string `json:"format"`
	NeedsContent bool   `json:"needs_content"`
}

func (c *Classifier) askExportFormat(ctx context.Context, message string) (exportFormatAnswer, error) {
	prompt := fmt.Sprintf(
		"A user wants a file exported. Pick the best target format for this request.\n"+
			"Allowed formats: %s\n"+
			"Reply with JSON only: {\"format\": \"<id>\", \"needs_content\": <true if new content must be written before exporting>}\n\n"+
			"Request: %s",
		strings.Join(format.IDs(), ", "), message)

	raw, err := c.oracle.Complete(ctx, oracle.Request{
		Tier:        oracle.TierFast,
		Temperature: 0,
		MaxTokens:   100,
		JSONOutput:  true,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Content: "You classify file export requests. Answer with JSON only."},
			{Role: oracle.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return exportFormatAnswer{}, err
	}

	var ans exportFormatAnswer
	if err := json.Unmarshal([]byte(extractJSON(raw)), &ans); err != nil {
		return exportFormatAnswer{}, fmt.Errorf("unparseable oracle answer: %w", err)
	}
	return ans, nil
}

// ClassifyDocument decides what a message wants done with an uploaded
// document. Deterministic verb rules first; ambiguous messages go to the
// oracle. Every failure path defaults to ActionAnalyze, the least
// destructive choice.
func (c *Classifier) ClassifyDocument(ctx context.Context, message string) DocumentIntent {
	modify := modifyVerbRe.MatchString(message)
	analyze := analyzeVerbRe.MatchString(message)
	export := hasExportVerb(message)

	switch {
	case modify && !analyze:
		return DocumentIntent{Intent: ActionModify, Confidence: 0.9}
	case export && !modify && !analyze:
		return DocumentIntent{Intent: ActionExport, Confidence: 0.9}
	case analyze && !modify:
		return DocumentIntent{Intent: ActionAnalyze, Confidence: 0.9}
	}

	if c.oracle == nil {
		return DocumentIntent{Intent: ActionAnalyze, Confidence: 0.3}
	}

	raw, err := c.oracle.Complete(ctx, oracle.Request{
		Tier:        oracle.TierFast,
		Temperature: 0,
		MaxTokens:   50,
		JSONOutput:  true,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Content: "You classify document requests. Answer with JSON only."},
			{Role: oracle.RoleUser, Content: fmt.Sprintf(
				"Does this message ask to analyze, modify, or export a document?\n"+
					"Reply with JSON only: {\"intent\": \"analyze\"|\"modify\"|\"export\"}\n\nMessage: %s", message)},
		},
	})
	if err != nil {
		c.logger.Warn("document intent fallback to analyze", "error", err)
		return DocumentIntent{Intent: ActionAnalyze, Confidence: 0.3}
	}

	var ans struct {
		Intent string `json:"intent"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &ans); err != nil {
		c.logger.Warn("document intent unparseable, fallback to analyze", "error", err)
		return DocumentIntent{Intent: ActionAnalyze, Confidence: 0.3}
	}
	switch DocAction(strings.ToLower(ans.Intent)) {
	case ActionModify:
		return DocumentIntent{Intent: ActionModify, Confidence: 0.7}
	case ActionExport:
		return DocumentIntent{Intent: ActionExport, Confidence: 0.7}
	default:
		return DocumentIntent{Intent: ActionAnalyze, Confidence: 0.7}
	}
}

// extractJSON pulls the outermost JSON object out of an oracle reply that
// may be wrapped in prose or a code fence.
func extractJSON(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
