// CLAUDE:SUMMARY Modification planner: oracle-proposed find/replace pairs, locally validated before use.
// Package plan turns a user instruction plus an extracted document into an
// ordered list of exact change instructions. The oracle proposes changes;
// validation is always performed locally and never trusted to the oracle.
package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/docforge/extract"
	"github.com/hazyhaar/docforge/oracle"
)

// ErrNoValidChanges means the plan was empty or no instruction survived
// validation. Recoverable: the caller reports "nothing to change".
var ErrNoValidChanges = errors.New("no valid changes")

// Change is one validated modification instruction. Either a find/replace
// pair on plain text, or a cell write when IsCell is set.
type Change struct {
	Find    string `json:"find"`
	Replace string `json:"replace"`
	// Cell coordinates, zero-based. Meaningful only when IsCell.
	Row    int  `json:"row,omitempty"`
	Col    int  `json:"col,omitempty"`
	IsCell bool `json:"is_cell,omitempty"`
}

// Plan is the validated output of one planning run. Consumed exactly once
// by one applier; application order is plan order.
type Plan struct {
	Changes     []Change `json:"changes"`
	Explanation string   `json:"explanation"`
	// Rejected counts oracle proposals dropped by local validation.
	Rejected int `json:"rejected"`
}

// Planner builds modification plans.
type Planner struct {
	cfg    Config
	oracle oracle.Client
	logger *slog.Logger
}

// Config configures a Planner.
type Config struct {
	Oracle oracle.Client

	// MaxSourceChars bounds how much extracted text is sent to the oracle.
	// Default: 24000.
	MaxSourceChars int `json:"max_source_chars" yaml:"max_source_chars"`

	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxSourceChars <= 0 {
		c.MaxSourceChars = 24_000
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// New creates a Planner.
func New(cfg Config) *Planner {
	cfg.defaults()
	return &Planner{cfg: cfg, oracle: cfg.Oracle, logger: cfg.Logger}
}

// oracleChange mirrors the JSON shape the oracle is instructed to return.
type oracleChange struct {
	Find    string `json:"find"`
	Replace string `json:"replace"`
	Row     *int   `json:"row,omitempty"`
	Col     *int   `json:"col,omitempty"`
}

type oraclePlan struct {
	Changes     []oracleChange `json:"changes"`
	Explanation string         `json:"explanation"`
}

// Build asks the oracle for change instructions and validates each one
// against the extracted document. Instructions whose find text does not
// occur verbatim (or whose cell coordinate is out of range) are dropped,
// not fatal. Zero survivors yields ErrNoValidChanges.
func (p *Planner) Build(ctx context.Context, doc *extract.Document, instruction string) (*Plan, error) {
	if p.oracle == nil {
		return nil, errors.New("plan: no oracle configured")
	}

	source := doc.PlainText
	if len(source) > p.cfg.MaxSourceChars {
		source = source[:p.cfg.MaxSourceChars]
	}

	raw, err := p.oracle.Complete(ctx, oracle.Request{
		Tier:        oracle.TierDeep,
		Temperature: 0,
		MaxTokens:   2000,
		JSONOutput:  true,
		Messages: []oracle.Message{
			{Role: oracle.RoleSystem, Content: plannerSystemPrompt(doc.Rows != nil)},
			{Role: oracle.RoleUser, Content: fmt.Sprintf(
				"Document content:\n---\n%s\n---\n\nRequested modification: %s", source, instruction)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("plan: oracle: %w", err)
	}

	var proposed oraclePlan
	if err := json.Unmarshal([]byte(extractJSON(raw)), &proposed); err != nil {
		return nil, fmt.Errorf("plan: unparseable oracle plan: %w", err)
	}

	out := &Plan{Explanation: strings.TrimSpace(proposed.Explanation)}
	for _, ch := range proposed.Changes {
		change, ok := p.validate(doc, ch)
		if !ok {
			out.Rejected++
			continue
		}
		out.Changes = append(out.Changes, change)
	}

	p.logger.Debug("plan built",
		"proposed", len(proposed.Changes), "accepted", len(out.Changes), "rejected", out.Rejected)

	if len(out.Changes) == 0 {
		return nil, ErrNoValidChanges
	}
	return out, nil
}

// validate enforces the local acceptance rules: a cell change must address
// an in-range coordinate; a text change must name a non-empty find string
// that occurs verbatim in the source text.
func (p *Planner) validate(doc *extract.Document, ch oracleChange) (Change, bool) {
	if ch.Row != nil && ch.Col != nil {
		r, c := *ch.Row, *ch.Col
		if r < 0 || r >= len(doc.Rows) {
			p.logger.Warn("plan: cell row out of range", "row", r, "rows", len(doc.Rows))
			return Change{}, false
		}
		// One column past the current row width is allowed: the applier
		// treats it as an append.
		if c < 0 || c > len(doc.Rows[r]) {
			p.logger.Warn("plan: cell column out of range", "row", r, "col", c)
			return Change{}, false
		}
		return Change{Replace: ch.Replace, Row: r, Col: c, IsCell: true}, true
	}

	if ch.Find == "" {
		p.logger.Warn("plan: empty find text dropped")
		return Change{}, false
	}
	if !strings.Contains(doc.PlainText, ch.Find) {
		p.logger.Warn("plan: find text not present in source", "find", truncate(ch.Find, 80))
		return Change{}, false
	}
	return Change{Find: ch.Find, Replace: ch.Replace}, true
}

func plannerSystemPrompt(tabular bool) string {
	if tabular {
		return "You plan spreadsheet modifications. Reply with JSON only:\n" +
			`{"changes": [{"row": <zero-based row>, "col": <zero-based column>, "replace": "<new cell value>"}], "explanation": "<one sentence>"}` + "\n" +
			"Use row/col coordinates from the document as shown (first line is row 0). Do not invent rows that are not present."
	}
	return "You plan text modifications. Reply with JSON only:\n" +
		`{"changes": [{"find": "<exact verbatim fragment from the document>", "replace": "<replacement>"}], "explanation": "<one sentence>"}` + "\n" +
		"Every find value must be copied verbatim from the document, never paraphrased. Keep each find fragment short but unambiguous."
}

func extractJSON(raw string) string {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
