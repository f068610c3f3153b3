// CLAUDE:SUMMARY Intent types: export intent, document intent, and export scope.
// Package intent classifies chat messages ahead of the export pipeline:
// is the user asking to export, to create content, or to modify a document,
// and into which format. Deterministic keyword rules run first; the oracle
// is only consulted for ambiguous cases and every oracle failure falls back
// to a safe default so classification never blocks a chat turn.
package intent

// ExportIntent is the result of export classification for one message.
type ExportIntent struct {
	IsExport bool `json:"is_export"`
	// IsPureExport means existing content should be exported as-is.
	// Mutually exclusive with HasContentRequest by construction.
	IsPureExport      bool    `json:"is_pure_export"`
	HasContentRequest bool    `json:"has_content_request"`
	ExportType        string  `json:"export_type"`
	Confidence        float64 `json:"confidence"`
}

// DocumentIntent classifies what a message wants done with a document.
type DocumentIntent struct {
	Intent     DocAction `json:"intent"`
	Confidence float64   `json:"confidence"`
}

// DocAction enumerates what can be done with an uploaded document.
type DocAction string

const (
	ActionAnalyze DocAction = "analyze"
	ActionModify  DocAction = "modify"
	ActionExport  DocAction = "export"
)

// Scope selects how much of a conversation an export covers.
type Scope string

const (
	ScopeCurrent  Scope = "current"
	ScopePrevious Scope = "previous"
	ScopeAll      Scope = "all"
)
