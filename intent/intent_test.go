package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/hazyhaar/docforge/oracle"
)

func TestClassifyExportPure(t *testing.T) {
	c := New(Config{})
	got := c.ClassifyExport(context.Background(), "export this as PDF")

	if !got.IsExport {
		t.Fatal("expected IsExport")
	}
	if !got.IsPureExport {
		t.Error("expected IsPureExport")
	}
	if got.HasContentRequest {
		t.Error("expected no content request")
	}
	if got.ExportType != "pdf" {
		t.Errorf("ExportType = %q, want pdf", got.ExportType)
	}
}

func TestClassifyExportWithContent(t *testing.T) {
	c := New(Config{})
	got := c.ClassifyExport(context.Background(), "create a quarterly report with tables and export it as rtf")

	if !got.IsExport {
		t.Fatal("expected IsExport")
	}
	if got.IsPureExport {
		t.Error("IsPureExport must be false when content is requested")
	}
	if !got.HasContentRequest {
		t.Error("expected HasContentRequest")
	}
	if got.ExportType != "rtf" {
		t.Errorf("ExportType = %q, want rtf", got.ExportType)
	}
}

func TestClassifyExportPriorityOrder(t *testing.T) {
	c := New(Config{})

	// Explicit docx mention wins over generic export wording.
	got := c.ClassifyExport(context.Background(), "export this as a docx please, any export will do")
	if got.ExportType != "docx" {
		t.Errorf("ExportType = %q, want docx", got.ExportType)
	}

	// "xlsx" must not be shadowed by the shorter "xls".
	got = c.ClassifyExport(context.Background(), "save this as xlsx")
	if got.ExportType != "xlsx" {
		t.Errorf("ExportType = %q, want xlsx", got.ExportType)
	}

	got = c.ClassifyExport(context.Background(), "download as tar.gz")
	if got.ExportType != "tar.gz" {
		t.Errorf("ExportType = %q, want tar.gz", got.ExportType)
	}
}

func TestClassifyExportExplicitNameBeatsSynonym(t *testing.T) {
	c := New(Config{})

	// A synonym describing the source must not shadow the named target.
	tests := []struct {
		message string
		want    string
	}{
		{"export my presentation as pdf", "pdf"},
		{"convert the spreadsheet to pdf", "pdf"},
		{"save the slides as pptx", "pptx"},
		{"export my notes as a spreadsheet", "xlsx"},
		{"turn this into an excel workbook", "xlsx"},
	}
	for _, tt := range tests {
		got := c.ClassifyExport(context.Background(), tt.message)
		if got.ExportType != tt.want {
			t.Errorf("ClassifyExport(%q) = %q, want %q", tt.message, got.ExportType, tt.want)
		}
	}
}

func TestClassifyExportMakeFileIsPure(t *testing.T) {
	c := New(Config{})

	got := c.ClassifyExport(context.Background(), "make me a file with this conversation")
	if !got.IsExport {
		t.Fatalf("got %+v, want export intent", got)
	}
	if got.HasContentRequest || !got.IsPureExport {
		t.Errorf("packaging request misread as content creation: %+v", got)
	}

	got = c.ClassifyExport(context.Background(), "make me a summary and export it as pdf")
	if !got.HasContentRequest || got.IsPureExport {
		t.Errorf("content request lost: %+v", got)
	}
}

func TestClassifyExportNoIntent(t *testing.T) {
	c := New(Config{})
	got := c.ClassifyExport(context.Background(), "what is the weather like today?")
	if got.IsExport {
		t.Fatalf("unexpected export intent: %+v", got)
	}
}

func TestClassifyExportOracleFallback(t *testing.T) {
	// No format mention: the oracle picks one from the registry.
	oc := oracle.Func(func(ctx context.Context, req oracle.Request) (string, error) {
		return `{"format": "csv", "needs_content": false}`, nil
	})
	c := New(Config{Oracle: oc})
	got := c.ClassifyExport(context.Background(), "can you export that for me into something tabular")
	if !got.IsExport || got.ExportType != "csv" {
		t.Fatalf("got %+v, want csv export", got)
	}
}

func TestClassifyExportOracleUnknownFormat(t *testing.T) {
	oc := oracle.Func(func(ctx context.Context, req oracle.Request) (string, error) {
		return `{"format": "flac"}`, nil
	})
	c := New(Config{Oracle: oc})
	got := c.ClassifyExport(context.Background(), "export it somehow")
	if got.ExportType != DefaultExportType {
		t.Fatalf("ExportType = %q, want %q", got.ExportType, DefaultExportType)
	}
}

func TestClassifyExportOracleError(t *testing.T) {
	oc := oracle.Func(func(ctx context.Context, req oracle.Request) (string, error) {
		return "", errors.New("timeout")
	})
	c := New(Config{Oracle: oc})
	got := c.ClassifyExport(context.Background(), "export it somehow")
	if !got.IsExport || got.ExportType != DefaultExportType {
		t.Fatalf("oracle error must fall back to default, got %+v", got)
	}
}

func TestClassifyExportOracleCannotDowngradeContent(t *testing.T) {
	// Deterministic phase found a content verb; the oracle disagrees.
	// Deterministic wins.
	oc := oracle.Func(func(ctx context.Context, req oracle.Request) (string, error) {
		return `{"format": "txt", "needs_content": false}`, nil
	})
	c := New(Config{Oracle: oc})
	got := c.ClassifyExport(context.Background(), "write something nice and export it")
	if got.IsPureExport || !got.HasContentRequest {
		t.Fatalf("oracle must not downgrade content request, got %+v", got)
	}
}

func TestClassifyDocument(t *testing.T) {
	c := New(Config{})

	tests := []struct {
		message string
		want    DocAction
	}{
		{"replace every mention of 2023 with 2024", ActionModify},
		{"summarize this document for me", ActionAnalyze},
		{"export this file please", ActionExport},
		{"change the title", ActionModify},
	}
	for _, tt := range tests {
		got := c.ClassifyDocument(context.Background(), tt.message)
		if got.Intent != tt.want {
			t.Errorf("ClassifyDocument(%q) = %s, want %s", tt.message, got.Intent, tt.want)
		}
	}
}

func TestClassifyDocumentOracleFailureDefaultsToAnalyze(t *testing.T) {
	oc := oracle.Func(func(ctx context.Context, req oracle.Request) (string, error) {
		return "", errors.New("oracle down")
	})
	c := New(Config{Oracle: oc})
	// Ambiguous: both modify and analyze wording.
	got := c.ClassifyDocument(context.Background(), "review and fix this document")
	if got.Intent != ActionAnalyze {
		t.Fatalf("oracle failure must default to analyze, got %s", got.Intent)
	}
}

func TestDetectScope(t *testing.T) {
	tests := []struct {
		message string
		want    Scope
	}{
		{"export this answer as pdf", ScopeCurrent},
		{"export the previous answer please", ScopePrevious},
		{"export the entire conversation", ScopeAll},
		{"save everything to a file", ScopeAll},
		{"export as docx", ScopeCurrent},
	}
	for _, tt := range tests {
		if got := DetectScope(tt.message); got != tt.want {
			t.Errorf("DetectScope(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}
