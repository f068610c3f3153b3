package pipeline

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/docforge/apply"
	"github.com/hazyhaar/docforge/artifact"
	"github.com/hazyhaar/docforge/convo"
	"github.com/hazyhaar/docforge/dbopen"
	"github.com/hazyhaar/docforge/extract"
	"github.com/hazyhaar/docforge/intent"
	"github.com/hazyhaar/docforge/oracle"
	"github.com/hazyhaar/docforge/plan"
	"github.com/hazyhaar/docforge/render"

	_ "modernc.org/sqlite"
)

type testEnv struct {
	pipeline *Pipeline
	store    *convo.Store
	uploads  *artifact.Store
	snaps    *int
}

func newTestEnv(t *testing.T, orc oracle.Client) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	uploads, err := artifact.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	renderer, err := render.New(render.Config{Store: uploads, PandocPath: "missing-on-purpose", Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	extractor := extract.New(extract.Config{Logger: logger})
	applier, err := apply.New(apply.Config{
		Store:     uploads,
		Extractor: extractor,
		Oracle:    orc,
		Renderer:  renderer,
		Logger:    logger,
	})
	if err != nil {
		t.Fatal(err)
	}

	db := dbopen.OpenMemory(t, dbopen.WithSchema(convo.Schema))
	store := convo.New(db, logger)

	snaps := 0
	p, err := New(Config{
		Classifier: intent.New(intent.Config{Oracle: orc, Logger: logger}),
		Extractor:  extractor,
		Planner:    plan.New(plan.Config{Oracle: orc, Logger: logger}),
		Applier:    applier,
		Renderer:   renderer,
		Store:      store,
		Oracle:     orc,
		Snapshot: func(ctx context.Context, messages []convo.Message) (string, error) {
			snaps++
			return DefaultSnapshotBuilder(ctx, messages)
		},
		Logger: logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	return &testEnv{pipeline: p, store: store, uploads: uploads, snaps: &snaps}
}

func fixedOracle(reply string) oracle.Client {
	return oracle.Func(func(context.Context, oracle.Request) (string, error) {
		return reply, nil
	})
}

func TestRunNoExportIntent(t *testing.T) {
	env := newTestEnv(t, nil)
	res, err := env.pipeline.Run(context.Background(), Turn{ConversationID: "c1", Message: "hello there"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Artifact != nil {
		t.Fatalf("res = %+v, want success without artifact", res)
	}
}

func TestRunSnapshotExportIsIdempotent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if _, err := env.store.AppendMessage(ctx, "c1", "user", "tell me about geese"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.store.AppendMessage(ctx, "c1", "assistant", "Geese are waterfowl."); err != nil {
		t.Fatal(err)
	}

	turn := Turn{ConversationID: "c1", Message: "export the whole conversation as md", Title: "Geese"}

	first, err := env.pipeline.Run(ctx, turn)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Success || first.Artifact == nil {
		t.Fatalf("first run = %+v", first)
	}
	second, err := env.pipeline.Run(ctx, turn)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Success || second.Artifact == nil {
		t.Fatalf("second run = %+v", second)
	}

	if *env.snaps != 1 {
		t.Errorf("snapshot built %d times, want 1 (second export must hit the cache)", *env.snaps)
	}

	a, _ := os.ReadFile(first.Artifact.Path)
	b, _ := os.ReadFile(second.Artifact.Path)
	if !bytes.Equal(a, b) {
		t.Error("repeated export of an unchanged conversation must be byte-identical")
	}
	if first.Artifact.Path == second.Artifact.Path {
		t.Error("re-export must create a new artifact, not overwrite")
	}
}

func TestRunSnapshotRebuiltAfterAppend(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.store.AppendMessage(ctx, "c1", "assistant", "first answer")
	turn := Turn{ConversationID: "c1", Message: "export the entire conversation as md"}

	if _, err := env.pipeline.Run(ctx, turn); err != nil {
		t.Fatal(err)
	}
	env.store.AppendMessage(ctx, "c1", "assistant", "second answer")
	res, err := env.pipeline.Run(ctx, turn)
	if err != nil {
		t.Fatal(err)
	}
	if *env.snaps != 2 {
		t.Errorf("snapshot built %d times, want 2 (append invalidates the cache)", *env.snaps)
	}
	data, _ := os.ReadFile(res.Artifact.Path)
	if !strings.Contains(string(data), "second answer") {
		t.Error("rebuilt export misses the appended message")
	}
}

func TestRunCurrentAnswerExport(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	env.store.AppendMessage(ctx, "c1", "assistant", "older answer")
	env.store.AppendMessage(ctx, "c1", "assistant", "newest answer")

	res, err := env.pipeline.Run(ctx, Turn{
		ConversationID: "c1",
		Message:        "export this answer as txt",
		Title:          "Answer",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatalf("res = %+v", res)
	}
	data, _ := os.ReadFile(res.Artifact.Path)
	if strings.TrimSpace(string(data)) != "newest answer" {
		t.Errorf("exported %q, want the newest assistant answer", data)
	}
	if *env.snaps != 0 {
		t.Error("current-answer export must not touch the snapshot cache")
	}
}

func TestRunCurrentAnswerExportBehindUserMessages(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	// The only assistant answer sits behind a long run of user messages.
	env.store.AppendMessage(ctx, "c1", "assistant", "the only answer")
	for range 6 {
		env.store.AppendMessage(ctx, "c1", "user", "are you still there?")
	}

	res, err := env.pipeline.Run(ctx, Turn{
		ConversationID: "c1",
		Message:        "export this answer as txt",
		Title:          "Answer",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Artifact == nil {
		t.Fatalf("res = %+v", res)
	}
	data, _ := os.ReadFile(res.Artifact.Path)
	if strings.TrimSpace(string(data)) != "the only answer" {
		t.Errorf("exported %q, want the buried assistant answer", data)
	}
}

func TestRunContentCreationExport(t *testing.T) {
	env := newTestEnv(t, fixedOracle("# Quarterly Report\n\n| Q | Revenue |\n| 1 | 100 |"))

	res, err := env.pipeline.Run(context.Background(), Turn{
		ConversationID: "c1",
		Message:        "create a quarterly report and export it as md",
		Title:          "Quarterly Report",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Artifact == nil {
		t.Fatalf("res = %+v", res)
	}
	data, _ := os.ReadFile(res.Artifact.Path)
	if !strings.Contains(string(data), "# Quarterly Report") {
		t.Errorf("generated content missing: %q", data)
	}
}

func TestRunModifyUnsupportedFormat(t *testing.T) {
	env := newTestEnv(t, nil)
	src := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(src, []byte{0xff, 0xd8, 0xff}, 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := env.pipeline.Run(context.Background(), Turn{
		ConversationID: "c1",
		Message:        "change the date to Friday",
		SourcePath:     src,
		SourceFormat:   "jpg",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("modifying a jpg must fail")
	}
	if res.Error != CodeUnsupported {
		t.Errorf("error = %q, want %q", res.Error, CodeUnsupported)
	}
	if res.Recommendation == "" {
		t.Error("want a non-empty recommendation")
	}
	entries, _ := os.ReadDir(env.uploads.Dir())
	if len(entries) != 0 {
		t.Errorf("failed modification wrote files: %v", entries)
	}
}

func TestRunModifyNoValidChanges(t *testing.T) {
	env := newTestEnv(t, fixedOracle(`{"changes": [{"find": "not in the file", "replace": "x"}], "explanation": "n/a"}`))
	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, []byte("stable content"), 0o644); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(src)

	res, err := env.pipeline.Run(context.Background(), Turn{
		ConversationID: "c1",
		Message:        "change the title please",
		SourcePath:     src,
		SourceFormat:   "txt",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("want failure result")
	}
	if res.Error != CodeNoValidChanges {
		t.Errorf("error = %q, want %q", res.Error, CodeNoValidChanges)
	}

	after, _ := os.ReadFile(src)
	if !bytes.Equal(before, after) {
		t.Error("source file changed on a failed modification")
	}
}

func TestRunModifyTextFile(t *testing.T) {
	env := newTestEnv(t, fixedOracle(`{"changes": [{"find": "Monday", "replace": "Friday"}], "explanation": "moved the meeting"}`))
	src := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(src, []byte("The meeting is on Monday."), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := env.pipeline.Run(context.Background(), Turn{
		ConversationID: "c1",
		Message:        "change Monday to Friday",
		SourcePath:     src,
		SourceFormat:   "txt",
		Title:          "Notes",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Artifact == nil {
		t.Fatalf("res = %+v", res)
	}
	if res.Message != "moved the meeting" {
		t.Errorf("message = %q, want the plan explanation", res.Message)
	}
	data, _ := os.ReadFile(res.Artifact.Path)
	if string(data) != "The meeting is on Friday." {
		t.Errorf("output = %q", data)
	}
}

func TestRunDocumentAnalysisProducesNoArtifact(t *testing.T) {
	env := newTestEnv(t, nil)
	src := filepath.Join(t.TempDir(), "notes.txt")
	os.WriteFile(src, []byte("content"), 0o644)

	res, err := env.pipeline.Run(context.Background(), Turn{
		ConversationID: "c1",
		Message:        "summarize this document",
		SourcePath:     src,
		SourceFormat:   "txt",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success || res.Artifact != nil {
		t.Fatalf("res = %+v, want success without artifact", res)
	}
}

func TestDefaultSnapshotBuilderSkipsUserMessages(t *testing.T) {
	msgs := []convo.Message{
		{Sender: "user", Body: "question"},
		{Sender: "assistant", Body: "answer one"},
		{Sender: "assistant", Body: "answer two"},
	}
	out, err := DefaultSnapshotBuilder(context.Background(), msgs)
	if err != nil {
		t.Fatal(err)
	}
	if out != "answer one\n\nanswer two" {
		t.Errorf("snapshot = %q", out)
	}
	if _, err := DefaultSnapshotBuilder(context.Background(), []convo.Message{{Sender: "user", Body: "q"}}); err == nil {
		t.Error("want error when nothing is exportable")
	}
}
