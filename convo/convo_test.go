package convo

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hazyhaar/docforge/dbopen"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return New(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAppendAndListMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AppendMessage(ctx, "c1", "user", "hello"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendMessage(ctx, "c1", "assistant", "hi there"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendMessage(ctx, "c2", "user", "other conversation"); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.Messages(ctx, "c1", 0, OldestFirst)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if msgs[0].Body != "hello" || msgs[1].Body != "hi there" {
		t.Errorf("order wrong: %q, %q", msgs[0].Body, msgs[1].Body)
	}

	newest, err := s.Messages(ctx, "c1", 1, NewestFirst)
	if err != nil {
		t.Fatal(err)
	}
	if len(newest) != 1 || newest[0].Body != "hi there" {
		t.Errorf("newest = %+v", newest)
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AppendMessage(ctx, "c1", "user", "content"); err != nil {
		t.Fatal(err)
	}

	// No snapshot until one is built.
	if _, ok, err := s.ExportSnapshot(ctx, "c1"); err != nil || ok {
		t.Fatalf("ok = %v, err = %v, want unset", ok, err)
	}

	if err := s.SetExportSnapshot(ctx, "c1", "rendered content"); err != nil {
		t.Fatal(err)
	}
	text, ok, err := s.ExportSnapshot(ctx, "c1")
	if err != nil || !ok || text != "rendered content" {
		t.Fatalf("snapshot = %q ok=%v err=%v", text, ok, err)
	}

	if err := s.ClearExportSnapshot(ctx, "c1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.ExportSnapshot(ctx, "c1"); ok {
		t.Fatal("snapshot survived explicit clear")
	}
}

func TestAppendInvalidatesSnapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.AppendMessage(ctx, "c1", "user", "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetExportSnapshot(ctx, "c1", "frozen"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.AppendMessage(ctx, "c1", "assistant", "more content"); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := s.ExportSnapshot(ctx, "c1"); ok {
		t.Fatal("append must invalidate the snapshot")
	}
}

func TestSnapshotForUnknownConversation(t *testing.T) {
	s := newTestStore(t)
	text, ok, err := s.ExportSnapshot(context.Background(), "nope")
	if err != nil || ok || text != "" {
		t.Fatalf("got %q ok=%v err=%v, want unset and no error", text, ok, err)
	}
}

func TestSetSnapshotCreatesConversation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.SetExportSnapshot(ctx, "fresh", "body"); err != nil {
		t.Fatal(err)
	}
	text, ok, err := s.ExportSnapshot(ctx, "fresh")
	if err != nil || !ok || text != "body" {
		t.Fatalf("snapshot = %q ok=%v err=%v", text, ok, err)
	}
}

func TestSnapshotLastWriterWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetExportSnapshot(ctx, "c1", "first"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetExportSnapshot(ctx, "c1", "second"); err != nil {
		t.Fatal(err)
	}
	text, ok, _ := s.ExportSnapshot(ctx, "c1")
	if !ok || text != "second" {
		t.Fatalf("snapshot = %q, want last write", text)
	}
}
