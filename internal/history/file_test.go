package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "filesched/pkg/logx"
)

func newFileSink(t *testing.T) Sink {
	t.Helper()
	s, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "history.jsonl")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestFileSinkAppendList(t *testing.T) {
	t.Parallel()
	s := newFileSink(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		err := s.Append(ctx, Record{
			TaskName:  "task_1_seconds_other",
			Status:    "Task executed",
			Level:     LevelInfo,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	// Newest first.
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatalf("records not in reverse-chronological order: %v before %v", got[i-1].Timestamp, got[i].Timestamp)
		}
	}
}

func TestFileSinkListLimit(t *testing.T) {
	t.Parallel()
	s := newFileSink(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, Record{TaskName: "t", Status: "ok", Level: LevelInfo}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
}

func TestFileSinkEmptyList(t *testing.T) {
	t.Parallel()
	s := newFileSink(t)
	got, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestFileSinkSkipsTornLine(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.jsonl")
	s, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Append(ctx, Record{TaskName: "t", Status: "ok", Level: LevelInfo}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// Simulate a crash mid-write.
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(`{"task_name":"torn`); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	got, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record after torn line, got %d", len(got))
	}
}

func TestNopSink(t *testing.T) {
	t.Parallel()
	s, err := Open(Config{Driver: ""}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Append(context.Background(), Record{TaskName: "t", Status: "ok"}); err != nil {
		t.Fatalf("nop Append: %v", err)
	}
	got, err := s.List(context.Background(), 0)
	if err != nil || len(got) != 0 {
		t.Fatalf("nop List = %v, %v", got, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "mongodb"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
