package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "filesched/pkg/logx"
)

func newSQLiteSink(t *testing.T) Sink {
	t.Helper()
	s, err := Open(Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "history.db")}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteAppendList(t *testing.T) {
	t.Parallel()
	s := newSQLiteSink(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	records := []Record{
		{TaskName: "task_a", Directory: "/data", Status: "Task scheduled every 5 minutes", Level: LevelInfo, Timestamp: base},
		{TaskName: "task_a", Directory: "/data", Output: "/data/data_1.zip", Status: "Compressed", Level: LevelInfo, Timestamp: base.Add(5 * time.Minute)},
		{TaskName: "task_a", Directory: "/data", Status: "Directory not found", Level: LevelError, Timestamp: base.Add(10 * time.Minute)},
	}
	for _, r := range records {
		if err := s.Append(ctx, r); err != nil {
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
	if got[0].Status != "Directory not found" || got[0].Level != LevelError {
		t.Fatalf("newest record wrong: %+v", got[0])
	}
	if got[2].Status != "Task scheduled every 5 minutes" {
		t.Fatalf("oldest record wrong: %+v", got[2])
	}
	if got[1].Output != "/data/data_1.zip" {
		t.Fatalf("output path not preserved: %+v", got[1])
	}
}

func TestSQLiteListLimit(t *testing.T) {
	t.Parallel()
	s := newSQLiteSink(t)
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if err := s.Append(ctx, Record{TaskName: "t", Status: "ok"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := s.List(ctx, 4)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 records, got %d", len(got))
	}
}

func TestSQLiteDefaultsLevel(t *testing.T) {
	t.Parallel()
	s := newSQLiteSink(t)
	ctx := context.Background()
	if err := s.Append(ctx, Record{TaskName: "t", Status: "ok"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := s.List(ctx, 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("List = %v, %v", got, err)
	}
	if got[0].Level != LevelInfo {
		t.Fatalf("expected default level INFO, got %q", got[0].Level)
	}
	if got[0].Timestamp.IsZero() {
		t.Fatal("expected timestamp to be backfilled")
	}
}
