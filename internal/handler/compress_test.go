package handler

import (
	"archive/tar"
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"filesched/internal/history"
	"filesched/internal/task"
)

func writeTestFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func TestCompressZip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFiles(t, dir, map[string]string{
		"a.txt":        "alpha",
		"b.txt":        "bravo",
		"sub/c.txt":    "charlie",
	})

	tk := task.Task{Interval: 1, Unit: task.UnitMinutes, Directory: dir, Type: task.TypeCompression, CompressionFormat: task.FormatZip}
	out := Compress(context.Background(), tk)
	if out.Level != history.LevelInfo || out.Status != "Compressed" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if filepath.Dir(out.Output) != dir {
		t.Fatalf("archive not inside source dir: %s", out.Output)
	}
	if !strings.HasSuffix(out.Output, ".zip") {
		t.Fatalf("archive missing zip extension: %s", out.Output)
	}

	got := zipEntries(t, out.Output)
	want := []string{"a.txt", "b.txt", "sub/c.txt"}
	if len(got) != len(want) {
		t.Fatalf("archive entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("archive entries = %v, want %v", got, want)
		}
	}
}

func TestCompressZipRepeatProducesDistinctArchive(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFiles(t, dir, map[string]string{"a.txt": "alpha"})

	tk := task.Task{Interval: 1, Unit: task.UnitMinutes, Directory: dir, Type: task.TypeCompression, CompressionFormat: task.FormatZip}
	first := Compress(context.Background(), tk)
	if first.Level != history.LevelInfo {
		t.Fatalf("first run failed: %+v", first)
	}
	// Archive names are unix-second qualified.
	time.Sleep(1100 * time.Millisecond)
	second := Compress(context.Background(), tk)
	if second.Level != history.LevelInfo {
		t.Fatalf("second run failed: %+v", second)
	}
	if first.Output == second.Output {
		t.Fatalf("expected distinct archive names, both %s", first.Output)
	}
	for _, p := range []string{first.Output, second.Output} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("archive missing: %v", err)
		}
	}
}

func TestCompressTar(t *testing.T) {
	t.Parallel()
	parent := t.TempDir()
	dir := filepath.Join(parent, "src")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeTestFiles(t, dir, map[string]string{"a.txt": "alpha", "b.txt": "bravo"})

	tk := task.Task{Interval: 1, Unit: task.UnitMinutes, Directory: dir, Type: task.TypeCompression, CompressionFormat: task.FormatTar}
	out := Compress(context.Background(), tk)
	if out.Level != history.LevelInfo || out.Status != "Compressed" {
		t.Fatalf("unexpected outcome: %+v", out)
	}

	f, err := os.Open(out.Output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var names []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar read: %v", err)
		}
		names = append(names, hdr.Name)
	}
	sort.Strings(names)

	// Entries are rooted at the directory basename.
	for _, want := range []string{"src/", "src/a.txt", "src/b.txt"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("tar missing entry %q, got %v", want, names)
		}
	}
}

func TestCompressMissingDirectory(t *testing.T) {
	t.Parallel()
	tk := task.Task{Interval: 1, Unit: task.UnitMinutes, Directory: filepath.Join(t.TempDir(), "nope"), Type: task.TypeCompression, CompressionFormat: task.FormatZip}
	out := Compress(context.Background(), tk)
	if out.Level != history.LevelError || out.Status != "Directory not found" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestCompressUnsupportedFormat(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFiles(t, dir, map[string]string{"a.txt": "alpha"})

	tk := task.Task{Interval: 1, Unit: task.UnitMinutes, Directory: dir, Type: task.TypeCompression, CompressionFormat: "rar"}
	out := Compress(context.Background(), tk)
	if out.Level != history.LevelError {
		t.Fatalf("expected error outcome, got %+v", out)
	}
	if !strings.Contains(out.Status, "unsupported compression format") {
		t.Fatalf("unexpected status: %q", out.Status)
	}
	// No partial archive left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the source file in dir, got %d entries", len(entries))
	}
}
