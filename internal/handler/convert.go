package handler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"filesched/internal/task"
)

// Transform rewrites file content for one (input, output) format pair.
type Transform func(in []byte) ([]byte, error)

var (
	transformMu sync.RWMutex
	transforms  = map[string]Transform{}
)

// RegisterTransform installs a transform for the given format pair,
// replacing any previous registration. Pairs without a registered
// transform fall back to the uppercase text passthrough.
func RegisterTransform(inFormat, outFormat string, fn Transform) {
	transformMu.Lock()
	defer transformMu.Unlock()
	transforms[transformKey(inFormat, outFormat)] = fn
}

func transformFor(inFormat, outFormat string) Transform {
	transformMu.RLock()
	defer transformMu.RUnlock()
	if fn, ok := transforms[transformKey(inFormat, outFormat)]; ok {
		return fn
	}
	return upperText
}

func transformKey(inFormat, outFormat string) string {
	return strings.ToLower(inFormat) + "->" + strings.ToLower(outFormat)
}

// upperText is the baseline transform: uppercase text passthrough.
func upperText(in []byte) ([]byte, error) {
	return bytes.ToUpper(in), nil
}

// Convert rewrites every file in the task directory whose extension
// matches the input format into a sibling file with the output extension.
// Zero matches is an informational outcome, not an error.
func Convert(_ context.Context, t task.Task) Outcome {
	dir := t.Directory
	if err := checkDirectory(dir); err != nil {
		return errorOutcome("", "Directory not found")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errorOutcome("", "Error: "+err.Error())
	}

	fn := transformFor(t.InputFormat, t.OutputFormat)
	suffix := "." + t.InputFormat

	converted := 0
	var lastOut string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		in := filepath.Join(dir, e.Name())
		out := filepath.Join(dir, strings.TrimSuffix(e.Name(), suffix)+"."+t.OutputFormat)
		if err := convertFile(in, out, fn); err != nil {
			return errorOutcome(out, fmt.Sprintf("Error converting '%s': %v", in, err))
		}
		converted++
		lastOut = out
	}

	if converted == 0 {
		return infoOutcome("", fmt.Sprintf("No files with .%s format found", t.InputFormat))
	}
	return infoOutcome(lastOut, fmt.Sprintf("Converted %d file(s) to .%s", converted, t.OutputFormat))
}

func convertFile(in, out string, fn Transform) error {
	content, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	converted, err := fn(content)
	if err != nil {
		return err
	}
	return os.WriteFile(out, converted, 0o644)
}
