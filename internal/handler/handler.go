// Package handler implements the file operations a fired trigger runs:
// directory compression and file-format conversion.
//
// Handlers never write history themselves; they return one Outcome per
// invocation and the scheduler turns it into exactly one execution record.
package handler

import (
	"context"

	"filesched/internal/history"
	"filesched/internal/task"
)

// Outcome is the structured result of one handler invocation.
type Outcome struct {
	Output string // path produced by the handler, empty when none
	Status string // free-text outcome description
	Level  string // history.LevelInfo or history.LevelError
}

func infoOutcome(output, status string) Outcome {
	return Outcome{Output: output, Status: status, Level: history.LevelInfo}
}

func errorOutcome(output, status string) Outcome {
	return Outcome{Output: output, Status: status, Level: history.LevelError}
}

// Func is the fixed handler signature. Arguments are captured at schedule
// time; a Func must not panic past its own boundary and must not retain
// the context after returning.
type Func func(ctx context.Context, t task.Task) Outcome

// For returns the handler bound to the task's type tag.
// Unknown types fall through to a synthetic error handler so a stale
// persisted entry can never fire into a nil function.
func For(t task.Task) Func {
	if fn, ok := handlers[t.Type]; ok {
		return fn
	}
	return func(_ context.Context, t task.Task) Outcome {
		return errorOutcome("", "Error: unsupported task type '"+string(t.Type)+"'")
	}
}

var handlers = map[task.Type]Func{
	task.TypeCompression: Compress,
	task.TypeConversion:  Convert,
	task.TypeOther:       RunOther,
}

// RunOther is the no-op baseline handler for the "other" task type.
func RunOther(_ context.Context, t task.Task) Outcome {
	if err := checkDirectory(t.Directory); err != nil {
		return errorOutcome("", "Directory not found")
	}
	return infoOutcome("", "Task executed")
}
