package history

import (
	"time"
)

// Config configures the execution-history sink.
//
// Driver values:
//   - "sqlite": SQLite database file (default)
//   - "file":   append-only JSON Lines file
//
// If Driver is empty or "none", history recording is disabled and records
// are dropped with a warning.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Record levels.
const (
	LevelInfo  = "INFO"
	LevelError = "ERROR"
)

// Record is one immutable lifecycle event for a task: scheduled, removed,
// or the outcome of a single fire. Records are create-only; removing a
// task never touches its history.
type Record struct {
	TaskName  string    `json:"task_name"`
	Directory string    `json:"directory,omitempty"`
	Output    string    `json:"output,omitempty"`
	Status    string    `json:"status"`
	Level     string    `json:"level"`
	Timestamp time.Time `json:"timestamp"`
}
