// Package store persists the task table: a single JSON object keyed by
// task name, rewritten wholesale on every mutation. The scheduler service
// is the only writer and serializes read-modify-write cycles.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"filesched/internal/task"
	logx "filesched/pkg/logx"
)

type Store struct {
	path string
	log  logx.Logger
}

func New(path string, log logx.Logger) *Store {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Store{path: path, log: log}
}

func (s *Store) Path() string { return s.path }

// Load reads the whole task table. A missing or corrupt file is treated
// as an empty table (warned, never fatal): the scheduler must come up even
// when the table is damaged, leaving repair to the operator.
func (s *Store) Load() map[string]task.Task {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("task table unreadable; starting empty", logx.String("path", s.path), logx.Err(err))
		}
		return map[string]task.Task{}
	}
	var tasks map[string]task.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		s.log.Warn("task table corrupt; starting empty", logx.String("path", s.path), logx.Err(err))
		return map[string]task.Task{}
	}
	if tasks == nil {
		tasks = map[string]task.Task{}
	}
	return tasks
}

// Save rewrites the whole table. The write goes through a temp file and
// rename so a crash mid-write never leaves a truncated table behind.
func (s *Store) Save(tasks map[string]task.Task) error {
	if tasks == nil {
		tasks = map[string]task.Task{}
	}
	// Indentation is cosmetic: the table is also the operator's view of
	// what is scheduled.
	b, err := json.MarshalIndent(tasks, "", "    ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tasks-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
