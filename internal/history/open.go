package history

import (
	"context"
	"errors"
	"strings"

	logx "filesched/pkg/logx"
)

// Sink is the minimal history API used by the scheduler and the HTTP layer.
type Sink interface {
	Append(ctx context.Context, r Record) error
	// List returns up to limit records, newest first. limit <= 0 applies
	// a sane default.
	List(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

const defaultListLimit = 500

// Open initializes the configured sink. A disabled driver yields a sink
// that drops records, so callers never need nil checks.
func Open(cfg Config, log logx.Logger) (Sink, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "none":
		return nopSink{log: log}, nil
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "file", "jsonl":
		return openFile(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}

// nopSink keeps the scheduler available when no sink is configured.
type nopSink struct{ log logx.Logger }

func (n nopSink) Append(_ context.Context, r Record) error {
	n.log.Warn("history disabled; dropping record",
		logx.String("task", r.TaskName), logx.String("status", r.Status))
	return nil
}

func (n nopSink) List(context.Context, int) ([]Record, error) { return []Record{}, nil }

func (n nopSink) Close() error { return nil }
