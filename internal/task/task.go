// Package task defines the persisted unit of work: a named, recurring
// file operation with a fixed interval and type-specific parameters.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Unit is the interval unit of a task. It is normalized to a single
// time.Duration before any trigger is registered.
type Unit string

const (
	UnitSeconds Unit = "seconds"
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	UnitDays    Unit = "days"
)

// Type selects the handler a task is dispatched to.
type Type string

const (
	TypeCompression Type = "compression"
	TypeConversion  Type = "conversion"
	TypeOther       Type = "other"
)

// Compression formats supported by the compression handler.
const (
	FormatZip = "zip"
	FormatTar = "tar"
)

var (
	ErrUnsupportedUnit  = errors.New("unsupported time unit")
	ErrUnsupportedType  = errors.New("unsupported task type")
	ErrMissingParameter = errors.New("missing required parameter")
)

// Task is the canonical persisted task definition.
//
// Field names mirror the on-disk task table schema; the table is keyed by
// the derived Name(), which is not stored inside the entry itself.
type Task struct {
	Interval  int    `json:"interval"`
	Unit      Unit   `json:"unit"`
	Directory string `json:"directory"`
	Type      Type   `json:"task_type"`

	// Compression tasks only.
	CompressionFormat string `json:"compression_format,omitempty"`

	// Conversion tasks only. Bare file extensions without the dot.
	InputFormat  string `json:"input_format,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
}

// Name derives the deterministic task key. It is the single naming
// authority: identical parameters always map to the same name, which is
// what makes re-adding an existing task an idempotent no-op.
func (t Task) Name() string {
	base := fmt.Sprintf("task_%d_%s_%s", t.Interval, t.Unit, t.Type)
	switch t.Type {
	case TypeCompression:
		if t.CompressionFormat != "" {
			return base + "_" + t.CompressionFormat
		}
	case TypeConversion:
		if t.InputFormat != "" || t.OutputFormat != "" {
			return base + "_" + t.InputFormat + "_" + t.OutputFormat
		}
	}
	return base
}

// Every converts (Interval, Unit) to the normalized trigger period.
func (t Task) Every() (time.Duration, error) {
	if t.Interval <= 0 {
		return 0, fmt.Errorf("%w: interval must be positive", ErrMissingParameter)
	}
	d := time.Duration(t.Interval)
	switch t.Unit {
	case UnitSeconds:
		return d * time.Second, nil
	case UnitMinutes:
		return d * time.Minute, nil
	case UnitHours:
		return d * time.Hour, nil
	case UnitDays:
		return d * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w %q", ErrUnsupportedUnit, string(t.Unit))
	}
}

// Validate checks the fields required before a task may be persisted or
// triggered. Validation failures abort scheduling; nothing is written.
func (t Task) Validate() error {
	if _, err := t.Every(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Directory) == "" {
		return fmt.Errorf("%w: directory", ErrMissingParameter)
	}
	switch t.Type {
	case TypeCompression:
		switch t.CompressionFormat {
		case FormatZip, FormatTar:
		case "":
			return fmt.Errorf("%w: compression_format", ErrMissingParameter)
		default:
			// Unknown formats are accepted at schedule time; the handler
			// reports them as an execution error on fire, matching the
			// failure contract for handler-internal faults.
		}
	case TypeConversion:
		if strings.TrimSpace(t.InputFormat) == "" {
			return fmt.Errorf("%w: input_format", ErrMissingParameter)
		}
		if strings.TrimSpace(t.OutputFormat) == "" {
			return fmt.Errorf("%w: output_format", ErrMissingParameter)
		}
	case TypeOther:
	default:
		return fmt.Errorf("%w %q", ErrUnsupportedType, string(t.Type))
	}
	return nil
}

// Summary renders the human-readable one-liner used by task listings.
func (t Task) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: Every %d %s | Dir: %s | Type: %s", t.Name(), t.Interval, t.Unit, t.Directory, t.Type)
	switch t.Type {
	case TypeCompression:
		fmt.Fprintf(&b, " | Format: %s", t.CompressionFormat)
	case TypeConversion:
		fmt.Fprintf(&b, " | Input: .%s | Output: .%s", t.InputFormat, t.OutputFormat)
	}
	return b.String()
}
