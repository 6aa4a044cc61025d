package task

import (
	"errors"
	"testing"
	"time"
)

func TestNameDerivation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		task Task
		want string
	}{
		{
			name: "compression with format",
			task: Task{Interval: 5, Unit: UnitMinutes, Type: TypeCompression, CompressionFormat: "zip"},
			want: "task_5_minutes_compression_zip",
		},
		{
			name: "conversion with formats",
			task: Task{Interval: 2, Unit: UnitHours, Type: TypeConversion, InputFormat: "txt", OutputFormat: "csv"},
			want: "task_2_hours_conversion_txt_csv",
		},
		{
			name: "other",
			task: Task{Interval: 1, Unit: UnitDays, Type: TypeOther},
			want: "task_1_days_other",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.Name(); got != tt.want {
				t.Fatalf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNameDeterministic(t *testing.T) {
	t.Parallel()
	a := Task{Interval: 10, Unit: UnitSeconds, Directory: "/tmp/a", Type: TypeCompression, CompressionFormat: "tar"}
	b := a
	if a.Name() != b.Name() {
		t.Fatalf("identical parameters produced different names: %q vs %q", a.Name(), b.Name())
	}
}

func TestEvery(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		task    Task
		want    time.Duration
		wantErr error
	}{
		{name: "seconds", task: Task{Interval: 30, Unit: UnitSeconds}, want: 30 * time.Second},
		{name: "minutes", task: Task{Interval: 5, Unit: UnitMinutes}, want: 5 * time.Minute},
		{name: "hours", task: Task{Interval: 2, Unit: UnitHours}, want: 2 * time.Hour},
		{name: "days", task: Task{Interval: 1, Unit: UnitDays}, want: 24 * time.Hour},
		{name: "fortnight", task: Task{Interval: 1, Unit: Unit("fortnight")}, wantErr: ErrUnsupportedUnit},
		{name: "zero interval", task: Task{Interval: 0, Unit: UnitSeconds}, wantErr: ErrMissingParameter},
		{name: "negative interval", task: Task{Interval: -3, Unit: UnitSeconds}, wantErr: ErrMissingParameter},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.task.Every()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Every() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Every() error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Every() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	valid := Task{Interval: 5, Unit: UnitMinutes, Directory: "/data", Type: TypeCompression, CompressionFormat: "zip"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid task rejected: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr error
	}{
		{name: "bad unit", mutate: func(x *Task) { x.Unit = "fortnight" }, wantErr: ErrUnsupportedUnit},
		{name: "empty directory", mutate: func(x *Task) { x.Directory = "  " }, wantErr: ErrMissingParameter},
		{name: "missing compression format", mutate: func(x *Task) { x.CompressionFormat = "" }, wantErr: ErrMissingParameter},
		{name: "bad type", mutate: func(x *Task) { x.Type = "shredding" }, wantErr: ErrUnsupportedType},
		{
			name: "conversion missing input",
			mutate: func(x *Task) {
				x.Type = TypeConversion
				x.InputFormat = ""
				x.OutputFormat = "csv"
			},
			wantErr: ErrMissingParameter,
		},
		{
			name: "conversion missing output",
			mutate: func(x *Task) {
				x.Type = TypeConversion
				x.InputFormat = "txt"
				x.OutputFormat = ""
			},
			wantErr: ErrMissingParameter,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			x := valid
			tt.mutate(&x)
			if err := x.Validate(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAcceptsUnknownCompressionFormat(t *testing.T) {
	t.Parallel()
	// Unknown formats pass validation and fail at handler time instead.
	x := Task{Interval: 1, Unit: UnitSeconds, Directory: "/data", Type: TypeCompression, CompressionFormat: "rar"}
	if err := x.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()
	c := Task{Interval: 5, Unit: UnitMinutes, Directory: "/data", Type: TypeCompression, CompressionFormat: "zip"}
	want := "task_5_minutes_compression_zip: Every 5 minutes | Dir: /data | Type: compression | Format: zip"
	if got := c.Summary(); got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}

	v := Task{Interval: 1, Unit: UnitHours, Directory: "/in", Type: TypeConversion, InputFormat: "txt", OutputFormat: "csv"}
	want = "task_1_hours_conversion_txt_csv: Every 1 hours | Dir: /in | Type: conversion | Input: .txt | Output: .csv"
	if got := v.Summary(); got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}
