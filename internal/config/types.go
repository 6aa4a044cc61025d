package config

import (
	"os"
	"strings"
)

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	History   HistoryConfig   `json:"history"`
	API       APIConfig       `json:"api"`
}

type LoggingConfig struct {
	Level   string        `json:"level"`
	Console bool          `json:"console"`
	File    FileLogConfig `json:"file"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// SchedulerConfig locates the persisted task table.
type SchedulerConfig struct {
	TaskFile string `json:"task_file,omitempty"`
}

// HistoryConfig controls the execution-history sink.
//
// Example:
//
//	"history": { "driver": "sqlite", "path": "./filesched.db" }
type HistoryConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path,omitempty"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// APIConfig controls the HTTP control surface.
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:8080").
//   - If you bind to a non-loopback address, set a token.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"`  // default: "127.0.0.1:8080"
	Token   string `json:"token,omitempty"` // optional bearer token (do not log)

	// RatePerSec caps accepted requests per second (token bucket).
	// 0 keeps the default; negative disables limiting.
	RatePerSec int `json:"rate_per_sec,omitempty"`

	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

const (
	defaultTaskFile    = "./tasks.json"
	defaultHistoryPath = "./filesched.db"
	defaultAPIAddr     = "127.0.0.1:8080"
)

// Normalize fills defaults and applies environment overrides. The token
// and the history location are deployment secrets/locations, so the
// environment wins over the file for them.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Scheduler.TaskFile) == "" {
		c.Scheduler.TaskFile = defaultTaskFile
	}
	if strings.TrimSpace(c.History.Driver) == "" {
		c.History.Driver = "sqlite"
	}
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	if strings.TrimSpace(c.API.Addr) == "" {
		c.API.Addr = defaultAPIAddr
	}
	if v := os.Getenv("FILESCHED_API_TOKEN"); v != "" {
		c.API.Token = v
	}
	if v := os.Getenv("FILESCHED_HISTORY_PATH"); v != "" {
		c.History.Path = v
	}
}
