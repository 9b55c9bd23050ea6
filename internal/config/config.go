// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults; Load() layers file/env.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// MetricsAddr configures the optional Prometheus listen address,
	// e.g. ":9091". Empty disables the listener; batch runs rarely
	// need one.
	MetricsAddr string `koanf:"metrics_addr"`

	// QueueSize bounds the in-memory response queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the duplicate-answer cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DataDir holds the per-round CSV exports, named "<week>주차.csv".
	DataDir string `koanf:"data_dir"`

	// OutputFile is where the analysis document is written.
	OutputFile string `koanf:"output_file"`

	// SummaryFile is where the run summary is written. Empty skips it.
	SummaryFile string `koanf:"summary_file"`

	// SchemaFile overrides the built-in instrument definitions (YAML).
	SchemaFile string `koanf:"schema_file"`

	// CutoffFile overrides the built-in risk cutoff values (YAML).
	CutoffFile string `koanf:"cutoff_file"`

	// ArchiveDSN enables SQLite run archiving when set.
	ArchiveDSN string `koanf:"archive_dsn"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		MetricsAddr: "",
		QueueSize:   10_000,
		WorkerCount: runtime.NumCPU() * 2,
		DedupeSize:  500_000,
		DataDir:     "data/csv",
		OutputFile:  "data/results/analysis.json",
		SummaryFile: "data/results/summary.json",
	}
}
