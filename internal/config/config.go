// Package config loads the server's optional JSON configuration file.
// All fields are pointers so a partial file is safe: omitted fields
// fall back to flag or built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ServerConfig is the root configuration for the journey server. The
// schema matches the command-line flags, so either source can set any
// knob.
type ServerConfig struct {
	// Where the binary timetable directory lives.
	TimetableDir *string `json:"timetable_dir,omitempty"`

	// Listen address for the HTTP API.
	Listen *string `json:"listen,omitempty"`

	// Path of the sqlite query log; empty disables logging.
	QueryLogPath *string `json:"query_log_path,omitempty"`

	// Cap on journeys returned per request; zero means no cap.
	MaxJourneys *int `json:"max_journeys,omitempty"`

	// Enable the diagnostic and trace log streams.
	LogDiag  *bool `json:"log_diag,omitempty"`
	LogTrace *bool `json:"log_trace,omitempty"`
}

// Empty returns a ServerConfig with all fields unset.
func Empty() *ServerConfig {
	return &ServerConfig{}
}

// Load reads a ServerConfig from a JSON file. The file must have a
// .json extension and stay under the size cap; fields omitted from the
// JSON stay nil.
func Load(path string) (*ServerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration values that have constraints.
func (c *ServerConfig) Validate() error {
	if c.MaxJourneys != nil && *c.MaxJourneys < 0 {
		return fmt.Errorf("max_journeys must not be negative, got %d", *c.MaxJourneys)
	}
	if c.TimetableDir != nil && *c.TimetableDir == "" {
		return fmt.Errorf("timetable_dir must not be empty when set")
	}
	return nil
}

// GetTimetableDir returns the configured timetable directory, or the
// fallback.
func (c *ServerConfig) GetTimetableDir(fallback string) string {
	if c.TimetableDir != nil {
		return *c.TimetableDir
	}
	return fallback
}

// GetListen returns the configured listen address, or the fallback.
func (c *ServerConfig) GetListen(fallback string) string {
	if c.Listen != nil {
		return *c.Listen
	}
	return fallback
}

// GetQueryLogPath returns the configured query log path, or the
// fallback.
func (c *ServerConfig) GetQueryLogPath(fallback string) string {
	if c.QueryLogPath != nil {
		return *c.QueryLogPath
	}
	return fallback
}

// GetMaxJourneys returns the configured journey cap, or the fallback.
func (c *ServerConfig) GetMaxJourneys(fallback int) int {
	if c.MaxJourneys != nil {
		return *c.MaxJourneys
	}
	return fallback
}

// GetLogDiag returns whether the diag stream is enabled, or the
// fallback.
func (c *ServerConfig) GetLogDiag(fallback bool) bool {
	if c.LogDiag != nil {
		return *c.LogDiag
	}
	return fallback
}

// GetLogTrace returns whether the trace stream is enabled, or the
// fallback.
func (c *ServerConfig) GetLogTrace(fallback bool) bool {
	if c.LogTrace != nil {
		return *c.LogTrace
	}
	return fallback
}
