package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Format represents the output format for logs
type Format string

const (
	// JSONFormat outputs logs as JSON
	JSONFormat Format = "json"
	// HumanFormat outputs logs in human-readable format
	HumanFormat Format = "human"
)

// Config holds logger configuration
type Config struct {
	Name   string
	Format Format
	Level  string
	Output io.Writer // Optional, defaults to stderr
}

// New creates an hclog logger with the given configuration.
func New(cfg Config) (hclog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	name := cfg.Name
	if name == "" {
		name = "moniker"
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     out,
		JSONFormat: cfg.Format == JSONFormat,
	}), nil
}

// ParseLevel maps a level name to an hclog level. The empty string means
// warn.
func ParseLevel(s string) (hclog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return hclog.Warn, nil
	}
	level := hclog.LevelFromString(s)
	if level == hclog.NoLevel {
		return hclog.NoLevel, fmt.Errorf("unknown log level %q: must be trace, debug, info, warn, error or off", s)
	}
	return level, nil
}
