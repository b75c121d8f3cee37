// Package logging implements the AgentLogger interface on a plain
// io.Writer, with level filtering and a text or JSON line format.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/andrescamacho/supplysim-go/internal/application/common"
	"github.com/andrescamacho/supplysim-go/internal/infrastructure/config"
)

var levelRank = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// Logger writes structured log lines. Safe for concurrent use; every
// agent goroutine shares one instance.
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	format string
	min    int
}

// New creates a logger from the logging configuration
func New(cfg *config.LoggingConfig) *Logger {
	out := io.Writer(os.Stdout)
	if cfg.Output == "stderr" {
		out = os.Stderr
	}
	return NewWithWriter(out, cfg.Format, cfg.Level)
}

// NewWithWriter creates a logger writing to an arbitrary writer
func NewWithWriter(out io.Writer, format, level string) *Logger {
	min, ok := levelRank[level]
	if !ok {
		min = levelRank["info"]
	}
	return &Logger{out: out, format: format, min: min}
}

// NewDiscard creates a logger that drops everything. For tests.
func NewDiscard() *Logger {
	return &Logger{out: io.Discard, format: "text", min: levelRank["error"] + 1}
}

var _ common.AgentLogger = (*Logger)(nil)

// Log writes one line when the level passes the configured threshold
func (l *Logger) Log(level, message string, metadata map[string]interface{}) {
	rank, ok := levelRank[level]
	if !ok {
		rank = levelRank["info"]
	}
	if rank < l.min {
		return
	}

	now := time.Now().Format(time.RFC3339)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.format == "json" {
		entry := map[string]interface{}{
			"time":    now,
			"level":   level,
			"message": message,
		}
		for k, v := range metadata {
			entry[k] = v
		}
		line, err := json.Marshal(entry)
		if err != nil {
			fmt.Fprintf(l.out, "{\"time\":%q,\"level\":\"error\",\"message\":\"log entry not serializable\"}\n", now)
			return
		}
		fmt.Fprintf(l.out, "%s\n", line)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", now, strings.ToUpper(level), message)
	// Sorted keys keep text output stable across runs
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, metadata[k])
	}
	fmt.Fprintln(l.out, b.String())
}
