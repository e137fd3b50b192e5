package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/economy/internal/config"
)

// Logger appends timestamped lines to .economy/logs/economy.log so operators
// can see load/save failures after the console closes.
type Logger struct {
	mu  sync.Mutex
	out io.WriteCloser
}

// New creates (or reuses) the log file for the given project directory.
func New(projectDir string) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.EconomyDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "economy.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return &Logger{out: f}, nil
}

// NewWriter logs to an arbitrary writer. economy --serve logs to stderr.
func NewWriter(w io.Writer) *Logger {
	return &Logger{out: nopCloser{w}}
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.out == nil {
		return nil
	}
	return l.out.Close()
}

// Printf writes a single timestamped line to the log.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	line = strings.TrimRight(line, "\n")
	timestamp := time.Now().Format(time.RFC3339)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s] %s\n", timestamp, line)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
