package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kingrea/economy/internal/config"
)

func TestNewLoggerUsesLogFileForConsole(t *testing.T) {
	root := t.TempDir()
	logger, err := newLogger(root, false)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Printf("economy: ready")
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, config.EconomyDir, "logs", "economy.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("log file is empty")
	}
}

func TestNewLoggerHeadlessSkipsLogFile(t *testing.T) {
	root := t.TempDir()
	logger, err := newLogger(root, true)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("closing the stderr logger must not fail: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, config.EconomyDir, "logs")); !os.IsNotExist(err) {
		t.Fatalf("headless logger created a log dir: %v", err)
	}
}
