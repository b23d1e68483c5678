package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zapcore"
)

// bufferSyncer captures log output in memory
type bufferSyncer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *bufferSyncer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *bufferSyncer) Sync() error { return nil }

func (b *bufferSyncer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ zapcore.WriteSyncer = (*bufferSyncer)(nil)

func newTestLogger(format Format, level Level) (*ZapLogger, *bufferSyncer) {
	buf := &bufferSyncer{}
	return newZapLogger(buf, Config{Format: format, Level: level}, nil), buf
}

func decodeLines(t *testing.T, s string) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to parse JSON log %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewZapLogger_File(t *testing.T) {
	tempDir := t.TempDir()

	// Use a nested path that doesn't exist
	logPath := filepath.Join(tempDir, "nested", "dir", "test.log")
	logger, err := NewZapLogger(Config{Path: logPath, Format: FormatText, Level: InfoLevel})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}

	logger.Info(context.Background(), "written to file", nil)
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "written to file") {
		t.Error("Log file should contain the message")
	}
}

func TestNewZapLogger_Stderr(t *testing.T) {
	logger, err := NewZapLogger(Config{Level: ErrorLevel})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestZapLogger_LogLevels(t *testing.T) {
	logger, buf := newTestLogger(FormatText, InfoLevel)
	ctx := context.Background()

	logger.Debug(ctx, "debug message", nil)
	logger.Info(ctx, "info message", nil)
	logger.Warn(ctx, "warn message", nil)
	logger.Error(ctx, "error message", nil, nil)

	logContent := buf.String()

	if strings.Contains(logContent, "debug message") {
		t.Error("Debug message should be filtered at INFO level")
	}
	for _, msg := range []string{"info message", "warn message", "error message"} {
		if !strings.Contains(logContent, msg) {
			t.Errorf("%s should be present", msg)
		}
	}
}

func TestZapLogger_DebugLevel(t *testing.T) {
	logger, buf := newTestLogger(FormatText, DebugLevel)

	logger.Debug(context.Background(), "debug message", nil)

	if !strings.Contains(buf.String(), "debug message") {
		t.Error("Debug message should be present at DEBUG level")
	}
}

func TestZapLogger_TextFormat(t *testing.T) {
	logger, buf := newTestLogger(FormatText, InfoLevel)

	logger.Info(context.Background(), "test message", Fields{"key": "value", "count": 42})

	logContent := buf.String()
	if !strings.Contains(logContent, "INFO") {
		t.Error("Log should contain the INFO level marker")
	}
	if !strings.Contains(logContent, "test message") {
		t.Error("Log should contain the message")
	}
	if !strings.Contains(logContent, `"key": "value"`) {
		t.Errorf("Log should contain the field, got %q", logContent)
	}
}

func TestZapLogger_JSONFormat(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, InfoLevel)

	logger.Info(context.Background(), "test message", Fields{"key": "value", "count": 42})

	entries := decodeLines(t, buf.String())
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]

	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["message"] != "test message" {
		t.Errorf("message = %v, want 'test message'", entry["message"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want 'value'", entry["key"])
	}
	if entry["count"] != float64(42) {
		t.Errorf("count = %v, want 42", entry["count"])
	}
	if entry["timestamp"] == nil {
		t.Error("timestamp should be present")
	}
}

func TestZapLogger_ErrorWithErr(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, InfoLevel)

	logger.Error(context.Background(), "operation failed", errors.New("something went wrong"), Fields{"operation": "test"})

	entry := decodeLines(t, buf.String())[0]
	if entry["error"] != "something went wrong" {
		t.Errorf("error = %v, want 'something went wrong'", entry["error"])
	}
	if entry["operation"] != "test" {
		t.Errorf("operation = %v, want 'test'", entry["operation"])
	}
}

func TestZapLogger_WithFields(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, InfoLevel)

	// Create logger with base fields
	loggerWithFields := logger.WithFields(Fields{"target": "uploads"})

	// Log with additional fields
	loggerWithFields.Info(context.Background(), "test", Fields{"cycle_id": "abc"})

	// Closing a derived logger must not close the parent
	if err := loggerWithFields.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	logger.Info(context.Background(), "still open", nil)

	entries := decodeLines(t, buf.String())
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0]["target"] != "uploads" {
		t.Errorf("target = %v, want 'uploads'", entries[0]["target"])
	}
	if entries[0]["cycle_id"] != "abc" {
		t.Errorf("cycle_id = %v, want 'abc'", entries[0]["cycle_id"])
	}
	if _, ok := entries[1]["target"]; ok {
		t.Error("parent logger should not carry derived fields")
	}
}

func TestRotatingWriter(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewZapLogger(Config{
		Path:       logPath,
		Format:     FormatText,
		Level:      InfoLevel,
		MaxSize:    100, // Very small for testing
		MaxBackups: 2,
	})
	if err != nil {
		t.Fatalf("NewZapLogger() error = %v", err)
	}

	ctx := context.Background()

	// Write enough to trigger rotation several times
	for i := 0; i < 20; i++ {
		logger.Info(ctx, "This is a test message that is long enough to trigger rotation eventually", nil)
	}
	logger.Close()

	for _, p := range []string{logPath, logPath + ".1", logPath + ".2"} {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			t.Errorf("%s should exist after rotation", filepath.Base(p))
		}
	}
	if _, err := os.Stat(logPath + ".3"); !os.IsNotExist(err) {
		t.Error("backups beyond MaxBackups should be removed")
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	w, err := newRotatingWriter(filepath.Join(t.TempDir(), "test.log"), 0, 0)
	if err != nil {
		t.Fatalf("newRotatingWriter() error = %v", err)
	}
	w.Close()

	if _, err := w.Write([]byte("x")); err == nil {
		t.Error("Write() after Close() should fail")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()
	ctx := context.Background()

	// None of these should panic
	logger.Debug(ctx, "debug", nil)
	logger.Info(ctx, "info", nil)
	logger.Warn(ctx, "warn", nil)
	logger.Error(ctx, "error", nil, nil)

	// WithFields should return a logger
	if logger.WithFields(Fields{"key": "value"}) == nil {
		t.Error("WithFields should return a logger")
	}

	// Close should not error
	if err := logger.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"ERROR", ErrorLevel},
		{"unknown", InfoLevel}, // Default
		{"", InfoLevel},        // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := ParseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.level.String()
			if result != tt.expected {
				t.Errorf("Level(%d).String() = %q, want %q", int(tt.level), result, tt.expected)
			}
		})
	}
}

func TestZapLogger_ConcurrentWrites(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, InfoLevel)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				logger.Info(ctx, "concurrent message", Fields{"goroutine": id, "iteration": j})
			}
		}(i)
	}
	wg.Wait()

	if got := len(decodeLines(t, buf.String())); got != 1000 {
		t.Errorf("got %d lines, want 1000", got)
	}
}
