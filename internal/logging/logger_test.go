package logging

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{
			name: "json format",
			config: &Config{
				Level:  LevelInfo,
				Format: "json",
				Output: &bytes.Buffer{},
				Sync:   true,
			},
		},
		{
			name: "text format",
			config: &Config{
				Level:   LevelDebug,
				Format:  "text",
				Output:  &bytes.Buffer{},
				Sync:    true,
				NoColor: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if NewLogger(tt.config) == nil {
				t.Error("NewLogger() returned nil")
			}
		})
	}
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{
		Level:   LevelDebug,
		Format:  "text",
		Output:  &buf,
		Sync:    true,
		NoColor: true,
	})

	workerLogger := logger.WithWorker(3)
	workerLogger.Info("submission complete")

	output := buf.String()
	if !strings.Contains(output, "worker=3") {
		t.Errorf("Expected worker=3 in output, got: %s", output)
	}

	buf.Reset()
	targetLogger := workerLogger.WithTarget("/dev/nvme0n1")
	targetLogger.Info("target opened")

	output = buf.String()
	if !strings.Contains(output, "worker=3") {
		t.Errorf("Expected worker=3 in target logger output, got: %s", output)
	}
	if !strings.Contains(output, "target=/dev/nvme0n1") {
		t.Errorf("Expected target path in output, got: %s", output)
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{
		Level:   LevelDebug,
		Format:  "json",
		Output:  &buf,
		Sync:    true,
	})

	logger.WithError(errors.New("short write")).Error("emulated transfer failed")

	if !strings.Contains(buf.String(), "short write") {
		t.Errorf("Expected wrapped error in output, got: %s", buf.String())
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{
		Level:   LevelWarn,
		Format:  "json",
		Output:  &buf,
		Sync:    true,
	})

	logger.Debug("range trace")
	logger.Info("submission complete")
	if buf.Len() != 0 {
		t.Errorf("Expected debug/info to be filtered, got: %s", buf.String())
	}

	logger.Warn("falling back to emulation")
	if !strings.Contains(buf.String(), "falling back") {
		t.Errorf("Expected warn to pass the filter, got: %s", buf.String())
	}
}

func TestKeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&Config{
		Level:  LevelDebug,
		Format: "json",
		Output: &buf,
		Sync:   true,
	})

	logger.Debug("read range", "index", 2, "offset", 8192, "len", 4096)

	output := buf.String()
	for _, want := range []string{`"index":2`, `"offset":8192`, `"len":4096`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %s in output, got: %s", want, output)
		}
	}
}
