package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("LogLevel(%d).String() = %q, want %q", tt.level, got, tt.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}

func TestInitTextOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, FormatText, &buf)

	Info("TestSubsystem", "hello %s", "world")

	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "subsystem=TestSubsystem") {
		t.Errorf("expected subsystem attribute in output, got %q", out)
	}
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, FormatJSON, &buf)

	Info("TestSubsystem", "hello")

	out := buf.String()
	if !strings.Contains(out, `"subsystem":"TestSubsystem"`) {
		t.Errorf("expected JSON subsystem attribute, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, FormatText, &buf)

	Debug("TestSubsystem", "too quiet")
	Info("TestSubsystem", "still too quiet")
	Warn("TestSubsystem", "loud enough")

	out := buf.String()
	if strings.Contains(out, "too quiet") {
		t.Errorf("debug/info output should be suppressed at warn level, got %q", out)
	}
	if !strings.Contains(out, "loud enough") {
		t.Errorf("warn output missing, got %q", out)
	}
}

func TestErrorAttachesError(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelError, FormatText, &buf)

	Error("TestSubsystem", errSentinel, "operation failed")

	out := buf.String()
	if !strings.Contains(out, "sentinel") {
		t.Errorf("expected error attribute in output, got %q", out)
	}
}

type sentinelError struct{}

func (sentinelError) Error() string { return "sentinel" }

var errSentinel = sentinelError{}
