package logger

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T, level LogLevel) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel(INFO)
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t, WARN)

	Info("hidden")
	Warn("shown %d", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line written at WARN level: %q", out)
	}
	if !strings.Contains(out, "[WARN] logger_test.go:") || !strings.Contains(out, "shown 7") {
		t.Errorf("unexpected warn line: %q", out)
	}
}

func TestFormatsArguments(t *testing.T) {
	buf := captureOutput(t, DEBUG)

	Debug("store failed: %v (attempt %d)", errors.New("disk full"), 3)

	if !strings.Contains(buf.String(), "store failed: disk full (attempt 3)") {
		t.Errorf("unexpected line: %q", buf.String())
	}
}

func TestFatalExits(t *testing.T) {
	buf := captureOutput(t, ERROR)
	code := -1
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	Fatal("cannot open %s", "rocketrun.db")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(buf.String(), "[FATAL]") {
		t.Errorf("missing fatal line: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", DEBUG, true},
		{" Warning ", WARN, true},
		{"", INFO, true},
		{"ERROR", ERROR, true},
		{"verbose", INFO, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
