package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	if LevelDebug.String() != "DEBUG" {
		t.Errorf("LevelDebug.String() = %q", LevelDebug.String())
	}
	if Level(99).String() != "UNKNOWN" {
		t.Errorf("Level(99).String() = %q", Level(99).String())
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf, Name: "test"})

	log.Info("hello %s", "world")
	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Errorf("output missing message: %q", out)
	}
	if !strings.Contains(out, "INFO") {
		t.Errorf("output missing level: %q", out)
	}
	if !strings.Contains(out, "test") {
		t.Errorf("output missing logger name: %q", out)
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelWarn, Output: &buf})

	log.Debug("quiet")
	log.Info("quiet too")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}

	log.Warn("loud")
	if !strings.Contains(buf.String(), "loud") {
		t.Errorf("warn message missing: %q", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelError, Output: &buf})

	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("unexpected output: %q", buf.String())
	}

	log.SetLevel(LevelDebug)
	log.Info("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("message missing after SetLevel: %q", buf.String())
	}
}

func TestWithField(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf, JSON: true})

	log.WithField("run", "abc123").Info("start")
	out := buf.String()
	if !strings.Contains(out, `"run"`) || !strings.Contains(out, `"abc123"`) {
		t.Errorf("field missing from output: %q", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf, JSON: true})

	log.WithComponent("applier").Info("step")
	if !strings.Contains(buf.String(), `"component":"applier"`) {
		t.Errorf("component missing: %q", buf.String())
	}
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf, JSON: true})

	_ = log.WithField("child", true)
	log.Info("parent")
	if strings.Contains(buf.String(), "child") {
		t.Errorf("parent logger inherited child field: %q", buf.String())
	}
}

func TestNopLoggerSilent(t *testing.T) {
	log := NewNop()
	log.Error("nobody hears this")
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	log := New(Config{Level: LevelDebug, Output: &buf})
	SetDefault(log)

	Default().Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Errorf("default logger output missing: %q", buf.String())
	}

	SetDefault(nil)
	if Default() != log {
		t.Error("SetDefault(nil) should be a no-op")
	}
}
