package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf})

	log.Debug("frame", String("outcome", "uncorrectable"))
	log.Info("Rx", String("message", "datadatada"), Int("symbols", 20))
	log.Warn("slow", Duration("period", 85*time.Millisecond))
	log.Error("play", Error(errors.New("device gone")))

	out := buf.String()
	for _, s := range []string{
		"[DEBUG] frame outcome=uncorrectable",
		"[INFO] Rx message=datadatada symbols=20",
		"[WARN] slow period=85ms",
		"[ERROR] play error=device gone",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("expected output to contain %q, got: %s", s, out)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug and info to be filtered, got: %s", out)
	}
	if !strings.Contains(out, "[WARN] shown") {
		t.Errorf("expected warn line, got: %s", out)
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf}).WithComponent("reception")
	log.Info("listening")

	out := buf.String()
	if !strings.HasPrefix(out, "[reception] ") || !strings.Contains(out, "[INFO] listening") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"warning": WarnLevel,
		" error ": ErrorLevel,
		"verbose": InfoLevel,
		"":        InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
