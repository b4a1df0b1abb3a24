package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)

	l.Debug("hidden")
	l.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked at info level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info message missing: %q", out)
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	l := newLogger(&bytes.Buffer{}, log.DebugLevel)
	ctx := withLogger(context.Background(), l)

	if got := loggerFromContext(ctx); got != l {
		t.Error("loggerFromContext did not return the attached logger")
	}
}

func TestLoggerContextFallback(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext returned nil for an empty context")
	}
}

func TestConfigContextFallback(t *testing.T) {
	cfg := configFromContext(context.Background())
	if cfg == nil {
		t.Fatal("configFromContext returned nil for an empty context")
	}
	if cfg.Game != "" {
		t.Errorf("fallback config not empty: %+v", cfg)
	}
}
