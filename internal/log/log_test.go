package log

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewLevels tests that verbose mode enables debug output.
func TestNewLevels(t *testing.T) {
	t.Parallel()

	t.Run("default hides debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New(WithWriter(&buf))
		logger.Debug("hidden")
		logger.Info("shown")
		if strings.Contains(buf.String(), "hidden") {
			t.Error("debug output must be suppressed by default")
		}
		if !strings.Contains(buf.String(), "shown") {
			t.Error("info output missing")
		}
	})

	t.Run("verbose shows debug", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		logger := New(WithWriter(&buf), WithVerbose(true))
		logger.Debug("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Error("debug output missing in verbose mode")
		}
	})
}

// TestWithComponent tests component tagging.
func TestWithComponent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := WithComponent(New(WithWriter(&buf)), "tokenizer")
	logger.Info("message")
	if !strings.Contains(buf.String(), "component=tokenizer") {
		t.Errorf("component attribute missing: %s", buf.String())
	}
}
