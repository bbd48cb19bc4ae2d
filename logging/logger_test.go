package logging

import (
	"bytes"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// syncBuffer adapts bytes.Buffer to zapcore.WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (b *syncBuffer) Sync() error { return nil }

func newTestLogger() (*Logger, *syncBuffer) {
	buf := &syncBuffer{}
	logger := NewLoggerWithWriters(zapcore.DebugLevel, zapcore.AddSync(&bytes.Buffer{}), buf, false)
	return logger, buf
}

// TestLogger_WritesStructuredJSON tests that entries land in the file writer as JSON.
func TestLogger_WritesStructuredJSON(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Info("generation started", zap.String("service", "huggingface"))
	_ = logger.Sync()

	out := buf.String()
	if !strings.Contains(out, `"message":"generation started"`) {
		t.Errorf("message missing from output: %s", out)
	}
	if !strings.Contains(out, `"service":"huggingface"`) {
		t.Errorf("field missing from output: %s", out)
	}
	if !strings.Contains(out, `"level":"info"`) {
		t.Errorf("level missing from output: %s", out)
	}
}

// TestLogger_RedactsSensitiveFieldNames tests name-based redaction.
func TestLogger_RedactsSensitiveFieldNames(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Info("resolved service", zap.String("openai_api_key", "sk-abc123def456ghi789jkl012"))
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "sk-abc123") {
		t.Errorf("credential leaked into log output: %s", out)
	}
	if !strings.Contains(out, RedactedPlaceholder) {
		t.Errorf("expected redaction placeholder in output: %s", out)
	}
}

// TestLogger_RedactsSensitiveValues tests pattern-based redaction of values.
func TestLogger_RedactsSensitiveValues(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Error("request failed", zap.String("detail", "used key hf_AbCdEfGhIjKlMnOpQrStUvWxYz012345"))
	_ = logger.Sync()

	if strings.Contains(buf.String(), "hf_AbCdEf") {
		t.Errorf("token leaked into log output: %s", buf.String())
	}
}

// TestLogger_Named tests that sub-logger names appear in output.
func TestLogger_Named(t *testing.T) {
	logger, buf := newTestLogger()

	logger.Named("retry").Info("attempt failed")
	_ = logger.Sync()

	if !strings.Contains(buf.String(), `"source":"retry"`) {
		t.Errorf("logger name missing from output: %s", buf.String())
	}
}

// TestLogger_With tests that child logger fields persist across entries.
func TestLogger_With(t *testing.T) {
	logger, buf := newTestLogger()

	child := logger.With(zap.String("correlation_id", "abc-123"))
	child.Info("first")
	child.Info("second")
	_ = logger.Sync()

	if strings.Count(buf.String(), `"correlation_id":"abc-123"`) != 2 {
		t.Errorf("correlation field should appear on every entry: %s", buf.String())
	}
}

// TestNop_SafeToUse tests the no-op logger does not panic.
func TestNop_SafeToUse(t *testing.T) {
	logger := Nop()
	logger.Debug("a")
	logger.Info("b", zap.Int("n", 1))
	logger.Warn("c")
	logger.Error("d")
	if err := logger.Sync(); err != nil {
		t.Errorf("unexpected sync error: %v", err)
	}
}

// TestParseLogLevelString covers level parsing.
func TestParseLogLevelString(t *testing.T) {
	tests := []struct {
		input string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"Warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"bogus", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLogLevelString(tt.input, zapcore.InfoLevel); got != tt.want {
			t.Errorf("ParseLogLevelString(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
