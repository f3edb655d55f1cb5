package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewWithWriterFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")

	logger.Info().Msg("hidden")
	logger.Warn().Str("event", "model_fallback").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered: %s", out)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, out)
	}
	if entry["event"] != "model_fallback" || entry["service"] != "tickerlens" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestWithRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := WithRequest(NewWithWriter(&buf, "debug"), "req-1", "AAPL")
	logger.Info().Msg("x")
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) || !strings.Contains(buf.String(), `"symbol":"AAPL"`) {
		t.Errorf("missing request fields: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info")
	ctx := WithLogger(context.Background(), logger)
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("from-context")
	if !strings.Contains(buf.String(), "from-context") {
		t.Error("logger from context should write to the original writer")
	}

	// Missing logger falls back to a no-op
	nop := FromContext(context.Background())
	nop.Error().Msg("dropped")
	if nop.GetLevel() != zerolog.Disabled {
		t.Errorf("fallback logger level = %v, want disabled", nop.GetLevel())
	}
}

func TestLogAPICall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug")
	LogAPICall(logger, "yahoo", "/v8/finance/chart/AAPL", 15*time.Millisecond, errors.New("boom"))
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error field: %s", buf.String())
	}
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tickerlens.log")
	logger, closer := New(config.LoggingConfig{Level: "info", Format: "json", File: path, MaxSize: 1})
	logger.Info().Msg("to-file")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}
