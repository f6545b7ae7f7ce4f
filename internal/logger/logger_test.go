package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in  string
		out slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.out {
			t.Errorf("parseLevel(%q)=%v want %v", tt.in, got, tt.out)
		}
	}
}

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("debug", "json", &buf)

	Info("facility lookup failed", "provider", "nominatim")
	if !strings.Contains(buf.String(), `"provider":"nominatim"`) {
		t.Fatalf("expected json attribute in output, got %s", buf.String())
	}
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("info", "text", &buf)

	ctx := ContextWithRequestID(context.Background(), "req-123")
	if got := RequestID(ctx); got != "req-123" {
		t.Fatalf("RequestID=%q want req-123", got)
	}

	WithContext(ctx).Info("dispatched")
	if !strings.Contains(buf.String(), "request_id=req-123") {
		t.Errorf("expected request_id in output, got %s", buf.String())
	}

	// No request ID: falls back to the plain logger
	if WithContext(context.Background()) == nil {
		t.Fatalf("WithContext returned nil")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("error", "text", &buf)

	Debug("debug message")
	Info("info message")
	Warn("warn message")
	if buf.Len() != 0 {
		t.Fatalf("expected nothing below error level, got %s", buf.String())
	}
	Error("error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected error message to be written")
	}
	With("notify").Error("component message")
	if !strings.Contains(buf.String(), "component=notify") {
		t.Errorf("expected component attribute, got %s", buf.String())
	}
}

func TestClientIP(t *testing.T) {
	if got := ClientIP(context.Background()); got != "" {
		t.Errorf("expected empty client IP, got %q", got)
	}
	ctx := ContextWithClientIP(ContextWithRequestID(context.Background(), "req-1"), "203.0.113.7")
	if got := ClientIP(ctx); got != "203.0.113.7" {
		t.Errorf("ClientIP=%q want 203.0.113.7", got)
	}
	if got := RequestID(ctx); got != "req-1" {
		t.Errorf("client IP clobbered request ID: %q", got)
	}
}
