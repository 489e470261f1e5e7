package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/gridpulse-systems/gridpulse-relay/internal/middleware"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		format string
	}{
		{
			name:   "json format with info level",
			level:  slog.LevelInfo,
			format: "json",
		},
		{
			name:   "text format with debug level",
			level:  slog.LevelDebug,
			format: "text",
		},
		{
			name:   "default format (json) with error level",
			level:  slog.LevelError,
			format: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, tt.format)
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
			if logger.Logger == nil {
				t.Fatal("expected non-nil underlying logger")
			}
		})
	}
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := &Logger{Logger: slog.New(handler)}

	tests := []struct {
		name        string
		ctx         context.Context
		expectReqID bool
		reqID       string
	}{
		{
			name:        "context with request ID",
			ctx:         middleware.WithRequestID(context.Background(), "test-req-123"),
			expectReqID: true,
			reqID:       "test-req-123",
		},
		{
			name:        "context without request ID",
			ctx:         context.Background(),
			expectReqID: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			ctxLogger := logger.WithContext(tt.ctx)
			ctxLogger.Info("forward complete")

			var record map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatalf("log output is not valid JSON: %v", err)
			}

			reqID, present := record["request_id"]
			if tt.expectReqID {
				if !present {
					t.Fatal("expected request_id in log record")
				}
				if reqID != tt.reqID {
					t.Errorf("expected request_id %q, got %q", tt.reqID, reqID)
				}
			} else if present {
				t.Errorf("expected no request_id, got %q", reqID)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		key      string
		expected string
	}{
		{"service", Service("relay"), FieldService, "relay"},
		{"ip", IP("192.168.1.1"), FieldIP, "192.168.1.1"},
		{"method", Method("POST"), FieldMethod, "POST"},
		{"path", Path("/proxy/insert-meter-reading"), FieldPath, "/proxy/insert-meter-reading"},
		{"target", Target("https://backend.example/fn"), FieldTarget, "https://backend.example/fn"},
		{"origin", Origin("https://app.gridpulse.example"), FieldOrigin, "https://app.gridpulse.example"},
		{"outcome", Outcome("timeout"), FieldOutcome, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("expected key %q, got %q", tt.key, tt.attr.Key)
			}
			if tt.attr.Value.String() != tt.expected {
				t.Errorf("expected value %q, got %q", tt.expected, tt.attr.Value.String())
			}
		})
	}
}
