package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLogger_ComponentIsStamped(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Component: ComponentSession})

	logger.Info("Session created", FieldSessionID, "abc")

	out := buf.String()
	if !strings.Contains(out, "component=session") {
		t.Errorf("expected component attribute, got %q", out)
	}
	if !strings.Contains(out, "session_id=abc") {
		t.Errorf("expected session_id attribute, got %q", out)
	}
}

func TestLogger_WithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf}).WithComponent(ComponentHTTP)

	logger.Warn("slow")

	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Errorf("expected exactly one component attribute, got %q", out)
	}
	if !strings.Contains(out, "component=http") {
		t.Errorf("expected component=http, got %q", out)
	}
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, Level: slog.LevelWarn})

	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	logger.Error("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected error record, got %q", buf.String())
	}
}

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf, JSON: true, Component: ComponentAMQP})

	logger.Info("published")

	if !strings.Contains(buf.String(), `"component":"amqp"`) {
		t.Errorf("expected JSON component field, got %q", buf.String())
	}
}

func TestComponentMiddleware_FromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	var got *Logger
	handler := ComponentMiddleware(ComponentTemplate)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
		}),
	)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req.WithContext(NewContext(req.Context(), logger)))

	if got == nil || got.Component() != ComponentTemplate {
		t.Fatalf("expected logger with component %q in context, got %+v", ComponentTemplate, got)
	}
}

func TestFromContext_Fallback(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Errorf("expected fallback logger, got %+v", l)
	}
}

func TestStructuredLogger_LogSelectionChanged(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))

	sl.LogSelectionChanged(context.Background(), "s1", "C", 19)

	out := buf.String()
	for _, want := range []string{"category=C", "session_id=s1", "panel_count=19", "operation=select"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestLogger_ExplicitComponentWins(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Output: &buf})

	logger.Info("x", FieldComponent, ComponentCache)

	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=cache") {
		t.Errorf("expected single component=cache, got %q", out)
	}
}

func TestStructuredLogger_LogHTTPEnd(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusUnprocessableEntity, "level=WARN"},
		{http.StatusServiceUnavailable, "level=ERROR"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		sl := NewStructuredLogger(New(Config{Output: &buf}))
		req := httptest.NewRequest(http.MethodPost, "/selection?x=1", nil)

		sl.LogHTTPEnd(context.Background(), req, tt.status, 1500*time.Millisecond, "203.0.113.9")

		out := buf.String()
		for _, want := range []string{
			tt.wantLevel,
			"HTTP request completed",
			"method=POST",
			"path=/selection",
			"duration_ms=1500",
			"duration_human=1.5s",
			"client_ip=203.0.113.9",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("status %d: expected %q in %q", tt.status, want, out)
			}
		}
	}
}

func TestStructuredLogger_UsesRequestLogger(t *testing.T) {
	var fallback, request bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &fallback}))
	reqLogger := New(Config{Output: &request}).With(FieldRequestID, "req_1")
	ctx := NewContext(context.Background(), reqLogger)

	sl.LogError(ctx, "Render pass failed", errors.New("store down"), ComponentPage, OpRender, nil)

	if fallback.Len() != 0 {
		t.Errorf("fallback logger should be unused, got %q", fallback.String())
	}
	out := request.String()
	for _, want := range []string{"level=ERROR", "request_id=req_1", `error="store down"`, "operation=render", "component=page"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestStructuredLogger_LogHTTPStartIsDebug(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Output: &buf}))
	sl.LogHTTPStart(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil), "127.0.0.1")
	if buf.Len() != 0 {
		t.Errorf("start events should be debug only, got %q", buf.String())
	}

	buf.Reset()
	sl = NewStructuredLogger(New(Config{Output: &buf, Level: slog.LevelDebug}))
	sl.LogHTTPStart(context.Background(), httptest.NewRequest(http.MethodGet, "/?q=1", nil), "127.0.0.1")
	if !strings.Contains(buf.String(), `query="q=1"`) {
		t.Errorf("expected query field, got %q", buf.String())
	}
}
