package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"photocull/internal/logging"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := logging.GetLevel()
	logging.SetOutput(&buf)
	logging.SetLevel(logging.LevelDebug)
	t.Cleanup(func() {
		logging.SetOutput(os.Stderr)
		logging.SetLevel(prev)
	})
	return &buf
}

func TestResponseWriterWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want first code 404", rw.statusCode)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("recorder code = %d, want 404", rec.Code)
	}
}

func TestResponseWriterWrite(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())
	if _, err := rw.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if _, err := rw.Write([]byte(" world")); err != nil {
		t.Fatal(err)
	}
	if rw.bytesWritten != 11 {
		t.Errorf("bytesWritten = %d, want 11", rw.bytesWritten)
	}
	if !rw.wroteHeader || rw.statusCode != http.StatusOK {
		t.Errorf("implicit header = %v/%d, want true/200", rw.wroteHeader, rw.statusCode)
	}
}

func TestLoggerMiddleware(t *testing.T) {
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	}))

	tests := []struct {
		name    string
		path    string
		wantLog bool
	}{
		{"regular path logged", "/status?x=1", true},
		{"metrics skipped", "/metrics", false},
		{"health skipped", "/healthz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			logged := strings.Contains(buf.String(), "[DEBUG]")
			if logged != tt.wantLog {
				t.Fatalf("logged = %v, want %v (output %q)", logged, tt.wantLog, buf.String())
			}
			if tt.wantLog && !strings.Contains(buf.String(), " 418 2 ") {
				t.Errorf("log line %q missing status and size", buf.String())
			}
		})
	}
}

func TestLoggerHealthChecksEnabled(t *testing.T) {
	buf := captureLogs(t)
	cfg := DefaultLoggingConfig()
	cfg.LogHealthChecks = true

	handler := Logger(cfg)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !strings.Contains(buf.String(), "/healthz") {
		t.Errorf("health check not logged: %q", buf.String())
	}
}

func TestFormatRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/a%0Ab", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("User-Agent", "curl/8 \"x\"")
	rw := newResponseWriter(httptest.NewRecorder())
	rw.statusCode = http.StatusOK
	rw.bytesWritten = 42

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := formatRequest(now, req, rw, 15*time.Millisecond)
	want := `2026-03-04 05:06:07 10.0.0.1 GET /a b - 200 42 15 "curl/8 ""x"""`
	if got != want {
		t.Errorf("formatRequest() =\n  %s\nwant\n  %s", got, want)
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a\nb\rc", "a b c"},
		{"\x1b[31mred", "[31mred"},
		{"nul\x00l", "null"},
		{"tab\tok", "tab\tok"},
		{"bell\x07", "bell"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
