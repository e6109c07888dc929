package trace

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "finstress/internal/log"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Output: &buf})
	m := NewMiddleware(logger, func(*http.Request) string { return "1.2.3.4" })

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r)
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id=%q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Fatalf("response header=%q want %q", rec.Header().Get(HeaderRequestID), seen)
	}
	out := buf.String()
	if !strings.Contains(out, "status_code=418") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("unexpected log output: %s", out)
	}
	if m.GetMetrics().TotalRequests != 1 {
		t.Fatalf("metrics=%+v", m.GetMetrics())
	}
}

func TestIncomingRequestID(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"abc-123", "abc-123"},
		{"has space", ""},
		{strings.Repeat("x", 65), ""},
		{"", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set(HeaderRequestID, tt.header)
		}
		if got := incomingRequestID(r); got != tt.want {
			t.Fatalf("incomingRequestID(%q)=%q want %q", tt.header, got, tt.want)
		}
	}
}
