package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		wantLogs int
	}{
		{"ok is not audited", http.StatusOK, 0},
		{"not found is not audited", http.StatusNotFound, 0},
		{"unauthorized", http.StatusUnauthorized, 1},
		{"forbidden", http.StatusForbidden, 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zapcore.WarnLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			req := httptest.NewRequest("GET", "/api/v1/blog", nil)
			req.Header.Set("X-Forwarded-For", "203.0.113.9")
			Audit(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), req)

			entries := logs.FilterMessage("security_event").All()
			if len(entries) != tt.wantLogs {
				t.Fatalf("security_event entries = %d, want %d", len(entries), tt.wantLogs)
			}
			if tt.wantLogs > 0 && entries[0].ContextMap()["ip"] != "203.0.113.9" {
				t.Errorf("Logged ip = %v, want 203.0.113.9", entries[0].ContextMap()["ip"])
			}
		})
	}
}
