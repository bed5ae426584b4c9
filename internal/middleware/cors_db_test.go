package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/benvon/blog-api/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeCorsSource struct {
	mu  sync.Mutex
	cfg *models.CorsConfig
	err error
}

func (f *fakeCorsSource) Get(context.Context) (*models.CorsConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cfg, f.err
}

func (f *fakeCorsSource) set(cfg *models.CorsConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
}

func preflight(h http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/blog", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCORSReloader_Fallback(t *testing.T) {
	t.Parallel()

	src := &fakeCorsSource{err: errors.New("db down")}
	h := NewCORSReloader(src, "https://blog.example.com", zap.NewNop(), 0).Middleware()(okHandler())

	w := preflight(h, "https://blog.example.com")
	assert.Equal(t, "https://blog.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight(h, "https://evil.example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSReloader_Reload(t *testing.T) {
	t.Parallel()

	src := &fakeCorsSource{}
	reloader := NewCORSReloader(src, "", zap.NewNop(), 0)
	h := reloader.Middleware()(okHandler())

	assert.Equal(t, []string{defaultCORSOrigin}, reloader.Origins())

	src.set(&models.CorsConfig{AllowedOrigins: "https://a.com, https://b.com", MaxAge: 60})
	reloader.load(context.Background())

	assert.Equal(t, []string{"https://a.com", "https://b.com"}, reloader.Origins())
	w := preflight(h, "https://b.com")
	assert.Equal(t, "https://b.com", w.Header().Get("Access-Control-Allow-Origin"))
}
