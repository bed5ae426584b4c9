package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/benvon/blog-api/internal/models"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const (
	defaultCORSOrigin = "http://localhost:5173"
	defaultCORSMaxAge = 86400
)

// CorsConfigSource supplies the stored CORS settings. *database.CorsConfigRepository satisfies it.
type CorsConfigSource interface {
	Get(ctx context.Context) (*models.CorsConfig, error)
}

// CORSReloader wraps rs/cors and periodically reloads its settings from the database.
type CORSReloader struct {
	next     http.Handler
	source   CorsConfigSource
	fallback string
	log      *zap.Logger
	interval time.Duration
	mu       sync.RWMutex
	current  http.Handler
	origins  []string
}

// NewCORSReloader builds a CORS middleware backed by source. frontendURLFallback
// (comma-separated) is used until a config row exists.
func NewCORSReloader(source CorsConfigSource, frontendURLFallback string, log *zap.Logger, reloadInterval time.Duration) *CORSReloader {
	return &CORSReloader{
		source:   source,
		fallback: strings.TrimSpace(frontendURLFallback),
		log:      log,
		interval: reloadInterval,
	}
}

// Middleware wraps next with CORS handling and loads the initial settings.
// Wrap the whole router once rather than registering it with Router.Use, which
// rebuilds the chain on every request and never sees unmatched preflights.
func (r *CORSReloader) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		r.next = next
		r.load(context.Background())
		return r
	}
}

// Start reloads the settings every interval until ctx is cancelled. Call after Middleware() is applied.
func (r *CORSReloader) Start(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.load(ctx)
		}
	}
}

// Origins returns the origins currently allowed.
func (r *CORSReloader) Origins() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.origins...)
}

func (r *CORSReloader) load(ctx context.Context) {
	if r.next == nil {
		return
	}

	cfg, err := r.source.Get(ctx)
	if err != nil {
		r.log.Warn("cors_config_load_failed", zap.Error(err))
	}
	if err != nil || cfg == nil {
		cfg = &models.CorsConfig{
			AllowedOrigins:   r.fallback,
			AllowCredentials: true,
			MaxAge:           defaultCORSMaxAge,
		}
	}

	origins := cfg.Origins()
	if len(origins) == 0 {
		origins = []string{defaultCORSOrigin}
	}

	h := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
	}).Handler(r.next)

	r.mu.Lock()
	r.current = h
	r.origins = origins
	r.mu.Unlock()
}

// ServeHTTP implements http.Handler.
func (r *CORSReloader) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.RLock()
	h := r.current
	r.mu.RUnlock()
	if h != nil {
		h.ServeHTTP(w, req)
		return
	}
	if r.next != nil {
		r.next.ServeHTTP(w, req)
	}
}
