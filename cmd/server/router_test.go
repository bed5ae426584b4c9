package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/blog-api/api/openapi"
	"github.com/benvon/blog-api/internal/auth"
	"github.com/benvon/blog-api/internal/handlers"
	"github.com/benvon/blog-api/internal/middleware"
	"github.com/benvon/blog-api/internal/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type emptyBlog struct{}

func (emptyBlog) ParsePage(string, string) (int, int) { return 1, 10 }
func (emptyBlog) List(context.Context, uuid.UUID) ([]*models.Post, error) {
	return []*models.Post{}, nil
}
func (emptyBlog) ListPublic(_ context.Context, page, limit int) (*models.FeedPage, error) {
	return &models.FeedPage{Page: page, Limit: limit, Blogs: []*models.PostWithAuthor{}}, nil
}
func (emptyBlog) Get(context.Context, uuid.UUID) (*models.PostWithAuthor, error) {
	return nil, errors.New("unused")
}
func (emptyBlog) Create(_ context.Context, userID uuid.UUID, title, content string) (*models.Post, error) {
	return &models.Post{ID: uuid.New(), AuthorID: userID, Title: title, Content: content, CreatedAt: time.Now()}, nil
}
func (emptyBlog) Update(context.Context, uuid.UUID, uuid.UUID, string, string) (*models.Post, error) {
	return nil, errors.New("unused")
}
func (emptyBlog) Delete(context.Context, uuid.UUID, uuid.UUID) error { return errors.New("unused") }

type tokenAccounts struct{ codec *auth.Codec }

func (a tokenAccounts) Signup(context.Context, string, string, *string) (string, error) {
	return a.codec.Issue(uuid.NewString())
}
func (a tokenAccounts) Signin(context.Context, string, string) (string, error) {
	return a.codec.Issue(uuid.NewString())
}
func (a tokenAccounts) Me(_ context.Context, id uuid.UUID) (*models.User, error) {
	return &models.User{ID: id, Email: "a@b.com"}, nil
}

type staticCors struct{}

func (staticCors) Get(context.Context) (*models.CorsConfig, error) {
	return &models.CorsConfig{AllowedOrigins: "https://blog.example.com", MaxAge: 600}, nil
}

func testServer(t *testing.T) (http.Handler, *auth.Codec) {
	t.Helper()

	codec, err := auth.NewCodec("router-test-secret", auth.WithTTL(time.Hour))
	require.NoError(t, err)

	openAPIHandler, err := handlers.NewOpenAPIHandler(openapi.Spec)
	require.NoError(t, err)

	log := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(registry)

	h := newRouter(routerDeps{
		logger:      log,
		auth:        handlers.NewAuthHandler(tokenAccounts{codec: codec}, log),
		blog:        handlers.NewBlogHandler(emptyBlog{}, log),
		health:      handlers.NewHealthChecker(handlers.Check{Name: "database", Probe: func(context.Context) error { return nil }}),
		openAPI:     openAPIHandler,
		requireAuth: middleware.Auth(codec, log, middleware.WithAuthMetrics(metrics)),
		metrics:     metrics,
		gatherer:    registry,
		cors:        middleware.NewCORSReloader(staticCors{}, "", log, 0),
	})
	return h, codec
}

func do(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()

	h, _ := testServer(t)

	w := do(h, http.MethodGet, "/healthz?mode=extended", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = do(h, http.MethodGet, "/api/v1/openapi.json", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"openapi"`)

	w = do(h, http.MethodGet, "/no/such/route", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not Found"}`, w.Body.String())
}

func TestRouter_SignupThenUseToken(t *testing.T) {
	t.Parallel()

	h, _ := testServer(t)
	jsonHeader := map[string]string{"Content-Type": "application/json"}

	w := do(h, http.MethodPost, "/api/v1/user/signup", `{"email":"a@b.com","password":"secret1"}`, jsonHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"jwt"`)

	w = do(h, http.MethodGet, "/api/v1/blog", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())

	w = do(h, http.MethodGet, "/api/v1/user/me", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_ProtectedWithToken(t *testing.T) {
	t.Parallel()

	h, codec := testServer(t)
	token, err := codec.Issue(uuid.NewString())
	require.NoError(t, err)
	authHeader := map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
	}

	w := do(h, http.MethodGet, "/api/v1/blog", "", authHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(h, http.MethodGet, "/api/v1/blog/bulk?page=2", "", authHeader)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"page":1,"limit":10,"count":0,"blogs":[]}`, w.Body.String())

	w = do(h, http.MethodPost, "/api/v1/blog/create", `{"title":"t","content":"c"}`, authHeader)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodPost, "/api/v1/blog/create", `{"title":"t"}`, map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "text/plain",
	})
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()

	h, _ := testServer(t)

	w := do(h, http.MethodOptions, "/api/v1/blog/create", "", map[string]string{
		"Origin":                        "https://blog.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, "https://blog.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(h, http.MethodOptions, "/api/v1/blog/create", "", map[string]string{
		"Origin":                        "https://evil.example.com",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	t.Parallel()

	h, _ := testServer(t)
	_ = do(h, http.MethodGet, "/api/v1/blog", "", nil)

	w := do(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "blog_http_requests_total")
	assert.Contains(t, body, `blog_auth_rejections_total{reason="no_credential"} 1`)
}

func TestRouter_AnonymousBodyRequestsGet403(t *testing.T) {
	t.Parallel()

	h, _ := testServer(t)
	oversized := `{"title":"` + strings.Repeat("a", int(middleware.DefaultMaxRequestSize)) + `"}`

	tests := []struct {
		name   string
		method string
		target string
		body   string
		header map[string]string
	}{
		{"create without content type", http.MethodPost, "/api/v1/blog/create", `{"title":"t"}`, nil},
		{"create text/plain", http.MethodPost, "/api/v1/blog/create", `{"title":"t"}`, map[string]string{"Content-Type": "text/plain"}},
		{"update text/plain", http.MethodPut, "/api/v1/blog/" + uuid.NewString(), `{"title":"t"}`, map[string]string{"Content-Type": "text/plain"}},
		{"oversized create", http.MethodPost, "/api/v1/blog/create", oversized, map[string]string{"Content-Type": "application/json"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := do(h, tt.method, tt.target, tt.body, tt.header)
			assert.Equal(t, http.StatusForbidden, w.Code)
			assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
		})
	}
}

func TestRouter_PublicBodyRules(t *testing.T) {
	t.Parallel()

	h, _ := testServer(t)

	w := do(h, http.MethodPost, "/api/v1/user/signup", `{"email":"a@b.com","password":"secret1"}`,
		map[string]string{"Content-Type": "text/plain"})
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = do(h, http.MethodPost, "/api/v1/user/signin", `{"email":"a@b.com","password":"secret1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
