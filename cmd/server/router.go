package main

import (
	"encoding/json"
	"net/http"

	"github.com/benvon/blog-api/internal/handlers"
	"github.com/benvon/blog-api/internal/middleware"
	"github.com/benvon/blog-api/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// routerDeps is everything newRouter mounts. Optional parts may be nil.
type routerDeps struct {
	logger      *zap.Logger
	auth        *handlers.AuthHandler
	blog        *handlers.BlogHandler
	health      *handlers.HealthChecker
	openAPI     *handlers.OpenAPIHandler
	requireAuth mux.MiddlewareFunc

	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	cors     *middleware.CORSReloader

	enableHSTS bool
	tracing    bool
}

// newRouter builds the HTTP handler tree.
//
// gorilla/mux runs middleware in registration order, first registered is
// outermost. Router-level middleware only runs for matched routes, so CORS
// wraps the router from outside to see every preflight. Body rules sit below
// requireAuth so anonymous callers always get 403 on protected routes.
func newRouter(d routerDeps) http.Handler {
	r := mux.NewRouter()

	if d.tracing {
		r.Use(otelmux.Middleware(telemetry.ServerServiceName))
	}
	if d.metrics != nil {
		r.Use(d.metrics.Middleware)
	}
	r.Use(middleware.SecurityHeaders(d.enableHSTS))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.Audit(d.logger))
	r.Use(middleware.Logging(d.logger))

	r.HandleFunc("/healthz", d.health.HealthCheck).Methods(http.MethodGet)
	if d.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if d.openAPI != nil {
		d.openAPI.RegisterRoutes(r)
	}

	bodyRules := []mux.MiddlewareFunc{
		middleware.MaxRequestSize(middleware.DefaultMaxRequestSize),
		middleware.ContentType,
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	d.auth.RegisterRoutes(api.PathPrefix("/user").Subrouter(), d.requireAuth, bodyRules...)

	blogRouter := api.PathPrefix("/blog").Subrouter()
	blogRouter.Use(d.requireAuth)
	blogRouter.Use(bodyRules...)
	d.blog.RegisterRoutes(blogRouter)

	r.NotFoundHandler = jsonStatus(http.StatusNotFound, "Not Found")
	r.MethodNotAllowedHandler = jsonStatus(http.StatusMethodNotAllowed, "Method Not Allowed")

	if d.cors == nil {
		return r
	}
	return d.cors.Middleware()(r)
}

func jsonStatus(status int, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
	})
}
