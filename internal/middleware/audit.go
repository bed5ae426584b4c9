package middleware

import (
	"net/http"

	logpkg "github.com/benvon/blog-api/internal/logger"
	"github.com/benvon/blog-api/internal/request"
	"go.uber.org/zap"
)

// Audit logs failed authentication and authorization attempts.
func Audit(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			statusCode := wrapped.statusCode
			if statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden {
				logger.Warn("security_event",
					zap.Int("status_code", statusCode),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("ip", logpkg.SanitizeString(request.ClientIP(r), logpkg.MaxGeneralStringLength)),
					zap.Bool("had_authorization", r.Header.Get("Authorization") != ""),
				)
			}
		})
	}
}
