package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/benvon/blog-api/internal/auth"
	logpkg "github.com/benvon/blog-api/internal/logger"
	"github.com/benvon/blog-api/internal/request"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// TokenValidator turns a bearer token into the subject it was issued for.
// *auth.Codec satisfies it.
type TokenValidator interface {
	Validate(token string) (string, error)
}

// SubjectResolver reports whether a token subject still names a user.
// *database.UserRepository satisfies it.
type SubjectResolver interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AuthOption configures the auth middleware.
type AuthOption func(*authConfig)

type authConfig struct {
	resolver SubjectResolver
	metrics  *Metrics
}

// WithSubjectResolver rejects tokens whose subject no longer exists.
func WithSubjectResolver(resolver SubjectResolver) AuthOption {
	return func(c *authConfig) { c.resolver = resolver }
}

// WithAuthMetrics counts rejections by reason.
func WithAuthMetrics(m *Metrics) AuthOption {
	return func(c *authConfig) { c.metrics = m }
}

// Auth validates the bearer token and binds the user id into the request
// context. Rejected requests get a 403 and never reach next.
func Auth(validator TokenValidator, logger *zap.Logger, opts ...AuthOption) func(http.Handler) http.Handler {
	cfg := &authConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := authenticate(r, validator, cfg.resolver)
			if err != nil {
				if errors.Is(err, errResolveFailed) {
					logger.Error("auth_subject_lookup_failed",
						zap.Error(err),
						zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					)
					respondError(w, logger, http.StatusInternalServerError, "Internal Server Error")
					return
				}

				reason := auth.Reason(err)
				cfg.metrics.AuthRejected(reason)
				logger.Info("auth_rejected",
					zap.String("reason", reason),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				)

				message := "Unauthorized"
				if errors.Is(err, auth.ErrMissingSubject) {
					message = "Invalid token"
				}
				respondError(w, logger, http.StatusForbidden, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUserID(r.Context(), userID)))
		})
	}
}

var errResolveFailed = errors.New("subject lookup failed")

func authenticate(r *http.Request, validator TokenValidator, resolver SubjectResolver) (uuid.UUID, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return uuid.Nil, auth.ErrNoCredential
	}

	subject, err := validator.Validate(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		return uuid.Nil, err
	}

	userID, err := uuid.Parse(subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, auth.ErrMissingSubject
	}

	if resolver != nil {
		exists, err := resolver.Exists(r.Context(), userID)
		if err != nil {
			return uuid.Nil, errors.Join(errResolveFailed, err)
		}
		if !exists {
			return uuid.Nil, auth.ErrUnknownSubject
		}
	}

	return userID, nil
}

func respondError(w http.ResponseWriter, logger *zap.Logger, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		logger.Error("failed_to_encode_error_response", zap.Error(err), zap.Int("status_code", status))
	}
}
