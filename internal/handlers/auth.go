package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/blog-api/internal/models"
	"github.com/benvon/blog-api/internal/request"
	"github.com/benvon/blog-api/internal/services/accounts"
	"github.com/benvon/blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AccountService is what the auth handler needs from accounts.Service.
type AccountService interface {
	Signup(ctx context.Context, email, password string, name *string) (string, error)
	Signin(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// AuthHandler serves signup, signin and the current user.
type AuthHandler struct {
	accounts AccountService
	logger   *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts AccountService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// TokenResponse carries a freshly issued token.
type TokenResponse struct {
	JWT string `json:"jwt"`
}

// MeResponse is the public view of the current user.
type MeResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name"`
}

// RegisterRoutes registers user routes on r, which should carry the /api/v1/user prefix.
// Only /me sits behind requireAuth. bodyRules wrap signup and signin.
func (h *AuthHandler) RegisterRoutes(r *mux.Router, requireAuth mux.MiddlewareFunc, bodyRules ...mux.MiddlewareFunc) {
	r.Handle("/signup", chain(http.HandlerFunc(h.Signup), bodyRules)).Methods(http.MethodPost)
	r.Handle("/signin", chain(http.HandlerFunc(h.Signin), bodyRules)).Methods(http.MethodPost)

	me := r.PathPrefix("/me").Subrouter()
	me.Use(requireAuth)
	me.HandleFunc("", h.Me).Methods(http.MethodGet)
}

// Signup creates an account and returns its token.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req validation.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if err := validation.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}

	token, err := h.accounts.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, accounts.ErrSignupFailed) {
			respondError(w, http.StatusForbidden, msgSignupFailed)
			return
		}
		h.logger.Error("signup_failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{JWT: token})
}

// Signin checks credentials and returns a token.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req validation.SigninRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}
	if err := validation.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidInput)
		return
	}

	token, err := h.accounts.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			respondError(w, http.StatusForbidden, msgUserNotFound)
			return
		}
		h.logger.Error("signin_failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	respondJSON(w, http.StatusOK, TokenResponse{JWT: token})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := request.UserIDFromContext(r)
	if !ok {
		respondError(w, http.StatusForbidden, msgUnauthorized)
		return
	}

	user, err := h.accounts.Me(r.Context(), userID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			respondError(w, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.logger.Error("me_lookup_failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	respondJSON(w, http.StatusOK, MeResponse{ID: user.ID, Email: user.Email, Name: user.Name})
}
