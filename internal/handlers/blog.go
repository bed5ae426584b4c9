package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/blog-api/internal/models"
	"github.com/benvon/blog-api/internal/request"
	"github.com/benvon/blog-api/internal/services/blog"
	"github.com/benvon/blog-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// BlogService is what the blog handler needs from blog.Service.
type BlogService interface {
	ParsePage(rawPage, rawLimit string) (page, limit int)
	List(ctx context.Context, userID uuid.UUID) ([]*models.Post, error)
	ListPublic(ctx context.Context, page, limit int) (*models.FeedPage, error)
	Get(ctx context.Context, postID uuid.UUID) (*models.PostWithAuthor, error)
	Create(ctx context.Context, userID uuid.UUID, title, content string) (*models.Post, error)
	Update(ctx context.Context, userID, postID uuid.UUID, title, content string) (*models.Post, error)
	Delete(ctx context.Context, userID, postID uuid.UUID) error
}

// BlogHandler serves the post routes. Every route expects an authenticated request.
type BlogHandler struct {
	posts  BlogService
	logger *zap.Logger
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(posts BlogService, logger *zap.Logger) *BlogHandler {
	return &BlogHandler{posts: posts, logger: logger}
}

// DeleteResponse confirms a delete.
type DeleteResponse struct {
	Message string `json:"message"`
}

// RegisterRoutes registers blog routes on r, which should carry the /api/v1/blog
// prefix and the auth middleware. Fixed paths come before /{id}.
func (h *BlogHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.List).Methods(http.MethodGet)
	r.HandleFunc("/", h.List).Methods(http.MethodGet)
	r.HandleFunc("/bulk", h.Bulk).Methods(http.MethodGet)
	r.HandleFunc("/create", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/{id}", h.Delete).Methods(http.MethodDelete)
}

// List returns the caller's own posts.
func (h *BlogHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	posts, err := h.posts.List(r.Context(), userID)
	if err != nil {
		h.internalError(w, "list_posts_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, posts)
}

// Bulk returns one page of the public feed.
func (h *BlogHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}

	q := r.URL.Query()
	page, limit := h.posts.ParsePage(q.Get("page"), q.Get("limit"))

	feed, err := h.posts.ListPublic(r.Context(), page, limit)
	if err != nil {
		h.internalError(w, "list_feed_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, feed)
}

// Get returns one post with its author.
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.userID(w, r); !ok {
		return
	}
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	post, err := h.posts.Get(r.Context(), postID)
	if err != nil {
		h.postError(w, "get_post_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// Create stores a post authored by the caller.
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	post, err := h.posts.Create(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		h.logger.Error("create_post_failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, msgCreateFailed)
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// Update rewrites a post the caller owns.
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}
	req, ok := decodePostRequest(w, r)
	if !ok {
		return
	}

	post, err := h.posts.Update(r.Context(), userID, postID, req.Title, req.Content)
	if err != nil {
		h.postError(w, "update_post_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, post)
}

// Delete removes a post the caller owns.
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	postID, ok := postIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.posts.Delete(r.Context(), userID, postID); err != nil {
		h.postError(w, "delete_post_failed", err)
		return
	}

	respondJSON(w, http.StatusOK, DeleteResponse{Message: "Blog deleted successfully"})
}

// userID reads the id bound by the auth middleware. Its absence means the
// route was mounted without auth, which is answered like any rejection.
func (h *BlogHandler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := request.UserIDFromContext(r)
	if !ok {
		respondError(w, http.StatusForbidden, msgUnauthorized)
	}
	return userID, ok
}

// postIDFromPath answers 404 for ids that cannot name a post.
func postIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	postID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, msgBlogNotFound)
		return uuid.Nil, false
	}
	return postID, true
}

func decodePostRequest(w http.ResponseWriter, r *http.Request) (*validation.PostRequest, bool) {
	var req validation.PostRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidInput)
		return nil, false
	}
	req.Title = validation.SanitizeText(req.Title)
	if err := validation.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, msgInvalidInput)
		return nil, false
	}
	return &req, true
}

func (h *BlogHandler) postError(w http.ResponseWriter, event string, err error) {
	if errors.Is(err, blog.ErrNotFound) {
		respondError(w, http.StatusNotFound, msgBlogNotFound)
		return
	}
	h.internalError(w, event, err)
}

func (h *BlogHandler) internalError(w http.ResponseWriter, event string, err error) {
	h.logger.Error(event, zap.Error(err))
	respondError(w, http.StatusInternalServerError, msgInternalError)
}
