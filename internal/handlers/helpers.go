package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

// Client-facing error messages. Existing web clients match on these strings.
const (
	msgInvalidInput  = "Invalid input"
	msgBlogNotFound  = "Blog not found"
	msgCreateFailed  = "Failed to create blog"
	msgSignupFailed  = "error while signing up"
	msgUserNotFound  = "user not found"
	msgInternalError = "Internal Server Error"
	msgUnauthorized  = "Unauthorized"
)

// respondJSON writes data as the whole response body.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes {"error": message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

var errTrailingData = errors.New("request body must contain a single JSON object")

// decodeJSON reads exactly one JSON value from the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errTrailingData
	}
	return nil
}

// chain wraps h so that mws[0] runs first.
func chain(h http.Handler, mws []mux.MiddlewareFunc) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
