package handlers

import (
	"encoding/json"
	"net/http"

	"cribtrakr/storage"
)

// Objects is the object store used by the upload and rental-delete handlers.
// Set once at startup; tests swap in storage.NewMemStore().
var Objects storage.ObjectStore

// PublicURL is the prefix under which uploaded objects are publicly served.
// Image locations stored on rentals are expected to start with it.
var PublicURL string

// getUser returns the authenticated principal placed in the request context
// by the auth middleware, or "" when the request is unauthenticated.
func getUser(r *http.Request) string {
	user, _ := r.Context().Value("user").(string)
	return user
}

// validationError mirrors the wire shape of a 422 response.
type validationError struct {
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondValidation(w http.ResponseWriter, message, location string) {
	respondJSON(w, http.StatusUnprocessableEntity, validationError{
		Code:     http.StatusUnprocessableEntity,
		Reason:   "ValidationError",
		Message:  message,
		Location: location,
	})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func respondError(w http.ResponseWriter, status int, errMsg string) {
	respondJSON(w, status, map[string]string{"error": errMsg})
}
