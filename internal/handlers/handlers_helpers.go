package handlers

import (
	"errors"
	"net/http"

	"sessionchat-backend/internal/llm"
	"sessionchat-backend/internal/services"
	"sessionchat-backend/internal/store"
	"sessionchat-backend/pkg/httputil"
)

// respondChatError maps the service error taxonomy onto HTTP statuses.
// Validation failures echo their own message; everything else gets a
// canned message so internal details (credentials in particular) never
// reach the client.
func respondChatError(w http.ResponseWriter, err error) {
	switch {
	case services.IsValidationError(err):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, llm.ErrRateLimited):
		httputil.RespondError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please wait a moment before trying again.")
	case errors.Is(err, llm.ErrUnavailable):
		httputil.RespondError(w, http.StatusServiceUnavailable, "AI service is temporarily unavailable. Please try again later.")
	case errors.Is(err, llm.ErrAuth):
		httputil.RespondError(w, http.StatusInternalServerError, "Authentication error. Please contact support if this persists.")
	case errors.Is(err, store.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to process your message. Please try again.")
	}
}
