package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sessionchat-backend/internal/models"
	"sessionchat-backend/internal/services"
	"sessionchat-backend/internal/session"
	"sessionchat-backend/internal/store"
	"sessionchat-backend/pkg/httputil"
	"sessionchat-backend/pkg/logutil"
)

// SessionHandlers handles the conversation-management endpoints scoped to
// the caller's browser session.
type SessionHandlers struct {
	chatService *services.ChatService
	sessions    *session.Manager
}

// NewSessionHandlers creates a new SessionHandlers instance.
func NewSessionHandlers(chatService *services.ChatService, sessions *session.Manager) *SessionHandlers {
	return &SessionHandlers{
		chatService: chatService,
		sessions:    sessions,
	}
}

// HandleListConversations handles GET /api/sessions: summaries of all the
// session's conversations, most recently updated first.
func (h *SessionHandlers) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := session.SessionIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "Session could not be resolved")
		return
	}

	conversations, err := h.chatService.ListConversations(r.Context(), sessionID)
	if err != nil {
		log.Printf("ERROR [SessionHandlers] ListConversations failed session=%s: %v", logutil.ShortID(sessionID), err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to retrieve conversations")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.ListConversationsResponse{
		Conversations:  conversations,
		CurrentSession: logutil.ShortID(sessionID),
		Count:          len(conversations),
	})
}

// HandleNewConversation handles POST /api/sessions: mints a new conversation
// identifier and makes it the session's current conversation. The
// conversation row itself is only created on the first message save.
func (h *SessionHandlers) HandleNewConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := session.SessionIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "Session could not be resolved")
		return
	}

	conversationID := h.chatService.NewConversationID()
	h.sessions.Issue(w, sessionID, conversationID)

	log.Printf("[SessionHandlers] New conversation created session=%s conversation=%s",
		logutil.ShortID(sessionID), logutil.ShortID(conversationID))

	httputil.RespondJSON(w, http.StatusOK, models.NewConversationResponse{
		ConversationID: conversationID,
		Message:        "New conversation created",
		Timestamp:      time.Now().UTC(),
	})
}

// HandleDeleteConversation handles DELETE /api/sessions/{conversationID}.
func (h *SessionHandlers) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := session.SessionIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "Session could not be resolved")
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Conversation ID is required")
		return
	}

	if err := h.chatService.DeleteConversation(r.Context(), sessionID, conversationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.RespondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		log.Printf("ERROR [SessionHandlers] DeleteConversation failed session=%s conversation=%s: %v",
			logutil.ShortID(sessionID), logutil.ShortID(conversationID), err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to delete conversation")
		return
	}

	// If this was the current conversation, clear it from the session.
	if conversationID == session.ConversationIDFromContext(r.Context()) {
		h.sessions.Issue(w, sessionID, "")
	}

	httputil.RespondJSON(w, http.StatusOK, models.DeleteConversationResponse{
		Message:        "Conversation deleted successfully",
		ConversationID: conversationID,
	})
}

// HandleCurrentSession handles GET /api/sessions/current: the caller's
// session state. Identifiers are truncated; the full session ID never
// leaves the signed cookie.
func (h *SessionHandlers) HandleCurrentSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := session.SessionIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "Session could not be resolved")
		return
	}

	var conversationID *string
	if current := session.ConversationIDFromContext(r.Context()); current != "" {
		conversationID = &current
	}

	httputil.RespondJSON(w, http.StatusOK, models.SessionInfoResponse{
		SessionID:      logutil.ShortID(sessionID),
		ConversationID: conversationID,
		IsNew:          conversationID == nil,
		Timestamp:      time.Now().UTC(),
	})
}
