package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"sessionchat-backend/internal/models"
	"sessionchat-backend/internal/services"
	"sessionchat-backend/internal/session"
	"sessionchat-backend/internal/store"
	"sessionchat-backend/pkg/httputil"
	"sessionchat-backend/pkg/logutil"
)

// ChatHandlers handles the send-message and history endpoints.
type ChatHandlers struct {
	chatService *services.ChatService
	sessions    *session.Manager
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService *services.ChatService, sessions *session.Manager) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatService,
		sessions:    sessions,
	}
}

// HandleSendMessage handles POST /api/chat: send a message, get the AI reply.
func (h *ChatHandlers) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := session.SessionIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "Session could not be resolved")
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Resolve the conversation: explicit ID from the request, else the
	// session's current conversation, else the service mints a new one.
	currentConversationID := session.ConversationIDFromContext(r.Context())
	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = currentConversationID
	}

	resp, err := h.chatService.SendMessage(r.Context(), sessionID, conversationID, req.Message)
	if err != nil {
		log.Printf("ERROR [ChatHandlers] SendMessage failed session=%s: %v", logutil.ShortID(sessionID), err)
		respondChatError(w, err)
		return
	}

	// Persist the resolved conversation as the session's current one.
	if resp.ConversationID != currentConversationID {
		h.sessions.Issue(w, sessionID, resp.ConversationID)
	}

	httputil.RespondJSON(w, http.StatusOK, resp)
}

// HandleGetHistory handles GET /api/chat/history: the messages of the
// requested conversation, defaulting to the session's current one.
func (h *ChatHandlers) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := session.SessionIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "Session could not be resolved")
		return
	}

	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		conversationID = session.ConversationIDFromContext(r.Context())
	}

	if conversationID == "" {
		httputil.RespondJSON(w, http.StatusOK, models.HistoryResponse{Messages: []models.Message{}})
		return
	}

	messages, err := h.chatService.GetHistory(r.Context(), sessionID, conversationID)
	if err != nil {
		log.Printf("ERROR [ChatHandlers] GetHistory failed session=%s conversation=%s: %v",
			logutil.ShortID(sessionID), logutil.ShortID(conversationID), err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to retrieve chat history")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.HistoryResponse{
		Messages:       messages,
		ConversationID: conversationID,
		Count:          len(messages),
	})
}

// HandleClearHistory handles DELETE /api/chat/history: removes the requested
// conversation, defaulting to the session's current one. Clearing a
// conversation that no longer exists is not an error.
func (h *ChatHandlers) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := session.SessionIDFromContext(r.Context())
	if !ok {
		httputil.RespondError(w, http.StatusInternalServerError, "Session could not be resolved")
		return
	}

	currentConversationID := session.ConversationIDFromContext(r.Context())
	conversationID := r.URL.Query().Get("conversationId")
	if conversationID == "" {
		conversationID = currentConversationID
	}

	if conversationID == "" {
		httputil.RespondJSON(w, http.StatusOK, models.DeleteConversationResponse{Message: "No conversation to clear"})
		return
	}

	// Already-gone is fine for a clear; anything else is a failure.
	if err := h.chatService.DeleteConversation(r.Context(), sessionID, conversationID); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Printf("ERROR [ChatHandlers] ClearHistory failed session=%s conversation=%s: %v",
			logutil.ShortID(sessionID), logutil.ShortID(conversationID), err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to clear chat history")
		return
	}

	// If this was the current conversation, clear it from the session.
	if conversationID == currentConversationID {
		h.sessions.Issue(w, sessionID, "")
	}

	log.Printf("[ChatHandlers] Chat history cleared session=%s conversation=%s",
		logutil.ShortID(sessionID), logutil.ShortID(conversationID))

	httputil.RespondJSON(w, http.StatusOK, models.DeleteConversationResponse{
		Message:        "Chat history cleared successfully",
		ConversationID: conversationID,
	})
}
