package session

import (
	"context"
	"log"
	"net/http"

	"sessionchat-backend/pkg/logutil"
)

// Middleware resolves the caller's session from the signed cookie, minting a
// fresh session when the cookie is missing, expired or tampered with. The
// session identifier and current conversation pointer are injected into the
// request context for handlers.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			sessionID      string
			conversationID string
		)

		if cookie, err := r.Cookie(CookieName); err == nil {
			claims, err := m.parseToken(cookie.Value)
			if err != nil {
				log.Printf("[Session] Invalid session cookie, minting new session: %v", err)
			} else {
				sessionID = claims.SessionID
				conversationID = claims.ConversationID
			}
		}

		if sessionID == "" {
			sessionID = newSessionID()
			m.Issue(w, sessionID, "")
			log.Printf("[Session] New session created session=%s", logutil.ShortID(sessionID))
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		ctx = context.WithValue(ctx, conversationIDKey, conversationID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
