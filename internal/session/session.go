// Package session is the browser session boundary: a signed cookie carrying
// a stable per-browser session identifier and the session's current
// conversation pointer. The conversation core never reaches into session
// state; handlers receive the resolved identifiers from the request context
// and re-issue the cookie when the conversation pointer changes.
package session

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CookieName is the session cookie issued to browsers.
const CookieName = "chat_session"

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

const (
	sessionIDKey      contextKey = "sessionID"
	conversationIDKey contextKey = "conversationID"
)

// Claims carries the session state inside the signed cookie.
type Claims struct {
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs, parses and re-issues session cookies.
type Manager struct {
	secret string
	ttl    time.Duration
}

func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{secret: secret, ttl: ttl}
}

// Issue writes a session cookie carrying the session identifier and its
// current conversation pointer. Called by the middleware when minting a new
// session and by handlers whenever the conversation pointer changes.
func (m *Manager) Issue(w http.ResponseWriter, sessionID, conversationID string) {
	token, err := m.newToken(sessionID, conversationID)
	if err != nil {
		log.Printf("ERROR [Session] Failed to sign session token: %v", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// newToken generates a signed session token.
func (m *Manager) newToken(sessionID, conversationID string) (string, error) {
	claims := Claims{
		SessionID:      sessionID,
		ConversationID: conversationID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   sessionID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secret))
}

// parseToken validates a session token and returns its claims.
func (m *Manager) parseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing algorithm
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// newSessionID mints an opaque session identifier.
func newSessionID() string {
	return uuid.NewString()
}

// --- Context Helper Functions ---

// SessionIDFromContext retrieves the session identifier from the request
// context. Returns the ID and true if the session middleware ran.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionIDKey).(string)
	return sessionID, ok
}

// ConversationIDFromContext retrieves the session's current conversation
// pointer from the request context. An empty string means the session has
// no current conversation.
func ConversationIDFromContext(ctx context.Context) string {
	conversationID, _ := ctx.Value(conversationIDKey).(string)
	return conversationID
}
