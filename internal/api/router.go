package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sessionchat-backend/internal/handlers"
	"sessionchat-backend/internal/session"
)

// RouterDependencies holds all the dependencies required by the router setup.
type RouterDependencies struct {
	ChatHandler    *handlers.ChatHandlers
	SessionHandler *handlers.SessionHandlers
	SessionManager *session.Manager
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)                 // Inject request ID into context
	r.Use(middleware.RealIP)                    // Use X-Forwarded-For or X-Real-IP
	r.Use(middleware.Logger)                    // Log requests
	r.Use(middleware.Recoverer)                 // Recover from panics, return 500
	r.Use(middleware.Timeout(60 * time.Second)) // Set a request timeout

	// --- CORS Configuration ---
	// The browser UI sends the session cookie, so credentials must be allowed.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes (no session required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// --- Session-scoped API ---
	r.Route("/api", func(r chi.Router) {
		// Resolve (or mint) the browser session on every request.
		r.Use(deps.SessionManager.Middleware)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/", deps.ChatHandler.HandleSendMessage)
			r.Get("/history", deps.ChatHandler.HandleGetHistory)
			r.Delete("/history", deps.ChatHandler.HandleClearHistory)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", deps.SessionHandler.HandleListConversations)
			r.Post("/", deps.SessionHandler.HandleNewConversation)
			r.Get("/current", deps.SessionHandler.HandleCurrentSession)
			r.Delete("/{conversationID}", deps.SessionHandler.HandleDeleteConversation)
		})
	})

	return r
}
