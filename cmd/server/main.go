package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"sessionchat-backend/internal/api"
	"sessionchat-backend/internal/config"
	"sessionchat-backend/internal/handlers"
	"sessionchat-backend/internal/llm"
	"sessionchat-backend/internal/services"
	"sessionchat-backend/internal/session"
	"sessionchat-backend/internal/store"
	"sessionchat-backend/internal/store/postgres"
)

func main() {
	log.Println("Starting SessionChat Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize Database Connection Pool
	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second) // Timeout for initial connection
	defer dbCancel()

	dbpool, err := pgxpool.New(dbCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Unable to create database connection pool: %v\n", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(dbCtx); err != nil {
		log.Fatalf("FATAL: Unable to ping database: %v\n", err)
	}
	log.Println("Database connection pool established and pinged successfully.")

	// 3. Initialize Dependencies (Store, LLM client, Services, Handlers)
	convStore := postgres.NewPostgresStore(dbpool, store.Limits{
		MaxMessages:   cfg.MaxChatHistory,
		MaxContentLen: cfg.MaxContentLength,
	})
	log.Println("Postgres conversation store initialized.")

	llmClient := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	log.Printf("LLM client initialized (model %s).", cfg.OpenAIModel)

	chatService := services.NewChatService(convStore, llmClient, cfg.MaxMessageLength, cfg.LLMTimeout)
	log.Println("ChatService initialized.")

	sessionManager := session.NewManager(cfg.SessionSecret, cfg.SessionTTL)
	log.Println("Session manager initialized.")

	chatHandler := handlers.NewChatHandlers(chatService, sessionManager)
	sessionHandler := handlers.NewSessionHandlers(chatService, sessionManager)
	log.Println("Handlers initialized.")

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		ChatHandler:    chatHandler,
		SessionHandler: sessionHandler,
		SessionManager: sessionManager,
	})
	log.Println("HTTP router configured.")

	// 5. Start the conversation expiry sweeper
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go runExpirySweeper(sweepCtx, convStore, cfg.ConversationTTL, cfg.SweepInterval)

	// 6. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// Production hardening: Set timeouts to avoid Slowloris attacks
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	// Run server in a goroutine so it doesn't block
	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	// Wait for interrupt signal
	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")
	sweepCancel()

	// Create a deadline context for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}

// runExpirySweeper periodically deletes conversations older than the
// configured TTL (measured from creation). Reads stay correct whether or not
// a sweep has run yet; an expired conversation simply looks like a missing
// one.
func runExpirySweeper(ctx context.Context, convStore store.ConversationStore, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[ExpirySweeper] Stopped.")
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			removed, err := convStore.DeleteExpired(sweepCtx, time.Now().Add(-ttl))
			cancel()
			if err != nil {
				log.Printf("ERROR [ExpirySweeper] Sweep failed: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("[ExpirySweeper] Removed %d expired conversations.", removed)
			}
		}
	}
}
