package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort    string
	DatabaseURL string

	// Session cookie signing
	SessionSecret string
	SessionTTL    time.Duration

	// Conversation storage limits
	MaxChatHistory   int           // Max stored messages per conversation
	MaxMessageLength int           // Max inbound message length (runes)
	MaxContentLength int           // Max stored message content length (runes)
	ConversationTTL  time.Duration // Age after which conversations expire
	SweepInterval    time.Duration // How often the expiry sweep runs

	// LLM provider
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	LLMTimeout    time.Duration
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		log.Fatal("FATAL: DATABASE_URL environment variable is not set.")
	}

	apiKey := getEnv("OPENAI_API_KEY", "")
	if apiKey == "" {
		log.Fatal("FATAL: OPENAI_API_KEY environment variable is not set.")
	}

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		DatabaseURL: dbURL,

		SessionSecret: getEnv("SESSION_SECRET", "default-super-secret-key"), // CHANGE THIS IN PRODUCTION!
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,

		MaxChatHistory:   getEnvInt("MAX_CHAT_HISTORY", 50),
		MaxMessageLength: getEnvInt("MAX_MESSAGE_LENGTH", 4000),
		MaxContentLength: getEnvInt("MAX_CONTENT_LENGTH", 10000),
		ConversationTTL:  time.Duration(getEnvInt("CONVERSATION_TTL", 30*24*60*60)) * time.Second,
		SweepInterval:    time.Duration(getEnvInt("EXPIRY_SWEEP_INTERVAL_SECONDS", 3600)) * time.Second,

		OpenAIAPIKey:  apiKey,
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4"),
		LLMTimeout:    time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, Model=%s, MaxHistory=%d, ConversationTTL=%s",
		cfg.HTTPPort, cfg.OpenAIModel, cfg.MaxChatHistory, cfg.ConversationTTL)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvInt retrieves an integer environment variable or returns a default value.
func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s', using default %d. Error: %v", key, value, fallback, err)
		return fallback
	}
	return parsed
}
