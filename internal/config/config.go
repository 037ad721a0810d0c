package config

import (
	"log"
	"os"
	"time"
)

type Config struct {
	Port string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// Gemini
	GeminiAPIKey    string
	ModelName       string
	ProviderTimeout time.Duration
	UseMockLLM      bool

	// Storage: "memory" or "firestore"
	StorageBackend string
	GCPProjectID   string

	// Front-end origin allowed by CORS
	CORSOrigin string

	// Max retained turns per user conversation
	MaxHistoryTurns int
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration in %s: %v", key, err)
	}
	return d
}

// Load reads all env vars and builds the config
func Load() *Config {
	cfg := &Config{
		Port: getEnv("GVIZ_PORT", "8080"),

		JWTSecret: getEnv("GVIZ_JWT_SECRET", ""),
		TokenTTL:  getDurationEnv("GVIZ_TOKEN_TTL", time.Hour),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		ModelName:       getEnv("GVIZ_MODEL_NAME", "gemini-2.5-flash"),
		ProviderTimeout: getDurationEnv("GVIZ_PROVIDER_TIMEOUT", 10*time.Second),
		UseMockLLM:      getBoolEnv("GVIZ_USE_MOCK_LLM", false),

		StorageBackend: getEnv("GVIZ_STORAGE_BACKEND", "memory"),
		GCPProjectID:   getEnv("GVIZ_GCP_PROJECT", ""),

		CORSOrigin: getEnv("GVIZ_CORS_ORIGIN", "http://localhost:5173"),

		MaxHistoryTurns: 40,
	}

	if cfg.JWTSecret == "" {
		log.Fatal("GVIZ_JWT_SECRET must be set")
	}
	if cfg.StorageBackend == "firestore" && cfg.GCPProjectID == "" {
		log.Fatal("GVIZ_GCP_PROJECT must be set for the firestore storage backend")
	}

	return cfg
}
