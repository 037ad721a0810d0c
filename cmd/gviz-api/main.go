package main

import (
	"context"
	"log"
	"net/http"
	"time"

	httpadapter "github.com/gviz-app/gviz-api/internal/adapters/http"
	"github.com/gviz-app/gviz-api/internal/adapters/llm"
	firestorestore "github.com/gviz-app/gviz-api/internal/adapters/storage/firestore"
	memstore "github.com/gviz-app/gviz-api/internal/adapters/storage/memory"
	"github.com/gviz-app/gviz-api/internal/app/chat"
	"github.com/gviz-app/gviz-api/internal/app/recommend"
	"github.com/gviz-app/gviz-api/internal/auth"
	"github.com/gviz-app/gviz-api/internal/config"
	"github.com/gviz-app/gviz-api/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// LLM: mock for dev, Gemini when a key is present, nil otherwise.
	// With a nil generator the services answer with their fallback
	// messages instead of calling a provider.
	var generator domain.Generator

	switch {
	case cfg.UseMockLLM:
		log.Println("[LLM] Using MOCK generator")
		generator = llm.NewMockGenerator()
	case cfg.GeminiAPIKey != "":
		log.Printf("[LLM] Using Gemini generator (model=%s)", cfg.ModelName)
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.ModelName)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
		generator = gemini
	default:
		log.Println("[LLM] No GEMINI_API_KEY set, LLM features disabled")
	}

	// Storage: Firestore or Memory
	var userStore domain.UserStore
	var notificationStore domain.NotificationStore

	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		// 1 store, implements 2 interfaces
		userStore = fsStore
		notificationStore = fsStore

	default:
		log.Println("[STORE] Using in-memory storage")
		userStore = memstore.NewUserStore()
		notificationStore = memstore.NewNotificationStore()
	}

	// Auth
	issuer := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.TokenTTL)
	revocations := auth.NewRevocations()
	revocations.StartGC(10 * time.Minute)
	defer revocations.Stop()
	gate := auth.NewGate(issuer, revocations)

	// Services
	chatSvc := chat.NewService(generator, chat.NewHistory(cfg.MaxHistoryTurns), cfg.ProviderTimeout)
	recommendSvc := recommend.NewService(generator, cfg.ProviderTimeout)

	// HTTP server
	handler := httpadapter.NewServer(httpadapter.Deps{
		Users:         userStore,
		Notifications: notificationStore,
		Issuer:        issuer,
		Gate:          gate,
		Chat:          chatSvc,
		Recommend:     recommendSvc,
		CORSOrigin:    cfg.CORSOrigin,
	})

	addr := ":" + cfg.Port
	log.Println("GViz API listening on port:", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
