package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"tenk_assistant/pkg/api/filing"
	"tenk_assistant/pkg/core/config"
	"tenk_assistant/pkg/core/ingest"
	"tenk_assistant/pkg/core/llm"
	"tenk_assistant/pkg/core/prompt"
	"tenk_assistant/pkg/core/rag"
	"tenk_assistant/pkg/core/vectorstore"
)

func main() {
	// Load environment variables
	godotenv.Load()

	cfg, err := config.Load("config/app.yaml")
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}

	// Load prompt overrides if a resources directory exists
	resourcesPath := "resources"
	if _, err := os.Stat(resourcesPath); os.IsNotExist(err) {
		exePath, _ := os.Executable()
		resourcesPath = filepath.Join(filepath.Dir(exePath), "resources")
	}
	if err := prompt.LoadFromDirectory(resourcesPath); err != nil {
		fmt.Printf("[WARNING] Failed to load prompt library: %v\n", err)
		fmt.Println("  Falling back to hardcoded prompts")
	} else {
		fmt.Printf("[PROMPT] Loaded %d prompts from %s\n", prompt.Get().Count(), resourcesPath)
	}

	filingsDir, err := cfg.FilingsDir()
	if err != nil {
		log.Fatalf("[Config] %v", err)
	}
	fetcher := ingest.NewFetcher(filingsDir, time.Duration(cfg.RequestDelayMs)*time.Millisecond)

	embedder := &llm.GeminiEmbedder{Model: cfg.EmbeddingModel}
	provider := &llm.GeminiProvider{Model: cfg.LLMModel}

	// Persistent index when a database is configured, in-memory otherwise
	var store vectorstore.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pg, err := vectorstore.NewPgVectorStore(context.Background(), dbURL, embedder)
		if err != nil {
			log.Fatalf("[VectorStore] %v", err)
		}
		defer pg.Close()
		store = pg
		fmt.Println("[VectorStore] Using pgvector index")
	} else {
		store = vectorstore.NewMemoryStore(embedder)
		fmt.Println("[VectorStore] DATABASE_URL not set, using in-memory index")
	}

	orc := rag.NewOrchestrator(cfg, fetcher, store, provider, rag.NewMemorySessionStore())

	handler := filing.NewHandler(orc)
	http.HandleFunc("/api/process-document", handler.HandleProcessDocument)
	http.HandleFunc("/api/generate", handler.HandleGenerate)
	http.HandleFunc("/api/generate-mda", handler.HandleGenerateMDA)
	http.HandleFunc("/api/parse-financial-data", handler.HandleParseFinancialData)
	http.HandleFunc("/health", filing.HandleHealth)
	http.HandleFunc("/", filing.HandleIndex)

	fmt.Printf("API server starting on %s...\n", cfg.APIAddr)
	fmt.Println("  - POST /api/process-document")
	fmt.Println("  - POST /api/generate")
	fmt.Println("  - POST /api/generate-mda")
	fmt.Println("  - POST /api/parse-financial-data")
	fmt.Println("  - GET  /health")

	if err := http.ListenAndServe(cfg.APIAddr, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
