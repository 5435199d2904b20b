package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groq-chatbot/internal/config"
	"groq-chatbot/internal/handlers"
	"groq-chatbot/internal/llm"
	"groq-chatbot/internal/router"
	"groq-chatbot/internal/services"
	"groq-chatbot/internal/tools"
	"groq-chatbot/internal/websocket"
)

func main() {
	log.Println("🚀 Starting Research Agent...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize LLM Client ────
	llmClient, err := llm.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("✗ LLM client initialization failed: %v", err)
	}
	defer llmClient.Close()
	log.Printf("✓ LLM client initialized (%s)", cfg.LLMProvider)

	// ──── Step 3: Register Agent Tools ────
	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewSearchTool().Definition())
	registry.MustRegister(tools.NewWikipediaTool().Definition())
	if cfg.SaveToolEnabled {
		registry.MustRegister(tools.NewSaveTool(cfg.SaveToolPath).Definition())
	}
	log.Printf("✓ Agent tools registered: %v", registry.Names())

	// ──── Step 4: Start WebSocket Hub ────
	wsHub := websocket.NewHub()
	log.Println("✓ WebSocket hub started")

	// ──── Step 5: Initialize Research Agent ────
	agent := services.NewResearchService(llmClient, registry, wsHub, cfg.AgentMaxIterations, cfg.DebugDumpDir)
	researchHandler := handlers.NewResearchHandler(agent)

	// ──── Step 6: Start HTTP Server ────
	r := router.New(researchHandler, wsHub, cfg.FrontendURL, cfg.ResearchPerMin)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Agent runs call the model several times, so responses can be slow.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Research Agent ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/research", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
