package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"groq-chatbot/internal/handlers"
	"groq-chatbot/internal/middleware"
	"groq-chatbot/internal/websocket"
)

func New(
	researchHandler *handlers.ResearchHandler,
	wsHub *websocket.Hub,
	frontendURL string,
	researchPerMin int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Research rate limiter (per IP)
	researchLimiter := middleware.NewRateLimiter(researchPerMin, time.Minute)

	// Liveness
	r.Get("/", researchHandler.Root)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(researchLimiter.Middleware)
		r.Post("/research", researchHandler.Research)
	})

	// Agent activity stream
	r.Get("/ws", wsHub.HandleWebSocket)

	return r
}
