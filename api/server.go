// Package api provides the HTTP REST server for Marketlyst.
//
// It exposes the agent pipeline at POST /run with the chat message
// envelope, the cached market news at GET /news, and service info and
// health endpoints.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/marketlyst/internal/agent"
	"github.com/seenimoa/marketlyst/internal/config"
	"github.com/seenimoa/marketlyst/internal/datasource"
	"github.com/seenimoa/marketlyst/internal/logger"
	"github.com/seenimoa/marketlyst/pkg/models"
)

// maxReplyLength is the Telegram-safe reply cap.
const maxReplyLength = 3500

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	agent  *agent.Agent
	news   *datasource.NewsAggregator
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, ag *agent.Agent, news *datasource.NewsAggregator) *Server {
	s := &Server{cfg: cfg, agent: ag, news: news}
	s.router = s.buildRouter()
	return s
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	logger.Log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/news", s.handleNews)
	r.Post("/run", s.handleRun)

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope for service endpoints.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":        "Marketlyst",
		"version":     "1.0.0",
		"description": "Агент для аналізу ринкової тональності",
		"endpoints": map[string]string{
			"POST /run": "Запустити аналіз ринку",
			"GET /news": "Отримати останні новини",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// handleRun runs one utterance through the agent pipeline. The body is
// {messages:[{role,content}]}; the last user message is the utterance.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply := s.agent.Handle(r.Context(), req.LastUserText())

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Message: models.Message{
			Role:    "assistant",
			Content: TruncateReply(reply.Text, maxReplyLength),
		},
	})
}

// handleNews returns the cached general market news list.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	articles := s.news.General(r.Context())
	if articles == nil {
		articles = []models.NewsArticle{}
	}
	writeJSON(w, http.StatusOK, articles)
}

// ============================================================
// Helpers
// ============================================================

// TruncateReply caps a reply at maxLen characters, preferring to cut at
// the last full line when one falls in the final third.
func TruncateReply(reply string, maxLen int) string {
	runes := []rune(reply)
	if len(runes) <= maxLen {
		return reply
	}

	truncated := runes[:maxLen]
	for i := len(truncated) - 1; i > maxLen*7/10; i-- {
		if truncated[i] == '\n' {
			truncated = truncated[:i]
			break
		}
	}
	return string(truncated) + "\n\n💬 [Відповідь обрізана]"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithComponent("api").WithError(err).Error("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}
