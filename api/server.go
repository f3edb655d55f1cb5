// Package api provides the HTTP and WebSocket API for TickerLens.
//
// It exposes endpoints for full analyses, market-data-only quotes, ticker
// classification, configuration status, and streamed analysis over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/seenimoa/tickerlens/internal/agent"
	"github.com/seenimoa/tickerlens/internal/config"
	"github.com/seenimoa/tickerlens/internal/datasource"
	"github.com/seenimoa/tickerlens/internal/market"
	"github.com/seenimoa/tickerlens/pkg/models"
)

// Version is reported by the health endpoint; set by the CLI.
var Version = "dev"

// requestTimeout bounds a single HTTP request, model fallbacks included.
const requestTimeout = 5 * time.Minute

// Pipeline is the analysis surface the server needs. *agent.Orchestrator implements it.
type Pipeline interface {
	AnalyzeWithObserver(ctx context.Context, raw string, obs agent.Observer) (*models.Analysis, error)
	Quote(ctx context.Context, raw string) (*agent.QuoteResult, error)
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	pipeline Pipeline
	log      zerolog.Logger
	ws       wsStats
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, pipeline Pipeline, log zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		pipeline: pipeline,
		log:      log.With().Str("component", "api").Logger(),
	}
	s.router = s.buildRouter()
	return s
}

// NewServerFromConfig wires the production pipeline and returns a server for it.
func NewServerFromConfig(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	orch, err := agent.NewFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewServer(cfg, orch, log), nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT/SIGTERM or when ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: requestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("event", "server_start").Str("addr", addr).Msg("API server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Str("event", "server_shutdown").Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	// CORS
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

	// Health check
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))

			r.Get("/health", s.handleHealth)

			// Analysis
			r.Post("/analyze", s.handleAnalyze)
			r.Get("/analyze/{ticker}", s.handleAnalyzeTicker)

			// Market data only
			r.Get("/quote/{ticker}", s.handleQuote)
			r.Get("/classify/{ticker}", s.handleClassify)

			// Configuration
			r.Get("/config", s.handleGetConfig)
		})
	})

	return r
}

// ============================================================
// Request / Response Types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Ticker string `json:"ticker"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    Version,
			"ws_clients": s.ws.active.Load(),
			"time":       time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.analyze(w, r, req.Ticker)
}

func (s *Server) handleAnalyzeTicker(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, chi.URLParam(r, "ticker"))
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request, ticker string) {
	result, err := s.pipeline.AnalyzeWithObserver(r.Context(), ticker, nil)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    result,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := s.pipeline.Quote(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    quote,
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	c, err := agent.Classify(chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    c,
	})
}

// ============================================================
// Helpers
// ============================================================

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	var fe *market.FetchError
	switch {
	case errors.Is(err, agent.ErrEmptyTicker):
		return http.StatusBadRequest
	case errors.Is(err, market.ErrNoData), errors.Is(err, datasource.ErrTickerNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &fe):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// requestLogger logs one line per request with the chi request ID.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			var event *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				event = log.Error()
			case status >= http.StatusBadRequest:
				event = log.Warn()
			default:
				event = log.Info()
			}
			event.
				Str("event", "http_request").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote_ip", r.RemoteAddr).
				Msg("http request completed")
		})
	}
}
