package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/groundtruth/concierge/internal/config"
	"github.com/groundtruth/concierge/internal/logger"
	"github.com/groundtruth/concierge/internal/memory"
	"github.com/groundtruth/concierge/internal/pipeline"
	"github.com/groundtruth/concierge/internal/web"
	"github.com/groundtruth/concierge/internal/websocket"
)

// Server is the HTTP facade over the chat pipeline.
type Server struct {
	config   *config.Config
	logger   *logger.Logger
	pipeline *pipeline.Pipeline
	memory   memory.Store
	router   *mux.Router
	server   *http.Server
	wsHub    *websocket.Hub
	limiter  *clientLimiter

	startTime       time.Time
	totalRequests   atomic.Int64
	totalDetections atomic.Int64
}

// New creates the HTTP server around an assembled pipeline.
func New(cfg *config.Config, pipe *pipeline.Pipeline, mem memory.Store, hub *websocket.Hub, log *logger.Logger) *Server {
	s := &Server{
		config:    cfg,
		logger:    log.WithComponent("server"),
		pipeline:  pipe,
		memory:    mem,
		router:    mux.NewRouter(),
		wsHub:     hub,
		startTime: time.Now(),
	}
	if cfg.RateLimit.Enabled {
		s.limiter = newClientLimiter(cfg.RateLimit)
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	s.router.HandleFunc("/", web.ServeDashboard).Methods("GET")
	s.router.HandleFunc("/dashboard", web.ServeDashboard).Methods("GET")

	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.wsHub.HandleWebSocket).Methods("GET")
	}

	api := s.router.NewRoute().Subrouter()
	api.Use(s.loggingMiddleware)
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/chat", s.handleChat).Methods("POST")
	api.HandleFunc("/reset_user/{user_id}", s.handleResetUser).Methods("POST")
	api.HandleFunc("/reset_all", s.handleResetAll).Methods("POST")
}

// Start runs the hub and serves until shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting concierge server",
		zap.Int("port", s.config.Server.Port),
		zap.Bool("privacy_enabled", s.config.Privacy.Enabled),
		zap.String("llm_provider", s.config.LLM.Provider),
		zap.Bool("dashboard", s.config.WebSocket.Enabled))

	if s.config.WebSocket.Enabled {
		go s.wsHub.Run()
		go s.broadcastStatusLoop()
	}
	if s.limiter != nil {
		go s.limiter.janitor()
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping concierge server")
	return s.server.Shutdown(ctx)
}

// broadcastStatusLoop pushes a status event to the dashboard every 30s.
func (s *Server) broadcastStatusLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := s.wsHub.GetStats()
		s.wsHub.BroadcastEvent(websocket.Event{
			Type:      websocket.EventTypeSystemStatus,
			Timestamp: time.Now(),
			Data: websocket.SystemStatusEvent{
				Status:           "ok",
				Uptime:           time.Since(s.startTime).Round(time.Second).String(),
				TotalRequests:    s.totalRequests.Load(),
				TotalDetections:  s.totalDetections.Load(),
				ConnectedClients: int(stats.ActiveConnections),
			},
		})
	}
}
