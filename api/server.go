// Package api provides the maintd REST server.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fleetforge/fleetmaint/api/handlers"
	"github.com/fleetforge/fleetmaint/database"
	"github.com/fleetforge/fleetmaint/planning"
	"github.com/fleetforge/fleetmaint/validation"
)

// Server is the maintd API server.
type Server struct {
	config   *Config
	router   *mux.Router
	handlers *handlers.Handlers
}

// Config contains server configuration.
type Config struct {
	Port          int                      `json:"port"`
	Debug         bool                     `json:"debug"`
	Database      database.Connection      `json:"-"`
	PreflightMode validation.PreflightMode `json:"preflight_mode"`
}

// NewServer creates an API server over the given dependencies.
func NewServer(config *Config, runner handlers.SchedulerRunner, sessions *planning.SessionStore) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server config is required")
	}

	server := &Server{
		config:   config,
		router:   mux.NewRouter(),
		handlers: handlers.NewHandlers(config.Database, runner, sessions, config.PreflightMode),
	}
	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	s.router.Use(s.corsMiddleware)
	if s.config.Debug {
		s.router.Use(s.loggingMiddleware)
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Maintenance window management
	api.HandleFunc("/windows", s.handlers.Window.List).Methods("GET")
	api.HandleFunc("/windows", s.handlers.Window.Create).Methods("POST")
	api.HandleFunc("/windows/{id}", s.handlers.Window.GetByID).Methods("GET")
	api.HandleFunc("/windows/{id}", s.handlers.Window.Update).Methods("PUT")
	api.HandleFunc("/windows/{id}", s.handlers.Window.Delete).Methods("DELETE")

	// Manual scheduler trigger
	api.HandleFunc("/scheduler/trigger", s.handlers.Scheduler.Trigger).Methods("POST")

	// Pre-update safety gate
	api.HandleFunc("/preflight/cluster", s.handlers.Validation.ClusterPreflight).Methods("POST")
	api.HandleFunc("/preflight/servers", s.handlers.Validation.ServerPreflight).Methods("POST")

	// Planning sessions
	api.HandleFunc("/sessions", s.handlers.Session.Start).Methods("POST")
	api.HandleFunc("/sessions/{id}/refresh", s.handlers.Session.Refresh).Methods("POST")
	api.HandleFunc("/sessions/{id}/power-off", s.handlers.Session.MarkPowerOff).Methods("POST")
	api.HandleFunc("/sessions/{id}/acknowledge", s.handlers.Session.MarkAcknowledged).Methods("POST")
	api.HandleFunc("/sessions/{id}/skip", s.handlers.Session.SkipHost).Methods("POST")
	api.HandleFunc("/sessions/{id}/scores", s.handlers.Session.Scores).Methods("GET")
	api.HandleFunc("/sessions/{id}/commit", s.handlers.Session.Commit).Methods("POST")
	api.HandleFunc("/sessions/{id}", s.handlers.Session.Discard).Methods("DELETE")

	log.Info("maintd API routes configured")
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: 200}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		logLevel := log.InfoLevel
		if wrapped.statusCode >= 500 {
			logLevel = log.ErrorLevel
		} else if wrapped.statusCode >= 400 {
			logLevel = log.WarnLevel
		}

		log.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": wrapped.statusCode,
			"duration_ms": duration.Milliseconds(),
			"remote":      r.RemoteAddr,
		}).Log(logLevel, "API request completed")
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"service":   "maintd API",
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  s.getDatabaseStatus(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.WithError(err).Error("Failed to encode health response")
	}
}

func (s *Server) getDatabaseStatus() string {
	if s.config.Database == nil {
		return "memory"
	}
	return s.config.Database.GetStatus()
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", s.config.Port).Info("Starting maintd API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info("Shutting down maintd API server gracefully...")
	return server.Shutdown(shutdownCtx)
}
