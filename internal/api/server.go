// Package api serves a read-only view of the panel state over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gopanel/gopanel/internal/build"
	"github.com/gopanel/gopanel/internal/logger"
	"github.com/gopanel/gopanel/internal/panel"
)

const shutdownTimeout = 5 * time.Second

// StateSource is the panel as seen by the API.
type StateSource interface {
	Snapshot(ctx context.Context) (panel.Snapshot, error)
	Subscribe() (<-chan panel.Snapshot, func())
}

// Server represents the HTTP API server
type Server struct {
	addr     string
	router   *mux.Router
	state    StateSource
	upgrader websocket.Upgrader
	log      *zerolog.Logger
}

// NewServer creates a new API server listening on addr.
func NewServer(addr string, state StateSource) *Server {
	s := &Server{
		addr:   addr,
		router: mux.NewRouter(),
		state:  state,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		log: logger.WithComponent("api"),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Routes live on the root router so a method mismatch is a 405.
	s.router.HandleFunc("/api/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/api/snapshot", s.handleSnapshot).Methods("GET")
	s.router.HandleFunc("/api/desktops", s.handleDesktops).Methods("GET")
	s.router.HandleFunc("/api/tasks", s.handleTasks).Methods("GET")
	s.router.HandleFunc("/api/stream", s.handleStream)
}

// Handler is the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

func (s *Server) String() string {
	return "api"
}

// Serve listens until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("API server listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("API server shutdown failed")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}
	return ctx.Err()
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (panel.Snapshot, bool) {
	snap, err := s.state.Snapshot(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return snap, false
	}
	return snap, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"status":  "healthy",
		"version": build.Current.Version,
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		s.writeJSON(w, snap)
	}
}

func (s *Server) handleDesktops(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		s.writeJSON(w, snap.Desktops)
	}
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		s.writeJSON(w, snap.Tasks)
	}
}

// handleStream sends the current snapshot, then one after every redraw
// until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.state.Subscribe()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Clients never send anything; reading detects the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	current, err := s.state.Snapshot(ctx)
	if err != nil {
		return
	}
	if err := conn.WriteJSON(current); err != nil {
		s.log.Debug().Err(err).Msg("WebSocket write failed")
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-updates:
			if err := conn.WriteJSON(snap); err != nil {
				s.log.Debug().Err(err).Msg("WebSocket write failed")
				return
			}
		}
	}
}
