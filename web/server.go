// Package web exposes the live location state over HTTP and pushes fixes to
// websocket clients.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"locator-go/locate"
	"locator-go/model"
)

type InstallationLister interface {
	Installations() []model.Installation
}

type FixLister interface {
	Latest() []locate.Fix
}

type StatsSource interface {
	Stats() locate.Stats
}

type Server struct {
	Hub *Hub

	installations InstallationLister
	fixes         FixLister
	stats         StatsSource
	logger        zerolog.Logger
}

func NewServer(hub *Hub, installations InstallationLister, fixes FixLister, stats StatsSource, logger zerolog.Logger) *Server {
	return &Server{
		Hub:           hub,
		installations: installations,
		fixes:         fixes,
		stats:         stats,
		logger:        logger.With().Str("component", "web").Logger(),
	}
}

// Router builds the HTTP routes. distDir, when set, is served as a static frontend.
func (s *Server) Router(distDir string) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/ws", s.Hub.serveWs)
	r.HandleFunc("/health", s.getHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/installations", s.getInstallations).Methods(http.MethodGet)
	r.HandleFunc("/api/installations/{id}", s.getInstallation).Methods(http.MethodGet)
	r.HandleFunc("/api/fixes", s.getFixes).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.getStats).Methods(http.MethodGet)

	if distDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(distDir)))
	}
	return r
}

// Start serves until ctx is cancelled, then shuts the listener down gracefully.
func (s *Server) Start(ctx context.Context, port int, distDir string) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router(distDir),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "http shutdown")
		}
		return nil
	}
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "clients": s.Hub.Clients()})
}

func (s *Server) getInstallations(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.installations.Installations())
}

func (s *Server) getInstallation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, inst := range s.installations.Installations() {
		if inst.ID == id {
			s.writeJSON(w, http.StatusOK, inst)
			return
		}
	}
	s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "installation " + id + " not found"})
}

func (s *Server) getFixes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.fixes.Latest())
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.stats.Stats())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Msg("write response")
	}
}
