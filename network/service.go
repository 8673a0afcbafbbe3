package network

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/quizpulse/quizpulse/config"
	"github.com/quizpulse/quizpulse/engine"
	"github.com/quizpulse/quizpulse/status"
)

// Service is the websocket transport front door: it upgrades connections,
// binds them to cookie sessions, and serves the diagnostic endpoints.
type Service struct {
	cfg  *config.Config
	log  zerolog.Logger
	met  *status.Metrics
	core *engine.Core
	hub  *Hub

	upgrader websocket.Upgrader
	srv      *http.Server
	errCh    chan error
}

// NewService wires the transport to the core and hub
func NewService(cfg *config.Config, core *engine.Core, hub *Hub, gatherer prometheus.Gatherer, log zerolog.Logger, met *status.Metrics) *Service {
	s := &Service{
		cfg:  cfg,
		log:  log.With().Str("component", "network").Logger(),
		met:  met,
		core: core,
		hub:  hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The quiz client may be served from another origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		errCh: make(chan error, 1),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.handleWS)
	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.srv = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	return s
}

// Handler exposes the HTTP mux, primarily for tests
func (s *Service) Handler() http.Handler { return s.srv.Handler }

// Start begins listening; returns immediately, surfacing serve errors on
// Err
func (s *Service) Start() {
	s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("listening")
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errCh <- fmt.Errorf("serve: %w", err)
		}
	}()
}

// Err reports a fatal serve error
func (s *Service) Err() <-chan error { return s.errCh }

// Stop closes the listener and every endpoint
func (s *Service) Stop(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.hub.CloseAll()
	return err
}

// handleWS upgrades the connection and starts its pumps
func (s *Service) handleWS(w http.ResponseWriter, r *http.Request) {
	sid, header := ensureSession(w, r)

	ws, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		s.log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}

	conn := newConn(sid, ws, s.hub, s.core, s.log)
	s.hub.addEndpoint(conn)
	conn.start()
	s.log.Debug().Str("session", string(sid)).Str("remote", r.RemoteAddr).Msg("endpoint connected")
}

// handleHealth answers liveness probes
func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleStats reports a consistent core snapshot as JSON
func (s *Service) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, err := s.core.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(mustJSON(snap))
}
