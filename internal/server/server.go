package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/speedwagon-io/tuya-local-poll/internal/emitter"
	"github.com/speedwagon-io/tuya-local-poll/internal/lib/logger/sl"
	"github.com/speedwagon-io/tuya-local-poll/internal/model"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type ReadyResponse struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Poller is what the HTTP surface drives: one guarded poll per /status
// request and a reachability check for /ready.
type Poller interface {
	Run(ctx context.Context) model.Result
	Ready(ctx context.Context) error
}

type Server struct {
	log     *slog.Logger
	address string
	poller  Poller
	server  *http.Server
}

func New(log *slog.Logger, address string, poller Poller) *Server {
	return &Server{
		log:     log,
		address: address,
		poller:  poller,
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/status", s.handleStatus)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.log.Info("starting status server", slog.String("address", s.address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("status server error", sl.Err(err))
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	res := s.poller.Run(r.Context())

	data, err := emitter.Encode(res)
	if err != nil {
		s.log.Error("failed to encode result", sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	statusCode := http.StatusOK
	if !res.Online {
		statusCode = http.StatusBadGateway
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	response := ReadyResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
	}

	statusCode := http.StatusOK
	if err := s.poller.Ready(r.Context()); err != nil {
		response.Status = StatusUnhealthy
		response.Message = err.Error()
		statusCode = http.StatusServiceUnavailable
		s.log.Warn("device not ready", sl.Err(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
