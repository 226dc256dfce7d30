package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Server serves the health-check endpoint. It shares no state with the
// polling worker; once the process is up it always reports running.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// NewServer creates a new health server listening on addr.
func NewServer(addr string, logger *zap.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      newRouter(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusResponse{
			Status:  "running",
			Message: "Email checker is active.",
		})
	})
	return r
}

// Start begins serving in the background.
func (s *Server) Start() error {
	s.logger.Info("Health endpoint starting", zap.String("address", s.srv.Addr))

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Health server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
