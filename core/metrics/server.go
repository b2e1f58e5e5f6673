package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/partybot/core/logger"
)

// Server serves /metrics and /healthz.
type Server struct {
	srv *http.Server
}

// NewRouter builds the ops routes.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	return r
}

// NewServer prepares the ops server on listen (host:port).
func NewServer(listen string) *Server {
	return &Server{srv: &http.Server{
		Addr:              listen,
		Handler:           NewRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}}
}

// Start listens in the background. Listener failures are logged.
func (s *Server) Start() {
	logger.Ops.Info("ops server listening",
		slog.String("event", "ops.listen"),
		slog.String("listen", s.srv.Addr),
	)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Ops.Error("ops server failed",
				slog.String("event", "ops.listen"),
				slog.String("err", err.Error()),
			)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
