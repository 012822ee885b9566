// Package health serves a minimal liveness endpoint next to the bot
// process so orchestrators can probe it independently of Telegram
// connectivity.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/subtrackr/bot/core/buildinfo"
	"github.com/subtrackr/bot/core/logger"

	"log/slog"
)

type status struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Component string `json:"component"`
}

// Server owns the health HTTP listener.
type Server struct {
	srv    *http.Server
	listen string
}

// NewServer prepares a health server on the given listen address.
func NewServer(listen string) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handle)
	return &Server{
		listen: listen,
		srv: &http.Server{
			Addr:              listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   buildinfo.Version,
		Commit:    buildinfo.Commit,
		Component: "bot",
	})
}

// Start begins serving in the background. Listen errors surface here;
// serve errors are logged.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return err
	}
	logger.Info(ctx, "app", "health.listen",
		slog.String("listen", ln.Addr().String()),
	)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "app", "health.serve.fail",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()
	return nil
}

// Stop shuts the listener down, waiting briefly for in-flight probes.
func (s *Server) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
