package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Server exposes /metrics and /healthz over HTTP.
type Server struct {
	server *http.Server
}

// StartServer begins serving metrics on host:port in the background. It
// returns once the listener is bound, so a bad address fails fast.
func StartServer(host string, port int) (*Server, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK")) //nolint:errcheck
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	s := &Server{
		server: &http.Server{
			Handler: c.Handler(router),
		},
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()
	log.Info("Metrics server started", "addr", addr)
	return s, nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
