package http

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"
)

// Server envuelve http.Server con timeouts fijos y apagado graceful.
type Server struct {
	srv *stdhttp.Server
}

func NewServer(addr string, handler stdhttp.Handler) *Server {
	return &Server{srv: &stdhttp.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
}

// Start bloquea hasta que el server termine. ErrServerClosed no es error.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
