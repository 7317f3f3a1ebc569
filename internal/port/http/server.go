package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/AlphaIsYour/creanomic-sub002/internal/app/config"
	"github.com/AlphaIsYour/creanomic-sub002/internal/platform/logger"
)

type Server struct {
	log    logger.Logger
	server *http.Server
}

func NewServer(cfg config.HTTPServerConfig, mux http.Handler, log logger.Logger) *Server {
	return &Server{
		log: log,
		server: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

func (s *Server) Start() error {
	s.log.Infof("HTTP server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
