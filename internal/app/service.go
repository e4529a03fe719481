package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"user-service/internal/config"
	httptransport "user-service/internal/http"
	redisrepo "user-service/internal/repository/redis"
)

// Service represents the user management application
type Service struct {
	config *config.Config
	db     *redisrepo.DB
	server *httptransport.Server
}

// NewService creates and initializes a new Service instance
// This is a convenience wrapper around InitializeService
func NewService(ctx context.Context) (*Service, error) {
	return InitializeService(ctx)
}

// Start runs the HTTP server until it fails or a shutdown signal arrives.
func (s *Service) Start() error {
	errCh := make(chan error, 1)

	go func() {
		log.Println("Starting user service on port " + s.config.Server.Port)
		errCh <- s.server.Start(":" + s.config.Server.Port)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Printf("Received signal %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(ctx)
	}
}

// Shutdown gracefully shuts down the service
func (s *Service) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
