package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/doodleleagues/whitelist_checker/internal/config"
	"github.com/doodleleagues/whitelist_checker/internal/routes"
	"github.com/doodleleagues/whitelist_checker/internal/session"
)

const sweepInterval = time.Minute

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	sessions *session.Manager

	stopSweep context.CancelFunc
	swept     chan struct{}
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	sessions, err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger})
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{app: app, cfg: cfg, sessions: sessions, stopSweep: cancel, swept: make(chan struct{})}
	go func() {
		defer close(s.swept)
		sessions.Run(ctx, sweepInterval)
	}()
	return s, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server and the session sweeper.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	s.stopSweep()
	select {
	case <-s.swept:
	case <-ctx.Done():
	}
	return err
}
