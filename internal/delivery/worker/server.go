// Package worker runs background jobs alongside the API server.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"planp/config"
	"planp/internal/delivery"
	"planp/internal/domain/lifecycle"
	"planp/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

type workerServer struct {
	interval time.Duration
	sessions usecase.SessionUsecase
	logger   *slog.Logger

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// ServerParams holds dependencies for the worker
type ServerParams struct {
	fx.In

	Lc       fx.Lifecycle
	Cfg      *config.Config
	Logger   *slog.Logger
	Sessions usecase.SessionUsecase
}

// NewServer creates the session cleanup worker.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	if params.Cfg.Auth == nil || params.Cfg.Auth.SessionCleanupInterval <= 0 {
		return nil, errors.New("auth.sessionCleanupInterval must be positive")
	}

	srv := newWorkerServer(params.Cfg.Auth.SessionCleanupInterval, params.Sessions, params.Logger)

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

func newWorkerServer(interval time.Duration, sessions usecase.SessionUsecase, logger *slog.Logger) *workerServer {
	return &workerServer{
		interval: interval,
		sessions: sessions,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Serve purges expired refresh tokens every interval until ctx is done or the worker is stopped.
func (s *workerServer) Serve(ctx context.Context) error {
	s.started.Store(true)
	defer close(s.doneCh)

	s.logger.Info("Starting session cleanup worker", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *workerServer) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	// The use case logs the outcome; a failed sweep is retried on the next tick.
	_, _ = s.sessions.CleanupExpiredSessions(runCtx)
}

// stop signals the loop and waits for the in-flight sweep to finish.
func (s *workerServer) stop(ctx context.Context) error {
	s.logger.Info("Shutting down session cleanup worker")
	s.stopOnce.Do(func() { close(s.stopCh) })
	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.doneCh:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}
