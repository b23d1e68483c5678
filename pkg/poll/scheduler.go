package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/ftpwatch/pkg/logging"
	"github.com/sdejongh/ftpwatch/pkg/metrics"
	"github.com/sdejongh/ftpwatch/pkg/models"
	"github.com/sdejongh/ftpwatch/pkg/snapshot"
)

// EmitFunc receives the report of every cycle that detected changes.
// Returning an error stops the scheduler.
type EmitFunc func(ctx context.Context, report *models.PollReport) error

// Cycle loads the state of the engine's target, runs one poll and saves
// the new state. The state is only saved when the poll succeeded.
func Cycle(ctx context.Context, backend snapshot.Backend, e *Engine) (*models.PollReport, error) {
	key := e.target.StateKey()

	state, err := timed(backend, "load", func() (*snapshot.State, error) {
		return backend.Load(ctx, key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %s: %w", e.target, err)
	}

	report, err := e.Run(ctx, state)
	if err != nil {
		return report, err
	}

	if _, err := timed(backend, "save", func() (*snapshot.State, error) {
		return nil, backend.Save(ctx, state)
	}); err != nil {
		return report, fmt.Errorf("failed to save state for %s: %w", e.target, err)
	}

	return report, nil
}

func timed(backend snapshot.Backend, op string, fn func() (*snapshot.State, error)) (*snapshot.State, error) {
	start := time.Now()
	state, err := fn()
	metrics.RecordStateOperation(backend.Name(), op, time.Since(start), err == nil)
	return state, err
}

// Scheduler polls every registered target on a fixed interval.
// Each target runs in its own goroutine, so cycles of one target never
// overlap while distinct targets progress independently.
type Scheduler struct {
	backend  snapshot.Backend
	interval time.Duration
	emit     EmitFunc
	logger   logging.Logger
	engines  []*Engine
}

// NewScheduler creates a scheduler persisting states in backend
func NewScheduler(backend snapshot.Backend, interval time.Duration, emit EmitFunc, logger logging.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Scheduler{
		backend:  backend,
		interval: interval,
		emit:     emit,
		logger:   logger,
	}
}

// Add registers an engine. It must be called before Run.
func (s *Scheduler) Add(e *Engine) {
	s.engines = append(s.engines, e)
}

// Run polls until ctx is cancelled or an emit fails.
// The first cycle of every target starts immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.engines) == 0 {
		return errors.New("no targets to watch")
	}
	if s.interval <= 0 {
		return fmt.Errorf("invalid polling interval: %s", s.interval)
	}

	s.logger.Info(ctx, "Starting scheduler", logging.Fields{
		"targets":  len(s.engines),
		"interval": s.interval.String(),
		"state":    s.backend.Name(),
	})

	g, ctx := errgroup.WithContext(ctx)
	for _, e := range s.engines {
		e := e
		g.Go(func() error {
			return s.watch(ctx, e)
		})
	}

	err := g.Wait()
	s.logger.Info(context.Background(), "Scheduler stopped", nil)
	return err
}

func (s *Scheduler) watch(ctx context.Context, e *Engine) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.tick(ctx, e); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// tick runs one cycle. Poll and state errors are logged and retried on the
// next tick; only emit errors are returned.
func (s *Scheduler) tick(ctx context.Context, e *Engine) error {
	report, err := Cycle(ctx, s.backend, e)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.logger.Error(ctx, "Cycle failed", err, logging.Fields{"target": e.target.String()})
		return nil
	}

	if !report.HasChanges() || s.emit == nil {
		return nil
	}

	if err := s.emit(ctx, report); err != nil {
		return fmt.Errorf("failed to emit changes for %s: %w", e.target, err)
	}
	return nil
}
