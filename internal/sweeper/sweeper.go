// Package sweeper runs the periodic expiry pass: archiving lapsed KOS
// entries and purging stale auth rows.
package sweeper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lorenzocolitta/brotherhood-kos/internal/models"
)

// EntrySweeper archives expired entries and reports list counts.
type EntrySweeper interface {
	ArchiveExpired(ctx context.Context, now time.Time) (int, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// AuthSweeper purges expired codes and sessions.
type AuthSweeper interface {
	PurgeExpired(ctx context.Context, now time.Time) (codes int64, sessions int64, err error)
}

// SweepObserver records sweep outcomes for metrics.
type SweepObserver interface {
	ObserveSweep(archived int)
	SetEntryGauges(active, archived int)
}

// Sweeper ticks on a fixed interval. Each tick is independent; a failed pass
// is retried naturally on the next tick.
type Sweeper struct {
	entries  EntrySweeper
	auth     AuthSweeper
	observer SweepObserver
	interval time.Duration
	logger   *zap.Logger

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

// New builds a Sweeper. A nil observer disables metrics.
func New(entries EntrySweeper, auth AuthSweeper, observer SweepObserver, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		entries:  entries,
		auth:     auth,
		observer: observer,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the loop. An immediate pass runs before the first tick so a
// restart catches up on anything that lapsed while the process was down.
func (s *Sweeper) Start(ctx context.Context) {
	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sweep(ctx)
		for {
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			case <-s.ticker.C:
				s.sweep(ctx)
			}
		}
	}()
	s.logger.Info("sweeper started", zap.Duration("interval", s.interval))
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	s.once.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Sweeper) sweep(ctx context.Context) {
	now := time.Now().UTC()

	archived, err := s.entries.ArchiveExpired(ctx, now)
	if err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
	} else if archived > 0 {
		s.logger.Info("expiry sweep archived entries", zap.Int("archived", archived))
	}
	if s.observer != nil && err == nil {
		s.observer.ObserveSweep(archived)
		if stats, statsErr := s.entries.Stats(ctx); statsErr != nil {
			s.logger.Warn("failed to read entry stats for gauges", zap.Error(statsErr))
		} else {
			s.observer.SetEntryGauges(stats.Active, stats.Archived)
		}
	}

	codes, sessions, err := s.auth.PurgeExpired(ctx, now)
	if err != nil {
		s.logger.Error("auth purge failed", zap.Error(err))
	} else if codes > 0 || sessions > 0 {
		s.logger.Info("purged stale auth rows",
			zap.Int64("codes", codes),
			zap.Int64("sessions", sessions))
	}
}
