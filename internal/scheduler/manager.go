package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pokerjest/animatch/internal/matcher"
	"github.com/rs/zerolog/log"
)

// BatchRunner is the part of matcher.Runner the scheduler drives.
type BatchRunner interface {
	TryRun(ctx context.Context, maxItems int) (matcher.Summary, error)
}

type Manager struct {
	runner   BatchRunner
	interval time.Duration
	maxItems int

	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func NewManager(runner BatchRunner, interval time.Duration, maxItems int) *Manager {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Manager{
		runner:   runner,
		interval: interval,
		maxItems: maxItems,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs a batch immediately and then on every tick until Stop.
func (m *Manager) Start(ctx context.Context) {
	log.Info().Dur("interval", m.interval).Msg("Scheduler started")
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(m.done)
		defer cancel()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		// 立即执行一次
		m.RunOnce(ctx)
		for {
			select {
			case <-ticker.C:
				m.RunOnce(ctx)
			case <-m.quit:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the loop and waits for the current batch to return.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.quit) })
	<-m.done
	log.Info().Msg("Scheduler stopped")
}

// RunOnce triggers one batch; a batch already in progress is left alone.
func (m *Manager) RunOnce(ctx context.Context) {
	sum, err := m.runner.TryRun(ctx, m.maxItems)
	switch {
	case errors.Is(err, matcher.ErrBusy):
		log.Debug().Msg("Scheduler: batch already running, skipping tick")
	case errors.Is(err, context.Canceled):
		log.Debug().Msg("Scheduler: batch cancelled")
	case err != nil:
		log.Error().Err(err).Msg("Scheduler: batch failed")
	default:
		log.Debug().Str("run_id", sum.RunID).Int("selected", sum.Selected).Msg("Scheduler: batch done")
	}
}
