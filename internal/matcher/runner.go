package matcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pokerjest/animatch/internal/event"
	"github.com/pokerjest/animatch/internal/model"
	"github.com/pokerjest/animatch/internal/parser"
	"github.com/rs/zerolog/log"
)

// DefaultMaxProcessed caps a batch when the caller does not.
const DefaultMaxProcessed = 100

// ErrBusy is returned by TryRun when another batch holds the runner.
var ErrBusy = errors.New("a batch is already running")

// Summary 批处理统计
type Summary struct {
	RunID            string    `json:"run_id"`
	Selected         int       `json:"selected"`
	Matched          int       `json:"matched"`
	Local            int       `json:"local"`
	Remote           int       `json:"remote"`
	ExtractionFailed int       `json:"extraction_failed"`
	NoMatch          int       `json:"no_match"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

func (s *Summary) add(o Outcome) {
	if o.Matched {
		s.Matched++
		if o.Provenance == ProvenanceRemote {
			s.Remote++
		} else {
			s.Local++
		}
		return
	}
	switch o.Reason {
	case parser.ReasonExtractionFailed:
		s.ExtractionFailed++
	case parser.ReasonNoMatch:
		s.NoMatch++
	}
}

// Runner drives batches of unresolved anime releases through the matcher.
// Only one batch runs at a time per Runner.
type Runner struct {
	mu         sync.Mutex
	store      Store
	matcher    *Matcher
	pauser     Pauser
	bus        event.Bus
	category   int
	defaultMax int
	now        func() time.Time
}

func NewRunner(s Store, m *Matcher, p Pauser, bus event.Bus, defaultMax int) *Runner {
	if p == nil {
		p = NoPause{}
	}
	if bus == nil {
		bus = event.Discard{}
	}
	if defaultMax <= 0 {
		defaultMax = DefaultMaxProcessed
	}
	return &Runner{
		store:      s,
		matcher:    m,
		pauser:     p,
		bus:        bus,
		category:   model.CategoryTVAnime,
		defaultMax: defaultMax,
		now:        time.Now,
	}
}

// Run processes one batch, waiting for any batch already in progress.
func (r *Runner) Run(ctx context.Context, maxItems int) (Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run(ctx, maxItems)
}

// TryRun is Run that gives up with ErrBusy instead of waiting.
func (r *Runner) TryRun(ctx context.Context, maxItems int) (Summary, error) {
	if !r.mu.TryLock() {
		return Summary{}, ErrBusy
	}
	defer r.mu.Unlock()
	return r.run(ctx, maxItems)
}

// Result is what a background batch started with Start reports.
type Result struct {
	Summary Summary
	Err     error
}

// Start claims the runner and processes a batch in the background. It fails
// with ErrBusy right away when a batch is already running; otherwise the
// returned channel receives exactly one Result.
func (r *Runner) Start(ctx context.Context, maxItems int) (<-chan Result, error) {
	if !r.mu.TryLock() {
		return nil, ErrBusy
	}
	ch := make(chan Result, 1)
	go func() {
		defer r.mu.Unlock()
		sum, err := r.run(ctx, maxItems)
		ch <- Result{Summary: sum, Err: err}
	}()
	return ch, nil
}

func (r *Runner) run(ctx context.Context, maxItems int) (Summary, error) {
	if maxItems <= 0 {
		maxItems = r.defaultMax
	}
	sum := Summary{RunID: uuid.NewString(), StartedAt: r.now()}

	releases, err := r.store.SelectUnresolved(ctx, r.category, maxItems)
	if err != nil {
		return sum, fmt.Errorf("select releases: %w", err)
	}
	sum.Selected = len(releases)
	if len(releases) == 0 {
		log.Info().Msg("No work to process.")
		sum.FinishedAt = r.now()
		return sum, nil
	}

	finish := func() {
		sum.FinishedAt = r.now()
		r.bus.Publish(event.EventBatchFinished, sum)
	}

	r.bus.Publish(event.EventBatchStarted, sum)
	log.Info().Str("run_id", sum.RunID).Int("releases", len(releases)).Msg("processing anime releases")
	r.pauser.Pause()

	for _, rel := range releases {
		if err := ctx.Err(); err != nil {
			finish()
			return sum, err
		}

		out, err := r.matcher.Resolve(ctx, rel)
		if err != nil {
			finish()
			return sum, fmt.Errorf("resolve release %d: %w", rel.ID, err)
		}
		if !out.Matched {
			if _, err := r.store.SetResolvedIdentity(ctx, rel.ID, out.StoreValue()); err != nil {
				finish()
				return sum, fmt.Errorf("record failure for release %d: %w", rel.ID, err)
			}
		}
		sum.add(out)
		r.bus.Publish(event.EventReleaseResolved, out)
	}

	finish()
	log.Info().
		Str("run_id", sum.RunID).
		Int("matched", sum.Matched).
		Int("local", sum.Local).
		Int("remote", sum.Remote).
		Int("extraction_failed", sum.ExtractionFailed).
		Int("no_match", sum.NoMatch).
		Msg("anime batch finished")
	return sum, nil
}
