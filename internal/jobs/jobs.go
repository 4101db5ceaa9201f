// Package jobs runs the periodic maintenance tasks of the server.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"alcyxob/program-ledger/internal/config"
	"alcyxob/program-ledger/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// sweepTimeout bounds a single lifecycle sweep.
const sweepTimeout = 5 * time.Minute

// Runner owns the cron scheduler.
type Runner struct {
	cfg       config.JobsConfig
	lifecycle service.LifecycleService
	log       zerolog.Logger
	parser    cron.Parser
	now       func() time.Time

	mu sync.Mutex
	c  *cron.Cron
}

// NewRunner creates a runner; nothing is scheduled until Start.
func NewRunner(cfg config.JobsConfig, lifecycle service.LifecycleService, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:       cfg,
		lifecycle: lifecycle,
		log:       log.With().Str("component", "jobs").Logger(),
		parser:    cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:       time.Now,
	}
}

// Start registers the configured jobs and starts the scheduler. An empty
// finish schedule disables the lifecycle sweep.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.c != nil {
		return nil
	}
	schedule := strings.TrimSpace(r.cfg.FinishSchedule)
	if schedule == "" {
		r.log.Info().Msg("lifecycle sweep disabled")
		return nil
	}

	loc := r.location()
	c := cron.New(cron.WithParser(r.parser), cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() { r.RunFinishSweep(context.Background()) }); err != nil {
		return fmt.Errorf("jobs: invalid finish_schedule %q: %w", schedule, err)
	}
	c.Start()
	r.c = c
	r.log.Info().Str("schedule", schedule).Str("tz", loc.String()).Msg("scheduler started")
	return nil
}

// Stop waits for a running job to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	c := r.c
	r.c = nil
	r.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
		r.log.Info().Msg("scheduler stopped")
	}
}

// RunFinishSweep runs one lifecycle sweep and logs its outcome.
func (r *Runner) RunFinishSweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := time.Now()
	n, err := r.lifecycle.FinishElapsed(ctx, r.now().In(r.location()))
	var ev *zerolog.Event
	if err != nil {
		ev = r.log.Error().Err(err)
	} else {
		ev = r.log.Info()
	}
	ev.Int("finished", n).Dur("took", time.Since(start)).Msg("lifecycle sweep")
	return n
}

func (r *Runner) location() *time.Location {
	tz := strings.TrimSpace(r.cfg.Timezone)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		r.log.Warn().Str("tz", tz).Err(err).Msg("invalid timezone, falling back to UTC")
		return time.UTC
	}
	return loc
}
