// Package scheduler drives the outreach engine: a randomized poll loop over
// automatable leads, an asynq worker for webhook-triggered processing, and
// the periodic reconciliation jobs.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"outreach_backend/internal/leads"
	"outreach_backend/platform/config"
	"outreach_backend/platform/logger"
)

const candidateBatchSize = 200

// Scheduler owns the background poll loop. Start and Stop are idempotent;
// Stop blocks until the in-flight tick has drained.
type Scheduler struct {
	proc      *Processor
	leadsRepo *leads.Repository
	checker   *ConnectionChecker
	nightly   *Nightly
	log       *logger.Logger

	minTick      time.Duration
	maxTick      time.Duration
	concurrency  int
	connInterval time.Duration
	nightlyHour  int

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	lastCheck time.Time
	lastNight string
}

func New(
	proc *Processor,
	leadsRepo *leads.Repository,
	checker *ConnectionChecker,
	nightly *Nightly,
	cfg config.OutreachConfig,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		proc:         proc,
		leadsRepo:    leadsRepo,
		checker:      checker,
		nightly:      nightly,
		log:          log,
		minTick:      cfg.GetMinTickInterval(),
		maxTick:      cfg.GetMaxTickInterval(),
		concurrency:  cfg.GetLeadConcurrency(),
		connInterval: cfg.GetConnectionCheckInterval(),
		nightlyHour:  cfg.GetNightlyHourUTC(),
	}
}

// Status is a point-in-time snapshot of the loop for the admin surface.
type Status struct {
	Running             bool       `json:"running"`
	LastConnectionCheck *time.Time `json:"lastConnectionCheck,omitempty"`
	LastNightlyRun      string     `json:"lastNightlyRun,omitempty"`
}

// Status reports whether the loop is running and when the periodic jobs
// last fired.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Running:        s.cancel != nil,
		LastNightlyRun: s.lastNight,
	}
	if !s.lastCheck.IsZero() {
		t := s.lastCheck
		st.LastConnectionCheck = &t
	}
	return st
}

// Start launches the poll loop. Calling Start on a running scheduler is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx)
	s.log.Info("scheduler started", "min_tick", s.minTick, "max_tick", s.maxTick)
}

// Stop halts the loop and waits for the current tick to finish. Calling
// Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		// Randomized sleep between ticks keeps the send pattern irregular.
		sleep := s.minTick
		if jitter := s.maxTick - s.minTick; jitter > 0 {
			sleep += time.Duration(rand.Int63n(int64(jitter)))
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.tick(ctx)
	}
}

// tick runs one full pass: lead processing, connection detection when due,
// and the nightly jobs once per day.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()

	// Weekends pause all sending; detection and reconciliation still run.
	if wd := now.Weekday(); wd != time.Saturday && wd != time.Sunday {
		s.processLeads(ctx)
	}

	if s.checker != nil && s.claimConnectionCheck(now) {
		s.checker.Run(ctx)
	}

	if s.nightly != nil && now.Hour() >= s.nightlyHour && s.claimNightly(now.Format("2006-01-02")) {
		s.nightly.Run(ctx)
	}
}

func (s *Scheduler) claimConnectionCheck(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Sub(s.lastCheck) < s.connInterval {
		return false
	}
	s.lastCheck = now
	return true
}

func (s *Scheduler) claimNightly(day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastNight == day {
		return false
	}
	s.lastNight = day
	return true
}

func (s *Scheduler) processLeads(ctx context.Context) {
	ids, err := s.leadsRepo.ListAutomatable(ctx, candidateBatchSize)
	if err != nil {
		s.log.Error("list automatable leads", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}
	s.log.Info("processing leads", "count", len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := s.proc.ProcessLead(gctx, id); err != nil {
				s.log.WithLead(id.String()).Error("process lead", "error", err)
			}
			// Worker errors are logged, never fatal to the tick.
			return nil
		})
	}
	g.Wait()
}
