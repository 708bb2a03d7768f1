package scheduler

import (
	"context"
	"testing"
	"time"

	"outreach_backend/platform/logger"
)

type testOutreachConfig struct{}

func (testOutreachConfig) GetMaxInvitesPerDay() int                  { return 25 }
func (testOutreachConfig) GetMaxMessagesPerDay() int                 { return 100 }
func (testOutreachConfig) GetMinTickInterval() time.Duration         { return time.Hour }
func (testOutreachConfig) GetMaxTickInterval() time.Duration         { return 2 * time.Hour }
func (testOutreachConfig) GetMinActionDelay() time.Duration          { return 5 * time.Minute }
func (testOutreachConfig) GetWorkingHoursStart() int                 { return 9 }
func (testOutreachConfig) GetWorkingHoursEnd() int                   { return 17 }
func (testOutreachConfig) GetNightlyHourUTC() int                    { return 1 }
func (testOutreachConfig) GetConnectionCheckInterval() time.Duration { return 2 * time.Hour }
func (testOutreachConfig) GetIdempotencyWindow() time.Duration       { return 10 * time.Minute }
func (testOutreachConfig) GetLeadConcurrency() int                   { return 4 }

func newIdleScheduler() *Scheduler {
	// Hour-long ticks: the loop starts but never reaches a tick during the
	// test, so nil dependencies are never dereferenced.
	return New(nil, nil, nil, nil, testOutreachConfig{}, logger.New("development"))
}

func TestStartStopIdempotent(t *testing.T) {
	s := newIdleScheduler()

	s.Start(context.Background())
	s.Start(context.Background()) // second start is a no-op

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop() // second stop is a no-op
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestStopWithoutStart(t *testing.T) {
	s := newIdleScheduler()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop on a never-started scheduler must not block")
	}
}

func TestRestartAfterStop(t *testing.T) {
	s := newIdleScheduler()

	s.Start(context.Background())
	s.Stop()

	s.Start(context.Background())
	s.Stop()
}

func TestStatusReflectsLifecycle(t *testing.T) {
	s := newIdleScheduler()

	if s.Status().Running {
		t.Fatal("new scheduler must report not running")
	}
	s.Start(context.Background())
	if !s.Status().Running {
		t.Fatal("started scheduler must report running")
	}
	s.Stop()
	if s.Status().Running {
		t.Fatal("stopped scheduler must report not running")
	}
}

func TestStopsWhenParentContextCancelled(t *testing.T) {
	s := newIdleScheduler()

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	// The loop exits on its own; Stop must still return promptly.
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return after parent cancellation")
	}
}
