// Package digest schedules the periodic debtor reminder for the admin.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/partybot/core/logger"
)

const component = "party.digest"

// Job produces and delivers one digest.
type Job func(ctx context.Context) error

// Scheduler runs Job on a standard five-field cron spec.
type Scheduler struct {
	spec string
	job  Job
	cron *cron.Cron
}

// New validates spec and prepares the schedule. An empty spec yields a
// disabled scheduler whose Start and Stop do nothing.
func New(spec string, job Job) (*Scheduler, error) {
	s := &Scheduler{spec: spec, job: job}
	if spec == "" {
		return s, nil
	}
	if job == nil {
		return nil, fmt.Errorf("digest: nil job")
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("digest: invalid cron spec %q: %w", spec, err)
	}
	s.cron = c
	return s, nil
}

// Enabled reports whether a schedule is configured.
func (s *Scheduler) Enabled() bool {
	return s.cron != nil
}

// Next returns the next scheduled run, zero when disabled or not started.
func (s *Scheduler) Next() time.Time {
	if s.cron == nil {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Start begins the schedule in the background.
func (s *Scheduler) Start() {
	if s.cron == nil {
		return
	}
	s.cron.Start()
	logger.Component(component).Info("digest scheduled",
		slog.String("event", "digest.schedule"),
		slog.String("cron", s.spec),
		slog.Time("next_run", s.Next()),
	)
}

// Stop halts the schedule and waits for a running digest or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce runs the job now and logs the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	start := time.Now()
	err := s.job(ctx)
	attrs := []slog.Attr{slog.Duration("duration", logger.RoundMS(time.Since(start)))}
	if err != nil {
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		logger.Warn(ctx, component, "digest.run", attrs...)
		return
	}
	attrs = append(attrs, slog.String("status", "ok"))
	logger.Info(ctx, component, "digest.run", attrs...)
}
