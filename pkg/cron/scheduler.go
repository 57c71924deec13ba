// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Shlok2903/spendora/internal/report"
)

// Scheduler manages background scheduled jobs.
type Scheduler struct {
	cron    *cron.Cron
	reports *report.Generator
	logger  *slog.Logger
}

// NewScheduler creates a new job scheduler. Schedules fire in loc.
func NewScheduler(reports *report.Generator, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))),
	)

	return &Scheduler{
		cron:    c,
		reports: reports,
		logger:  logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Weekly spending report: Mondays at 8:00 AM.
	_, err := s.cron.AddFunc("0 8 * * 1", s.sendWeeklyReports)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the weekly report run.
func (s *Scheduler) RunNow() {
	go s.sendWeeklyReports()
}

func (s *Scheduler) sendWeeklyReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.Info("starting weekly report run")
	if err := s.reports.RunWeekly(ctx); err != nil {
		s.logger.Error("weekly report run finished with errors", slog.Any("error", err))
		return
	}
	s.logger.Info("weekly report run finished")
}
