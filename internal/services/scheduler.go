package services

import (
	"context"
	"time"

	"season-engine/pkg/logging"
)

// Scheduler fires the daily tick once per day, shortly after midnight,
// for the day that just completed. One goroutine drives the whole
// cycle, so tick invocations never overlap.
type Scheduler struct {
	ticks  *TickService
	logger *logging.ContextLogger
	hour   int
	minute int
	stop   chan struct{}
	done   chan struct{}
}

// NewScheduler creates a scheduler that fires at hour:minute local time
func NewScheduler(ticks *TickService, logger *logging.StructuredLogger, hour, minute int) *Scheduler {
	return &Scheduler{
		ticks:  ticks,
		logger: logger.WithFields(logging.Fields{"component": "scheduler"}),
		hour:   hour,
		minute: minute,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the scheduler loop
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop shuts the scheduler down and waits for the loop to exit
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		next := s.nextFireTime(time.Now())
		timer := time.NewTimer(time.Until(next))

		s.logger.Info(ctx, "[SCHEDULER_WAIT] Next daily tick scheduled", logging.Fields{
			"fire_at": next.Format(time.RFC3339),
		})

		select {
		case <-s.stop:
			timer.Stop()
			s.logger.Info(ctx, "[SCHEDULER_STOP] Scheduler stopped", logging.Fields{})
			return
		case fired := <-timer.C:
			// Process the day that just completed.
			day := fired.AddDate(0, 0, -1)

			summary, err := s.ticks.ProcessDay(ctx, day)
			if err != nil {
				s.logger.Error(ctx, "[SCHEDULER_TICK_ERROR] Daily tick failed", logging.Fields{
					"day": day.Format("2006-01-02"),
				}, err)
				continue
			}

			s.logger.Info(ctx, "[SCHEDULER_TICK] Daily tick completed", logging.Fields{
				"day":           summary.Day.Format("2006-01-02"),
				"skipped":       summary.Skipped,
				"active_season": summary.ActiveSeason.String(),
			})
		}
	}
}

// nextFireTime returns the next hour:minute occurrence strictly after now
func (s *Scheduler) nextFireTime(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
