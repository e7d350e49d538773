package server

import (
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/tripsite/internal/foundation/errors"
)

// scheduler wraps a gocron scheduler running a single rebuild job.
type scheduler struct {
	s gocron.Scheduler
}

// newScheduler registers task on the cron expression expr. A run that would
// overlap the previous one is skipped.
func newScheduler(expr string, task func()) (*scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create scheduler").Build()
	}
	_, err = s.NewJob(
		gocron.CronJob(expr, false),
		gocron.NewTask(task),
		gocron.WithName("rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid rebuild schedule").
			WithContext("schedule", expr).
			Build()
	}
	return &scheduler{s: s}, nil
}

func (s *scheduler) Start() { s.s.Start() }

func (s *scheduler) Stop() error { return s.s.Shutdown() }
