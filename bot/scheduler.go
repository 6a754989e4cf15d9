package bot

import (
	"context"
	"fmt"

	"discussion-bot/config"
	"discussion-bot/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CourseRescheduler queues a rescore of every tracked course.
type CourseRescheduler interface {
	RescoreAll(ctx context.Context) (int, error)
}

// Scheduler runs periodic course rescoring.
type Scheduler struct {
	cron      *cron.Cron
	service   CourseRescheduler
	schedule  string
	atStartup bool
	logger    *zap.Logger
}

// NewScheduler validates the configured cron spec.
func NewScheduler(service CourseRescheduler, settings models.Settings, logger *zap.Logger) (*Scheduler, error) {
	loc, err := config.Location(settings.Bot.Timezone)
	if err != nil {
		return nil, err
	}

	schedule := settings.Discussion.RescoreSchedule
	if schedule == "" {
		schedule = "@hourly"
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid discussion.rescoreSchedule %q: %w", schedule, err)
	}

	return &Scheduler{
		cron:      cron.New(cron.WithLocation(loc)),
		service:   service,
		schedule:  schedule,
		atStartup: settings.Bot.RescoreAtStart,
		logger:    logger.Named("scheduler"),
	}, nil
}

// Start schedules the rescoring job. Jobs stop queuing work once ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Initializing scheduler...")
	if _, err := s.cron.AddFunc(s.schedule, func() { s.rescoreAll(ctx) }); err != nil {
		s.logger.Error("Could not set up cron job", zap.Error(err))
		return
	}
	s.cron.Start()
	s.logger.Info("Cron job scheduled", zap.String("schedule", s.schedule))

	if s.atStartup {
		go func() {
			s.logger.Info("Performing initial rescore on startup...")
			s.rescoreAll(ctx)
		}()
	} else {
		s.logger.Info("Skipping initial rescore on startup as per configuration.")
	}
}

// Stop stops the cron jobs and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped.")
}

func (s *Scheduler) rescoreAll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := s.service.RescoreAll(ctx)
	if err != nil {
		s.logger.Error("Scheduled rescore failed", zap.Error(err))
		return
	}
	s.logger.Info("Scheduled rescore queued", zap.Int("courses", n))
}
