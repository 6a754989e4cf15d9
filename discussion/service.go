package discussion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discussion-bot/database"
	"discussion-bot/models"
	"discussion-bot/periods"
	"discussion-bot/queue"
	"discussion-bot/scoring"

	"go.uber.org/zap"
)

const rescoreKey = "rescore"

// CourseRescorer computes fresh period totals for a course.
type CourseRescorer interface {
	RescoreCourse(ctx context.Context, course *models.Course) ([]models.ScorePeriod, error)
}

// Notifier receives failures of actions nobody is waiting on.
type Notifier interface {
	Error(module, operation, details string)
}

// Options configures a Service.
type Options struct {
	Location *time.Location // zone period inputs are parsed in
	// RescoreOnPeriodChange enqueues a rescore after a period was added or edited.
	RescoreOnPeriodChange bool
}

// Service is the entry point for every discussion operation. All changes to a
// course's specs run as actions on that course's queue, so they never interleave
// with each other or with a rescore.
type Service struct {
	store    database.CourseStore
	rescorer CourseRescorer
	queues   *queue.Registry
	notifier Notifier
	logger   *zap.Logger
	opts     Options
}

// NewService wires the store, rescorer and queues together.
func NewService(store database.CourseStore, rescorer CourseRescorer, queues *queue.Registry, notifier Notifier, logger *zap.Logger, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		store:    store,
		rescorer: rescorer,
		queues:   queues,
		notifier: notifier,
		logger:   logger.Named("discussion"),
		opts:     opts,
	}
}

// Location returns the zone period inputs are parsed and shown in.
func (s *Service) Location() *time.Location {
	return s.opts.Location
}

// Course returns the stored course by name.
func (s *Service) Course(ctx context.Context, name string) (*models.Course, error) {
	course, err := s.store.FindCourseByName(ctx, name)
	if err != nil {
		if errors.Is(err, database.ErrCourseNotFound) {
			return nil, err
		}
		return nil, &DatabaseError{Op: "load course", Err: err}
	}
	return course, nil
}

// CourseForChannel returns the course whose discussion forum is channelID.
func (s *Service) CourseForChannel(ctx context.Context, channelID string) (*models.Course, error) {
	course, err := s.store.FindCourseByDiscussionChannel(ctx, channelID)
	if err != nil {
		if errors.Is(err, database.ErrCourseNotFound) {
			return nil, err
		}
		return nil, &DatabaseError{Op: "load course", Err: err}
	}
	return course, nil
}

// EnableTracking gives the course the default discussion specs.
func (s *Service) EnableTracking(ctx context.Context, name string) error {
	return s.do(ctx, name, "enable tracking", func(ctx context.Context) error {
		course, err := s.Course(ctx, name)
		if err != nil {
			return err
		}
		if course.DiscussionSpecs != nil {
			return ErrTrackingEnabled
		}
		return s.save(ctx, name, models.DefaultDiscussionSpecs())
	})
}

// DisableTracking drops the course's discussion specs, scores included.
func (s *Service) DisableTracking(ctx context.Context, name string) error {
	return s.do(ctx, name, "disable tracking", func(ctx context.Context) error {
		course, err := s.Course(ctx, name)
		if err != nil {
			return err
		}
		if course.DiscussionSpecs == nil {
			return ErrTrackingDisabled
		}
		return s.save(ctx, name, nil)
	})
}

// AddPeriod validates and inserts a new score period.
func (s *Service) AddPeriod(ctx context.Context, name string, in periods.Input) (models.ScorePeriod, error) {
	period, err := periods.ValidateNewPeriod(in, s.opts.Location)
	if err != nil {
		return models.ScorePeriod{}, err
	}

	err = s.mutate(ctx, name, "add period", func(specs *models.DiscussionSpecs) error {
		updated, err := periods.InsertPeriod(specs.ScorePeriods, period)
		if err != nil {
			return err
		}
		specs.ScorePeriods = updated
		return nil
	})
	if err != nil {
		return models.ScorePeriod{}, err
	}

	s.rescoreAfterPeriodChange(name)
	return period, nil
}

// EditPeriod replaces the period at the 1-based rawIndex. Student totals are kept
// until the next rescore.
func (s *Service) EditPeriod(ctx context.Context, name, rawIndex string, in periods.Input) (models.ScorePeriod, error) {
	var edited models.ScorePeriod
	err := s.mutate(ctx, name, "edit period", func(specs *models.DiscussionSpecs) error {
		index, period, err := periods.ValidateEdit(rawIndex, in, len(specs.ScorePeriods), s.opts.Location)
		if err != nil {
			return err
		}
		updated, err := periods.EditPeriod(specs.ScorePeriods, index, period)
		if err != nil {
			return err
		}
		specs.ScorePeriods = updated
		edited = period
		return nil
	})
	if err != nil {
		return models.ScorePeriod{}, err
	}

	s.rescoreAfterPeriodChange(name)
	return edited, nil
}

// DeletePeriod removes the period at the 1-based rawIndex.
func (s *Service) DeletePeriod(ctx context.Context, name, rawIndex string) (models.ScorePeriod, error) {
	var removed models.ScorePeriod
	err := s.mutate(ctx, name, "delete period", func(specs *models.DiscussionSpecs) error {
		index, err := periods.ValidateIndex(rawIndex, len(specs.ScorePeriods))
		if err != nil {
			return err
		}
		removed = specs.ScorePeriods[index]
		updated, err := periods.DeletePeriod(specs.ScorePeriods, index)
		if err != nil {
			return err
		}
		specs.ScorePeriods = updated
		return nil
	})
	return removed, err
}

// ContentUpdate changes the thresholds of post or comment specs. Nil fields are left as they are.
type ContentUpdate struct {
	Points        *int
	CommentPoints *int // posts only
	MinLength     *int
	MinParagraphs *int
	MinLinks      *int
}

func (u ContentUpdate) validate() error {
	for _, v := range []*int{u.MinLength, u.MinParagraphs, u.MinLinks} {
		if v != nil && *v < 0 {
			return ErrInvalidSpecs
		}
	}
	return nil
}

// UpdatePostSpecs applies u to the post specs.
func (s *Service) UpdatePostSpecs(ctx context.Context, name string, u ContentUpdate) error {
	if err := u.validate(); err != nil {
		return err
	}
	return s.mutate(ctx, name, "update post specs", func(specs *models.DiscussionSpecs) error {
		p := &specs.PostSpecs
		setIf(&p.Points, u.Points)
		setIf(&p.CommentPoints, u.CommentPoints)
		setIf(&p.MinLength, u.MinLength)
		setIf(&p.MinParagraphs, u.MinParagraphs)
		setIf(&p.MinLinks, u.MinLinks)
		return nil
	})
}

// UpdateCommentSpecs applies u to the comment specs. CommentPoints is ignored.
func (s *Service) UpdateCommentSpecs(ctx context.Context, name string, u ContentUpdate) error {
	if err := u.validate(); err != nil {
		return err
	}
	return s.mutate(ctx, name, "update comment specs", func(specs *models.DiscussionSpecs) error {
		c := &specs.CommentSpecs
		setIf(&c.Points, u.Points)
		setIf(&c.MinLength, u.MinLength)
		setIf(&c.MinParagraphs, u.MinParagraphs)
		setIf(&c.MinLinks, u.MinLinks)
		return nil
	})
}

func setIf(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// Target selects the award table of posts or of comments.
type Target string

const (
	TargetPost    Target = "post"
	TargetComment Target = "comment"
)

func (t Target) awards(specs *models.DiscussionSpecs) (map[string]models.AwardSpecs, error) {
	var table *map[string]models.AwardSpecs
	switch t {
	case TargetPost:
		table = &specs.PostSpecs.Awards
	case TargetComment:
		table = &specs.CommentSpecs.Awards
	default:
		return nil, fmt.Errorf("unknown award target %q", t)
	}
	if *table == nil {
		*table = make(map[string]models.AwardSpecs)
	}
	return *table, nil
}

// SetAward creates or replaces the award for one emoji.
func (s *Service) SetAward(ctx context.Context, name string, target Target, rawEmoji string, award models.AwardSpecs) (string, error) {
	emoji, err := ParseAwardEmoji(rawEmoji)
	if err != nil {
		return "", err
	}
	err = s.mutate(ctx, name, "set award", func(specs *models.DiscussionSpecs) error {
		table, err := target.awards(specs)
		if err != nil {
			return err
		}
		table[emoji] = award
		return nil
	})
	return emoji, err
}

// RemoveAward deletes the award for one emoji.
func (s *Service) RemoveAward(ctx context.Context, name string, target Target, rawEmoji string) (string, error) {
	emoji, err := ParseAwardEmoji(rawEmoji)
	if err != nil {
		return "", err
	}
	err = s.mutate(ctx, name, "remove award", func(specs *models.DiscussionSpecs) error {
		table, err := target.awards(specs)
		if err != nil {
			return err
		}
		if _, ok := table[emoji]; !ok {
			return ErrAwardNotFound
		}
		delete(table, emoji)
		return nil
	})
	return emoji, err
}

// RescoreCourse rescores the course and waits for the result. A rescore that is
// already queued and not yet started is joined instead of queuing another one.
func (s *Service) RescoreCourse(ctx context.Context, name string) error {
	return s.queues.For(name).PushUnique(rescoreKey, "rescore", s.rescoreAction(name)).Wait(ctx)
}

// ScheduleRescore queues a rescore without waiting. Failures go to the notifier.
func (s *Service) ScheduleRescore(name string) *queue.Ticket {
	return s.queues.For(name).PushUnique(rescoreKey, "rescore", s.notifyOnFailure(name, "rescore", s.rescoreAction(name)))
}

// ScheduleRescoreForChannel queues a rescore of the course owning forumID, if it is tracked.
func (s *Service) ScheduleRescoreForChannel(ctx context.Context, forumID string) error {
	course, err := s.CourseForChannel(ctx, forumID)
	if err != nil {
		if errors.Is(err, database.ErrCourseNotFound) {
			return nil
		}
		return err
	}
	if course.DiscussionSpecs == nil {
		return nil
	}
	s.ScheduleRescore(course.Name)
	return nil
}

// RescoreAll queues a rescore of every tracked course.
func (s *Service) RescoreAll(ctx context.Context) (int, error) {
	courses, err := s.store.ListCourses(ctx)
	if err != nil {
		return 0, &DatabaseError{Op: "list courses", Err: err}
	}

	scheduled := 0
	for _, course := range courses {
		if course.DiscussionSpecs == nil {
			continue
		}
		s.ScheduleRescore(course.Name)
		scheduled++
	}
	return scheduled, nil
}

// RegisterCourses stores the configured courses. Existing specs are kept.
func (s *Service) RegisterCourses(ctx context.Context, registrations []models.CourseRegistration) error {
	for _, reg := range registrations {
		course := &models.Course{
			Name:     reg.Name,
			GuildID:  reg.GuildID,
			Channels: models.CourseChannels{Discussion: reg.DiscussionChannel},
			Roles:    models.CourseRoles{Staff: reg.StaffRole},
		}
		if err := s.store.UpsertCourse(ctx, course); err != nil {
			return &DatabaseError{Op: "register course " + reg.Name, Err: err}
		}
		s.logger.Info("Registered course", zap.String("course", reg.Name), zap.String("forum", reg.DiscussionChannel))
	}
	return nil
}

func (s *Service) rescoreAction(name string) queue.Func {
	return func(ctx context.Context) error {
		course, err := s.trackedCourse(ctx, name)
		if err != nil {
			return err
		}

		start := time.Now()
		scored, err := s.rescorer.RescoreCourse(ctx, course)
		if err != nil {
			return err
		}

		specs := course.DiscussionSpecs.Clone()
		specs.ScorePeriods = scored
		if err := s.save(ctx, name, specs); err != nil {
			return err
		}
		s.logger.Info("Rescored course",
			zap.String("course", name),
			zap.Int("periods", len(scored)),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	}
}

func (s *Service) notifyOnFailure(name, operation string, run queue.Func) queue.Func {
	return func(ctx context.Context) error {
		err := run(ctx)
		if err != nil && s.notifier != nil && !errors.Is(err, ErrTrackingDisabled) {
			s.notifier.Error("discussion", operation, fmt.Sprintf("%s: %v", name, err))
		}
		return err
	}
}

func (s *Service) rescoreAfterPeriodChange(name string) {
	if s.opts.RescoreOnPeriodChange {
		s.ScheduleRescore(name)
	}
}

// mutate loads the course inside a queued action, applies change to a copy of its
// specs and persists the copy. Nothing is written when change fails.
func (s *Service) mutate(ctx context.Context, name, action string, change func(specs *models.DiscussionSpecs) error) error {
	return s.do(ctx, name, action, func(ctx context.Context) error {
		course, err := s.trackedCourse(ctx, name)
		if err != nil {
			return err
		}
		specs := course.DiscussionSpecs.Clone()
		if err := change(specs); err != nil {
			return err
		}
		return s.save(ctx, name, specs)
	})
}

// do queues run and waits for it. When the caller gives up first, the action keeps
// its place and a failure it returns later is reported to the notifier.
func (s *Service) do(ctx context.Context, name, action string, run queue.Func) error {
	ticket := s.queues.For(name).Push(action, run)
	err := ticket.Wait(ctx)
	if errors.Is(err, queue.ErrStillRunning) {
		go s.reportLate(name, action, ticket)
	}
	return err
}

func (s *Service) reportLate(name, action string, ticket *queue.Ticket) {
	<-ticket.Done()
	err := ticket.Err()
	if err == nil {
		s.logger.Info("Late action finished", zap.String("course", name), zap.String("action", action))
		return
	}
	if s.notifier != nil {
		s.notifier.Error("discussion", action, fmt.Sprintf("%s: %v", name, err))
	}
}

func (s *Service) trackedCourse(ctx context.Context, name string) (*models.Course, error) {
	course, err := s.Course(ctx, name)
	if err != nil {
		return nil, err
	}
	if course.DiscussionSpecs == nil {
		return nil, ErrTrackingDisabled
	}
	return course, nil
}

func (s *Service) save(ctx context.Context, name string, specs *models.DiscussionSpecs) error {
	if err := s.store.UpdateCourseDiscussionSpecs(ctx, name, specs); err != nil {
		return &DatabaseError{Op: "save discussion specs", Err: err}
	}
	return nil
}

// compile-time check that the rescorer satisfies the service's needs
var _ CourseRescorer = (*scoring.Rescorer)(nil)
