package discussion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"discussion-bot/database"
	"discussion-bot/discussion"
	"discussion-bot/models"
	"discussion-bot/periods"
	"discussion-bot/queue"
	"discussion-bot/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	service  *discussion.Service
	store    *memoryStore
	rescorer *stubRescorer
	notifier *recordingNotifier
	queues   *queue.Registry
}

func setupService(t *testing.T, opts discussion.Options) *fixture {
	t.Helper()

	course := &models.Course{
		Name:     "CS101",
		GuildID:  "guild",
		Channels: models.CourseChannels{Discussion: "forum"},
		Roles:    models.CourseRoles{Staff: "staff"},
	}
	f := &fixture{
		store:    newMemoryStore(course),
		rescorer: &stubRescorer{scores: map[string]int{"alice": 4, "bob": 1}},
		notifier: &recordingNotifier{},
		queues:   queue.NewRegistry(t.Context(), zaptest.NewLogger(t)),
	}
	t.Cleanup(f.queues.Wait)
	f.service = discussion.NewService(f.store, f.rescorer, f.queues, f.notifier, zaptest.NewLogger(t), opts)
	return f
}

func weekInput(start, end string) periods.Input {
	return periods.Input{Start: start, End: end, GoalPoints: "3", MaxPoints: "10"}
}

func TestService_EnableDisableTracking(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{})
	ctx := t.Context()

	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))
	specs := f.store.specs("CS101")
	require.NotNil(t, specs)
	assert.Equal(t, 1, specs.PostSpecs.Points)
	assert.Empty(t, specs.ScorePeriods)

	assert.ErrorIs(t, f.service.EnableTracking(ctx, "CS101"), discussion.ErrTrackingEnabled)

	require.NoError(t, f.service.DisableTracking(ctx, "CS101"))
	assert.Nil(t, f.store.specs("CS101"))
	assert.ErrorIs(t, f.service.DisableTracking(ctx, "CS101"), discussion.ErrTrackingDisabled)

	assert.ErrorIs(t, f.service.EnableTracking(ctx, "CS999"), database.ErrCourseNotFound)
}

func TestService_UntrackedCourseRejectsChanges(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{})

	_, err := f.service.AddPeriod(t.Context(), "CS101", weekInput("2024-01-01 12:00:00 AM", "2024-01-07 11:59:59 PM"))
	assert.ErrorIs(t, err, discussion.ErrTrackingDisabled)
	assert.ErrorIs(t, f.service.RescoreCourse(t.Context(), "CS101"), discussion.ErrTrackingDisabled)
	assert.Zero(t, f.rescorer.callCount())
}

func TestService_PeriodsEndToEnd(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{Location: time.UTC})
	ctx := t.Context()
	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))

	_, err := f.service.AddPeriod(ctx, "CS101", weekInput("2024-01-08 12:00:00 AM", "2024-01-14 11:59:59 PM"))
	require.NoError(t, err)
	first, err := f.service.AddPeriod(ctx, "CS101", weekInput("2024-01-01 12:00:00 AM", "2024-01-07 11:59:59 PM"))
	require.NoError(t, err)

	specs := f.store.specs("CS101")
	require.Len(t, specs.ScorePeriods, 2)
	assert.True(t, first.Start.Equal(specs.ScorePeriods[0].Start), "kept sorted by start")

	saves := f.store.saveCount()
	_, err = f.service.AddPeriod(ctx, "CS101", weekInput("2024-01-07 11:59:59 PM", "2024-01-09 12:00:00 AM"))
	assert.ErrorIs(t, err, periods.ErrPeriodConflict)
	assert.Equal(t, saves, f.store.saveCount(), "conflicts are never persisted")

	_, err = f.service.AddPeriod(ctx, "CS101", periods.Input{Start: "soon", End: "later", GoalPoints: "9", MaxPoints: "1"})
	var validation *periods.ValidationError
	require.True(t, errors.As(err, &validation))
	assert.Len(t, validation.Reasons, 3)

	edited, err := f.service.EditPeriod(ctx, "CS101", "1", periods.Input{
		Start: "2024-01-01 12:00:00 AM", End: "2024-01-06 11:59:59 PM", GoalPoints: "4", MaxPoints: "8",
	})
	require.NoError(t, err)
	assert.Equal(t, 8, edited.MaxPoints)
	assert.Equal(t, 8, f.store.specs("CS101").ScorePeriods[0].MaxPoints)

	_, err = f.service.EditPeriod(ctx, "CS101", "3", weekInput("2024-02-01 12:00:00 AM", "2024-02-07 11:59:59 PM"))
	require.True(t, errors.As(err, &validation))

	removed, err := f.service.DeletePeriod(ctx, "CS101", "2")
	require.NoError(t, err)
	assert.Equal(t, 14, removed.End.Day())
	assert.Len(t, f.store.specs("CS101").ScorePeriods, 1)
	assert.Zero(t, f.rescorer.callCount())
}

func TestService_PeriodChangeSchedulesRescore(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{RescoreOnPeriodChange: true})
	ctx := t.Context()
	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))

	_, err := f.service.AddPeriod(ctx, "CS101", weekInput("2024-01-01 12:00:00 AM", "2024-01-07 11:59:59 PM"))
	require.NoError(t, err)
	f.queues.Wait()

	assert.Equal(t, 1, f.rescorer.callCount())
	assert.Equal(t, 4, f.store.specs("CS101").ScorePeriods[0].StudentScores["alice"].Score)
}

func TestService_DatabaseErrorPersistsNothing(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{})
	ctx := t.Context()
	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))

	f.store.failSave = true
	_, err := f.service.AddPeriod(ctx, "CS101", weekInput("2024-01-01 12:00:00 AM", "2024-01-07 11:59:59 PM"))

	var dbErr *discussion.DatabaseError
	require.True(t, errors.As(err, &dbErr))
	assert.ErrorIs(t, err, errStore)
	assert.Empty(t, f.store.specs("CS101").ScorePeriods)
}

func TestService_SpecsAndAwards(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{})
	ctx := t.Context()
	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))

	five, two := 5, 2
	require.NoError(t, f.service.UpdatePostSpecs(ctx, "CS101", discussion.ContentUpdate{Points: &five, CommentPoints: &two}))
	require.NoError(t, f.service.UpdateCommentSpecs(ctx, "CS101", discussion.ContentUpdate{MinLength: &five, CommentPoints: &two}))

	negative := -1
	assert.ErrorIs(t, f.service.UpdatePostSpecs(ctx, "CS101", discussion.ContentUpdate{MinLinks: &negative}), discussion.ErrInvalidSpecs)

	emoji, err := f.service.SetAward(ctx, "CS101", discussion.TargetPost, " ⭐ ", models.AwardSpecs{Points: 3})
	require.NoError(t, err)
	assert.Equal(t, "⭐", emoji)
	_, err = f.service.SetAward(ctx, "CS101", discussion.TargetComment, "👎", models.AwardSpecs{Points: -1, TrackStudents: true})
	require.NoError(t, err)

	_, err = f.service.SetAward(ctx, "CS101", discussion.TargetPost, "⭐⭐", models.AwardSpecs{Points: 3})
	assert.ErrorIs(t, err, discussion.ErrInvalidEmoji)

	specs := f.store.specs("CS101")
	assert.Equal(t, 5, specs.PostSpecs.Points)
	assert.Equal(t, 2, specs.PostSpecs.CommentPoints)
	assert.Equal(t, 1, specs.PostSpecs.MinParagraphs, "untouched fields keep their value")
	assert.Equal(t, 5, specs.CommentSpecs.MinLength)
	assert.Equal(t, models.AwardSpecs{Points: 3}, specs.PostSpecs.Awards["⭐"])
	assert.Equal(t, models.AwardSpecs{Points: -1, TrackStudents: true}, specs.CommentSpecs.Awards["👎"])

	_, err = f.service.RemoveAward(ctx, "CS101", discussion.TargetPost, "⭐")
	require.NoError(t, err)
	assert.NotContains(t, f.store.specs("CS101").PostSpecs.Awards, "⭐")

	_, err = f.service.RemoveAward(ctx, "CS101", discussion.TargetPost, "⭐")
	assert.ErrorIs(t, err, discussion.ErrAwardNotFound)
}

func TestService_RescoreCoursePersistsScores(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{})
	ctx := t.Context()
	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))
	_, err := f.service.AddPeriod(ctx, "CS101", weekInput("2024-01-01 12:00:00 AM", "2024-01-07 11:59:59 PM"))
	require.NoError(t, err)

	require.NoError(t, f.service.RescoreCourse(ctx, "CS101"))

	_, rows, err := f.service.PeriodReport(ctx, "CS101", "1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].StudentID)
	assert.True(t, rows[0].GoalMet)
	assert.Equal(t, "bob", rows[1].StudentID)
	assert.False(t, rows[1].GoalMet)
}

func TestService_BackgroundRescoreFailureNotifies(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{})
	ctx := t.Context()
	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))

	f.rescorer.err = &scoring.ScoringError{ThreadID: "t1", Err: errors.New("rate limited")}
	saves := f.store.saveCount()
	ticket := f.service.ScheduleRescore("CS101")
	err := ticket.Wait(ctx)

	var scoringErr *scoring.ScoringError
	assert.True(t, errors.As(err, &scoringErr))
	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, saves, f.store.saveCount(), "nothing persisted")
}

func TestService_ScheduleRescoreForChannel(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{})
	ctx := t.Context()

	// Untracked and unknown forums are ignored.
	require.NoError(t, f.service.ScheduleRescoreForChannel(ctx, "forum"))
	require.NoError(t, f.service.ScheduleRescoreForChannel(ctx, "elsewhere"))
	f.queues.Wait()
	assert.Zero(t, f.rescorer.callCount())

	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))
	require.NoError(t, f.service.ScheduleRescoreForChannel(ctx, "forum"))
	f.queues.Wait()
	assert.Equal(t, 1, f.rescorer.callCount())

	n, err := f.service.RescoreAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_SnapshotAndRegistration(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{Location: time.UTC})
	ctx := t.Context()

	snap, err := f.service.Snapshot(ctx, "CS101")
	require.NoError(t, err)
	assert.False(t, snap.Tracking)

	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))
	_, err = f.service.AddPeriod(ctx, "CS101", weekInput("2024-01-01 12:00:00 AM", "2024-01-07 11:59:59 PM"))
	require.NoError(t, err)
	_, err = f.service.SetAward(ctx, "CS101", discussion.TargetPost, "⭐", models.AwardSpecs{Points: 2})
	require.NoError(t, err)
	require.NoError(t, f.service.RescoreCourse(ctx, "CS101"))

	// Re-registering from config keeps the tracked specs.
	require.NoError(t, f.service.RegisterCourses(ctx, []models.CourseRegistration{
		{Name: "CS101", GuildID: "guild", DiscussionChannel: "forum-v2", StaffRole: "staff"},
		{Name: "CS102", GuildID: "guild", DiscussionChannel: "forum-102", StaffRole: "staff"},
	}))

	snap, err = f.service.Snapshot(ctx, "CS101")
	require.NoError(t, err)
	assert.True(t, snap.Tracking)
	assert.Equal(t, 1, snap.PostSpecs.Points)
	assert.Equal(t, 1, snap.PostSpecs.MinParagraphs)
	assert.Equal(t, []discussion.AwardView{{Emoji: "⭐", Points: 2}}, snap.PostSpecs.AwardList)
	require.Len(t, snap.Periods, 1)
	assert.Equal(t, 1, snap.Periods[0].Number)
	assert.Equal(t, 3, snap.Periods[0].GoalPoints)
	assert.Equal(t, 2, snap.Periods[0].Students)
	assert.Equal(t, 7, snap.Periods[0].End.Day())

	course, err := f.service.CourseForChannel(ctx, "forum-v2")
	require.NoError(t, err)
	assert.Equal(t, "CS101", course.Name)
}

func TestService_LateFailureAfterCallerGaveUpNotifies(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{Location: time.UTC})
	ctx := t.Context()
	require.NoError(t, f.service.EnableTracking(ctx, "CS101"))
	_, err := f.service.AddPeriod(ctx, "CS101", weekInput("2024-01-01 12:00:00 AM", "2024-01-07 11:59:59 PM"))
	require.NoError(t, err)

	release := make(chan struct{})
	f.queues.For("CS101").Push("busy", func(context.Context) error {
		<-release
		return nil
	})

	gaveUp, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.service.AddPeriod(gaveUp, "CS101", weekInput("2024-01-05 12:00:00 AM", "2024-01-09 12:00:00 AM"))
	require.ErrorIs(t, err, queue.ErrStillRunning)
	assert.Zero(t, f.notifier.count())

	close(release)
	assert.Eventually(t, func() bool { return f.notifier.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, f.store.specs("CS101").ScorePeriods, 1, "the conflicting period was not saved")
}

func TestService_PeriodReportSkipsNullScores(t *testing.T) {
	t.Parallel()
	f := setupService(t, discussion.Options{Location: time.UTC})

	specs := models.DefaultDiscussionSpecs()
	specs.ScorePeriods = []models.ScorePeriod{{
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		GoalPoints: 3,
		MaxPoints:  10,
		StudentScores: map[string]*models.StudentScoreData{
			"alice": {Score: 5},
			"ghost": nil,
		},
	}}
	f.store.putRaw(&models.Course{
		Name:            "CS101",
		GuildID:         "guild",
		Channels:        models.CourseChannels{Discussion: "forum"},
		DiscussionSpecs: specs,
	})

	_, rows, err := f.service.PeriodReport(t.Context(), "CS101", "1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].StudentID)
	assert.True(t, rows[0].GoalMet)
}
