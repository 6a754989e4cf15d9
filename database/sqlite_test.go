package database_test

import (
	"path/filepath"
	"testing"
	"time"

	"discussion-bot/database"
	"discussion-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupStore(t *testing.T) *database.SQLiteStore {
	t.Helper()
	store, err := database.NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "courses.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testCourse() *models.Course {
	return &models.Course{
		Name:     "CS101",
		GuildID:  "guild",
		Channels: models.CourseChannels{Discussion: "forum"},
		Roles:    models.CourseRoles{Staff: "staff"},
	}
}

func TestSQLiteStore_SpecsRoundTrip(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := t.Context()

	require.NoError(t, store.UpsertCourse(ctx, testCourse()))

	course, err := store.FindCourseByName(ctx, "CS101")
	require.NoError(t, err)
	assert.Nil(t, course.DiscussionSpecs, "tracking starts disabled")

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	specs := models.DefaultDiscussionSpecs()
	specs.PostSpecs.Awards["⭐"] = models.AwardSpecs{Points: 5}
	specs.CommentSpecs.Awards["<:minus:123456789012345678>"] = models.AwardSpecs{Points: -1, TrackStudents: true}
	specs.ScorePeriods = []models.ScorePeriod{{
		Start:      start,
		End:        start.AddDate(0, 0, 7),
		GoalPoints: 5,
		MaxPoints:  10,
		StudentScores: map[string]*models.StudentScoreData{
			"alice": {Score: 7, NumPosts: 1, NumComments: 3, AwardsReceived: 1},
			"bob":   {Score: -1, NumIncomComment: 2, PenaltiesReceived: 1},
		},
	}}
	require.NoError(t, store.UpdateCourseDiscussionSpecs(ctx, "CS101", specs))

	loaded, err := store.FindCourseByDiscussionChannel(ctx, "forum")
	require.NoError(t, err)
	require.NotNil(t, loaded.DiscussionSpecs)

	got := loaded.DiscussionSpecs
	assert.Equal(t, specs.PostSpecs, got.PostSpecs)
	assert.Equal(t, specs.CommentSpecs, got.CommentSpecs)
	require.Len(t, got.ScorePeriods, 1)
	assert.True(t, start.Equal(got.ScorePeriods[0].Start))
	assert.True(t, start.AddDate(0, 0, 7).Equal(got.ScorePeriods[0].End))
	assert.Equal(t, specs.ScorePeriods[0].StudentScores, got.ScorePeriods[0].StudentScores)
}

func TestSQLiteStore_UpsertKeepsSpecs(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := t.Context()

	require.NoError(t, store.UpsertCourse(ctx, testCourse()))
	require.NoError(t, store.UpdateCourseDiscussionSpecs(ctx, "CS101", models.DefaultDiscussionSpecs()))

	moved := testCourse()
	moved.Channels.Discussion = "new-forum"
	require.NoError(t, store.UpsertCourse(ctx, moved))

	course, err := store.FindCourseByDiscussionChannel(ctx, "new-forum")
	require.NoError(t, err)
	assert.NotNil(t, course.DiscussionSpecs)

	courses, err := store.ListCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := t.Context()

	_, err := store.FindCourseByName(ctx, "nope")
	assert.ErrorIs(t, err, database.ErrCourseNotFound)

	_, err = store.FindCourseByDiscussionChannel(ctx, "nope")
	assert.ErrorIs(t, err, database.ErrCourseNotFound)

	err = store.UpdateCourseDiscussionSpecs(ctx, "nope", models.DefaultDiscussionSpecs())
	assert.ErrorIs(t, err, database.ErrCourseNotFound)
}

func TestSQLiteStore_DisableClearsSpecs(t *testing.T) {
	t.Parallel()
	store := setupStore(t)
	ctx := t.Context()

	require.NoError(t, store.UpsertCourse(ctx, testCourse()))
	require.NoError(t, store.UpdateCourseDiscussionSpecs(ctx, "CS101", models.DefaultDiscussionSpecs()))
	require.NoError(t, store.UpdateCourseDiscussionSpecs(ctx, "CS101", nil))

	course, err := store.FindCourseByName(ctx, "CS101")
	require.NoError(t, err)
	assert.Nil(t, course.DiscussionSpecs)
}
