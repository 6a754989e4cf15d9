package discussion

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"discussion-bot/models"
	"discussion-bot/periods"

	"github.com/jinzhu/copier"
	"github.com/samber/lo"
)

// Snapshot is a read-only view of a course's discussion rules for display.
type Snapshot struct {
	Course       string
	Tracking     bool
	PostSpecs    PostSpecsView
	CommentSpecs CommentSpecsView
	Periods      []PeriodView
}

type PostSpecsView struct {
	Points        int
	CommentPoints int
	MinLength     int
	MinParagraphs int
	MinLinks      int
	AwardList     []AwardView
}

type CommentSpecsView struct {
	Points        int
	MinLength     int
	MinParagraphs int
	MinLinks      int
	AwardList     []AwardView
}

type AwardView struct {
	Emoji         string
	Points        int
	TrackStudents bool
}

type PeriodView struct {
	Number     int
	Start      time.Time
	End        time.Time
	GoalPoints int
	MaxPoints  int
	Students   int
}

// StudentReport is one student's standing in a period.
type StudentReport struct {
	StudentID string
	models.StudentScoreData
	GoalMet bool
}

// Snapshot returns the current rules of a course.
func (s *Service) Snapshot(ctx context.Context, name string) (*Snapshot, error) {
	course, err := s.Course(ctx, name)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Course: course.Name}
	specs := course.DiscussionSpecs
	if specs == nil {
		return snap, nil
	}
	snap.Tracking = true

	if err := copier.Copy(&snap.PostSpecs, &specs.PostSpecs); err != nil {
		return nil, fmt.Errorf("failed to copy post specs: %w", err)
	}
	if err := copier.Copy(&snap.CommentSpecs, &specs.CommentSpecs); err != nil {
		return nil, fmt.Errorf("failed to copy comment specs: %w", err)
	}
	snap.PostSpecs.AwardList = awardViews(specs.PostSpecs.Awards)
	snap.CommentSpecs.AwardList = awardViews(specs.CommentSpecs.Awards)

	if err := copier.Copy(&snap.Periods, &specs.ScorePeriods); err != nil {
		return nil, fmt.Errorf("failed to copy score periods: %w", err)
	}
	for i := range snap.Periods {
		snap.Periods[i].Number = i + 1
		snap.Periods[i].Students = len(specs.ScorePeriods[i].StudentScores)
	}
	return snap, nil
}

// PeriodReport returns the period at the 1-based rawIndex and its students, best score first.
func (s *Service) PeriodReport(ctx context.Context, name, rawIndex string) (models.ScorePeriod, []StudentReport, error) {
	course, err := s.trackedCourse(ctx, name)
	if err != nil {
		return models.ScorePeriod{}, nil, err
	}
	index, err := periods.ValidateIndex(rawIndex, len(course.DiscussionSpecs.ScorePeriods))
	if err != nil {
		return models.ScorePeriod{}, nil, err
	}

	period := course.DiscussionSpecs.ScorePeriods[index]
	scored := lo.PickBy(period.StudentScores, func(_ string, data *models.StudentScoreData) bool {
		return data != nil
	})
	rows := lo.MapToSlice(scored, func(id string, data *models.StudentScoreData) StudentReport {
		return StudentReport{
			StudentID:        id,
			StudentScoreData: *data,
			GoalMet:          data.Score >= period.GoalPoints,
		}
	})
	slices.SortFunc(rows, func(a, b StudentReport) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return strings.Compare(a.StudentID, b.StudentID)
	})
	return period, rows, nil
}

func awardViews(awards map[string]models.AwardSpecs) []AwardView {
	views := lo.MapToSlice(awards, func(emoji string, award models.AwardSpecs) AwardView {
		return AwardView{Emoji: emoji, Points: award.Points, TrackStudents: award.TrackStudents}
	})
	slices.SortFunc(views, func(a, b AwardView) int {
		return strings.Compare(a.Emoji, b.Emoji)
	})
	return views
}
