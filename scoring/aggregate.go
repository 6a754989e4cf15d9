package scoring

import (
	"fmt"
	"time"

	"discussion-bot/models"
)

// FindPeriodFor returns the first period whose open interval contains t, or nil.
func FindPeriodFor(t time.Time, periods []models.ScorePeriod) *models.ScorePeriod {
	for i := range periods {
		if periods[i].Contains(t) {
			return &periods[i]
		}
	}
	return nil
}

// ApplyPostScore folds a scored root post into the poster's totals for the period.
func ApplyPostScore(period *models.ScorePeriod, posterID string, data models.MessageScoreData) {
	student := studentEntry(period, posterID)
	student.Score = capScore(student.Score+data.Score, period.MaxPoints)
	student.NumPosts++
	if !data.Complete() {
		student.NumIncomPost++
	}
	student.AwardsReceived += data.NumAwards
	student.PenaltiesReceived += data.NumPenalties
}

// ApplyCommentScore folds a scored reply into the commenter's totals for the period.
func ApplyCommentScore(period *models.ScorePeriod, commenterID string, data models.MessageScoreData) {
	student := studentEntry(period, commenterID)
	student.Score = capScore(student.Score+data.Score, period.MaxPoints)
	student.NumComments++
	if !data.Complete() {
		student.NumIncomComment++
	}
	student.AwardsReceived += data.NumAwards
	student.PenaltiesReceived += data.NumPenalties
}

// ApplyCommentBonusToPoster credits the poster for replies other students left on the post.
func ApplyCommentBonusToPoster(period *models.ScorePeriod, posterID string, bonusPoints int) {
	student := studentEntry(period, posterID)
	student.Score = capScore(student.Score+bonusPoints, period.MaxPoints)
}

// MergePeriodSets sums the student totals of two period lists index by index.
// Period bounds and limits are taken from a. Neither input is modified.
func MergePeriodSets(a, b []models.ScorePeriod) ([]models.ScorePeriod, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: %d != %d", ErrPeriodShapeMismatch, len(a), len(b))
	}

	merged := make([]models.ScorePeriod, len(a))
	for i := range a {
		period := a[i]
		period.StudentScores = make(map[string]*models.StudentScoreData, len(a[i].StudentScores)+len(b[i].StudentScores))
		for _, scores := range []map[string]*models.StudentScoreData{a[i].StudentScores, b[i].StudentScores} {
			for id, data := range scores {
				if data == nil {
					continue
				}
				student := studentEntry(&period, id)
				student.Score = capScore(student.Score+data.Score, period.MaxPoints)
				student.NumPosts += data.NumPosts
				student.NumIncomPost += data.NumIncomPost
				student.NumComments += data.NumComments
				student.NumIncomComment += data.NumIncomComment
				student.AwardsReceived += data.AwardsReceived
				student.PenaltiesReceived += data.PenaltiesReceived
			}
		}
		merged[i] = period
	}
	return merged, nil
}

// ClearStudentScores returns a copy of periods with every student total removed.
func ClearStudentScores(periods []models.ScorePeriod) []models.ScorePeriod {
	cleared := make([]models.ScorePeriod, len(periods))
	for i, period := range periods {
		period.StudentScores = make(map[string]*models.StudentScoreData)
		cleared[i] = period
	}
	return cleared
}

func studentEntry(period *models.ScorePeriod, id string) *models.StudentScoreData {
	if period.StudentScores == nil {
		period.StudentScores = make(map[string]*models.StudentScoreData)
	}
	student, ok := period.StudentScores[id]
	if !ok || student == nil {
		student = &models.StudentScoreData{}
		period.StudentScores[id] = student
	}
	return student
}

// capScore limits a score to the period maximum. Penalties may take it below zero.
func capScore(score, maxPoints int) int {
	return min(score, maxPoints)
}
