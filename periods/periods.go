package periods

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"discussion-bot/models"
)

// DateLayout is the accepted text format for period bounds (yyyy-MM-dd hh:mm:ss AM/PM).
const DateLayout = "2006-01-02 03:04:05 PM"

// Input is the raw text an instructor submitted for a score period.
type Input struct {
	Start      string
	End        string
	GoalPoints string
	MaxPoints  string
}

// reasons accumulates validation failures so they can be reported together.
type reasons []string

func (r *reasons) add(format string, args ...any) {
	*r = append(*r, fmt.Sprintf(format, args...))
}

func (r reasons) err() error {
	if len(r) == 0 {
		return nil
	}
	return &ValidationError{Reasons: r}
}

// ValidateNewPeriod parses and checks a period request. Dates are read in loc.
func ValidateNewPeriod(in Input, loc *time.Location) (models.ScorePeriod, error) {
	var r reasons
	period := parsePeriod(in, loc, &r)
	if err := r.err(); err != nil {
		return models.ScorePeriod{}, err
	}
	return period, nil
}

// ValidateIndex parses a 1-based period index and returns it 0-based.
func ValidateIndex(raw string, length int) (int, error) {
	var r reasons
	index := parseIndex(raw, length, &r)
	if err := r.err(); err != nil {
		return 0, err
	}
	return index, nil
}

// ValidateEdit checks an index and a period request together so every problem is reported at once.
func ValidateEdit(rawIndex string, in Input, length int, loc *time.Location) (int, models.ScorePeriod, error) {
	var r reasons
	index := parseIndex(rawIndex, length, &r)
	period := parsePeriod(in, loc, &r)
	if err := r.err(); err != nil {
		return 0, models.ScorePeriod{}, err
	}
	return index, period, nil
}

func parsePeriod(in Input, loc *time.Location, r *reasons) models.ScorePeriod {
	if loc == nil {
		loc = time.Local
	}

	start, startErr := time.ParseInLocation(DateLayout, strings.TrimSpace(in.Start), loc)
	if startErr != nil {
		r.add("start date %q must look like 2024-01-31 11:59:59 PM", in.Start)
	}
	end, endErr := time.ParseInLocation(DateLayout, strings.TrimSpace(in.End), loc)
	if endErr != nil {
		r.add("end date %q must look like 2024-01-31 11:59:59 PM", in.End)
	}
	if startErr == nil && endErr == nil && !start.Before(end) {
		r.add("start date must be before end date")
	}

	goal, goalOK := parsePoints("goal points", in.GoalPoints, r)
	maxPoints, maxOK := parsePoints("max points", in.MaxPoints, r)
	if goalOK && maxOK && goal > maxPoints {
		r.add("goal points (%d) cannot exceed max points (%d)", goal, maxPoints)
	}

	return models.ScorePeriod{
		Start:         start,
		End:           end,
		GoalPoints:    goal,
		MaxPoints:     maxPoints,
		StudentScores: make(map[string]*models.StudentScoreData),
	}
}

func parsePoints(name, raw string, r *reasons) (int, bool) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		r.add("%s %q is not a whole number", name, raw)
		return 0, false
	}
	if value < 0 {
		r.add("%s cannot be negative", name)
		return 0, false
	}
	return value, true
}

func parseIndex(raw string, length int, r *reasons) int {
	index, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		r.add("period number %q is not a whole number", raw)
		return 0
	}
	if index < 1 || index > length {
		if length == 0 {
			r.add("there are no score periods yet")
		} else {
			r.add("period number must be between 1 and %d", length)
		}
		return 0
	}
	return index - 1
}

// CheckConflict reports whether period overlaps any of existing.
func CheckConflict(period models.ScorePeriod, existing []models.ScorePeriod) bool {
	return slices.ContainsFunc(existing, period.Overlaps)
}

// InsertPeriod adds a period and returns the list sorted by start. The input slice is not modified.
func InsertPeriod(existing []models.ScorePeriod, period models.ScorePeriod) ([]models.ScorePeriod, error) {
	if CheckConflict(period, existing) {
		return nil, ErrPeriodConflict
	}
	if period.StudentScores == nil {
		period.StudentScores = make(map[string]*models.StudentScoreData)
	}

	updated := append(slices.Clone(existing), period)
	sortByStart(updated)
	return updated, nil
}

// EditPeriod replaces the bounds and limits of the period at index, keeping its student totals.
// The edited period is not checked against itself.
func EditPeriod(existing []models.ScorePeriod, index int, period models.ScorePeriod) ([]models.ScorePeriod, error) {
	if index < 0 || index >= len(existing) {
		return nil, &ValidationError{Reasons: []string{fmt.Sprintf("period number must be between 1 and %d", len(existing))}}
	}

	others := slices.Delete(slices.Clone(existing), index, index+1)
	if CheckConflict(period, others) {
		return nil, ErrPeriodConflict
	}

	period.StudentScores = existing[index].StudentScores
	if period.StudentScores == nil {
		period.StudentScores = make(map[string]*models.StudentScoreData)
	}

	updated := slices.Clone(existing)
	updated[index] = period
	sortByStart(updated)
	return updated, nil
}

// DeletePeriod removes the period at index. Neighbouring periods are left untouched.
func DeletePeriod(existing []models.ScorePeriod, index int) ([]models.ScorePeriod, error) {
	if index < 0 || index >= len(existing) {
		return nil, &ValidationError{Reasons: []string{fmt.Sprintf("period number must be between 1 and %d", len(existing))}}
	}
	return slices.Delete(slices.Clone(existing), index, index+1), nil
}

func sortByStart(periods []models.ScorePeriod) {
	slices.SortStableFunc(periods, func(a, b models.ScorePeriod) int {
		return a.Start.Compare(b.Start)
	})
}

// FormatPeriod renders a period's bounds in the input format.
func FormatPeriod(period models.ScorePeriod) string {
	return fmt.Sprintf("%s → %s", period.Start.Format(DateLayout), period.End.Format(DateLayout))
}
