package discussion_test

import (
	"context"
	"errors"
	"sync"

	"discussion-bot/database"
	"discussion-bot/models"
)

var errStore = errors.New("store unavailable")

// memoryStore is an in-memory CourseStore that copies documents in and out like a real store.
type memoryStore struct {
	mu       sync.Mutex
	courses  map[string]*models.Course
	failSave bool
	saves    int
	raw      bool // serve stored documents as they are, null entries included
}

func newMemoryStore(courses ...*models.Course) *memoryStore {
	s := &memoryStore{courses: make(map[string]*models.Course)}
	for _, c := range courses {
		s.courses[c.Name] = copyCourse(c)
	}
	return s
}

func copyCourse(c *models.Course) *models.Course {
	copied := *c
	copied.DiscussionSpecs = c.DiscussionSpecs.Clone()
	return &copied
}

func (s *memoryStore) FindCourseByName(_ context.Context, name string) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.courses[name]
	if !ok {
		return nil, database.ErrCourseNotFound
	}
	if s.raw {
		return c, nil
	}
	return copyCourse(c), nil
}

func (s *memoryStore) FindCourseByDiscussionChannel(_ context.Context, channelID string) (*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.courses {
		if c.Channels.Discussion == channelID {
			return copyCourse(c), nil
		}
	}
	return nil, database.ErrCourseNotFound
}

func (s *memoryStore) UpdateCourseDiscussionSpecs(_ context.Context, name string, specs *models.DiscussionSpecs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errStore
	}
	c, ok := s.courses[name]
	if !ok {
		return database.ErrCourseNotFound
	}
	c.DiscussionSpecs = specs.Clone()
	s.saves++
	return nil
}

func (s *memoryStore) UpsertCourse(_ context.Context, course *models.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.courses[course.Name]; ok {
		course = copyCourse(course)
		course.DiscussionSpecs = existing.DiscussionSpecs
	}
	s.courses[course.Name] = copyCourse(course)
	return nil
}

func (s *memoryStore) ListCourses(_ context.Context) ([]*models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var courses []*models.Course
	for _, c := range s.courses {
		courses = append(courses, copyCourse(c))
	}
	return courses, nil
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *memoryStore) specs(name string) *models.DiscussionSpecs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.courses[name].DiscussionSpecs.Clone()
}

// stubRescorer gives every period the same fixed student totals.
type stubRescorer struct {
	mu     sync.Mutex
	calls  int
	err    error
	scores map[string]int
}

func (r *stubRescorer) RescoreCourse(_ context.Context, course *models.Course) ([]models.ScorePeriod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}

	periods := make([]models.ScorePeriod, len(course.DiscussionSpecs.ScorePeriods))
	for i, p := range course.DiscussionSpecs.ScorePeriods {
		p.StudentScores = make(map[string]*models.StudentScoreData)
		for id, score := range r.scores {
			p.StudentScores[id] = &models.StudentScoreData{Score: score}
		}
		periods[i] = p
	}
	return periods, nil
}

func (r *stubRescorer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Error(module, operation, details string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, module+"/"+operation+": "+details)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// putRaw stores course without copying and makes reads return it unchanged.
func (s *memoryStore) putRaw(course *models.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = true
	s.courses[course.Name] = course
}
