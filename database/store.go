package database

import (
	"context"
	"errors"
	"fmt"

	"discussion-bot/models"

	"go.uber.org/zap"
)

// ErrCourseNotFound is returned when no course matches a lookup.
var ErrCourseNotFound = errors.New("course not found")

// CourseStore persists courses as whole documents. It provides no locking of its own;
// writers to one course are serialized by that course's action queue.
type CourseStore interface {
	FindCourseByName(ctx context.Context, name string) (*models.Course, error)
	FindCourseByDiscussionChannel(ctx context.Context, channelID string) (*models.Course, error)
	UpdateCourseDiscussionSpecs(ctx context.Context, name string, specs *models.DiscussionSpecs) error
	// UpsertCourse creates or updates a course's identity fields. Existing discussion specs are kept.
	UpsertCourse(ctx context.Context, course *models.Course) error
	ListCourses(ctx context.Context) ([]*models.Course, error)
	Close() error
}

// Open connects to the store selected by settings.Driver.
func Open(ctx context.Context, settings models.DatabaseSettings, logger *zap.Logger) (CourseStore, error) {
	switch settings.Driver {
	case "", "sqlite":
		return NewSQLiteStore(settings.Path, logger)
	case "mongo":
		return NewMongoStore(ctx, settings.MongoURI, settings.MongoDB, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", settings.Driver)
	}
}
