package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discussion-bot/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CourseCollectionName is the mongo collection holding course documents.
const CourseCollectionName = "courses"

// MongoStore keeps each course as one document keyed by course name.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

// NewMongoStore connects to uri and uses the courses collection of database db.
func NewMongoStore(ctx context.Context, uri, db string, logger *zap.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	collection := client.Database(db).Collection(CourseCollectionName)
	_, err = collection.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys: bson.D{{Key: "channels.discussion", Value: 1}},
	})
	if err != nil {
		logger.Warn("Failed to create discussion channel index", zap.Error(err))
	}

	logger.Info("Connected to course database", zap.String("db", db))
	return &MongoStore{
		client:     client,
		collection: collection,
		logger:     logger.Named("mongo"),
	}, nil
}

// Close disconnects the client.
func (m *MongoStore) Close() error {
	return m.client.Disconnect(context.Background())
}

// FindCourseByName returns the course registered under name.
func (m *MongoStore) FindCourseByName(ctx context.Context, name string) (*models.Course, error) {
	return m.findOne(ctx, bson.M{"_id": name}, name)
}

// FindCourseByDiscussionChannel returns the course whose discussion forum is channelID.
func (m *MongoStore) FindCourseByDiscussionChannel(ctx context.Context, channelID string) (*models.Course, error) {
	return m.findOne(ctx, bson.M{"channels.discussion": channelID}, channelID)
}

// ListCourses returns every registered course ordered by name.
func (m *MongoStore) ListCourses(ctx context.Context) ([]*models.Course, error) {
	cursor, err := m.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}

	var courses []*models.Course
	if err := cursor.All(ctx, &courses); err != nil {
		return nil, fmt.Errorf("failed to decode courses: %w", err)
	}
	return courses, nil
}

// UpdateCourseDiscussionSpecs replaces the course's discussion specs document.
func (m *MongoStore) UpdateCourseDiscussionSpecs(ctx context.Context, name string, specs *models.DiscussionSpecs) error {
	update := bson.M{"$set": bson.M{"discussion_specs": specs}}
	if specs == nil {
		update = bson.M{"$unset": bson.M{"discussion_specs": ""}}
	}

	result, err := m.collection.UpdateByID(ctx, name, update)
	if err != nil {
		return fmt.Errorf("failed to update discussion specs for %s: %w", name, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrCourseNotFound, name)
	}
	return nil
}

// UpsertCourse inserts a course or refreshes its identity fields, keeping stored specs.
func (m *MongoStore) UpsertCourse(ctx context.Context, course *models.Course) error {
	update := bson.M{"$set": bson.M{
		"guild_id": course.GuildID,
		"channels": course.Channels,
		"roles":    course.Roles,
	}}
	_, err := m.collection.UpdateByID(ctx, course.Name, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save course %s: %w", course.Name, err)
	}
	return nil
}

func (m *MongoStore) findOne(ctx context.Context, filter bson.M, key string) (*models.Course, error) {
	var course models.Course
	err := m.collection.FindOne(ctx, filter).Decode(&course)
	switch {
	case err == nil:
		return &course, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("%w: %s", ErrCourseNotFound, key)
	default:
		return nil, fmt.Errorf("failed to find course %s: %w", key, err)
	}
}
