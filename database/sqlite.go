package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"discussion-bot/models"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
	"go.uber.org/zap"
)

// SQLiteStore keeps each course as a row whose discussion specs are a JSON document.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and creates if needed) the course database at dbPath.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createCoursesTable(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create courses table: %w", err)
	}

	logger.Info("Connected to course database", zap.String("path", dbPath))
	return &SQLiteStore{db: db, logger: logger.Named("sqlite")}, nil
}

// createCoursesTable creates the 'courses' table if it doesn't exist.
func createCoursesTable(db *sql.DB) error {
	query := `
    CREATE TABLE IF NOT EXISTS courses (
        name TEXT PRIMARY KEY,
        guild_id TEXT NOT NULL,
        discussion_channel_id TEXT NOT NULL,
        staff_role_id TEXT NOT NULL,
        discussion_specs TEXT
    );`
	if _, err := db.Exec(query); err != nil {
		return err
	}

	_, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_courses_discussion ON courses(discussion_channel_id);")
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const selectCourse = `SELECT name, guild_id, discussion_channel_id, staff_role_id, discussion_specs FROM courses`

// FindCourseByName returns the course registered under name.
func (s *SQLiteStore) FindCourseByName(ctx context.Context, name string) (*models.Course, error) {
	return s.findOne(ctx, selectCourse+" WHERE name = ?", name)
}

// FindCourseByDiscussionChannel returns the course whose discussion forum is channelID.
func (s *SQLiteStore) FindCourseByDiscussionChannel(ctx context.Context, channelID string) (*models.Course, error) {
	return s.findOne(ctx, selectCourse+" WHERE discussion_channel_id = ? LIMIT 1", channelID)
}

// ListCourses returns every registered course ordered by name.
func (s *SQLiteStore) ListCourses(ctx context.Context) ([]*models.Course, error) {
	rows, err := s.db.QueryContext(ctx, selectCourse+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	defer rows.Close()

	var courses []*models.Course
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}
	return courses, nil
}

// UpdateCourseDiscussionSpecs replaces the course's discussion specs document.
func (s *SQLiteStore) UpdateCourseDiscussionSpecs(ctx context.Context, name string, specs *models.DiscussionSpecs) error {
	var document sql.NullString
	if specs != nil {
		data, err := sonic.Marshal(specs)
		if err != nil {
			return fmt.Errorf("failed to encode discussion specs for %s: %w", name, err)
		}
		document = sql.NullString{String: string(data), Valid: true}
	}

	result, err := s.db.ExecContext(ctx, `UPDATE courses SET discussion_specs = ? WHERE name = ?`, document, name)
	if err != nil {
		return fmt.Errorf("failed to update discussion specs for %s: %w", name, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s: %w", name, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrCourseNotFound, name)
	}
	return nil
}

// UpsertCourse inserts a course or refreshes its identity fields, keeping stored specs.
func (s *SQLiteStore) UpsertCourse(ctx context.Context, course *models.Course) error {
	query := `
    INSERT INTO courses (name, guild_id, discussion_channel_id, staff_role_id)
    VALUES (?, ?, ?, ?)
    ON CONFLICT(name) DO UPDATE SET
        guild_id = excluded.guild_id,
        discussion_channel_id = excluded.discussion_channel_id,
        staff_role_id = excluded.staff_role_id;`

	stmt, err := s.db.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for saving course: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, course.Name, course.GuildID, course.Channels.Discussion, course.Roles.Staff)
	if err != nil {
		return fmt.Errorf("failed to execute statement for saving course %s: %w", course.Name, err)
	}
	return nil
}

func (s *SQLiteStore) findOne(ctx context.Context, query string, args ...any) (*models.Course, error) {
	row := s.db.QueryRowContext(ctx, query, args...)
	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrCourseNotFound, args[0])
	}
	return course, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var (
		course   models.Course
		document sql.NullString
	)
	err := row.Scan(&course.Name, &course.GuildID, &course.Channels.Discussion, &course.Roles.Staff, &document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan course: %w", err)
	}

	if document.Valid && document.String != "" {
		var specs models.DiscussionSpecs
		if err := sonic.UnmarshalString(document.String, &specs); err != nil {
			return nil, fmt.Errorf("failed to decode discussion specs for %s: %w", course.Name, err)
		}
		course.DiscussionSpecs = &specs
	}
	return &course, nil
}
