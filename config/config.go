package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"discussion-bot/models"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from several sources, in order:
// 1. .env (environment variables)
// 2. config.yaml (base configuration)
// 3. config/courses.json (course registrations, merged into the base)
// Environment variables override settings of the same name.
func LoadConfig() error {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env file not found, skipping.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error reading config.yaml: %w", err)
		}
		log.Printf("config.yaml not found, using environment variables and merged files only.")
	}

	viper.SetConfigName("courses")
	viper.SetConfigType("json")
	viper.AddConfigPath("./config")

	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("fatal error merging config/courses.json: %w", err)
		}
		log.Printf("config/courses.json not found, no courses will be registered at startup.")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.timezone", "UTC")
	v.SetDefault("bot.logLevel", "info")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/discussion.db")
	v.SetDefault("database.mongoDb", "discussion")
	v.SetDefault("discussion.rescoreSchedule", "@hourly")
	v.SetDefault("discussion.pageDelay", time.Second)
	v.SetDefault("discussion.rescoreWorkers", 1)
	v.SetDefault("discussion.actionTimeout", 10*time.Second)
}

// Settings decodes the loaded configuration.
func Settings() (models.Settings, error) {
	return decodeSettings(viper.GetViper())
}

// Courses decodes the course registrations under the "courses" key.
func Courses() ([]models.CourseRegistration, error) {
	return decodeCourses(viper.Get("courses"))
}

func decodeSettings(v *viper.Viper) (models.Settings, error) {
	var settings models.Settings
	if err := v.Unmarshal(&settings); err != nil {
		return models.Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return settings, nil
}

func decodeCourses(raw any) ([]models.CourseRegistration, error) {
	if raw == nil {
		return nil, nil
	}

	var courses []models.CourseRegistration
	if err := mapstructure.Decode(raw, &courses); err != nil {
		return nil, fmt.Errorf("failed to decode courses: %w", err)
	}
	for i, course := range courses {
		if course.Name == "" || course.DiscussionChannel == "" {
			return nil, fmt.Errorf("course #%d needs a name and a discussion_channel", i+1)
		}
	}
	return courses, nil
}

// Location resolves the configured timezone.
func Location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid bot.timezone %q: %w", name, err)
	}
	return loc, nil
}
