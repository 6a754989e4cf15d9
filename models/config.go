package models

import "time"

// Settings is the typed view of config.yaml and the merged JSON files.
type Settings struct {
	Bot        BotSettings        `mapstructure:"bot"`
	Database   DatabaseSettings   `mapstructure:"database"`
	Discussion DiscussionSettings `mapstructure:"discussion"`
	GRPC       GRPCSettings       `mapstructure:"grpc"`
}

// BotSettings configures the Discord session.
type BotSettings struct {
	AdminChannelID string `mapstructure:"adminChannelId"`
	Timezone       string `mapstructure:"timezone"`
	LogLevel       string `mapstructure:"logLevel"`
	RescoreAtStart bool   `mapstructure:"rescoreAtStartup"`
}

// DatabaseSettings selects and configures the course document store.
type DatabaseSettings struct {
	Driver   string `mapstructure:"driver"` // sqlite or mongo
	Path     string `mapstructure:"path"`
	MongoURI string `mapstructure:"mongoUri"`
	MongoDB  string `mapstructure:"mongoDb"`
}

// DiscussionSettings tunes the scoring engine.
type DiscussionSettings struct {
	RescoreSchedule string        `mapstructure:"rescoreSchedule"`
	PageDelay       time.Duration `mapstructure:"pageDelay"`
	RescoreWorkers  int           `mapstructure:"rescoreWorkers"`
	ActionTimeout   time.Duration `mapstructure:"actionTimeout"`
}

// GRPCSettings configures the health endpoint. An empty address disables it.
type GRPCSettings struct {
	HealthAddress string `mapstructure:"healthAddress"`
}

// CourseRegistration is one entry of config/courses.json.
type CourseRegistration struct {
	Name              string `json:"name" mapstructure:"name"`
	GuildID           string `json:"guild_id" mapstructure:"guild_id"`
	DiscussionChannel string `json:"discussion_channel" mapstructure:"discussion_channel"`
	StaffRole         string `json:"staff_role" mapstructure:"staff_role"`
}
