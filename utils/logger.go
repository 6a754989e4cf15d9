package utils

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ColorInfo  = 0x00ff00 // Green
	ColorWarn  = 0xffff00 // Yellow
	ColorError = 0xff0000 // Red
)

// NewLogger builds the root zap logger at the given level ("debug", "info", ...).
func NewLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	return cfg.Build()
}

// Notifier posts operational messages as embeds to the admin channel.
// Without a session or channel it only writes to the logger.
type Notifier struct {
	session   *discordgo.Session
	channelID string
	logger    *zap.Logger
}

// NewNotifier creates a notifier for channelID.
func NewNotifier(s *discordgo.Session, channelID string, logger *zap.Logger) *Notifier {
	logger = logger.Named("notifier")
	if channelID == "" {
		logger.Warn("bot.adminChannelId is not set. Logging to channel will be disabled.")
	}
	return &Notifier{session: s, channelID: channelID, logger: logger}
}

// Log sends a log message to the admin channel.
func (n *Notifier) Log(level, module, operation, details string) {
	fields := []zap.Field{
		zap.String("module", module),
		zap.String("operation", operation),
		zap.String("details", details),
	}
	var color int
	switch level {
	case "WARN":
		color = ColorWarn
		n.logger.Warn("Notification", fields...)
	case "ERROR":
		color = ColorError
		n.logger.Error("Notification", fields...)
	default:
		color = ColorInfo
		n.logger.Info("Notification", fields...)
	}

	if n.session == nil || n.channelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Log Level: %s", level),
		Color:     color,
		Timestamp: time.Now().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Module",
				Value:  module,
				Inline: true,
			},
			{
				Name:   "Operation",
				Value:  operation,
				Inline: true,
			},
			{
				Name:  "Details",
				Value: truncate(details, 1024),
			},
		},
	}

	if _, err := n.session.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
		n.logger.Error("Error sending log message to Discord", zap.Error(err))
	}
}

// Info logs an informational message.
func (n *Notifier) Info(module, operation, details string) {
	n.Log("INFO", module, operation, details)
}

// Warn logs a warning message.
func (n *Notifier) Warn(module, operation, details string) {
	n.Log("WARN", module, operation, details)
}

// Error logs an error message.
func (n *Notifier) Error(module, operation, details string) {
	n.Log("ERROR", module, operation, details)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
