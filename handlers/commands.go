package handlers

import (
	"context"
	"errors"

	"discussion-bot/bot"
	"discussion-bot/database"
	"discussion-bot/models"
	"discussion-bot/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// courseHandler runs a subcommand against an authorized course.
type courseHandler func(ctx context.Context, b *bot.Bot, course *models.Course, sub *discordgo.ApplicationCommandInteractionDataOption) string

// CommandDispatcher is the central handler for all application command interactions.
// It resolves the course, checks that the caller is course staff and dispatches
// the interaction to the appropriate handler.
func CommandDispatcher(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name == "ping" {
		HandlePing(s, i)
		return
	}

	handlers, ok := courseCommands[data.Name]
	if !ok || len(data.Options) == 0 {
		respondEphemeral(b, s, i, "🚫 Internal error: unknown command.")
		return
	}
	sub := data.Options[0]
	handler, ok := handlers[sub.Name]
	if !ok {
		respondEphemeral(b, s, i, "🚫 Internal error: unknown subcommand.")
		return
	}

	opts := optionMap(sub.Options)
	courseName := opts.String("course")
	course, err := b.Service.Course(b.Context(), courseName)
	if err != nil || course.GuildID != i.GuildID {
		if err != nil && !errors.Is(err, database.ErrCourseNotFound) {
			b.Logger.Error("Error loading course for command", zap.String("course", courseName), zap.Error(err))
			respondEphemeral(b, s, i, userMessage(b, err))
			return
		}
		respondEphemeral(b, s, i, "❌ Unknown course.")
		return
	}

	if !utils.IsStaff(i.Member, course) {
		respondEphemeral(b, s, i, "🚫 You do not have permission to manage this course.")
		return
	}

	// Queued actions can take longer than the interaction deadline.
	if err := deferEphemeral(s, i); err != nil {
		b.Logger.Error("Error deferring interaction", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(b.Context(), b.ActionTimeout())
	defer cancel()

	reply := handler(ctx, b, course, sub)
	editResponse(b, s, i, reply)
}

var courseCommands = map[string]map[string]courseHandler{
	"discussion": {
		"view":          handleView,
		"enable":        handleEnable,
		"disable":       handleDisable,
		"rescore":       handleRescore,
		"scores":        handleScores,
		"post-specs":    handlePostSpecs,
		"comment-specs": handleCommentSpecs,
	},
	"period": {
		"add":    handlePeriodAdd,
		"edit":   handlePeriodEdit,
		"delete": handlePeriodDelete,
	},
	"award": {
		"set":    handleAwardSet,
		"remove": handleAwardRemove,
	},
}
