package handlers

import (
	"errors"
	"fmt"
	"strings"

	"discussion-bot/bot"
	"discussion-bot/database"
	"discussion-bot/discussion"
	"discussion-bot/periods"
	"discussion-bot/queue"
	"discussion-bot/scoring"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Discord rejects message content above this many characters.
const maxContentLength = 2000

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

func (o options) String(name string) string {
	if opt, ok := o[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func (o options) Int(name string) *int {
	opt, ok := o[name]
	if !ok {
		return nil
	}
	v := int(opt.IntValue())
	return &v
}

func (o options) Bool(name string) bool {
	if opt, ok := o[name]; ok {
		return opt.BoolValue()
	}
	return false
}

func respondEphemeral(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: clip(content),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		b.Logger.Error("Error responding to interaction", zap.Error(err))
	}
}

func deferEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func editResponse(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	content = clip(content)
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		b.Logger.Error("Error editing interaction response", zap.Error(err))
	}
}

func clip(content string) string {
	runes := []rune(content)
	if len(runes) <= maxContentLength {
		return content
	}
	return string(runes[:maxContentLength-1]) + "…"
}

// userMessage turns an action error into the reply shown to the caller.
func userMessage(b *bot.Bot, err error) string {
	var (
		validation *periods.ValidationError
		dbErr      *discussion.DatabaseError
		scoringErr *scoring.ScoringError
	)
	switch {
	case errors.As(err, &validation):
		var sb strings.Builder
		sb.WriteString("❌ The input is invalid:")
		for _, reason := range validation.Reasons {
			sb.WriteString("\n- ")
			sb.WriteString(reason)
		}
		return sb.String()
	case errors.Is(err, periods.ErrPeriodConflict):
		return "❌ That period overlaps an existing score period. Nothing was changed."
	case errors.As(err, &dbErr):
		return "❌ Could not save the changes to the database. Try again later or contact an admin."
	case errors.As(err, &scoringErr):
		return "❌ Scores were not updated because the forum could not be read. Try again later."
	case errors.Is(err, queue.ErrStillRunning):
		return "⏳ The request is queued behind other work on this course and is still being processed. Failures will be reported to the admins."
	case errors.Is(err, database.ErrCourseNotFound):
		return "❌ Unknown course."
	case errors.Is(err, discussion.ErrTrackingDisabled),
		errors.Is(err, discussion.ErrTrackingEnabled),
		errors.Is(err, discussion.ErrInvalidEmoji),
		errors.Is(err, discussion.ErrAwardNotFound),
		errors.Is(err, discussion.ErrInvalidSpecs):
		return fmt.Sprintf("❌ %s.", capitalize(err.Error()))
	}

	b.Logger.Error("Unhandled command error", zap.Error(err))
	return "🚫 Internal error. The admins have been notified."
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
