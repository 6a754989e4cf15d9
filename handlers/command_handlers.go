package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"discussion-bot/bot"
	"discussion-bot/discussion"
	"discussion-bot/models"
	"discussion-bot/periods"

	"github.com/bwmarrin/discordgo"
)

// HandlePing handles the logic for the /ping command.
func HandlePing(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Pong!",
		},
	})
}

func handleView(ctx context.Context, b *bot.Bot, course *models.Course, _ *discordgo.ApplicationCommandInteractionDataOption) string {
	snap, err := b.Service.Snapshot(ctx, course.Name)
	if err != nil {
		return userMessage(b, err)
	}
	return formatSnapshot(snap, b.Service.Location())
}

func handleEnable(ctx context.Context, b *bot.Bot, course *models.Course, _ *discordgo.ApplicationCommandInteractionDataOption) string {
	if err := b.Service.EnableTracking(ctx, course.Name); err != nil {
		return userMessage(b, err)
	}
	return fmt.Sprintf("✅ Discussion tracking enabled for **%s** with the default rules.", course.Name)
}

func handleDisable(ctx context.Context, b *bot.Bot, course *models.Course, _ *discordgo.ApplicationCommandInteractionDataOption) string {
	if err := b.Service.DisableTracking(ctx, course.Name); err != nil {
		return userMessage(b, err)
	}
	return fmt.Sprintf("✅ Discussion tracking disabled for **%s**.", course.Name)
}

func handleRescore(ctx context.Context, b *bot.Bot, course *models.Course, _ *discordgo.ApplicationCommandInteractionDataOption) string {
	start := time.Now()
	if err := b.Service.RescoreCourse(ctx, course.Name); err != nil {
		return userMessage(b, err)
	}
	return fmt.Sprintf("✅ Rescored **%s** in %s.", course.Name, time.Since(start).Round(time.Second))
}

func handleScores(ctx context.Context, b *bot.Bot, course *models.Course, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	opts := optionMap(sub.Options)
	period, rows, err := b.Service.PeriodReport(ctx, course.Name, opts.String("period"))
	if err != nil {
		return userMessage(b, err)
	}
	return formatReport(period, rows, b.Service.Location())
}

func contentUpdate(sub *discordgo.ApplicationCommandInteractionDataOption) discussion.ContentUpdate {
	opts := optionMap(sub.Options)
	return discussion.ContentUpdate{
		Points:        opts.Int("points"),
		CommentPoints: opts.Int("comment_points"),
		MinLength:     opts.Int("min_length"),
		MinParagraphs: opts.Int("min_paragraphs"),
		MinLinks:      opts.Int("min_links"),
	}
}

func handlePostSpecs(ctx context.Context, b *bot.Bot, course *models.Course, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	if err := b.Service.UpdatePostSpecs(ctx, course.Name, contentUpdate(sub)); err != nil {
		return userMessage(b, err)
	}
	return "✅ Post requirements updated. They apply from the next rescore."
}

func handleCommentSpecs(ctx context.Context, b *bot.Bot, course *models.Course, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	if err := b.Service.UpdateCommentSpecs(ctx, course.Name, contentUpdate(sub)); err != nil {
		return userMessage(b, err)
	}
	return "✅ Comment requirements updated. They apply from the next rescore."
}

func periodInput(opts options) periods.Input {
	return periods.Input{
		Start:      opts.String("start"),
		End:        opts.String("end"),
		GoalPoints: opts.String("goal_points"),
		MaxPoints:  opts.String("max_points"),
	}
}

func handlePeriodAdd(ctx context.Context, b *bot.Bot, course *models.Course, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	period, err := b.Service.AddPeriod(ctx, course.Name, periodInput(optionMap(sub.Options)))
	if err != nil {
		return userMessage(b, err)
	}
	return fmt.Sprintf("✅ Added score period %s.", formatBounds(period, b.Service.Location()))
}

func handlePeriodEdit(ctx context.Context, b *bot.Bot, course *models.Course, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	opts := optionMap(sub.Options)
	period, err := b.Service.EditPeriod(ctx, course.Name, opts.String("period"), periodInput(opts))
	if err != nil {
		return userMessage(b, err)
	}
	return fmt.Sprintf("✅ Score period changed to %s.", formatBounds(period, b.Service.Location()))
}

func handlePeriodDelete(ctx context.Context, b *bot.Bot, course *models.Course, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	period, err := b.Service.DeletePeriod(ctx, course.Name, optionMap(sub.Options).String("period"))
	if err != nil {
		return userMessage(b, err)
	}
	return fmt.Sprintf("✅ Deleted score period %s.", formatBounds(period, b.Service.Location()))
}

func handleAwardSet(ctx context.Context, b *bot.Bot, course *models.Course, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	opts := optionMap(sub.Options)
	points := 0
	if p := opts.Int("points"); p != nil {
		points = *p
	}
	award := models.AwardSpecs{Points: points, TrackStudents: opts.Bool("track_students")}

	target := discussion.Target(opts.String("target"))
	emoji, err := b.Service.SetAward(ctx, course.Name, target, opts.String("emoji"), award)
	if err != nil {
		return userMessage(b, err)
	}

	from := "staff"
	if award.TrackStudents {
		from = "anyone"
	}
	return fmt.Sprintf("✅ %s on %ss is now worth %+d points per reaction from %s.", emoji, target, points, from)
}

func handleAwardRemove(ctx context.Context, b *bot.Bot, course *models.Course, sub *discordgo.ApplicationCommandInteractionDataOption) string {
	opts := optionMap(sub.Options)
	target := discussion.Target(opts.String("target"))
	emoji, err := b.Service.RemoveAward(ctx, course.Name, target, opts.String("emoji"))
	if err != nil {
		return userMessage(b, err)
	}
	return fmt.Sprintf("✅ Removed the %s award from %ss.", emoji, strings.ToLower(string(target)))
}
