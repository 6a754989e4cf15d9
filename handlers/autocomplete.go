package handlers

import (
	"strings"

	"discussion-bot/bot"
	"discussion-bot/models"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// maxChoices is Discord's limit on autocomplete choices.
const maxChoices = 25

// HandleAutocomplete handles all autocomplete interactions.
func HandleAutocomplete(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	for _, opt := range data.Options[0].Options {
		if opt.Name == "course" && opt.Focused {
			handleCourseAutocomplete(b, s, i, opt.StringValue())
		}
	}
}

func handleCourseAutocomplete(b *bot.Bot, s *discordgo.Session, i *discordgo.InteractionCreate, typed string) {
	courses, err := b.Store.ListCourses(b.Context())
	if err != nil {
		b.Logger.Error("Error listing courses for autocomplete", zap.Error(err))
		return
	}

	typed = strings.ToLower(typed)
	matching := lo.Filter(courses, func(c *models.Course, _ int) bool {
		return c.GuildID == i.GuildID && strings.Contains(strings.ToLower(c.Name), typed)
	})
	if len(matching) > maxChoices {
		matching = matching[:maxChoices]
	}

	choices := lo.Map(matching, func(c *models.Course, _ int) *discordgo.ApplicationCommandOptionChoice {
		return &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Name}
	})

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		b.Logger.Error("Error responding to autocomplete interaction", zap.Error(err))
	}
}
