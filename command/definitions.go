package command

import "github.com/bwmarrin/discordgo"

func courseOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:         "course",
		Description:  "The course to manage",
		Type:         discordgo.ApplicationCommandOptionString,
		Required:     true,
		Autocomplete: true,
	}
}

func intOption(name, description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionInteger,
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionString,
		Required:    required,
	}
}

func subcommand(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        name,
		Description: description,
		Type:        discordgo.ApplicationCommandOptionSubCommand,
		Options:     append([]*discordgo.ApplicationCommandOption{courseOption()}, options...),
	}
}

func targetOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        "target",
		Description: "Whether the award applies to posts or comments",
		Type:        discordgo.ApplicationCommandOptionString,
		Required:    true,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "Posts", Value: "post"},
			{Name: "Comments", Value: "comment"},
		},
	}
}

// DiscussionCommand defines the structure for the /discussion command.
type DiscussionCommand struct{}

// Definition returns the application command definition.
func (c *DiscussionCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "discussion",
		Description: "Manage discussion scoring for a course",
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("view", "Show the discussion rules of a course"),
			subcommand("enable", "Start tracking discussion scores"),
			subcommand("disable", "Stop tracking discussion scores and drop them"),
			subcommand("rescore", "Rescore every thread of the course forum"),
			subcommand("scores", "Show student scores for a score period",
				stringOption("period", "Period number as shown by /discussion view", true)),
			subcommand("post-specs", "Change what a post needs to score",
				intOption("points", "Points for a complete post"),
				intOption("comment_points", "Points the poster gets per commenter"),
				intOption("min_length", "Minimum number of non-whitespace characters"),
				intOption("min_paragraphs", "Minimum number of paragraphs"),
				intOption("min_links", "Minimum number of links")),
			subcommand("comment-specs", "Change what a comment needs to score",
				intOption("points", "Points for a complete comment"),
				intOption("min_length", "Minimum number of non-whitespace characters"),
				intOption("min_paragraphs", "Minimum number of paragraphs"),
				intOption("min_links", "Minimum number of links")),
		},
	}
}

// PeriodCommand defines the structure for the /period command.
type PeriodCommand struct{}

// Definition returns the application command definition.
func (c *PeriodCommand) Definition() *discordgo.ApplicationCommand {
	bounds := func() []*discordgo.ApplicationCommandOption {
		return []*discordgo.ApplicationCommandOption{
			stringOption("start", "Start, e.g. 2024-01-01 09:00:00 AM", true),
			stringOption("end", "End, e.g. 2024-01-07 11:59:59 PM", true),
			stringOption("goal_points", "Points a student should reach", true),
			stringOption("max_points", "Points a student can reach at most", true),
		}
	}
	return &discordgo.ApplicationCommand{
		Name:        "period",
		Description: "Manage score periods of a course",
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("add", "Add a score period", bounds()...),
			subcommand("edit", "Replace a score period",
				append([]*discordgo.ApplicationCommandOption{stringOption("period", "Period number to edit", true)}, bounds()...)...),
			subcommand("delete", "Delete a score period",
				stringOption("period", "Period number to delete", true)),
		},
	}
}

// AwardCommand defines the structure for the /award command.
type AwardCommand struct{}

// Definition returns the application command definition.
func (c *AwardCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "award",
		Description: "Manage reaction awards of a course",
		Options: []*discordgo.ApplicationCommandOption{
			subcommand("set", "Create or change an award emoji",
				targetOption(),
				stringOption("emoji", "A single emoji", true),
				&discordgo.ApplicationCommandOption{
					Name:        "points",
					Description: "Points per reaction, negative for a penalty",
					Type:        discordgo.ApplicationCommandOptionInteger,
					Required:    true,
				},
				&discordgo.ApplicationCommandOption{
					Name:        "track_students",
					Description: "Count reactions from everyone instead of staff only",
					Type:        discordgo.ApplicationCommandOptionBoolean,
				}),
			subcommand("remove", "Remove an award emoji",
				targetOption(),
				stringOption("emoji", "The emoji to remove", true)),
		},
	}
}

// PingCommand defines the structure for the /ping command.
type PingCommand struct{}

// Definition returns the application command definition.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Responds with Pong!",
	}
}
