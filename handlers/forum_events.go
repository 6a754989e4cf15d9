package handlers

import (
	"discussion-bot/bot"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// forumOf returns the parent forum of a thread channel, or "" when channelID is not a thread.
func forumOf(s *discordgo.Session, channelID string) string {
	ch, err := s.State.Channel(channelID)
	if err != nil {
		ch, err = s.Channel(channelID)
		if err != nil {
			return ""
		}
	}
	if !ch.IsThread() {
		return ""
	}
	return ch.ParentID
}

// scheduleForChannel queues a coalesced rescore when channelID is a thread in a tracked forum.
func scheduleForChannel(b *bot.Bot, s *discordgo.Session, guildID, channelID, event string) {
	if guildID == "" {
		return
	}
	forumID := forumOf(s, channelID)
	if forumID == "" {
		return
	}
	if err := b.Service.ScheduleRescoreForChannel(b.Context(), forumID); err != nil {
		b.Logger.Error("Error scheduling rescore",
			zap.String("event", event),
			zap.String("channel", channelID),
			zap.Error(err))
	}
}

// MessageCreate is called every time a new message is created on any channel that the authenticated bot has access to.
func MessageCreate(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageCreate) {
	return func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		scheduleForChannel(b, s, m.GuildID, m.ChannelID, "message_create")
	}
}

// MessageUpdate rescores when a message is edited, since edits can change completeness.
func MessageUpdate(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageUpdate) {
	return func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		if m.Author != nil && m.Author.Bot {
			return
		}
		scheduleForChannel(b, s, m.GuildID, m.ChannelID, "message_update")
	}
}

// MessageDelete rescores when a message is removed.
func MessageDelete(b *bot.Bot) func(s *discordgo.Session, m *discordgo.MessageDelete) {
	return func(s *discordgo.Session, m *discordgo.MessageDelete) {
		scheduleForChannel(b, s, m.GuildID, m.ChannelID, "message_delete")
	}
}

// ReactionAdd rescores when a reaction that may be an award is added.
func ReactionAdd(b *bot.Bot) func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
		scheduleForChannel(b, s, r.GuildID, r.ChannelID, "reaction_add")
	}
}

// ReactionRemove rescores when a reaction is taken back.
func ReactionRemove(b *bot.Bot) func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	return func(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
		scheduleForChannel(b, s, r.GuildID, r.ChannelID, "reaction_remove")
	}
}
