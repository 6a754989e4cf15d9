package handlers

import (
	"discussion-bot/bot"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ThreadDeleteHandler handles the THREAD_DELETE event. A deleted thread takes its
// scores with it, so the course is rescored.
func ThreadDeleteHandler(b *bot.Bot) func(s *discordgo.Session, t *discordgo.ThreadDelete) {
	return func(s *discordgo.Session, t *discordgo.ThreadDelete) {
		if t.ParentID == "" {
			return
		}
		b.Logger.Debug("Thread delete event received", zap.String("thread", t.ID), zap.String("forum", t.ParentID))
		if err := b.Service.ScheduleRescoreForChannel(b.Context(), t.ParentID); err != nil {
			b.Logger.Error("Error scheduling rescore after thread delete", zap.String("thread", t.ID), zap.Error(err))
		}
	}
}
