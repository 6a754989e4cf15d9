package handlers

import (
	"discussion-bot/bot"
)

// Register all handlers to the bot.
func Register(b *bot.Bot) {
	b.Session.AddHandler(InteractionCreate(b))

	// Forum activity that can change scores
	b.Session.AddHandler(MessageCreate(b))
	b.Session.AddHandler(MessageUpdate(b))
	b.Session.AddHandler(MessageDelete(b))
	b.Session.AddHandler(ReactionAdd(b))
	b.Session.AddHandler(ReactionRemove(b))
	b.Session.AddHandler(ThreadDeleteHandler(b))
}
