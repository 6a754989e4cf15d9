package scoring

import (
	"context"
	"time"
)

// MessagePageSize is the largest page Discord returns for a channel message listing.
const MessagePageSize = 100

// Message is the subset of a forum message the scoring engine reads.
type Message struct {
	ID        string
	ChannelID string
	AuthorID  string
	AuthorBot bool
	Content   string
	Timestamp time.Time
	Reactions []Reaction
}

// Reaction is one emoji reaction on a message.
// Emoji is the key used in award tables: the unicode emoji itself or "<:name:id>" for custom emoji.
type Reaction struct {
	Emoji string
	Count int
}

// Thread is a forum thread as seen by the scoring engine.
type Thread struct {
	ID       string
	ParentID string
	Locked   bool
}

// Platform is everything the scoring engine needs from the chat platform.
type Platform interface {
	// ResolveThread returns ErrThreadNotFound when threadID is not a forum thread.
	ResolveThread(ctx context.Context, threadID string) (*Thread, error)
	// ForumThreads lists every active and archived thread of a forum channel.
	ForumThreads(ctx context.Context, forumID string) ([]*Thread, error)
	ThreadRoot(ctx context.Context, threadID string) (*Message, error)
	// ThreadMessages returns up to limit messages older than before, newest first.
	// An empty before starts from the latest message.
	ThreadMessages(ctx context.Context, threadID string, limit int, before string) ([]*Message, error)
	// Reactors lists the user IDs that reacted to a message with emoji.
	Reactors(ctx context.Context, channelID, messageID, emoji string) ([]string, error)
	SetThreadLocked(ctx context.Context, threadID string, locked bool) error
	RoleChecker
}

// RoleChecker answers role membership questions for the award resolver.
type RoleChecker interface {
	MemberHasRole(ctx context.Context, guildID, memberID, roleID string) (bool, error)
}
