package scanner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"discussion-bot/scoring"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// reactorPageSize is the largest page Discord returns when listing reactors.
const reactorPageSize = 100

// Platform implements scoring.Platform on top of a discordgo session.
type Platform struct {
	s      *discordgo.Session
	logger *zap.Logger
}

// NewPlatform wraps a Discord session for the scoring engine.
func NewPlatform(s *discordgo.Session, logger *zap.Logger) *Platform {
	return &Platform{s: s, logger: logger.Named("platform")}
}

// ResolveThread fetches a channel and checks that it is a thread.
func (p *Platform) ResolveThread(ctx context.Context, threadID string) (*scoring.Thread, error) {
	ch, err := p.s.Channel(threadID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", scoring.ErrThreadNotFound, threadID)
		}
		return nil, fmt.Errorf("failed to get channel %s: %w", threadID, err)
	}
	if !ch.IsThread() {
		return nil, fmt.Errorf("%w: %s is not a thread", scoring.ErrThreadNotFound, threadID)
	}
	return toThread(ch), nil
}

// ForumThreads lists the active and archived threads of a forum channel.
func (p *Platform) ForumThreads(ctx context.Context, forumID string) ([]*scoring.Thread, error) {
	forum, err := p.s.Channel(forumID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get channel details for %s: %w", forumID, err)
	}

	processed := make(map[string]bool)
	var threads []*scoring.Thread

	// 1. Active threads are only listed per guild.
	active, err := p.s.GuildThreadsActive(forum.GuildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to get active threads for guild %s: %w", forum.GuildID, err)
	}
	for _, thread := range active.Threads {
		if thread.ParentID == forumID && !processed[thread.ID] {
			threads = append(threads, toThread(thread))
			processed[thread.ID] = true
		}
	}

	// 2. Archived threads are paginated by archive timestamp.
	var before *time.Time
	for {
		archived, err := p.s.ThreadsArchived(forumID, before, 100, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to get archived threads for channel %s: %w", forumID, err)
		}
		if len(archived.Threads) == 0 {
			break
		}

		for _, thread := range archived.Threads {
			if !processed[thread.ID] {
				threads = append(threads, toThread(thread))
				processed[thread.ID] = true
			}
			if thread.ThreadMetadata != nil {
				t := thread.ThreadMetadata.ArchiveTimestamp
				before = &t
			}
		}

		if !archived.HasMore {
			break
		}
	}

	p.logger.Debug("Listed forum threads", zap.String("forum", forumID), zap.Int("threads", len(threads)))
	return threads, nil
}

// ThreadRoot returns the message that started a forum thread.
// The starter message shares its ID with the thread.
func (p *Platform) ThreadRoot(ctx context.Context, threadID string) (*scoring.Message, error) {
	msg, err := p.s.ChannelMessage(threadID, threadID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: starter message of %s", scoring.ErrThreadNotFound, threadID)
		}
		return nil, fmt.Errorf("failed to get first message for thread %s: %w", threadID, err)
	}
	return toMessage(msg), nil
}

// ThreadMessages returns one page of messages older than before, newest first.
func (p *Platform) ThreadMessages(ctx context.Context, threadID string, limit int, before string) ([]*scoring.Message, error) {
	msgs, err := p.s.ChannelMessages(threadID, limit, before, "", "", discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", scoring.ErrThreadNotFound, threadID)
		}
		return nil, fmt.Errorf("failed to get messages for thread %s: %w", threadID, err)
	}

	page := make([]*scoring.Message, 0, len(msgs))
	for _, msg := range msgs {
		page = append(page, toMessage(msg))
	}
	return page, nil
}

// Reactors lists every user that reacted to a message with emoji.
func (p *Platform) Reactors(ctx context.Context, channelID, messageID, emoji string) ([]string, error) {
	apiName := emojiAPIName(emoji)

	var (
		userIDs []string
		after   string
	)
	for {
		users, err := p.s.MessageReactions(channelID, messageID, apiName, reactorPageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to get %s reactors of message %s: %w", emoji, messageID, err)
		}
		for _, user := range users {
			userIDs = append(userIDs, user.ID)
		}
		if len(users) < reactorPageSize {
			return userIDs, nil
		}
		after = users[len(users)-1].ID
	}
}

// SetThreadLocked locks or unlocks a thread so members cannot post while it is rescored.
func (p *Platform) SetThreadLocked(ctx context.Context, threadID string, locked bool) error {
	_, err := p.s.ChannelEdit(threadID, &discordgo.ChannelEdit{Locked: &locked}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to set locked=%v on thread %s: %w", locked, threadID, err)
	}
	return nil
}

// MemberHasRole checks the state cache first and falls back to the REST API.
func (p *Platform) MemberHasRole(ctx context.Context, guildID, memberID, roleID string) (bool, error) {
	if roleID == "" {
		return false, nil
	}

	member, err := p.s.State.Member(guildID, memberID)
	if err != nil {
		member, err = p.s.GuildMember(guildID, memberID, discordgo.WithContext(ctx))
		if err != nil {
			if isNotFound(err) {
				// Members who left the guild hold no roles.
				return false, nil
			}
			return false, fmt.Errorf("failed to get member %s of guild %s: %w", memberID, guildID, err)
		}
	}
	return slices.Contains(member.Roles, roleID), nil
}

func toThread(ch *discordgo.Channel) *scoring.Thread {
	thread := &scoring.Thread{ID: ch.ID, ParentID: ch.ParentID}
	if ch.ThreadMetadata != nil {
		thread.Locked = ch.ThreadMetadata.Locked
	}
	return thread
}

func toMessage(m *discordgo.Message) *scoring.Message {
	msg := &scoring.Message{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorBot = m.Author.Bot
	}
	for _, reaction := range m.Reactions {
		if reaction.Emoji == nil {
			continue
		}
		msg.Reactions = append(msg.Reactions, scoring.Reaction{
			Emoji: EmojiKey(reaction.Emoji),
			Count: reaction.Count,
		})
	}
	return msg
}

// EmojiKey is the award table key for an emoji: the unicode emoji itself or the
// "<:name:id>" mention form for custom emoji.
func EmojiKey(e *discordgo.Emoji) string {
	if e.ID == "" {
		return e.Name
	}
	return e.MessageFormat()
}

// emojiAPIName converts an award key back into the form the reactions endpoint expects.
func emojiAPIName(key string) string {
	if !strings.HasPrefix(key, "<") || !strings.HasSuffix(key, ">") {
		return key
	}
	trimmed := strings.TrimPrefix(strings.TrimSuffix(key, ">"), "<")
	trimmed = strings.TrimPrefix(trimmed, "a")
	return strings.TrimPrefix(trimmed, ":")
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
