package handlers

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"discussion-bot/bot"
	"discussion-bot/discussion"
	"discussion-bot/periods"
	"discussion-bot/queue"
	"discussion-bot/scoring"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestUserMessage(t *testing.T) {
	b := &bot.Bot{Logger: zaptest.NewLogger(t)}

	tests := []struct {
		err  error
		want string
	}{
		{&periods.ValidationError{Reasons: []string{"start date must be before end date", "max points cannot be negative"}},
			"❌ The input is invalid:\n- start date must be before end date\n- max points cannot be negative"},
		{periods.ErrPeriodConflict, "overlaps an existing score period"},
		{&discussion.DatabaseError{Op: "save", Err: errors.New("disk full")}, "contact an admin"},
		{fmt.Errorf("rescore: %w", &scoring.ScoringError{ThreadID: "t1", Err: errors.New("429")}), "Scores were not updated"},
		{queue.ErrStillRunning, "is still being processed"},
		{discussion.ErrInvalidEmoji, "❌ Award must be exactly one emoji."},
		{errors.New("surprise"), "Internal error"},
	}
	for _, tt := range tests {
		got := userMessage(b, tt.err)
		assert.True(t, strings.Contains(got, tt.want), "%q does not contain %q", got, tt.want)
	}
}

func TestOptionMap(t *testing.T) {
	opts := optionMap([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "course", Type: discordgo.ApplicationCommandOptionString, Value: "CS101"},
		{Name: "points", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(-3)},
		{Name: "track_students", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
	})

	assert.Equal(t, "CS101", opts.String("course"))
	if assert.NotNil(t, opts.Int("points")) {
		assert.Equal(t, -3, *opts.Int("points"))
	}
	assert.Nil(t, opts.Int("min_links"))
	assert.True(t, opts.Bool("track_students"))
	assert.False(t, opts.Bool("missing"))
	assert.Empty(t, opts.String("missing"))
}

func TestClip(t *testing.T) {
	long := strings.Repeat("é", maxContentLength+10)
	clipped := clip(long)
	assert.Len(t, []rune(clipped), maxContentLength)
	assert.Equal(t, "short", clip("short"))
}
