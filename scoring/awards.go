package scoring

import (
	"context"

	"discussion-bot/models"
)

// ReactionSource is what the award resolver needs to inspect reactions.
type ReactionSource interface {
	Reactors(ctx context.Context, channelID, messageID, emoji string) ([]string, error)
	RoleChecker
}

// AwardResult is the bonus/malus a message earned from its reactions.
type AwardResult struct {
	Score        int
	NumAwards    int
	NumPenalties int
	// LookupFailures counts reactors (or whole reactions) skipped because the
	// platform could not answer a reactor or role query.
	LookupFailures int
}

// ResolveAwards sums the points of every reaction on msg that appears in the award table.
// Awards that track students count every reactor. Staff-only awards count only reactors
// holding staffRoleID; a reactor whose role lookup fails is treated as non-staff.
func ResolveAwards(ctx context.Context, src ReactionSource, msg *Message, table map[string]models.AwardSpecs, guildID, staffRoleID string) AwardResult {
	var result AwardResult
	for _, reaction := range msg.Reactions {
		award, ok := table[reaction.Emoji]
		if !ok || reaction.Count <= 0 {
			continue
		}

		units := reaction.Count
		if !award.TrackStudents {
			units = countStaffReactors(ctx, src, msg, reaction.Emoji, guildID, staffRoleID, &result)
		}

		result.Score += award.Points * units
		switch {
		case award.Points > 0:
			result.NumAwards += units
		case award.Points < 0:
			result.NumPenalties += units
		}
	}
	return result
}

func countStaffReactors(ctx context.Context, src ReactionSource, msg *Message, emoji, guildID, staffRoleID string, result *AwardResult) int {
	reactors, err := src.Reactors(ctx, msg.ChannelID, msg.ID, emoji)
	if err != nil {
		result.LookupFailures++
		return 0
	}

	staff := 0
	for _, userID := range reactors {
		isStaff, err := src.MemberHasRole(ctx, guildID, userID, staffRoleID)
		if err != nil {
			result.LookupFailures++
			continue
		}
		if isStaff {
			staff++
		}
	}
	return staff
}
