package handlers

import (
	"fmt"
	"strings"
	"time"

	"discussion-bot/discussion"
	"discussion-bot/models"
	"discussion-bot/periods"
)

func formatBounds(p models.ScorePeriod, loc *time.Location) string {
	return fmt.Sprintf("`%s` → `%s`", p.Start.In(loc).Format(periods.DateLayout), p.End.In(loc).Format(periods.DateLayout))
}

func formatSnapshot(snap *discussion.Snapshot, loc *time.Location) string {
	if !snap.Tracking {
		return fmt.Sprintf("Discussion tracking is not enabled for **%s**. Use `/discussion enable`.", snap.Course)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** discussion rules\n", snap.Course)

	p := snap.PostSpecs
	fmt.Fprintf(&sb, "\n**Posts**: %d points, %d per commenter; at least %d characters, %d paragraphs, %d links\n",
		p.Points, p.CommentPoints, p.MinLength, p.MinParagraphs, p.MinLinks)
	writeAwards(&sb, p.AwardList)

	c := snap.CommentSpecs
	fmt.Fprintf(&sb, "\n**Comments**: %d points; at least %d characters, %d paragraphs, %d links\n",
		c.Points, c.MinLength, c.MinParagraphs, c.MinLinks)
	writeAwards(&sb, c.AwardList)

	sb.WriteString("\n**Score periods**\n")
	if len(snap.Periods) == 0 {
		sb.WriteString("None yet. Use `/period add`.\n")
	}
	for _, period := range snap.Periods {
		fmt.Fprintf(&sb, "%d. `%s` → `%s` goal %d, max %d (%d students)\n",
			period.Number,
			period.Start.In(loc).Format(periods.DateLayout),
			period.End.In(loc).Format(periods.DateLayout),
			period.GoalPoints, period.MaxPoints, period.Students)
	}
	return sb.String()
}

func writeAwards(sb *strings.Builder, awards []discussion.AwardView) {
	for _, award := range awards {
		from := "staff"
		if award.TrackStudents {
			from = "anyone"
		}
		fmt.Fprintf(sb, "- %s %+d from %s\n", award.Emoji, award.Points, from)
	}
}

func formatReport(period models.ScorePeriod, rows []discussion.StudentReport, loc *time.Location) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Scores for %s (goal %d, max %d)\n", formatBounds(period, loc), period.GoalPoints, period.MaxPoints)
	if len(rows) == 0 {
		sb.WriteString("No scores yet. Run `/discussion rescore` to compute them.")
		return sb.String()
	}
	for _, row := range rows {
		mark := "⬜"
		if row.GoalMet {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "%s <@%s> **%d**: %d posts (%d incomplete), %d comments (%d incomplete), %d awards, %d penalties\n",
			mark, row.StudentID, row.Score,
			row.NumPosts, row.NumIncomPost, row.NumComments, row.NumIncomComment,
			row.AwardsReceived, row.PenaltiesReceived)
	}
	return sb.String()
}
