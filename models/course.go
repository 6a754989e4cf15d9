package models

import "time"

// Course is a registered course whose discussion forum the bot tracks.
// DiscussionSpecs stays nil until discussion tracking is enabled.
type Course struct {
	Name            string           `json:"name" bson:"_id"`
	GuildID         string           `json:"guild_id" bson:"guild_id"`
	Channels        CourseChannels   `json:"channels" bson:"channels"`
	Roles           CourseRoles      `json:"roles" bson:"roles"`
	DiscussionSpecs *DiscussionSpecs `json:"discussion_specs,omitempty" bson:"discussion_specs,omitempty"`
}

// CourseChannels holds the channel IDs a course owns.
type CourseChannels struct {
	Discussion string `json:"discussion" bson:"discussion"` // forum channel ID
}

// CourseRoles holds the role IDs a course owns.
type CourseRoles struct {
	Staff string `json:"staff" bson:"staff"`
}

// DiscussionSpecs is the full rule set for a course forum.
type DiscussionSpecs struct {
	PostSpecs    PostSpecs     `json:"post_specs" bson:"post_specs"`
	CommentSpecs CommentSpecs  `json:"comment_specs" bson:"comment_specs"`
	ScorePeriods []ScorePeriod `json:"score_periods" bson:"score_periods"`
}

// PostSpecs are the requirements a root forum post must meet.
type PostSpecs struct {
	Points        int                   `json:"points" bson:"points"`
	CommentPoints int                   `json:"comment_points" bson:"comment_points"` // paid to the poster per qualifying commenter
	MinLength     int                   `json:"min_length" bson:"min_length"`
	MinParagraphs int                   `json:"min_paragraphs" bson:"min_paragraphs"`
	MinLinks      int                   `json:"min_links" bson:"min_links"`
	Awards        map[string]AwardSpecs `json:"awards" bson:"awards"`
}

// CommentSpecs are the requirements a reply in a forum thread must meet.
type CommentSpecs struct {
	Points        int                   `json:"points" bson:"points"`
	MinLength     int                   `json:"min_length" bson:"min_length"`
	MinParagraphs int                   `json:"min_paragraphs" bson:"min_paragraphs"`
	MinLinks      int                   `json:"min_links" bson:"min_links"`
	Awards        map[string]AwardSpecs `json:"awards" bson:"awards"`
}

// ContentSpecs is the part of post and comment specs the content scorer reads.
type ContentSpecs struct {
	Points        int
	MinLength     int
	MinParagraphs int
	MinLinks      int
}

// Content returns the content thresholds of the post specs.
func (p PostSpecs) Content() ContentSpecs {
	return ContentSpecs{Points: p.Points, MinLength: p.MinLength, MinParagraphs: p.MinParagraphs, MinLinks: p.MinLinks}
}

// Content returns the content thresholds of the comment specs.
func (c CommentSpecs) Content() ContentSpecs {
	return ContentSpecs{Points: c.Points, MinLength: c.MinLength, MinParagraphs: c.MinParagraphs, MinLinks: c.MinLinks}
}

// AwardSpecs describes what a single award emoji is worth.
type AwardSpecs struct {
	Points        int  `json:"points" bson:"points"` // negative for a penalty
	TrackStudents bool `json:"track_students" bson:"track_students"`
}

// ScorePeriod is a time window in which points accumulate toward a goal.
// A message belongs to the period iff Start < timestamp < End.
type ScorePeriod struct {
	Start         time.Time                    `json:"start" bson:"start"`
	End           time.Time                    `json:"end" bson:"end"`
	GoalPoints    int                          `json:"goal_points" bson:"goal_points"`
	MaxPoints     int                          `json:"max_points" bson:"max_points"`
	StudentScores map[string]*StudentScoreData `json:"student_scores" bson:"student_scores"`
}

// Contains reports whether t lies strictly inside the period.
func (p ScorePeriod) Contains(t time.Time) bool {
	return p.Start.Before(t) && t.Before(p.End)
}

// Overlaps reports whether the two periods intersect. Touching endpoints count.
func (p ScorePeriod) Overlaps(o ScorePeriod) bool {
	return !p.Start.After(o.End) && !p.End.Before(o.Start)
}

// StudentScoreData is one student's running totals inside a score period.
type StudentScoreData struct {
	Score             int `json:"score" bson:"score"`
	NumPosts          int `json:"num_posts" bson:"num_posts"`
	NumIncomPost      int `json:"num_incom_post" bson:"num_incom_post"`
	NumComments       int `json:"num_comments" bson:"num_comments"`
	NumIncomComment   int `json:"num_incom_comment" bson:"num_incom_comment"`
	AwardsReceived    int `json:"awards_received" bson:"awards_received"`
	PenaltiesReceived int `json:"penalties_received" bson:"penalties_received"`
}

// MessageScoreData is the result of scoring a single message. It is never persisted.
type MessageScoreData struct {
	Score           int
	PassedLength    bool
	PassedParagraph bool
	PassedLinks     bool
	NumAwards       int
	NumPenalties    int
}

// Complete reports whether the message met every content requirement.
func (m MessageScoreData) Complete() bool {
	return m.PassedLength && m.PassedParagraph && m.PassedLinks
}

// DefaultDiscussionSpecs returns the rule set a course starts with when tracking is enabled.
func DefaultDiscussionSpecs() *DiscussionSpecs {
	return &DiscussionSpecs{
		PostSpecs: PostSpecs{
			Points:        1,
			CommentPoints: 0,
			MinParagraphs: 1,
			Awards:        make(map[string]AwardSpecs),
		},
		CommentSpecs: CommentSpecs{
			Points:        1,
			MinParagraphs: 1,
			Awards:        make(map[string]AwardSpecs),
		},
		ScorePeriods: []ScorePeriod{},
	}
}

// Clone returns a deep copy of the specs so a trial change never touches the original.
func (d *DiscussionSpecs) Clone() *DiscussionSpecs {
	if d == nil {
		return nil
	}

	clone := *d
	clone.PostSpecs.Awards = cloneAwards(d.PostSpecs.Awards)
	clone.CommentSpecs.Awards = cloneAwards(d.CommentSpecs.Awards)
	clone.ScorePeriods = make([]ScorePeriod, len(d.ScorePeriods))
	for i, period := range d.ScorePeriods {
		scores := make(map[string]*StudentScoreData, len(period.StudentScores))
		for id, data := range period.StudentScores {
			if data == nil {
				continue
			}
			copied := *data
			scores[id] = &copied
		}
		period.StudentScores = scores
		clone.ScorePeriods[i] = period
	}
	return &clone
}

func cloneAwards(awards map[string]AwardSpecs) map[string]AwardSpecs {
	clone := make(map[string]AwardSpecs, len(awards))
	for emoji, award := range awards {
		clone[emoji] = award
	}
	return clone
}
