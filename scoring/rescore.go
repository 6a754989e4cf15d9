package scoring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discussion-bot/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Options tunes how aggressively the rescorer talks to the platform.
type Options struct {
	PageDelay       time.Duration // pause between message page fetches
	Workers         int           // threads rescored concurrently per course
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultOptions returns conservative settings that stay within Discord's rate limits.
func DefaultOptions() Options {
	return Options{
		PageDelay:       time.Second,
		Workers:         1,
		MaxRetries:      3,
		InitialInterval: 2 * time.Second,
		MaxInterval:     10 * time.Second,
	}
}

// Rescorer recomputes student scores from the messages of forum threads.
type Rescorer struct {
	platform Platform
	logger   *zap.Logger
	opts     Options
}

// NewRescorer creates a rescorer that reads messages through platform.
func NewRescorer(platform Platform, logger *zap.Logger, opts Options) *Rescorer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Rescorer{
		platform: platform,
		logger:   logger.Named("rescorer"),
		opts:     opts,
	}
}

// RescoreCourse rescores every thread of the course forum and merges the results.
// Each thread is locked while it is scored and unlocked afterwards, even on failure.
// The returned periods carry the course's period bounds with freshly computed student totals.
func (r *Rescorer) RescoreCourse(ctx context.Context, course *models.Course) ([]models.ScorePeriod, error) {
	if course.DiscussionSpecs == nil {
		return nil, nil
	}

	threads, err := r.platform.ForumThreads(ctx, course.Channels.Discussion)
	if err != nil {
		return nil, &ScoringError{ThreadID: course.Channels.Discussion, Err: fmt.Errorf("failed to list forum threads: %w", err)}
	}

	p := pool.NewWithResults[[]models.ScorePeriod]().
		WithContext(ctx).
		WithMaxGoroutines(r.opts.Workers).
		WithFirstError().
		WithCancelOnError()
	for _, thread := range threads {
		p.Go(func(ctx context.Context) ([]models.ScorePeriod, error) {
			return r.rescoreLocked(ctx, thread, course)
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	total := ClearStudentScores(course.DiscussionSpecs.ScorePeriods)
	for _, periods := range results {
		total, err = MergePeriodSets(total, periods)
		if err != nil {
			return nil, err
		}
	}

	r.logger.Info("Rescored course",
		zap.String("course", course.Name),
		zap.Int("threads", len(threads)))
	return total, nil
}

func (r *Rescorer) rescoreLocked(ctx context.Context, thread *Thread, course *models.Course) ([]models.ScorePeriod, error) {
	if !thread.Locked {
		if err := r.platform.SetThreadLocked(ctx, thread.ID, true); err != nil {
			r.logger.Warn("Failed to lock thread before rescoring",
				zap.String("thread", thread.ID),
				zap.Error(err))
		} else {
			defer func() {
				if err := r.platform.SetThreadLocked(context.WithoutCancel(ctx), thread.ID, false); err != nil {
					r.logger.Error("Failed to unlock thread after rescoring",
						zap.String("thread", thread.ID),
						zap.Error(err))
				}
			}()
		}
	}

	return r.RescoreThread(ctx, thread.ID, course)
}

// RescoreThread computes the student totals one thread contributes to each score period.
// The root message is scored as a post and every reply as a comment. A thread that is not
// a thread of the course forum contributes nothing.
func (r *Rescorer) RescoreThread(ctx context.Context, threadID string, course *models.Course) ([]models.ScorePeriod, error) {
	specs := course.DiscussionSpecs
	if specs == nil {
		return nil, nil
	}
	periods := ClearStudentScores(specs.ScorePeriods)

	thread, err := r.platform.ResolveThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, ErrThreadNotFound) {
			return periods, nil
		}
		return nil, &ScoringError{ThreadID: threadID, Err: err}
	}
	if thread.ParentID != course.Channels.Discussion {
		return periods, nil
	}

	messages, err := r.fetchThreadMessages(ctx, threadID)
	if err != nil {
		return nil, &ScoringError{ThreadID: threadID, Err: err}
	}

	post, comments := splitThread(threadID, messages)
	if post == nil {
		post, err = r.platform.ThreadRoot(ctx, threadID)
		if err != nil && !errors.Is(err, ErrThreadNotFound) {
			return nil, &ScoringError{ThreadID: threadID, Err: fmt.Errorf("failed to fetch root message: %w", err)}
		}
	}

	var postPeriod *models.ScorePeriod
	if post != nil && !post.AuthorBot {
		postPeriod = FindPeriodFor(post.Timestamp, periods)
	}

	var commenters []string
	for _, comment := range comments {
		if comment.AuthorBot {
			continue
		}
		period := FindPeriodFor(comment.Timestamp, periods)
		if period == nil {
			continue
		}

		data := ScoreContent(comment.Content, specs.CommentSpecs.Content())
		r.addAwards(ctx, &data, comment, specs.CommentSpecs.Awards, course)
		ApplyCommentScore(period, comment.AuthorID, data)

		if postPeriod != nil && period == postPeriod && comment.AuthorID != post.AuthorID {
			commenters = append(commenters, comment.AuthorID)
		}
	}

	if postPeriod != nil {
		data := ScoreContent(post.Content, specs.PostSpecs.Content())
		r.addAwards(ctx, &data, post, specs.PostSpecs.Awards, course)
		ApplyPostScore(postPeriod, post.AuthorID, data)

		if distinct := len(lo.Uniq(commenters)); distinct > 0 && specs.PostSpecs.CommentPoints != 0 {
			ApplyCommentBonusToPoster(postPeriod, post.AuthorID, specs.PostSpecs.CommentPoints*distinct)
		}
	}

	return periods, nil
}

func (r *Rescorer) addAwards(ctx context.Context, data *models.MessageScoreData, msg *Message, table map[string]models.AwardSpecs, course *models.Course) {
	if len(table) == 0 || len(msg.Reactions) == 0 {
		return
	}

	awards := ResolveAwards(ctx, r.platform, msg, table, course.GuildID, course.Roles.Staff)
	if awards.LookupFailures > 0 {
		r.logger.Warn("Skipped reactors whose roles could not be checked",
			zap.String("message", msg.ID),
			zap.Int("failures", awards.LookupFailures))
	}

	data.Score += awards.Score
	data.NumAwards += awards.NumAwards
	data.NumPenalties += awards.NumPenalties
}

// fetchThreadMessages pages through the whole thread, newest first, pausing between pages.
func (r *Rescorer) fetchThreadMessages(ctx context.Context, threadID string) ([]*Message, error) {
	var (
		all    []*Message
		before string
	)
	for page := 0; ; page++ {
		if page > 0 {
			if err := sleepContext(ctx, r.opts.PageDelay); err != nil {
				return nil, err
			}
		}

		var batch []*Message
		operation := func() error {
			var err error
			batch, err = r.platform.ThreadMessages(ctx, threadID, MessagePageSize, before)
			if errors.Is(err, ErrThreadNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}

		b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
			backoff.WithInitialInterval(r.opts.InitialInterval),
			backoff.WithMaxInterval(r.opts.MaxInterval),
		), r.opts.MaxRetries)
		if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
			return nil, fmt.Errorf("failed to fetch message page %d: %w", page+1, err)
		}

		all = append(all, batch...)
		if len(batch) < MessagePageSize {
			return all, nil
		}
		before = batch[len(batch)-1].ID
	}
}

// splitThread separates the root message, which shares the thread's ID, from the replies.
func splitThread(threadID string, messages []*Message) (*Message, []*Message) {
	var post *Message
	comments := make([]*Message, 0, len(messages))
	for _, msg := range messages {
		if msg.ID == threadID {
			post = msg
			continue
		}
		comments = append(comments, msg)
	}
	return post, comments
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
