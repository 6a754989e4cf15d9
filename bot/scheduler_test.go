package bot

import (
	"context"
	"errors"
	"testing"

	"discussion-bot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type countingRescheduler struct {
	calls int
	err   error
}

func (c *countingRescheduler) RescoreAll(context.Context) (int, error) {
	c.calls++
	return c.calls, c.err
}

func TestNewScheduler_ValidatesSchedule(t *testing.T) {
	settings := models.Settings{}
	settings.Discussion.RescoreSchedule = "every now and then"

	_, err := NewScheduler(&countingRescheduler{}, settings, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "rescoreSchedule")

	settings.Discussion.RescoreSchedule = ""
	s, err := NewScheduler(&countingRescheduler{}, settings, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "@hourly", s.schedule)

	settings.Bot.Timezone = "Nowhere/Special"
	_, err = NewScheduler(&countingRescheduler{}, settings, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestScheduler_RescoreAllStopsAfterShutdown(t *testing.T) {
	service := &countingRescheduler{}
	s, err := NewScheduler(service, models.Settings{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	s.rescoreAll(ctx)
	service.err = errors.New("store down")
	s.rescoreAll(ctx)
	assert.Equal(t, 2, service.calls)

	cancel()
	s.rescoreAll(ctx)
	assert.Equal(t, 2, service.calls)
}

func TestScheduler_StartAndStop(t *testing.T) {
	service := &countingRescheduler{}
	settings := models.Settings{}
	settings.Discussion.RescoreSchedule = "0 3 * * *"

	s, err := NewScheduler(service, settings, zaptest.NewLogger(t))
	require.NoError(t, err)
	s.Start(t.Context())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
