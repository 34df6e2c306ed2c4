package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/lms-ally/syncer/src/events"
	"github.com/lms-ally/syncer/src/push"
	"github.com/lms-ally/syncer/src/push/pushtest"
	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/model"
	"github.com/lms-ally/syncer/src/utils/testutil"

	"github.com/stretchr/testify/require"
)

func TestQueuedUntilConfigured(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	fixtures := testutil.NewFixtures(t, db)
	course, _ := fixtures.Course("Course", "<p>Summary</p>", model.FormatHTML)

	conf := config.Default()
	conf.Push.Url = ""
	app := NewWithDB(conf, db)

	err := app.Events.Dispatch(ctx, &events.Event{Name: events.CourseUpdated, ObjectId: course.Id})
	require.NoError(t, err)

	stats, err := app.Queue.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.ContentUpdates)

	// Push gets configured later, the scheduled job delivers what was queued
	conf.Push.Url = "http://localhost"
	conf.Push.Key = "key"
	conf.Push.Secret = "secret"

	sender := pushtest.NewSender()
	app.WithPusher(push.NewPusher(&conf.Push, app.Settings).WithSender(sender))
	require.NoError(t, app.Settings.SetInt64(ctx, model.SettingPushContentTimestamp, 1))

	require.NoError(t, app.ContentUpdates.Execute(ctx))
	require.Equal(t, []string{fmt.Sprintf("course:course:summary:%d", course.Id)}, sender.EntityIds())
	require.Equal(t, []string{push.EventContentUpdated}, sender.Events())

	stats, err = app.Queue.Stats(ctx)
	require.NoError(t, err)
	require.Zero(t, stats.ContentUpdates)
	require.Equal(t, uint64(1), app.Monitor.GetReport().Ally.State.QueueRowsDelivered.Load())
}

func TestControllers(t *testing.T) {
	conf := config.Default()
	conf.WebService.Enabled = true
	app := NewWithDB(conf, testutil.NewDB(t))

	require.NotNil(t, NewController(app).Task)
	require.NotNil(t, NewServerController(app).Task)
	require.True(t, app.Monitor.IsOK())
}
