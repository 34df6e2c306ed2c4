package push_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lms-ally/syncer/src/push"
	"github.com/lms-ally/syncer/src/push/pushtest"
	"github.com/lms-ally/syncer/src/queue"
	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/model"
	"github.com/lms-ally/syncer/src/utils/monitoring"
	"github.com/lms-ally/syncer/src/utils/settings"
	"github.com/lms-ally/syncer/src/utils/testutil"

	"github.com/stretchr/testify/suite"
)

type PushTestSuite struct {
	suite.Suite

	ctx       context.Context
	config    *config.Push
	settings  *settings.Store
	queue     *queue.Queue
	sender    *pushtest.Sender
	monitor   *monitoring.Monitor
	pusher    *push.Pusher
	processor *push.Processor
}

func TestPushTestSuite(t *testing.T) {
	suite.Run(t, new(PushTestSuite))
}

func (s *PushTestSuite) SetupTest() {
	db := testutil.NewDB(s.T())

	s.ctx = context.Background()
	s.config = &config.Push{
		Url:       "http://localhost",
		Key:       "key",
		Secret:    "secret",
		BatchSize: 2,
		Timeout:   time.Second,
	}
	s.settings = settings.NewStore(db)
	s.queue = queue.NewQueue(db)
	s.sender = pushtest.NewSender()
	s.monitor = monitoring.NewMonitor()
	s.pusher = push.NewPusher(s.config, s.settings).WithSender(s.sender).WithMonitor(s.monitor)
	s.processor = push.NewProcessor(s.config, s.pusher, s.queue, s.settings).WithMonitor(s.monitor)
}

func html(id int64) *model.ComponentContent {
	return model.NewComponentContent(id, "label", "label", "intro", 4, 1000, model.FormatHTML, "<p>label</p>", "")
}

func files(n int) (out []push.Payload) {
	for i := 0; i < n; i++ {
		out = append(out, &push.FilePayload{EntityId: string(rune('a' + i)), EventName: push.EventFileCreated})
	}
	return
}

func (s *PushTestSuite) TestSplitsIntoBatches() {
	s.Require().NoError(s.pusher.Send(s.ctx, files(5)))
	s.Require().Equal(3, s.sender.Calls())

	batches := s.sender.Batches()
	s.Require().Len(batches[0], 2)
	s.Require().Len(batches[1], 2)
	s.Require().Len(batches[2], 1)
	s.Require().Equal([]string{"a", "b", "c", "d", "e"}, s.sender.EntityIds())
	s.Require().Equal(uint64(3), s.monitor.GetReport().Ally.State.BatchesSent.Load())
	s.Require().Equal(uint64(5), s.monitor.GetReport().Ally.State.PayloadsSent.Load())
}

func (s *PushTestSuite) TestNothingToSend() {
	s.Require().NoError(s.pusher.Send(s.ctx, nil))
	s.Require().Zero(s.sender.Calls())
}

func (s *PushTestSuite) TestStopsOnFailedBatch() {
	s.sender.WithError(errors.New("boom"), 2)

	err := s.pusher.Send(s.ctx, files(5))
	s.Require().Error(err)
	s.Require().Equal(2, s.sender.Calls())
	s.Require().Equal([]string{"a", "b"}, s.sender.EntityIds())
	s.Require().Equal(uint64(1), s.monitor.GetReport().Ally.Errors.PushFailures.Load())
}

func (s *PushTestSuite) TestSuccessResumesLivePushes() {
	s.Require().NoError(s.settings.SetCliOnly(s.ctx, true))

	s.Require().NoError(s.pusher.Send(s.ctx, files(1)))

	cliOnly, err := s.settings.IsCliOnly(s.ctx)
	s.Require().NoError(err)
	s.Require().False(cliOnly)
}

func (s *PushTestSuite) TestLiveContentPush() {
	pushed, err := s.processor.PushContentUpdate(s.ctx, push.EventContentCreated, html(1), html(2), html(3))
	s.Require().NoError(err)
	s.Require().True(pushed)
	s.Require().Equal(2, s.sender.Calls())
	s.Require().Equal([]string{"rich_content_created", "rich_content_created", "rich_content_created"}, s.sender.Events())

	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(stats.ContentUpdates)
}

func (s *PushTestSuite) TestOnlyHTMLIsPushed() {
	plain := model.NewComponentContent(1, "label", "label", "intro", 4, 1000, model.ContentFormat(0), "text", "")

	pushed, err := s.processor.PushContentUpdate(s.ctx, push.EventContentUpdated, plain)
	s.Require().NoError(err)
	s.Require().True(pushed)
	s.Require().Zero(s.sender.Calls())
}

func (s *PushTestSuite) TestInvalidConfigQueues() {
	s.config.Secret = ""

	pushed, err := s.processor.PushContentUpdate(s.ctx, push.EventContentUpdated, html(1))
	s.Require().NoError(err)
	s.Require().False(pushed)
	s.Require().Zero(s.sender.Calls())

	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), stats.ContentUpdates)
}

func (s *PushTestSuite) TestCliOnlyQueuesDeletions() {
	s.Require().NoError(s.settings.SetCliOnly(s.ctx, true))

	deleted := model.NewDeletedComponentContent(5, "label", "label", "intro", 4, 2000)
	pushed, err := s.processor.PushContentUpdate(s.ctx, push.EventContentDeleted, deleted)
	s.Require().NoError(err)
	s.Require().False(pushed)
	s.Require().Zero(s.sender.Calls())

	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), stats.DeletedContent)
	s.Require().Zero(stats.ContentUpdates)
	s.Require().Equal(uint64(1), s.monitor.GetReport().Ally.State.DeletionsQueued.Load())
}

func (s *PushTestSuite) TestFailedLivePushSwitchesToCliOnly() {
	s.sender.WithError(errors.New("connection refused"))

	pushed, err := s.processor.PushContentUpdate(s.ctx, push.EventContentUpdated, html(1))
	s.Require().NoError(err)
	s.Require().False(pushed)

	cliOnly, err := s.settings.IsCliOnly(s.ctx)
	s.Require().NoError(err)
	s.Require().True(cliOnly)
	s.Require().True(s.monitor.GetReport().Ally.State.CliOnly.Load())
	s.Require().Equal(uint64(1), s.monitor.GetReport().Ally.Errors.LivePushFailures.Load())

	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), stats.ContentUpdates)

	// Next attempt goes straight to the queue
	s.sender.WithError(nil)
	pushed, err = s.processor.PushContentUpdate(s.ctx, push.EventContentUpdated, html(2))
	s.Require().NoError(err)
	s.Require().False(pushed)
	s.Require().Equal(1, s.sender.Calls())
}

func (s *PushTestSuite) TestLiveFilePush() {
	items := []*model.FileItem{
		{PathNameHash: "a", CourseId: 2, TimeCreated: 10, TimeModified: 10},
		{PathNameHash: "b", CourseId: 2, TimeCreated: 10, TimeModified: 50},
	}

	s.Require().True(s.processor.PushFileUpdates(s.ctx, items))
	s.Require().Equal([]string{"file_created", "file_updated"}, s.sender.Events())

	s.sender.WithError(errors.New("timeout"))
	s.Require().False(s.processor.PushFileUpdates(s.ctx, items))

	// File failures don't change the mode, the file job catches up
	cliOnly, err := s.settings.IsCliOnly(s.ctx)
	s.Require().NoError(err)
	s.Require().False(cliOnly)
}
