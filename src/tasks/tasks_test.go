package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lms-ally/syncer/src/access"
	"github.com/lms-ally/syncer/src/component"
	"github.com/lms-ally/syncer/src/events"
	"github.com/lms-ally/syncer/src/files"
	"github.com/lms-ally/syncer/src/push"
	"github.com/lms-ally/syncer/src/push/pushtest"
	"github.com/lms-ally/syncer/src/queue"
	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"
	"github.com/lms-ally/syncer/src/utils/monitoring"
	"github.com/lms-ally/syncer/src/utils/settings"
	"github.com/lms-ally/syncer/src/utils/testutil"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type TasksTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	config   *config.Config
	fixtures *testutil.Fixtures
	settings *settings.Store
	queue    *queue.Queue
	sender   *pushtest.Sender
	monitor  *monitoring.Monitor

	fileUpdates    *FileUpdates
	contentUpdates *ContentUpdates
	handlers       *events.Handlers

	course        *lms.Course
	courseContext *lms.Context
}

func TestTasksTestSuite(t *testing.T) {
	suite.Run(t, new(TasksTestSuite))
}

func (s *TasksTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.fixtures = testutil.NewFixtures(s.T(), s.db)
	s.course, s.courseContext = s.fixtures.Course("Course", "", model.FormatHTML)

	s.config = config.Default()
	s.config.Push.Url = "http://localhost"
	s.config.Push.Key = "key"
	s.config.Push.Secret = "secret"
	s.config.Push.BatchSize = 2

	s.settings = settings.NewStore(s.db)
	s.queue = queue.NewQueue(s.db)
	s.sender = pushtest.NewSender()
	s.monitor = monitoring.NewMonitor()
}

// Jobs are created after the fixtures
func (s *TasksTestSuite) newJobs() {
	contexts := lms.NewContexts(s.db)
	modules := lms.NewModules(s.db)
	roles := access.NewRoleAssignments(s.db, contexts, []int64{testutil.RoleEditingTeacher})
	authors := access.NewAuthors([]int64{testutil.AdminId}, roles)
	registry := component.NewRegistry(&component.Deps{
		DB:       s.db,
		Contexts: contexts,
		Modules:  modules,
		Authors:  authors,
		Hooks:    new(testutil.RecordingHooks),
		Urls:     lms.NewUrls("https://lms.example.com"),
	})
	validator := files.NewValidator(s.db, contexts, authors)

	pusher := push.NewPusher(&s.config.Push, s.settings).WithSender(s.sender).WithMonitor(s.monitor)

	s.handlers = events.NewHandlers(s.config, s.db, registry).
		WithLms(contexts, modules).
		WithValidator(validator).
		WithProcessor(push.NewProcessor(&s.config.Push, pusher, s.queue, s.settings)).
		WithQueue(s.queue).
		WithMonitor(s.monitor)

	s.fileUpdates = NewFileUpdates(s.config, s.db, contexts, validator).
		WithPusher(pusher).
		WithQueue(s.queue).
		WithSettings(s.settings).
		WithMonitor(s.monitor)

	s.contentUpdates = NewContentUpdates(s.config, registry).
		WithPusher(pusher).
		WithQueue(s.queue).
		WithSettings(s.settings).
		WithMonitor(s.monitor)
}

func (s *TasksTestSuite) files(n int, firstModified int64) (out []*lms.File) {
	for i := 0; i < n; i++ {
		out = append(out, s.fixtures.File(testutil.FileSpec{
			ContextId:    s.courseContext.Id,
			Component:    "course",
			FileArea:     "summary",
			FileName:     fmt.Sprintf("file%d.png", i),
			TimeCreated:  firstModified - 100,
			TimeModified: firstModified + int64(i),
		}))
	}
	return
}

func hashes(files []*lms.File) (out []string) {
	for _, f := range files {
		out = append(out, f.PathNameHash)
	}
	return
}

func (s *TasksTestSuite) watermark(name model.SettingName) int64 {
	v, err := s.settings.GetInt64(s.ctx, name)
	s.Require().NoError(err)
	return v
}

func (s *TasksTestSuite) TestFileUpdatesSkipsWithoutConfig() {
	s.config.Push.Url = ""
	s.files(2, 1000)
	s.newJobs()

	s.Require().NoError(s.fileUpdates.Execute(s.ctx))
	s.Require().Zero(s.sender.Calls())
	s.Require().Zero(s.watermark(model.SettingPushTimestamp))
}

func (s *TasksTestSuite) TestFileUpdatesFirstRunOnlySetsWindow() {
	s.files(2, 1000)
	s.newJobs()

	s.Require().NoError(s.fileUpdates.Execute(s.ctx))
	s.Require().Zero(s.sender.Calls())
	s.Require().Greater(s.watermark(model.SettingPushTimestamp), int64(0))
}

func (s *TasksTestSuite) TestFileUpdatesInBatches() {
	s.Require().NoError(s.settings.SetInt64(s.ctx, model.SettingPushTimestamp, 900))
	stored := s.files(5, 1001)
	s.newJobs()

	s.Require().NoError(s.fileUpdates.Execute(s.ctx))
	s.Require().Equal(3, s.sender.Calls())
	s.Require().Equal(hashes(stored), s.sender.EntityIds())
	s.Require().Equal(int64(1005), s.watermark(model.SettingPushTimestamp))
	s.Require().Equal(uint64(5), s.monitor.GetReport().Ally.State.FilesDelivered.Load())

	// Nothing changed
	s.Require().NoError(s.fileUpdates.Execute(s.ctx))
	s.Require().Equal(3, s.sender.Calls())
}

func (s *TasksTestSuite) TestFileUpdatesKeepProgressOnFailure() {
	s.Require().NoError(s.settings.SetInt64(s.ctx, model.SettingPushTimestamp, 900))
	stored := s.files(5, 1001)
	s.newJobs()

	s.sender.WithError(errors.New("unavailable"), 2)
	s.Require().Error(s.fileUpdates.Execute(s.ctx))
	s.Require().Equal(hashes(stored[:2]), s.sender.EntityIds())
	s.Require().Equal(int64(1001), s.watermark(model.SettingPushTimestamp))
	s.Require().Equal(uint64(1), s.monitor.GetReport().Ally.Errors.FileTaskFailures.Load())

	// The file sharing the watermark second is sent again
	s.Require().NoError(s.fileUpdates.Execute(s.ctx))
	s.Require().Equal(append(hashes(stored[:2]), hashes(stored[1:])...), s.sender.EntityIds())
	s.Require().Equal(int64(1005), s.watermark(model.SettingPushTimestamp))
}

func (s *TasksTestSuite) TestWatermarkNeverMovesBack() {
	s.Require().NoError(s.settings.SetInt64(s.ctx, model.SettingPushTimestamp, 2000))
	s.files(2, 1001)
	s.newJobs()

	s.Require().NoError(s.fileUpdates.Execute(s.ctx))
	s.Require().Zero(s.sender.Calls())
	s.Require().Equal(int64(2000), s.watermark(model.SettingPushTimestamp))
}

func (s *TasksTestSuite) TestFileUpdatesSeeRoleChanges() {
	s.Require().NoError(s.settings.SetInt64(s.ctx, model.SettingPushTimestamp, 900))
	_, _, moduleContext := s.fixtures.Activity(s.courseContext, "assign", "Assignment", "", model.FormatHTML)
	f := s.fixtures.File(testutil.FileSpec{
		ContextId:    moduleContext.Id,
		Component:    "mod_assign",
		FileArea:     "feedback",
		FileName:     "notes.pdf",
		UserId:       testutil.UserId(20),
		TimeCreated:  1001,
		TimeModified: 1001,
	})
	s.newJobs()

	s.Require().NoError(s.fileUpdates.Execute(s.ctx))
	s.Require().Zero(s.sender.Calls())
	s.Require().Equal(int64(900), s.watermark(model.SettingPushTimestamp))

	// Same job, the uploader became a teacher in the meantime
	s.fixtures.Assign(20, testutil.RoleEditingTeacher, s.courseContext.Id)

	s.Require().NoError(s.fileUpdates.Execute(s.ctx))
	s.Require().Equal([]string{f.PathNameHash}, s.sender.EntityIds())
	s.Require().Equal(int64(1001), s.watermark(model.SettingPushTimestamp))
}

func (s *TasksTestSuite) TestFileDeletionsDrained() {
	s.Require().NoError(s.settings.SetInt64(s.ctx, model.SettingPushTimestamp, 900))
	s.newJobs()

	for i := 0; i < 3; i++ {
		s.Require().NoError(s.queue.EnqueueFileDeletion(s.ctx, &model.DeletedFile{
			CourseId:     s.course.Id,
			PathNameHash: fmt.Sprintf("hash%d", i),
			ContentHash:  "content",
			MimeType:     "image/png",
			TimeDeleted:  1000,
		}))
	}

	s.Require().NoError(s.fileUpdates.Execute(s.ctx))
	s.Require().Equal(2, s.sender.Calls())
	s.Require().Equal([]string{"file_deleted", "file_deleted", "file_deleted"}, s.sender.Events())

	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(stats.DeletedFiles)
}

func (s *TasksTestSuite) TestContentUpdatesFirstRunOnlySetsWindow() {
	s.newJobs()
	s.Require().NoError(s.queue.EnqueueContentDeletion(s.ctx, model.NewDeletedComponentContent(1, "label", "label", "intro", s.course.Id, 1000)))

	s.Require().NoError(s.contentUpdates.Execute(s.ctx))
	s.Require().Zero(s.sender.Calls())
	s.Require().Greater(s.watermark(model.SettingPushContentTimestamp), int64(0))

	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), stats.DeletedContent)
}

func (s *TasksTestSuite) TestContentUpdatesDrainQueues() {
	s.Require().NoError(s.settings.SetInt64(s.ctx, model.SettingPushContentTimestamp, 900))
	label, _, _ := s.fixtures.Activity(s.courseContext, "label", "Label", "<p>old</p>", model.FormatHTML)
	s.newJobs()

	queued := model.NewComponentContent(label.Id, "label", "label", "intro", s.course.Id, 1000, model.FormatHTML, "<p>old</p>", "")
	gone := model.NewComponentContent(label.Id+100, "label", "label", "intro", s.course.Id, 1000, model.FormatHTML, "<p>gone</p>", "")
	s.Require().NoError(s.queue.EnqueueContentUpdate(s.ctx, push.EventContentUpdated, queued, gone))
	s.Require().NoError(s.queue.EnqueueContentDeletion(s.ctx, model.NewDeletedComponentContent(7, "page", "page", "content", s.course.Id, 1000)))

	// Content changed after it got queued
	s.Require().NoError(s.db.Table("label").Where("id = ?", label.Id).Update("intro", "<p>new</p>").Error)

	s.Require().NoError(s.contentUpdates.Execute(s.ctx))
	s.Require().Equal(2, s.sender.Calls())

	payloads := s.sender.Payloads()
	s.Require().Len(payloads, 3)

	deleted := payloads[0].(*push.ContentPayload)
	s.Require().Equal("page:page:content:7", deleted.EntityId)
	s.Require().Equal(push.EventContentDeleted, deleted.EventName)

	current := payloads[1].(*push.ContentPayload)
	s.Require().Equal(queued.EntityId(), current.EntityId)
	s.Require().Equal(model.ContentHash("<p>new</p>"), current.ContentHash)
	s.Require().Equal(push.EventContentUpdated, current.EventName)

	fallback := payloads[2].(*push.ContentPayload)
	s.Require().Equal(gone.EntityId(), fallback.EntityId)
	s.Require().Equal(model.ContentHash("<p>gone</p>"), fallback.ContentHash)

	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(stats.DeletedContent)
	s.Require().Zero(stats.ContentUpdates)
	s.Require().Greater(s.watermark(model.SettingPushContentTimestamp), int64(900))
}

func (s *TasksTestSuite) TestContentUpdatesResumeLivePushes() {
	s.Require().NoError(s.settings.SetInt64(s.ctx, model.SettingPushContentTimestamp, 900))
	s.Require().NoError(s.settings.SetCliOnly(s.ctx, true))
	s.newJobs()
	s.Require().NoError(s.queue.EnqueueContentDeletion(s.ctx, model.NewDeletedComponentContent(1, "label", "label", "intro", s.course.Id, 1000)))

	s.sender.WithError(errors.New("unavailable"))
	s.Require().Error(s.contentUpdates.Execute(s.ctx))

	cliOnly, err := s.settings.IsCliOnly(s.ctx)
	s.Require().NoError(err)
	s.Require().True(cliOnly)
	s.Require().Equal(int64(900), s.watermark(model.SettingPushContentTimestamp))

	s.sender.WithError(nil)
	s.Require().NoError(s.contentUpdates.Execute(s.ctx))

	cliOnly, err = s.settings.IsCliOnly(s.ctx)
	s.Require().NoError(err)
	s.Require().False(cliOnly)
}

func (s *TasksTestSuite) TestContentUpdatesDropInvalidRows() {
	s.Require().NoError(s.settings.SetInt64(s.ctx, model.SettingPushContentTimestamp, 900))
	label, _, _ := s.fixtures.Activity(s.courseContext, "label", "Label", "<p>label</p>", model.FormatHTML)
	s.newJobs()

	badTable := model.NewComponentContent(label.Id, "label", "user", "intro", s.course.Id, 1000, model.FormatHTML, "<p>x</p>", "")
	badField := model.NewComponentContent(label.Id, "label", "label", "name", s.course.Id, 1000, model.FormatHTML, "<p>x</p>", "")
	valid := model.NewComponentContent(label.Id, "label", "label", "intro", s.course.Id, 1000, model.FormatHTML, "<p>label</p>", "")
	s.Require().NoError(s.queue.EnqueueContentUpdate(s.ctx, push.EventContentUpdated, badTable, badField, valid))

	s.Require().NoError(s.contentUpdates.Execute(s.ctx))
	s.Require().Equal([]string{valid.EntityId()}, s.sender.EntityIds())

	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(stats.ContentUpdates)

	// Nothing left to retry
	s.Require().NoError(s.contentUpdates.Execute(s.ctx))
	s.Require().Equal(1, s.sender.Calls())
}

func (s *TasksTestSuite) TestContentDeletionRoundTrip() {
	label, cm, _ := s.fixtures.Activity(s.courseContext, "label", "Label", "<p>Label</p>", model.FormatHTML)
	s.newJobs()

	s.Require().NoError(s.handlers.Dispatch(s.ctx, &events.Event{Name: events.ModuleDeleted, ObjectId: cm.Id, CourseId: s.course.Id}))
	s.Require().Zero(s.sender.Calls())

	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), stats.DeletedContent)

	// First run only opens the window
	s.Require().NoError(s.contentUpdates.Execute(s.ctx))
	s.Require().Zero(s.sender.Calls())
	stats, err = s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(int64(1), stats.DeletedContent)

	s.Require().NoError(s.contentUpdates.Execute(s.ctx))
	s.Require().Equal(1, s.sender.Calls())

	payloads := s.sender.Payloads()
	s.Require().Len(payloads, 1)
	deleted := payloads[0].(*push.ContentPayload)
	s.Require().Equal(fmt.Sprintf("label:label:intro:%d", label.Id), deleted.EntityId)
	s.Require().Equal(push.EventContentDeleted, deleted.EventName)
	s.Require().Equal(fmt.Sprint(s.course.Id), deleted.ContextId)

	stats, err = s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	s.Require().Zero(stats.DeletedContent)
}
