package events_test

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
	"github.com/lms-ally/syncer/src/utils/settings"
	"github.com/lms-ally/syncer/src/utils/testutil"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type EventsTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	config   *config.Config
	fixtures *testutil.Fixtures
	queue    *queue.Queue
	sender   *pushtest.Sender

	course        *lms.Course
	courseContext *lms.Context
}

func TestEventsTestSuite(t *testing.T) {
	suite.Run(t, new(EventsTestSuite))
}

func (s *EventsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.fixtures = testutil.NewFixtures(s.T(), s.db)
	s.course, s.courseContext = s.fixtures.Course("Course", `<p><img src="@@PLUGINFILE@@/old.png"></p>`, model.FormatHTML)

	s.config = config.Default()
	s.config.Push.Url = "http://localhost"
	s.config.Push.Key = "key"
	s.config.Push.Secret = "secret"
	s.config.Push.BatchSize = 10

	s.queue = queue.NewQueue(s.db)
	s.sender = pushtest.NewSender()

	s.fixtures.Assign(10, testutil.RoleEditingTeacher, s.courseContext.Id)
	s.fixtures.Assign(11, testutil.RoleStudent, s.courseContext.Id)
}

// Handlers are created after the fixtures
func (s *EventsTestSuite) handlers() *events.Handlers {
	contexts := lms.NewContexts(s.db)
	modules := lms.NewModules(s.db)
	roles := access.NewRoleAssignments(s.db, contexts, []int64{testutil.RoleEditingTeacher, testutil.RoleTeacher})
	authors := access.NewAuthors([]int64{testutil.AdminId}, roles)
	registry := component.NewRegistry(&component.Deps{
		DB:       s.db,
		Contexts: contexts,
		Modules:  modules,
		Authors:  authors,
		Hooks:    new(testutil.RecordingHooks),
		Urls:     lms.NewUrls("https://lms.example.com"),
	})

	store := settings.NewStore(s.db)
	pusher := push.NewPusher(&s.config.Push, store).WithSender(s.sender)
	processor := push.NewProcessor(&s.config.Push, pusher, s.queue, store)

	return events.NewHandlers(s.config, s.db, registry).
		WithLms(contexts, modules).
		WithValidator(files.NewValidator(s.db, contexts, authors)).
		WithProcessor(processor).
		WithQueue(s.queue)
}

func (s *EventsTestSuite) dispatch(event *events.Event) {
	s.Require().NoError(s.handlers().Dispatch(s.ctx, event))
}

func (s *EventsTestSuite) stats() queue.Stats {
	stats, err := s.queue.Stats(s.ctx)
	s.Require().NoError(err)
	return stats
}

// Queued tombstones as component:table:field:id
func (s *EventsTestSuite) deleted() (out []string) {
	var rows []*model.DeletedContent
	s.Require().NoError(s.db.Order("id").Find(&rows).Error)
	for _, r := range rows {
		out = append(out, fmt.Sprintf("%s:%s:%s:%d", r.Component, r.CompTable, r.CompField, r.CompRowId))
	}
	return
}

func (s *EventsTestSuite) TestCourseCreated() {
	section := s.fixtures.Section(s.course.Id, 1, "Week 1", "<p>Week</p>", model.FormatHTML)

	s.dispatch(&events.Event{Name: events.CourseCreated, ObjectId: s.course.Id})

	s.Require().ElementsMatch([]string{
		fmt.Sprintf("course:course:summary:%d", s.course.Id),
		fmt.Sprintf("course:course_sections:summary:%d", section.Id),
	}, s.sender.EntityIds())
	for _, name := range s.sender.Events() {
		s.Require().Equal(push.EventContentCreated, name)
	}
}

func (s *EventsTestSuite) TestSectionDeleted() {
	s.dispatch(&events.Event{Name: events.SectionDeleted, ObjectId: 42, CourseId: s.course.Id})

	s.Require().Zero(s.sender.Calls())
	s.Require().Equal([]string{"course:course_sections:summary:42"}, s.deleted())
}

func (s *EventsTestSuite) TestCourseDeleted() {
	s.dispatch(&events.Event{Name: events.CourseDeleted, ObjectId: s.course.Id})

	s.Require().Zero(s.sender.Calls())
	s.Require().Equal([]string{fmt.Sprintf("course:course:summary:%d", s.course.Id)}, s.deleted())
}

func (s *EventsTestSuite) TestModuleCreatedPushesContentAndFiles() {
	book, cm, bookContext := s.fixtures.Activity(s.courseContext, "book", "Book", "<p>Book</p>", model.FormatHTML)
	chapter := s.fixtures.Chapter(book.Id, "Chapter", "<p>Chapter</p>", model.FormatHTML)
	f := s.fixtures.File(testutil.FileSpec{ContextId: bookContext.Id, Component: "mod_book", FileArea: "chapter", ItemId: chapter.Id, FileName: "figure.png"})
	s.fixtures.File(testutil.FileSpec{ContextId: bookContext.Id, Component: "mod_book", FileArea: "chapter", ItemId: chapter.Id, FileName: "old.png", TimeCreated: s.fixtures.Now - 3600})

	s.dispatch(&events.Event{Name: events.ModuleCreated, ObjectId: cm.Id, TimeCreated: s.fixtures.Now})

	s.Require().Equal([]string{
		fmt.Sprintf("book:book:intro:%d", book.Id),
		fmt.Sprintf("book:book_chapters:content:%d", chapter.Id),
		f.PathNameHash,
	}, s.sender.EntityIds())
	s.Require().Equal([]string{push.EventContentCreated, push.EventContentCreated, push.EventFileCreated}, s.sender.Events())
}

func (s *EventsTestSuite) TestModuleUpdatedPushesInstanceFields() {
	book, cm, _ := s.fixtures.Activity(s.courseContext, "book", "Book", "<p>Book</p>", model.FormatHTML)
	s.fixtures.Chapter(book.Id, "Chapter", "<p>Chapter</p>", model.FormatHTML)

	s.dispatch(&events.Event{Name: events.ModuleUpdated, ObjectId: cm.Id})

	s.Require().Equal([]string{fmt.Sprintf("book:book:intro:%d", book.Id)}, s.sender.EntityIds())
	s.Require().Equal([]string{push.EventContentUpdated}, s.sender.Events())
}

func (s *EventsTestSuite) TestModuleDeletedIsQueued() {
	book, cm, _ := s.fixtures.Activity(s.courseContext, "book", "Book", "<p>Book</p>", model.FormatHTML)
	one := s.fixtures.Chapter(book.Id, "One", "<p>1</p>", model.FormatHTML)
	two := s.fixtures.Chapter(book.Id, "Two", "<p>2</p>", model.FormatHTML)

	s.dispatch(&events.Event{Name: events.ModuleDeleted, ObjectId: cm.Id})

	s.Require().Zero(s.sender.Calls())
	s.Require().Equal([]string{
		fmt.Sprintf("book:book_chapters:content:%d", one.Id),
		fmt.Sprintf("book:book_chapters:content:%d", two.Id),
		fmt.Sprintf("book:book:intro:%d", book.Id),
	}, s.deleted())
}

func (s *EventsTestSuite) TestLabelDeletedIsQueued() {
	label, cm, _ := s.fixtures.Activity(s.courseContext, "label", "Label", "<p>Label</p>", model.FormatHTML)

	s.dispatch(&events.Event{Name: events.ModuleDeleted, ObjectId: cm.Id})

	s.Require().Zero(s.sender.Calls())
	s.Require().Equal([]string{fmt.Sprintf("label:label:intro:%d", label.Id)}, s.deleted())
	s.Require().Equal(int64(1), s.stats().DeletedContent)
}

func (s *EventsTestSuite) TestDiscussionOfTrustedAuthor() {
	forum, _, forumContext := s.fixtures.Activity(s.courseContext, "forum", "Forum", "", model.FormatHTML)
	teacherDiscussion, teacherPost := s.fixtures.Discussion("forum", forum, 10, "News", "<p>News</p>")
	studentDiscussion, _ := s.fixtures.Discussion("forum", forum, 11, "Help", "<p>Help</p>")

	s.dispatch(&events.Event{Name: events.DiscussionCreated, ObjectId: teacherDiscussion.Id, ModuleName: "forum", InstanceId: forum.Id})
	s.dispatch(&events.Event{Name: events.DiscussionCreated, ObjectId: studentDiscussion.Id, ModuleName: "forum", ContextId: forumContext.Id})

	s.Require().Equal([]string{fmt.Sprintf("forum:forum_posts:message:%d", teacherPost.Id)}, s.sender.EntityIds())
}

func (s *EventsTestSuite) TestRepliesAreIgnored() {
	forum, _, _ := s.fixtures.Activity(s.courseContext, "forum", "Forum", "", model.FormatHTML)
	d, first := s.fixtures.Discussion("forum", forum, 10, "News", "<p>News</p>")
	reply := s.fixtures.Post("forum", d, first.Id, 10, "<p>Reply</p>")

	s.dispatch(&events.Event{Name: events.PostCreated, ObjectId: reply.Id, DiscussionId: d.Id, ModuleName: "forum", InstanceId: forum.Id})
	s.Require().Zero(s.sender.Calls())

	s.dispatch(&events.Event{Name: events.PostUpdated, ObjectId: first.Id, DiscussionId: d.Id, ModuleName: "forum", InstanceId: forum.Id})
	s.Require().Equal([]string{push.EventContentUpdated}, s.sender.Events())
}

func (s *EventsTestSuite) TestDiscussionDeleted() {
	s.dispatch(&events.Event{Name: events.DiscussionDeleted, ObjectId: 3, FirstPostId: 7, CourseId: s.course.Id, ModuleName: "hsuforum", InstanceId: 1})

	// Module isn't installed
	s.Require().Empty(s.deleted())

	forum, _, _ := s.fixtures.Activity(s.courseContext, "hsuforum", "Forum", "", model.FormatHTML)
	s.dispatch(&events.Event{Name: events.DiscussionDeleted, ObjectId: 3, FirstPostId: 7, CourseId: s.course.Id, ModuleName: "hsuforum", InstanceId: forum.Id})
	s.dispatch(&events.Event{Name: events.PostDeleted, ObjectId: 8, CourseId: s.course.Id, ModuleName: "hsuforum", InstanceId: forum.Id})

	s.Require().Zero(s.sender.Calls())
	s.Require().Equal([]string{"hsuforum:hsuforum_posts:message:7", "hsuforum:hsuforum_posts:message:8"}, s.deleted())
}

func (s *EventsTestSuite) TestFileDeletedIsQueued() {
	f := &lms.File{ContextId: s.courseContext.Id, Component: "course", FileArea: "summary", PathNameHash: "abc", ContentHash: "def", MimeType: "image/png"}
	s.dispatch(&events.Event{Name: events.FileDeleted, File: f})

	userFile := &lms.File{ContextId: s.fixtures.UserContext(10).Id, Component: "user", FileArea: "private", PathNameHash: "xyz"}
	s.dispatch(&events.Event{Name: events.FileDeleted, File: userFile})

	s.Require().Equal(int64(1), s.stats().DeletedFiles)
	s.Require().Zero(s.sender.Calls())
}

func (s *EventsTestSuite) TestRenamedFileRewritesLinks() {
	f := s.fixtures.File(testutil.FileSpec{ContextId: s.courseContext.Id, Component: "course", FileArea: "summary", FileName: "new.png"})

	s.dispatch(&events.Event{Name: events.FileUpdated, ObjectId: f.Id, OldFileName: "old.png"})

	var summary string
	s.Require().NoError(s.db.Table(lms.TableCourse).Select("summary").Where("id = ?", s.course.Id).Scan(&summary).Error)
	s.Require().Contains(summary, "@@PLUGINFILE@@/new.png")
	s.Require().Equal([]string{f.PathNameHash}, s.sender.EntityIds())
}

func (s *EventsTestSuite) TestTransportFailureIsSwallowed() {
	s.sender.WithError(errors.New("unavailable"))

	s.dispatch(&events.Event{Name: events.CourseUpdated, ObjectId: s.course.Id})
	s.Require().Equal(int64(1), s.stats().ContentUpdates)
}

func (s *EventsTestSuite) TestInvalidEvents() {
	h := s.handlers()

	err := h.Dispatch(s.ctx, &events.Event{Name: "course_viewed", ObjectId: 1})
	s.Require().ErrorIs(err, events.ErrUnknownEvent)

	err = h.Dispatch(s.ctx, &events.Event{Name: events.SectionUpdated, ObjectId: 1})
	s.Require().ErrorIs(err, events.ErrMissingField)

	err = h.Dispatch(s.ctx, &events.Event{Name: events.FileDeleted})
	s.Require().ErrorIs(err, events.ErrMissingField)
}
