package webservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

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
	"github.com/lms-ally/syncer/src/webservice/response"

	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const (
	secret    = "secret"
	teacherId = int64(10)
	studentId = int64(11)
	managerId = int64(12)
)

type WebServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	config   *config.Config
	fixtures *testutil.Fixtures
	sender   *pushtest.Sender

	course        *lms.Course
	courseContext *lms.Context
	otherCourse   *lms.Course
}

func TestWebServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WebServiceTestSuite))
}

func (s *WebServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewDB(s.T())
	s.fixtures = testutil.NewFixtures(s.T(), s.db)
	s.course, s.courseContext = s.fixtures.Course("Course", "<p>Summary</p>", model.FormatHTML)

	var otherContext *lms.Context
	s.otherCourse, otherContext = s.fixtures.Course("Other", "<p>Other</p>", model.FormatHTML)

	s.config = config.Default()
	s.config.Lms.WwwRoot = "https://lms.example.com"
	s.config.WebService.TokenSecret = secret
	s.config.Access.AdminIds = []int64{testutil.AdminId}
	s.config.Access.RoleIds = []int64{testutil.RoleEditingTeacher}
	s.config.Access.ViewerRoleIds = []int64{testutil.RoleManager, testutil.RoleEditingTeacher}
	s.config.Push.Url = "http://localhost"
	s.config.Push.Key = "key"
	s.config.Push.Secret = "secret"

	s.sender = pushtest.NewSender()

	s.fixtures.Assign(teacherId, testutil.RoleEditingTeacher, s.courseContext.Id)
	s.fixtures.Assign(teacherId, testutil.RoleStudent, otherContext.Id)
	s.fixtures.Assign(studentId, testutil.RoleStudent, s.courseContext.Id)
	s.fixtures.Assign(managerId, testutil.RoleManager, s.fixtures.System.Id)
}

// Server is created after the fixtures
func (s *WebServiceTestSuite) server() *Server {
	contexts := lms.NewContexts(s.db)
	modules := lms.NewModules(s.db)
	roles := access.NewRoleAssignments(s.db, contexts, s.config.Access.RoleIds)
	authors := access.NewAuthors(s.config.Access.AdminIds, roles)
	urls := lms.NewUrls(s.config.Lms.WwwRoot)
	registry := component.NewRegistry(&component.Deps{
		DB:       s.db,
		Contexts: contexts,
		Modules:  modules,
		Authors:  authors,
		Hooks:    new(testutil.RecordingHooks),
		Urls:     urls,
	})
	validator := files.NewValidator(s.db, contexts, authors)

	store := settings.NewStore(s.db)
	q := queue.NewQueue(s.db)
	pusher := push.NewPusher(&s.config.Push, store).WithSender(s.sender)
	handlers := events.NewHandlers(s.config, s.db, registry).
		WithLms(contexts, modules).
		WithValidator(validator).
		WithProcessor(push.NewProcessor(&s.config.Push, pusher, q, store)).
		WithQueue(q)

	return NewServer(s.config).WithDeps(&Deps{
		DB:        s.db,
		Registry:  registry,
		Contexts:  contexts,
		Modules:   modules,
		Urls:      urls,
		Authors:   authors,
		Validator: validator,
		Events:    handlers,
	})
}

func token(userId int64, key string) string {
	t := jwt.New()
	_ = t.Set(jwt.SubjectKey, strconv.FormatInt(userId, 10))
	_ = t.Set(jwt.IssuedAtKey, time.Now())
	_ = t.Set(jwt.ExpirationKey, time.Now().Add(time.Minute))
	signed, err := jwt.Sign(t, jwa.HS256, []byte(key))
	if err != nil {
		panic(err)
	}
	return string(signed)
}

func (s *WebServiceTestSuite) do(method, path string, userId int64, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if userId != 0 {
		req.Header.Set("Authorization", "Bearer "+token(userId, secret))
	}

	w := httptest.NewRecorder()
	s.server().Router.ServeHTTP(w, req)
	return w
}

func (s *WebServiceTestSuite) get(path string, userId int64, out any) int {
	w := s.do(http.MethodGet, path, userId, nil)
	if out != nil {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func (s *WebServiceTestSuite) courseFile(name string, timeModified int64) *lms.File {
	return s.fixtures.File(testutil.FileSpec{
		ContextId:    s.courseContext.Id,
		Component:    "course",
		FileArea:     "summary",
		FileName:     name,
		TimeCreated:  1000,
		TimeModified: timeModified,
	})
}

func (s *WebServiceTestSuite) TestAuthentication() {
	s.config.WebService.TokenSecret = ""
	s.Require().Equal(http.StatusServiceUnavailable, s.get("/v1/files", testutil.AdminId, nil))

	s.config.WebService.TokenSecret = secret
	s.Require().Equal(http.StatusUnauthorized, s.get("/v1/files", 0, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/files", nil)
	req.Header.Set("Authorization", "Bearer "+token(testutil.AdminId, "other"))
	w := httptest.NewRecorder()
	s.server().Router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusUnauthorized, w.Code)

	var body response.Error
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Require().Equal("invalidtoken", body.ErrorCode)
}

func (s *WebServiceTestSuite) TestGetFilesNeedsSystemViewer() {
	f := s.courseFile("a.pdf", 1000)

	s.Require().Equal(http.StatusForbidden, s.get("/v1/files", studentId, nil))
	s.Require().Equal(http.StatusForbidden, s.get("/v1/files", teacherId, nil))

	var out []*response.File
	s.Require().Equal(http.StatusOK, s.get("/v1/files", managerId, &out))
	s.Require().Len(out, 1)
	s.Require().Equal(f.PathNameHash, out[0].Id)
	s.Require().Equal(s.course.Id, out[0].CourseId)

	s.Require().Equal(http.StatusOK, s.get("/v1/files", testutil.AdminId, &out))
	s.Require().Len(out, 1)
}

func (s *WebServiceTestSuite) TestGetCourseFiles() {
	f := s.courseFile("a.pdf", 1000)

	var out []*response.File
	path := fmt.Sprintf("/v1/courses/files?ids=%d", s.course.Id)
	s.Require().Equal(http.StatusOK, s.get(path, teacherId, &out))
	s.Require().Len(out, 1)
	s.Require().Equal(f.PathNameHash, out[0].Id)

	// Student role doesn't grant access to the other course
	path = fmt.Sprintf("/v1/courses/files?ids=%d&ids=%d", s.course.Id, s.otherCourse.Id)
	s.Require().Equal(http.StatusForbidden, s.get(path, teacherId, nil))

	s.Require().Equal(http.StatusBadRequest, s.get("/v1/courses/files", teacherId, nil))
	s.Require().Equal(http.StatusBadRequest, s.get("/v1/courses/files?ids=-1", teacherId, nil))
	s.Require().Equal(http.StatusNotFound, s.get("/v1/courses/files?ids=9999", teacherId, nil))
}

func (s *WebServiceTestSuite) TestGetFile() {
	f := s.courseFile("a.pdf", 1000)

	var out response.FileDetails
	s.Require().Equal(http.StatusOK, s.get("/v1/files/"+f.PathNameHash, teacherId, &out))
	s.Require().Equal(f.PathNameHash, out.Id)
	s.Require().Equal("a.pdf", out.Name)
	s.Require().Equal(fmt.Sprintf("https://lms.example.com/course/view.php?id=%d", s.course.Id), out.Location)
	s.Require().Equal(fmt.Sprintf("https://lms.example.com/pluginfile.php/%d/course/summary/a.pdf", s.courseContext.Id), out.Url)

	s.Require().Equal(http.StatusForbidden, s.get("/v1/files/"+f.PathNameHash, studentId, nil))
	s.Require().Equal(http.StatusNotFound, s.get("/v1/files/abc123", teacherId, nil))
	s.Require().Equal(http.StatusBadRequest, s.get("/v1/files/abc-123", teacherId, nil))
}

func (s *WebServiceTestSuite) TestGetModuleFileLocation() {
	_, cm, pageContext := s.fixtures.Activity(s.courseContext, "page", "Page", "<p>Page</p>", model.FormatHTML)
	f := s.fixtures.File(testutil.FileSpec{ContextId: pageContext.Id, Component: "mod_page", FileArea: "content", FileName: "b.png"})

	var out response.FileDetails
	s.Require().Equal(http.StatusOK, s.get("/v1/files/"+f.PathNameHash, testutil.AdminId, &out))
	s.Require().Equal(fmt.Sprintf("https://lms.example.com/mod/page/view.php?id=%d", cm.Id), out.Location)
}

func (s *WebServiceTestSuite) TestGetFileUpdates() {
	s.courseFile("old.pdf", 1000)
	created := s.courseFile("created.pdf", 0)
	updated := s.courseFile("updated.pdf", 2000)

	// Created file has both timestamps at 1000
	var out []*response.FileUpdate
	path := "/v1/file-updates?since=" + url.QueryEscape(push.ISO8601(999))
	s.Require().Equal(http.StatusOK, s.get(path, managerId, &out))
	s.Require().Len(out, 3)

	path = "/v1/file-updates?since=" + url.QueryEscape(push.ISO8601(1000))
	s.Require().Equal(http.StatusOK, s.get(path, managerId, &out))
	s.Require().Len(out, 1)
	s.Require().Equal(updated.PathNameHash, out[0].Body.Id)
	s.Require().Equal("updated", out[0].Metadata.EventName)
	s.Require().Equal("https://lms.example.com", out[0].Metadata.Hostname)
	s.Require().Equal("course", out[0].Metadata.ContextType)
	s.Require().Equal(s.course.Id, out[0].Metadata.ContextId)

	path = "/v1/file-updates?since=" + url.QueryEscape(push.ISO8601(999))
	s.Require().Equal(http.StatusOK, s.get(path, managerId, &out))
	for _, item := range out {
		if item.Body.Id == created.PathNameHash {
			s.Require().Equal("created", item.Metadata.EventName)
		}
	}

	s.Require().Equal(http.StatusBadRequest, s.get("/v1/file-updates?since=yesterday", managerId, nil))
	s.Require().Equal(http.StatusForbidden, s.get(path, teacherId, nil))
}

func (s *WebServiceTestSuite) TestGetContent() {
	var out response.Content
	path := fmt.Sprintf("/v1/content?id=%d&component=course&table=course&field=summary&courseid=%d", s.course.Id, s.course.Id)
	s.Require().Equal(http.StatusOK, s.get(path, teacherId, &out))
	s.Require().Equal("<p>Summary</p>", out.Content)
	s.Require().Equal("Course", out.Title)
	s.Require().Equal(s.course.Id, out.CourseId)

	s.Require().Equal(http.StatusForbidden, s.get(path, studentId, nil))
}

func (s *WebServiceTestSuite) TestGetContentOfAnotherCourse() {
	// Teacher in s.course, student in s.otherCourse
	var body response.Error
	path := fmt.Sprintf("/v1/content?id=%d&component=course&table=course&field=summary&courseid=%d", s.otherCourse.Id, s.course.Id)
	s.Require().Equal(http.StatusNotFound, s.get(path, teacherId, &body))
	s.Require().Equal("invalidcomponentident", body.ErrorCode)
	s.Require().NotContains(body.Message, "Other")

	path = fmt.Sprintf("/v1/content?id=%d&component=course&table=course&field=summary&courseid=%d", s.otherCourse.Id, s.otherCourse.Id)
	s.Require().Equal(http.StatusForbidden, s.get(path, teacherId, nil))

	section := s.fixtures.Section(s.otherCourse.Id, 1, "Section", "<p>Section</p>", model.FormatHTML)
	path = fmt.Sprintf("/v1/content?id=%d&component=course&table=course_sections&field=summary&courseid=%d", section.Id, s.course.Id)
	s.Require().Equal(http.StatusNotFound, s.get(path, teacherId, nil))

	// Managers see everything, but only under the owning course
	var out response.Content
	path = fmt.Sprintf("/v1/content?id=%d&component=course&table=course_sections&field=summary&courseid=%d", section.Id, s.otherCourse.Id)
	s.Require().Equal(http.StatusOK, s.get(path, managerId, &out))
	s.Require().Equal("<p>Section</p>", out.Content)
	s.Require().Equal(s.otherCourse.Id, out.CourseId)
}

func (s *WebServiceTestSuite) TestGetContentErrors() {
	var body response.Error
	path := fmt.Sprintf("/v1/content?id=9999&component=course&table=course_sections&field=summary&courseid=%d", s.course.Id)
	s.Require().Equal(http.StatusNotFound, s.get(path, teacherId, &body))
	s.Require().Equal("invalidcomponentident", body.ErrorCode)
	s.Require().Equal("course", body.Component)
	s.Require().Equal("course_sections", body.Table)
	s.Require().Equal("summary", body.Field)
	s.Require().Equal(int64(9999), body.Id)

	body = response.Error{}
	path = fmt.Sprintf("/v1/content?id=%d&component=course&table=course&field=fullname&courseid=%d", s.course.Id, s.course.Id)
	s.Require().Equal(http.StatusBadRequest, s.get(path, teacherId, &body))
	s.Require().Equal("invalidfield", body.ErrorCode)

	body = response.Error{}
	path = fmt.Sprintf("/v1/content?id=%d&component=course&table=user&field=summary&courseid=%d", s.course.Id, s.course.Id)
	s.Require().Equal(http.StatusBadRequest, s.get(path, teacherId, &body))
	s.Require().Equal("invalidtable", body.ErrorCode)

	body = response.Error{}
	path = fmt.Sprintf("/v1/content?id=1&component=mod_nothing&table=nothing&field=intro&courseid=%d", s.course.Id)
	s.Require().Equal(http.StatusBadRequest, s.get(path, teacherId, &body))
	s.Require().Equal("invalidcomponent", body.ErrorCode)

	path = fmt.Sprintf("/v1/content?id=1&component=course%%27&table=course&field=summary&courseid=%d", s.course.Id)
	s.Require().Equal(http.StatusBadRequest, s.get(path, teacherId, nil))
}

func (s *WebServiceTestSuite) TestPostEvent() {
	event := &events.Event{Name: events.CourseUpdated, ObjectId: s.course.Id}

	w := s.do(http.MethodPost, "/v1/events", teacherId, event)
	s.Require().Equal(http.StatusForbidden, w.Code)
	s.Require().Zero(s.sender.Calls())

	w = s.do(http.MethodPost, "/v1/events", testutil.AdminId, event)
	s.Require().Equal(http.StatusAccepted, w.Code)
	s.Require().Equal([]string{fmt.Sprintf("course:course:summary:%d", s.course.Id)}, s.sender.EntityIds())

	w = s.do(http.MethodPost, "/v1/events", testutil.AdminId, &events.Event{Name: "user_created", ObjectId: 1})
	s.Require().Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/v1/events", testutil.AdminId, &events.Event{Name: events.SectionDeleted, ObjectId: 1})
	s.Require().Equal(http.StatusBadRequest, w.Code)
}
