package testutil

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	RoleManager        int64 = 1
	RoleEditingTeacher int64 = 3
	RoleTeacher        int64 = 4
	RoleStudent        int64 = 5

	AdminId int64 = 2
)

// Fixtures builds host LMS data
type Fixtures struct {
	t  testing.TB
	db *gorm.DB

	System *lms.Context
	Now    int64
}

func NewFixtures(t testing.TB, db *gorm.DB) (self *Fixtures) {
	self = &Fixtures{t: t, db: db, Now: time.Now().Unix()}
	self.System = &lms.Context{ContextLevel: lms.ContextSystem, InstanceId: 0, Depth: 1}
	self.create(self.System)
	self.setPath(self.System, "")
	return
}

func (self *Fixtures) create(v any) {
	self.t.Helper()
	require.NoError(self.t, self.db.Create(v).Error)
}

func (self *Fixtures) createIn(table string, v any) {
	self.t.Helper()
	require.NoError(self.t, self.db.Table(table).Create(v).Error)
}

func (self *Fixtures) setPath(c *lms.Context, parentPath string) {
	self.t.Helper()
	c.Path = fmt.Sprintf("%s/%d", parentPath, c.Id)
	require.NoError(self.t, self.db.Model(c).Update("path", c.Path).Error)
}

func (self *Fixtures) context(level lms.ContextLevel, instanceId int64, parent *lms.Context) *lms.Context {
	c := &lms.Context{ContextLevel: level, InstanceId: instanceId, Depth: parent.Depth + 1}
	self.create(c)
	self.setPath(c, parent.Path)
	return c
}

func (self *Fixtures) Course(fullName, summary string, format model.ContentFormat) (*lms.Course, *lms.Context) {
	c := &lms.Course{
		Category:      1,
		FullName:      fullName,
		ShortName:     fullName,
		Summary:       summary,
		SummaryFormat: int(format),
		TimeCreated:   self.Now,
		TimeModified:  self.Now,
	}
	self.create(c)
	return c, self.context(lms.ContextCourse, c.Id, self.System)
}

func (self *Fixtures) Section(courseId, number int64, name, summary string, format model.ContentFormat) *lms.CourseSection {
	s := &lms.CourseSection{
		Course:        courseId,
		Section:       number,
		Name:          name,
		Summary:       summary,
		SummaryFormat: int(format),
		Visible:       1,
		TimeModified:  self.Now,
	}
	self.create(s)
	return s
}

func (self *Fixtures) moduleType(name string) *lms.Module {
	m := &lms.Module{}
	err := self.db.Where("name = ?", name).First(m).Error
	if err == nil {
		return m
	}
	m = &lms.Module{Name: name, Visible: 1}
	self.create(m)
	return m
}

// Activity creates a module instance, its placement in the course and its context
func (self *Fixtures) Activity(courseContext *lms.Context, moduleName, name, intro string, format model.ContentFormat) (*lms.Activity, *lms.CourseModule, *lms.Context) {
	a := &lms.Activity{
		Course:       courseContext.InstanceId,
		Name:         name,
		Intro:        intro,
		IntroFormat:  int(format),
		TimeModified: self.Now,
	}
	self.createIn(moduleName, a)

	cm := &lms.CourseModule{
		Course:   courseContext.InstanceId,
		Module:   self.moduleType(moduleName).Id,
		Instance: a.Id,
		Visible:  1,
		Added:    self.Now,
	}
	self.create(cm)

	return a, cm, self.context(lms.ContextModule, cm.Id, courseContext)
}

// Block creates a block context under the course
func (self *Fixtures) Block(courseContext *lms.Context, instanceId int64) *lms.Context {
	return self.context(lms.ContextBlock, instanceId, courseContext)
}

func (self *Fixtures) UserContext(userId int64) *lms.Context {
	return self.context(lms.ContextUser, userId, self.System)
}

func (self *Fixtures) Assign(userId, roleId, contextId int64) {
	self.create(&lms.RoleAssignment{RoleId: roleId, ContextId: contextId, UserId: userId})
}

func (self *Fixtures) Chapter(bookId int64, title, content string, format model.ContentFormat) *lms.BookChapter {
	c := &lms.BookChapter{BookId: bookId, Title: title, Content: content, ContentFormat: int(format), TimeModified: self.Now}
	self.create(c)
	return c
}

func (self *Fixtures) LessonPage(lessonId int64, title, contents string, format model.ContentFormat) *lms.LessonPage {
	p := &lms.LessonPage{LessonId: lessonId, Title: title, Contents: contents, ContentsFormat: int(format), TimeModified: self.Now}
	self.create(p)
	return p
}

// Discussion creates a discussion with its first post
func (self *Fixtures) Discussion(moduleName string, forum *lms.Activity, userId int64, subject, message string) (*lms.ForumDiscussion, *lms.ForumPost) {
	d := &lms.ForumDiscussion{Course: forum.Course, Forum: forum.Id, Name: subject, UserId: userId, TimeModified: self.Now}
	self.createIn(moduleName+"_discussions", d)

	p := self.Post(moduleName, d, 0, userId, message)

	d.FirstPost = p.Id
	require.NoError(self.t, self.db.Table(moduleName+"_discussions").Where("id = ?", d.Id).Update("firstpost", p.Id).Error)
	return d, p
}

func (self *Fixtures) Post(moduleName string, d *lms.ForumDiscussion, parent, userId int64, message string) *lms.ForumPost {
	p := &lms.ForumPost{
		Discussion:    d.Id,
		Parent:        parent,
		UserId:        userId,
		Subject:       d.Name,
		Message:       message,
		MessageFormat: int(model.FormatHTML),
		Created:       self.Now,
		Modified:      self.Now,
	}
	self.createIn(moduleName+"_posts", p)
	return p
}

func (self *Fixtures) GlossaryEntry(glossaryId, userId int64, concept, definition string) *lms.GlossaryEntry {
	e := &lms.GlossaryEntry{GlossaryId: glossaryId, UserId: userId, Concept: concept, Definition: definition, DefinitionFormat: int(model.FormatHTML), TimeModified: self.Now}
	self.create(e)
	return e
}

func (self *Fixtures) Question(qtype, text string) *lms.Question {
	q := &lms.Question{
		QType:                 qtype,
		Name:                  qtype,
		QuestionText:          text,
		QuestionTextFormat:    int(model.FormatHTML),
		GeneralFeedbackFormat: int(model.FormatHTML),
		TimeModified:          self.Now,
	}
	self.create(q)
	return q
}

func (self *Fixtures) Answer(questionId int64, answer, feedback string) *lms.QuestionAnswer {
	a := &lms.QuestionAnswer{Question: questionId, Answer: answer, AnswerFormat: int(model.FormatHTML), Feedback: feedback, FeedbackFormat: int(model.FormatHTML)}
	self.create(a)
	return a
}

func (self *Fixtures) QTypeOptions(table string, questionId int64, correct string) *QTypeOptions {
	o := &QTypeOptions{QuestionId: questionId, CorrectFeedback: correct, CorrectFeedbackFormat: int(model.FormatHTML)}
	self.createIn(table, o)
	return o
}

// FileSpec describes a stored file, zero timestamps default to Now
type FileSpec struct {
	ContextId    int64
	Component    string
	FileArea     string
	ItemId       int64
	FileName     string
	UserId       *int64
	MimeType     string
	TimeCreated  int64
	TimeModified int64
}

func PathNameHash(contextId int64, component, filearea string, itemId int64, filepath, filename string) string {
	/* #nosec */
	sum := sha1.Sum([]byte(fmt.Sprintf("/%d/%s/%s/%d%s%s", contextId, component, filearea, itemId, filepath, filename)))
	return hex.EncodeToString(sum[:])
}

func (self *Fixtures) File(spec FileSpec) *lms.File {
	if spec.TimeCreated == 0 {
		spec.TimeCreated = self.Now
	}
	if spec.TimeModified == 0 {
		spec.TimeModified = spec.TimeCreated
	}
	if spec.MimeType == "" {
		spec.MimeType = "text/plain"
	}
	/* #nosec */
	content := sha1.Sum([]byte(spec.FileName))
	f := &lms.File{
		ContentHash:  hex.EncodeToString(content[:]),
		PathNameHash: PathNameHash(spec.ContextId, spec.Component, spec.FileArea, spec.ItemId, "/", spec.FileName),
		ContextId:    spec.ContextId,
		Component:    spec.Component,
		FileArea:     spec.FileArea,
		ItemId:       spec.ItemId,
		FilePath:     "/",
		FileName:     spec.FileName,
		UserId:       spec.UserId,
		FileSize:     10,
		MimeType:     spec.MimeType,
		TimeCreated:  spec.TimeCreated,
		TimeModified: spec.TimeModified,
	}
	self.create(f)
	return f
}

func UserId(id int64) *int64 {
	return &id
}
