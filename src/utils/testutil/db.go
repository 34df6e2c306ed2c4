package testutil

import (
	"testing"

	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"

	"github.com/rs/xid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Activity modules created in the test database
var ActivityTables = []string{
	"assign", "book", "chat", "choice", "data", "feedback", "folder", "forum", "glossary",
	"hsuforum", "imscp", "kalvidres", "label", "lesson", "lightboxgallery", "page",
	"questionnaire", "quiz", "resource", "scorm", "turnitintooltwo", "url",
}

// NewDB opens a fresh in-memory database with the host and syncer tables
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + xid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, model.AutoMigrate(db))
	require.NoError(t, MigrateLms(db))
	return db
}

// MigrateLms creates the subset of the host schema read by the syncer
func MigrateLms(db *gorm.DB) (err error) {
	err = db.AutoMigrate(
		&lms.Course{},
		&lms.CourseSection{},
		&lms.Module{},
		&lms.CourseModule{},
		&lms.Context{},
		&lms.RoleAssignment{},
		&lms.File{},
		&lms.BookChapter{},
		&lms.LessonPage{},
		&lms.GlossaryEntry{},
		&lms.Question{},
		&lms.QuestionAnswer{},
	)
	if err != nil {
		return
	}

	for _, table := range ActivityTables {
		err = db.Table(table).AutoMigrate(&lms.Activity{})
		if err != nil {
			return
		}
	}

	err = db.Table("page").AutoMigrate(&Page{})
	if err != nil {
		return
	}

	for _, prefix := range []string{"forum", "hsuforum"} {
		err = db.Table(prefix + "_discussions").AutoMigrate(&lms.ForumDiscussion{})
		if err != nil {
			return
		}
		err = db.Table(prefix + "_posts").AutoMigrate(&lms.ForumPost{})
		if err != nil {
			return
		}
	}

	for _, table := range []string{"qtype_match_options", "qtype_multichoice_options", "qtype_randomsamatch_options", "qtype_ddimageortext", "qtype_ddmarker", "question_ddwtos", "question_gapselect"} {
		err = db.Table(table).AutoMigrate(&QTypeOptions{})
		if err != nil {
			return
		}
	}
	return db.Table("question_gapfill").AutoMigrate(&GapfillOptions{})
}

// Page keeps its body next to the intro
type Page struct {
	lms.Activity
	Content       string `gorm:"column:content;not null;default:''"`
	ContentFormat int    `gorm:"column:contentformat;not null;default:1"`
}

// Feedback columns shared by the question type option tables
type QTypeOptions struct {
	Id                             int64  `gorm:"column:id;primaryKey"`
	QuestionId                     int64  `gorm:"column:questionid"`
	CorrectFeedback                string `gorm:"column:correctfeedback"`
	CorrectFeedbackFormat          int    `gorm:"column:correctfeedbackformat"`
	PartiallyCorrectFeedback       string `gorm:"column:partiallycorrectfeedback"`
	PartiallyCorrectFeedbackFormat int    `gorm:"column:partiallycorrectfeedbackformat"`
	IncorrectFeedback              string `gorm:"column:incorrectfeedback"`
	IncorrectFeedbackFormat        int    `gorm:"column:incorrectfeedbackformat"`
}

type GapfillOptions struct {
	Id                             int64  `gorm:"column:id;primaryKey"`
	Question                       int64  `gorm:"column:question"`
	CorrectFeedback                string `gorm:"column:correctfeedback"`
	CorrectFeedbackFormat          int    `gorm:"column:correctfeedbackformat"`
	PartiallyCorrectFeedback       string `gorm:"column:partiallycorrectfeedback"`
	PartiallyCorrectFeedbackFormat int    `gorm:"column:partiallycorrectfeedbackformat"`
	IncorrectFeedback              string `gorm:"column:incorrectfeedback"`
	IncorrectFeedbackFormat        int    `gorm:"column:incorrectfeedbackformat"`
}
