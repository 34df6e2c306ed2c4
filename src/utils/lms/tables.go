package lms

// Rows of the host LMS tables read and updated by the syncer.
// Column names follow the host schema, which doesn't separate words.

const (
	TableCourse          = "course"
	TableCourseSections  = "course_sections"
	TableModules         = "modules"
	TableCourseModules   = "course_modules"
	TableContext         = "context"
	TableRoleAssignments = "role_assignments"
	TableFiles           = "files"
	TableBookChapters    = "book_chapters"
	TableLessonPages     = "lesson_pages"
	TableGlossaryEntries = "glossary_entries"
	TableQuestion        = "question"
	TableQuestionAnswers = "question_answers"
)

type Course struct {
	Id            int64  `gorm:"column:id;primaryKey"`
	Category      int64  `gorm:"column:category"`
	FullName      string `gorm:"column:fullname"`
	ShortName     string `gorm:"column:shortname"`
	Summary       string `gorm:"column:summary"`
	SummaryFormat int    `gorm:"column:summaryformat"`
	TimeCreated   int64  `gorm:"column:timecreated"`
	TimeModified  int64  `gorm:"column:timemodified"`
}

func (Course) TableName() string {
	return TableCourse
}

type CourseSection struct {
	Id            int64  `gorm:"column:id;primaryKey"`
	Course        int64  `gorm:"column:course"`
	Section       int64  `gorm:"column:section"`
	Name          string `gorm:"column:name"`
	Summary       string `gorm:"column:summary"`
	SummaryFormat int    `gorm:"column:summaryformat"`
	Sequence      string `gorm:"column:sequence"`
	Visible       int    `gorm:"column:visible"`
	TimeModified  int64  `gorm:"column:timemodified"`
}

func (CourseSection) TableName() string {
	return TableCourseSections
}

// Installed activity module types
type Module struct {
	Id      int64  `gorm:"column:id;primaryKey"`
	Name    string `gorm:"column:name"`
	Visible int    `gorm:"column:visible"`
}

func (Module) TableName() string {
	return TableModules
}

// Placement of an activity instance in a course
type CourseModule struct {
	Id       int64 `gorm:"column:id;primaryKey"`
	Course   int64 `gorm:"column:course"`
	Module   int64 `gorm:"column:module"`
	Instance int64 `gorm:"column:instance"`
	Section  int64 `gorm:"column:section"`
	Visible  int   `gorm:"column:visible"`
	Added    int64 `gorm:"column:added"`
}

func (CourseModule) TableName() string {
	return TableCourseModules
}

type ContextLevel int

const (
	ContextSystem    ContextLevel = 10
	ContextUser      ContextLevel = 30
	ContextCoursecat ContextLevel = 40
	ContextCourse    ContextLevel = 50
	ContextModule    ContextLevel = 70
	ContextBlock     ContextLevel = 80
)

type Context struct {
	Id           int64        `gorm:"column:id;primaryKey"`
	ContextLevel ContextLevel `gorm:"column:contextlevel"`
	InstanceId   int64        `gorm:"column:instanceid"`

	// Ids of all the ancestors and the context itself, e.g. /1/3/17
	Path  string `gorm:"column:path"`
	Depth int    `gorm:"column:depth"`
}

func (Context) TableName() string {
	return TableContext
}

type RoleAssignment struct {
	Id        int64 `gorm:"column:id;primaryKey"`
	RoleId    int64 `gorm:"column:roleid"`
	ContextId int64 `gorm:"column:contextid"`
	UserId    int64 `gorm:"column:userid"`
}

func (RoleAssignment) TableName() string {
	return TableRoleAssignments
}

// Metadata of a stored file
type File struct {
	Id           int64  `gorm:"column:id;primaryKey" json:"id"`
	ContentHash  string `gorm:"column:contenthash" json:"contenthash"`
	PathNameHash string `gorm:"column:pathnamehash" json:"pathnamehash"`
	ContextId    int64  `gorm:"column:contextid" json:"contextid"`
	Component    string `gorm:"column:component" json:"component"`
	FileArea     string `gorm:"column:filearea" json:"filearea"`
	ItemId       int64  `gorm:"column:itemid" json:"itemid"`
	FilePath     string `gorm:"column:filepath" json:"filepath"`
	FileName     string `gorm:"column:filename" json:"filename"`
	UserId       *int64 `gorm:"column:userid" json:"userid"`
	FileSize     int64  `gorm:"column:filesize" json:"filesize"`
	MimeType     string `gorm:"column:mimetype" json:"mimetype"`
	TimeCreated  int64  `gorm:"column:timecreated" json:"timecreated"`
	TimeModified int64  `gorm:"column:timemodified" json:"timemodified"`
}

func (File) TableName() string {
	return TableFiles
}

// Common columns of every activity module table (book, page, label, forum...)
type Activity struct {
	Id           int64  `gorm:"column:id;primaryKey"`
	Course       int64  `gorm:"column:course"`
	Name         string `gorm:"column:name"`
	Intro        string `gorm:"column:intro"`
	IntroFormat  int    `gorm:"column:introformat"`
	TimeModified int64  `gorm:"column:timemodified"`
}

type BookChapter struct {
	Id            int64  `gorm:"column:id;primaryKey"`
	BookId        int64  `gorm:"column:bookid"`
	Title         string `gorm:"column:title"`
	Content       string `gorm:"column:content"`
	ContentFormat int    `gorm:"column:contentformat"`
	TimeModified  int64  `gorm:"column:timemodified"`
}

func (BookChapter) TableName() string {
	return TableBookChapters
}

type LessonPage struct {
	Id             int64  `gorm:"column:id;primaryKey"`
	LessonId       int64  `gorm:"column:lessonid"`
	Title          string `gorm:"column:title"`
	Contents       string `gorm:"column:contents"`
	ContentsFormat int    `gorm:"column:contentsformat"`
	TimeModified   int64  `gorm:"column:timemodified"`
}

func (LessonPage) TableName() string {
	return TableLessonPages
}

// Forum tables are shared by forum and hsuforum, use db.Table() to pick one
type ForumDiscussion struct {
	Id           int64  `gorm:"column:id;primaryKey"`
	Course       int64  `gorm:"column:course"`
	Forum        int64  `gorm:"column:forum"`
	Name         string `gorm:"column:name"`
	FirstPost    int64  `gorm:"column:firstpost"`
	UserId       int64  `gorm:"column:userid"`
	TimeModified int64  `gorm:"column:timemodified"`
}

type ForumPost struct {
	Id            int64  `gorm:"column:id;primaryKey"`
	Discussion    int64  `gorm:"column:discussion"`
	Parent        int64  `gorm:"column:parent"`
	UserId        int64  `gorm:"column:userid"`
	Subject       string `gorm:"column:subject"`
	Message       string `gorm:"column:message"`
	MessageFormat int    `gorm:"column:messageformat"`
	Created       int64  `gorm:"column:created"`
	Modified      int64  `gorm:"column:modified"`
}

type GlossaryEntry struct {
	Id               int64  `gorm:"column:id;primaryKey"`
	GlossaryId       int64  `gorm:"column:glossaryid"`
	UserId           int64  `gorm:"column:userid"`
	Concept          string `gorm:"column:concept"`
	Definition       string `gorm:"column:definition"`
	DefinitionFormat int    `gorm:"column:definitionformat"`
	TimeModified     int64  `gorm:"column:timemodified"`
}

func (GlossaryEntry) TableName() string {
	return TableGlossaryEntries
}

type Question struct {
	Id                    int64  `gorm:"column:id;primaryKey"`
	Category              int64  `gorm:"column:category"`
	QType                 string `gorm:"column:qtype"`
	Name                  string `gorm:"column:name"`
	QuestionText          string `gorm:"column:questiontext"`
	QuestionTextFormat    int    `gorm:"column:questiontextformat"`
	GeneralFeedback       string `gorm:"column:generalfeedback"`
	GeneralFeedbackFormat int    `gorm:"column:generalfeedbackformat"`
	TimeModified          int64  `gorm:"column:timemodified"`
}

func (Question) TableName() string {
	return TableQuestion
}

type QuestionAnswer struct {
	Id             int64  `gorm:"column:id;primaryKey"`
	Question       int64  `gorm:"column:question"`
	Answer         string `gorm:"column:answer"`
	AnswerFormat   int    `gorm:"column:answerformat"`
	Feedback       string `gorm:"column:feedback"`
	FeedbackFormat int    `gorm:"column:feedbackformat"`
}

func (QuestionAnswer) TableName() string {
	return TableQuestionAnswers
}
