package model

const (
	TableDeletedContent = "ally_deleted_content"
	TableDeletedFile    = "ally_deleted_files"
	TableContentQueue   = "ally_content_queue"
)

// Tombstone of removed content, kept until it's delivered
type DeletedContent struct {
	Id int64 `gorm:"primaryKey;autoIncrement"`

	// Id of the removed row
	CompRowId int64
	CourseId  int64
	Component string
	CompTable string
	CompField string

	TimeDeleted int64
}

func (DeletedContent) TableName() string {
	return TableDeletedContent
}

// Tombstone of a removed file, kept until it's delivered
type DeletedFile struct {
	Id int64 `gorm:"primaryKey;autoIncrement"`

	CourseId     int64
	PathNameHash string
	ContentHash  string
	MimeType     string

	TimeDeleted int64
}

func (DeletedFile) TableName() string {
	return TableDeletedFile
}

// Content change waiting for delivery
type ContentQueueItem struct {
	Id int64 `gorm:"primaryKey;autoIncrement"`

	// Id of the changed row
	ComponentId int64
	Component   string
	CompTable   string
	CompField   string
	CourseId    int64

	EventTime int64
	EventName string

	// Content at the time of the change, used when the row disappears before delivery
	Content string
}

func (ContentQueueItem) TableName() string {
	return TableContentQueue
}

// Content rebuilds the queued change
func (self *ContentQueueItem) ComponentContent() *ComponentContent {
	return NewComponentContent(self.ComponentId, self.Component, self.CompTable, self.CompField, self.CourseId, self.EventTime, FormatHTML, self.Content, "")
}
