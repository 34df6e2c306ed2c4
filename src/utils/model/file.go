package model

// Files whose modification comes this soon after creation are reported as new
const FileCreatedSlack = 2

// FileItem is a file eligible for delivery, resolved to the course it belongs to
type FileItem struct {
	Id int64

	// Identity of the file, hash of its location
	PathNameHash string

	// Hash of the file content
	ContentHash string

	ContextId int64
	Component string
	FileArea  string
	ItemId    int64
	FilePath  string
	FileName  string
	MimeType  string
	FileSize  int64

	// Nil for files added by the system
	UserId *int64

	TimeCreated  int64
	TimeModified int64

	CourseId int64
}

func (self *FileItem) IsNew() bool {
	return self.TimeCreated+FileCreatedSlack >= self.TimeModified
}

// Area is the component~filearea pair
func (self *FileItem) Area() string {
	return FileArea(self.Component, self.FileArea)
}

func FileArea(component, filearea string) string {
	return component + "~" + filearea
}
