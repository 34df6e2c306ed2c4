package response

import (
	"github.com/lms-ally/syncer/src/push"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"
)

type File struct {
	// Path name hash
	Id           string `json:"id"`
	CourseId     int64  `json:"courseid"`
	Name         string `json:"name"`
	MimeType     string `json:"mimetype"`
	ContentHash  string `json:"contenthash"`
	TimeModified string `json:"timemodified"`
}

func NewFile(f *model.FileItem) *File {
	return &File{
		Id:           f.PathNameHash,
		CourseId:     f.CourseId,
		Name:         f.FileName,
		MimeType:     f.MimeType,
		ContentHash:  f.ContentHash,
		TimeModified: push.ISO8601(f.TimeModified),
	}
}

func NewFiles(items []*model.FileItem) []*File {
	out := make([]*File, 0, len(items))
	for _, item := range items {
		out = append(out, NewFile(item))
	}
	return out
}

type FileDetails struct {
	File

	UserId      *int64 `json:"userid"`
	Url         string `json:"url"`
	DownloadUrl string `json:"downloadurl"`

	// Page the file is shown on
	Location string `json:"location"`
}

func NewFileDetails(f *lms.File, courseId int64, urls *lms.Urls, location string) *FileDetails {
	item := &model.FileItem{
		PathNameHash: f.PathNameHash,
		CourseId:     courseId,
		FileName:     f.FileName,
		MimeType:     f.MimeType,
		ContentHash:  f.ContentHash,
		TimeModified: f.TimeModified,
	}
	return &FileDetails{
		File:        *NewFile(item),
		UserId:      f.UserId,
		Url:         urls.Pluginfile(f),
		DownloadUrl: urls.WebservicePluginfile(f),
		Location:    location,
	}
}

type FileUpdateMetadata struct {
	Hostname    string `json:"hostname"`
	EventName   string `json:"eventname"`
	EventTime   string `json:"eventtime"`
	ContextType string `json:"contexttype"`
	ContextId   int64  `json:"contextid"`
}

type FileUpdateBody struct {
	Id          string `json:"id"`
	MimeType    string `json:"mimetype"`
	ContentHash string `json:"contenthash"`
}

type FileUpdate struct {
	Metadata FileUpdateMetadata `json:"metadata"`
	Body     FileUpdateBody     `json:"body"`
}

// Files untouched since their creation are reported as created
func NewFileUpdates(hostname string, items []*model.FileItem) []*FileUpdate {
	out := make([]*FileUpdate, 0, len(items))
	for _, f := range items {
		eventName := "updated"
		if f.TimeCreated == f.TimeModified {
			eventName = "created"
		}
		out = append(out, &FileUpdate{
			Metadata: FileUpdateMetadata{
				Hostname:    hostname,
				EventName:   eventName,
				EventTime:   push.ISO8601(f.TimeModified),
				ContextType: "course",
				ContextId:   f.CourseId,
			},
			Body: FileUpdateBody{
				Id:          f.PathNameHash,
				MimeType:    f.MimeType,
				ContentHash: f.ContentHash,
			},
		})
	}
	return out
}

type Content struct {
	Id           int64  `json:"id"`
	Content      string `json:"content"`
	Title        string `json:"title"`
	ContentUrl   string `json:"contenturl"`
	ContentHash  string `json:"contenthash"`
	Component    string `json:"component"`
	Table        string `json:"table"`
	Field        string `json:"field"`
	CourseId     int64  `json:"courseid"`
	TimeModified string `json:"timemodified"`
}

func NewContent(c *model.ComponentContent) *Content {
	return &Content{
		Id:           c.Id,
		Content:      c.Content,
		Title:        c.Title,
		ContentUrl:   c.Url,
		ContentHash:  c.ContentHash,
		Component:    c.Component,
		Table:        c.Table,
		Field:        c.Field,
		CourseId:     c.CourseId,
		TimeModified: push.ISO8601(c.TimeModified),
	}
}

// Error describes why the request failed. Identity fields are set for content lookups.
type Error struct {
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
	Component string `json:"component,omitempty"`
	Table     string `json:"table,omitempty"`
	Field     string `json:"field,omitempty"`
	Id        int64  `json:"id,omitempty"`
}
