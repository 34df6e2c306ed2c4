package push

import (
	"strconv"
	"time"

	"github.com/lms-ally/syncer/src/utils/model"
)

const (
	EventContentCreated = "rich_content_created"
	EventContentUpdated = "rich_content_updated"
	EventContentDeleted = "rich_content_deleted"

	EventFileCreated = "file_created"
	EventFileUpdated = "file_updated"
	EventFileDeleted = "file_deleted"
)

// Payload is one change in a pushed batch
type Payload interface {
	GetEntityId() string
}

type ContentPayload struct {
	EntityId string `json:"entity_id"`

	// Course id
	ContextId   string `json:"context_id"`
	EventName   string `json:"event_name"`
	EventTime   string `json:"event_time"`
	ContentHash string `json:"content_hash"`
}

func (self *ContentPayload) GetEntityId() string {
	return self.EntityId
}

type FilePayload struct {
	// Path name hash
	EntityId string `json:"entity_id"`

	// Course id
	ContextId   int64  `json:"context_id"`
	EventName   string `json:"event_name"`
	EventTime   string `json:"event_time"`
	MimeType    string `json:"mime_type"`
	ContentHash string `json:"content_hash"`
}

func (self *FilePayload) GetEntityId() string {
	return self.EntityId
}

// ISO8601 formats the unix timestamp in UTC
func ISO8601(timestamp int64) string {
	return time.Unix(timestamp, 0).UTC().Format(time.RFC3339)
}

// ParseISO8601 accepts both the UTC and the offset form
func ParseISO8601(v string) (int64, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

func NewContentPayload(c *model.ComponentContent, eventName string) *ContentPayload {
	return &ContentPayload{
		EntityId:    c.EntityId(),
		ContextId:   strconv.FormatInt(c.CourseId, 10),
		EventName:   eventName,
		EventTime:   ISO8601(c.TimeModified),
		ContentHash: c.ContentHash,
	}
}

func NewFilePayload(f *model.FileItem) *FilePayload {
	eventName := EventFileUpdated
	if f.IsNew() {
		eventName = EventFileCreated
	}
	return &FilePayload{
		EntityId:    f.PathNameHash,
		ContextId:   f.CourseId,
		EventName:   eventName,
		EventTime:   ISO8601(f.TimeModified),
		MimeType:    f.MimeType,
		ContentHash: f.ContentHash,
	}
}

func NewDeletedFilePayload(f *model.DeletedFile) *FilePayload {
	return &FilePayload{
		EntityId:    f.PathNameHash,
		ContextId:   f.CourseId,
		EventName:   EventFileDeleted,
		EventTime:   ISO8601(f.TimeDeleted),
		MimeType:    f.MimeType,
		ContentHash: f.ContentHash,
	}
}

// ContentPayloads converts HTML items, other formats are never pushed
func ContentPayloads(eventName string, items ...*model.ComponentContent) (out []Payload) {
	for _, item := range items {
		if item == nil || !item.IsHTML() {
			continue
		}
		out = append(out, NewContentPayload(item, eventName))
	}
	return
}
