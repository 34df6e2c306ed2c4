package events

import (
	"errors"
	"fmt"

	"github.com/lms-ally/syncer/src/utils/lms"
)

type Name string

const (
	CourseCreated Name = "course_created"
	CourseUpdated Name = "course_updated"
	CourseDeleted Name = "course_deleted"

	SectionCreated Name = "course_section_created"
	SectionUpdated Name = "course_section_updated"
	SectionDeleted Name = "course_section_deleted"

	ModuleCreated Name = "course_module_created"
	ModuleUpdated Name = "course_module_updated"
	ModuleDeleted Name = "course_module_deleted"

	DiscussionCreated Name = "discussion_created"
	DiscussionUpdated Name = "discussion_updated"
	DiscussionDeleted Name = "discussion_deleted"

	PostCreated Name = "post_created"
	PostUpdated Name = "post_updated"
	PostDeleted Name = "post_deleted"

	FileCreated Name = "file_created"
	FileUpdated Name = "file_updated"
	FileDeleted Name = "file_deleted"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrMissingField = errors.New("event is missing a field")
)

// Event is a lifecycle notification sent by the host
type Event struct {
	Name Name `json:"name" binding:"required"`

	// Changed object: course, section, course module, discussion, post or file
	ObjectId int64 `json:"object_id"`

	// Resolved from the object when empty
	CourseId  int64 `json:"course_id"`
	ContextId int64 `json:"context_id"`

	// Module events and forum events
	ModuleName string `json:"module_name"`
	InstanceId int64  `json:"instance_id"`

	// Post events
	DiscussionId int64 `json:"discussion_id"`

	// Opening post of a deleted discussion
	FirstPostId int64 `json:"first_post_id"`

	// Unix timestamp, defaults to now
	TimeCreated int64 `json:"time_created"`

	// Deleted files don't exist anymore, the host sends their record
	File *lms.File `json:"file"`

	// Set when the file got renamed
	OldFileName string `json:"old_file_name"`
}

func missing(field string, e *Event) error {
	return fmt.Errorf("%w: %s is required by %s", ErrMissingField, field, e.Name)
}

// Validate checks fields needed by the event's handler
func (self *Event) Validate() error {
	switch self.Name {
	case CourseCreated, CourseUpdated, CourseDeleted:
		if self.ObjectId == 0 {
			return missing("object_id", self)
		}
	case SectionCreated, SectionUpdated, SectionDeleted:
		if self.ObjectId == 0 {
			return missing("object_id", self)
		}
		if self.CourseId == 0 {
			return missing("course_id", self)
		}
	case ModuleCreated, ModuleUpdated, ModuleDeleted:
		if self.ObjectId == 0 {
			return missing("object_id", self)
		}
	case DiscussionCreated, DiscussionUpdated, DiscussionDeleted, PostCreated, PostUpdated, PostDeleted:
		if self.ObjectId == 0 {
			return missing("object_id", self)
		}
		if self.ModuleName == "" {
			return missing("module_name", self)
		}
		if self.ContextId == 0 && self.InstanceId == 0 {
			return missing("instance_id", self)
		}
		if (self.Name == PostCreated || self.Name == PostUpdated) && self.DiscussionId == 0 {
			return missing("discussion_id", self)
		}
		if self.Name == DiscussionDeleted && self.FirstPostId == 0 {
			return missing("first_post_id", self)
		}
		if (self.Name == DiscussionDeleted || self.Name == PostDeleted) && self.CourseId == 0 {
			return missing("course_id", self)
		}
	case FileCreated, FileUpdated:
		if self.ObjectId == 0 && self.File == nil {
			return missing("object_id", self)
		}
	case FileDeleted:
		if self.File == nil {
			return missing("file", self)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, self.Name)
	}
	return nil
}
