package model

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Text format of a content field, values as stored by the host LMS
type ContentFormat int

const (
	FormatMoodle   ContentFormat = 0
	FormatHTML     ContentFormat = 1
	FormatPlain    ContentFormat = 2
	FormatMarkdown ContentFormat = 4
)

var ErrInvalidEntityId = errors.New("invalid entity id")

// ComponentContent is one trackable HTML-bearing field of a row owned by a component
type ComponentContent struct {
	// Row id within the table
	Id int64 `json:"id"`

	// Owner, e.g. course, book, forum
	Component string `json:"component"`
	Table     string `json:"table"`
	Field     string `json:"field"`

	// Zero when unknown
	CourseId int64 `json:"courseid"`

	// Unix timestamp
	TimeModified int64 `json:"timemodified"`

	ContentFormat ContentFormat `json:"-"`
	Content       string        `json:"content"`

	Title string `json:"title,omitempty"`
	Url   string `json:"contenturl,omitempty"`

	// Digest of Content
	ContentHash string `json:"contenthash"`
}

func NewComponentContent(id int64, component, table, field string, courseId, timeModified int64, format ContentFormat, content, title string) *ComponentContent {
	return &ComponentContent{
		Id:            id,
		Component:     component,
		Table:         table,
		Field:         field,
		CourseId:      courseId,
		TimeModified:  timeModified,
		ContentFormat: format,
		Content:       content,
		Title:         title,
		ContentHash:   ContentHash(content),
	}
}

// Tombstone of a removed item. The original format is unknown at this point, so it's always HTML.
func NewDeletedComponentContent(id int64, component, table, field string, courseId, timeDeleted int64) *ComponentContent {
	return NewComponentContent(id, component, table, field, courseId, timeDeleted, FormatHTML, "", "")
}

func (self *ComponentContent) WithUrl(url string) *ComponentContent {
	self.Url = url
	return self
}

func (self *ComponentContent) IsHTML() bool {
	return self.ContentFormat == FormatHTML
}

// EntityId is the stable identity of the content, the same for created, updated and deleted variants
func (self *ComponentContent) EntityId() string {
	return EntityId(self.Component, self.Table, self.Field, self.Id)
}

func EntityId(component, table, field string, id int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", component, table, field, id)
}

// ParseEntityId splits entity id into its parts
func ParseEntityId(entityId string) (component, table, field string, id int64, err error) {
	parts := strings.Split(entityId, ":")
	if len(parts) != 4 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		err = fmt.Errorf("%w: %q", ErrInvalidEntityId, entityId)
		return
	}
	id, err = strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		err = fmt.Errorf("%w: %q", ErrInvalidEntityId, entityId)
		return
	}
	return parts[0], parts[1], parts[2], id, nil
}

func ContentHash(content string) string {
	/* #nosec */
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}
