package component

import (
	"context"

	"github.com/lms-ally/syncer/src/access"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"

	"gorm.io/gorm"
)

type Type string

const (
	TypeCore Type = "core"
	TypeMod  Type = "mod"
)

// Component is a type of LMS content owner: the course itself or an activity module
type Component interface {
	Name() string
	Type() Type

	// Core components are always installed, modules need to be present in the host
	IsInstalled(ctx context.Context) (bool, error)
}

// HTMLContent is implemented by components that own HTML fields
type HTMLContent interface {
	Component

	// Every HTML item of the course. Empty when the module isn't installed.
	CourseHTMLContentItems(ctx context.Context, courseId int64) ([]*model.ComponentContent, error)

	// Single item. Fails with NotFoundError, InvalidTableError or InvalidFieldError.
	HTMLContent(ctx context.Context, id int64, table, field string, courseId int64) (*model.ComponentContent, error)

	// Tombstone of a removed item. Nil when the module isn't installed. Zero timeModified means now.
	HTMLContentDeleted(ctx context.Context, id int64, table, field string, courseId, timeModified int64) (*model.ComponentContent, error)

	// Instance content together with all its sub rows, in any format
	AllHTMLContent(ctx context.Context, id int64) ([]*model.ComponentContent, error)

	// Persists new content and notifies the host. False if the row doesn't exist.
	ReplaceHTMLContent(ctx context.Context, id int64, table, field, content string) (bool, error)

	ResolveCourseId(ctx context.Context, id int64, table, field string) (int64, error)

	UserIsApprovedAuthorType(ctx context.Context, userId, contextId int64) (bool, error)
}

// SubTables is implemented by modules whose rows in child tables go away together with the instance
type SubTables interface {
	SubTableContent(ctx context.Context, instanceId, courseId int64) ([]*model.ComponentContent, error)
}

// FileLinks is implemented by components that embed files in their HTML fields
type FileLinks interface {
	// Points links to the renamed file
	ReplaceFileLinks(ctx context.Context, file *lms.File, oldName string) error
}

// Collaborators shared by all the components
type Deps struct {
	DB       *gorm.DB
	Contexts *lms.Contexts
	Modules  *lms.Modules
	Authors  *access.Authors
	Hooks    lms.Hooks
	Urls     *lms.Urls
}
