package component

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/lms-ally/syncer/src/utils/model"
)

// Shared behavior of components. Column names used in queries come only from tableFields and adapter code.
type base struct {
	*Deps

	name string
	kind Type

	// Table -> HTML fields
	tableFields map[string][]string
}

func newBase(deps *Deps, name string, kind Type, tableFields map[string][]string) base {
	return base{
		Deps:        deps,
		name:        name,
		kind:        kind,
		tableFields: tableFields,
	}
}

func (self *base) Name() string {
	return self.name
}

func (self *base) Type() Type {
	return self.kind
}

func (self *base) IsInstalled(ctx context.Context) (bool, error) {
	if self.kind == TypeCore {
		return true, nil
	}
	return self.Modules.IsInstalled(ctx, self.name)
}

func (self *base) validate(table, field string) error {
	fields, ok := self.tableFields[table]
	if !ok {
		return &InvalidTableError{Component: self.name, Table: table}
	}
	if !slices.Contains(fields, field) {
		return &InvalidFieldError{Table: table, Field: field}
	}
	return nil
}

func (self *base) notFound(id int64, table, field string) error {
	return &NotFoundError{Component: self.name, Table: table, Field: field, Id: id}
}

// One HTML field with its format, title and modification time
type contentRow struct {
	Id           int64
	Content      string
	Format       int
	Title        string
	TimeModified int64
}

func (self *base) selectContent(field, titleField, modifiedField string) string {
	if titleField == "" {
		titleField = "''"
	}
	return fmt.Sprintf("id, %s AS content, %sformat AS format, %s AS title, %s AS time_modified", field, field, titleField, modifiedField)
}

func (self *base) row(ctx context.Context, id int64, table, field, titleField, modifiedField string) (out *contentRow, err error) {
	out = new(contentRow)
	res := self.DB.WithContext(ctx).
		Table(table).
		Select(self.selectContent(field, titleField, modifiedField)).
		Where("id = ?", id).
		Limit(1).
		Scan(out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, self.notFound(id, table, field)
	}
	return
}

func (self *base) rows(ctx context.Context, table, field, titleField, modifiedField, where string, args ...any) (out []*contentRow, err error) {
	err = self.DB.WithContext(ctx).
		Table(table).
		Select(self.selectContent(field, titleField, modifiedField)).
		Where(where, args...).
		Order("id").
		Scan(&out).
		Error
	return
}

func (self *base) content(r *contentRow, table, field string, courseId int64) *model.ComponentContent {
	return model.NewComponentContent(r.Id, self.name, table, field, courseId, r.TimeModified, model.ContentFormat(r.Format), r.Content, r.Title)
}

// Course the activity instance belongs to
func (self *base) instanceCourseId(ctx context.Context, table string, id int64) (courseId int64, err error) {
	res := self.DB.WithContext(ctx).
		Table(table).
		Select("course").
		Where("id = ?", id).
		Limit(1).
		Scan(&courseId)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, self.notFound(id, table, "course")
	}
	return
}

// Anchor of the module instance on the course page, empty when the instance isn't placed in a course
func (self *base) instanceUrl(ctx context.Context, instanceId int64) string {
	cm, err := self.Modules.CourseModule(ctx, self.name, instanceId)
	if err != nil {
		return ""
	}
	return self.Urls.CourseModule(cm.Course, cm.Id)
}

// Intro of every instance of the module in the course
func (self *base) stdCourseHTMLContentItems(ctx context.Context, courseId int64) (out []*model.ComponentContent, err error) {
	installed, err := self.IsInstalled(ctx)
	if err != nil || !installed {
		return
	}

	rows, err := self.rows(ctx, self.name, "intro", "name", "timemodified",
		"course = ? AND introformat = ? AND intro != ''", courseId, model.FormatHTML)
	if err != nil {
		return
	}

	out = make([]*model.ComponentContent, 0, len(rows))
	for _, r := range rows {
		out = append(out, self.content(r, self.name, "intro", courseId).WithUrl(self.instanceUrl(ctx, r.Id)))
	}
	return
}

func (self *base) stdHTMLContent(ctx context.Context, id int64, table, field string, courseId int64, titleField string) (out *model.ComponentContent, err error) {
	installed, err := self.IsInstalled(ctx)
	if err != nil {
		return
	}
	if !installed {
		return nil, self.notFound(id, table, field)
	}

	err = self.validate(table, field)
	if err != nil {
		return
	}

	r, err := self.row(ctx, id, table, field, titleField, "timemodified")
	if err != nil {
		return
	}

	out = self.content(r, table, field, courseId)
	if table == self.name && self.kind == TypeMod {
		out.WithUrl(self.instanceUrl(ctx, id))
	}
	return
}

func (self *base) HTMLContentDeleted(ctx context.Context, id int64, table, field string, courseId, timeModified int64) (*model.ComponentContent, error) {
	installed, err := self.IsInstalled(ctx)
	if err != nil || !installed {
		return nil, err
	}
	if timeModified == 0 {
		timeModified = time.Now().Unix()
	}
	return model.NewDeletedComponentContent(id, self.name, table, field, courseId, timeModified), nil
}

func (self *base) stdReplaceHTMLContent(ctx context.Context, id int64, table, field, content string) (ok bool, err error) {
	installed, err := self.IsInstalled(ctx)
	if err != nil || !installed {
		return
	}

	err = self.validate(table, field)
	if err != nil {
		return
	}

	res := self.DB.WithContext(ctx).
		Table(table).
		Where("id = ?", id).
		Update(field, content)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if self.kind == TypeMod && table == self.name {
		// Module text is rendered on the course page
		cm, err := self.Modules.CourseModule(ctx, self.name, id)
		if err != nil {
			return false, err
		}
		err = self.Hooks.CourseModuleUpdated(ctx, cm.Course, cm.Id, self.name)
		if err != nil {
			return false, err
		}
		err = self.Hooks.RebuildCourseCache(ctx, cm.Course)
		if err != nil {
			return false, err
		}
	}

	return true, nil
}

func (self *base) UserIsApprovedAuthorType(ctx context.Context, userId, contextId int64) (bool, error) {
	return self.Authors.IsApproved(ctx, userId, contextId)
}
