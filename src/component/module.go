package component

import (
	"context"

	"github.com/lms-ally/syncer/src/utils/model"
)

// Activity module whose only HTML content lives in its own table, usually just the intro
type moduleComponent struct {
	base
	fields []string
}

func newModule(name string, fields ...string) Factory {
	if len(fields) == 0 {
		fields = []string{"intro"}
	}
	return func(deps *Deps) Component {
		return &moduleComponent{
			base:   newBase(deps, name, TypeMod, map[string][]string{name: fields}),
			fields: fields,
		}
	}
}

func (self *moduleComponent) CourseHTMLContentItems(ctx context.Context, courseId int64) (out []*model.ComponentContent, err error) {
	installed, err := self.IsInstalled(ctx)
	if err != nil || !installed {
		return
	}

	out, err = self.stdCourseHTMLContentItems(ctx, courseId)
	if err != nil {
		return
	}

	for _, field := range self.fields {
		if field == "intro" {
			continue
		}
		var rows []*contentRow
		rows, err = self.rows(ctx, self.name, field, "name", "timemodified",
			"course = ? AND "+field+"format = ? AND "+field+" != ''", courseId, model.FormatHTML)
		if err != nil {
			return
		}
		for _, r := range rows {
			out = append(out, self.content(r, self.name, field, courseId).WithUrl(self.instanceUrl(ctx, r.Id)))
		}
	}
	return
}

func (self *moduleComponent) HTMLContent(ctx context.Context, id int64, table, field string, courseId int64) (*model.ComponentContent, error) {
	return self.stdHTMLContent(ctx, id, table, field, courseId, "name")
}

func (self *moduleComponent) AllHTMLContent(ctx context.Context, id int64) (out []*model.ComponentContent, err error) {
	courseId, err := self.instanceCourseId(ctx, self.name, id)
	if err != nil {
		return
	}
	for _, field := range self.fields {
		var c *model.ComponentContent
		c, err = self.HTMLContent(ctx, id, self.name, field, courseId)
		if err != nil {
			return
		}
		out = append(out, c)
	}
	return
}

func (self *moduleComponent) ReplaceHTMLContent(ctx context.Context, id int64, table, field, content string) (bool, error) {
	return self.stdReplaceHTMLContent(ctx, id, table, field, content)
}

func (self *moduleComponent) ResolveCourseId(ctx context.Context, id int64, table, field string) (int64, error) {
	if table != self.name {
		return 0, &InvalidTableError{Component: self.name, Table: table}
	}
	return self.instanceCourseId(ctx, table, id)
}
