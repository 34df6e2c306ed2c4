package component

import (
	"context"
	"net/url"
	"strconv"

	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"
)

// Lesson intro and pages
type lessonComponent struct {
	base
}

func newLesson(deps *Deps) Component {
	return &lessonComponent{
		base: newBase(deps, "lesson", TypeMod, map[string][]string{
			"lesson":             {"intro"},
			lms.TableLessonPages: {"contents"},
		}),
	}
}

func (self *lessonComponent) CourseHTMLContentItems(ctx context.Context, courseId int64) ([]*model.ComponentContent, error) {
	return self.stdCourseHTMLContentItems(ctx, courseId)
}

func (self *lessonComponent) pageUrl(ctx context.Context, lessonId, pageId int64) string {
	cm, err := self.Modules.CourseModule(ctx, self.name, lessonId)
	if err != nil {
		return ""
	}
	return self.Urls.ModuleView(self.name, cm.Id, url.Values{"pageid": {strconv.FormatInt(pageId, 10)}})
}

func (self *lessonComponent) HTMLContent(ctx context.Context, id int64, table, field string, courseId int64) (out *model.ComponentContent, err error) {
	if table != lms.TableLessonPages {
		return self.stdHTMLContent(ctx, id, table, field, courseId, "name")
	}

	out, err = self.stdHTMLContent(ctx, id, table, field, courseId, "title")
	if err != nil {
		return
	}

	var page lms.LessonPage
	err = self.DB.WithContext(ctx).Where("id = ?", id).First(&page).Error
	if err != nil {
		return
	}
	out.WithUrl(self.pageUrl(ctx, page.LessonId, id))
	return
}

func (self *lessonComponent) pages(ctx context.Context, lessonId, courseId int64) (out []*model.ComponentContent, err error) {
	var pages []lms.LessonPage
	err = self.DB.WithContext(ctx).Where("lessonid = ?", lessonId).Order("id").Find(&pages).Error
	if err != nil {
		return
	}
	for _, p := range pages {
		content := model.NewComponentContent(p.Id, self.name, lms.TableLessonPages, "contents", courseId, p.TimeModified, model.ContentFormat(p.ContentsFormat), p.Contents, p.Title)
		out = append(out, content.WithUrl(self.pageUrl(ctx, lessonId, p.Id)))
	}
	return
}

func (self *lessonComponent) AllHTMLContent(ctx context.Context, id int64) (out []*model.ComponentContent, err error) {
	courseId, err := self.instanceCourseId(ctx, self.name, id)
	if err != nil {
		return
	}
	intro, err := self.HTMLContent(ctx, id, self.name, "intro", courseId)
	if err != nil {
		return
	}
	pages, err := self.pages(ctx, id, courseId)
	if err != nil {
		return
	}
	return append([]*model.ComponentContent{intro}, pages...), nil
}

func (self *lessonComponent) SubTableContent(ctx context.Context, instanceId, courseId int64) ([]*model.ComponentContent, error) {
	return self.pages(ctx, instanceId, courseId)
}

func (self *lessonComponent) ReplaceHTMLContent(ctx context.Context, id int64, table, field, content string) (bool, error) {
	return self.stdReplaceHTMLContent(ctx, id, table, field, content)
}

func (self *lessonComponent) ResolveCourseId(ctx context.Context, id int64, table, field string) (courseId int64, err error) {
	switch table {
	case self.name:
		return self.instanceCourseId(ctx, table, id)
	case lms.TableLessonPages:
		res := self.DB.WithContext(ctx).
			Table(lms.TableLessonPages+" lp").
			Select("l.course").
			Joins("JOIN lesson l ON l.id = lp.lessonid").
			Where("lp.id = ?", id).
			Limit(1).
			Scan(&courseId)
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			return 0, self.notFound(id, table, field)
		}
		return
	}
	return 0, &InvalidTableError{Component: self.name, Table: table}
}

func (self *lessonComponent) ReplaceFileLinks(ctx context.Context, file *lms.File, oldName string) error {
	if file.FileArea != "page_contents" {
		logUnsupportedArea(self.name, file.FileArea)
		return nil
	}
	return updateFileNamesInHTML(ctx, self.DB, lms.TableLessonPages, "contents", file.ItemId, oldName, file.FileName)
}
