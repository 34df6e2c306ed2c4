package component

import (
	"context"
	"errors"

	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"
)

const sectionCacheSize = 10000

// Course summary and section summaries
type courseComponent struct {
	base

	// Section id -> section number
	sections *lru.Cache[int64, int64]
}

func newCourse(deps *Deps) Component {
	sections, err := lru.New[int64, int64](sectionCacheSize)
	if err != nil {
		panic(err)
	}
	return &courseComponent{
		base: newBase(deps, "course", TypeCore, map[string][]string{
			lms.TableCourse:         {"summary"},
			lms.TableCourseSections: {"summary"},
		}),
		sections: sections,
	}
}

func (self *courseComponent) CourseHTMLContentItems(ctx context.Context, courseId int64) (out []*model.ComponentContent, err error) {
	summary, err := self.rows(ctx, lms.TableCourse, "summary", "fullname", "timemodified",
		"id = ? AND summaryformat = ? AND summary != ''", courseId, model.FormatHTML)
	if err != nil {
		return
	}
	for _, r := range summary {
		out = append(out, self.content(r, lms.TableCourse, "summary", courseId).WithUrl(self.Urls.CourseEdit(courseId)))
	}

	var sections []lms.CourseSection
	err = self.DB.WithContext(ctx).
		Where("course = ? AND summaryformat = ? AND summary != ''", courseId, model.FormatHTML).
		Order("section").
		Find(&sections).
		Error
	if err != nil {
		return
	}
	for _, s := range sections {
		self.sections.Add(s.Id, s.Section)
		c := model.NewComponentContent(s.Id, self.name, lms.TableCourseSections, "summary", courseId, s.TimeModified, model.ContentFormat(s.SummaryFormat), s.Summary, s.Name)
		out = append(out, c.WithUrl(self.Urls.CourseSection(courseId, s.Section)))
	}
	return
}

func (self *courseComponent) HTMLContent(ctx context.Context, id int64, table, field string, courseId int64) (out *model.ComponentContent, err error) {
	titleField := "name"
	if table == lms.TableCourse {
		titleField = "fullname"
	}
	out, err = self.stdHTMLContent(ctx, id, table, field, courseId, titleField)
	if err != nil {
		return
	}

	switch table {
	case lms.TableCourse:
		out.CourseId = id
		out.WithUrl(self.Urls.CourseEdit(id))
	case lms.TableCourseSections:
		url, err := self.sectionUrl(ctx, id, courseId)
		if err != nil {
			return nil, err
		}
		out.WithUrl(url)
	}
	return
}

func (self *courseComponent) section(ctx context.Context, id int64) (out *lms.CourseSection, err error) {
	out = new(lms.CourseSection)
	err = self.DB.WithContext(ctx).Where("id = ?", id).First(out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, self.notFound(id, lms.TableCourseSections, "summary")
	}
	if err != nil {
		return nil, err
	}
	self.sections.Add(out.Id, out.Section)
	return
}

func (self *courseComponent) sectionUrl(ctx context.Context, sectionId, courseId int64) (string, error) {
	number, ok := self.sections.Get(sectionId)
	if !ok || courseId == 0 {
		s, err := self.section(ctx, sectionId)
		if err != nil {
			return "", err
		}
		number, courseId = s.Section, s.Course
	}
	return self.Urls.CourseSection(courseId, number), nil
}

func (self *courseComponent) AllHTMLContent(ctx context.Context, id int64) (out []*model.ComponentContent, err error) {
	summary, err := self.HTMLContent(ctx, id, lms.TableCourse, "summary", id)
	if err != nil {
		return
	}
	out = append(out, summary)

	var sections []lms.CourseSection
	err = self.DB.WithContext(ctx).Where("course = ?", id).Order("section").Find(&sections).Error
	if err != nil {
		return
	}
	for _, s := range sections {
		self.sections.Add(s.Id, s.Section)
		c := model.NewComponentContent(s.Id, self.name, lms.TableCourseSections, "summary", id, s.TimeModified, model.ContentFormat(s.SummaryFormat), s.Summary, s.Name)
		out = append(out, c.WithUrl(self.Urls.CourseSection(id, s.Section)))
	}
	return
}

// Replacing a section summary notifies the host about the course update and invalidates the rendered course
func (self *courseComponent) ReplaceHTMLContent(ctx context.Context, id int64, table, field, content string) (bool, error) {
	if table != lms.TableCourseSections {
		return self.stdReplaceHTMLContent(ctx, id, table, field, content)
	}

	err := self.validate(table, field)
	if err != nil {
		return false, err
	}

	s, err := self.section(ctx, id)
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	err = self.DB.WithContext(ctx).
		Model(&lms.CourseSection{}).
		Where("id = ?", id).
		Update("summary", content).
		Error
	if err != nil {
		return false, err
	}

	err = self.Hooks.CourseUpdated(ctx, s.Course)
	if err != nil {
		return false, err
	}

	err = self.Hooks.RebuildCourseCache(ctx, s.Course)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (self *courseComponent) ResolveCourseId(ctx context.Context, id int64, table, field string) (int64, error) {
	switch table {
	case lms.TableCourse:
		return id, nil
	case lms.TableCourseSections:
		s, err := self.section(ctx, id)
		if err != nil {
			return 0, err
		}
		return s.Course, nil
	}
	return 0, &InvalidTableError{Component: self.name, Table: table}
}

// Files of the course summary and sections are referenced through @@PLUGINFILE@@
func (self *courseComponent) ReplaceFileLinks(ctx context.Context, file *lms.File, oldName string) error {
	switch file.FileArea {
	case "summary":
		courseId, err := self.Contexts.CourseId(ctx, file.ContextId)
		if err != nil {
			return err
		}
		return updateFileNamesInHTML(ctx, self.DB, lms.TableCourse, "summary", courseId, oldName, file.FileName)
	case "section":
		return updateFileNamesInHTML(ctx, self.DB, lms.TableCourseSections, "summary", file.ItemId, oldName, file.FileName)
	}
	logUnsupportedArea(self.name, file.FileArea)
	return nil
}
