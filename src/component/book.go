package component

import (
	"context"
	"net/url"
	"strconv"

	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"
)

// Book intro and chapters
type bookComponent struct {
	base
}

func newBook(deps *Deps) Component {
	return &bookComponent{
		base: newBase(deps, "book", TypeMod, map[string][]string{
			"book":                {"intro"},
			lms.TableBookChapters: {"content"},
		}),
	}
}

func (self *bookComponent) CourseHTMLContentItems(ctx context.Context, courseId int64) ([]*model.ComponentContent, error) {
	return self.stdCourseHTMLContentItems(ctx, courseId)
}

func (self *bookComponent) chapterUrl(ctx context.Context, bookId, chapterId int64) string {
	cm, err := self.Modules.CourseModule(ctx, self.name, bookId)
	if err != nil {
		return ""
	}
	return self.Urls.ModuleView(self.name, cm.Id, url.Values{"chapterid": {strconv.FormatInt(chapterId, 10)}})
}

func (self *bookComponent) HTMLContent(ctx context.Context, id int64, table, field string, courseId int64) (out *model.ComponentContent, err error) {
	if table != lms.TableBookChapters {
		return self.stdHTMLContent(ctx, id, table, field, courseId, "name")
	}

	out, err = self.stdHTMLContent(ctx, id, table, field, courseId, "title")
	if err != nil {
		return
	}

	var chapter lms.BookChapter
	err = self.DB.WithContext(ctx).Where("id = ?", id).First(&chapter).Error
	if err != nil {
		return
	}
	out.WithUrl(self.chapterUrl(ctx, chapter.BookId, id))
	return
}

func (self *bookComponent) chapters(ctx context.Context, bookId, courseId int64) (out []*model.ComponentContent, err error) {
	var chapters []lms.BookChapter
	err = self.DB.WithContext(ctx).Where("bookid = ?", bookId).Order("id").Find(&chapters).Error
	if err != nil {
		return
	}
	for _, c := range chapters {
		content := model.NewComponentContent(c.Id, self.name, lms.TableBookChapters, "content", courseId, c.TimeModified, model.ContentFormat(c.ContentFormat), c.Content, c.Title)
		out = append(out, content.WithUrl(self.chapterUrl(ctx, bookId, c.Id)))
	}
	return
}

func (self *bookComponent) AllHTMLContent(ctx context.Context, id int64) (out []*model.ComponentContent, err error) {
	courseId, err := self.instanceCourseId(ctx, self.name, id)
	if err != nil {
		return
	}
	intro, err := self.HTMLContent(ctx, id, self.name, "intro", courseId)
	if err != nil {
		return
	}
	chapters, err := self.chapters(ctx, id, courseId)
	if err != nil {
		return
	}
	return append([]*model.ComponentContent{intro}, chapters...), nil
}

func (self *bookComponent) SubTableContent(ctx context.Context, instanceId, courseId int64) ([]*model.ComponentContent, error) {
	return self.chapters(ctx, instanceId, courseId)
}

func (self *bookComponent) ReplaceHTMLContent(ctx context.Context, id int64, table, field, content string) (bool, error) {
	return self.stdReplaceHTMLContent(ctx, id, table, field, content)
}

func (self *bookComponent) ResolveCourseId(ctx context.Context, id int64, table, field string) (courseId int64, err error) {
	switch table {
	case self.name:
		return self.instanceCourseId(ctx, table, id)
	case lms.TableBookChapters:
		res := self.DB.WithContext(ctx).
			Table(lms.TableBookChapters+" bc").
			Select("b.course").
			Joins("JOIN book b ON b.id = bc.bookid").
			Where("bc.id = ?", id).
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

func (self *bookComponent) ReplaceFileLinks(ctx context.Context, file *lms.File, oldName string) error {
	if file.FileArea != "chapter" {
		logUnsupportedArea(self.name, file.FileArea)
		return nil
	}
	return updateFileNamesInHTML(ctx, self.DB, lms.TableBookChapters, "content", file.ItemId, oldName, file.FileName)
}
