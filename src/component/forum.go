package component

import (
	"context"
	"fmt"

	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"
)

// Forum intro and the first post of each discussion. Shared by forum and hsuforum, which only differ in table names.
// Only posts written by approved authors are tracked, replies never are.
type forumComponent struct {
	base
}

func newForum(name string) Factory {
	return func(deps *Deps) Component {
		return &forumComponent{
			base: newBase(deps, name, TypeMod, map[string][]string{
				name:            {"intro"},
				name + "_posts": {"message"},
			}),
		}
	}
}

func (self *forumComponent) postsTable() string {
	return self.name + "_posts"
}

func (self *forumComponent) discussionsTable() string {
	return self.name + "_discussions"
}

// First post with what's needed to check its author
type firstPostRow struct {
	Id           int64
	Content      string
	Format       int
	Title        string
	TimeModified int64
	UserId       int64
	Forum        int64
	Discussion   int64
	Course       int64
}

func (self *firstPostRow) contentRow() *contentRow {
	return &contentRow{Id: self.Id, Content: self.Content, Format: self.Format, Title: self.Title, TimeModified: self.TimeModified}
}

func (self *forumComponent) firstPosts(ctx context.Context, where string, args ...any) (out []*firstPostRow, err error) {
	err = self.DB.WithContext(ctx).
		Table(self.postsTable()+" p").
		Select("p.id, p.message AS content, p.messageformat AS format, p.subject AS title, p.modified AS time_modified, "+
			"p.userid AS user_id, d.forum AS forum, d.id AS discussion, d.course AS course").
		Joins(fmt.Sprintf("JOIN %s d ON d.firstpost = p.id", self.discussionsTable())).
		Where(where, args...).
		Order("p.id").
		Scan(&out).
		Error
	return
}

// Keeps posts whose authors may publish in the forum's context
func (self *forumComponent) approved(ctx context.Context, posts []*firstPostRow) (out []*model.ComponentContent, err error) {
	// Forum instance -> module context id
	contextIds := make(map[int64]int64)

	for _, p := range posts {
		contextId, ok := contextIds[p.Forum]
		if !ok {
			cm, err := self.Modules.CourseModule(ctx, self.name, p.Forum)
			if err != nil {
				// Forum isn't placed in the course, nobody can see the post
				continue
			}
			c, err := self.Contexts.ForModule(ctx, cm.Id)
			if err != nil {
				return nil, err
			}
			contextId = c.Id
			contextIds[p.Forum] = contextId
		}

		ok, err = self.Authors.IsApproved(ctx, p.UserId, contextId)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		out = append(out, self.content(p.contentRow(), self.postsTable(), "message", p.Course).WithUrl(self.Urls.Discussion(self.name, p.Discussion)))
	}
	return
}

func (self *forumComponent) CourseHTMLContentItems(ctx context.Context, courseId int64) (out []*model.ComponentContent, err error) {
	installed, err := self.IsInstalled(ctx)
	if err != nil || !installed {
		return
	}

	out, err = self.stdCourseHTMLContentItems(ctx, courseId)
	if err != nil {
		return
	}

	posts, err := self.firstPosts(ctx, "d.course = ? AND p.messageformat = ? AND p.message != ''", courseId, model.FormatHTML)
	if err != nil {
		return
	}

	approved, err := self.approved(ctx, posts)
	if err != nil {
		return
	}
	return append(out, approved...), nil
}

func (self *forumComponent) HTMLContent(ctx context.Context, id int64, table, field string, courseId int64) (out *model.ComponentContent, err error) {
	if table != self.postsTable() {
		return self.stdHTMLContent(ctx, id, table, field, courseId, "name")
	}

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

	r, err := self.row(ctx, id, table, field, "subject", "modified")
	if err != nil {
		return
	}

	var discussionId int64
	err = self.DB.WithContext(ctx).Table(table).Select("discussion").Where("id = ?", id).Scan(&discussionId).Error
	if err != nil {
		return
	}

	return self.content(r, table, field, courseId).WithUrl(self.Urls.Discussion(self.name, discussionId)), nil
}

// DiscussionFirstPost returns the opening post of the discussion with its author
func (self *forumComponent) DiscussionFirstPost(ctx context.Context, discussionId int64) (out *model.ComponentContent, authorId int64, err error) {
	posts, err := self.firstPosts(ctx, "d.id = ?", discussionId)
	if err != nil {
		return
	}
	if len(posts) == 0 {
		return nil, 0, self.notFound(discussionId, self.discussionsTable(), "firstpost")
	}
	p := posts[0]
	return self.content(p.contentRow(), self.postsTable(), "message", p.Course).WithUrl(self.Urls.Discussion(self.name, p.Discussion)), p.UserId, nil
}

// IsFirstPost tells if the post opens its discussion
func (self *forumComponent) IsFirstPost(ctx context.Context, postId int64) (bool, error) {
	posts, err := self.firstPosts(ctx, "p.id = ?", postId)
	if err != nil {
		return false, err
	}
	return len(posts) > 0, nil
}

func (self *forumComponent) AllHTMLContent(ctx context.Context, id int64) (out []*model.ComponentContent, err error) {
	courseId, err := self.instanceCourseId(ctx, self.name, id)
	if err != nil {
		return
	}
	intro, err := self.HTMLContent(ctx, id, self.name, "intro", courseId)
	if err != nil {
		return
	}

	posts, err := self.firstPosts(ctx, "d.forum = ?", id)
	if err != nil {
		return
	}
	approved, err := self.approved(ctx, posts)
	if err != nil {
		return
	}
	return append([]*model.ComponentContent{intro}, approved...), nil
}

func (self *forumComponent) SubTableContent(ctx context.Context, instanceId, courseId int64) (out []*model.ComponentContent, err error) {
	posts, err := self.firstPosts(ctx, "d.forum = ?", instanceId)
	if err != nil {
		return
	}
	for _, p := range posts {
		out = append(out, self.content(p.contentRow(), self.postsTable(), "message", courseId))
	}
	return
}

func (self *forumComponent) ReplaceHTMLContent(ctx context.Context, id int64, table, field, content string) (bool, error) {
	return self.stdReplaceHTMLContent(ctx, id, table, field, content)
}

func (self *forumComponent) ResolveCourseId(ctx context.Context, id int64, table, field string) (courseId int64, err error) {
	switch table {
	case self.name:
		return self.instanceCourseId(ctx, table, id)
	case self.postsTable():
		res := self.DB.WithContext(ctx).
			Table(self.postsTable()+" p").
			Select("d.course").
			Joins(fmt.Sprintf("JOIN %s d ON d.id = p.discussion", self.discussionsTable())).
			Where("p.id = ?", id).
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

func (self *forumComponent) ReplaceFileLinks(ctx context.Context, file *lms.File, oldName string) error {
	if file.FileArea != "post" {
		logUnsupportedArea(self.name, file.FileArea)
		return nil
	}
	return updateFileNamesInHTML(ctx, self.DB, self.postsTable(), "message", file.ItemId, oldName, file.FileName)
}
