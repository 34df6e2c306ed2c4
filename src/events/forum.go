package events

import (
	"context"
	"fmt"

	"github.com/lms-ally/syncer/src/component"
	"github.com/lms-ally/syncer/src/utils/model"
)

// Forum-like modules expose the opening posts of their discussions
type discussions interface {
	component.HTMLContent
	DiscussionFirstPost(ctx context.Context, discussionId int64) (*model.ComponentContent, int64, error)
	IsFirstPost(ctx context.Context, postId int64) (bool, error)
}

func (self *Handlers) forum(name string) (discussions, error) {
	c, err := self.registry.Get(name)
	if err != nil {
		return nil, err
	}
	forum, ok := c.(discussions)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no discussions", component.ErrNoHTMLSupport, name)
	}
	return forum, nil
}

func (self *Handlers) forumContextId(ctx context.Context, event *Event) (int64, error) {
	if event.ContextId != 0 {
		return event.ContextId, nil
	}
	cm, err := self.modules.CourseModule(ctx, event.ModuleName, event.InstanceId)
	if err != nil {
		return 0, err
	}
	c, err := self.contexts.ForModule(ctx, cm.Id)
	if err != nil {
		return 0, err
	}
	return c.Id, nil
}

// Pushes the opening post of the discussion if its author is trusted
func (self *Handlers) pushFirstPost(ctx context.Context, event *Event, forum discussions, discussionId int64) error {
	post, authorId, err := forum.DiscussionFirstPost(ctx, discussionId)
	if err != nil {
		return err
	}

	contextId, err := self.forumContextId(ctx, event)
	if err != nil {
		return err
	}

	approved, err := forum.UserIsApprovedAuthorType(ctx, authorId, contextId)
	if err != nil {
		return err
	}
	if !approved {
		self.log.WithField("discussion", discussionId).WithField("user", authorId).Debug("Post author isn't trusted, skipping")
		return nil
	}
	return self.push(ctx, event, post)
}

func (self *Handlers) onDiscussionChanged(ctx context.Context, event *Event) error {
	forum, err := self.forum(event.ModuleName)
	if err != nil {
		return err
	}
	return self.pushFirstPost(ctx, event, forum, event.ObjectId)
}

func (self *Handlers) onDiscussionDeleted(ctx context.Context, event *Event) error {
	forum, err := self.forum(event.ModuleName)
	if err != nil {
		return err
	}
	item, err := forum.HTMLContentDeleted(ctx, event.FirstPostId, event.ModuleName+"_posts", "message", event.CourseId, event.TimeCreated)
	if err != nil {
		return err
	}
	return self.queueDeletion(ctx, event, item)
}

// Replies aren't content, only the opening post is
func (self *Handlers) onPostChanged(ctx context.Context, event *Event) error {
	forum, err := self.forum(event.ModuleName)
	if err != nil {
		return err
	}

	first, err := forum.IsFirstPost(ctx, event.ObjectId)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}
	return self.pushFirstPost(ctx, event, forum, event.DiscussionId)
}

// Deleted replies were never pushed, a tombstone for them is a no-op downstream
func (self *Handlers) onPostDeleted(ctx context.Context, event *Event) error {
	forum, err := self.forum(event.ModuleName)
	if err != nil {
		return err
	}
	item, err := forum.HTMLContentDeleted(ctx, event.ObjectId, event.ModuleName+"_posts", "message", event.CourseId, event.TimeCreated)
	if err != nil {
		return err
	}
	return self.queueDeletion(ctx, event, item)
}
