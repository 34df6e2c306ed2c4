package events

import (
	"context"
	"errors"
	"time"

	"github.com/lms-ally/syncer/src/component"
	"github.com/lms-ally/syncer/src/files"
	"github.com/lms-ally/syncer/src/utils/model"
)

// Fills in module details missing from the event. Needs the course module row, so deletions must be sent before it's removed.
func (self *Handlers) resolveModule(ctx context.Context, event *Event) error {
	if event.ModuleName != "" && event.InstanceId != 0 && event.CourseId != 0 {
		return nil
	}

	cm, err := self.modules.ById(ctx, event.ObjectId)
	if err != nil {
		return err
	}

	event.ModuleName = cm.Name
	event.InstanceId = cm.Instance
	event.CourseId = cm.Course
	return nil
}

func (self *Handlers) onModuleChanged(ctx context.Context, event *Event) (err error) {
	err = self.resolveModule(ctx, event)
	if err != nil {
		return
	}

	// Files uploaded together with the module
	defer self.pushModuleFiles(ctx, event)

	adapter, err := self.registry.HTMLContent(event.ModuleName)
	if errors.Is(err, component.ErrUnknownComponent) || errors.Is(err, component.ErrNoHTMLSupport) {
		return nil
	}
	if err != nil {
		return
	}

	items, err := adapter.AllHTMLContent(ctx, event.InstanceId)
	if component.IsNotFound(err) {
		self.log.WithField("module", event.ModuleName).WithField("instance", event.InstanceId).Debug("Module instance is gone")
		return nil
	}
	if err != nil {
		return
	}

	if event.Name == ModuleUpdated {
		// Only the instance's own fields change with the module settings
		own := items[:0]
		for _, item := range items {
			if item != nil && item.Table == event.ModuleName {
				own = append(own, item)
			}
		}
		items = own
	}

	return self.push(ctx, event, items...)
}

// Best effort, files that fail here are delivered by the file updates job
func (self *Handlers) pushModuleFiles(ctx context.Context, event *Event) {
	if !self.config.Push.IsValid() {
		return
	}

	contextId := event.ContextId
	if contextId == 0 {
		c, err := self.contexts.ForModule(ctx, event.ObjectId)
		if err != nil {
			self.log.WithError(err).WithField("cmid", event.ObjectId).Debug("No module context, skipping files")
			return
		}
		contextId = c.Id
	}

	since := event.TimeCreated - int64(self.config.Tasks.ModuleFileWindow/time.Second)
	items, err := files.NewDetector(self.db, self.contexts, self.validator).
		WithContext(contextId).
		WithSince(since).
		SortBy("timemodified", false).
		All(ctx)
	if err != nil {
		self.log.WithError(err).WithField("context_id", contextId).Warn("Failed to list module files")
		return
	}

	self.processor.PushFileUpdates(ctx, items)
}

func (self *Handlers) onModuleDeleted(ctx context.Context, event *Event) (err error) {
	err = self.resolveModule(ctx, event)
	if err != nil {
		return
	}

	adapter, err := self.registry.HTMLContent(event.ModuleName)
	if errors.Is(err, component.ErrUnknownComponent) || errors.Is(err, component.ErrNoHTMLSupport) {
		return nil
	}
	if err != nil {
		return
	}

	// Rows of child tables go away with the instance
	if sub, ok := adapter.(component.SubTables); ok {
		var items []*model.ComponentContent
		items, err = sub.SubTableContent(ctx, event.InstanceId, event.CourseId)
		if err != nil {
			return
		}
		err = self.queueDeletion(ctx, event, tombstones(items, event.CourseId, event.TimeCreated)...)
		if err != nil {
			return
		}
	}

	intro, err := adapter.HTMLContentDeleted(ctx, event.InstanceId, event.ModuleName, "intro", event.CourseId, event.TimeCreated)
	if err != nil {
		return
	}
	return self.queueDeletion(ctx, event, intro)
}
