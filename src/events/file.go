package events

import (
	"context"
	"errors"

	"github.com/lms-ally/syncer/src/component"
	"github.com/lms-ally/syncer/src/files"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/model"
)

func (self *Handlers) eventFile(ctx context.Context, event *Event) (*lms.File, error) {
	if event.File != nil {
		return event.File, nil
	}
	f := new(lms.File)
	err := self.db.WithContext(ctx).Where("id = ?", event.ObjectId).Take(f).Error
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (self *Handlers) onFileChanged(ctx context.Context, event *Event) error {
	f, err := self.eventFile(ctx, event)
	if err != nil {
		return err
	}

	if event.OldFileName != "" && event.OldFileName != f.FileName {
		err = self.replaceFileLinks(ctx, f, event.OldFileName)
		if err != nil {
			return err
		}
	}

	courseId, ok, err := self.validator.Validate(ctx, f)
	if err != nil || !ok {
		return err
	}

	self.processor.PushFileUpdates(ctx, []*model.FileItem{files.NewFileItem(f, courseId)})
	return nil
}

// HTML embedding the file by its old name is pointed to the new one
func (self *Handlers) replaceFileLinks(ctx context.Context, f *lms.File, oldName string) error {
	links, err := self.registry.FileLinks(f.Component)
	if errors.Is(err, component.ErrUnknownComponent) || errors.Is(err, component.ErrNoFileSupport) {
		self.log.WithField("component", f.Component).Debug("Component doesn't embed files")
		return nil
	}
	if err != nil {
		return err
	}
	return links.ReplaceFileLinks(ctx, f, oldName)
}

// Deletions are delivered by the file updates job
func (self *Handlers) onFileDeleted(ctx context.Context, event *Event) error {
	if !self.config.Push.IsValid() {
		return nil
	}

	f := event.File
	courseId, err := self.contexts.CourseId(ctx, f.ContextId)
	if errors.Is(err, lms.ErrNotInCourse) || errors.Is(err, lms.ErrContextNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	err = self.queue.EnqueueFileDeletion(ctx, &model.DeletedFile{
		CourseId:     courseId,
		PathNameHash: f.PathNameHash,
		ContentHash:  f.ContentHash,
		MimeType:     f.MimeType,
		TimeDeleted:  event.TimeCreated,
	})
	if err != nil {
		return err
	}
	self.monitor.GetReport().Ally.State.DeletionsQueued.Inc()
	return nil
}
