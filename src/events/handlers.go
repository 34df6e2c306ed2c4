package events

import (
	"context"
	"time"

	"github.com/lms-ally/syncer/src/component"
	"github.com/lms-ally/syncer/src/files"
	"github.com/lms-ally/syncer/src/push"
	"github.com/lms-ally/syncer/src/queue"
	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/model"
	"github.com/lms-ally/syncer/src/utils/monitoring"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Handlers react to lifecycle events. Content goes through the live tier, transport failures never reach the caller.
type Handlers struct {
	log       *logrus.Entry
	config    *config.Config
	db        *gorm.DB
	registry  *component.Registry
	contexts  *lms.Contexts
	modules   *lms.Modules
	validator *files.Validator
	processor *push.Processor
	queue     *queue.Queue
	monitor   *monitoring.Monitor

	handlers map[Name]func(context.Context, *Event) error
}

func NewHandlers(config *config.Config, db *gorm.DB, registry *component.Registry) (self *Handlers) {
	self = new(Handlers)
	self.log = logger.NewSublogger("events")
	self.config = config
	self.db = db
	self.registry = registry
	self.monitor = monitoring.NewMonitor()

	self.handlers = map[Name]func(context.Context, *Event) error{
		CourseCreated:     self.onCourseCreated,
		CourseUpdated:     self.onCourseUpdated,
		CourseDeleted:     self.onCourseDeleted,
		SectionCreated:    self.onSectionChanged,
		SectionUpdated:    self.onSectionChanged,
		SectionDeleted:    self.onSectionDeleted,
		ModuleCreated:     self.onModuleChanged,
		ModuleUpdated:     self.onModuleChanged,
		ModuleDeleted:     self.onModuleDeleted,
		DiscussionCreated: self.onDiscussionChanged,
		DiscussionUpdated: self.onDiscussionChanged,
		DiscussionDeleted: self.onDiscussionDeleted,
		PostCreated:       self.onPostChanged,
		PostUpdated:       self.onPostChanged,
		PostDeleted:       self.onPostDeleted,
		FileCreated:       self.onFileChanged,
		FileUpdated:       self.onFileChanged,
		FileDeleted:       self.onFileDeleted,
	}
	return
}

func (self *Handlers) WithLms(contexts *lms.Contexts, modules *lms.Modules) *Handlers {
	self.contexts = contexts
	self.modules = modules
	return self
}

func (self *Handlers) WithValidator(validator *files.Validator) *Handlers {
	self.validator = validator
	return self
}

func (self *Handlers) WithProcessor(processor *push.Processor) *Handlers {
	self.processor = processor
	return self
}

func (self *Handlers) WithQueue(queue *queue.Queue) *Handlers {
	self.queue = queue
	return self
}

func (self *Handlers) WithMonitor(monitor *monitoring.Monitor) *Handlers {
	self.monitor = monitor
	return self
}

// Dispatch runs the handler of the event
func (self *Handlers) Dispatch(ctx context.Context, event *Event) (err error) {
	err = event.Validate()
	if err != nil {
		return
	}
	if event.TimeCreated == 0 {
		event.TimeCreated = time.Now().Unix()
	}

	log := self.log.WithField("event", event.Name).WithField("object_id", event.ObjectId)
	log.Debug("Handling event")

	if self.validator != nil {
		self.validator.Reset()
	}

	err = self.handlers[event.Name](ctx, event)
	if err != nil {
		self.monitor.GetReport().Ally.Errors.EventFailures.Inc()
		log.WithError(err).Warn("Failed to handle event")
		return
	}

	self.monitor.GetReport().Ally.State.EventsHandled.Inc()
	return nil
}

func contentEvent(name Name) string {
	switch name {
	case CourseCreated, SectionCreated, ModuleCreated, DiscussionCreated, PostCreated:
		return push.EventContentCreated
	case CourseDeleted, SectionDeleted, ModuleDeleted, DiscussionDeleted, PostDeleted:
		return push.EventContentDeleted
	default:
		return push.EventContentUpdated
	}
}

func (self *Handlers) push(ctx context.Context, event *Event, items ...*model.ComponentContent) error {
	pushed, err := self.processor.PushContentUpdate(ctx, contentEvent(event.Name), items...)
	if err != nil {
		return err
	}
	if !pushed {
		self.log.WithField("event", event.Name).WithField("len", len(items)).Debug("Content queued")
	}
	return nil
}

// Deletions are never pushed live, the content updates job sends them
func (self *Handlers) queueDeletion(ctx context.Context, event *Event, items ...*model.ComponentContent) error {
	var n int
	for _, item := range items {
		if item != nil {
			n++
		}
	}
	if n == 0 {
		return nil
	}

	err := self.queue.EnqueueContentDeletion(ctx, items...)
	if err != nil {
		return err
	}
	self.monitor.GetReport().Ally.State.DeletionsQueued.Add(uint64(n))
	self.log.WithField("event", event.Name).WithField("len", n).Debug("Deletion queued")
	return nil
}

// Deleted rows are gone, their tombstones are always HTML
func tombstones(items []*model.ComponentContent, courseId, timeDeleted int64) (out []*model.ComponentContent) {
	for _, item := range items {
		out = append(out, model.NewDeletedComponentContent(item.Id, item.Component, item.Table, item.Field, courseId, timeDeleted))
	}
	return
}
