package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/lms-ally/syncer/src/component"
	"github.com/lms-ally/syncer/src/push"
	"github.com/lms-ally/syncer/src/queue"
	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/model"
	"github.com/lms-ally/syncer/src/utils/monitoring"
	"github.com/lms-ally/syncer/src/utils/settings"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// ContentUpdates delivers content that couldn't be pushed live: deletions first, then updates
type ContentUpdates struct {
	log      *logrus.Entry
	config   *config.Config
	registry *component.Registry
	pusher   *push.Pusher
	queue    *queue.Queue
	settings *settings.Store
	monitor  *monitoring.Monitor
}

func NewContentUpdates(config *config.Config, registry *component.Registry) (self *ContentUpdates) {
	self = new(ContentUpdates)
	self.log = logger.NewSublogger("content-updates")
	self.config = config
	self.registry = registry
	self.monitor = monitoring.NewMonitor()
	return
}

func (self *ContentUpdates) WithPusher(pusher *push.Pusher) *ContentUpdates {
	self.pusher = pusher
	return self
}

func (self *ContentUpdates) WithQueue(queue *queue.Queue) *ContentUpdates {
	self.queue = queue
	return self
}

func (self *ContentUpdates) WithSettings(settings *settings.Store) *ContentUpdates {
	self.settings = settings
	return self
}

func (self *ContentUpdates) WithMonitor(monitor *monitoring.Monitor) *ContentUpdates {
	self.monitor = monitor
	return self
}

func (self *ContentUpdates) Execute(ctx context.Context) (err error) {
	log := self.log.WithField("run_id", xid.New().String())

	defer func() {
		if err != nil {
			self.monitor.GetReport().Ally.Errors.ContentTaskFailures.Inc()
			return
		}
		self.monitor.GetReport().Ally.State.LastContentRunTimestamp.Store(time.Now().Unix())
	}()

	if !self.config.Push.IsValid() {
		log.Info("Push isn't configured, skipping")
		return nil
	}

	since, err := self.settings.GetInt64(ctx, model.SettingPushContentTimestamp)
	if err != nil {
		return
	}
	if since == 0 {
		log.Info("First run, setting the starting point")
		return self.settings.SetInt64(ctx, model.SettingPushContentTimestamp, time.Now().Unix())
	}

	startedAt := time.Now().Unix()

	deleted, err := self.queue.DrainDeletedContent(ctx, self.pusher.BatchSize(), self.sendDeletions(ctx))
	self.monitor.GetReport().Ally.State.QueueRowsDelivered.Add(uint64(deleted))
	if err != nil {
		log.WithError(err).WithField("deleted", deleted).Error("Failed to push content deletions")
		return
	}

	updated, err := self.queue.DrainContentQueue(ctx, self.pusher.BatchSize(), self.sendUpdates(ctx, log))
	self.monitor.GetReport().Ally.State.QueueRowsDelivered.Add(uint64(updated))
	if err != nil {
		log.WithError(err).WithField("updated", updated).Error("Failed to push queued content")
		return
	}

	_, err = self.settings.Advance(ctx, model.SettingPushContentTimestamp, startedAt)
	if err != nil {
		return
	}
	self.monitor.GetReport().Ally.State.ContentWatermark.Store(startedAt)

	log.WithField("deleted", deleted).WithField("updated", updated).Info("Queued content pushed")
	return nil
}

func (self *ContentUpdates) sendDeletions(ctx context.Context) func([]*model.DeletedContent) error {
	return func(batch []*model.DeletedContent) error {
		items := make([]*model.ComponentContent, 0, len(batch))
		for _, row := range batch {
			items = append(items, model.NewDeletedComponentContent(row.CompRowId, row.Component, row.CompTable, row.CompField, row.CourseId, row.TimeDeleted))
		}
		return self.pusher.Send(ctx, push.ContentPayloads(push.EventContentDeleted, items...))
	}
}

func (self *ContentUpdates) sendUpdates(ctx context.Context, log *logrus.Entry) func([]*model.ContentQueueItem) error {
	return func(batch []*model.ContentQueueItem) error {
		payloads := make([]push.Payload, 0, len(batch))
		for _, row := range batch {
			item, err := self.current(ctx, log, row)
			if err != nil {
				return err
			}
			if item == nil {
				continue
			}
			payloads = append(payloads, push.ContentPayloads(row.EventName, item)...)
		}
		return self.pusher.Send(ctx, payloads)
	}
}

// Content as it is now. Falls back to the queued copy when the row is gone.
// Nil for rows that can never be read, they are dropped from the queue.
func (self *ContentUpdates) current(ctx context.Context, log *logrus.Entry, row *model.ContentQueueItem) (*model.ComponentContent, error) {
	adapter, err := self.registry.HTMLContent(row.Component)
	if errors.Is(err, component.ErrUnknownComponent) || errors.Is(err, component.ErrNoHTMLSupport) {
		log.WithField("component", row.Component).Warn("Queued content of unsupported component, using the queued copy")
		return row.ComponentContent(), nil
	}
	if err != nil {
		return nil, err
	}

	item, err := adapter.HTMLContent(ctx, row.ComponentId, row.CompTable, row.CompField, row.CourseId)
	if component.IsNotFound(err) {
		return row.ComponentContent(), nil
	}
	if component.IsInvalidIdentity(err) {
		log.WithError(err).WithField("queue_id", row.Id).Warn("Dropping queued content with an invalid identity")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if item == nil {
		return row.ComponentContent(), nil
	}
	return item, nil
}
