package push

import (
	"context"

	"github.com/lms-ally/syncer/src/queue"
	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/model"
	"github.com/lms-ally/syncer/src/utils/monitoring"
	"github.com/lms-ally/syncer/src/utils/settings"

	"github.com/sirupsen/logrus"
)

// Processor pushes changes as they happen. Whatever can't be pushed right away lands in the queue,
// scheduled jobs deliver it later.
type Processor struct {
	log      *logrus.Entry
	config   *config.Push
	pusher   *Pusher
	queue    *queue.Queue
	settings *settings.Store
	monitor  *monitoring.Monitor
}

func NewProcessor(config *config.Push, pusher *Pusher, queue *queue.Queue, settings *settings.Store) (self *Processor) {
	self = new(Processor)
	self.log = logger.NewSublogger("processor")
	self.config = config
	self.pusher = pusher
	self.queue = queue
	self.settings = settings
	self.monitor = monitoring.NewMonitor()
	return
}

func (self *Processor) WithMonitor(monitor *monitoring.Monitor) *Processor {
	self.monitor = monitor
	return self
}

// Live pushes are possible only with a valid config and outside of CLI-only mode
func (self *Processor) isLive(ctx context.Context) (bool, error) {
	if !self.config.IsValid() {
		return false, nil
	}
	cliOnly, err := self.settings.IsCliOnly(ctx)
	if err != nil {
		return false, err
	}
	self.monitor.GetReport().Ally.State.CliOnly.Store(cliOnly)
	return !cliOnly, nil
}

// PushContentUpdate returns true if the content was pushed, false if it got queued instead.
// Transport errors are never returned, they switch the syncer to CLI-only mode.
func (self *Processor) PushContentUpdate(ctx context.Context, eventName string, items ...*model.ComponentContent) (pushed bool, err error) {
	html := make([]*model.ComponentContent, 0, len(items))
	for _, item := range items {
		if item != nil && item.IsHTML() {
			html = append(html, item)
		}
	}
	if len(html) == 0 {
		return true, nil
	}

	live, err := self.isLive(ctx)
	if err != nil {
		self.log.WithError(err).Warn("Failed to check push mode, queuing")
	}
	if !live {
		return false, self.enqueue(ctx, eventName, html)
	}

	err = self.pusher.Send(ctx, ContentPayloads(eventName, html...))
	if err != nil {
		self.log.WithError(err).WithField("event", eventName).Error("Live push failed, switching to CLI-only mode")
		self.monitor.GetReport().Ally.Errors.LivePushFailures.Inc()

		err = self.settings.SetCliOnly(ctx, true)
		if err != nil {
			self.log.WithError(err).Error("Failed to switch to CLI-only mode")
		} else {
			self.monitor.GetReport().Ally.State.CliOnly.Store(true)
		}
		return false, self.enqueue(ctx, eventName, html)
	}

	self.monitor.GetReport().Ally.State.ContentPushedLive.Add(uint64(len(html)))
	return true, nil
}

func (self *Processor) enqueue(ctx context.Context, eventName string, items []*model.ComponentContent) (err error) {
	if eventName == EventContentDeleted {
		err = self.queue.EnqueueContentDeletion(ctx, items...)
		if err == nil {
			self.monitor.GetReport().Ally.State.DeletionsQueued.Add(uint64(len(items)))
		}
		return
	}

	err = self.queue.EnqueueContentUpdate(ctx, eventName, items...)
	if err == nil {
		self.monitor.GetReport().Ally.State.ContentQueued.Add(uint64(len(items)))
	}
	return
}

// PushFileUpdates is best effort. Files that weren't pushed get picked up by the file updates job.
func (self *Processor) PushFileUpdates(ctx context.Context, files []*model.FileItem) (pushed bool) {
	if len(files) == 0 {
		return true
	}

	live, err := self.isLive(ctx)
	if err != nil || !live {
		return false
	}

	payloads := make([]Payload, 0, len(files))
	for _, f := range files {
		payloads = append(payloads, NewFilePayload(f))
	}

	err = self.pusher.Send(ctx, payloads)
	if err != nil {
		self.log.WithError(err).WithField("len", len(files)).Warn("Live file push failed")
		self.monitor.GetReport().Ally.Errors.LivePushFailures.Inc()
		return false
	}

	self.monitor.GetReport().Ally.State.FilesPushedLive.Add(uint64(len(files)))
	return true
}
