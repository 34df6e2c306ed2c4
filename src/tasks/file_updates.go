package tasks

import (
	"context"
	"time"

	"github.com/lms-ally/syncer/src/files"
	"github.com/lms-ally/syncer/src/push"
	"github.com/lms-ally/syncer/src/queue"
	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/lms"
	"github.com/lms-ally/syncer/src/utils/logger"
	"github.com/lms-ally/syncer/src/utils/model"
	"github.com/lms-ally/syncer/src/utils/monitoring"
	"github.com/lms-ally/syncer/src/utils/settings"
	"github.com/lms-ally/syncer/src/utils/task"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// FileUpdates pushes files changed since the last run, then the queued file deletions
type FileUpdates struct {
	log       *logrus.Entry
	config    *config.Config
	db        *gorm.DB
	contexts  *lms.Contexts
	validator *files.Validator
	pusher    *push.Pusher
	queue     *queue.Queue
	settings  *settings.Store
	monitor   *monitoring.Monitor
}

func NewFileUpdates(config *config.Config, db *gorm.DB, contexts *lms.Contexts, validator *files.Validator) (self *FileUpdates) {
	self = new(FileUpdates)
	self.log = logger.NewSublogger("file-updates")
	self.config = config
	self.db = db
	self.contexts = contexts
	self.validator = validator
	self.monitor = monitoring.NewMonitor()
	return
}

func (self *FileUpdates) WithPusher(pusher *push.Pusher) *FileUpdates {
	self.pusher = pusher
	return self
}

func (self *FileUpdates) WithQueue(queue *queue.Queue) *FileUpdates {
	self.queue = queue
	return self
}

func (self *FileUpdates) WithSettings(settings *settings.Store) *FileUpdates {
	self.settings = settings
	return self
}

func (self *FileUpdates) WithMonitor(monitor *monitoring.Monitor) *FileUpdates {
	self.monitor = monitor
	return self
}

// Execute performs one run. Progress of a failed run is kept, the next run continues from there.
func (self *FileUpdates) Execute(ctx context.Context) (err error) {
	log := self.log.WithField("run_id", xid.New().String())

	defer func() {
		if err != nil {
			self.monitor.GetReport().Ally.Errors.FileTaskFailures.Inc()
			return
		}
		self.monitor.GetReport().Ally.State.LastFileRunTimestamp.Store(time.Now().Unix())
	}()

	if !self.config.Push.IsValid() {
		log.Info("Push isn't configured, skipping")
		return nil
	}

	// Roles may have changed since the previous run
	self.validator.Reset()

	since, err := self.settings.GetInt64(ctx, model.SettingPushTimestamp)
	if err != nil {
		return
	}
	if since == 0 {
		// First run only marks where the next one starts
		log.Info("First run, setting the starting point")
		return self.settings.SetInt64(ctx, model.SettingPushTimestamp, time.Now().Unix())
	}

	sent, err := self.pushUpdates(ctx, log, since)
	if err != nil {
		log.WithError(err).WithField("sent", sent).Error("Failed to push file updates")
		return
	}

	deleted, err := self.queue.DrainDeletedFiles(ctx, self.pusher.BatchSize(), func(batch []*model.DeletedFile) error {
		payloads := make([]push.Payload, 0, len(batch))
		for _, f := range batch {
			payloads = append(payloads, push.NewDeletedFilePayload(f))
		}
		return self.pusher.Send(ctx, payloads)
	})
	self.monitor.GetReport().Ally.State.QueueRowsDelivered.Add(uint64(deleted))
	if err != nil {
		log.WithError(err).WithField("deleted", deleted).Error("Failed to push file deletions")
		return
	}

	log.WithField("sent", sent).WithField("deleted", deleted).Info("File updates pushed")
	return nil
}

func (self *FileUpdates) pushUpdates(ctx context.Context, log *logrus.Entry, since int64) (sent int, err error) {
	var last *model.FileItem

	batcher := task.NewBatcher(self.pusher.BatchSize(), func(batch []*model.FileItem) error {
		payloads := make([]push.Payload, 0, len(batch))
		ids := make([]string, 0, len(batch))
		for _, f := range batch {
			payloads = append(payloads, push.NewFilePayload(f))
			ids = append(ids, f.PathNameHash)
		}

		err := self.pusher.Send(ctx, payloads)
		if err != nil {
			return err
		}
		log.WithField("entity_ids", ids).Info("push_file_updates_summary")

		sent += len(batch)
		self.monitor.GetReport().Ally.State.FilesDelivered.Add(uint64(len(batch)))

		// Files sharing the second with the last one may still be waiting in the next batch
		last = batch[len(batch)-1]
		return self.advance(ctx, last.TimeModified-1)
	})

	detector := files.NewDetector(self.db, self.contexts, self.validator).
		WithSince(since).
		SortBy("timemodified", false).
		WithPageSize(self.config.Tasks.FilePageSize)

	for detector.Next(ctx) {
		err = batcher.Add(detector.Current())
		if err != nil {
			return
		}
	}
	err = detector.Err()
	if err != nil {
		return
	}

	err = batcher.Flush()
	if err != nil {
		return
	}

	if last != nil {
		// Everything got sent
		err = self.advance(ctx, last.TimeModified)
	}
	return
}

func (self *FileUpdates) advance(ctx context.Context, watermark int64) error {
	_, err := self.settings.Advance(ctx, model.SettingPushTimestamp, watermark)
	if err != nil {
		return err
	}
	self.monitor.GetReport().Ally.State.FileWatermark.Store(watermark)
	return nil
}
