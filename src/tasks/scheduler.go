package tasks

import (
	"context"

	"github.com/lms-ally/syncer/src/utils/config"
	"github.com/lms-ally/syncer/src/utils/task"
)

// Runs both jobs on their cron schedules. A job never overlaps with its own previous run.
type Scheduler struct {
	*task.Task

	fileUpdates    *FileUpdates
	contentUpdates *ContentUpdates
}

func NewScheduler(config *config.Config, fileUpdates *FileUpdates, contentUpdates *ContentUpdates) (self *Scheduler) {
	self = new(Scheduler)
	self.fileUpdates = fileUpdates
	self.contentUpdates = contentUpdates

	self.Task = task.NewTask(config, "scheduler").
		WithCronSubtaskFunc(config.Tasks.FileUpdatesSchedule, self.runFileUpdates).
		WithCronSubtaskFunc(config.Tasks.ContentUpdatesSchedule, self.runContentUpdates)
	return
}

func (self *Scheduler) withTimeout() (context.Context, context.CancelFunc) {
	if self.Config.Tasks.JobTimeout <= 0 {
		return context.WithCancel(self.Ctx)
	}
	return context.WithTimeout(self.Ctx, self.Config.Tasks.JobTimeout)
}

func (self *Scheduler) runFileUpdates() error {
	ctx, cancel := self.withTimeout()
	defer cancel()
	return self.fileUpdates.Execute(ctx)
}

func (self *Scheduler) runContentUpdates() error {
	ctx, cancel := self.withTimeout()
	defer cancel()
	return self.contentUpdates.Execute(ctx)
}
